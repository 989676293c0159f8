package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layoutsync/internal/pkg/errs"
)

func TestValidateFileSize(t *testing.T) {
	assert.Nil(t, ValidateFileSize(1))
	assert.Nil(t, ValidateFileSize(MaxAssetSize))

	cerr := ValidateFileSize(MaxAssetSize + 1)
	require.NotNil(t, cerr)
	assert.Equal(t, errs.ErrAssetTooLarge, cerr.Code)

	for _, size := range []int64{0, -1} {
		cerr := ValidateFileSize(size)
		require.NotNil(t, cerr)
		assert.Equal(t, errs.ErrInvalidParams, cerr.Code)
	}
}

func TestValidateFileType(t *testing.T) {
	assert.Nil(t, ValidateFileType("hero.jpg", "image/jpeg"))
	assert.Nil(t, ValidateFileType("hero.JPEG", "IMAGE/JPEG"))
	assert.Nil(t, ValidateFileType("logo.svg", "image/svg+xml"))

	cases := []struct {
		name     string
		fileName string
		mimeType string
	}{
		{"disallowed type", "video.mp4", "video/mp4"},
		{"extension mismatch", "hero.png", "image/jpeg"},
		{"no extension", "hero", "image/png"},
		{"dot only", "hero.", "image/png"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cerr := ValidateFileType(tc.fileName, tc.mimeType)
			require.NotNil(t, cerr)
			assert.Equal(t, errs.ErrAssetTypeInvalid, cerr.Code)
		})
	}
}
