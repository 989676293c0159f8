package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneSectionsIsDeep(t *testing.T) {
	original := []Section{
		{
			ID:       "hero",
			Type:     "hero",
			Position: 0,
			Props: map[string]any{
				"title": "Welcome",
				"cta":   map[string]any{"label": "Buy", "href": "/buy"},
				"tags":  []any{"landing", "draft"},
			},
		},
		{ID: "footer", Type: "footer", Position: 1},
	}

	clone := CloneSections(original)
	require.Len(t, clone, 2)

	clone[0].Props["title"] = "Changed"
	clone[0].Props["cta"].(map[string]any)["label"] = "Sell"
	clone[0].Props["tags"].([]any)[0] = "other"

	assert.Equal(t, "Welcome", original[0].Props["title"])
	assert.Equal(t, "Buy", original[0].Props["cta"].(map[string]any)["label"])
	assert.Equal(t, "landing", original[0].Props["tags"].([]any)[0])

	assert.Nil(t, clone[1].Props)
	assert.Nil(t, CloneSections(nil))
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	draft := Draft{
		PageID:    "page-1",
		WebsiteID: "site-1",
		Sections:  []Section{{ID: "hero", Type: "hero", Props: map[string]any{"title": "stored"}}},
	}
	require.NoError(t, store.Save(ctx, draft))

	// The store keeps its own copy of what was saved.
	draft.Sections[0].Props["title"] = "mutated after save"

	got, err := store.Get(ctx, "page-1")
	require.NoError(t, err)
	assert.Equal(t, "stored", got.Sections[0].Props["title"])

	// And hands out copies on read.
	got.Sections[0].Props["title"] = "mutated after get"

	again, err := store.Get(ctx, "page-1")
	require.NoError(t, err)
	assert.Equal(t, "stored", again.Sections[0].Props["title"])
}

func TestMemoryStoreGetUnknownPage(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Get(context.Background(), "page-ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}
