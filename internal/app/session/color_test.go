package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresenceColorIsDeterministic(t *testing.T) {
	for _, userID := range []string{"user-1", "user-2", "926bff01-9wsd-as12-pl18-86abb5fa6666", ""} {
		first := PresenceColor(userID)
		assert.Equal(t, first, PresenceColor(userID), "color must be stable for %q", userID)
		assert.Contains(t, presencePalette, first)
	}
}

func TestPresenceColorSpreadsAcrossPalette(t *testing.T) {
	seen := make(map[string]bool)
	for _, userID := range []string{"alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi", "ivan", "judy"} {
		seen[PresenceColor(userID)] = true
	}

	// FNV over distinct IDs should hit more than a single palette slot.
	assert.Greater(t, len(seen), 1)
}

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleOwner.CanEdit())
	assert.True(t, RoleAdmin.CanEdit())
	assert.True(t, RoleEditor.CanEdit())
	assert.False(t, RoleViewer.CanEdit())

	assert.True(t, RoleOwner.CanRollback())
	assert.True(t, RoleAdmin.CanRollback())
	assert.False(t, RoleEditor.CanRollback())
	assert.False(t, RoleViewer.CanRollback())
}
