package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelection_ToggleSkipIdempotence(t *testing.T) {
	s := NewSelection()

	s.ToggleSkip("pay-001")
	assert.True(t, s.Skipped("pay-001"))
	assert.Equal(t, 1, s.SkippedCount())

	s.ToggleSkip("pay-001")
	assert.False(t, s.Skipped("pay-001"))
	assert.Equal(t, 0, s.SkippedCount())
}

func TestSelection_ToggleSelectIdempotence(t *testing.T) {
	s := NewSelection()

	s.ToggleSelect("pay-001")
	assert.True(t, s.Selected("pay-001"))

	s.ToggleSelect("pay-001")
	assert.False(t, s.Selected("pay-001"))
	assert.Empty(t, s.SelectedIDs())
}

func TestSelection_SkipAndSelectAreIndependent(t *testing.T) {
	s := NewSelection()

	s.ToggleSkip("pay-001")
	s.ToggleSelect("pay-001")
	assert.True(t, s.Skipped("pay-001"))
	assert.True(t, s.Selected("pay-001"))

	s.ToggleSelect("pay-001")
	assert.True(t, s.Skipped("pay-001"), "deselecting must not clear the skip flag")
}

func TestSelection_ToggleAll(t *testing.T) {
	universe := []string{"pay-001", "pay-002", "pay-003"}
	s := NewSelection()

	s.ToggleAll(universe)
	assert.Equal(t, 3, s.SelectedCount())

	// All selected: toggling again clears instead of reselecting.
	s.ToggleAll(universe)
	assert.Equal(t, 0, s.SelectedCount())
}

func TestSelection_ToggleAllWithPartialSelection(t *testing.T) {
	universe := []string{"pay-001", "pay-002", "pay-003"}
	s := NewSelection()

	s.ToggleSelect("pay-002")
	s.ToggleAll(universe)
	assert.Equal(t, 3, s.SelectedCount(), "partial selection fills to the full universe")

	// Insertion order preserved: pay-002 was selected first.
	assert.Equal(t, []string{"pay-002", "pay-001", "pay-003"}, s.SelectedIDs())
}

func TestSelection_SessionCursorSaturates(t *testing.T) {
	s := NewSelection()
	s.ToggleSelect("pay-001")
	s.ToggleSelect("pay-002")
	s.ToggleSelect("pay-003")

	require.True(t, s.OpenSession())

	id, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, "pay-001", id)

	s.Prev() // already at the start; must not wrap
	id, _ = s.Current()
	assert.Equal(t, "pay-001", id)

	s.Next()
	s.Next()
	s.Next() // past the end; must saturate
	id, _ = s.Current()
	assert.Equal(t, "pay-003", id)

	idx, size := s.CursorPosition()
	assert.Equal(t, 2, idx)
	assert.Equal(t, 3, size)
}

func TestSelection_CloseSessionClearsEverything(t *testing.T) {
	s := NewSelection()
	s.ToggleSelect("pay-001")
	s.ToggleSelect("pay-002")
	require.True(t, s.OpenSession())

	s.CloseSession()

	assert.False(t, s.SessionActive())
	assert.Equal(t, 0, s.SelectedCount())
	_, ok := s.Current()
	assert.False(t, ok)
}

func TestSelection_OpenSessionWithEmptySelection(t *testing.T) {
	s := NewSelection()
	assert.False(t, s.OpenSession())
	assert.False(t, s.SessionActive())
}

func TestSelection_SessionSnapshotIgnoresLaterToggles(t *testing.T) {
	s := NewSelection()
	s.ToggleSelect("pay-001")
	require.True(t, s.OpenSession())

	// Toggling after the snapshot must not grow the session sequence.
	s.ToggleSelect("pay-002")
	_, size := s.CursorPosition()
	assert.Equal(t, 1, size)
}
