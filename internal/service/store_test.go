package service

import (
	"testing"

	"github.com/set-night/telegpt/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateDefaults(t *testing.T) {
	store := NewSessionStore("default ctx")

	_, ok := store.Get(1)
	assert.False(t, ok)

	sess := store.GetOrCreate(1)
	assert.Equal(t, domain.ModeStatic, sess.Mode)
	assert.False(t, sess.Suspended)
	assert.False(t, sess.AwaitingContext)
	assert.Equal(t, "default ctx", sess.SystemContext)
	require.Len(t, sess.History, 1)
	assert.Equal(t, domain.Turn{Role: domain.RoleSystem, Content: "default ctx"}, sess.History[0])
	assert.Equal(t, 1, store.Len())
}

func TestGetReturnsCopy(t *testing.T) {
	store := NewSessionStore("ctx")
	store.GetOrCreate(1)

	sess, _ := store.Get(1)
	sess.History[0].Content = "mutated"
	sess.Suspended = true

	fresh, _ := store.Get(1)
	assert.Equal(t, "ctx", fresh.History[0].Content)
	assert.False(t, fresh.Suspended)
}

func TestSetContextReplacesSystemTurn(t *testing.T) {
	store := NewSessionStore("old")
	store.AppendTurn(1, domain.Turn{Role: domain.RoleUser, Content: "hi"})

	store.SetContext(1, "new")

	sess, _ := store.Get(1)
	assert.Equal(t, "new", sess.SystemContext)
	assert.Equal(t, "new", sess.History[0].Content)
	assert.Equal(t, domain.RoleSystem, sess.History[0].Role)
	// Conversation turns stay intact.
	require.Len(t, sess.History, 2)
	assert.Equal(t, "hi", sess.History[1].Content)
}

func TestClearHistoryDistinguishesEmpty(t *testing.T) {
	store := NewSessionStore("ctx")
	store.AppendTurn(1, domain.Turn{Role: domain.RoleUser, Content: "hi"})
	store.AppendTurn(1, domain.Turn{Role: domain.RoleAssistant, Content: "hello"})

	assert.True(t, store.ClearHistory(1))
	sess, _ := store.Get(1)
	require.Len(t, sess.History, 1)
	assert.Equal(t, domain.RoleSystem, sess.History[0].Role)

	assert.False(t, store.ClearHistory(1))
	sess, _ = store.Get(1)
	assert.Len(t, sess.History, 1)
}

func TestToggleMode(t *testing.T) {
	store := NewSessionStore("ctx")

	assert.Equal(t, domain.ModeStreamed, store.ToggleMode(1))
	assert.Equal(t, domain.ModeStatic, store.ToggleMode(1))
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	store := NewSessionStore("ctx")
	store.AppendTurn(1, domain.Turn{Role: domain.RoleUser, Content: "hi"})

	snap := store.Snapshot()
	snap[1].History[0].Content = "mutated"
	snap[1].Suspended = true

	sess, _ := store.Get(1)
	assert.Equal(t, "ctx", sess.History[0].Content)
	assert.False(t, sess.Suspended)
}

func TestRestoreRebuildsMissingSystemTurn(t *testing.T) {
	store := NewSessionStore("ctx")
	store.Restore(map[int64]*domain.Session{
		5: {Mode: domain.ModeStreamed, SystemContext: "restored"},
	})

	sess, ok := store.Get(5)
	require.True(t, ok)
	assert.Equal(t, domain.ModeStreamed, sess.Mode)
	require.Len(t, sess.History, 1)
	assert.Equal(t, domain.Turn{Role: domain.RoleSystem, Content: "restored"}, sess.History[0])
}
