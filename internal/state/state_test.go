package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExecutedMarks(t *testing.T) {
	s := openStore(t)

	done, err := s.WasExecuted("0x1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, s.MarkExecuted("0x1", time.Now()))
	done, err = s.WasExecuted("0x1")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = s.WasExecuted("0x2")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestMarksSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.MarkExecuted("0x1", time.Now()))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	done, err := s.WasExecuted("0x1")
	require.NoError(t, err)
	assert.True(t, done)
}

func TestReopenPrunesStaleMarks(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.MarkExecuted("0xold", time.Now().Add(-30*24*time.Hour)))
	require.NoError(t, s.MarkExecuted("0xnew", time.Now()))
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	done, err := s.WasExecuted("0xold")
	require.NoError(t, err)
	assert.False(t, done, "stale mark pruned on open")

	done, err = s.WasExecuted("0xnew")
	require.NoError(t, err)
	assert.True(t, done)
}
