package confidential

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonex/routerd/internal/core/types"
)

// fakeCollaborator holds parameters keyed by identity.
type fakeCollaborator struct {
	params      map[[IdentitySize]byte]types.IntentParams
	lastSession []byte
	decryptErr  error
}

func (f *fakeCollaborator) IsEncrypted(ctx context.Context, identity [IdentitySize]byte) bool {
	_, ok := f.params[identity]
	return ok
}

func (f *fakeCollaborator) Decrypt(ctx context.Context, identity [IdentitySize]byte, session []byte) (*types.IntentParams, error) {
	f.lastSession = session
	if f.decryptErr != nil {
		return nil, f.decryptErr
	}
	p, ok := f.params[identity]
	if !ok {
		return nil, errors.New("unknown identity")
	}
	return &p, nil
}

func (f *fakeCollaborator) Encrypt(ctx context.Context, params types.IntentParams, identity [IdentitySize]byte) ([]byte, error) {
	if f.params == nil {
		f.params = make(map[[IdentitySize]byte]types.IntentParams)
	}
	f.params[identity] = params
	return []byte("sealed"), nil
}

func TestIsOpaqueSentinel(t *testing.T) {
	s := New(nil)
	assert.True(t, s.IsOpaque(&types.Intent{}))
	assert.False(t, s.IsOpaque(&types.Intent{ReceiveAmount: 1}))
	assert.False(t, s.IsOpaque(&types.Intent{MinPrice: 1}))
	assert.False(t, s.IsOpaque(&types.Intent{MaxPrice: 1}))
}

func TestDecryptRoundTrip(t *testing.T) {
	collab := &fakeCollaborator{}
	s := New(collab)
	s.SetSession([]byte("credential"), time.Now().Add(time.Minute))

	identity, err := IdentityFromID("0xabc123")
	require.NoError(t, err)
	want := types.IntentParams{ReceiveAmount: 1000, MinPrice: 2, MaxPrice: 3}
	_, ok := s.Encrypt(context.Background(), want, identity)
	require.True(t, ok)

	got, ok := s.Decrypt(context.Background(), "0xabc123")
	require.True(t, ok)
	assert.Equal(t, want, *got)
	assert.Equal(t, []byte("credential"), collab.lastSession)
}

func TestDecryptFailuresAreNotErrors(t *testing.T) {
	t.Run("nil collaborator", func(t *testing.T) {
		s := New(nil)
		_, ok := s.Decrypt(context.Background(), "0x01")
		assert.False(t, ok)
	})

	t.Run("no session", func(t *testing.T) {
		s := New(&fakeCollaborator{})
		_, ok := s.Decrypt(context.Background(), "0x01")
		assert.False(t, ok)
	})

	t.Run("expired session", func(t *testing.T) {
		s := New(&fakeCollaborator{})
		s.SetSession([]byte("credential"), time.Now().Add(-time.Second))
		assert.False(t, s.SessionValid())
		_, ok := s.Decrypt(context.Background(), "0x01")
		assert.False(t, ok)
	})

	t.Run("unknown identity", func(t *testing.T) {
		s := New(&fakeCollaborator{})
		s.SetSession([]byte("credential"), time.Now().Add(time.Minute))
		_, ok := s.Decrypt(context.Background(), "0x01")
		assert.False(t, ok)
	})

	t.Run("collaborator error", func(t *testing.T) {
		s := New(&fakeCollaborator{decryptErr: errors.New("service down")})
		s.SetSession([]byte("credential"), time.Now().Add(time.Minute))
		_, ok := s.Decrypt(context.Background(), "0x01")
		assert.False(t, ok)
	})

	t.Run("bad identity", func(t *testing.T) {
		s := New(&fakeCollaborator{})
		s.SetSession([]byte("credential"), time.Now().Add(time.Minute))
		_, ok := s.Decrypt(context.Background(), "not-hex")
		assert.False(t, ok)
	})
}

func TestSessionValid(t *testing.T) {
	s := New(&fakeCollaborator{})
	assert.False(t, s.SessionValid(), "no session yet")

	s.SetSession([]byte("credential"), time.Now().Add(time.Minute))
	assert.True(t, s.SessionValid())

	s.SetSession([]byte("credential"), time.Now().Add(-time.Minute))
	assert.False(t, s.SessionValid())
}

func TestIdentityFromID(t *testing.T) {
	short, err := IdentityFromID("0xabc")
	require.NoError(t, err)
	assert.Equal(t, byte(0x0a), short[30])
	assert.Equal(t, byte(0xbc), short[31])
	for _, b := range short[:30] {
		assert.Zero(t, b, "short ids left-pad with zeros")
	}

	// Same id with and without prefix resolves identically.
	a, err := IdentityFromID("0xdeadbeef")
	require.NoError(t, err)
	b, err := IdentityFromID("deadbeef")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = IdentityFromID("zzzz")
	assert.Error(t, err)
}
