// Package confidential is the thin boundary to the external
// confidentiality collaborator that holds the real parameters of opaque
// intents. Every failure surfaces as "no result": an opaque intent that
// cannot be decrypted is non-executable, not an error.
package confidential

import (
	"context"
	"encoding/hex"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/halcyonex/routerd/internal/core/types"
)

// IdentitySize is the fixed width of the identity key: an intent id
// interpreted as a 32-byte value.
const IdentitySize = 32

// Collaborator is the external confidentiality service contract.
type Collaborator interface {
	// IsEncrypted reports whether the collaborator holds parameters for
	// the identity.
	IsEncrypted(ctx context.Context, identity [IdentitySize]byte) bool

	// Decrypt returns the real parameters for the identity, authorized by
	// the session credential.
	Decrypt(ctx context.Context, identity [IdentitySize]byte, session []byte) (*types.IntentParams, error)

	// Encrypt seals parameters under the identity.
	Encrypt(ctx context.Context, params types.IntentParams, identity [IdentitySize]byte) ([]byte, error)
}

// Shim wraps the collaborator with the sentinel check and a cached session
// credential. Refreshing the credential is the engine's responsibility; the
// shim only refuses to use an expired one.
type Shim struct {
	collab Collaborator

	mu            sync.Mutex
	session       []byte
	sessionExpiry time.Time
}

// New creates a shim over the collaborator. A nil collaborator disables
// decryption: every opaque intent becomes non-executable.
func New(collab Collaborator) *Shim {
	return &Shim{collab: collab}
}

// IsOpaque reports whether the intent's parameters are hidden. The
// on-chain sentinel is authoritative; the collaborator is not consulted.
func (s *Shim) IsOpaque(intent *types.Intent) bool {
	return intent.Opaque()
}

// SetSession installs a fresh session credential.
func (s *Shim) SetSession(credential []byte, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = credential
	s.sessionExpiry = expiresAt
}

// SessionValid reports whether a usable session credential is cached.
func (s *Shim) SessionValid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.session) > 0 && time.Now().Before(s.sessionExpiry)
}

// Decrypt resolves an opaque intent's real parameters. ok=false on any
// failure: no collaborator, expired session, unknown identity.
func (s *Shim) Decrypt(ctx context.Context, intentID string) (*types.IntentParams, bool) {
	if s.collab == nil {
		return nil, false
	}
	identity, err := IdentityFromID(intentID)
	if err != nil {
		log.Printf("confidential: bad identity %q: %v", intentID, err)
		return nil, false
	}

	s.mu.Lock()
	session := s.session
	expired := len(session) == 0 || !time.Now().Before(s.sessionExpiry)
	s.mu.Unlock()
	if expired {
		log.Printf("confidential: session credential expired, skipping %s", intentID)
		return nil, false
	}

	params, err := s.collab.Decrypt(ctx, identity, session)
	if err != nil {
		log.Printf("confidential: decrypt %s: %v", intentID, err)
		return nil, false
	}
	if params == nil || params.ReceiveAmount == 0 {
		return nil, false
	}
	return params, true
}

// Encrypt seals parameters under the identity. ok=false on any failure.
func (s *Shim) Encrypt(ctx context.Context, params types.IntentParams, identity [IdentitySize]byte) ([]byte, bool) {
	if s.collab == nil {
		return nil, false
	}
	sealed, err := s.collab.Encrypt(ctx, params, identity)
	if err != nil {
		log.Printf("confidential: encrypt: %v", err)
		return nil, false
	}
	return sealed, true
}

// IdentityFromID interprets an intent id as a fixed-width 32-byte identity,
// left-padding short values.
func IdentityFromID(intentID string) ([IdentitySize]byte, error) {
	var out [IdentitySize]byte
	h := strings.TrimPrefix(strings.TrimSpace(intentID), "0x")
	if len(h)%2 == 1 {
		h = "0" + h
	}
	raw, err := hex.DecodeString(h)
	if err != nil {
		return out, err
	}
	if len(raw) > IdentitySize {
		raw = raw[len(raw)-IdentitySize:]
	}
	copy(out[IdentitySize-len(raw):], raw)
	return out, nil
}
