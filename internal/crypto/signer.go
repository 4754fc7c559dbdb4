// Package crypto holds the executor keypair: secp256k1 signing over
// transaction bytes and address derivation from the compressed public key.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/decred/dcrd/crypto/ripemd160"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// AddressSize is the byte length of an account address.
const AddressSize = 20

// schemeSecp256k1 is the signature scheme flag prepended to serialized
// signatures so the chain can dispatch verification.
const schemeSecp256k1 byte = 0x01

var (
	ErrInvalidPrivateKey = errors.New("crypto: invalid private key")
)

// Keypair is the executor's long-lived signing identity. It is constructed
// once at startup and never mutated.
type Keypair struct {
	priv    *secp256k1.PrivateKey
	pub     []byte // compressed, 33 bytes
	address string
}

// KeypairFromHex parses a 32-byte secp256k1 private key from hex.
func KeypairFromHex(privHex string) (*Keypair, error) {
	privHex = strings.TrimPrefix(strings.TrimSpace(privHex), "0x")
	raw, err := hex.DecodeString(privHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("%w: want 32 bytes, got %d", ErrInvalidPrivateKey, len(raw))
	}
	priv := secp256k1.PrivKeyFromBytes(raw)
	SecureErase(raw)
	if priv.Key.IsZero() {
		return nil, fmt.Errorf("%w: zero key", ErrInvalidPrivateKey)
	}
	pub := priv.PubKey().SerializeCompressed()
	return &Keypair{
		priv:    priv,
		pub:     pub,
		address: "0x" + hex.EncodeToString(deriveAddress(pub)),
	}, nil
}

// deriveAddress computes RIPEMD160(SHA256(compressedPublicKey)). Two
// different hashes are used so a length-extension on one does not carry to
// the address.
func deriveAddress(publicKey []byte) []byte {
	sum := sha256.Sum256(publicKey)
	h := ripemd160.New()
	h.Write(sum[:])
	return h.Sum(nil)
}

// Address returns the executor's account address, 0x-prefixed hex.
func (k *Keypair) Address() string {
	return k.address
}

// PublicKey returns the compressed public key bytes.
func (k *Keypair) PublicKey() []byte {
	out := make([]byte, len(k.pub))
	copy(out, k.pub)
	return out
}

// SignTransaction signs the canonical transaction bytes and returns the
// serialized signature the chain expects: scheme flag, compact DER-free
// signature, then the compressed public key.
func (k *Keypair) SignTransaction(txBytes []byte) []byte {
	digest := sha256.Sum256(txBytes)
	sig := secpecdsa.Sign(k.priv, digest[:])
	ser := sig.Serialize()

	out := make([]byte, 0, 1+len(ser)+len(k.pub))
	out = append(out, schemeSecp256k1)
	out = append(out, ser...)
	out = append(out, k.pub...)
	return out
}

// Verify checks a signature produced by SignTransaction against txBytes.
// Used by tests; the chain performs the authoritative verification.
func Verify(txBytes, serialized, compressedPub []byte) bool {
	if len(serialized) < 2 || serialized[0] != schemeSecp256k1 {
		return false
	}
	sigEnd := len(serialized) - len(compressedPub)
	if sigEnd <= 1 {
		return false
	}
	sig, err := secpecdsa.ParseDERSignature(serialized[1:sigEnd])
	if err != nil {
		return false
	}
	pub, err := secp256k1.ParsePubKey(compressedPub)
	if err != nil {
		return false
	}
	digest := sha256.Sum256(txBytes)
	return sig.Verify(digest[:], pub)
}
