// Package vaultcrypto implements the two symmetric layers protecting entry
// passwords: the transport cipher keyed by the rotating challenge and the
// at-rest cipher keyed by the verified master password.
//
// Both layers are XChaCha20-Poly1305 with a random nonce prefixed to the
// ciphertext and the whole blob base64-encoded for text transport/storage.
// Keys are expanded from the secret value via HKDF-SHA256 with a
// domain-separation label, so the two layers never share a key even for
// identical secrets.
package vaultcrypto

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/and161185/passvault/internal/challenge"
	"github.com/and161185/passvault/internal/crypto"
	"github.com/and161185/passvault/internal/errs"
	"github.com/and161185/passvault/internal/model"
)

const keyLen = chacha20poly1305.KeySize

// HKDF info labels separating the two layers.
const (
	transportLabel = "passvault/transport"
	atRestLabel    = "passvault/at-rest"
)

// deriveKey expands secret into an AEAD key via HKDF-SHA256.
func deriveKey(secret []byte, label string) ([]byte, error) {
	r := hkdf.New(sha256.New, secret, nil, []byte(label))
	key := make([]byte, keyLen)
	if _, err := r.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// seal encrypts plaintext under key and returns base64(nonce||ciphertext).
func seal(key []byte, plaintext string) (string, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	nonce, err := crypto.RandBytes(chacha20poly1305.NonceSizeX)
	if err != nil {
		return "", err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, []byte(plaintext), nil)...)
	return base64.StdEncoding.EncodeToString(out), nil
}

// open reverses seal. Any decode or authentication failure returns authErr.
func open(key []byte, blob string, authErr error) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", authErr, err)
	}
	if len(raw) < chacha20poly1305.NonceSizeX {
		return "", fmt.Errorf("%w: blob too short", authErr)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return "", err
	}
	nonce := raw[:chacha20poly1305.NonceSizeX]
	ct := raw[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", authErr
	}
	return string(pt), nil
}

// Transport is the challenge-keyed cipher protecting secret fields on the wire.
type Transport struct{}

// NewTransport constructs the transport cipher capability.
func NewTransport() Transport { return Transport{} }

// Encrypt wraps plaintext into an envelope under the given challenge.
func (Transport) Encrypt(plaintext string, ch challenge.Challenge) (string, error) {
	key, err := deriveKey([]byte(ch), transportLabel)
	if err != nil {
		return "", err
	}
	return seal(key, plaintext)
}

// Decrypt opens an envelope produced under the given challenge.
// Returns errs.ErrTransportAuth if the envelope was built under a different
// challenge or was tampered with.
func (Transport) Decrypt(envelope string, ch challenge.Challenge) (string, error) {
	key, err := deriveKey([]byte(ch), transportLabel)
	if err != nil {
		return "", err
	}
	return open(key, envelope, errs.ErrTransportAuth)
}

// AtRest is the master-key-keyed cipher protecting the stored password field.
type AtRest struct{}

// NewAtRest constructs the at-rest cipher capability.
func NewAtRest() AtRest { return AtRest{} }

// Seal encrypts an entry password under the verified master key. The result
// is what the record store persists.
func (AtRest) Seal(plaintext string, key *model.MasterKey) (string, error) {
	k, err := deriveKey(key.Bytes(), atRestLabel)
	if err != nil {
		return "", err
	}
	return seal(k, plaintext)
}

// Open decrypts a sealed blob. Returns errs.ErrAtRestAuth if the blob was not
// produced under this master key or the record is corrupted.
func (AtRest) Open(blob string, key *model.MasterKey) (string, error) {
	k, err := deriveKey(key.Bytes(), atRestLabel)
	if err != nil {
		return "", err
	}
	return open(k, blob, errs.ErrAtRestAuth)
}
