// Package service contains the protocols composing the transport layer, the
// master password verification step, and the at-rest layer for each operation.
package service

import (
	"context"
	"errors"

	"github.com/and161185/passvault/internal/challenge"
	"github.com/and161185/passvault/internal/crypto"
	"github.com/and161185/passvault/internal/errs"
	"github.com/and161185/passvault/internal/model"
	"github.com/and161185/passvault/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// TransportCipher protects secret fields between caller and service, keyed by
// a challenge value. Injected at construction.
type TransportCipher interface {
	Encrypt(plaintext string, ch challenge.Challenge) (string, error)
	Decrypt(envelope string, ch challenge.Challenge) (string, error)
}

// AtRestCipher protects the stored password field, keyed by the verified
// master key. Injected at construction.
type AtRestCipher interface {
	Seal(plaintext string, key *model.MasterKey) (string, error)
	Open(blob string, key *model.MasterKey) (string, error)
}

// transport binds a transport cipher to the broker's challenge window.
type transport struct {
	broker *challenge.Broker
	cipher TransportCipher
}

// decrypt opens an envelope against every accepted challenge, newest first,
// absorbing the fetch-then-rotate race within the overlap window.
func (t transport) decrypt(envelope string) (string, error) {
	for _, ch := range t.broker.Accepted() {
		if pt, err := t.cipher.Decrypt(envelope, ch); err == nil {
			return pt, nil
		}
	}
	return "", errs.ErrTransportAuth
}

// encrypt wraps plaintext for the return trip under the current challenge.
func (t transport) encrypt(plaintext string) (string, error) {
	return t.cipher.Encrypt(plaintext, t.broker.Current())
}

// masterVerifier confirms a candidate master password against the stored
// one-way hash and yields it as at-rest key material.
type masterVerifier struct {
	users repository.UserRepository
}

// verify returns the candidate as a MasterKey on match. A missing credential
// and a wrong password are indistinguishable to the caller.
func (v masterVerifier) verify(ctx context.Context, userID uuid.UUID, candidate string) (*model.MasterKey, error) {
	hash, err := v.users.GetMasterHash(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.ErrUnauthorized
		}
		return nil, err
	}
	if !crypto.Compare(candidate, hash) {
		return nil, errs.ErrUnauthorized
	}
	return model.NewMasterKey(candidate), nil
}
