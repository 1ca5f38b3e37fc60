// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Entry is a single stored credential. Password always holds the sealed
// (at-rest encrypted, base64-encoded) blob, never the plaintext.
type Entry struct {
	ID       uuid.UUID
	Name     string
	Icon     string
	Color    string
	Website  string
	Username string
	Password string // sealed blob, base64
	Pinned   bool
	Created  time.Time
	Updated  time.Time
}

// EntryInput carries the writable non-secret fields of an entry.
type EntryInput struct {
	Name     string
	Icon     string
	Color    string
	Website  string
	Username string
}

// ExportRow is one row of a plaintext export. It exists only inside the
// response being built and is never persisted.
type ExportRow struct {
	Name     string
	Website  string
	Username string
	Password string
}

// MasterKey is request-scoped key material: the verified master password,
// used to key the at-rest cipher. It is never persisted or logged and must
// be wiped at the end of the request that produced it.
type MasterKey struct {
	b []byte
}

// NewMasterKey wraps verified plaintext as key material.
func NewMasterKey(plaintext string) *MasterKey {
	return &MasterKey{b: []byte(plaintext)}
}

// Bytes exposes the raw key material.
func (k *MasterKey) Bytes() []byte {
	if k == nil {
		return nil
	}
	return k.b
}

// Wipe zeroes the key material. Safe to call more than once.
func (k *MasterKey) Wipe() {
	if k == nil {
		return
	}
	for i := range k.b {
		k.b[i] = 0
	}
	k.b = nil
}
