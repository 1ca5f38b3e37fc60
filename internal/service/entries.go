package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/and161185/passvault/internal/challenge"
	"github.com/and161185/passvault/internal/model"
	"github.com/and161185/passvault/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// EntryService defines operations over password entries.
type EntryService interface {
	// Challenge returns the current transport challenge.
	Challenge() challenge.Challenge
	// List returns all entries of a user, pinned first, then by name.
	List(ctx context.Context, userID uuid.UUID) ([]model.Entry, error)
	// Create stores a new entry; master and password arrive as transport envelopes.
	Create(ctx context.Context, userID uuid.UUID, in model.EntryInput, master, password string) (*model.Entry, error)
	// Update replaces an existing entry through the same pipeline.
	Update(ctx context.Context, userID, id uuid.UUID, in model.EntryInput, master, password string) (*model.Entry, error)
	// Decrypt opens one entry's sealed blob and returns it re-wrapped under
	// the current challenge.
	Decrypt(ctx context.Context, userID, id uuid.UUID, master string) (string, error)
	// Remove deletes an entry.
	Remove(ctx context.Context, userID, id uuid.UUID) error
	// TogglePin flips the pinned flag without touching the cipher layers.
	TogglePin(ctx context.Context, userID, id uuid.UUID) (*model.Entry, error)
	// Export opens every entry under one derived key and returns plaintext rows.
	Export(ctx context.Context, userID uuid.UUID, master string) ([]model.ExportRow, error)
}

type EntryServiceImpl struct {
	entries  repository.EntryRepository
	tr       transport
	atRest   AtRestCipher
	verifier masterVerifier
}

// NewEntryService constructs EntryService with its cipher capabilities.
func NewEntryService(entries repository.EntryRepository, users repository.UserRepository,
	broker *challenge.Broker, tc TransportCipher, ac AtRestCipher) *EntryServiceImpl {
	return &EntryServiceImpl{
		entries:  entries,
		tr:       transport{broker: broker, cipher: tc},
		atRest:   ac,
		verifier: masterVerifier{users: users},
	}
}

// Challenge returns the active transport challenge.
func (s *EntryServiceImpl) Challenge() challenge.Challenge {
	return s.tr.broker.Current()
}

// unlock decodes the master envelope and verifies it against the stored hash.
// The returned key is valid for this call only; callers must Wipe it.
func (s *EntryServiceImpl) unlock(ctx context.Context, userID uuid.UUID, master string) (*model.MasterKey, error) {
	plain, err := s.tr.decrypt(master)
	if err != nil {
		return nil, err
	}
	return s.verifier.verify(ctx, userID, plain)
}

// List returns entries in display order: pinned first, then name ascending.
// Ordering is applied here because it is a display contract, not a storage one.
func (s *EntryServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]model.Entry, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	out, err := s.entries.GetFullList(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Pinned != out[j].Pinned {
			return out[i].Pinned
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// seal runs the write pipeline: transport-decrypt both secrets, verify the
// master, and re-encrypt the entry password under the derived key.
func (s *EntryServiceImpl) seal(ctx context.Context, userID uuid.UUID, master, password string) (string, error) {
	key, err := s.unlock(ctx, userID, master)
	if err != nil {
		return "", err
	}
	defer key.Wipe()

	plain, err := s.tr.decrypt(password)
	if err != nil {
		return "", err
	}
	sealed, err := s.atRest.Seal(plain, key)
	if err != nil {
		return "", fmt.Errorf("seal entry password: %w", err)
	}
	return sealed, nil
}

// Create stores a new entry. The record store call is the single commit point.
func (s *EntryServiceImpl) Create(ctx context.Context, userID uuid.UUID, in model.EntryInput, master, password string) (*model.Entry, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	if in.Name == "" {
		return nil, errors.New("validation: empty name")
	}
	sealed, err := s.seal(ctx, userID, master, password)
	if err != nil {
		return nil, err
	}
	return s.entries.Create(ctx, userID, in, sealed)
}

// Update runs the same pipeline against an existing entry.
func (s *EntryServiceImpl) Update(ctx context.Context, userID, id uuid.UUID, in model.EntryInput, master, password string) (*model.Entry, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, errors.New("validation: empty userID/id")
	}
	if in.Name == "" {
		return nil, errors.New("validation: empty name")
	}
	sealed, err := s.seal(ctx, userID, master, password)
	if err != nil {
		return nil, err
	}
	return s.entries.Update(ctx, userID, id, in, sealed)
}

// Decrypt opens one sealed blob and returns the plaintext re-wrapped under
// the current challenge for the return trip.
func (s *EntryServiceImpl) Decrypt(ctx context.Context, userID, id uuid.UUID, master string) (string, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return "", errors.New("validation: empty userID/id")
	}
	key, err := s.unlock(ctx, userID, master)
	if err != nil {
		return "", err
	}
	defer key.Wipe()

	e, err := s.entries.GetOne(ctx, userID, id)
	if err != nil {
		return "", err
	}
	plain, err := s.atRest.Open(e.Password, key)
	if err != nil {
		return "", err
	}
	return s.tr.encrypt(plain)
}

// Remove deletes an entry.
func (s *EntryServiceImpl) Remove(ctx context.Context, userID, id uuid.UUID) error {
	if userID == uuid.Nil || id == uuid.Nil {
		return errors.New("validation: empty userID/id")
	}
	return s.entries.Delete(ctx, userID, id)
}

// TogglePin flips the pinned flag. Pure metadata mutation.
func (s *EntryServiceImpl) TogglePin(ctx context.Context, userID, id uuid.UUID) (*model.Entry, error) {
	if userID == uuid.Nil || id == uuid.Nil {
		return nil, errors.New("validation: empty userID/id")
	}
	e, err := s.entries.GetOne(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.entries.SetPinned(ctx, userID, id, !e.Pinned)
}

// Export verifies the master once and opens every entry under the single
// derived key. Verification failure happens before any blob is opened.
func (s *EntryServiceImpl) Export(ctx context.Context, userID uuid.UUID, master string) ([]model.ExportRow, error) {
	if userID == uuid.Nil {
		return nil, errors.New("validation: empty userID")
	}
	key, err := s.unlock(ctx, userID, master)
	if err != nil {
		return nil, err
	}
	defer key.Wipe()

	entries, err := s.entries.GetFullList(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows := make([]model.ExportRow, 0, len(entries))
	for i := range entries {
		plain, err := s.atRest.Open(entries[i].Password, key)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", entries[i].ID, err)
		}
		rows = append(rows, model.ExportRow{
			Name:     entries[i].Name,
			Website:  entries[i].Website,
			Username: entries[i].Username,
			Password: plain,
		})
	}
	return rows, nil
}
