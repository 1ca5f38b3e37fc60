package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/passvault/internal/challenge"
	"github.com/and161185/passvault/internal/crypto"
	"github.com/and161185/passvault/internal/errs"
	"github.com/and161185/passvault/internal/otp"
	"github.com/and161185/passvault/internal/repository"
	"github.com/gofrs/uuid/v5"
)

// MasterService defines the master credential lifecycle.
type MasterService interface {
	// Challenge returns the current transport challenge.
	Challenge() challenge.Challenge
	// Create hashes a transport-encrypted master password and stores the hash.
	Create(ctx context.Context, userID uuid.UUID, password string) error
	// Verify answers whether a transport-encrypted candidate matches the
	// stored hash. A mismatch is a legitimate "no", not an error.
	Verify(ctx context.Context, userID uuid.UUID, password string) (bool, error)
	// ValidateOTP gates credential resets through the external OTP validator.
	ValidateOTP(ctx context.Context, otpCode, otpID string) (bool, error)
}

type MasterServiceImpl struct {
	users repository.UserRepository
	tr    transport
	otp   otp.Validator
}

// NewMasterService constructs MasterService.
func NewMasterService(users repository.UserRepository, broker *challenge.Broker,
	tc TransportCipher, validator otp.Validator) *MasterServiceImpl {
	return &MasterServiceImpl{
		users: users,
		tr:    transport{broker: broker, cipher: tc},
		otp:   validator,
	}
}

// Challenge returns the active transport challenge.
func (s *MasterServiceImpl) Challenge() challenge.Challenge {
	return s.tr.broker.Current()
}

// Create decodes the envelope, hashes the plaintext with a fresh salt, and
// stores the hash against the user. Replacing an existing hash is allowed:
// the surrounding reset flow is OTP-gated.
func (s *MasterServiceImpl) Create(ctx context.Context, userID uuid.UUID, password string) error {
	if userID == uuid.Nil {
		return errors.New("validation: empty userID")
	}
	plain, err := s.tr.decrypt(password)
	if err != nil {
		return err
	}
	if plain == "" {
		return errors.New("validation: empty master password")
	}
	hash, err := crypto.Hash(plain)
	if err != nil {
		return fmt.Errorf("hash master password: %w", err)
	}
	return s.users.SetMasterHash(ctx, userID, hash)
}

// Verify decodes the envelope and compares it against the stored hash.
// A user without a credential simply gets false.
func (s *MasterServiceImpl) Verify(ctx context.Context, userID uuid.UUID, password string) (bool, error) {
	if userID == uuid.Nil {
		return false, errors.New("validation: empty userID")
	}
	plain, err := s.tr.decrypt(password)
	if err != nil {
		return false, err
	}
	hash, err := s.users.GetMasterHash(ctx, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return crypto.Compare(plain, hash), nil
}

// ValidateOTP delegates to the external validator, passing the current
// challenge as auxiliary material.
func (s *MasterServiceImpl) ValidateOTP(ctx context.Context, otpCode, otpID string) (bool, error) {
	if otpCode == "" || otpID == "" {
		return false, errors.New("validation: empty otp/otpId")
	}
	return s.otp.Validate(ctx, otpCode, otpID, string(s.tr.broker.Current()))
}
