package service

import (
	"errors"

	"conduit/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when cost is out of range.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", models.NewValidationError("password", "is too long (maximum is 72 bytes)")
	}
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// Verify never accepts an unusable credential.
func (h *BcryptHasher) Verify(hash, plain string) bool {
	if hash == "" || hash[0] == models.UnusablePasswordPrefix[0] {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// UnusablePassword returns a credential no password can match.
func UnusablePassword() string {
	return models.UnusablePasswordPrefix + uuid.NewString()
}
