package accounts

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// GeneratePlaceholderCredential produces the stored password value for a
// provisioned account: a bcrypt hash over fresh random material. The input
// is never derived from anything the user supplied, is never reused across
// accounts, and is discarded after hashing, so the credential can satisfy
// the host's storage contract without ever being logged in with.
func GeneratePlaceholderCredential() (string, error) {
	seed := uuid.NewString() + uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(seed), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to generate placeholder credential: %w", err)
	}
	return string(hash), nil
}
