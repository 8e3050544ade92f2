// Package handle derives unique profile handles from email addresses.
package handle

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/fomongole/Notes-API-Microservices-Architecture/internal/apperrors"
)

// maxAttempts bounds collision retries. Past the bound allocation fails with
// ErrHandleExhausted instead of spinning under adversarial collision rates.
const maxAttempts = 10

// HandleChecker is the slice of the profile store the allocator reads.
type HandleChecker interface {
	HandleExists(ctx context.Context, handle string) (bool, error)
}

// Allocator derives handles of the form <email local part>_<4 digits> and
// retries with a fresh random suffix on collision.
type Allocator struct {
	profiles HandleChecker
}

func NewAllocator(profiles HandleChecker) *Allocator {
	return &Allocator{profiles: profiles}
}

// Allocate returns a handle that did not exist in the profile store at check
// time. Uniqueness is ultimately enforced by the store's unique constraint;
// the allocator only keeps the collision rate at insert time negligible.
func (a *Allocator) Allocate(ctx context.Context, email string) (string, error) {
	base := baseToken(email)

	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := fmt.Sprintf("%s_%04d", base, randomSuffix())

		exists, err := a.profiles.HandleExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", apperrors.ErrHandleExhausted
}

// baseToken extracts the handle base from the email local part.
func baseToken(email string) string {
	local := email
	if at := strings.Index(email, "@"); at > 0 {
		local = email[:at]
	}
	return strings.ToLower(strings.TrimSpace(local))
}

// randomSuffix returns a number in [1000, 9999].
func randomSuffix() int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(9000))
	return 1000 + n.Int64()
}
