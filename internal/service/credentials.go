// Package service holds small application services that sit between the
// HTTP handlers and the lower-level utilities.
package service

import (
	"context"

	"github.com/iliyamo/user-identity-service/internal/utils"
)

// Credentials wraps the password-hashing primitive with a fixed cost and a
// bounded worker semaphore.  bcrypt is CPU-bound, so the semaphore caps
// how many hashes can run at once; beyond that, callers queue instead of
// piling more work onto the CPU.  This is the only code path that accepts
// a plaintext password; it never logs or returns plaintexts or digests.
type Credentials struct {
	cost int
	sem  chan struct{}
}

// NewCredentials builds a Credentials service with the given bcrypt cost
// and concurrency cap.  workers below 1 is treated as 1.
func NewCredentials(cost, workers int) *Credentials {
	if workers < 1 {
		workers = 1
	}
	return &Credentials{cost: cost, sem: make(chan struct{}, workers)}
}

// Hash produces a salted digest for storage.  The same plaintext never
// produces the same digest twice.
func (s *Credentials) Hash(ctx context.Context, plain string) (string, error) {
	if err := s.acquire(ctx); err != nil {
		return "", err
	}
	defer s.release()
	return utils.HashPassword(plain, s.cost)
}

// Verify recomputes the digest using the salt embedded in hash and
// compares in constant time.
func (s *Credentials) Verify(ctx context.Context, plain, hash string) (bool, error) {
	if err := s.acquire(ctx); err != nil {
		return false, err
	}
	defer s.release()
	return utils.VerifyPassword(hash, plain), nil
}

func (s *Credentials) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Credentials) release() { <-s.sem }
