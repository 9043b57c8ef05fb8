package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

// stateEntropyBytes is the number of random bytes behind every state token
const stateEntropyBytes = 32

// PendingStateRepo persists pending CSRF states
type PendingStateRepo interface {
	Insert(ctx context.Context, state *models.PendingAuthState) error
	Get(ctx context.Context, token string) (*models.PendingAuthState, error)
	Delete(ctx context.Context, token string) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// StateStore mints and consumes single-use CSRF state tokens
type StateStore struct {
	repo   PendingStateRepo
	now    func() time.Time
	random io.Reader
}

// NewStateStore creates a StateStore over the given repository
func NewStateStore(repo PendingStateRepo) *StateStore {
	return &StateStore{repo: repo, now: time.Now, random: rand.Reader}
}

// Create generates a URL-safe random token and persists it with the current time
func (s *StateStore) Create(ctx context.Context) (string, error) {
	buf := make([]byte, stateEntropyBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", storageError(fmt.Errorf("generate state: %w", err))
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	state := &models.PendingAuthState{Token: token, CreatedAt: s.now().UTC()}
	if err := s.repo.Insert(ctx, state); err != nil {
		return "", storageError(err)
	}
	return token, nil
}

// Consume deletes the token and reports whether it existed.
// A false result means the state is invalid, replayed or already purged.
func (s *StateStore) Consume(ctx context.Context, token string) (bool, error) {
	found, err := s.repo.Delete(ctx, token)
	if err != nil {
		return false, storageError(err)
	}
	return found, nil
}

// IsExpired reports whether the token is at least maxAge old. Unknown tokens count as expired.
func (s *StateStore) IsExpired(ctx context.Context, token string, maxAge time.Duration) (bool, error) {
	state, err := s.repo.Get(ctx, token)
	if errors.Is(err, services.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, storageError(err)
	}
	return stateExpired(state.CreatedAt, s.now(), maxAge), nil
}

// PurgeOlderThan deletes every state at least maxAge old
func (s *StateStore) PurgeOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	purged, err := s.repo.DeleteOlderThan(ctx, s.now().UTC().Add(-maxAge))
	if err != nil {
		return 0, storageError(err)
	}
	return purged, nil
}

// stateExpired compares instants in UTC, so the zone attached to createdAt by the driver is irrelevant
func stateExpired(createdAt, now time.Time, maxAge time.Duration) bool {
	return now.UTC().Sub(createdAt.UTC()) >= maxAge
}
