package services

import (
	"context"
	"fmt"
	"time"

	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"gorm.io/gorm"
)

// PendingStateService persists the short-lived CSRF states of in-flight logins
type PendingStateService interface {
	Insert(ctx context.Context, state *models.PendingAuthState) error
	Get(ctx context.Context, token string) (*models.PendingAuthState, error)
	// Delete removes the state and reports whether a row existed
	Delete(ctx context.Context, token string) (bool, error)
	// DeleteOlderThan removes every state created before cutoff
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type pendingStateService struct {
	db *gorm.DB
}

// NewPendingStateService creates a gorm-backed PendingStateService
func NewPendingStateService(db *gorm.DB) PendingStateService {
	return &pendingStateService{db: db}
}

func (s *pendingStateService) Insert(ctx context.Context, state *models.PendingAuthState) error {
	if err := s.db.WithContext(ctx).Create(state).Error; err != nil {
		return fmt.Errorf("insert pending state: %w", translate(err))
	}
	return nil
}

func (s *pendingStateService) Get(ctx context.Context, token string) (*models.PendingAuthState, error) {
	var state models.PendingAuthState
	if err := s.db.WithContext(ctx).Where("token = ?", token).First(&state).Error; err != nil {
		return nil, translate(err)
	}
	return &state, nil
}

// Delete is a single statement so concurrent callers cannot both observe the row
func (s *pendingStateService) Delete(ctx context.Context, token string) (bool, error) {
	result := s.db.WithContext(ctx).Where("token = ?", token).Delete(&models.PendingAuthState{})
	if result.Error != nil {
		return false, fmt.Errorf("delete pending state: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (s *pendingStateService) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&models.PendingAuthState{})
	if result.Error != nil {
		return 0, fmt.Errorf("purge pending states: %w", result.Error)
	}
	return result.RowsAffected, nil
}
