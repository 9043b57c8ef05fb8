package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"gorm.io/gorm"
)

// AccountService provides persistence for accounts mapped from the identity provider
type AccountService interface {
	// FindByID retrieves an account by its local id
	FindByID(ctx context.Context, id uint) (*models.Account, error)
	// FindByExternalID retrieves an account by the provider subject id
	FindByExternalID(ctx context.Context, externalID string) (*models.Account, error)
	// FindByEmail retrieves an account by its email address
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	// FindByDisplayName retrieves the first account with the given display name
	FindByDisplayName(ctx context.Context, name string) (*models.Account, error)
	// FindByEmailLocalPart retrieves the first account whose email starts with "local@"
	FindByEmailLocalPart(ctx context.Context, local string) (*models.Account, error)
	// Create inserts a new account
	Create(ctx context.Context, account *models.Account) error
	// Update saves every field of an existing account
	Update(ctx context.Context, account *models.Account) error
}

type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new instance of AccountService
func NewAccountService(db *gorm.DB) AccountService {
	return &accountService{db: db}
}

func (s *accountService) FindByID(ctx context.Context, id uint) (*models.Account, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *accountService) FindByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	return s.first(ctx, "external_id = ?", externalID)
}

func (s *accountService) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *accountService) FindByDisplayName(ctx context.Context, name string) (*models.Account, error) {
	return s.first(ctx, "display_name = ?", name)
}

func (s *accountService) FindByEmailLocalPart(ctx context.Context, local string) (*models.Account, error) {
	return s.first(ctx, "email LIKE ? ESCAPE '\\'", escapeLike(local)+"@%")
}

// escapeLike escapes LIKE wildcards so "_" in a mention matches literally
func escapeLike(value string) string {
	return likeEscaper.Replace(value)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func (s *accountService) first(ctx context.Context, query string, args ...interface{}) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where(query, args...).Order("id").First(&account).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (s *accountService) Create(ctx context.Context, account *models.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return fmt.Errorf("create account: %w", translate(err))
	}
	return nil
}

func (s *accountService) Update(ctx context.Context, account *models.Account) error {
	if err := s.db.WithContext(ctx).Save(account).Error; err != nil {
		return fmt.Errorf("update account %d: %w", account.ID, translate(err))
	}
	return nil
}
