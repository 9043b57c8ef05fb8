package auth

import (
	"context"
	"errors"

	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

// AccountRepo is the account storage used by the login flow
type AccountRepo interface {
	FindByExternalID(ctx context.Context, externalID string) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
}

// AccountUpserter creates or refreshes the account matching an identity
type AccountUpserter struct {
	accounts AccountRepo
}

// NewAccountUpserter creates an AccountUpserter
func NewAccountUpserter(accounts AccountRepo) *AccountUpserter {
	return &AccountUpserter{accounts: accounts}
}

// Upsert finds the account by external id and refreshes its profile, or creates it.
// A stored refresh token is only replaced by a non-empty one.
func (u *AccountUpserter) Upsert(ctx context.Context, identity *Identity, refreshToken string) (*models.Account, error) {
	account, err := u.accounts.FindByExternalID(ctx, identity.Subject)
	switch {
	case errors.Is(err, services.ErrNotFound):
		account = &models.Account{
			ExternalID:  identity.Subject,
			Email:       identity.Email,
			DisplayName: identity.Name,
			AvatarURL:   optional(identity.Picture),
			Active:      true,
		}
		if refreshToken != "" {
			account.ProviderRefreshToken = &refreshToken
		}
		if err := u.accounts.Create(ctx, account); err != nil {
			return nil, storageError(err)
		}
		log.WithField("account_id", account.ID).Info("Created account on first login")
		return account, nil
	case err != nil:
		return nil, storageError(err)
	}

	account.Email = identity.Email
	account.DisplayName = identity.Name
	account.AvatarURL = optional(identity.Picture)
	if refreshToken != "" {
		account.ProviderRefreshToken = &refreshToken
	}
	if err := u.accounts.Update(ctx, account); err != nil {
		return nil, storageError(err)
	}
	return account, nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
