package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/insight-hub-api/internal/database"
	"github.com/franciscosanchezn/insight-hub-api/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedAccount(t *testing.T, accounts AccountService, externalID, email, name string) *models.Account {
	t.Helper()
	account := &models.Account{ExternalID: externalID, Email: email, DisplayName: name, Active: true}
	require.NoError(t, accounts.Create(context.Background(), account))
	return account
}
