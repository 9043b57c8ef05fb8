package database

import (
	"testing"

	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	pg := DatabaseConfig{Driver: "postgres", Host: "db", Port: "5432", User: "hub", Password: "pw", Name: "insighthub", SSLMode: "disable"}
	assert.Equal(t, "host=db user=hub password=pw dbname=insighthub port=5432 sslmode=disable TimeZone=UTC", pg.DSN())

	pg.URL = "postgres://hub:pw@db:5432/insighthub"
	assert.Equal(t, "postgres://hub:pw@db:5432/insighthub", pg.DSN())

	lite := DatabaseConfig{Driver: "sqlite", Path: "hub.sqlite"}
	assert.Equal(t, "hub.sqlite?_busy_timeout=5000&_foreign_keys=on", lite.DSN())

	lite.Path = "file:hub?mode=memory&_busy_timeout=100"
	assert.Equal(t, "file:hub?_busy_timeout=100&_foreign_keys=on&mode=memory", lite.DSN())

	assert.Empty(t, (&DatabaseConfig{Driver: "oracle"}).DSN())
	assert.NotContains(t, pg.String(), "pw")
	assert.Contains(t, pg.String(), "URL: [REDACTED]")
}

func TestInitDatabaseUnsupportedDriver(t *testing.T) {
	db, err := InitDatabase(DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
	assert.Nil(t, db)
}

func TestInitDatabaseAndMigrateSQLite(t *testing.T) {
	db, err := InitDatabase(DatabaseConfig{Driver: "sqlite", Path: "file:migrate_test?mode=memory&cache=shared"})
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	for _, table := range []interface{}{&models.PendingAuthState{}, &models.Account{}, &models.Admin{}, &models.Post{}, &models.Tag{}} {
		assert.True(t, db.Migrator().HasTable(table))
	}
	assert.True(t, db.Migrator().HasTable("post_tags"))
}
