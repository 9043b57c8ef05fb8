package auth

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/franciscosanchezn/insight-hub-api/internal/config"
	"github.com/franciscosanchezn/insight-hub-api/internal/database"
	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

const testSecret = "test-jwt-secret-key-32-characters"

// newTestDB opens a private in-memory sqlite database with the full schema
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

func testOAuthConfig(providerURL string) config.OAuthClientConfig {
	return config.OAuthClientConfig{
		ClientID:             "client-123",
		ClientSecret:         "secret-456",
		RedirectURI:          "http://localhost:8080/auth/callback",
		FrontendURL:          "http://localhost:3000",
		Scopes:               []string{"openid", "email", "profile"},
		AuthURL:              providerURL + "/auth",
		TokenURL:             providerURL + "/token",
		UserInfoURL:          providerURL + "/userinfo",
		StateTTL:             10 * time.Minute,
		SessionTTLMinutes:    30,
		EmailHintSkipsPrompt: true,
	}
}

func testIssuer(t *testing.T) *SessionIssuer {
	t.Helper()
	issuer, err := NewSessionIssuer(testSecret)
	require.NoError(t, err)
	return issuer
}

// identityToken builds an unverified-looking provider identity token
func identityToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("provider-key"))
	require.NoError(t, err)
	return signed
}

type memoryStates struct {
	mu     sync.Mutex
	states map[string]time.Time
	err    error
}

func newMemoryStates() *memoryStates {
	return &memoryStates{states: make(map[string]time.Time)}
}

func (m *memoryStates) Insert(ctx context.Context, state *models.PendingAuthState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.states[state.Token] = state.CreatedAt
	return nil
}

func (m *memoryStates) Get(ctx context.Context, token string) (*models.PendingAuthState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	createdAt, ok := m.states[token]
	if !ok {
		return nil, services.ErrNotFound
	}
	return &models.PendingAuthState{Token: token, CreatedAt: createdAt}, nil
}

func (m *memoryStates) Delete(ctx context.Context, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.states[token]
	delete(m.states, token)
	return ok, nil
}

func (m *memoryStates) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var purged int64
	for token, createdAt := range m.states {
		if createdAt.Before(cutoff) {
			delete(m.states, token)
			purged++
		}
	}
	return purged, nil
}

func (m *memoryStates) tokens() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for token := range m.states {
		out = append(out, token)
	}
	sort.Strings(out)
	return out
}

type memoryAccounts struct {
	mu       sync.Mutex
	accounts []*models.Account
	nextID   uint
}

func (m *memoryAccounts) FindByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	return m.find(func(a *models.Account) bool { return a.ExternalID == externalID })
}

func (m *memoryAccounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return m.find(func(a *models.Account) bool { return a.Email == email })
}

func (m *memoryAccounts) find(match func(*models.Account) bool) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if match(a) {
			copied := *a
			return &copied, nil
		}
	}
	return nil, services.ErrNotFound
}

func (m *memoryAccounts) Create(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	account.ID = m.nextID
	copied := *account
	m.accounts = append(m.accounts, &copied)
	return nil
}

func (m *memoryAccounts) Update(ctx context.Context, account *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.accounts {
		if a.ID == account.ID {
			copied := *account
			m.accounts[i] = &copied
			return nil
		}
	}
	return services.ErrNotFound
}

type fakeExchanger struct {
	mu      sync.Mutex
	tokens  *TokenSet
	err     error
	calls   int
	refresh map[string]string
}

func (f *fakeExchanger) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	copied := *f.tokens
	return &copied, nil
}

func (f *fakeExchanger) RefreshAccessToken(ctx context.Context, refreshToken string) (string, bool) {
	access, ok := f.refresh[refreshToken]
	return access, ok
}

func (f *fakeExchanger) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
