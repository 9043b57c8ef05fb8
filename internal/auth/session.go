package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims carried by session tokens issued by this service
type SessionClaims struct {
	Email string        `json:"email,omitempty"`
	Kind  PrincipalKind `json:"kind"`
	jwt.RegisteredClaims
}

// Principal converts verified claims into a Principal
func (c *SessionClaims) Principal() (Principal, bool) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return Principal{}, false
	}
	switch c.Kind {
	case PrincipalAccount, PrincipalAdmin:
	default:
		return Principal{}, false
	}
	return Principal{Kind: c.Kind, ID: uint(id), Email: c.Email}, true
}

// SessionIssuer signs and verifies HS256 session tokens
type SessionIssuer struct {
	secret []byte
	now    func() time.Time
}

// NewSessionIssuer creates an issuer. An empty secret is rejected.
func NewSessionIssuer(secret string) (*SessionIssuer, error) {
	if secret == "" {
		return nil, configurationError(errors.New("JWT_SECRET is empty"))
	}
	return &SessionIssuer{secret: []byte(secret), now: time.Now}, nil
}

// Issue signs a session token for an account, valid for ttl
func (s *SessionIssuer) Issue(accountID uint, email string, ttl time.Duration) (string, error) {
	return s.sign(SessionClaims{
		Email:            email,
		Kind:             PrincipalAccount,
		RegisteredClaims: s.registered(accountID, ttl),
	})
}

// IssueAdmin signs a session token for an admin, valid for ttl
func (s *SessionIssuer) IssueAdmin(adminID uint, ttl time.Duration) (string, error) {
	return s.sign(SessionClaims{
		Kind:             PrincipalAdmin,
		RegisteredClaims: s.registered(adminID, ttl),
	})
}

func (s *SessionIssuer) registered(id uint, ttl time.Duration) jwt.RegisteredClaims {
	now := s.now()
	return jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(id), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *SessionIssuer) sign(claims SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", configurationError(fmt.Errorf("sign session token: %w", err))
	}
	return signed, nil
}

// Verify checks signature and expiry. Any failure yields nil.
func (s *SessionIssuer) Verify(tokenString string) *SessionClaims {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		log.WithError(err).Debug("Rejected session token")
		return nil
	}
	return claims
}
