package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the provider's view of the person signing in
type Identity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type identityClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// FromIdentityToken decodes the claims of an identity token without verifying the
// signature: it arrived over TLS straight from the token endpoint.
// It returns nil when the token is malformed or lacks the subject or email.
func FromIdentityToken(raw string) *Identity {
	if raw == "" {
		return nil
	}
	parser := jwt.NewParser(jwt.WithPaddingAllowed())
	claims := &identityClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil && !errors.Is(err, jwt.ErrTokenUnverifiable) {
		return nil
	}
	if claims.Subject == "" || claims.Email == "" {
		return nil
	}
	return &Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}
}

// FromUserinfoResponse maps a userinfo document. "sub" is the subject, "id" the fallback.
func FromUserinfoResponse(info *UserInfo) *Identity {
	if info == nil {
		return nil
	}
	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	return &Identity{
		Subject: subject,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}
}

// IdentitySource produces a sanitized identity from a token set
type IdentitySource interface {
	Resolve(ctx context.Context, tokens *TokenSet) (*Identity, error)
}

// IdentityResolver prefers the identity token and falls back to the userinfo endpoint
type IdentityResolver struct {
	userinfo UserInfoFetcher
}

// NewIdentityResolver creates an IdentityResolver
func NewIdentityResolver(userinfo UserInfoFetcher) *IdentityResolver {
	return &IdentityResolver{userinfo: userinfo}
}

// Resolve returns the sanitized identity behind tokens
func (r *IdentityResolver) Resolve(ctx context.Context, tokens *TokenSet) (*Identity, error) {
	identity := FromIdentityToken(tokens.IDToken)
	if identity == nil {
		log.Debug("Identity token absent or incomplete, querying userinfo")
		info, err := r.userinfo.FetchUserInfo(ctx, tokens.AccessToken)
		if err != nil {
			return nil, err
		}
		identity = FromUserinfoResponse(info)
	}
	if identity.Subject == "" || identity.Email == "" {
		return nil, validationError("identity provider did not return an account id and email", errors.New("incomplete identity"))
	}
	return SanitizeIdentity(identity)
}
