package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"

	"github.com/franciscosanchezn/insight-hub-api/internal/config"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	switch config.GetEnvWithDefault("APP_ENV", "development") {
	case "development":
		log.SetLevel(logrus.DebugLevel)
	case "production":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}
}

var tracer = otel.Tracer("github.com/franciscosanchezn/insight-hub-api/internal/auth")

const (
	promptSelectAccount = "select_account"
	promptConsent       = "consent"
)

// CallbackParams are the query parameters of the provider redirect
type CallbackParams struct {
	Code  string
	State string
	Error string
}

// Dependencies are the collaborators of the Orchestrator. Exchanger and Identity
// default to Google clients built from the registration.
type Dependencies struct {
	States     PendingStateRepo
	Accounts   AccountRepo
	Sessions   *SessionIssuer
	Exchanger  TokenExchanger
	Identity   IdentitySource
	HTTPClient *http.Client
}

// Orchestrator runs the login flow: authorization redirect, callback and session issuance
type Orchestrator struct {
	conf       config.OAuthClientConfig
	configured bool
	oauth      *oauth2.Config
	states     *StateStore
	accounts   AccountRepo
	upserter   *AccountUpserter
	exchanger  TokenExchanger
	identity   IdentitySource
	sessions   *SessionIssuer
}

// NewOrchestrator validates the registration once. Missing credentials produce an
// orchestrator that answers every call with a KindConfiguration error; any other
// invalid setting is returned as an error.
func NewOrchestrator(conf config.OAuthClientConfig, deps Dependencies) (*Orchestrator, error) {
	if deps.States == nil || deps.Accounts == nil || deps.Sessions == nil {
		return nil, errors.New("orchestrator requires state, account and session dependencies")
	}

	o := &Orchestrator{
		conf:      conf,
		oauth:     newOAuth2Config(conf),
		states:    NewStateStore(deps.States),
		accounts:  deps.Accounts,
		upserter:  NewAccountUpserter(deps.Accounts),
		exchanger: deps.Exchanger,
		identity:  deps.Identity,
		sessions:  deps.Sessions,
	}

	if err := conf.Validate(); err != nil {
		if errors.Is(err, config.ErrOAuthNotConfigured) {
			log.Warn("Google OAuth credentials missing, login flow disabled")
			return o, nil
		}
		return nil, fmt.Errorf("invalid oauth configuration: %w", err)
	}
	o.configured = true

	if o.exchanger == nil || o.identity == nil {
		client := NewGoogleTokenClient(conf, deps.HTTPClient)
		if o.exchanger == nil {
			o.exchanger = client
		}
		if o.identity == nil {
			o.identity = NewIdentityResolver(client)
		}
	}
	return o, nil
}

// Configured reports whether provider credentials were supplied
func (o *Orchestrator) Configured() bool {
	return o.configured
}

// Exchanger exposes the token client so other components can refresh provider tokens
func (o *Orchestrator) Exchanger() TokenExchanger {
	return o.exchanger
}

// BeginLogin creates a pending state and returns the provider authorization URL.
// emailHint is optional; a malformed hint is ignored.
func (o *Orchestrator) BeginLogin(ctx context.Context, emailHint string) (string, error) {
	ctx, span := tracer.Start(ctx, "oauth.begin_login")
	defer span.End()

	if !o.configured {
		return "", recordError(span, configurationError(config.ErrOAuthNotConfigured))
	}

	hint := ""
	if emailHint != "" {
		normalized, err := NormalizeEmail(emailHint)
		if err != nil {
			log.WithError(err).Debug("Ignoring malformed email hint")
		} else {
			hint = normalized
		}
	}

	state, err := o.states.Create(ctx)
	if err != nil {
		return "", recordError(span, err)
	}

	prompt := o.promptFor(ctx, hint)
	opts := []oauth2.AuthCodeOption{oauth2.AccessTypeOffline}
	if prompt != "" {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", prompt))
	}
	if hint != "" {
		opts = append(opts, oauth2.SetAuthURLParam("login_hint", hint))
	}

	label := prompt
	if label == "" {
		label = "none"
	}
	loginsStarted.WithLabelValues(label).Inc()
	span.SetAttributes(attribute.String("oauth.prompt", label), attribute.Bool("oauth.login_hint", hint != ""))

	return o.oauth.AuthCodeURL(state, opts...), nil
}

// promptFor decides the prompt parameter. Without a hint the account chooser is shown.
// With a hint the consent screen is forced unless the account already granted offline
// access and skipping is enabled.
func (o *Orchestrator) promptFor(ctx context.Context, hint string) string {
	if hint == "" {
		return promptSelectAccount
	}
	if !o.conf.EmailHintSkipsPrompt {
		return promptConsent
	}
	account, err := o.accounts.FindByEmail(ctx, hint)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			log.WithError(err).Warn("Account lookup for email hint failed")
		}
		return promptConsent
	}
	if account.HasRefreshToken() {
		return ""
	}
	return promptConsent
}

// CompleteLogin validates the callback, signs the account in and returns the frontend
// redirect URL carrying the session token.
func (o *Orchestrator) CompleteLogin(ctx context.Context, params CallbackParams) (redirect string, err error) {
	ctx, span := tracer.Start(ctx, "oauth.complete_login")
	defer span.End()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = string(KindOf(err))
			recordError(span, err)
		}
		callbacksCompleted.WithLabelValues(outcome).Inc()
	}()

	if !o.configured {
		return "", configurationError(config.ErrOAuthNotConfigured)
	}

	if params.Error != "" {
		log.WithField("provider_error", params.Error).Warn("Provider returned an error on callback")
		return "", upstreamError(0, params.Error, fmt.Errorf("provider error: %s", params.Error))
	}
	if params.Code == "" {
		return "", validationError("authorization code not provided", errors.New("missing code"))
	}
	if !validCode(params.Code) {
		return "", validationError("invalid authorization code", errors.New("malformed code"))
	}
	if params.State == "" || !validState(params.State) {
		return "", csrfError(errors.New("missing or malformed state"))
	}

	if purged, err := o.states.PurgeOlderThan(ctx, o.conf.StateTTL); err != nil {
		log.WithError(err).Warn("Failed to purge stale pending states")
	} else if purged > 0 {
		statesPurged.Add(float64(purged))
	}

	expired, err := o.states.IsExpired(ctx, params.State, o.conf.StateTTL)
	if err != nil {
		return "", err
	}
	found, err := o.states.Consume(ctx, params.State)
	if err != nil {
		return "", err
	}
	if !found || expired {
		log.WithFields(logrus.Fields{"found": found, "expired": expired}).Warn("Rejected callback state")
		return "", csrfError(errors.New("state not found or expired"))
	}

	tokens, err := o.exchanger.ExchangeCode(ctx, params.Code, o.conf.RedirectURI)
	if err != nil {
		o.logUpstream(err, "Code exchange failed")
		return "", asUpstream(err)
	}

	identity, err := o.identity.Resolve(ctx, tokens)
	if err != nil {
		o.logUpstream(err, "Identity resolution failed")
		return "", asUpstream(err)
	}

	account, err := o.upserter.Upsert(ctx, identity, tokens.RefreshToken)
	if err != nil {
		return "", err
	}
	span.SetAttributes(attribute.Int64("account.id", int64(account.ID)))

	token, err := o.sessions.Issue(account.ID, account.Email, o.conf.SessionTTL())
	if err != nil {
		return "", err
	}

	log.WithField("account_id", account.ID).Info("Account signed in")
	return o.frontendRedirect(token)
}

func (o *Orchestrator) frontendRedirect(token string) (string, error) {
	base, err := url.Parse(strings.TrimRight(o.conf.FrontendURL, "/"))
	if err != nil {
		return "", configurationError(fmt.Errorf("parse FRONTEND_URL: %w", err))
	}
	target := base.JoinPath("auth", "callback")
	target.RawQuery = url.Values{"token": {token}}.Encode()
	return target.String(), nil
}

func (o *Orchestrator) logUpstream(err error, msg string) {
	entry := log.WithError(err)
	var authErr *Error
	if errors.As(err, &authErr) && authErr.UpstreamStatus != 0 {
		entry = entry.WithFields(logrus.Fields{
			"upstream_status": authErr.UpstreamStatus,
			"upstream_body":   authErr.UpstreamBody,
		})
	}
	entry.Warn(msg)
}

// asUpstream keeps flow errors as they are and wraps anything foreign as an upstream failure
func asUpstream(err error) error {
	if KindOf(err) != "" {
		return err
	}
	return upstreamError(0, "", err)
}

func recordError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, string(KindOf(err)))
	return err
}
