package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/franciscosanchezn/insight-hub-api/internal/auth"
	"github.com/franciscosanchezn/insight-hub-api/internal/config"
	"github.com/franciscosanchezn/insight-hub-api/internal/middleware"
	"github.com/franciscosanchezn/insight-hub-api/internal/models"
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

// LoginFlow is the provider login flow driven by the /auth routes
type LoginFlow interface {
	BeginLogin(ctx context.Context, emailHint string) (string, error)
	CompleteLogin(ctx context.Context, params auth.CallbackParams) (string, error)
}

// AuthController serves the Google login routes
type AuthController struct {
	flow     LoginFlow
	sessions middleware.SessionVerifier
	accounts services.AccountService
}

func NewAuthController(flow LoginFlow, sessions middleware.SessionVerifier, accounts services.AccountService) *AuthController {
	return &AuthController{
		flow:     flow,
		sessions: sessions,
		accounts: accounts,
	}
}

// Login godoc
// @Summary Start Google login
// @Description Redirects to the Google consent screen with a fresh CSRF state
// @Tags auth
// @Param email query string false "Email hint for the account chooser"
// @Success 302 "Redirect to Google"
// @Failure 500 {object} models.DetailError "Google OAuth is not configured"
// @Router /auth/login [get]
func (ac *AuthController) Login(c *gin.Context) {
	redirect, err := ac.flow.BeginLogin(c.Request.Context(), c.Query("email"))
	if err != nil {
		respondWithAuthError(c, err)
		return
	}
	c.Redirect(http.StatusFound, redirect)
}

// Callback godoc
// @Summary Google login callback
// @Description Validates the state, exchanges the code, signs the account in and redirects to the frontend with a session token
// @Tags auth
// @Param code query string false "Authorization code"
// @Param state query string false "CSRF state"
// @Param error query string false "Provider error"
// @Success 302 "Redirect to {FRONTEND_URL}/auth/callback?token=..."
// @Failure 400 {object} models.DetailError
// @Failure 500 {object} models.DetailError
// @Router /auth/callback [get]
func (ac *AuthController) Callback(c *gin.Context) {
	redirect, err := ac.flow.CompleteLogin(c.Request.Context(), auth.CallbackParams{
		Code:  c.Query("code"),
		State: c.Query("state"),
		Error: c.Query("error"),
	})
	if err != nil {
		respondWithAuthError(c, err)
		return
	}
	c.Redirect(http.StatusFound, redirect)
}

// Me godoc
// @Summary Current account
// @Description Returns the account behind the session token
// @Tags auth
// @Produce json
// @Param token query string false "Session token, alternative to the Authorization header"
// @Success 200 {object} models.Account
// @Failure 401 {object} models.DetailError
// @Failure 404 {object} models.DetailError
// @Security BearerAuth
// @Router /auth/me [get]
func (ac *AuthController) Me(c *gin.Context) {
	tokenString, ok := middleware.BearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.NewDetailError("Invalid token"))
		return
	}
	claims := ac.sessions.Verify(tokenString)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, models.NewDetailError("Invalid token"))
		return
	}
	principal, ok := claims.Principal()
	if !ok || !principal.IsAccount() {
		c.JSON(http.StatusUnauthorized, models.NewDetailError("Invalid token payload"))
		return
	}

	account, err := ac.accounts.FindByID(c.Request.Context(), principal.ID)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewDetailError("User not found"))
		return
	}
	if err != nil {
		log.WithError(err).WithField("account_id", principal.ID).Error("Failed to load account")
		c.JSON(http.StatusInternalServerError, models.NewDetailError("internal error, try again later"))
		return
	}
	c.JSON(http.StatusOK, account)
}

// Logout godoc
// @Summary Log out
// @Description Session tokens are stateless, the client discards its token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (ac *AuthController) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// respondWithAuthError writes the client-facing detail of a login flow error
func respondWithAuthError(c *gin.Context, err error) {
	var authErr *auth.Error
	if !errors.As(err, &authErr) {
		log.WithError(err).Error("Unexpected login flow error")
		c.JSON(http.StatusInternalServerError, models.NewDetailError("internal error, try again later"))
		return
	}

	entry := log.WithFields(logrus.Fields{
		"kind":       authErr.Kind,
		"request_id": middleware.RequestIDFrom(c),
	})
	if authErr.Status() >= http.StatusInternalServerError {
		entry.WithError(authErr.Err).Error("Login flow failed")
	} else {
		entry.WithError(authErr.Err).Warn("Login flow rejected")
	}
	c.JSON(authErr.Status(), models.NewDetailError(authErr.Detail))
}
