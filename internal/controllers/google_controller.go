package controllers

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/insight-hub-api/internal/middleware"
	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

const (
	maxCourseIDLength      = 100
	defaultCalendarResults = 10
	maxCalendarResults     = 250
)

var courseIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// TokenRefresher obtains a provider access token from a stored refresh token
type TokenRefresher interface {
	RefreshAccessToken(ctx context.Context, refreshToken string) (string, bool)
}

// GoogleController proxies Classroom and Calendar reads for signed in accounts
type GoogleController struct {
	google    services.GoogleService
	accounts  services.AccountService
	refresher TokenRefresher
}

// NewGoogleController creates a GoogleController. A nil refresher means provider
// credentials are not configured and every refresh is treated as unavailable.
func NewGoogleController(google services.GoogleService, accounts services.AccountService, refresher TokenRefresher) *GoogleController {
	return &GoogleController{google: google, accounts: accounts, refresher: refresher}
}

// refreshStatus tells why an access token could not be obtained
type refreshStatus int

const (
	refreshOK refreshStatus = iota
	refreshNoToken
	refreshFailed
)

// accessToken loads the current account and trades its refresh token. It writes
// the response itself when the account cannot be loaded and then reports handled.
func (gc *GoogleController) accessToken(c *gin.Context) (token string, status refreshStatus, handled bool) {
	principal, _ := middleware.PrincipalFrom(c)
	account, err := gc.accounts.FindByID(c.Request.Context(), principal.ID)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "User not found"))
		return "", refreshFailed, true
	}
	if err != nil {
		log.WithError(err).Error("Failed to load account")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to load account"))
		return "", refreshFailed, true
	}

	if !account.HasRefreshToken() {
		log.WithField("account_id", account.ID).Debug("No provider refresh token stored")
		return "", refreshNoToken, false
	}
	if gc.refresher == nil {
		return "", refreshFailed, false
	}
	token, ok := gc.refresher.RefreshAccessToken(c.Request.Context(), *account.ProviderRefreshToken)
	if !ok {
		log.WithField("account_id", account.ID).Warn("Provider refresh token rejected")
		return "", refreshFailed, false
	}
	return token, refreshOK, false
}

// GetCourses godoc
// @Summary List Classroom courses
// @Description ACTIVE courses of the signed in account, or every course when none is active. Empty when Google access is unavailable.
// @Tags classroom
// @Produce json
// @Success 200 {array} object
// @Failure 401 {object} map[string]string
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /classroom/courses [get]
func (gc *GoogleController) GetCourses(c *gin.Context) {
	token, status, handled := gc.accessToken(c)
	if handled {
		return
	}
	if status != refreshOK {
		c.JSON(http.StatusOK, []interface{}{})
		return
	}

	courses, err := gc.google.ListCourses(c.Request.Context(), token)
	if err != nil {
		respondWithGoogleError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(courses))
}

// GetCoursework godoc
// @Summary List coursework of a course
// @Tags classroom
// @Produce json
// @Param id path string true "Classroom course ID"
// @Success 200 {array} object
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /classroom/courses/{id}/coursework [get]
func (gc *GoogleController) GetCoursework(c *gin.Context) {
	courseID := c.Param("id")
	if len(courseID) > maxCourseIDLength || !courseIDPattern.MatchString(courseID) {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "Invalid course ID format"))
		return
	}

	token, status, handled := gc.accessToken(c)
	switch {
	case handled:
		return
	case status == refreshNoToken:
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrGoogleReauthorize,
			"Google refresh token not found. Please re-authenticate."))
		return
	case status == refreshFailed:
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrGoogleReauthorize,
			"Failed to get access token. Please re-authenticate."))
		return
	}

	work, err := gc.google.ListCoursework(c.Request.Context(), token, courseID)
	if err != nil {
		respondWithGoogleError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(work))
}

// GetCalendarEvents godoc
// @Summary Upcoming calendar events
// @Description Events of the primary calendar over the next 30 days. Empty when Google access is unavailable.
// @Tags calendar
// @Produce json
// @Param max_results query int false "Maximum number of events (1-250)" default(10)
// @Success 200 {array} object
// @Failure 400 {object} models.APIError
// @Failure 502 {object} models.APIError
// @Security BearerAuth
// @Router /calendar/events [get]
func (gc *GoogleController) GetCalendarEvents(c *gin.Context) {
	maxResults := defaultCalendarResults
	if raw := c.Query("max_results"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxCalendarResults {
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "max_results must be between 1 and 250"))
			return
		}
		maxResults = parsed
	}

	token, status, handled := gc.accessToken(c)
	if handled {
		return
	}
	if status != refreshOK {
		c.JSON(http.StatusOK, []interface{}{})
		return
	}

	events, err := gc.google.ListCalendarEvents(c.Request.Context(), token, maxResults)
	if err != nil {
		respondWithGoogleError(c, err)
		return
	}
	c.JSON(http.StatusOK, nonNil(events))
}

func respondWithGoogleError(c *gin.Context, err error) {
	var apiErr *services.GoogleAPIError
	if errors.As(err, &apiErr) {
		log.WithField("status", apiErr.StatusCode).Warn("Google API request rejected")
	} else {
		log.WithError(err).Error("Google API request failed")
	}
	c.JSON(http.StatusBadGateway, models.NewAPIError(models.ErrInternalServer, "Google API request failed"))
}

func nonNil(items []map[string]interface{}) []map[string]interface{} {
	if items == nil {
		return []map[string]interface{}{}
	}
	return items
}
