package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/insight-hub-api/internal/auth"
	"github.com/franciscosanchezn/insight-hub-api/internal/middleware"
	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

// AdminController handles username/password sign-in for content admins
type AdminController struct {
	admins   services.AdminService
	sessions *auth.SessionIssuer
	tokenTTL time.Duration
}

func NewAdminController(admins services.AdminService, sessions *auth.SessionIssuer, tokenTTL time.Duration) *AdminController {
	return &AdminController{admins: admins, sessions: sessions, tokenTTL: tokenTTL}
}

// Login godoc
// @Summary Admin login
// @Description Checks admin credentials and returns an admin session token
// @Tags admin
// @Accept json
// @Produce json
// @Param credentials body object{username=string,password=string} true "Admin credentials"
// @Success 200 {object} map[string]interface{} "access_token, token_type and expires_in"
// @Failure 400 {object} models.APIError
// @Failure 401 {object} models.APIError
// @Router /admin/login [post]
func (ac *AdminController) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required,max=100"`
		Password string `json:"password" binding:"required,max=200"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "username and password are required"))
		return
	}

	admin, err := ac.admins.GetByUsername(c.Request.Context(), req.Username)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		log.WithError(err).Error("Failed to load admin")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to sign in"))
		return
	}
	if admin == nil || !admin.CheckPassword(req.Password) || !admin.Active {
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "Incorrect username or password"))
		return
	}

	token, err := ac.sessions.IssueAdmin(admin.ID, ac.tokenTTL)
	if err != nil {
		log.WithError(err).Error("Failed to issue admin token")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to sign in"))
		return
	}

	log.WithField("admin_id", admin.ID).Info("Admin signed in")
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(ac.tokenTTL.Seconds()),
	})
}

// Me godoc
// @Summary Current admin
// @Tags admin
// @Produce json
// @Success 200 {object} models.Admin
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /admin/me [get]
func (ac *AdminController) Me(c *gin.Context) {
	principal, _ := middleware.PrincipalFrom(c)

	admin, err := ac.admins.GetByID(c.Request.Context(), principal.ID)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Admin not found"))
		return
	}
	if err != nil {
		log.WithError(err).Error("Failed to load admin")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to load admin"))
		return
	}
	c.JSON(http.StatusOK, admin)
}
