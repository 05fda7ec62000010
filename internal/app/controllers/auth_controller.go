package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/app/services"
	"github.com/aurcc/bonafide-portal/internal/middleware"
	"github.com/aurcc/bonafide-portal/internal/session"
)

const (
	loginView          = "public/login"
	changePasswordView = "public/change_password"
)

// AuthController handles login, logout and the forced password change
type AuthController struct {
	authService *services.AuthService
	pages       *middleware.SessionMiddleware
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, pages *middleware.SessionMiddleware, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		pages:       pages,
		logger:      logger,
	}
}

// LoginView is the data of the login page
type LoginView struct {
	Username string
	Expired  bool
}

// Root sends the visitor wherever the access model lands them.
func (ctl *AuthController) Root(c *gin.Context) {
	d := access.Landing(middleware.CurrentSession(c).Principal())
	if d.Outcome == access.Deny {
		ctl.pages.Enforce(c, d)
		return
	}
	c.Redirect(http.StatusSeeOther, d.Path)
}

// LoginPage renders the login form. A signed-in user is sent to their landing page.
func (ctl *AuthController) LoginPage(c *gin.Context) {
	if s := middleware.CurrentSession(c); s != nil {
		ctl.Root(c)
		return
	}
	page := ctl.pages.Page(c, "Sign in", "")
	page.Data = LoginView{Expired: c.Query("expired") != ""}
	c.HTML(http.StatusOK, loginView, page)
}

// Login authenticates against the API and starts a session.
func (ctl *AuthController) Login(c *gin.Context) {
	var req dto.LoginRequest
	page := ctl.pages.Page(c, "Sign in", "")
	if err := middleware.BindForm(c, &req); err != nil {
		ctl.pages.HandlePageError(c, err, loginView, page)
		return
	}
	page.Data = LoginView{Username: req.Username}

	// A new login replaces whatever session the browser had.
	if old := middleware.CurrentSession(c); old != nil {
		if err := ctl.pages.Sessions().Destroy(c.Request.Context(), old.ID); err != nil {
			ctl.logger.Warn().Err(err).Msg("Failed to drop previous session")
		}
	}

	sess, decision, err := ctl.authService.Login(c.Request.Context(), req)
	if err != nil {
		ctl.pages.HandlePageError(c, err, loginView, page)
		return
	}

	ctl.pages.SetCookie(c, sess)
	middleware.SetCurrentSession(c, sess)
	if decision.Outcome == access.Deny {
		ctl.pages.Enforce(c, decision)
		return
	}
	c.Redirect(http.StatusSeeOther, decision.Path)
}

// Logout ends the session. It works without a session too.
func (ctl *AuthController) Logout(c *gin.Context) {
	if s := middleware.CurrentSession(c); s != nil {
		if err := ctl.authService.Logout(c.Request.Context(), s); err != nil {
			ctl.logger.Warn().Err(err).Msg("Failed to end session")
		}
	}
	ctl.pages.ClearCookie(c)
	c.Redirect(http.StatusSeeOther, access.LoginPath)
}

// ChangePasswordPage renders the forced password change form.
func (ctl *AuthController) ChangePasswordPage(c *gin.Context) {
	c.HTML(http.StatusOK, changePasswordView, ctl.pages.Page(c, "Change Password", ""))
}

// ChangePassword submits the new password and lifts the forced change.
func (ctl *AuthController) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	page := ctl.pages.Page(c, "Change Password", "")
	if err := middleware.BindForm(c, &req); err != nil {
		ctl.pages.HandlePageError(c, err, changePasswordView, page)
		return
	}

	decision, err := ctl.authService.ChangePassword(c.Request.Context(), middleware.CurrentSession(c), req)
	if err != nil {
		ctl.pages.HandlePageError(c, err, changePasswordView, page)
		return
	}

	ctl.pages.Flash(c, session.FlashSuccess, "Password changed successfully")
	if decision.Outcome == access.Deny {
		ctl.pages.Enforce(c, decision)
		return
	}
	c.Redirect(http.StatusSeeOther, decision.Path)
}

// Unauthorized renders the page shown when a role leaves its subtree.
func (ctl *AuthController) Unauthorized(c *gin.Context) {
	c.HTML(http.StatusForbidden, middleware.UnauthorizedView, ctl.pages.Page(c, "Unauthorized", ""))
}
