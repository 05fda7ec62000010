package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/aurcc/bonafide-portal/internal/apiclient"
	"github.com/aurcc/bonafide-portal/internal/app/access"
	"github.com/aurcc/bonafide-portal/internal/app/models"
	"github.com/aurcc/bonafide-portal/internal/app/models/dto"
	"github.com/aurcc/bonafide-portal/internal/pkg/apperrors"
	"github.com/aurcc/bonafide-portal/internal/pkg/validation"
	"github.com/aurcc/bonafide-portal/internal/session"
)

// AuthAPI is the part of the API client used for login and password management
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*models.LoginResult, error)
	Logout(ctx context.Context, creds apiclient.Credentials, refreshToken string) error
	ChangePassword(ctx context.Context, creds apiclient.Credentials, oldPassword, newPassword, confirmPassword string) error
}

// AuthService handles authentication operations
type AuthService struct {
	api      AuthAPI
	sessions *session.Provider
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(api AuthAPI, sessions *session.Provider, logger zerolog.Logger) *AuthService {
	return &AuthService{
		api:      api,
		sessions: sessions,
		logger:   logger,
	}
}

// Login authenticates against the API and starts a portal session. The returned decision
// says where the browser goes next.
func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*session.Session, access.Decision, error) {
	if err := validation.Struct(req); err != nil {
		return nil, access.Decision{}, err
	}

	result, err := s.api.Login(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidCredentials) {
			return nil, access.Decision{}, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid username or password")
		}
		return nil, access.Decision{}, err
	}

	sess, err := s.sessions.Start(ctx, result.User, result.TokenPair)
	if err != nil {
		s.logger.Error().Err(err).Str("username", result.User.Username).Msg("Failed to start session")
		return nil, access.Decision{}, apperrors.NewCustomError(apperrors.ErrUpstream, "Login failed. Please try again.")
	}

	s.logger.Info().
		Str("username", result.User.Username).
		Str("role", string(result.User.Role)).
		Bool("mustChangePassword", result.User.MustChangePassword).
		Msg("User logged in")

	return sess, access.Landing(sess.Principal()), nil
}

// Logout blacklists the refresh token upstream and destroys the session. The upstream call is
// best effort: the local session is destroyed even if it fails.
func (s *AuthService) Logout(ctx context.Context, sess *session.Session) error {
	if sess == nil {
		return nil
	}
	if sess.RefreshToken != "" {
		if err := s.api.Logout(ctx, s.sessions.Credentials(sess), sess.RefreshToken); err != nil {
			s.logger.Warn().Err(err).Str("username", sess.User.Username).Msg("Upstream logout failed")
		}
	}
	return s.sessions.Destroy(ctx, sess.ID)
}

// ChangePassword checks the form locally, then changes the password upstream and lifts the
// forced password change on success.
func (s *AuthService) ChangePassword(ctx context.Context, sess *session.Session, req dto.ChangePasswordRequest) (access.Decision, error) {
	if err := validation.Struct(req); err != nil {
		return access.Decision{}, err
	}
	if req.NewPassword != req.ConfirmPassword {
		return access.Decision{}, apperrors.NewCustomError(apperrors.ErrPasswordMismatch, "New passwords do not match").
			WithFields(map[string]string{"confirm_password": "New passwords do not match"})
	}
	if len(req.NewPassword) < validation.PasswordMinLength {
		return access.Decision{}, apperrors.NewCustomError(apperrors.ErrPasswordTooShort, "Password must be at least 8 characters long").
			WithFields(map[string]string{"new_password": "Password must be at least 8 characters long"})
	}

	creds := s.sessions.Credentials(sess)
	if err := s.api.ChangePassword(ctx, creds, req.OldPassword, req.NewPassword, req.ConfirmPassword); err != nil {
		return access.Decision{}, err
	}

	updated, err := s.sessions.MarkPasswordChanged(ctx, sess.ID)
	if err != nil {
		return access.Decision{}, err
	}
	s.logger.Info().Str("username", sess.User.Username).Msg("Password changed")
	return access.Landing(updated.Principal()), nil
}
