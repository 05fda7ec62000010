package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aurcc/bonafide-portal/internal/app/models"
)

// Login exchanges credentials for a token pair and the user profile.
func (c *Client) Login(ctx context.Context, username, password string) (*models.LoginResult, error) {
	r, err := newRequest(http.MethodPost, "/auth/login/").asPublic().
		withJSON(map[string]string{"username": username, "password": password})
	if err != nil {
		return nil, err
	}
	var result models.LoginResult
	if err := c.doJSON(ctx, nil, r, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	r, err := newRequest(http.MethodPost, "/auth/refresh/").asPublic().
		withJSON(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", err
	}
	var out struct {
		Access string `json:"access"`
	}
	if err := c.doJSON(ctx, nil, r, &out); err != nil {
		return "", err
	}
	if out.Access == "" {
		return "", fmt.Errorf("refresh response carried no access token")
	}
	return out.Access, nil
}

// Logout revokes the session upstream. The refresh token is sent so the API can blacklist it.
func (c *Client) Logout(ctx context.Context, creds Credentials, refreshToken string) error {
	r, err := newRequest(http.MethodPost, "/auth/logout/").withJSON(map[string]string{"refresh": refreshToken})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// ChangePassword changes the current user's password.
func (c *Client) ChangePassword(ctx context.Context, creds Credentials, oldPassword, newPassword, confirmPassword string) error {
	r, err := newRequest(http.MethodPost, "/auth/change-password/").withJSON(map[string]string{
		"old_password":     oldPassword,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	})
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context, creds Credentials) (*models.User, error) {
	var user models.User
	if err := c.doJSON(ctx, creds, newRequest(http.MethodGet, "/auth/me/"), &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// WardenAccountInput is the payload that creates or edits a warden login
type WardenAccountInput struct {
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Password  string `json:"password,omitempty"`
	Role      string `json:"role,omitempty"`
}

// CreateWardenAccount creates a warden login.
func (c *Client) CreateWardenAccount(ctx context.Context, creds Credentials, in WardenAccountInput) (*models.WardenAccount, error) {
	r, err := newRequest(http.MethodPost, "/auth/wardens/create/").withJSON(in)
	if err != nil {
		return nil, err
	}
	var out models.WardenAccount
	if err := c.doJSON(ctx, creds, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListWardenAccounts lists warden logins.
func (c *Client) ListWardenAccounts(ctx context.Context, creds Credentials) ([]models.WardenAccount, error) {
	return doList[models.WardenAccount](ctx, c, creds, newRequest(http.MethodGet, "/auth/wardens/"))
}

// UpdateWardenAccount patches a warden login; a non-empty Password resets it.
func (c *Client) UpdateWardenAccount(ctx context.Context, creds Credentials, id int64, in WardenAccountInput) error {
	r, err := newRequest(http.MethodPatch, fmt.Sprintf("/auth/wardens/%d/", id)).withJSON(in)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, creds, r, nil)
}

// DeleteWardenAccount removes a warden login.
func (c *Client) DeleteWardenAccount(ctx context.Context, creds Credentials, id int64) error {
	return c.doJSON(ctx, creds, newRequest(http.MethodDelete, fmt.Sprintf("/auth/wardens/%d/", id)), nil)
}

// DeanProfile returns the certificate signatory profile.
func (c *Client) DeanProfile(ctx context.Context, creds Credentials) (*models.DeanProfile, error) {
	var out models.DeanProfile
	if err := c.doJSON(ctx, creds, newRequest(http.MethodGet, "/auth/dean-profile/"), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateDeanProfile replaces the signatory profile.
func (c *Client) UpdateDeanProfile(ctx context.Context, creds Credentials, profile models.DeanProfile) (*models.DeanProfile, error) {
	r, err := newRequest(http.MethodPut, "/auth/dean-profile/").withJSON(profile)
	if err != nil {
		return nil, err
	}
	var out models.DeanProfile
	if err := c.doJSON(ctx, creds, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
