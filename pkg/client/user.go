package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labdesk/labctl/pkg/domain"
)

func idPath(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10)
}

// --- User methods ---

// Login exchanges credentials for a token and profile. It is sent without
// the Authorization header and a 401 here never redirects.
func (c *Client) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	var res domain.LoginResult
	err := c.do(ctx, request{
		method:          http.MethodPost,
		path:            "/api/user/login",
		body:            req,
		skipAuth:        true,
		noRedirectOn401: true,
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("client.Login: %w", err)
	}
	if res.Token == "" {
		return nil, fmt.Errorf("client.Login: response carried no token")
	}
	return &res, nil
}

// Register creates an account. Some servers sign the new user in directly,
// in which case the returned result carries a token.
func (c *Client) Register(ctx context.Context, req domain.RegisterRequest) (*domain.LoginResult, error) {
	var res domain.LoginResult
	err := c.do(ctx, request{
		method:          http.MethodPost,
		path:            "/api/user/register",
		body:            req,
		skipAuth:        true,
		noRedirectOn401: true,
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("client.Register: %w", err)
	}
	return &res, nil
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, idPath("/api/user/", id), nil, &u); err != nil {
		return nil, fmt.Errorf("client.GetUser: %w", err)
	}
	return &u, nil
}

func userParams(q domain.UserQuery) url.Values {
	params := url.Values{}
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if q.UserType != nil {
		params.Set("userType", strconv.Itoa(int(*q.UserType)))
	}
	if q.Status != nil {
		params.Set("status", strconv.Itoa(*q.Status))
	}
	return params
}

// ListUsers lists all users.
func (c *Client) ListUsers(ctx context.Context, q domain.UserQuery) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/api/user/list", userParams(q), &users); err != nil {
		return nil, fmt.Errorf("client.ListUsers: %w", err)
	}
	return users, nil
}

// ListUsersByType lists users with the given role flag.
func (c *Client) ListUsersByType(ctx context.Context, t domain.UserType) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/api/user/type/"+strconv.Itoa(int(t)), nil, &users); err != nil {
		return nil, fmt.Errorf("client.ListUsersByType: %w", err)
	}
	return users, nil
}

// SearchUsers searches users by keyword and filters.
func (c *Client) SearchUsers(ctx context.Context, q domain.UserQuery) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/api/user/search", userParams(q), &users); err != nil {
		return nil, fmt.Errorf("client.SearchUsers: %w", err)
	}
	return users, nil
}

// UpdateUser updates a user's editable fields and returns the stored record.
func (c *Client) UpdateUser(ctx context.Context, id int64, u domain.User) (*domain.User, error) {
	var updated domain.User
	if err := c.put(ctx, idPath("/api/user/", id), nil, u, &updated); err != nil {
		return nil, fmt.Errorf("client.UpdateUser: %w", err)
	}
	if updated.ID == 0 {
		updated = u
		updated.ID = id
	}
	return &updated, nil
}

// UpdateUserStatus enables or disables an account.
func (c *Client) UpdateUserStatus(ctx context.Context, userID int64, status int) error {
	body := map[string]any{"userId": userID, "status": status}
	if err := c.put(ctx, "/api/user/status", nil, body, nil); err != nil {
		return fmt.Errorf("client.UpdateUserStatus: %w", err)
	}
	return nil
}

// ChangePassword changes the signed-in user's password.
func (c *Client) ChangePassword(ctx context.Context, req domain.ChangePasswordRequest) error {
	if err := c.put(ctx, "/api/user/password", nil, req, nil); err != nil {
		return fmt.Errorf("client.ChangePassword: %w", err)
	}
	return nil
}

// DefaultResetPassword is the password an administrator reset assigns.
const DefaultResetPassword = "123456"

// ResetPassword resets a user's password to DefaultResetPassword.
func (c *Client) ResetPassword(ctx context.Context, userID int64) error {
	body := map[string]any{"id": userID, "newPassword": DefaultResetPassword}
	if err := c.put(ctx, "/api/user/reset-password", nil, body, nil); err != nil {
		return fmt.Errorf("client.ResetPassword: %w", err)
	}
	return nil
}

// DeleteUser removes a user.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if err := c.del(ctx, idPath("/api/user/", id), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteUser: %w", err)
	}
	return nil
}

// UserStatistics returns counters for the signed-in user (or all users for admins).
func (c *Client) UserStatistics(ctx context.Context) (domain.Statistics, error) {
	var stats domain.Statistics
	if err := c.get(ctx, "/api/user/statistics", nil, &stats); err != nil {
		return nil, fmt.Errorf("client.UserStatistics: %w", err)
	}
	return stats, nil
}
