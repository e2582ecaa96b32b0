package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Verification code purposes.
const (
	PurposeRegister      = "register"
	PurposeResetPassword = "reset-password"
	PurposeBindEmail     = "bind-email"
)

// --- Email verification methods ---

// SendRegisterEmail mails a verification link for a new account.
func (c *Client) SendRegisterEmail(ctx context.Context, email, username string) error {
	body := map[string]string{"email": email, "username": username}
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/user/send-register-email", body: body, skipAuth: true, noRedirectOn401: true}, nil)
	if err != nil {
		return fmt.Errorf("client.SendRegisterEmail: %w", err)
	}
	return nil
}

// VerifyEmail confirms the token from a verification link.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	params := url.Values{}
	params.Set("token", token)
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/user/verify-email", query: params, skipAuth: true, noRedirectOn401: true}, nil)
	if err != nil {
		return fmt.Errorf("client.VerifyEmail: %w", err)
	}
	return nil
}

// SendCode mails a 6-digit code for the given purpose.
func (c *Client) SendCode(ctx context.Context, email, purpose string) error {
	body := map[string]string{"email": email, "purpose": purpose}
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/user/send-code", body: body, skipAuth: true, noRedirectOn401: true}, nil)
	if err != nil {
		return fmt.Errorf("client.SendCode: %w", err)
	}
	return nil
}

// VerifyCode checks a mailed code without consuming the flow.
func (c *Client) VerifyCode(ctx context.Context, email, code string) error {
	body := map[string]string{"email": email, "code": code}
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/user/verify-code", body: body, skipAuth: true, noRedirectOn401: true}, nil)
	if err != nil {
		return fmt.Errorf("client.VerifyCode: %w", err)
	}
	return nil
}

// ResetPasswordByEmail completes the forgot-password flow.
func (c *Client) ResetPasswordByEmail(ctx context.Context, email, code, newPassword string) error {
	body := map[string]string{"email": email, "code": code, "newPassword": newPassword}
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/user/reset-password-by-email", body: body, skipAuth: true, noRedirectOn401: true}, nil)
	if err != nil {
		return fmt.Errorf("client.ResetPasswordByEmail: %w", err)
	}
	return nil
}

// BindEmail attaches a verified email to an account.
func (c *Client) BindEmail(ctx context.Context, userID int64, email, code string) error {
	body := map[string]any{"userId": userID, "email": email, "code": code}
	if err := c.post(ctx, "/api/user/bind-email", body, nil); err != nil {
		return fmt.Errorf("client.BindEmail: %w", err)
	}
	return nil
}

// ResendVerifyEmail re-sends the account verification link.
func (c *Client) ResendVerifyEmail(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	if err := c.post(ctx, "/api/user/resend-verify-email", body, nil); err != nil {
		return fmt.Errorf("client.ResendVerifyEmail: %w", err)
	}
	return nil
}
