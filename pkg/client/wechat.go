package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labdesk/labctl/pkg/domain"
)

// --- WeChat methods ---

// WeChatLogin exchanges a WeChat login code. When the identity is already
// bound the result carries a token and profile; otherwise NeedBind is set.
func (c *Client) WeChatLogin(ctx context.Context, code string) (*domain.WeChatLoginResult, error) {
	var res domain.WeChatLoginResult
	err := c.do(ctx, request{
		method:          http.MethodPost,
		path:            "/api/wx/login",
		body:            map[string]string{"code": code},
		skipAuth:        true,
		noRedirectOn401: true,
	}, &res)
	if err != nil {
		return nil, fmt.Errorf("client.WeChatLogin: %w", err)
	}
	return &res, nil
}

// WeChatBind links a WeChat identity to userID. It may run before sign-in.
func (c *Client) WeChatBind(ctx context.Context, req domain.WeChatBindRequest) error {
	if req.Platform == "" {
		req.Platform = domain.PlatformMiniProgram
	}
	err := c.do(ctx, request{method: http.MethodPost, path: "/api/wx/bind", body: req, skipAuth: true}, nil)
	if err != nil {
		return fmt.Errorf("client.WeChatBind: %w", err)
	}
	return nil
}

// WeChatUnbind removes the signed-in account's WeChat link.
func (c *Client) WeChatUnbind(ctx context.Context) error {
	if err := c.post(ctx, "/api/wx/unbind", nil, nil); err != nil {
		return fmt.Errorf("client.WeChatUnbind: %w", err)
	}
	return nil
}

// WeChatBindStatus reports whether the signed-in account is linked.
func (c *Client) WeChatBindStatus(ctx context.Context) (*domain.WeChatBindStatus, error) {
	var st domain.WeChatBindStatus
	if err := c.get(ctx, "/api/wx/bind-status", nil, &st); err != nil {
		return nil, fmt.Errorf("client.WeChatBindStatus: %w", err)
	}
	return &st, nil
}
