package domain

import "github.com/goccy/go-json"

// WeChatLoginResult is the response to a WeChat code exchange. When NeedBind
// is true no token is issued and the caller must bind an existing account.
type WeChatLoginResult struct {
	NeedBind bool
	OpenID   string
	UnionID  string
	Token    string
	Profile  UserProfile
}

// UnmarshalJSON reads the flattened token and profile fields.
func (r *WeChatLoginResult) UnmarshalJSON(b []byte) error {
	var w struct {
		NeedBind bool   `json:"needBind"`
		OpenID   string `json:"openid"`
		UnionID  string `json:"unionid"`
		Token    string `json:"token"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	var profile UserProfile
	if err := json.Unmarshal(b, &profile); err != nil {
		return err
	}
	*r = WeChatLoginResult{
		NeedBind: w.NeedBind,
		OpenID:   w.OpenID,
		UnionID:  w.UnionID,
		Token:    w.Token,
		Profile:  profile,
	}
	return nil
}

// PlatformMiniProgram is the default bind platform.
const PlatformMiniProgram = "mini_program"

// WeChatBindRequest links a WeChat identity to an existing account.
type WeChatBindRequest struct {
	UserID   int64   `json:"userId" validate:"required"`
	OpenID   string  `json:"openid" validate:"required"`
	UnionID  *string `json:"unionid"`
	Platform string  `json:"platform"`
}

// WeChatBindStatus reports whether the signed-in account is linked.
type WeChatBindStatus struct {
	Bound    bool   `json:"bound"`
	Nickname string `json:"nickname,omitempty"`
}
