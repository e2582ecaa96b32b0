package domain

import (
	"github.com/goccy/go-json"
)

// UserType is the role flag carried on users. Only UserTypeAdmin has a fixed meaning.
type UserType int

const (
	UserTypeUser  UserType = 0
	UserTypeAdmin UserType = 1
)

// User is a user record as returned by the user endpoints.
type User struct {
	ID            int64    `json:"id"`
	Username      string   `json:"username"`
	RealName      string   `json:"realName,omitempty"`
	UserType      UserType `json:"userType"`
	Email         string   `json:"email,omitempty"`
	Phone         string   `json:"phone,omitempty"`
	Avatar        string   `json:"avatar,omitempty"`
	Status        int      `json:"status"`
	EmailVerified bool     `json:"emailVerified,omitempty"`
	CreatedAt     Time     `json:"createdAt"`
	UpdatedAt     Time     `json:"updatedAt"`
}

// UnmarshalJSON accepts both "id" and "userId" for the identifier.
func (u *User) UnmarshalJSON(b []byte) error {
	type plain User
	var w struct {
		plain
		UserID *int64 `json:"userId"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*u = User(w.plain)
	if u.ID == 0 && w.UserID != nil {
		u.ID = *w.UserID
	}
	return nil
}

// Profile returns the subset of u that is cached in the local session.
func (u User) Profile() UserProfile {
	return UserProfile{
		UserID:   u.ID,
		Username: u.Username,
		RealName: u.RealName,
		UserType: u.UserType,
		Avatar:   u.Avatar,
		Email:    u.Email,
	}
}

// UserProfile is the advisory copy of the signed-in user kept next to the token.
type UserProfile struct {
	UserID   int64    `json:"userId"`
	Username string   `json:"username"`
	RealName string   `json:"realName,omitempty"`
	UserType UserType `json:"userType"`
	Avatar   string   `json:"avatar,omitempty"`
	Email    string   `json:"email,omitempty"`
}

// UnmarshalJSON accepts both "userId" and "id".
func (p *UserProfile) UnmarshalJSON(b []byte) error {
	type plain UserProfile
	var w struct {
		plain
		ID *int64 `json:"id"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*p = UserProfile(w.plain)
	if p.UserID == 0 && w.ID != nil {
		p.UserID = *w.ID
	}
	return nil
}

// IsAdmin reports whether the profile carries the admin role flag.
func (p UserProfile) IsAdmin() bool {
	return p.UserType == UserTypeAdmin
}

// DisplayName prefers the real name over the username.
func (p UserProfile) DisplayName() string {
	if p.RealName != "" {
		return p.RealName
	}
	return p.Username
}

// LoginRequest is the credential payload for password login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the login response: a token plus the profile fields that
// arrive flattened beside it.
type LoginResult struct {
	Token   string
	Profile UserProfile
}

// UnmarshalJSON splits {"token": ..., ...profile} into its two halves.
func (r *LoginResult) UnmarshalJSON(b []byte) error {
	var tok struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(b, &tok); err != nil {
		return err
	}
	var profile UserProfile
	if err := json.Unmarshal(b, &profile); err != nil {
		return err
	}
	r.Token = tok.Token
	r.Profile = profile
	return nil
}

// RegisterRequest is the self-registration payload. Code is the emailed
// verification code; ConfirmPassword never leaves the client.
type RegisterRequest struct {
	Username        string   `json:"username" validate:"required"`
	Password        string   `json:"password" validate:"required,min=6"`
	ConfirmPassword string   `json:"-" validate:"required,eqfield=Password"`
	RealName        string   `json:"realName,omitempty"`
	Email           string   `json:"email" validate:"required,email"`
	Code            string   `json:"code" validate:"required,len=6,numeric"`
	Phone           string   `json:"phone,omitempty"`
	UserType        UserType `json:"userType"`
}

// ChangePasswordRequest updates the signed-in user's password.
type ChangePasswordRequest struct {
	UserID      int64  `json:"userId"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,nefield=OldPassword"`
}

// ResetPasswordByEmailRequest completes the forgot-password flow.
type ResetPasswordByEmailRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// UserQuery filters the user list and search endpoints.
type UserQuery struct {
	Keyword  string
	UserType *UserType
	Status   *int
}

// Statistics is a free-form counters object returned by the statistics
// endpoints. Keys differ between resources and server revisions.
type Statistics map[string]any

// Int returns the numeric value stored under the first key present.
func (s Statistics) Int(keys ...string) int {
	for _, k := range keys {
		switch v := s[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		case int64:
			return int(v)
		case json.Number:
			n, err := v.Int64()
			if err == nil {
				return int(n)
			}
		}
	}
	return 0
}
