package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/labdesk/labctl/internal/validate"
	"github.com/labdesk/labctl/pkg/client"
	"github.com/labdesk/labctl/pkg/domain"
)

func newLoginCmd(a *app) *cobra.Command {
	var req domain.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		Long: `Sign in with a username and password. Missing values are read from
standard input, one per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if req.Username == "" {
				if req.Username, err = a.ask("username: "); err != nil {
					return err
				}
			}
			if req.Password == "" {
				if req.Password, err = a.ask("password: "); err != nil {
					return err
				}
			}
			if err := validate.Struct(req); err != nil {
				return err
			}
			res, err := a.sess.Login(cmd.Context(), a.api(), req)
			if err != nil {
				return err
			}
			return a.render(res.Profile, func(w io.Writer) {
				fmt.Fprintln(w, "signed in as", accentStyle.Render(res.Profile.DisplayName())+roleSuffix(res.Profile)) //nolint:errcheck
			})
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "account name")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (prefer standard input)")
	return cmd
}

func roleSuffix(p domain.UserProfile) string {
	if p.IsAdmin() {
		return dimStyle.Render(" (admin)")
	}
	return ""
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if !a.sess.LoggedIn() {
				fmt.Fprintln(a.out, "already logged out") //nolint:errcheck
				return nil
			}
			if err := a.sess.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "logged out") //nolint:errcheck
			return nil
		},
	}
}

type whoami struct {
	Profile   domain.UserProfile `json:"profile"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty"`
}

func newWhoamiCmd(a *app) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireLogin(); err != nil {
				return err
			}
			if refresh {
				u, err := a.api().GetUser(cmd.Context(), a.sess.UserID())
				if err != nil {
					return err
				}
				fresh := u.Profile()
				if err := a.sess.UpdateProfile(func(p *domain.UserProfile) { *p = fresh }); err != nil {
					return err
				}
			}
			p, _ := a.sess.Profile()
			out := whoami{Profile: p}
			if exp, ok := a.sess.TokenExpiry(); ok {
				out.ExpiresAt = &exp
			}
			return a.render(out, func(w io.Writer) {
				fmt.Fprintln(w, accentStyle.Render(p.DisplayName())+roleSuffix(p)) //nolint:errcheck
				expiry := "not recorded"
				if out.ExpiresAt != nil {
					expiry = out.ExpiresAt.Local().Format("2006-01-02 15:04")
					if time.Until(*out.ExpiresAt) <= 0 {
						expiry += " " + warnStyle.Render("(expired)")
					}
				}
				printFields(w,
					"username", p.Username,
					"user id", id(p.UserID),
					"email", p.Email,
					"session", expiry,
				)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "reload the profile from the server")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var req domain.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Long: `Create an account in two steps. Without --code a verification code is
mailed to --email; run the command again with the code to finish.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.api()
			if req.Code == "" {
				target := struct {
					Email string `validate:"required,email"`
				}{req.Email}
				if err := validate.Struct(target); err != nil {
					return err
				}
				if err := c.SendCode(cmd.Context(), req.Email, client.PurposeRegister); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "verification code sent to %s, run again with --code\n", req.Email) //nolint:errcheck
				return nil
			}

			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			if err := validate.Struct(req); err != nil {
				return err
			}
			res, err := c.Register(cmd.Context(), req)
			if err != nil {
				return err
			}
			if res.Token == "" {
				fmt.Fprintln(a.out, "account created, run `labctl login` to sign in") //nolint:errcheck
				return nil
			}
			if err := a.sess.Adopt(res.Token, res.Profile); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "account created, signed in as", accentStyle.Render(res.Profile.DisplayName())) //nolint:errcheck
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&req.Username, "username", "u", "", "account name")
	f.StringVar(&req.Email, "email", "", "email address for the verification code")
	f.StringVarP(&req.Password, "password", "p", "", "password, at least 6 characters")
	f.StringVar(&req.ConfirmPassword, "confirm", "", "repeat the password (defaults to --password)")
	f.StringVar(&req.RealName, "real-name", "", "name shown to administrators")
	f.StringVar(&req.Phone, "phone", "", "contact phone")
	f.StringVar(&req.Code, "code", "", "6-digit verification code")
	return cmd
}
