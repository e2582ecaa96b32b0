package main

import (
	"net/http"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/labdesk/labctl/pkg/domain"
)

func loginRoute(got chan<- domain.LoginRequest) func(r chi.Router) {
	return func(r chi.Router) {
		r.Post("/api/user/login", func(w http.ResponseWriter, req *http.Request) {
			var body domain.LoginRequest
			json.NewDecoder(req.Body).Decode(&body) //nolint:errcheck
			got <- body
			if body.Password != "secret" {
				writeEnvelope(w, 400, "wrong username or password", nil)
				return
			}
			writeEnvelope(w, 200, "ok", map[string]any{
				"token": "tok-1", "userId": 7, "username": "ada", "realName": "Ada Lovelace", "userType": 0,
			})
		})
	}
}

func TestLoginFromStdin(t *testing.T) {
	got := make(chan domain.LoginRequest, 1)
	c := newCLI(t, loginRoute(got))

	res := c.run("ada\nsecret\n", "login")
	if res.err != nil {
		t.Fatalf("login: %v (%s)", res.err, res.errOut)
	}
	if req := <-got; req.Username != "ada" || req.Password != "secret" {
		t.Errorf("sent %+v", req)
	}
	if !strings.Contains(res.out, "signed in as") || !strings.Contains(res.out, "Ada Lovelace") {
		t.Errorf("out = %q", res.out)
	}

	sess := c.session()
	if sess.Token() != "tok-1" || sess.UserID() != 7 {
		t.Errorf("stored token %q user %d", sess.Token(), sess.UserID())
	}

	who := c.run("", "whoami")
	if who.err != nil {
		t.Fatalf("whoami: %v", who.err)
	}
	if !strings.Contains(who.out, "ada") || !strings.Contains(who.out, "not recorded") {
		t.Errorf("whoami out = %q", who.out)
	}
}

func TestLoginFlagsAndFailure(t *testing.T) {
	got := make(chan domain.LoginRequest, 1)
	c := newCLI(t, loginRoute(got))

	res := c.run("", "login", "-u", "ada", "-p", "nope")
	<-got
	if res.err == nil {
		t.Fatal("expected failure")
	}
	if n := strings.Count(res.errOut, "wrong username or password"); n != 1 {
		t.Errorf("message shown %d times: %q", n, res.errOut)
	}
	if c.session().LoggedIn() {
		t.Error("failed login stored a session")
	}
}

func TestLoginValidation(t *testing.T) {
	c := newCLI(t, nil)
	res := c.run("\n\n", "login")
	if res.err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(res.errOut, "username is required") {
		t.Errorf("stderr = %q", res.errOut)
	}
}

func TestLogout(t *testing.T) {
	c := newCLI(t, nil)
	c.signIn(member)

	res := c.run("", "logout")
	if res.err != nil || !strings.Contains(res.out, "logged out") {
		t.Fatalf("logout: %v %q", res.err, res.out)
	}
	if c.session().LoggedIn() {
		t.Error("session survived logout")
	}

	res = c.run("", "logout")
	if !strings.Contains(res.out, "already logged out") {
		t.Errorf("second logout = %q", res.out)
	}
}

func TestWhoamiRefresh(t *testing.T) {
	c := newCLI(t, func(r chi.Router) {
		r.Get("/api/user/7", ok(map[string]any{
			"id": 7, "username": "ada", "realName": "Ada King", "email": "ada@example.edu", "userType": 0,
		}))
	})
	c.signIn(member)

	res := c.run("", "whoami", "--refresh")
	if res.err != nil {
		t.Fatalf("whoami: %v", res.err)
	}
	if !strings.Contains(res.out, "Ada King") {
		t.Errorf("out = %q", res.out)
	}
	if p, _ := c.session().Profile(); p.RealName != "Ada King" {
		t.Errorf("cached profile not refreshed: %+v", p)
	}
}

func TestWhoamiJSON(t *testing.T) {
	c := newCLI(t, nil)
	c.signIn(admin)

	res := c.run("", "--json", "whoami")
	if res.err != nil {
		t.Fatal(res.err)
	}
	var got struct {
		Profile map[string]any `json:"profile"`
	}
	if err := json.Unmarshal([]byte(res.out), &got); err != nil {
		t.Fatalf("decode %q: %v", res.out, err)
	}
	if got.Profile["username"] != "root" {
		t.Errorf("profile = %v", got.Profile)
	}
}

func TestRegisterSendsCodeFirst(t *testing.T) {
	purpose := make(chan string, 1)
	c := newCLI(t, func(r chi.Router) {
		r.Post("/api/user/send-code", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Email   string `json:"email"`
				Purpose string `json:"purpose"`
			}
			json.NewDecoder(req.Body).Decode(&body) //nolint:errcheck
			purpose <- body.Purpose
			writeEnvelope(w, 200, "ok", nil)
		})
	})

	res := c.run("", "register", "--email", "ada@example.edu")
	if res.err != nil {
		t.Fatalf("register: %v", res.err)
	}
	if p := <-purpose; p != "register" {
		t.Errorf("purpose = %q", p)
	}
	if !strings.Contains(res.out, "verification code sent to ada@example.edu") {
		t.Errorf("out = %q", res.out)
	}
}

func TestRegisterRejectsBadEmail(t *testing.T) {
	c := newCLI(t, nil)
	res := c.run("", "register", "--email", "not-an-email")
	if res.err == nil || !strings.Contains(res.errOut, "email must be a valid email address") {
		t.Errorf("err = %v, stderr = %q", res.err, res.errOut)
	}
}

func TestRegisterCompletes(t *testing.T) {
	c := newCLI(t, func(r chi.Router) {
		r.Post("/api/user/register", ok(map[string]any{
			"token": "tok-2", "userId": 9, "username": "lin", "userType": 0,
		}))
	})

	res := c.run("", "register", "-u", "lin", "--email", "lin@example.edu", "-p", "hunter22", "--code", "123456")
	if res.err != nil {
		t.Fatalf("register: %v (%s)", res.err, res.errOut)
	}
	if !strings.Contains(res.out, "signed in as") {
		t.Errorf("out = %q", res.out)
	}
	if c.session().UserID() != 9 {
		t.Error("registered session not stored")
	}
}

func TestRegisterValidatesCode(t *testing.T) {
	c := newCLI(t, nil)
	res := c.run("", "register", "-u", "lin", "--email", "lin@example.edu", "-p", "hunter22", "--code", "12")
	if res.err == nil || !strings.Contains(res.errOut, "code must be 6 characters") {
		t.Errorf("err = %v, stderr = %q", res.err, res.errOut)
	}
}
