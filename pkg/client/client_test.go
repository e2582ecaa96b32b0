package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/goleak"

	"github.com/labdesk/labctl/pkg/domain"
)

// recorder collects notices.
type recorder struct {
	mu      sync.Mutex
	notices []Notice
}

func (r *recorder) Notify(n Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

func (r *recorder) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.notices))
	for i, n := range r.notices {
		out[i] = n.Text
	}
	return out
}

// fakeNav counts redirects.
type fakeNav struct {
	onLogin   atomic.Bool
	redirects atomic.Int32
	fired     chan struct{}
}

func newFakeNav() *fakeNav {
	return &fakeNav{fired: make(chan struct{}, 8)}
}

func (n *fakeNav) OnLoginRoute() bool { return n.onLogin.Load() }

func (n *fakeNav) RedirectToLogin() {
	n.redirects.Add(1)
	n.fired <- struct{}{}
}

func writeEnvelope(w http.ResponseWriter, code int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{ //nolint:errcheck
		"code":    code,
		"message": msg,
		"data":    data,
		"success": code == 200,
	})
}

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantOK      bool
		wantSuccess bool
		wantMessage string
		wantData    string
	}{
		{
			name:        "success with data",
			body:        `{"code":200,"message":"ok","data":{"id":1},"success":true}`,
			wantOK:      true,
			wantSuccess: true,
			wantMessage: "ok",
			wantData:    `{"id":1}`,
		},
		{
			name:        "success flag wins over code",
			body:        `{"code":200,"message":"nope","success":false}`,
			wantOK:      true,
			wantSuccess: false,
			wantMessage: "nope",
			wantData:    `{"code":200,"message":"nope","success":false}`,
		},
		{
			name:        "code only with msg key",
			body:        `{"code":500,"msg":"bad"}`,
			wantOK:      true,
			wantSuccess: false,
			wantMessage: "bad",
			wantData:    `{"code":500,"msg":"bad"}`,
		},
		{
			name:        "code 200 without data resolves whole body",
			body:        `{"code":200,"token":"abc"}`,
			wantOK:      true,
			wantSuccess: true,
			wantData:    `{"code":200,"token":"abc"}`,
		},
		{
			name:        "bare array",
			body:        `[1,2]`,
			wantOK:      false,
			wantSuccess: true,
			wantData:    `[1,2]`,
		},
		{
			name:        "object without code or success",
			body:        `{"id":7}`,
			wantOK:      false,
			wantSuccess: true,
			wantData:    `{"id":7}`,
		},
		{
			name:        "nested envelope unwrapped once",
			body:        `{"code":200,"success":true,"data":{"code":200,"message":"ok","data":[1]}}`,
			wantOK:      true,
			wantSuccess: true,
			wantData:    `[1]`,
		},
		{
			name:        "payload with a code field is not an envelope",
			body:        `{"code":200,"success":true,"data":{"code":5,"name":"x"}}`,
			wantOK:      true,
			wantSuccess: true,
			wantData:    `{"code":5,"name":"x"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, ok := parseEnvelope([]byte(tt.body))
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if env.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v", env.Success, tt.wantSuccess)
			}
			if env.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", env.Message, tt.wantMessage)
			}
			if string(env.Data) != tt.wantData {
				t.Errorf("Data = %s, want %s", env.Data, tt.wantData)
			}
		})
	}
}

func TestAuthorizationHeader(t *testing.T) {
	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Get("Authorization"))
		writeEnvelope(w, 200, "ok", map[string]any{"id": 3, "username": "ada"})
	}))
	defer srv.Close()

	tokens := NewMemoryTokens("test-token")
	c := New(srv.URL, tokens)

	u, err := c.GetUser(context.Background(), 3)
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if u.Username != "ada" {
		t.Errorf("Username = %q, want %q", u.Username, "ada")
	}
	if h := got.Load().(string); h != "Bearer test-token" {
		t.Errorf("Authorization = %q, want %q", h, "Bearer test-token")
	}

	tokens.ClearToken()
	if _, err := c.GetUser(context.Background(), 3); err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if h := got.Load().(string); h != "" {
		t.Errorf("Authorization = %q, want empty", h)
	}
}

func TestLoginSkipsAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/user/login" {
			http.NotFound(w, r)
			return
		}
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("Authorization = %q, want empty", h)
		}
		writeEnvelope(w, 200, "ok", map[string]any{
			"token":    "fresh",
			"userId":   9,
			"username": "ada",
			"userType": 1,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, NewMemoryTokens("stale"))
	res, err := c.Login(context.Background(), domain.LoginRequest{Username: "ada", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if res.Token != "fresh" {
		t.Errorf("Token = %q, want %q", res.Token, "fresh")
	}
	if res.Profile.UserID != 9 || !res.Profile.IsAdmin() {
		t.Errorf("Profile = %+v, want admin user 9", res.Profile)
	}
}

func TestBusinessFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, 400, "lab is full", nil)
	}))
	defer srv.Close()

	rec := &recorder{}
	c := New(srv.URL, NewMemoryTokens("tok"), WithNotifier(rec))
	_, err := c.CreateReservation(context.Background(), domain.ReservationRequest{LabID: 1})

	var bizErr *BusinessError
	if !errors.As(err, &bizErr) {
		t.Fatalf("error = %v, want *BusinessError", err)
	}
	if bizErr.Envelope.Code != 400 || bizErr.Envelope.Message != "lab is full" {
		t.Errorf("Envelope = %+v", bizErr.Envelope)
	}
	if got := Message(err); got != "lab is full" {
		t.Errorf("Message() = %q, want %q", got, "lab is full")
	}
	if texts := rec.texts(); len(texts) != 1 || texts[0] != "lab is full" {
		t.Errorf("notices = %v, want [lab is full]", texts)
	}
}

func TestUnauthorizedClearsTokenAndRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "not authenticated"}) //nolint:errcheck
	}))
	defer srv.Close()

	tokens := NewMemoryTokens("bad-token")
	nav := newFakeNav()
	rec := &recorder{}
	c := New(srv.URL, tokens, WithNotifier(rec), WithNavigator(nav, 10*time.Millisecond))
	defer c.Close()

	_, err := c.GetUser(context.Background(), 1)
	if err == nil {
		t.Fatal("expected error for unauthorized request")
	}
	if got := err.Error(); !strings.Contains(got, "HTTP 401") {
		t.Errorf("error = %q, want it to contain 'HTTP 401'", got)
	}
	if !IsUnauthorized(err) {
		t.Error("IsUnauthorized() = false, want true")
	}
	if tok := tokens.Token(); tok != "" {
		t.Errorf("token = %q, want cleared", tok)
	}
	select {
	case <-nav.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("redirect did not fire")
	}
	if texts := rec.texts(); len(texts) != 1 || texts[0] != msgUnauthorized {
		t.Errorf("notices = %v, want [%s]", texts, msgUnauthorized)
	}
}

func TestUnauthorizedEnvelopeWithoutRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, 401, "wrong password", nil)
	}))
	defer srv.Close()

	tokens := NewMemoryTokens("old")
	nav := newFakeNav()
	rec := &recorder{}
	c := New(srv.URL, tokens, WithNotifier(rec), WithNavigator(nav, 0))
	defer c.Close()

	_, err := c.Login(context.Background(), domain.LoginRequest{Username: "ada", Password: "nope"})
	if !IsUnauthorized(err) {
		t.Fatalf("error = %v, want unauthorized", err)
	}
	if tok := tokens.Token(); tok != "" {
		t.Errorf("token = %q, want cleared", tok)
	}
	if c.RedirectPending() {
		t.Error("redirect scheduled for a no-redirect call")
	}
	time.Sleep(20 * time.Millisecond)
	if n := nav.redirects.Load(); n != 0 {
		t.Errorf("redirects = %d, want 0", n)
	}
	if texts := rec.texts(); len(texts) != 1 || texts[0] != "wrong password" {
		t.Errorf("notices = %v, want [wrong password]", texts)
	}
}

func TestUnauthorizedOnLoginRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	nav := newFakeNav()
	nav.onLogin.Store(true)
	c := New(srv.URL, NewMemoryTokens("tok"), WithNavigator(nav, 0))
	defer c.Close()

	if _, err := c.UnreadCount(context.Background(), 0); !IsUnauthorized(err) {
		t.Fatalf("error = %v, want unauthorized", err)
	}
	if c.RedirectPending() {
		t.Error("redirect scheduled while on the login route")
	}
}

func TestConcurrentUnauthorizedRedirectsOnce(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h := r.Header.Get("Authorization"); h != "" {
			t.Errorf("Authorization = %q, want empty", h)
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	nav := newFakeNav()
	c := New(srv.URL, nil, WithHTTPClient(srv.Client()), WithNavigator(nav, 200*time.Millisecond))
	defer c.Close()

	var wg sync.WaitGroup
	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.UnreadCount(context.Background(), 0); !IsUnauthorized(err) {
				t.Errorf("UnreadCount() error = %v, want unauthorized", err)
			}
		}()
	}
	wg.Wait()

	if !c.RedirectPending() {
		t.Fatal("no redirect pending after 401")
	}
	select {
	case <-nav.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("redirect did not fire")
	}
	time.Sleep(20 * time.Millisecond)
	if n := nav.redirects.Load(); n != 1 {
		t.Errorf("redirects = %d, want 1", n)
	}
}

func TestStatusNotices(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   string
	}{
		{http.StatusForbidden, "", msgForbidden},
		{http.StatusNotFound, "", msgNotFound},
		{http.StatusInternalServerError, `{"code":500,"message":"boom"}`, msgServerError},
		{http.StatusTeapot, `{"message":"short and stout"}`, "short and stout"},
		{http.StatusBadGateway, "", "request failed (502)"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) //nolint:errcheck
			}))
			defer srv.Close()

			rec := &recorder{}
			c := New(srv.URL, NewMemoryTokens("tok"), WithNotifier(rec))
			_, err := c.ListLaboratories(context.Background())
			if !IsStatus(err, tt.status) {
				t.Fatalf("error = %v, want HTTP %d", err, tt.status)
			}
			if texts := rec.texts(); len(texts) != 1 || texts[0] != tt.want {
				t.Errorf("notices = %v, want [%s]", texts, tt.want)
			}
			if got := Message(err); got != tt.want {
				t.Errorf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessageContextErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{context.DeadlineExceeded, msgTimeout},
		{fmt.Errorf("client.ListLaboratories: %w", context.DeadlineExceeded), msgTimeout},
		{context.Canceled, msgCanceled},
		{fmt.Errorf("client.ListLaboratories: %w", context.Canceled), msgCanceled},
	}
	for _, tt := range tests {
		if got := Message(tt.err); got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	rec := &recorder{}
	c := New(url, nil, WithNotifier(rec))
	_, err := c.ListTimeSlots(context.Background())
	if !IsNetwork(err) {
		t.Fatalf("error = %v, want network error", err)
	}
	if texts := rec.texts(); len(texts) != 1 || texts[0] != msgNetwork {
		t.Errorf("notices = %v, want [%s]", texts, msgNetwork)
	}
}

func TestCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, 200, "ok", []any{})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	c := New(srv.URL, nil, WithNotifier(rec))
	_, err := c.ListLaboratories(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if IsNetwork(err) {
		t.Error("cancellation reported as a network error")
	}
	if texts := rec.texts(); len(texts) != 0 {
		t.Errorf("notices = %v, want none", texts)
	}
}

func TestExportReservationsBlob(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("startDate"); got != "2026-01-01" {
			t.Errorf("startDate = %q, want 2026-01-01", got)
		}
		w.Header().Set("Content-Type", "application/vnd.ms-excel")
		w.Header().Set("Content-Disposition", `attachment; filename="march.xlsx"`)
		w.Write([]byte("PK\x03\x04")) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL, NewMemoryTokens("tok"))
	blob, err := c.ExportReservations(context.Background(), ReportQuery{StartDate: "2026-01-01"})
	if err != nil {
		t.Fatalf("ExportReservations() error: %v", err)
	}
	if blob.Filename != "march.xlsx" {
		t.Errorf("Filename = %q, want %q", blob.Filename, "march.xlsx")
	}
	if string(blob.Data) != "PK\x03\x04" {
		t.Errorf("Data = %q", blob.Data)
	}
}

func TestExportStatisticsFailingEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeEnvelope(w, 500, "no data in range", nil)
	}))
	defer srv.Close()

	c := New(srv.URL, NewMemoryTokens("tok"))
	_, err := c.ExportStatistics(context.Background(), ReportQuery{})
	var bizErr *BusinessError
	if !errors.As(err, &bizErr) {
		t.Fatalf("error = %v, want *BusinessError", err)
	}
}
