package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/auth"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/hoaapi"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/payment"
	"github.com/priya-1008/HOA-Connect-Frontend-sub000/internal/session"
)

// fakeBackend mimics the HOA REST API. Tokens are "tok-<role>"; the role is
// taken from the part of the email before the @.
type fakeBackend struct {
	mu          sync.Mutex
	completed   bool
	revoked     bool
	lastScope   string
	initiations int
}

func (b *fakeBackend) scope() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastScope
}

func (b *fakeBackend) initiateCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.initiations
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	write := func(status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	if r.URL.Path == "/auth/login" {
		var req hoaapi.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		role, _, _ := strings.Cut(req.Email, "@")
		if req.Password != "secret" {
			write(http.StatusBadRequest, map[string]string{"message": "Invalid credentials"})
			return
		}
		write(http.StatusOK, map[string]string{"token": "tok-" + role, "role": role})
		return
	}
	if b.revoked || !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer tok-") {
		write(http.StatusUnauthorized, map[string]string{"message": "Token expired"})
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/resident/payment/initiate":
		b.initiations++
		write(http.StatusOK, map[string]string{"paymentId": "P1", "transactionId": "T1"})
	case r.Method == http.MethodPut && r.URL.Path == "/resident/payment/P1/success":
		b.completed = true
		write(http.StatusOK, map[string]any{
			"message": "Payment successful",
			"payment": map[string]any{"_id": "P1", "transactionId": "T1", "amount": 500, "status": "completed"},
		})
	case r.Method == http.MethodGet && r.URL.Path == "/resident/payments":
		payments := []map[string]any{}
		if b.completed {
			payments = append(payments, map[string]any{"_id": "P1", "transactionId": "T1", "amount": 500, "billType": "maintenance", "status": "completed"})
		}
		write(http.StatusOK, map[string]any{"payments": payments})
	case r.Method == http.MethodGet && r.URL.Path == "/resident/payment/receipt/T1":
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="receipt_T1.pdf"`)
		_, _ = w.Write([]byte("%PDF-1.4 receipt"))
	case r.Method == http.MethodGet:
		b.lastScope = r.URL.Path
		write(http.StatusOK, map[string]any{"data": []map[string]any{{"_id": "1", "title": "Pool closed", "name": "x"}}})
	case r.Method == http.MethodPost:
		b.lastScope = r.URL.Path
		write(http.StatusCreated, map[string]any{"data": map[string]any{"_id": "new", "title": "Leak"}})
	default:
		write(http.StatusNotFound, map[string]string{"message": "not found"})
	}
}

type portal struct {
	t        *testing.T
	handler  http.Handler
	backend  *fakeBackend
	sessions *session.Manager
	flows    *payment.Registry
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	be := &fakeBackend{}
	upstream := httptest.NewServer(be)
	t.Cleanup(upstream.Close)

	api := hoaapi.New(upstream.URL, hoaapi.Options{})
	sessions := session.NewManager(session.NewMemoryStore(), 0)
	flows := payment.NewRegistry(api)
	sessions.OnLogout(flows.Drop)

	mux := chi.NewRouter()
	RegisterRoutes(mux, Deps{API: api, Sessions: sessions, Payments: flows, LoginPath: "/login"})
	return &portal{t: t, handler: mux, backend: be, sessions: sessions, flows: flows}
}

func (p *portal) do(method, path string, cookie *http.Cookie, body any) *httptest.ResponseRecorder {
	p.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	resp := httptest.NewRecorder()
	p.handler.ServeHTTP(resp, req)
	return resp
}

func (p *portal) login(role string) *http.Cookie {
	p.t.Helper()
	resp := p.do(http.MethodPost, "/auth/login", nil, map[string]string{"email": role + "@hoa.test", "password": "secret"})
	if resp.Code != http.StatusOK {
		p.t.Fatalf("login as %s: status %d: %s", role, resp.Code, resp.Body.String())
	}
	for _, c := range resp.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	p.t.Fatal("no session cookie set")
	return nil
}

func decode(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", resp.Body.String(), err)
	}
	return out
}

func expectRedirect(t *testing.T, resp *httptest.ResponseRecorder, to string) {
	t.Helper()
	if resp.Code != http.StatusSeeOther {
		t.Fatalf("expected status 303, got %d: %s", resp.Code, resp.Body.String())
	}
	if loc := resp.Header().Get("Location"); loc != to {
		t.Fatalf("expected redirect to %s, got %s", to, loc)
	}
}

func TestLoginRedirectsToLanding(t *testing.T) {
	p := newPortal(t)
	for role, landing := range map[string]string{
		"superadmin": "/superadmin/dashboard",
		"admin":      "/admin/dashboard",
		"resident":   "/resident/dashboard",
	} {
		resp := p.do(http.MethodPost, "/auth/login", nil, map[string]string{"email": role + "@hoa.test", "password": "secret"})
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", role, resp.Code)
		}
		if got := decode(t, resp)["redirect"]; got != landing {
			t.Fatalf("%s: expected redirect %s, got %v", role, landing, got)
		}
	}
}

func TestLoginBadCredentials(t *testing.T) {
	p := newPortal(t)
	resp := p.do(http.MethodPost, "/auth/login", nil, map[string]string{"email": "resident@hoa.test", "password": "nope"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if got := decode(t, resp)["error"]; got != "Invalid credentials" {
		t.Fatalf("expected backend message, got %v", got)
	}
	if len(resp.Result().Cookies()) != 0 {
		t.Fatal("no cookie expected on failed login")
	}
}

func TestLoginUnknownRole(t *testing.T) {
	p := newPortal(t)
	resp := p.do(http.MethodPost, "/auth/login", nil, map[string]string{"email": "janitor@hoa.test", "password": "secret"})
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestDashboardsAreRoleGuarded(t *testing.T) {
	p := newPortal(t)
	resident := p.login("resident")

	if resp := p.do(http.MethodGet, "/resident/dashboard", resident, nil); resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	expectRedirect(t, p.do(http.MethodGet, "/admin/dashboard", resident, nil), "/login")
	expectRedirect(t, p.do(http.MethodGet, "/superadmin/dashboard", resident, nil), "/login")
	expectRedirect(t, p.do(http.MethodGet, "/resident/dashboard", nil, nil), "/login")
}

func TestHomeRedirects(t *testing.T) {
	p := newPortal(t)
	expectRedirect(t, p.do(http.MethodGet, "/", nil, nil), "/login")
	admin := p.login("admin")
	expectRedirect(t, p.do(http.MethodGet, "/", admin, nil), "/admin/dashboard")
}

func TestResidentPaymentFlow(t *testing.T) {
	p := newPortal(t)
	c := p.login("resident")

	resp := p.do(http.MethodPost, "/api/payments/complete", c, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("complete before initiate: expected 409, got %d", resp.Code)
	}

	resp = p.do(http.MethodPost, "/api/payments/initiate", c, map[string]string{"billType": "maintenance"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("missing amount: expected 400, got %d", resp.Code)
	}
	if p.backend.initiateCalls() != 0 {
		t.Fatal("validation failure must not reach the backend")
	}

	resp = p.do(http.MethodPost, "/api/payments/initiate", c, map[string]string{"amount": "500", "billType": "maintenance"})
	if resp.Code != http.StatusOK {
		t.Fatalf("initiate: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if got := decode(t, resp)["state"]; got != string(payment.StateInitiated) {
		t.Fatalf("expected initiated, got %v", got)
	}

	resp = p.do(http.MethodPost, "/api/payments/complete", c, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("complete: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	body := decode(t, resp)
	if body["receipt_url"] != "/api/payments/receipt/T1" {
		t.Fatalf("unexpected receipt url %v", body["receipt_url"])
	}
	if history, _ := body["history"].([]any); len(history) != 1 {
		t.Fatalf("expected refreshed history with one payment, got %v", body["history"])
	}

	resp = p.do(http.MethodPost, "/api/payments/complete", c, nil)
	if resp.Code != http.StatusConflict {
		t.Fatalf("second complete: expected 409, got %d", resp.Code)
	}

	resp = p.do(http.MethodGet, "/api/payments/receipt/T1", c, nil)
	if resp.Code != http.StatusOK || resp.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("receipt: got %d %s", resp.Code, resp.Header().Get("Content-Type"))
	}
	if !strings.Contains(resp.Header().Get("Content-Disposition"), "receipt_T1.pdf") {
		t.Fatalf("unexpected disposition %q", resp.Header().Get("Content-Disposition"))
	}

	resp = p.do(http.MethodGet, "/api/payments/current", c, nil)
	if got := decode(t, resp)["state"]; got != string(payment.StateCompleted) {
		t.Fatalf("expected completed, got %v", got)
	}
}

func TestCancelPayment(t *testing.T) {
	p := newPortal(t)
	c := p.login("resident")
	if resp := p.do(http.MethodPost, "/api/payments/initiate", c, map[string]string{"amount": "20", "billType": "water"}); resp.Code != http.StatusOK {
		t.Fatalf("initiate: %d", resp.Code)
	}
	resp := p.do(http.MethodPost, "/api/payments/cancel", c, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d", resp.Code)
	}
	if got := decode(t, resp)["state"]; got != string(payment.StateIdle) {
		t.Fatalf("expected idle, got %v", got)
	}
}

func TestPaymentsAreResidentOnly(t *testing.T) {
	p := newPortal(t)
	admin := p.login("admin")
	expectRedirect(t, p.do(http.MethodPost, "/api/payments/initiate", admin, map[string]string{"amount": "1", "billType": "x"}), "/login")
	expectRedirect(t, p.do(http.MethodGet, "/api/payments/current", admin, nil), "/login")
}

func TestLogoutClearsSessionAndIntent(t *testing.T) {
	p := newPortal(t)
	c := p.login("resident")
	if resp := p.do(http.MethodPost, "/api/payments/initiate", c, map[string]string{"amount": "500", "billType": "maintenance"}); resp.Code != http.StatusOK {
		t.Fatalf("initiate: %d", resp.Code)
	}
	if p.flows.Len() != 1 {
		t.Fatalf("expected one flow, got %d", p.flows.Len())
	}

	expectRedirect(t, p.do(http.MethodPost, "/auth/logout", c, nil), "/login")
	if p.flows.Len() != 0 {
		t.Fatal("expected flow dropped on logout")
	}
	expectRedirect(t, p.do(http.MethodGet, "/api/payments/current", c, nil), "/login")
	expectRedirect(t, p.do(http.MethodGet, "/resident/dashboard", c, nil), "/login")

	// Logging out without a session still succeeds.
	expectRedirect(t, p.do(http.MethodPost, "/auth/logout", nil, nil), "/login")
}

func TestResourceScopes(t *testing.T) {
	p := newPortal(t)
	resident := p.login("resident")
	admin := p.login("admin")

	resp := p.do(http.MethodGet, "/api/announcements", resident, nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	if got := p.backend.scope(); got != "/resident/announcements" {
		t.Fatalf("expected resident scope, got %s", got)
	}
	if items, _ := decode(t, resp)["content"].([]any); len(items) != 1 {
		t.Fatalf("expected one item, got %v", items)
	}

	if resp := p.do(http.MethodGet, "/api/residents", admin, nil); resp.Code != http.StatusOK {
		t.Fatalf("admin residents: got %d", resp.Code)
	}
	if got := p.backend.scope(); got != "/hoaadmin/residents" {
		t.Fatalf("expected admin scope, got %s", got)
	}

	expectRedirect(t, p.do(http.MethodGet, "/api/residents", resident, nil), "/login")
	expectRedirect(t, p.do(http.MethodPost, "/api/announcements", resident, map[string]string{"title": "x"}), "/login")

	resp = p.do(http.MethodPost, "/api/complaints", resident, map[string]string{"title": "Leak"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create complaint: got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestRevokedTokenEndsSession(t *testing.T) {
	p := newPortal(t)
	c := p.login("resident")
	p.backend.mu.Lock()
	p.backend.revoked = true
	p.backend.mu.Unlock()

	expectRedirect(t, p.do(http.MethodGet, "/api/payments/history", c, nil), "/login")
	if _, err := p.sessions.Get(context.Background(), c.Value); err == nil {
		t.Fatal("expected session removed after backend 401")
	}
}

func TestChangePasswordEndsSession(t *testing.T) {
	p := newPortal(t)
	c := p.login("admin")
	resp := p.do(http.MethodPost, "/auth/change-password", c, map[string]string{"oldPassword": "secret", "newPassword": "better"})
	if resp.Code != http.StatusOK {
		t.Fatalf("change password: got %d: %s", resp.Code, resp.Body.String())
	}
	expectRedirect(t, p.do(http.MethodGet, "/auth/me", c, nil), "/login")
}
