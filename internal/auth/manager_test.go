package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/voxmeet/voxmeet/internal/api"
	"github.com/voxmeet/voxmeet/internal/credential"
)

type fakeBackend struct {
	token      string
	identity   api.Identity
	loginFails bool
	meFails    bool
	registered int
}

func (f *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if f.loginFails {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "invalid credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": f.token, "token_type": "bearer"})
	})
	mux.HandleFunc("/api/auth/register", func(w http.ResponseWriter, r *http.Request) {
		f.registered++
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if f.meFails || r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"detail": "not authenticated"})
			return
		}
		_ = json.NewEncoder(w).Encode(f.identity)
	})
	return mux
}

func newTestManager(t *testing.T, backend *fakeBackend) (*Manager, credential.Store, credential.Store, *[]*api.Identity) {
	t.Helper()
	ts := httptest.NewServer(backend.handler())
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	holder := credential.NewHolder()
	durable := credential.NewFileStore(dir)
	cookie := credential.NewCookieStore(dir, 12*time.Hour)
	client := api.New(ts.URL, 5*time.Second, holder, nil)

	var published []*api.Identity
	m := NewManager(client, holder, durable, cookie, func(id *api.Identity) {
		published = append(published, id)
	})
	return m, durable, cookie, &published
}

func TestLoginPublishesIdentity(t *testing.T) {
	backend := &fakeBackend{
		token:    "tok-1",
		identity: api.Identity{Email: "a@b.com", Role: api.RoleCompany, CompanyID: "c-1", Name: "Acme"},
	}
	m, durable, cookie, published := newTestManager(t, backend)

	id, err := m.Login(context.Background(), "a@b.com", "secret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if id.Email != "a@b.com" || id.CompanyID != "c-1" {
		t.Fatalf("unexpected identity: %+v", id)
	}
	if !m.Authenticated() {
		t.Fatalf("Authenticated() = false after login")
	}

	if tok, _ := durable.Load(); tok != "tok-1" {
		t.Fatalf("durable store = %q, want %q", tok, "tok-1")
	}
	if tok, _ := cookie.Load(); tok != "tok-1" {
		t.Fatalf("cookie store = %q, want %q", tok, "tok-1")
	}
	if len(*published) != 1 || (*published)[0] == nil {
		t.Fatalf("published transitions = %+v, want one identity", *published)
	}
}

func TestLoginPropagatesGatewayError(t *testing.T) {
	backend := &fakeBackend{loginFails: true}
	m, durable, _, _ := newTestManager(t, backend)

	_, err := m.Login(context.Background(), "a@b.com", "wrong")
	if err == nil {
		t.Fatalf("Login() with bad credentials should fail")
	}
	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login() error = %v, want *api.APIError", err)
	}
	if apiErr.Detail != "invalid credentials" {
		t.Fatalf("error detail = %q", apiErr.Detail)
	}
	if tok, _ := durable.Load(); tok != "" {
		t.Fatalf("durable store = %q after failed login, want empty", tok)
	}
}

func TestLogoutClearsBothSurfaces(t *testing.T) {
	backend := &fakeBackend{token: "tok-2", identity: api.Identity{Email: "a@b.com", Role: api.RoleCompany}}
	m, durable, cookie, published := newTestManager(t, backend)

	if _, err := m.Login(context.Background(), "a@b.com", "secret"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	m.Logout()

	if tok, _ := durable.Load(); tok != "" {
		t.Fatalf("durable store = %q after logout, want empty", tok)
	}
	if tok, _ := cookie.Load(); tok != "" {
		t.Fatalf("cookie store = %q after logout, want empty", tok)
	}
	if m.Identity() != nil {
		t.Fatalf("Identity() after logout should be nil")
	}
	last := (*published)[len(*published)-1]
	if last != nil {
		t.Fatalf("last published identity = %+v, want nil", last)
	}
}

func TestRegisterAutoLoginFailureLeavesCredentialUnset(t *testing.T) {
	backend := &fakeBackend{loginFails: true}
	m, durable, cookie, _ := newTestManager(t, backend)

	_, err := m.Register(context.Background(), "Acme", "a@b.com", "secret")
	if err == nil {
		t.Fatalf("Register() with failing auto-login should fail")
	}
	if !errors.Is(err, ErrAutoLogin) {
		t.Fatalf("Register() error = %v, want ErrAutoLogin", err)
	}
	if backend.registered != 1 {
		t.Fatalf("register calls = %d, want 1", backend.registered)
	}
	if tok, _ := durable.Load(); tok != "" {
		t.Fatalf("durable store = %q, want empty", tok)
	}
	if tok, _ := cookie.Load(); tok != "" {
		t.Fatalf("cookie store = %q, want empty", tok)
	}
}

func TestRestoreClearsCredentialOnIdentityFailure(t *testing.T) {
	backend := &fakeBackend{token: "tok-3", meFails: true}
	m, durable, cookie, _ := newTestManager(t, backend)

	if err := durable.Save("tok-3"); err != nil {
		t.Fatalf("seed durable store: %v", err)
	}

	if id := m.Restore(context.Background()); id != nil {
		t.Fatalf("Restore() = %+v, want nil", id)
	}
	if tok, _ := durable.Load(); tok != "" {
		t.Fatalf("durable store = %q after failed restore, want empty", tok)
	}
	if tok, _ := cookie.Load(); tok != "" {
		t.Fatalf("cookie store = %q after failed restore, want empty", tok)
	}
}

func TestRestoreRefreshesCookieSurface(t *testing.T) {
	backend := &fakeBackend{token: "tok-4", identity: api.Identity{Email: "a@b.com", Role: api.RoleCompany}}
	m, durable, cookie, _ := newTestManager(t, backend)

	if err := durable.Save("tok-4"); err != nil {
		t.Fatalf("seed durable store: %v", err)
	}

	id := m.Restore(context.Background())
	if id == nil || id.Email != "a@b.com" {
		t.Fatalf("Restore() = %+v, want identity", id)
	}
	if tok, _ := cookie.Load(); tok != "tok-4" {
		t.Fatalf("cookie store = %q after restore, want %q", tok, "tok-4")
	}
}
