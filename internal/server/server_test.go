package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nova-jack/novafusion/config"
	"github.com/nova-jack/novafusion/internal/auth"
	"github.com/nova-jack/novafusion/internal/ratelimit"
	"github.com/nova-jack/novafusion/internal/services"
	"github.com/nova-jack/novafusion/internal/store/memory"
	"github.com/nova-jack/novafusion/types"
)

func testConfig() config.Config {
	return config.Config{
		Env:        "test",
		ServerPort: 0,
		BaseURL:    "http://localhost:3000",
		JWTSecret:  "server-test-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
		Database:   config.DatabaseConfig{Driver: "memory"},
		Storage:    config.StorageConfig{Backend: "memory"},
		MQ:         config.MQConfig{Backend: "memory", EnquiryTopic: "enquiry.created"},
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.ErrorIs(t, err, auth.ErrMissingSecret)
}

func TestNew_RejectsUnknownBackends(t *testing.T) {
	cfg := testConfig()
	cfg.Storage.Backend = "ftp"
	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.ErrorContains(t, err, "STORAGE_BACKEND")
}

func TestNew_MemoryStack(t *testing.T) {
	srv, err := New(context.Background(), testConfig(), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/enquiry",
		strings.NewReader(`{"name":"Dana","email":"dana@example.com","message":"hello"}`))
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

// newScenario builds the full router over the in-memory store with one
// seeded super admin.
func newScenario(t *testing.T, opts ...func(*Deps)) (http.Handler, types.AdminUser) {
	t.Helper()
	tokens, err := auth.NewTokenService("scenario-secret", time.Hour)
	require.NoError(t, err)

	db := memory.New()
	repos := MemoryRepositories(db)
	admin, err := services.NewUserService(repos.Users, bcrypt.MinCost).
		CreateAdmin(context.Background(), "admin@x.com", "Site Admin", "correct-password", types.RoleSuperAdmin)
	require.NoError(t, err)

	deps := Deps{
		Logger:       zerolog.Nop(),
		Tokens:       tokens,
		Auth:         services.NewAuthService(repos.Users, bcrypt.MinCost),
		Blogs:        services.NewBlogService(repos.Blogs),
		Portfolios:   services.NewPortfolioService(repos.Portfolios),
		Services:     services.NewServiceService(repos.Services),
		Enquiries:    services.NewEnquiryService(repos.Enquiries),
		Media:        services.NewMediaService(nil, ""),
		LoginLimit:   ratelimit.NewMemory(ratelimit.Policy{MaxAttempts: 5, Window: 15 * time.Minute}),
		EnquiryLimit: ratelimit.NewMemory(ratelimit.Policy{MaxAttempts: 5, Window: time.Hour}),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	return NewRouter(deps), admin
}

func send(t *testing.T, h http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "198.51.100.9:40312"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScenario_LoginSessionLogout(t *testing.T) {
	router, admin := newScenario(t)

	rec := send(t, router, http.MethodPost, "/api/admin/auth", `{"email":"admin@x.com","password":"correct-password"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("Set-Cookie"))

	var login struct {
		Success bool            `json:"success"`
		User    types.AdminUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))
	assert.True(t, login.Success)
	assert.Equal(t, admin, login.User)
	cookie := rec.Result().Cookies()[0]

	rec = send(t, router, http.MethodGet, "/api/admin/auth", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var session struct {
		Authenticated bool            `json:"authenticated"`
		User          types.AdminUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.True(t, session.Authenticated)
	assert.Equal(t, admin, session.User)

	rec = send(t, router, http.MethodDelete, "/api/admin/auth", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := rec.Result().Cookies()[0]
	assert.Empty(t, cleared.Value)

	// the browser drops the expired cookie, so the next request carries none
	rec = send(t, router, http.MethodGet, "/api/admin/auth", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestScenario_BlogCreation(t *testing.T) {
	router, _ := newScenario(t)
	rec := send(t, router, http.MethodPost, "/api/admin/auth", `{"email":"admin@x.com","password":"correct-password"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := rec.Result().Cookies()[0]

	rec = send(t, router, http.MethodPost, "/api/admin/blogs", `{"title":"Hi","content":"long enough content"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Title must be between 3 and 200 characters"}`, rec.Body.String())

	rec = send(t, router, http.MethodPost, "/api/admin/blogs", `{"title":"Hello World","content":"12345"}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Content must be at least 10 characters"}`, rec.Body.String())

	rec = send(t, router, http.MethodPost, "/api/admin/blogs", `{"title":"Hello World","content":"A proper first post."}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data struct {
			Blog types.Blog `json:"blog"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "hello-world", created.Data.Blog.Slug)

	rec = send(t, router, http.MethodGet, "/api/portfolio", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = send(t, router, http.MethodGet, "/api/admin/services", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = send(t, router, http.MethodPost, "/api/admin/media", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code, "media routes are absent without storage")
}

func failedLogin(t *testing.T, h http.Handler, forwardedFor string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/auth",
		strings.NewReader(`{"email":"admin@x.com","password":"wrong-password"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", forwardedFor)
	req.RemoteAddr = "198.51.100.9:40312"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestLoginLimit_IgnoresForwardedForByDefault(t *testing.T) {
	router, _ := newScenario(t)

	for i := range 5 {
		require.Equal(t, http.StatusUnauthorized, failedLogin(t, router, fmt.Sprintf("10.0.0.%d", i+1)))
	}
	assert.Equal(t, http.StatusTooManyRequests, failedLogin(t, router, "10.0.0.99"))
}

func TestLoginLimit_TrustedProxyKeysOnForwardedFor(t *testing.T) {
	router, _ := newScenario(t, func(d *Deps) { d.TrustProxy = true })

	for range 5 {
		require.Equal(t, http.StatusUnauthorized, failedLogin(t, router, "192.0.2.10"))
	}
	assert.Equal(t, http.StatusTooManyRequests, failedLogin(t, router, "192.0.2.10"))
	assert.Equal(t, http.StatusUnauthorized, failedLogin(t, router, "192.0.2.11"))
}

func TestRouter_UnmatchedRoutesUseEnvelope(t *testing.T) {
	router, _ := newScenario(t)

	rec := send(t, router, http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Not found"}`, rec.Body.String())

	rec = send(t, router, http.MethodGet, "/api/enquiry", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"Method not allowed"}`, rec.Body.String())
}
