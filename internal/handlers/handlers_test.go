package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nova-jack/novafusion/internal/auth"
	"github.com/nova-jack/novafusion/internal/ratelimit"
	"github.com/nova-jack/novafusion/internal/services"
	"github.com/nova-jack/novafusion/internal/storage"
	"github.com/nova-jack/novafusion/internal/store/memory"
	"github.com/nova-jack/novafusion/types"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type testEnv struct {
	router  *chi.Mux
	db      *memory.DB
	tokens  *auth.TokenService
	clock   *clock
	objects *storage.Memory
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	c := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	tokens, err := auth.NewTokenService("handler-test-secret", time.Hour, auth.WithClock(c.Now))
	require.NoError(t, err)

	db := memory.New()
	objects := storage.NewMemory("media")
	env := &testEnv{db: db, tokens: tokens, clock: c, objects: objects}

	blogs := NewContentHandler[types.Blog, types.BlogPatch](services.NewBlogService(db.Blogs))
	enquiries := NewEnquiryHandler(services.NewEnquiryService(db.Enquiries),
		ratelimit.NewMemory(ratelimit.Policy{MaxAttempts: 3, Window: time.Hour}, ratelimit.WithClock(c.Now)))
	media := NewMediaHandler(services.NewMediaService(objects, "https://novafusion.test"))
	login := NewAuthHandler(services.NewAuthService(db.Users, bcrypt.MinCost), tokens,
		ratelimit.NewMemory(ratelimit.Policy{MaxAttempts: 5, Window: 15 * time.Minute}, ratelimit.WithClock(c.Now)), true)

	r := chi.NewRouter()
	r.Use(Recoverer)
	r.Get("/media/*", media.Serve)
	r.Route("/api", func(r chi.Router) {
		r.Route("/blogs", func(r chi.Router) { PublicContentRouter(r, blogs) })
		r.Route("/enquiry", func(r chi.Router) { PublicEnquiryRouter(r, enquiries) })
		r.Route("/admin", func(r chi.Router) {
			r.Route("/auth", func(r chi.Router) { AuthRouter(r, login) })
			r.Group(func(r chi.Router) {
				r.Use(RequireAuth(tokens, GateOptions{}))
				r.Route("/blogs", func(r chi.Router) { ContentRouter(r, blogs) })
				r.Route("/enquiries", func(r chi.Router) { EnquiryRouter(r, enquiries) })
				r.Route("/media", func(r chi.Router) { MediaRouter(r, media, tokens) })
			})
		})
	})
	env.router = r
	return env
}

// seedUser stores an admin and returns it with its session cookie.
func (e *testEnv) seedUser(t *testing.T, email, password string, role types.Role) (types.AdminUser, *http.Cookie) {
	t.Helper()
	user, err := services.NewUserService(e.db.Users, bcrypt.MinCost).CreateAdmin(t.Context(), email, "Admin", password, role)
	require.NoError(t, err)
	return user, e.cookieFor(t, user)
}

func (e *testEnv) cookieFor(t *testing.T, user types.AdminUser) *http.Cookie {
	t.Helper()
	token, err := e.tokens.Generate(user)
	require.NoError(t, err)
	return &http.Cookie{Name: CookieName, Value: token}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// envelope decodes a response into the uniform envelope with data kept raw.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	env := decode[envelope](t, rec)
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v), string(env.Data))
	return v
}
