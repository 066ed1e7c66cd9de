package handlers

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/nova-jack/novafusion/internal/ratelimit"
	"github.com/nova-jack/novafusion/types"
)

// CookieName carries the admin session token.
const CookieName = "admin_token"

// TokenVerifier decodes a session token. *auth.TokenService satisfies it.
type TokenVerifier interface {
	Verify(token string) (types.AdminUser, bool)
}

// TokenIssuer signs session tokens. *auth.TokenService satisfies it.
type TokenIssuer interface {
	TokenVerifier
	Generate(user types.AdminUser) (string, error)
	TTL() time.Duration
}

// CredentialChecker validates a login. *services.AuthService satisfies it.
type CredentialChecker interface {
	ValidateCredentials(ctx context.Context, email, password string) (types.AdminUser, bool, error)
}

// GateOptions narrows which roles pass RequireAuth.
type GateOptions struct {
	// RequiredRole, when set, must equal the caller's role exactly.
	RequiredRole types.Role
	// AllowRoles, when non-empty, must contain the caller's role.
	AllowRoles []types.Role
}

// RequireAuth admits requests carrying a valid session cookie and stores
// the decoded admin in the request context. It never calls next on
// failure. A panic raised while checking the token becomes a 500.
func RequireAuth(tokens TokenVerifier, opts GateOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, status, message, err := authenticate(r, tokens, opts)
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("auth gate failed")
				writeJSON(w, http.StatusInternalServerError, Envelope{
					Error:   "Internal Server Error",
					Message: "An error occurred during authentication",
				})
				return
			}
			if status != http.StatusOK {
				errText := msgUnauthorized
				if status == http.StatusForbidden {
					errText = "Forbidden"
				}
				writeJSON(w, status, Envelope{Error: errText, Message: message})
				return
			}
			next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
		})
	}
}

func authenticate(r *http.Request, tokens TokenVerifier, opts GateOptions) (user types.AdminUser, status int, message string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	cookie, cerr := r.Cookie(CookieName)
	if cerr != nil || strings.TrimSpace(cookie.Value) == "" {
		return types.AdminUser{}, http.StatusUnauthorized, "No authentication token provided", nil
	}
	user, ok := tokens.Verify(cookie.Value)
	if !ok {
		return types.AdminUser{}, http.StatusUnauthorized, "Invalid or expired authentication token", nil
	}
	if opts.RequiredRole != "" && user.Role != opts.RequiredRole {
		return types.AdminUser{}, http.StatusForbidden, "Insufficient permissions", nil
	}
	if len(opts.AllowRoles) > 0 && !slices.Contains(opts.AllowRoles, user.Role) {
		return types.AdminUser{}, http.StatusForbidden, "Insufficient permissions", nil
	}
	return user, http.StatusOK, "", nil
}

// AuthHandler serves login, session lookup and logout.
type AuthHandler struct {
	credentials CredentialChecker
	tokens      TokenIssuer
	limiter     ratelimit.Limiter
	secure      bool
}

func NewAuthHandler(credentials CredentialChecker, tokens TokenIssuer, limiter ratelimit.Limiter, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		tokens:      tokens,
		limiter:     limiter,
		secure:      secureCookie,
	}
}

// AuthRouter registers the session routes on r.
func AuthRouter(r chi.Router, h *AuthHandler) {
	r.Post("/", h.Login)
	r.Get("/", h.Session)
	r.Delete("/", h.Logout)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool            `json:"success"`
	User    types.AdminUser `json:"user"`
}

type SessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *types.AdminUser `json:"user,omitempty"`
}

// Login checks credentials and sets the session cookie. Failed attempts
// count against the caller's address; a success clears them.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)
	ip := clientIP(r)

	limited, err := h.limiter.IsLimited(ctx, ip)
	if err != nil {
		log.Warn().Err(err).Msg("login rate limit check failed")
	}
	if limited {
		writeError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
		return
	}

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidBody)
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, ok, err := h.credentials.ValidateCredentials(ctx, req.Email, req.Password)
	if err != nil {
		log.Error().Err(err).Msg("validate credentials")
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}
	if !ok {
		if err := h.limiter.RecordAttempt(ctx, ip); err != nil {
			log.Warn().Err(err).Msg("record login attempt")
		}
		log.Info().Str("client_ip", ip).Msg("login failed")
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := h.limiter.Clear(ctx, ip); err != nil {
		log.Warn().Err(err).Msg("clear login attempts")
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		log.Error().Err(err).Msg("generate token")
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	http.SetCookie(w, h.sessionCookie(token, int(h.tokens.TTL().Seconds())))
	log.Info().Str("user_id", user.ID).Msg("admin logged in")
	writeJSON(w, http.StatusOK, LoginResponse{Success: true, User: user})
}

// Session reports who the session cookie belongs to.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		writeJSON(w, http.StatusUnauthorized, SessionResponse{})
		return
	}
	user, ok := h.tokens.Verify(cookie.Value)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, SessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{Authenticated: true, User: &user})
}

// Logout expires the session cookie. The token itself stays valid until
// it expires.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.sessionCookie("", -1))
	writeSuccess(w, http.StatusOK, nil, "Logged out successfully")
}

func (h *AuthHandler) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
