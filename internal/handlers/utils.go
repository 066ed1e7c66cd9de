package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nova-jack/novafusion/internal/services"
	"github.com/nova-jack/novafusion/internal/store"
	"github.com/nova-jack/novafusion/types"
)

const (
	// maxBodyBytes caps JSON request bodies.
	maxBodyBytes = 1 << 20

	msgServerError  = "An error occurred. Please try again later."
	msgInvalidBody  = "Invalid request body"
	msgUnauthorized = "Unauthorized"
)

// Envelope is the uniform response body.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type contextKey string

const contextUserKey contextKey = "admin_user"

func withUser(ctx context.Context, user types.AdminUser) context.Context {
	return context.WithValue(ctx, contextUserKey, user)
}

// UserFromContext returns the admin the gate attached to ctx.
func UserFromContext(ctx context.Context) (types.AdminUser, bool) {
	user, ok := ctx.Value(contextUserKey).(types.AdminUser)
	return user, ok
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Envelope{Error: message})
}

// NotFound answers unknown routes with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "Not found")
}

// MethodNotAllowed answers known routes called with an unsupported method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// writeServiceError maps a service or store error onto a status code.
// Anything unrecognized is logged and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var (
		verr     *services.ValidationError
		conflict *services.ConflictError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Message)
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, services.ErrForbidden.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

// decodeJSON reads at most maxBodyBytes of JSON from r into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := readBody(w, r)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

// targetID returns the record id from ?id=, falling back to an {"id"}
// JSON body. A missing or unreadable body yields "".
func targetID(w http.ResponseWriter, r *http.Request) string {
	if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
		return id
	}
	body, err := readBody(w, r)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.ID)
}

// queryInt parses key from the query string. Missing or malformed values
// yield 0, which the services replace with their defaults.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(key)))
	if err != nil {
		return 0
	}
	return n
}

func listFilter(r *http.Request) types.ListFilter {
	return types.ListFilter{
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Page:   queryInt(r, "page"),
		Limit:  queryInt(r, "limit"),
	}
}

// clientIP is the address rate limits are keyed on. Forwarding headers
// only count when the server trusts its proxy and RealIP has rewritten
// RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
