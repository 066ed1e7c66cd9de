package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Pinger checks a backing service. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Healthz reports whether the process and, when db is set, the database
// are reachable.
func Healthz(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("database ping failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
