package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/playperu/cuetimer/internal/rooms"
)

type ctxKey int

const ctxKeyRoom ctxKey = iota

// newCORS lets network displays on other origins poll and subscribe.
func newCORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "If-None-Match"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         600,
	}).Handler
}

// roomMiddleware resolves the {code} path parameter to a live room code.
func roomMiddleware(reg *rooms.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := rooms.NormalizeCode(chi.URLParam(r, "code"))
			if !rooms.ValidCode(code) {
				writeError(w, http.StatusNotFound, "room not found")
				return
			}
			if _, err := reg.Get(code); err != nil {
				writeError(w, http.StatusNotFound, "room not found")
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyRoom, code)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func roomFrom(r *http.Request) string {
	return r.Context().Value(ctxKeyRoom).(string)
}

// roomQuery reads the roomCode query parameter.
func roomQuery(r *http.Request) string {
	return rooms.NormalizeCode(r.URL.Query().Get("roomCode"))
}
