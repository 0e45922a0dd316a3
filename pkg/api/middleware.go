package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/crateview/pkg/session"
)

type sessionKey struct{}

// SessionMiddleware resolves the request's session, creating one when the
// header is absent or names an expired session.
func SessionMiddleware(store session.Store, logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var sess *session.Session
			if id := r.Header.Get(SessionHeader); id != "" {
				var err error
				sess, err = store.Get(ctx, id)
				if err != nil {
					jsonError(w, "invalid session id", "INVALID_INPUT", http.StatusBadRequest)
					return
				}
			}
			if sess == nil {
				var err error
				if sess, err = store.Create(ctx); err != nil {
					jsonError(w, "could not create session", "INTERNAL_ERROR", http.StatusInternalServerError)
					return
				}
				logger.Debug("session created", "session", sess.ID)
			}
			w.Header().Set(SessionHeader, sess.ID)
			next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, sessionKey{}, sess)))
		})
	}
}

func sessionFrom(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	return sess
}

// RequestLogger logs incoming requests.
func RequestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: 200}
			next.ServeHTTP(sw, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
