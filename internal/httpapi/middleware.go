package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	sessionCookieName = "shop_session"
	sessionCookieTTL  = 30 * 24 * time.Hour
)

type contextKey string

const sessionContextKey contextKey = "session_id"

// sessionMiddleware привязывает запрос к сессии покупателя через cookie.
// Отсутствующая или пустая cookie получает новый uuid; идентификатор сессии
// кладётся в контекст запроса.
func (h *Handler) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sessionID string
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			sessionID = cookie.Value
		}
		if sessionID == "" {
			sessionID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(sessionCookieTTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionContextKey, sessionID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionID достаёт идентификатор сессии, проставленный sessionMiddleware.
func sessionID(r *http.Request) string {
	if id, ok := r.Context().Value(sessionContextKey).(string); ok {
		return id
	}
	return ""
}

// metricsMiddleware пишет гистограмму длительности запросов по шаблону маршрута.
func (h *Handler) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		h.metrics.RecordRequestDuration(r.Method, route, strconv.Itoa(ww.Status()), time.Since(start))
	})
}
