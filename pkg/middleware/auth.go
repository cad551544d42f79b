package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"anonforum/pkg/session"

	"go.uber.org/zap"
)

// Identity attaches a verified session to the request context. A
// missing or invalid token is not an error here, the request goes
// through as anonymous and the handlers decide what that means.
func Identity(logger *zap.SugaredLogger, sm session.SessionManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		sess, err := sm.Check(ctx, r)
		if err != nil {
			logger.Warnf("session check failed: %s", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), session.SessionKey, sess)))
	})
}

// RequireAuth rejects requests that Identity left anonymous.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.SessionFromContext(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			errorBody, _ := json.Marshal(map[string]string{"message": "unauthorized"})
			w.Write(errorBody)

			return
		}

		next.ServeHTTP(w, r)
	})
}
