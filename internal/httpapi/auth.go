package httpapi

import (
	"context"
	"net/http"
	"strings"

	"magnetix/ticket-service/internal/models"
)

type authContextKey struct{}

type authInfo struct {
	Session models.Session
	User    models.User
}

// withSession resolves the bearer session and attaches the user to the
// request context. Authentication is optional on every route: a missing
// or stale token just leaves the request anonymous. Handlers that need
// an identity check the context themselves.
func (h *Handler) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := sessionIDFromRequest(r)
		if sessionID == "" {
			next.ServeHTTP(w, r)
			return
		}
		session, user, err := h.store.GetSession(r.Context(), sessionID)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), authContextKey{}, authInfo{Session: session, User: user})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFromContext(ctx context.Context) (models.User, bool) {
	value := ctx.Value(authContextKey{})
	if value == nil {
		return models.User{}, false
	}
	info, ok := value.(authInfo)
	if !ok {
		return models.User{}, false
	}
	return info.User, true
}

func sessionIDFromRequest(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get("X-Session-ID"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
