package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "credtrust/pkg/domain"
)

type principalKey struct{}

// GetPrincipal retrieves the authenticated principal from the context.
// A zero principal means the request was not authenticated.
func GetPrincipal(ctx context.Context) (id.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(id.Principal)
	return p, ok
}

// WithPrincipal stores a principal in the context. Exported for tests that
// exercise handlers without the full middleware stack.
func WithPrincipal(ctx context.Context, p id.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// RequireAuth validates the Bearer token and injects the (userID, role)
// principal into the request context. The surrounding system owns session
// issuance; this layer only extracts identity.
func RequireAuth(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			principal, err := parsePrincipal(token, signingKey)
			if err != nil {
				logger.WarnContext(r.Context(), "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(r.Context()),
				)
				unauthorized(w, "invalid or expired token")
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose principal lacks the admin role.
// Must be mounted after RequireAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := GetPrincipal(r.Context())
		if !ok || !p.IsAdmin() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":             "forbidden",
				"error_description": "admin role required",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type principalClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func parsePrincipal(tokenString string, signingKey []byte) (id.Principal, error) {
	var claims principalClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return signingKey, nil
	})
	if err != nil {
		return id.Principal{}, err
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return id.Principal{}, err
	}

	return id.Principal{UserID: userID, Role: id.Role(claims.Role)}, nil
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             "unauthorized",
		"error_description": description,
	})
}
