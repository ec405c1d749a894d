package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/neti77/anotequest-v1-sub000/handlers/auth"
)

type contextKey string

const ClaimsContextKey = contextKey("claims")

func AuthJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, map[string]string{"error": "Authorization header is required"})
			return
		}
		claims, ok := bearerClaims(w, r, authHeader)
		if !ok {
			return
		}
		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Auth returns AuthJWT when required is set. Otherwise requests without an
// Authorization header act on the local board, and a header that is sent
// must still be valid.
func Auth(required bool) func(http.Handler) http.Handler {
	if required {
		return AuthJWT
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.LocalClaims()
			if authHeader := r.Header.Get("Authorization"); authHeader != "" {
				var ok bool
				if claims, ok = bearerClaims(w, r, authHeader); !ok {
					return
				}
			}
			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerClaims(w http.ResponseWriter, r *http.Request, authHeader string) (*auth.AppClaims, bool) {
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "Authorization header format must be Bearer {token}"})
		return nil, false
	}

	claims, err := auth.ParseJWT(parts[1])
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "Invalid token"})
		return nil, false
	}
	return claims, true
}
