package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/pawdesk/pawdesk/libs/auth"
)

type contextKey string

const claimsKey contextKey = "claims"

// RequireTenant verifies the bearer token and stashes the claims on the
// request context. Requests without a valid business id never reach a handler.
func RequireTenant(secret string, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing bearer token"})
			return
		}

		claims, err := auth.VerifyHS256(token, secret)
		if err != nil {
			logger.Debug("token rejected", "err", err)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid token"})
			return
		}
		if claims.BusinessID <= 0 {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "token has no business"})
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimsFrom(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// businessID returns the tenant for the request. The middleware guarantees
// presence on every authenticated route; the zero return only happens in
// handlers mounted without it, which is a wiring bug.
func businessID(r *http.Request) int64 {
	if claims := claimsFrom(r.Context()); claims != nil {
		return claims.BusinessID
	}
	return 0
}
