// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/danielhkuo/campus-ballot/apperr"
	"github.com/danielhkuo/campus-ballot/auth"
	"github.com/danielhkuo/campus-ballot/models"
)

type principalKey struct{}

// Authenticate requires a valid bearer token whose role is one of roles.
// With no roles, any authenticated principal is accepted.
func Authenticate(secret string, roles ...models.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				ErrorResponse(w, http.StatusUnauthorized, "Authorization bearer token required")
				return
			}

			p, err := auth.ParseToken(strings.TrimSpace(raw), secret)
			if err != nil {
				zap.L().Debug("rejected bearer token", zap.Error(err))
				ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			if len(roles) > 0 && !slices.Contains(roles, p.Role()) {
				WriteError(w, apperr.New(apperr.KindForbidden, "You do not have access to this resource"))
				return
			}

			next(w, WithPrincipal(r, p))
		}
	}
}

// WithPrincipal returns a copy of r carrying p
func WithPrincipal(r *http.Request, p auth.Principal) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), principalKey{}, p))
}

// PrincipalFrom returns the principal set by Authenticate
func PrincipalFrom(ctx context.Context) (auth.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(auth.Principal)
	return p, ok
}
