package middleware

import (
	"errors"
	"net/http"

	"github.com/angelmondragon/costumerental-backend/api/responses"
	"github.com/angelmondragon/costumerental-backend/api/validators"
	pkgAuth "github.com/angelmondragon/costumerental-backend/pkg/auth"
	"github.com/angelmondragon/costumerental-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/costumerental-backend/pkg/errors"
	"github.com/angelmondragon/costumerental-backend/pkg/logger"
)

// Auth validates a staff bearer token and seeds the request context with the
// staff identity.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "token expired"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			staffID := claims.StaffID.String()
			ctx := WithStaff(r.Context(), staffID, claims.StaffName, claims.Role)
			if logg != nil {
				ctx = logg.WithStaffID(ctx, staffID)
				ctx = logg.WithField(ctx, "staff_role", string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
