package middleware

import (
	"errors"
	"net/http"

	"github.com/plutocart/user-service/api/responses"
	"github.com/plutocart/user-service/api/validators"
	pkgAuth "github.com/plutocart/user-service/pkg/auth"
	pkgerrors "github.com/plutocart/user-service/pkg/errors"
	"github.com/plutocart/user-service/pkg/logger"
)

// AccessValidator verifies access tokens.
type AccessValidator interface {
	ValidateAccess(token string) (*pkgAuth.Claims, error)
}

// Auth validates a bearer access token and seeds the request context with its claims.
func Auth(tokens AccessValidator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.ParseBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(w, r, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := tokens.ValidateAccess(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "token expired"
				}
				responses.WriteError(w, r, logg, pkgerrors.Wrap(pkgerrors.CodeInvalidToken, err, msg))
				return
			}

			ctx := WithUserID(r.Context(), claims.UserID)
			ctx = WithEmail(ctx, claims.Email)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
