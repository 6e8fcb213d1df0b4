package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/plutocart/user-service/api/middleware"
	"github.com/plutocart/user-service/api/responses"
	"github.com/plutocart/user-service/api/validators"
	"github.com/plutocart/user-service/internal/auth"
	"github.com/plutocart/user-service/pkg/config"
	pkgerrors "github.com/plutocart/user-service/pkg/errors"
	"github.com/plutocart/user-service/pkg/logger"
)

const authTokenHeader = "X-Auth-Token"

// UserRegister creates an account and returns it together with a token pair.
func UserRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(w, r, logg, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(w, r, logg, err)
			return
		}

		result, err := svc.Register(r.Context(), body)
		if err != nil {
			responses.WriteError(w, r, logg, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// UserLogin verifies credentials. The refresh token is also set as a cookie
// and the access token is mirrored in the X-Auth-Token header.
func UserLogin(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(w, r, logg, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(w, r, logg, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			responses.WriteError(w, r, logg, err)
			return
		}

		http.SetCookie(w, refreshCookie(cfg, result.RefreshToken))
		w.Header().Set(authTokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// UserRefreshToken exchanges a refresh token, taken from the body or the cookie,
// for a new access token.
func UserRefreshToken(svc auth.Service, cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(w, r, logg, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var body auth.RefreshRequest
		if _, err := validators.DecodeOptionalJSONBody(r, &body); err != nil {
			responses.WriteError(w, r, logg, err)
			return
		}

		token := strings.TrimSpace(body.RefreshToken)
		if token == "" {
			if cookie, err := r.Cookie(cfg.Auth.RefreshCookieName); err == nil {
				token = strings.TrimSpace(cookie.Value)
			}
		}
		if token == "" {
			responses.WriteError(w, r, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing refresh token"))
			return
		}

		pair, err := svc.Refresh(r.Context(), token)
		if err != nil {
			responses.WriteError(w, r, logg, err)
			return
		}

		w.Header().Set(authTokenHeader, pair.AccessToken)
		responses.WriteSuccess(w, pair)
	}
}

// UserMe returns the profile of the authenticated user.
func UserMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(w, r, logg, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(w, r, logg, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context"))
			return
		}

		profile, err := svc.Profile(r.Context(), userID)
		if err != nil {
			responses.WriteError(w, r, logg, err)
			return
		}

		responses.WriteSuccess(w, profile)
	}
}

func refreshCookie(cfg *config.Config, token string) *http.Cookie {
	return &http.Cookie{
		Name:     cfg.Auth.RefreshCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(cfg.Auth.RefreshCookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Auth.RefreshCookieSecure || cfg.App.IsProd(),
		SameSite: sameSite(cfg.Auth.RefreshCookieSameSite),
	}
}

func sameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
