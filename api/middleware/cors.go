package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/plutocart/user-service/pkg/config"
)

// CORS applies the configured origin policy. Credentials are allowed so
// browsers send the refresh cookie back to /api/users/refresh-token.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id", "X-Requested-With"},
		ExposedHeaders:   []string{authTokenHeader, requestIDHeader},
		AllowCredentials: true,
		MaxAge:           int(cfg.MaxAge.Seconds()),
	}).Handler
}
