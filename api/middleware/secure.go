package middleware

import (
	"net/http"

	"github.com/unrolled/secure"

	"github.com/plutocart/user-service/pkg/config"
)

const stsOneYear = 365 * 24 * 60 * 60

// SecureHeaders sets the browser hardening headers for a JSON API. HSTS is
// only sent outside dev.
func SecureHeaders(app config.AppConfig) func(http.Handler) http.Handler {
	return secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		STSSeconds:            stsOneYear,
		STSIncludeSubdomains:  true,
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:         app.IsDev(),
	}).Handler
}
