package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/plutocart/user-service/api/controllers"
	"github.com/plutocart/user-service/api/middleware"
	"github.com/plutocart/user-service/internal/auth"
	"github.com/plutocart/user-service/pkg/config"
	"github.com/plutocart/user-service/pkg/logger"
	"github.com/plutocart/user-service/pkg/metrics"
)

// NewRouter wires the public HTTP surface. redisPinger may be nil when the
// registration guard is disabled.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	registry *metrics.Registry,
	dbPinger controllers.Pinger,
	redisPinger controllers.Pinger,
	tokens middleware.AccessValidator,
	authService auth.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Recoverer(logg),
		middleware.SecureHeaders(cfg.App),
		middleware.CORS(cfg.CORS),
	)
	if registry != nil {
		r.Use(registry.Middleware)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbPinger,
			"redis": redisPinger,
		}))
	})

	r.Method(http.MethodGet, "/metrics", registry.Handler())

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", controllers.UserRegister(authService, logg))
		r.Post("/login", controllers.UserLogin(authService, cfg, logg))
		r.Post("/refresh-token", controllers.UserRefreshToken(authService, cfg, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens, logg))
			r.Get("/me", controllers.UserMe(authService, logg))
		})
	})

	return r
}
