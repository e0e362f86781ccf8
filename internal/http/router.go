package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/go-auth-service/internal/auth"
	"github.com/redmonkez12/go-auth-service/internal/config"
	"github.com/redmonkez12/go-auth-service/internal/httputil"
	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/metrics"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	authMiddleware *auth.Middleware,
	m *metrics.Metrics,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(corsOptions(cfg.Server.TrustedOrigins)))
	}

	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(m.Middleware)
	r.Use(middleware.Compress(5))

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleMethodNotAllowed)

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)

	// Metrics - on by default only in development
	if cfg.Server.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	// Swagger UI - only in development
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled", "path", "/swagger/index.html")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	} else {
		logger.Debug("swagger UI disabled outside development")
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/me", authHandler.Me)
		})
	})

	return r
}

// corsOptions allows credentials only for explicit origins; browsers reject credentials with "*"
func corsOptions(origins []string) cors.Options {
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "WWW-Authenticate"},
		AllowCredentials: allowCredentials,
		MaxAge:           300, // 5 minutes
	}
}

// handleRoot greets callers
// @Summary      Service greeting
// @Tags         health
// @Produce      json
// @Success      200 {object} httputil.MessageResponse
// @Router       / [get]
func handleRoot(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondMessage(w, "Auth service is running. See /auth/register and /auth/login.", http.StatusOK)
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondErrorWithCode(w, "not found", httputil.CodeNotFound, http.StatusNotFound)
}

func handleMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	httputil.RespondErrorWithCode(w, "method not allowed", httputil.CodeMethodNotAllowed, http.StatusMethodNotAllowed)
}
