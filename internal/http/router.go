package http

import (
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/skytecs/hermes/internal/http/fiscal"
	"github.com/skytecs/hermes/internal/http/labels"
)

type Options struct {
	Password string
	// AllowedOrigins enables CORS when not empty. Credentials are allowed
	// only for explicitly listed origins.
	AllowedOrigins []string
}

func New(
	opts Options,
	fiscalV2 *fiscal.Handler,
	labelsH *labels.Handler,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// An empty origin list would let the cors middleware allow everyone.
	if len(opts.AllowedOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: !slices.Contains(opts.AllowedOrigins, "*"),
			MaxAge:           300,
		}))
	}

	router.Use(BasicAuth(opts.Password))

	router.Route("/api", func(r chi.Router) {
		r.Route("/v2", fiscalV2.Routes)
		labelsH.Routes(r)
	})

	return router
}
