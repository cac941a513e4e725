package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	apiContext "synapselab/internal/api/context"
	"synapselab/internal/api/handlers"
	"synapselab/internal/api/middleware"
	"synapselab/internal/pkg/errors"
)

// RegisterPaths are the routes the checkout form has posted to over time.
var RegisterPaths = []string{"/api/register", "/api/cadastro", "/api/checkout"}

type Dependencies struct {
	RegisterHandler *handlers.RegisterHandler
	HealthHandler   *handlers.HealthHandler
	Metrics         *handlers.Metrics
	RateLimiter     *middleware.RateLimiter
}

func NewRouter(deps *Dependencies) http.Handler {
	router := httprouter.New()

	register := chain(deps.RegisterHandler.Handle, deps.RateLimiter.Handle)
	for _, path := range RegisterPaths {
		router.POST(path, register)
	}

	router.GET("/healthz", wrap(deps.HealthHandler.Live))
	router.GET("/readyz", wrap(deps.HealthHandler.Ready))
	router.Handler(http.MethodGet, "/metrics", deps.Metrics.Handler())

	// httprouter sets the Allow header before calling this.
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusMethodNotAllowed, errors.ErrCodeMethodNotAllowed, "Método não permitido", nil)
	})
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Recurso não encontrado", nil)
	})
	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v interface{}) {
		zerolog.Ctx(r.Context()).Error().Interface("panic", v).Msg("Handler panicked")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Erro interno", nil)
	}

	return middleware.RequestLogger(router)
}

// chain applies middlewares so the first one listed runs first.
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// wrap adapts an http.HandlerFunc to httprouter, exposing route params
// through the request context.
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}
