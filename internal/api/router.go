package api

import (
	"net/http"

	"github.com/AlexZinkM/flow-wallet/internal/handler"
	"github.com/AlexZinkM/flow-wallet/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRouter sets up router with handlers
func SetupRouter(flows *handler.FlowHandler, wallet *handler.WalletHandler, log *logger.Logger) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(handler.WithLogging(log))

	// Swagger UI
	router.Get("/swagger/*", httpSwagger.WrapHandler)

	// Flow endpoints
	router.Route("/flows", func(r chi.Router) {
		r.Post("/", flows.Start)
		r.Post("/resume", flows.Resume)
		r.Get("/{id}", flows.Get)
		r.Post("/{id}/retry", flows.Retry)
		r.Post("/{id}/cancel", flows.Cancel)
		r.Get("/{id}/events", flows.Events)
	})

	// Wallet endpoints
	router.Route("/wallet", func(r chi.Router) {
		r.Get("/", wallet.Get)
		r.Post("/generate", wallet.Generate)
		r.Post("/token-accounts", wallet.TokenAccount)
	})

	return router
}
