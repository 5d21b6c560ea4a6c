package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/auctionroom-go/internal/api/handler"
	"github.com/mcoot/auctionroom-go/internal/middleware"
	"github.com/mcoot/auctionroom-go/internal/services/auction"
	"github.com/mcoot/auctionroom-go/internal/services/directory"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	Gateway         http.Handler
	AuctionRegistry *auction.Registry
	Directory       *directory.Service
}

// NewRouter creates a new router with all routes configured. The websocket
// endpoint shares the middleware chain with the REST routes; the logging
// wrapper supports hijacking so the upgrade passes through.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	auctionHandler := handler.NewAuctionHandler(cfg.AuctionRegistry, cfg.Directory)

	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger, middleware.DefaultPanicHandler)

	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)

	r.Handle("/ws", cfg.Gateway)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/auctions/{id}", auctionHandler.Get).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
