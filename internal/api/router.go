package api

import (
	"net/http"

	_ "github.com/AlexZinkM/pump-desk/docs"
	"github.com/AlexZinkM/pump-desk/internal/auth"
	"github.com/AlexZinkM/pump-desk/internal/handler"
	"github.com/AlexZinkM/pump-desk/internal/proxy"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Handlers groups everything the desk router serves
type Handlers struct {
	Wallets  *handler.WalletHandler
	Flows    *handler.FlowHandler
	Desk     *handler.DeskHandler
	Sessions *auth.Sessions
}

// SetupRouter sets up the desk API router with handlers
func SetupRouter(h Handlers, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()

	// Swagger UI
	mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	// Auth
	mux.HandleFunc("/auth/login", h.Desk.Login)
	mux.HandleFunc("/auth/logout", h.Desk.Logout)

	// Wallets
	mux.HandleFunc("/wallets", h.Wallets.Wallets)
	mux.HandleFunc("/wallets/import", h.Wallets.Import)
	mux.HandleFunc("/wallets/import-batch", h.Wallets.ImportBatch)
	mux.HandleFunc("/wallets/balances", h.Wallets.Balances)
	mux.HandleFunc("/wallets/{id}", h.Wallets.Wallet)
	mux.HandleFunc("/wallets/{id}/export", h.Wallets.Export)

	// Flows
	mux.HandleFunc("/trade", h.Flows.Trade)
	mux.HandleFunc("/launch", h.Flows.Launch)
	mux.HandleFunc("/bundle", h.Flows.Bundle)
	mux.HandleFunc("/groups/{id}/{action}", h.Flows.Group)

	// Settings and activity
	mux.HandleFunc("/settings", h.Desk.Settings)
	mux.HandleFunc("/logs", h.Desk.Logs)
	mux.HandleFunc("/toasts", h.Desk.Toasts)
	mux.HandleFunc("/toasts/{id}", h.Desk.DismissToast)
	mux.HandleFunc("/history", h.Desk.History)

	protected := h.Sessions.Middleware(mux, "/auth/login", "/swagger/")
	return withCORS(protected, allowedOrigins, http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)
}

// SetupProxyRouter sets up the relay router
func SetupProxyRouter(relay *proxy.Relay, allowedOrigins []string) http.Handler {
	mux := http.NewServeMux()
	relay.Register(mux)
	return withCORS(mux, allowedOrigins, http.MethodPost, http.MethodOptions)
}

func withCORS(next http.Handler, allowedOrigins []string, methods ...string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   methods,
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(next)
}
