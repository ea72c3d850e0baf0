package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/kirotools/switchboard/internal/api/handlers"
	apimiddleware "github.com/kirotools/switchboard/internal/api/middleware"
	"github.com/kirotools/switchboard/internal/auth/kiro"
	"github.com/kirotools/switchboard/internal/db"
	"github.com/kirotools/switchboard/internal/refresh"
	"github.com/kirotools/switchboard/internal/store"
	"github.com/kirotools/switchboard/internal/switcher"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	dbPath := os.Getenv("SWITCHBOARD_DB")
	if dbPath == "" {
		dbPath = "switchboard.db"
	}
	database, err := db.InitDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	st := store.New(database)

	providerCfg, err := kiro.LoadConfig()
	if err != nil {
		log.Printf("⚠️ Provider config load failed, using defaults: %v", err)
	}
	provider := kiro.New(providerCfg)

	// Background auto-refresh
	coordinator := refresh.NewCoordinator(st, provider)
	scheduler := refresh.NewScheduler(st, coordinator, refresh.NewRealClock())
	scheduler.Start()

	orchestrator := switcher.New(st, provider)

	// Create router
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.RequestID)

	r.Get("/version", handlers.VersionHandler())

	// Admin API (protected by the generated API key)
	r.Route("/api", func(r chi.Router) {
		r.Use(apimiddleware.APIKeyAuth(database))

		// Account pool
		r.Get("/accounts", handlers.AccountsHandler(st))
		r.Get("/accounts/best", handlers.BestAccountsHandler(st, provider))
		r.Post("/accounts/{id}/refresh", handlers.RefreshAccountHandler(st, provider))
		r.Post("/accounts/{id}/usage", handlers.UsageHandler(st, provider))
		r.Post("/accounts/{id}/switch", handlers.SwitchHandler(st, orchestrator))
		r.Get("/accounts/{id}/binding", handlers.MachineBindingHandler(st))

		// Refresh pass (login-success hook and manual trigger)
		r.Post("/refresh", handlers.RefreshNowHandler(scheduler))

		// Settings; updates restart the scheduler
		r.Get("/settings", handlers.SettingsHandler(st))
		r.Put("/settings", handlers.UpdateSettingsHandler(st, scheduler))

		// Active local identity
		r.Get("/local-token", handlers.LocalTokenHandler(st, provider))
	})

	host := os.Getenv("HOST")
	if host == "" {
		host = "127.0.0.1" // Default to localhost, set HOST=0.0.0.0 for LAN access
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8090"
	}
	addr := host + ":" + port

	log.Printf("🚀 Kiro Switchboard starting on http://%s", addr)
	log.Printf("📊 Admin API: http://%s/api", addr)

	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
