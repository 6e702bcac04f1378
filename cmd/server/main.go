package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/artisanally/internal/analysis"
	"github.com/Simplici0/artisanally/internal/auth"
	"github.com/Simplici0/artisanally/internal/config"
	"github.com/Simplici0/artisanally/internal/db"
	"github.com/Simplici0/artisanally/internal/logger"
	"github.com/Simplici0/artisanally/internal/marketplace"
	"github.com/Simplici0/artisanally/internal/metrics"
	"github.com/Simplici0/artisanally/internal/migrations"
	"github.com/Simplici0/artisanally/internal/pricing"
	"github.com/Simplici0/artisanally/internal/seed"
	"github.com/Simplici0/artisanally/internal/workshop"
)

const shutdownTimeout = 5 * time.Second

type server struct {
	auth     *auth.Service
	analysis *analysis.Service
	history  *analysis.History
	workshop *workshop.Store
	log      *slog.Logger

	metricsEnabled bool
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("").Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)
	slog.SetDefault(log)
	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		log.Warn("config: " + w)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := migrations.Up(database); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}
	log.Info("migrations applied", "db", cfg.DBPath)

	stats, err := seed.Run(database, seed.Config{
		AdminEmail:    cfg.AdminEmail,
		AdminPassword: cfg.AdminPassword,
		Demo:          cfg.IsDev(),
	})
	if err != nil {
		return fmt.Errorf("seed database: %w", err)
	}
	log.Info("seed complete", "inserts", stats.Inserts)

	s := newServer(cfg, database, newMarketplace(cfg), log)
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.ListenAndServe()
	}()
	log.Info("listening", "addr", httpSrv.Addr, "env", cfg.Env)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("graceful shutdown complete")
	return nil
}

func newMarketplace(cfg config.Config) marketplace.Client {
	var client marketplace.Client = marketplace.Offline{}
	if cfg.EbayAppToken != "" {
		client = marketplace.NewEbay(marketplace.EbayConfig{
			BaseURL:     cfg.EbayBaseURL,
			AppToken:    cfg.EbayAppToken,
			Marketplace: cfg.EbayMarketplace,
		})
	}
	return marketplace.NewCached(client, cfg.SearchCacheTTL)
}

func newServer(cfg config.Config, database *sql.DB, market marketplace.Client, log *slog.Logger) *server {
	history := analysis.NewHistory(database)
	return &server{
		auth: auth.New(database, cfg.SessionSecret),
		analysis: analysis.NewService(market, analysis.Options{
			Fees: pricing.Fees{
				Percent:  cfg.PlatformFeePercent,
				Fixed:    cfg.PlatformFixedFee,
				Shipping: cfg.ShippingCost,
			},
			PremiumPercent: cfg.PremiumPercent,
			Marketplace:    cfg.EbayMarketplace,
			History:        history,
			Logger:         log,
		}),
		history:        history,
		workshop:       workshop.NewStore(database),
		log:            log,
		metricsEnabled: cfg.MetricsEnabled,
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	if s.metricsEnabled {
		r.Handle("/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(s.withUser)

		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/analyse", s.handleAnalyse)
		r.Get("/related-items/{id}", s.handleRelatedItems)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)

			r.Get("/session", s.handleSession)
			r.Put("/session", s.handleSettings)
			r.Get("/workshop", s.handleWorkshop)
			r.Get("/workshop/export", s.handleWorkshopExport)
			r.Post("/materials", s.handleMaterialCreate)
			r.Put("/materials/{id}", s.handleMaterialUpdate)
			r.Delete("/materials/{id}", s.handleMaterialDelete)
			r.Post("/products", s.handleProductCreate)
			r.Put("/products/{id}", s.handleProductUpdate)
			r.Delete("/products/{id}", s.handleProductDelete)
			r.Get("/analyses", s.handleAnalysesList)
		})
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
