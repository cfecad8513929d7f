package api

import (
	"log/slog"
	"net/http"
	"time"

	"corebank/internal/api/handler"
	mw "corebank/internal/api/middleware"
	"corebank/internal/config"
	"corebank/internal/domain/account"
	"corebank/internal/domain/customer"
	"corebank/internal/domain/loan"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type Services struct {
	Customer customer.Service
	Ledger   account.Service
	Loan     loan.Service
}

func SetupRouter(svcs Services, cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(router, cfg, redisClient, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupAuthRoutes(router, cfg, logger)
	setupCustomerRoutes(router, cfg, svcs.Customer, logger)
	setupAccountRoutes(router, cfg, svcs.Ledger, logger)
	setupLoanRoutes(router, cfg, svcs.Loan, logger)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	return router
}

func setupMiddleware(router *chi.Mux, cfg *config.Config, redisClient *redis.Client, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, redisClient, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupAuthRoutes(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	authHandler := handler.NewAuthHandler(*cfg, logger)
	router.Route("/auth", func(r chi.Router) {
		r.Post("/token", authHandler.GenerateBearerToken)
	})
}

func setupCustomerRoutes(router *chi.Mux, cfg *config.Config, svc customer.Service, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, logger)

	router.Route("/customers", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.RegisterCustomer)
		r.Post("/verify", h.VerifyCustomer)
		r.Get("/{customerID}", h.GetCustomer)
	})
}

func setupAccountRoutes(router *chi.Mux, cfg *config.Config, svc account.Service, logger *slog.Logger) {
	h := handler.NewAccountHandler(svc, logger)

	router.Route("/accounts", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/number/{accountNumber}", h.GetAccountByNumber)
		r.Route("/{accountID}", func(r chi.Router) {
			r.Get("/", h.GetAccount)
			r.Post("/credit", h.Credit)
			r.Post("/debit", h.Debit)
		})
	})

	router.Route("/customers/{customerID}/account", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", h.GetAccountByCustomer)
	})
}

func setupLoanRoutes(router *chi.Mux, cfg *config.Config, svc loan.Service, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, logger)

	router.Route("/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Post("/", h.ApplyForLoan)
		r.Get("/{loanID}", h.GetLoan)
	})

	router.Route("/accounts/{accountID}/loans", func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		r.Get("/", h.GetLoansByAccount)
	})
}
