package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"github.com/georgemunganga/rochak-pos/internal/config"
	"github.com/georgemunganga/rochak-pos/internal/modules/auth"
	"github.com/georgemunganga/rochak-pos/internal/modules/cart"
	"github.com/georgemunganga/rochak-pos/internal/modules/cashier"
	"github.com/georgemunganga/rochak-pos/internal/modules/catalog"
	"github.com/georgemunganga/rochak-pos/internal/modules/fonepay"
	"github.com/georgemunganga/rochak-pos/internal/modules/invoice"
	"github.com/georgemunganga/rochak-pos/internal/modules/payment"
	"github.com/georgemunganga/rochak-pos/internal/platform/database"
	"github.com/georgemunganga/rochak-pos/internal/platform/logging"
	"github.com/georgemunganga/rochak-pos/internal/platform/shutdown"
)

func main() {
	// The till UI expects amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		logging.New("info").Error("load config", "error", err)
		os.Exit(1)
	}
	log := logging.New(cfg.App.LogLevel)

	ctx, stop := shutdown.WithSignals(context.Background())
	defer stop()

	db, err := database.Open(ctx, cfg.Database.URL)
	if err != nil {
		log.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Error("prepare schema", "error", err)
		os.Exit(1)
	}
	log.Info("connected to the database")

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  logging.StdLogger(log),
		NoColor: true,
	}))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// ── Cashiers & Auth ─────────────────────────────────────
	cashierRepo := cashier.NewPostgresRepository(db)
	cashierService := cashier.NewService(cashierRepo, log)
	if err := cashierService.Seed(ctx, cfg.Cashiers); err != nil {
		log.Error("seed cashiers", "error", err)
		os.Exit(1)
	}
	authService := auth.NewService(cashierRepo, cfg.JWT.Secret, cfg.JWT.Expiry)

	// ── Catalog ─────────────────────────────────────────────
	var catalogRepo catalog.Repository = catalog.NewPostgresRepository(db)
	if cfg.Cache.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			log.Error("parse redis url", "error", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, catalog reads go to the database", "error", err)
		}
		catalogRepo = catalog.NewCachedRepository(catalogRepo, catalog.NewRedisStore(rdb), cfg.Cache.CatalogTTL, log)
	}
	catalogService := catalog.NewService(catalogRepo)

	// ── Bills, Payments & Invoices ──────────────────────────
	billStore := cart.NewStore()
	cartService := cart.NewService(billStore, catalogService)

	poller := payment.NewPoller(cfg.Gateway.PollInterval)
	defer poller.Close()
	gateway := payment.NewHTTPGateway(cfg.Gateway.BaseURL, cfg.Gateway.Timeout, cfg.Gateway.RequestsPerSec)
	paymentService := payment.NewService(cartService, gateway, poller, log)
	// A cleared bill abandons its QR attempt.
	cartService.OnClear(paymentService.Clear)

	renderer := invoice.NewRenderer(invoice.Template{
		BusinessName:   cfg.Invoice.BusinessName,
		Address:        cfg.Invoice.Address,
		Contact:        cfg.Invoice.Contact,
		TaxID:          cfg.Invoice.TaxID,
		Footer:         cfg.Invoice.Footer,
		CurrencySymbol: cfg.Invoice.CurrencySymbol,
		RowsPerPage:    cfg.Invoice.RowsPerPage,
		Location:       cfg.App.Timezone,
		Compress:       true,
	})
	invoiceRepo := invoice.NewPostgresRepository(db)
	invoiceService := invoice.NewService(invoiceRepo, cartService, paymentService, renderer, cfg.App.Timezone, log)

	// A paid QR settles the bill without waiting for the cashier.
	paymentService.OnPaid(func(a payment.Attempt) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		inv, err := invoiceService.CompleteOnline(ctx, a)
		if err != nil {
			log.Warn("auto checkout after qr payment failed", "bill_id", a.BillID, "error", err)
			return
		}
		log.Info("bill settled by qr payment", "bill_id", a.BillID, "invoice_number", inv.Number)
	})

	// ── Public routes ───────────────────────────────────────
	auth.NewHandler(authService).RegisterRoutes(router)
	catalogHandler := catalog.NewHandler(catalogService)
	catalogHandler.RegisterRoutes(router)
	invoiceHandler := invoice.NewHandler(invoiceService)
	invoiceHandler.RegisterPublicRoutes(router)
	if cfg.Gateway.BotToken == "" {
		log.Warn("FONEPAY_BOT_TOKEN is not set, the payment portal bot cannot connect")
	}
	fonepay.NewBridge(paymentService, cfg.Gateway.BotToken, log).RegisterRoutes(router)

	// ── Cashier routes ──────────────────────────────────────
	router.Group(func(r chi.Router) {
		r.Use(auth.RequireCashier(authService))
		r.Use(middleware.Timeout(30 * time.Second))
		cashier.NewHandler(cashierService, auth.CashierFromRequest).RegisterRoutes(r)
		catalogHandler.RegisterCashierRoutes(r)
		cart.NewHandler(cartService).RegisterRoutes(r)
		payment.NewHandler(paymentService).RegisterRoutes(r)
		invoiceHandler.RegisterRoutes(r)
	})

	// ── Start Server ────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("rochak pos api starting", "port", cfg.App.Port, "env", cfg.App.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "error", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown", "error", err)
		}
	}
}
