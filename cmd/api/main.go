package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/triply/tripledger/docs"
	"github.com/triply/tripledger/internal/config"
	"github.com/triply/tripledger/internal/database"
	"github.com/triply/tripledger/internal/events"
	"github.com/triply/tripledger/internal/expense"
	"github.com/triply/tripledger/internal/expense/split"
	"github.com/triply/tripledger/internal/metrics"
	"github.com/triply/tripledger/internal/policy"
	"github.com/triply/tripledger/internal/settlement"
	"github.com/triply/tripledger/internal/trip"
	"github.com/triply/tripledger/internal/wallet"
	"github.com/triply/tripledger/pkg/logging"
	mw "github.com/triply/tripledger/pkg/middleware"
)

// @title           Trip Ledger API
// @version         1.0
// @description     Shared trip expense ledger with balance netting and two-party settlement confirmation.
// @BasePath        /api/v1
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logging.Setup()
	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	slog.Info("connected to database")

	// External collaborators: the broadcaster and the trust scorer live
	// outside this service; log-backed stand-ins until they are wired up.
	emitter := events.NewLogEmitter()
	trust := events.NewLogTrustAwarder()

	splitFactory := split.NewFactory()

	// Trip feature (roster + roles)
	tripRepo := trip.NewRepository(db)
	tripService := trip.NewService(tripRepo)
	tripHandler := trip.NewHandler(tripService)

	authPolicy := policy.New(tripService.Roles())

	// Wallet feature
	walletRepo := wallet.NewRepository(db)
	walletService := wallet.NewService(walletRepo, tripRepo, authPolicy)
	walletHandler := wallet.NewHandler(walletService)

	// Expense feature (with split factory injected)
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, walletRepo, tripRepo, authPolicy, splitFactory, emitter)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	grace := time.Duration(cfg.SettlementGraceDays) * 24 * time.Hour
	settlementRepo := settlement.NewRepository(db)
	settlementService := settlement.NewService(settlementRepo, tripRepo, walletRepo, expenseRepo, authPolicy, emitter, trust, grace)
	settlementHandler := settlement.NewHandler(settlementService)

	auth := mw.NewAuthenticator(cfg.JWTSecret)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Test-User-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.TestUserMiddleware)
		r.Use(auth.Middleware)

		r.Mount("/trips", tripHandler.Routes())
		r.Mount("/wallets", walletHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/settlements", settlementHandler.Routes())
	})

	slog.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
