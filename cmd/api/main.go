package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"exchangecore/internal/auth"
	"exchangecore/internal/book"
	"exchangecore/internal/bootstrap"
	"exchangecore/internal/config"
	"exchangecore/internal/db"
	"exchangecore/internal/feed"
	"exchangecore/internal/health"
	"exchangecore/internal/httpserver"
	"exchangecore/internal/ledger"
	"exchangecore/internal/loans"
	"exchangecore/internal/matching"
	"exchangecore/internal/marketmaker"
	"exchangecore/internal/orders"
	"exchangecore/internal/portfolio"
	"exchangecore/internal/sessions"
	"exchangecore/internal/ticker"
	"exchangecore/internal/txlog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	oracle := ticker.New(pool, cfg.MockTicker)
	feedBus := feed.NewBus()

	ledgerSvc := ledger.New(pool)
	portfolioSvc := portfolio.New(pool, oracle)
	loanSvc := loans.New(pool, ledgerSvc)
	books := book.NewBooks()
	orderSvc := orders.New(pool, books, ledgerSvc, portfolioSvc, oracle)
	txlogSvc := txlog.New(pool)
	sessionsStore := sessions.NewStore(pool)
	authSvc := auth.NewService(pool, sessionsStore, cfg.JWTIssuer, []byte(cfg.JWTSecret))

	matchEngine := matching.New(books, orderSvc, ledgerSvc, portfolioSvc, txlogSvc, feedBus, cfg.MatchInterval)
	maker := marketmaker.New(cfg.MarketMakerUserID, bootstrap.AcceptableSymbols, oracle, orderSvc, feedBus, cfg.MarketMakerInterval)
	coordinator := bootstrap.New(pool, ledgerSvc, portfolioSvc, orderSvc, books, matchEngine, maker, cfg.MarketMakerUserID)

	appCtx, cancelApp := context.WithCancel(ctx)
	defer cancelApp()

	// Run's own setup queries share appCtx; the matching and
	// market-maker loops it spawns keep running under appCtx for the
	// life of the process.
	if err := coordinator.Run(appCtx); err != nil {
		log.Fatal(err)
	}

	rateLimiter := httpserver.NewRateLimiter(appCtx, cfg.RateLimitRPS, cfg.RateLimitBurst)

	startedAt := time.Now()
	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:      auth.NewHandler(authSvc, cfg.FrontendURL),
		TickerHandler:    ticker.NewHandler(oracle),
		PortfolioHandler: portfolio.NewHandler(portfolioSvc),
		LedgerHandler:    ledger.NewHandler(ledgerSvc, txlogSvc),
		OrderHandler:     orders.NewHandler(orderSvc),
		LoanHandler:      loans.NewHandler(loanSvc),
		HealthHandler:    health.NewHandler(pool, startedAt),
		FeedHandler:      feed.NewHandler(feedBus, cfg.FrontendURL),
		Sessions:         sessionsStore,
		RateLimiter:      rateLimiter,
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	log.Printf("server listening on %s", cfg.HTTPAddr)
	log.Printf("health endpoint: http://localhost%s/health", cfg.HTTPAddr)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancelApp()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
