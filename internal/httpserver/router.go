// Package httpserver wires spec.md §6's fixed HTTP surface onto chi,
// grounded on the teacher's router.go composition: CORS middleware,
// SecurityHeaders, a RateLimiter, route groups gated by WithAuth.
// Every admin/KYC/referral/Telegram/volatility/market-data route the
// teacher carried is dropped — none of it is in scope here.
package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"exchangecore/internal/auth"
	"exchangecore/internal/feed"
	"exchangecore/internal/health"
	"exchangecore/internal/ledger"
	"exchangecore/internal/loans"
	"exchangecore/internal/orders"
	"exchangecore/internal/portfolio"
	"exchangecore/internal/sessions"
	"exchangecore/internal/ticker"
)

type RouterDeps struct {
	AuthHandler      *auth.Handler
	TickerHandler    *ticker.Handler
	PortfolioHandler *portfolio.Handler
	LedgerHandler    *ledger.Handler
	OrderHandler     *orders.Handler
	LoanHandler      *loans.Handler
	HealthHandler    *health.Handler
	FeedHandler      *feed.Handler
	Sessions         *sessions.Store
	RateLimiter      *RateLimiter
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				origin = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Use(SecurityHeaders)
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware)
	}

	r.Get("/health", d.HealthHandler.Get)
	r.Get("/health/live", d.HealthHandler.Live)
	r.Get("/health/ready", d.HealthHandler.Ready)

	r.Get("/tickers/{symbol}", d.TickerHandler.Get)

	r.Post("/auth/login", d.AuthHandler.Login)
	r.Get("/auth/callback", d.AuthHandler.Callback)

	if d.FeedHandler != nil {
		r.Get("/feed", d.FeedHandler.ServeHTTP)
	}

	r.Group(func(r chi.Router) {
		r.Use(WithAuth(d.Sessions))

		r.Get("/portfolio", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.PortfolioHandler.Get(w, r, userID)
		})

		r.Get("/account", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.LedgerHandler.Get(w, r, userID)
		})
		r.Post("/account/withdrawals", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.LedgerHandler.Withdraw(w, r, userID)
		})
		r.Post("/account/deposits", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.LedgerHandler.Deposit(w, r, userID)
		})
		r.Get("/account/transactions", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.LedgerHandler.Transactions(w, r, userID)
		})

		r.Get("/orders", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.OrderHandler.List(w, r, userID)
		})
		r.Post("/orders", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.OrderHandler.Place(w, r, userID)
		})
		r.Get("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.OrderHandler.Get(w, r, userID)
		})
		r.Delete("/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.OrderHandler.Cancel(w, r, userID)
		})

		r.Post("/loans/{type}", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.LoanHandler.Request(w, r, userID)
		})
		r.Get("/loans", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.LoanHandler.Get(w, r, userID)
		})
		r.Post("/loans/repayments", func(w http.ResponseWriter, r *http.Request) {
			userID, _ := UserID(r)
			d.LoanHandler.Repay(w, r, userID)
		})
	})

	return r
}
