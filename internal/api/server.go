// Package api exposes the services over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"defi-hub/internal/advert"
	"defi-hub/internal/auth"
	"defi-hub/internal/chain"
	"defi-hub/internal/market"
	"defi-hub/internal/notification"
	"defi-hub/internal/observability"
	"defi-hub/internal/ratelimit"
	"defi-hub/internal/referral"
	"defi-hub/internal/spotlight"
	"defi-hub/internal/staking"
	"defi-hub/internal/tokens"
	"defi-hub/internal/wallet"
)

// Services are the dependencies of the router. Limiter may be nil to
// disable rate limiting.
type Services struct {
	Registry      *chain.Registry
	Tokens        *tokens.Service
	Markets       *market.Resolver
	Wallets       *wallet.Table
	Balances      *wallet.BalanceService
	Spotlight     *spotlight.Service
	Staking       *staking.Service
	Referrals     *referral.Service
	Notifications *notification.Service
	Adverts       *advert.Service
	Auth          *auth.Issuer
	Limiter       ratelimit.Limiter

	RequestTimeout time.Duration
}

type handler struct {
	Services
	now func() time.Time
}

// NewRouter builds the HTTP handler with every route mounted.
func NewRouter(s Services) http.Handler {
	if s.RequestTimeout <= 0 {
		s.RequestTimeout = 30 * time.Second
	}
	h := &handler{Services: s, now: time.Now}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics)
	r.Use(middleware.Timeout(s.RequestTimeout))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.Get("/health", h.health)
	r.Handle("/metrics", observability.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if s.Limiter != nil {
			r.Use(ratelimit.Middleware(s.Limiter))
		}
		admin := s.Auth.RequireAdmin

		r.Get("/chains", h.listChains)
		r.Get("/tokens", h.searchTokens)

		r.Get("/markets", h.listMarkets)
		r.Get("/market/{pair}", h.getMarket)
		r.Get("/market/{pair}/history", h.marketHistory)

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/validate", h.validateAddress)
			r.Post("/detect", h.detectWallets)
			r.Get("/compatibility", h.walletCompatibility)
			r.Get("/balances", h.walletBalances)
		})

		r.Route("/staking-pools", func(r chi.Router) {
			r.Get("/", h.listStakingPools)
			r.Get("/{id}", h.getStakingPool)
			r.With(admin).Post("/", h.createStakingPool)
			r.With(admin).Put("/{id}", h.updateStakingPool)
			r.With(admin).Delete("/{id}", h.deleteStakingPool)
		})

		r.Route("/referrals", func(r chi.Router) {
			r.Get("/", h.referralStats)
			r.Get("/referees", h.listReferees)
			r.Get("/leaderboard", h.referralLeaderboard)
			r.Post("/code", h.referralCode)
			r.Post("/apply", h.applyReferral)
			r.With(admin).Post("/volume", h.recordReferralVolume)
		})

		r.Route("/token-spotlight", func(r chi.Router) {
			r.Get("/", h.listActiveSpotlight)
			r.With(admin).Get("/all", h.listAllSpotlight)
			r.With(admin).Post("/", h.createSpotlight)
			r.With(admin).Put("/{id}", h.updateSpotlight)
			r.With(admin).Delete("/{id}", h.deleteSpotlight)
		})

		r.Route("/adverts", func(r chi.Router) {
			r.Get("/", h.listActiveAdverts)
			r.With(admin).Get("/all", h.listAllAdverts)
			r.Get("/{id}", h.getAdvert)
			r.Post("/{id}/impression", h.advertImpression)
			r.Post("/{id}/click", h.advertClick)
			r.With(admin).Post("/", h.createAdvert)
			r.With(admin).Put("/{id}", h.updateAdvert)
			r.With(admin).Delete("/{id}", h.deleteAdvert)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", h.listNotifications)
			r.Get("/unread-count", h.unreadNotifications)
			r.Post("/read-all", h.markAllNotificationsRead)
			r.Post("/{id}/read", h.markNotificationRead)
			r.With(admin).Post("/", h.createNotification)
		})
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
