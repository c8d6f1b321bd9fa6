package web

import (
	"context"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mygads/genfity-order-main-sub015/internal/infra/logging"
	red "github.com/mygads/genfity-order-main-sub015/internal/infra/redis"
	"github.com/mygads/genfity-order-main-sub015/internal/usecase"
)

type Server struct {
	subUC      *usecase.SubscriptionUseCase
	payUC      *usecase.PaymentRequestUseCase
	balanceUC  *usecase.BalanceUseCase
	sweepUC    *usecase.SweepUseCase
	notifUC    *usecase.NotificationUseCase
	storeUC    *usecase.StorefrontUseCase
	auth       *AuthManager
	limiter    *red.RateLimiter
	cronSecret string
	log        *zerolog.Logger
}

func NewServer(
	subUC *usecase.SubscriptionUseCase,
	payUC *usecase.PaymentRequestUseCase,
	balanceUC *usecase.BalanceUseCase,
	sweepUC *usecase.SweepUseCase,
	notifUC *usecase.NotificationUseCase,
	storeUC *usecase.StorefrontUseCase,
	auth *AuthManager,
	limiter *red.RateLimiter,
	cronSecret string,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		subUC:      subUC,
		payUC:      payUC,
		balanceUC:  balanceUC,
		sweepUC:    sweepUC,
		notifUC:    notifUC,
		storeUC:    storeUC,
		auth:       auth,
		limiter:    limiter,
		cronSecret: cronSecret,
		log:        logger,
	}
}

// RegisterRoutes sets up the routing for the billing API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Merchant dashboard routes sit behind the session middleware.
	subscription := s.sessionMiddleware(RoleMerchant, s.subscriptionRouter())
	mux.Handle("/subscription", subscription)
	mux.Handle("/subscription/", subscription)

	paymentRequests := s.sessionMiddleware(RoleMerchant, s.paymentRequestRouter())
	mux.Handle("/merchant/payment-request", paymentRequests)
	mux.Handle("/merchant/payment-request/", paymentRequests)

	mux.Handle("/merchant/balance", s.sessionMiddleware(RoleMerchant, balanceHandler(s.balanceUC)))

	// Order-charge hook for the ordering subsystem: per-order fees debited
	// from the deposit balance. Service-to-service, so it shares the secret
	// scheme with the cron endpoints.
	mux.Handle("/internal/orders/charge", s.cronMiddleware(chargeOrderHandler(s.balanceUC)))

	// Admin routes.
	adminMerchants := s.sessionMiddleware(RoleAdmin, s.adminMerchantsRouter())
	mux.Handle("/admin/merchants/", adminMerchants)

	adminRequests := s.sessionMiddleware(RoleAdmin, s.adminPaymentRequestsRouter())
	mux.Handle("/admin/payment-requests/", adminRequests)

	// Scheduler entry points: an external cron hits these with the shared
	// secret, never a session token.
	mux.Handle("/cron/subscriptions", s.cronMiddleware(sweepHandler(s.sweepUC, s.log)))
	mux.Handle("/cron/subscription-cleanup", s.cronMiddleware(cleanupHandler(s.sweepUC, s.log)))
	mux.Handle("/cron/notifications", s.cronMiddleware(dispatchHandler(s.notifUC, s.log)))

	// Public storefront lookup, rate limited per client.
	mux.Handle("/public/merchants/", s.rateLimitMiddleware(s.publicRouter()))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

type claimsKey struct{}

func claimsFrom(ctx context.Context) *SessionClaims {
	c, _ := ctx.Value(claimsKey{}).(*SessionClaims)
	return c
}

// sessionMiddleware authenticates the JWT session and enforces the required
// role. Admin sessions pass merchant-scoped routes too.
func (s *Server) sessionMiddleware(role string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing or invalid session")
			return
		}
		if claims.Role != role && claims.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "UNAUTHORIZED", "insufficient role")
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		if claims.Role == RoleMerchant {
			ctx = logging.WithMerchantID(ctx, claims.MerchantID())
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// cronMiddleware checks the shared scheduler secret. An unset secret locks the
// endpoints rather than opening them.
func (s *Server) cronMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		if s.cronSecret == "" {
			s.log.Error().Msg("cron secret is not configured")
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "cron secret not configured")
			return
		}
		hdr := r.Header.Get("Authorization")
		parts := strings.SplitN(hdr, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] != s.cronSecret {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid cron secret")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware applies a fixed window per client IP. Redis hiccups fail
// open: the lookup endpoint is read-only and cheap.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil {
			ip := r.RemoteAddr
			if i := strings.LastIndex(ip, ":"); i >= 0 {
				ip = ip[:i]
			}
			ok, err := s.limiter.Allow(r.Context(), red.RateKey("public-lookup", ip), publicLookupLimit, publicLookupWindow)
			if err == nil && !ok {
				writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) subscriptionRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/subscription")
		path = strings.Trim(path, "/")

		switch {
		case path == "" && r.Method == http.MethodGet:
			subscriptionOverviewHandler(s.subUC)(w, r)
		case path == "" && r.Method == http.MethodPut:
			manualSwitchHandler(s.subUC)(w, r)
		case path == "history" && r.Method == http.MethodGet:
			subscriptionHistoryHandler(s.subUC)(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
	})
}

func (s *Server) paymentRequestRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/merchant/payment-request")
		path = strings.Trim(path, "/")

		if path == "" {
			switch r.Method {
			case http.MethodPost:
				paymentRequestCreateHandler(s.payUC)(w, r)
			case http.MethodGet:
				paymentRequestListHandler(s.payUC)(w, r)
			default:
				writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			}
			return
		}

		// Route /merchant/payment-request/{id}[/cancel|/confirm]
		id, action, _ := strings.Cut(path, "/")
		switch {
		case action == "" && r.Method == http.MethodGet:
			paymentRequestGetHandler(s.payUC, id)(w, r)
		case action == "cancel" && r.Method == http.MethodPost:
			paymentRequestCancelHandler(s.payUC, id)(w, r)
		case action == "confirm" && r.Method == http.MethodPost:
			paymentRequestConfirmHandler(s.payUC, id)(w, r)
		default:
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		}
	})
}

func (s *Server) adminMerchantsRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Route /admin/merchants/{id}/subscription
		path := strings.TrimPrefix(r.URL.Path, "/admin/merchants/")
		id, rest, _ := strings.Cut(strings.Trim(path, "/"), "/")
		if id == "" || rest != "subscription" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPut {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		adminOverrideHandler(s.subUC, id)(w, r)
	})
}

func (s *Server) adminPaymentRequestsRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Route /admin/payment-requests/{id}/verify|reject
		path := strings.TrimPrefix(r.URL.Path, "/admin/payment-requests/")
		id, action, _ := strings.Cut(strings.Trim(path, "/"), "/")
		if id == "" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		switch action {
		case "verify":
			paymentRequestVerifyHandler(s.payUC, id)(w, r)
		case "reject":
			paymentRequestRejectHandler(s.payUC, id)(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

func (s *Server) publicRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Route /public/merchants/{id}/status
		path := strings.TrimPrefix(r.URL.Path, "/public/merchants/")
		id, rest, _ := strings.Cut(strings.Trim(path, "/"), "/")
		if id == "" || rest != "status" || r.Method != http.MethodGet {
			http.NotFound(w, r)
			return
		}
		storefrontStatusHandler(s.storeUC, id)(w, r)
	})
}
