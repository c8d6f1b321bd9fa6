package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/usecase"

	"github.com/rs/zerolog"
)

const (
	publicLookupLimit  = 60
	publicLookupWindow = time.Minute

	defaultHistoryLimit = 50
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, struct {
		Error errorBody `json:"error"`
	}{Error: errorBody{Code: code, Message: message}})
}

// writeDomainError maps a sentinel to its stable code and HTTP status.
func writeDomainError(w http.ResponseWriter, err error) {
	code := domain.Code(err)
	status := http.StatusInternalServerError
	switch code {
	case "VALIDATION_ERROR":
		status = http.StatusBadRequest
	case "CONFLICT":
		status = http.StatusConflict
	case "NOT_FOUND":
		status = http.StatusNotFound
	case "UNAUTHORIZED":
		status = http.StatusUnauthorized
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, code, msg)
}

// ===== Subscription (merchant dashboard) =====

type subscriptionResponse struct {
	Type             model.SubscriptionType   `json:"type"`
	Status           model.SubscriptionStatus `json:"status"`
	SuspendReason    *model.SuspendReason     `json:"suspendReason,omitempty"`
	TrialEndsAt      *time.Time               `json:"trialEndsAt,omitempty"`
	CurrentPeriodEnd *time.Time               `json:"currentPeriodEnd,omitempty"`
	InGracePeriod    bool                     `json:"inGracePeriod"`
	GraceEndsAt      *time.Time               `json:"graceEndsAt,omitempty"`
}

func subscriptionView(s *model.Subscription) subscriptionResponse {
	return subscriptionResponse{
		Type:             s.Type,
		Status:           s.Status,
		SuspendReason:    s.SuspendReason,
		TrialEndsAt:      s.TrialEndsAt,
		CurrentPeriodEnd: s.CurrentPeriodEnd,
		InGracePeriod:    s.InGracePeriod,
		GraceEndsAt:      s.GraceEndsAt,
	}
}

func subscriptionOverviewHandler(subUC *usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := claimsFrom(ctx)

		ov, err := subUC.Overview(ctx, claims.MerchantID(), time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		response := struct {
			Subscription            subscriptionResponse `json:"subscription"`
			Balance                 *decimal.Decimal     `json:"balance,omitempty"`
			Currency                string               `json:"currency"`
			MonthlyPrice            decimal.Decimal      `json:"monthlyPrice"`
			MinimumTopup            decimal.Decimal      `json:"minimumTopup"`
			PendingSuspension       bool                 `json:"pendingSuspension"`
			PendingSuspensionReason *model.SuspendReason `json:"pendingSuspensionReason,omitempty"`
		}{
			Subscription:            subscriptionView(ov.Subscription),
			Currency:                ov.Pricing.Currency,
			MonthlyPrice:            ov.Pricing.MonthlyPrice,
			MinimumTopup:            ov.Pricing.MinimumTopup,
			PendingSuspension:       ov.PendingSuspension,
			PendingSuspensionReason: ov.PendingSuspensionReason,
		}
		if ov.Balance != nil {
			response.Balance = &ov.Balance.Amount
		}
		writeJSON(w, http.StatusOK, response)
	}
}

type manualSwitchRequest struct {
	Type string `json:"type"`
}

func manualSwitchHandler(subUC *usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := claimsFrom(ctx)

		var req manualSwitchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
			return
		}

		sub, err := subUC.ManualSwitch(ctx, claims.MerchantID(), model.SubscriptionType(req.Type), time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subscriptionView(sub))
	}
}

func subscriptionHistoryHandler(subUC *usecase.SubscriptionUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := claimsFrom(ctx)

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = defaultHistoryLimit
		}

		entries, err := subUC.History(ctx, claims.MerchantID(), limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		type historyEntry struct {
			OldType   model.SubscriptionType   `json:"oldType"`
			OldStatus model.SubscriptionStatus `json:"oldStatus"`
			NewType   model.SubscriptionType   `json:"newType"`
			NewStatus model.SubscriptionStatus `json:"newStatus"`
			Reason    *model.SuspendReason     `json:"reason,omitempty"`
			Actor     model.HistoryActor       `json:"actor"`
			CreatedAt time.Time                `json:"createdAt"`
		}
		data := make([]historyEntry, 0, len(entries))
		for _, h := range entries {
			data = append(data, historyEntry{
				OldType:   h.OldType,
				OldStatus: h.OldStatus,
				NewType:   h.NewType,
				NewStatus: h.NewStatus,
				Reason:    h.Reason,
				Actor:     h.Actor,
				CreatedAt: h.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, struct {
			Data []historyEntry `json:"data"`
		}{Data: data})
	}
}

// ===== Admin override =====

type adminOverrideRequest struct {
	Type            *string `json:"type"`
	Status          *string `json:"status"`
	ExtendTrialDays int     `json:"extendTrialDays"`
	SuspendReason   *string `json:"suspendReason"`
	Reactivate      bool    `json:"reactivate"`
}

func adminOverrideHandler(subUC *usecase.SubscriptionUseCase, merchantID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req adminOverrideRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
			return
		}

		override := usecase.AdminOverrideRequest{
			ExtendTrialDays: req.ExtendTrialDays,
			Reactivate:      req.Reactivate,
		}
		if req.Type != nil {
			t := model.SubscriptionType(*req.Type)
			override.Type = &t
		}
		if req.Status != nil {
			st := model.SubscriptionStatus(*req.Status)
			override.Status = &st
		}
		if req.SuspendReason != nil {
			reason := model.SuspendReason(*req.SuspendReason)
			override.SuspendReason = &reason
		}

		sub, err := subUC.AdminOverride(ctx, merchantID, override, time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, subscriptionView(sub))
	}
}

// ===== Payment requests =====

type paymentRequestResponse struct {
	ID              string                     `json:"id"`
	Type            model.PaymentRequestType   `json:"type"`
	Status          model.PaymentRequestStatus `json:"status"`
	Amount          decimal.Decimal            `json:"amount"`
	Currency        string                     `json:"currency"`
	MonthsRequested int                        `json:"monthsRequested,omitempty"`
	RejectReason    *string                    `json:"rejectReason,omitempty"`
	ExpiresAt       time.Time                  `json:"expiresAt"`
	CreatedAt       time.Time                  `json:"createdAt"`
}

func paymentRequestView(p *model.PaymentRequest) paymentRequestResponse {
	return paymentRequestResponse{
		ID:              p.ID,
		Type:            p.Type,
		Status:          p.Status,
		Amount:          p.Amount,
		Currency:        p.Currency,
		MonthsRequested: p.MonthsRequested,
		RejectReason:    p.RejectReason,
		ExpiresAt:       p.ExpiresAt,
		CreatedAt:       p.CreatedAt,
	}
}

type paymentRequestCreateRequest struct {
	Type   string          `json:"type"`
	Amount decimal.Decimal `json:"amount"`
	Months int             `json:"months"`
}

func paymentRequestCreateHandler(payUC *usecase.PaymentRequestUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := claimsFrom(ctx)

		var req paymentRequestCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
			return
		}

		p, err := payUC.Create(ctx, claims.MerchantID(), model.PaymentRequestType(req.Type), req.Amount, req.Months, time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, paymentRequestView(p))
	}
}

func paymentRequestListHandler(payUC *usecase.PaymentRequestUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := claimsFrom(ctx)

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = defaultHistoryLimit
		}

		list, err := payUC.ListByMerchant(ctx, claims.MerchantID(), limit)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		data := make([]paymentRequestResponse, 0, len(list))
		for _, p := range list {
			data = append(data, paymentRequestView(p))
		}
		writeJSON(w, http.StatusOK, struct {
			Data []paymentRequestResponse `json:"data"`
		}{Data: data})
	}
}

func paymentRequestGetHandler(payUC *usecase.PaymentRequestUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := claimsFrom(ctx)

		p, err := payUC.Get(ctx, claims.MerchantID(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, paymentRequestView(p))
	}
}

func paymentRequestCancelHandler(payUC *usecase.PaymentRequestUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := claimsFrom(ctx)

		p, err := payUC.Cancel(ctx, claims.MerchantID(), id, time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, paymentRequestView(p))
	}
}

func paymentRequestConfirmHandler(payUC *usecase.PaymentRequestUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := claimsFrom(ctx)

		p, err := payUC.Confirm(ctx, claims.MerchantID(), id, time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, paymentRequestView(p))
	}
}

func paymentRequestVerifyHandler(payUC *usecase.PaymentRequestUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := payUC.Verify(r.Context(), id, time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, paymentRequestView(p))
	}
}

type paymentRequestRejectRequest struct {
	Reason string `json:"reason"`
}

func paymentRequestRejectHandler(payUC *usecase.PaymentRequestUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req paymentRequestRejectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
			return
		}

		p, err := payUC.Reject(r.Context(), id, req.Reason, time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, paymentRequestView(p))
	}
}

// ===== Cron =====

func sweepHandler(sweepUC *usecase.SweepUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := sweepUC.RunNightly(r.Context(), time.Now())
		if err != nil {
			log.Error().Err(err).Msg("nightly sweep failed")
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func cleanupHandler(sweepUC *usecase.SweepUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := sweepUC.RunCleanup(r.Context(), time.Now())
		if err != nil {
			log.Error().Err(err).Msg("retention cleanup failed")
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

// ===== Public storefront =====

func storefrontStatusHandler(storeUC *usecase.StorefrontUseCase, merchantID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := storeUC.Status(r.Context(), merchantID, time.Now())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			MerchantID string `json:"merchantId"`
			Name       string `json:"name"`
			IsOpen     bool   `json:"isOpen"`
		}{MerchantID: st.MerchantID, Name: st.Name, IsOpen: st.IsOpen})
	}
}

// ===== Balance =====

func balanceHandler(balanceUC *usecase.BalanceUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		ctx := r.Context()
		claims := claimsFrom(ctx)

		b, err := balanceUC.Get(ctx, claims.MerchantID())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Currency string          `json:"currency"`
			Amount   decimal.Decimal `json:"amount"`
		}{Currency: b.Currency, Amount: b.Amount})
	}
}

type chargeOrderRequest struct {
	MerchantID string          `json:"merchantId"`
	Amount     decimal.Decimal `json:"amount"`
}

func chargeOrderHandler(balanceUC *usecase.BalanceUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		var req chargeOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MerchantID == "" {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
			return
		}

		if err := balanceUC.ChargeOrder(r.Context(), req.MerchantID, req.Amount, time.Now()); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func dispatchHandler(notifUC *usecase.NotificationUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := notifUC.Dispatch(r.Context())
		if err != nil {
			log.Error().Err(err).Msg("outbox dispatch failed")
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
