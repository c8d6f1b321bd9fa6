// File: internal/usecase/payment_request_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
	"github.com/mygads/genfity-order-main-sub015/internal/infra/metrics"
)

// PaymentRequestUseCase drives the bank-transfer workflow:
// pending -> confirmed -> verified | rejected, with owner cancellation while
// open and cron-driven expiry of never-confirmed requests.
type PaymentRequestUseCase struct {
	requests repository.PaymentRequestRepository
	subs     repository.SubscriptionRepository
	balances repository.BalanceRepository
	notifs   repository.NotificationRepository
	tm       repository.TransactionManager
	autosw   *AutoSwitchUseCase

	currency string
	ttl      time.Duration
	log      *zerolog.Logger
}

func NewPaymentRequestUseCase(
	requests repository.PaymentRequestRepository,
	subs repository.SubscriptionRepository,
	balances repository.BalanceRepository,
	notifs repository.NotificationRepository,
	tm repository.TransactionManager,
	autosw *AutoSwitchUseCase,
	currency string,
	ttl time.Duration,
	logger *zerolog.Logger,
) *PaymentRequestUseCase {
	l := logger.With().Str("component", "PaymentRequestUC").Logger()
	return &PaymentRequestUseCase{
		requests: requests,
		subs:     subs,
		balances: balances,
		notifs:   notifs,
		tm:       tm,
		autosw:   autosw,
		currency: currency,
		ttl:      ttl,
		log:      &l,
	}
}

// Create opens a new request for the merchant. A merchant may hold at most one
// open (pending/confirmed) request; a second is a conflict.
func (uc *PaymentRequestUseCase) Create(ctx context.Context, merchantID string, typ model.PaymentRequestType, amount decimal.Decimal, months int, now time.Time) (*model.PaymentRequest, error) {
	req, err := model.NewPaymentRequest(uuid.NewString(), merchantID, typ, amount, uc.currency, months, uc.ttl, now)
	if err != nil {
		return nil, err
	}

	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		open, err := uc.requests.FindOpenByMerchant(ctx, tx, merchantID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if open != nil {
			return domain.ErrOpenPaymentRequest
		}
		return uc.requests.Save(ctx, tx, req)
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPaymentRequestTransition("created")
	return req, nil
}

// Confirm records the owner's claim that the bank transfer was sent.
func (uc *PaymentRequestUseCase) Confirm(ctx context.Context, merchantID, requestID string, now time.Time) (*model.PaymentRequest, error) {
	return uc.transition(ctx, merchantID, requestID, now, func(req *model.PaymentRequest) error {
		if req.Status != model.PaymentRequestStatusPending {
			return domain.ErrInvalidTransition
		}
		req.Status = model.PaymentRequestStatusConfirmed
		req.ConfirmedAt = &now
		return nil
	}, "confirmed")
}

// Cancel lets the owner withdraw a request while it is still open.
func (uc *PaymentRequestUseCase) Cancel(ctx context.Context, merchantID, requestID string, now time.Time) (*model.PaymentRequest, error) {
	return uc.transition(ctx, merchantID, requestID, now, func(req *model.PaymentRequest) error {
		if !req.Open() {
			return domain.ErrInvalidTransition
		}
		req.Status = model.PaymentRequestStatusCancelled
		req.ResolvedAt = &now
		return nil
	}, "cancelled")
}

// Verify is the admin acknowledgement that the transfer landed. It marks the
// request verified and applies its effect (balance credit or period
// extension) in the same transaction: a request can never show as verified
// without its credit having landed.
func (uc *PaymentRequestUseCase) Verify(ctx context.Context, requestID string, now time.Time) (*model.PaymentRequest, error) {
	var verified *model.PaymentRequest
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		req, err := uc.requests.FindByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.PaymentRequestStatusConfirmed {
			return domain.ErrInvalidTransition
		}
		req.Status = model.PaymentRequestStatusVerified
		req.ResolvedAt = &now
		req.UpdatedAt = now
		if err := uc.requests.Save(ctx, tx, req); err != nil {
			return err
		}

		switch req.Type {
		case model.PaymentRequestTypeDepositTopup:
			if err := uc.balances.Credit(ctx, tx, req.MerchantID, req.Currency, req.Amount); err != nil {
				return err
			}
		case model.PaymentRequestTypeMonthly:
			if err := uc.extendPeriod(ctx, tx, req.MerchantID, req.MonthsRequested, now); err != nil {
				return err
			}
		}

		if err := uc.notifs.Enqueue(ctx, tx, &model.Notification{
			ID:         uuid.NewString(),
			MerchantID: req.MerchantID,
			Payload: model.PaymentVerifiedPayload{
				MerchantID: req.MerchantID,
				RequestID:  req.ID,
				Type:       req.Type,
				Amount:     req.Amount,
				Currency:   req.Currency,
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}
		verified = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPaymentRequestTransition("verified")

	// A verified top-up or renewal may resolve a suspension; let the engine
	// pick that up immediately rather than waiting for the nightly sweep.
	uc.autosw.Check(ctx, verified.MerchantID, now)
	return verified, nil
}

// Reject is the admin denial; a reason is mandatory.
func (uc *PaymentRequestUseCase) Reject(ctx context.Context, requestID, reason string, now time.Time) (*model.PaymentRequest, error) {
	if reason == "" {
		return nil, domain.ErrInvalidArgument
	}
	var rejected *model.PaymentRequest
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		req, err := uc.requests.FindByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.Status != model.PaymentRequestStatusConfirmed {
			return domain.ErrInvalidTransition
		}
		req.Status = model.PaymentRequestStatusRejected
		req.RejectReason = &reason
		req.ResolvedAt = &now
		req.UpdatedAt = now
		if err := uc.requests.Save(ctx, tx, req); err != nil {
			return err
		}
		if err := uc.notifs.Enqueue(ctx, tx, &model.Notification{
			ID:         uuid.NewString(),
			MerchantID: req.MerchantID,
			Payload: model.PaymentRejectedPayload{
				MerchantID: req.MerchantID,
				RequestID:  req.ID,
				Reason:     reason,
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}
		rejected = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPaymentRequestTransition("rejected")
	return rejected, nil
}

// ExpireStale times out pending requests whose window passed without a
// confirmation. Confirmed requests are never expired; they wait for an admin.
func (uc *PaymentRequestUseCase) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		n, err = uc.requests.ExpireStalePending(ctx, tx, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.AddPaymentRequestsExpired(n)
	}
	return n, nil
}

// PurgeTerminal removes terminal requests resolved before the cutoff, for the
// retention cleanup.
func (uc *PaymentRequestUseCase) PurgeTerminal(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	return uc.requests.PurgeTerminal(ctx, tx, before)
}

func (uc *PaymentRequestUseCase) Get(ctx context.Context, merchantID, requestID string) (*model.PaymentRequest, error) {
	req, err := uc.requests.FindByID(ctx, repository.NoTX, requestID)
	if err != nil {
		return nil, err
	}
	if req.MerchantID != merchantID {
		return nil, domain.ErrNotFound
	}
	return req, nil
}

func (uc *PaymentRequestUseCase) ListByMerchant(ctx context.Context, merchantID string, limit int) ([]*model.PaymentRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	return uc.requests.ListByMerchant(ctx, repository.NoTX, merchantID, limit)
}

// transition loads the request under lock, checks ownership, applies fn and
// saves, all in one transaction.
func (uc *PaymentRequestUseCase) transition(ctx context.Context, merchantID, requestID string, now time.Time, fn func(*model.PaymentRequest) error, metric string) (*model.PaymentRequest, error) {
	var out *model.PaymentRequest
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		req, err := uc.requests.FindByIDForUpdate(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if req.MerchantID != merchantID {
			return domain.ErrNotFound
		}
		if err := fn(req); err != nil {
			return err
		}
		req.UpdatedAt = now
		if err := uc.requests.Save(ctx, tx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncPaymentRequestTransition(metric)
	return out, nil
}

// extendPeriod pushes CurrentPeriodEnd out by the verified number of months,
// anchored at whichever is later: now or the current period end.
func (uc *PaymentRequestUseCase) extendPeriod(ctx context.Context, tx repository.Tx, merchantID string, months int, now time.Time) error {
	sub, err := uc.subs.FindByMerchantForUpdate(ctx, tx, merchantID)
	if err != nil {
		return err
	}
	base := now
	if sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(now) {
		base = *sub.CurrentPeriodEnd
	}
	end := base.AddDate(0, months, 0)
	sub.CurrentPeriodEnd = &end
	sub.UpdatedAt = now
	return uc.subs.Save(ctx, tx, sub)
}
