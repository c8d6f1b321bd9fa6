// File: internal/usecase/subscription_uc.go
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
)

// PlanPricing echoes the externally-configured price table on the dashboard.
type PlanPricing struct {
	Currency     string
	MonthlyPrice decimal.Decimal
	MinimumTopup decimal.Decimal
}

// SubscriptionOverview is what the merchant dashboard renders: current state,
// balance (deposit mode only) and the projected suspension warning.
type SubscriptionOverview struct {
	Subscription            *model.Subscription
	Balance                 *model.Balance // nil unless deposit mode
	Pricing                 PlanPricing
	PendingSuspension       bool
	PendingSuspensionReason *model.SuspendReason
}

// SubscriptionUseCase covers the merchant- and admin-facing subscription
// operations around the auto-switch engine.
type SubscriptionUseCase struct {
	subs      repository.SubscriptionRepository
	merchants repository.MerchantRepository
	balances  repository.BalanceRepository
	history   repository.SubscriptionHistoryRepository
	tm        repository.TransactionManager
	autosw    *AutoSwitchUseCase

	pricing   PlanPricing
	trialDays int
	log       *zerolog.Logger
}

func NewSubscriptionUseCase(
	subs repository.SubscriptionRepository,
	merchants repository.MerchantRepository,
	balances repository.BalanceRepository,
	history repository.SubscriptionHistoryRepository,
	tm repository.TransactionManager,
	autosw *AutoSwitchUseCase,
	pricing PlanPricing,
	trialDays int,
	logger *zerolog.Logger,
) *SubscriptionUseCase {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &SubscriptionUseCase{
		subs:      subs,
		merchants: merchants,
		balances:  balances,
		history:   history,
		tm:        tm,
		autosw:    autosw,
		pricing:   pricing,
		trialDays: trialDays,
		log:       &l,
	}
}

// CreateTrial provisions the onboarding subscription for a new merchant.
func (uc *SubscriptionUseCase) CreateTrial(ctx context.Context, merchantID string, now time.Time) (*model.Subscription, error) {
	sub, err := model.NewTrialSubscription(uuid.NewString(), merchantID, uc.trialDays, now)
	if err != nil {
		return nil, err
	}
	if err := uc.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Overview runs the opportunistic auto-switch check first (tolerating its
// failure), then reads the state the dashboard needs.
func (uc *SubscriptionUseCase) Overview(ctx context.Context, merchantID string, now time.Time) (*SubscriptionOverview, error) {
	uc.autosw.Check(ctx, merchantID, now)

	sub, err := uc.subs.FindByMerchant(ctx, repository.NoTX, merchantID)
	if err != nil {
		return nil, err
	}

	out := &SubscriptionOverview{Subscription: sub, Pricing: uc.pricing}

	balance := decimal.Zero
	bal, err := uc.balances.Find(ctx, repository.NoTX, merchantID, uc.pricing.Currency)
	switch {
	case err == nil:
		balance = bal.Amount
	case errors.Is(err, domain.ErrNotFound):
		bal = &model.Balance{MerchantID: merchantID, Currency: uc.pricing.Currency, Amount: decimal.Zero}
	default:
		return nil, err
	}
	if sub.Type == model.SubscriptionTypeDeposit {
		out.Balance = bal
	}

	out.PendingSuspension, out.PendingSuspensionReason = PendingSuspension(sub, balance, now)
	return out, nil
}

// ManualSwitch changes the plan type at the owner's request, validated against
// resource availability: monthly needs an active paid period, deposit needs a
// positive balance. Success always reactivates and reopens the store the same
// way the engine's reactivate does.
func (uc *SubscriptionUseCase) ManualSwitch(ctx context.Context, merchantID string, target model.SubscriptionType, now time.Time) (*model.Subscription, error) {
	if target != model.SubscriptionTypeDeposit && target != model.SubscriptionTypeMonthly {
		return nil, domain.ErrInvalidArgument
	}

	var switched *model.Subscription
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := uc.subs.FindByMerchantForUpdate(ctx, tx, merchantID)
		if err != nil {
			return err
		}
		if sub.Status == model.SubscriptionStatusCancelled {
			return domain.ErrSubscriptionCancelled
		}
		merchant, err := uc.merchants.FindByID(ctx, tx, merchantID)
		if err != nil {
			return err
		}

		switch target {
		case model.SubscriptionTypeMonthly:
			if !sub.HasActivePeriod(now) {
				return domain.ErrMonthlyNotActive
			}
		case model.SubscriptionTypeDeposit:
			bal, err := uc.balances.Find(ctx, tx, merchantID, uc.pricing.Currency)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrDepositEmpty
				}
				return err
			}
			if !bal.Positive() {
				return domain.ErrDepositEmpty
			}
		}

		prevStatus, prevType, prevInGrace := sub.Status, sub.Type, sub.InGracePeriod
		sub.Type = target
		sub.Status = model.SubscriptionStatusActive
		sub.SuspendReason = nil
		sub.ClearGrace()
		sub.UpdatedAt = now

		changed, err := uc.subs.UpdateStateGuarded(ctx, tx, sub, prevStatus, prevType, prevInGrace)
		if err != nil {
			return err
		}
		if !changed {
			return domain.ErrConflict
		}

		if err := uc.history.Append(ctx, tx, &model.SubscriptionHistory{
			ID:         uuid.NewString(),
			MerchantID: merchantID,
			OldType:    prevType,
			OldStatus:  prevStatus,
			NewType:    sub.Type,
			NewStatus:  sub.Status,
			Actor:      model.HistoryActorOwner,
			CreatedAt:  now,
		}); err != nil {
			return err
		}

		if err := forceStore(ctx, tx, uc.merchants, merchant, true, now); err != nil {
			return err
		}
		switched = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return switched, nil
}

// AdminOverrideRequest is the super-admin escape hatch: any combination of a
// direct type/status set, a trial extension, a suspension with reason, or a
// reactivation.
type AdminOverrideRequest struct {
	Type            *model.SubscriptionType
	Status          *model.SubscriptionStatus
	ExtendTrialDays int
	SuspendReason   *model.SuspendReason
	Reactivate      bool
}

func (uc *SubscriptionUseCase) AdminOverride(ctx context.Context, merchantID string, req AdminOverrideRequest, now time.Time) (*model.Subscription, error) {
	if req.Status != nil && *req.Status == model.SubscriptionStatusSuspended && req.SuspendReason == nil {
		return nil, domain.ErrInvalidArgument
	}

	var out *model.Subscription
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := uc.subs.FindByMerchantForUpdate(ctx, tx, merchantID)
		if err != nil {
			return err
		}
		merchant, err := uc.merchants.FindByID(ctx, tx, merchantID)
		if err != nil {
			return err
		}

		prevStatus, prevType, prevInGrace := sub.Status, sub.Type, sub.InGracePeriod

		if req.Type != nil {
			sub.Type = *req.Type
		}
		if req.ExtendTrialDays > 0 {
			base := now
			if sub.TrialEndsAt != nil && sub.TrialEndsAt.After(now) {
				base = *sub.TrialEndsAt
			}
			ends := base.AddDate(0, 0, req.ExtendTrialDays)
			sub.TrialEndsAt = &ends
		}
		if req.Status != nil {
			sub.Status = *req.Status
			switch *req.Status {
			case model.SubscriptionStatusSuspended:
				sub.SuspendReason = req.SuspendReason
				sub.ClearGrace()
			case model.SubscriptionStatusActive:
				// a direct set behaves like Reactivate: no stale reason survives
				sub.SuspendReason = nil
				sub.ClearGrace()
			}
		}
		if req.Reactivate {
			sub.Status = model.SubscriptionStatusActive
			sub.SuspendReason = nil
			sub.ClearGrace()
		}
		sub.UpdatedAt = now

		if _, err := uc.subs.UpdateStateGuarded(ctx, tx, sub, prevStatus, prevType, prevInGrace); err != nil {
			return err
		}

		if sub.Status != prevStatus || sub.Type != prevType {
			if err := uc.history.Append(ctx, tx, &model.SubscriptionHistory{
				ID:         uuid.NewString(),
				MerchantID: merchantID,
				OldType:    prevType,
				OldStatus:  prevStatus,
				NewType:    sub.Type,
				NewStatus:  sub.Status,
				Reason:     sub.SuspendReason,
				Actor:      model.HistoryActorAdmin,
				CreatedAt:  now,
			}); err != nil {
				return err
			}
		}

		// mirror the engine's storefront forcing on explicit admin transitions
		if prevStatus != model.SubscriptionStatusSuspended && sub.Status == model.SubscriptionStatusSuspended {
			if err := forceStore(ctx, tx, uc.merchants, merchant, false, now); err != nil {
				return err
			}
		}
		if prevStatus == model.SubscriptionStatusSuspended && sub.Status == model.SubscriptionStatusActive {
			if err := forceStore(ctx, tx, uc.merchants, merchant, true, now); err != nil {
				return err
			}
		}
		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// History exposes the transition trail for the dashboard.
func (uc *SubscriptionUseCase) History(ctx context.Context, merchantID string, limit int) ([]*model.SubscriptionHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	return uc.history.ListByMerchant(ctx, repository.NoTX, merchantID, limit)
}
