// File: internal/usecase/autoswitch_uc.go
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

type ActionKind string

const (
	ActionNoChange   ActionKind = "no_change"
	ActionEnterGrace ActionKind = "enter_grace"
	ActionSuspend    ActionKind = "suspend"
	ActionReactivate ActionKind = "reactivate"
)

// Action is the outcome of one decision: what to do and, for grace/suspension,
// why.
type Action struct {
	Kind   ActionKind
	Reason model.SuspendReason // set for enter_grace and suspend
}

// GracePolicy holds the configured grace window per suspension reason. The
// windows share a default but are configured independently.
type GracePolicy struct {
	Trial   time.Duration
	Monthly time.Duration
	Deposit time.Duration
}

func (g GracePolicy) For(reason model.SuspendReason) time.Duration {
	switch reason {
	case model.SuspendReasonTrialExpired:
		return g.Trial
	case model.SuspendReasonMonthlyExpired:
		return g.Monthly
	case model.SuspendReasonDepositDepleted:
		return g.Deposit
	}
	return 0
}

// GraceCutoff returns the merchant-midnight boundary that ends a grace window
// opened at now. Day boundaries are evaluated in the merchant's zone, never
// UTC or server-local time.
func GraceCutoff(now time.Time, loc *time.Location, grace time.Duration) time.Time {
	t := now.In(loc).Add(grace)
	return time.Date(t.Year(), t.Month(), t.Day()+1, 0, 0, 0, 0, loc)
}

// lapseReason reports which chargeable condition, if any, the subscription is
// currently failing.
func lapseReason(sub *model.Subscription, balance decimal.Decimal, now time.Time) (model.SuspendReason, bool) {
	switch sub.Type {
	case model.SubscriptionTypeTrial:
		if sub.TrialEndsAt != nil && now.After(*sub.TrialEndsAt) {
			return model.SuspendReasonTrialExpired, true
		}
	case model.SubscriptionTypeMonthly:
		if sub.CurrentPeriodEnd == nil || now.After(*sub.CurrentPeriodEnd) {
			return model.SuspendReasonMonthlyExpired, true
		}
	case model.SubscriptionTypeDeposit:
		if !balance.IsPositive() {
			return model.SuspendReasonDepositDepleted, true
		}
	}
	return "", false
}

// engineOwned reports whether a suspension was imposed by this engine.
// Suspensions carrying any other reason came from an admin override and
// only an explicit admin reactivation lifts them.
func engineOwned(reason *model.SuspendReason) bool {
	if reason == nil {
		return false
	}
	switch *reason {
	case model.SuspendReasonTrialExpired, model.SuspendReasonMonthlyExpired, model.SuspendReasonDepositDepleted:
		return true
	}
	return false
}

// Decide is the pure decision function of the auto-switch engine. It projects
// the persisted subscription plus wall-clock time onto the next action; it
// performs no I/O and reads no global clock, so callers (and tests) control
// time entirely.
func Decide(sub *model.Subscription, balance decimal.Decimal, loc *time.Location, now time.Time, grace GracePolicy) Action {
	if sub == nil || sub.Status == model.SubscriptionStatusCancelled {
		return Action{Kind: ActionNoChange}
	}

	reason, lapsed := lapseReason(sub, balance, now)

	if sub.Status == model.SubscriptionStatusSuspended {
		if !engineOwned(sub.SuspendReason) {
			// admin-imposed suspensions are lifted only by an admin
			return Action{Kind: ActionNoChange}
		}
		if !lapsed {
			// the condition that caused suspension no longer holds
			return Action{Kind: ActionReactivate}
		}
		return Action{Kind: ActionNoChange}
	}

	if !lapsed {
		if sub.InGracePeriod {
			// healed during grace (top-up confirmed, period renewed)
			return Action{Kind: ActionReactivate}
		}
		return Action{Kind: ActionNoChange}
	}

	if !sub.InGracePeriod {
		return Action{Kind: ActionEnterGrace, Reason: reason}
	}
	if sub.GraceEndsAt != nil && now.After(*sub.GraceEndsAt) {
		return Action{Kind: ActionSuspend, Reason: reason}
	}
	return Action{Kind: ActionNoChange}
}

// PendingSuspension is the read-only projection behind the dashboard warning:
// true exactly when the merchant is in (or about to enter) a grace window that
// ends in suspension at the next cutoff. It never persists anything.
func PendingSuspension(sub *model.Subscription, balance decimal.Decimal, now time.Time) (bool, *model.SuspendReason) {
	if sub == nil || sub.Status != model.SubscriptionStatusActive {
		return false, nil
	}
	reason, lapsed := lapseReason(sub, balance, now)
	if !lapsed {
		return false, nil
	}
	return true, &reason
}

// AutoSwitchUseCase runs the decide+apply sequence for one merchant inside a
// single transaction. Both the opportunistic per-request check and the nightly
// sweep converge here.
type AutoSwitchUseCase struct {
	subs      repository.SubscriptionRepository
	merchants repository.MerchantRepository
	balances  repository.BalanceRepository
	history   repository.SubscriptionHistoryRepository
	notifs    repository.NotificationRepository
	tm        repository.TransactionManager

	grace        GracePolicy
	currency     string
	checkTimeout time.Duration
	log          *zerolog.Logger
}

func NewAutoSwitchUseCase(
	subs repository.SubscriptionRepository,
	merchants repository.MerchantRepository,
	balances repository.BalanceRepository,
	history repository.SubscriptionHistoryRepository,
	notifs repository.NotificationRepository,
	tm repository.TransactionManager,
	grace GracePolicy,
	currency string,
	checkTimeout time.Duration,
	logger *zerolog.Logger,
) *AutoSwitchUseCase {
	l := logger.With().Str("component", "AutoSwitchUC").Logger()
	return &AutoSwitchUseCase{
		subs:      subs,
		merchants: merchants,
		balances:  balances,
		history:   history,
		notifs:    notifs,
		tm:        tm,

		grace:        grace,
		currency:     currency,
		checkTimeout: checkTimeout,
		log:          &l,
	}
}

// Run executes decide+apply for one merchant. The decision read and the
// guarded write share one transaction, so a stale decision becomes a no-op
// instead of a lost update. Re-running with unchanged inputs always yields
// no_change.
func (uc *AutoSwitchUseCase) Run(ctx context.Context, merchantID string, now time.Time) (Action, error) {
	var applied Action
	err := uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		sub, err := uc.subs.FindByMerchantForUpdate(ctx, tx, merchantID)
		if err != nil {
			return err
		}
		merchant, err := uc.merchants.FindByID(ctx, tx, merchantID)
		if err != nil {
			return err
		}
		balance := decimal.Zero
		if bal, err := uc.balances.Find(ctx, tx, merchantID, uc.currency); err == nil {
			balance = bal.Amount
		} else if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		action := Decide(sub, balance, merchant.Location(), now, uc.grace)
		if action.Kind == ActionNoChange {
			applied = action
			return nil
		}

		changed, err := uc.apply(ctx, tx, sub, merchant, action, now)
		if err != nil {
			return err
		}
		if !changed {
			// a concurrent applier won the conditional write
			applied = Action{Kind: ActionNoChange}
			return nil
		}
		applied = action
		return nil
	})
	if err != nil {
		return Action{}, err
	}
	metrics.IncAutoSwitch(string(applied.Kind))
	return applied, nil
}

// Check is the opportunistic variant piggybacked on read paths. It is bounded
// by a short timeout and swallows its own errors: the enclosing read proceeds
// with last-known state regardless.
func (uc *AutoSwitchUseCase) Check(ctx context.Context, merchantID string, now time.Time) {
	ctx, cancel := context.WithTimeout(ctx, uc.checkTimeout)
	defer cancel()
	if _, err := uc.Run(ctx, merchantID, now); err != nil && !errors.Is(err, domain.ErrNotFound) {
		uc.log.Warn().Err(err).Str("merchant_id", merchantID).Msg("opportunistic auto-switch check failed")
	}
}

func (uc *AutoSwitchUseCase) apply(ctx context.Context, tx repository.Tx, sub *model.Subscription, merchant *model.Merchant, action Action, now time.Time) (bool, error) {
	prevStatus, prevType, prevInGrace := sub.Status, sub.Type, sub.InGracePeriod

	switch action.Kind {
	case ActionEnterGrace:
		cutoff := GraceCutoff(now, merchant.Location(), uc.grace.For(action.Reason))
		sub.InGracePeriod = true
		sub.GraceEndsAt = &cutoff
	case ActionSuspend:
		reason := action.Reason
		sub.Status = model.SubscriptionStatusSuspended
		sub.SuspendReason = &reason
		sub.ClearGrace()
	case ActionReactivate:
		sub.Status = model.SubscriptionStatusActive
		sub.SuspendReason = nil
		sub.ClearGrace()
	default:
		return false, nil
	}
	sub.UpdatedAt = now

	changed, err := uc.subs.UpdateStateGuarded(ctx, tx, sub, prevStatus, prevType, prevInGrace)
	if err != nil || !changed {
		return false, err
	}

	// History and notification are written only for real status transitions,
	// in the same transaction as the guarded update, so they can never be
	// duplicated by a concurrent identical decision.
	switch action.Kind {
	case ActionSuspend:
		if err := uc.recordTransition(ctx, tx, sub, prevStatus, prevType, sub.SuspendReason, model.HistoryActorSystem, now); err != nil {
			return false, err
		}
		if err := uc.notifs.Enqueue(ctx, tx, &model.Notification{
			ID:         uuid.NewString(),
			MerchantID: sub.MerchantID,
			Payload: model.SuspendedPayload{
				MerchantID: sub.MerchantID,
				Reason:     action.Reason,
				OldStatus:  prevStatus,
			},
			CreatedAt: now,
		}); err != nil {
			return false, err
		}
		if err := forceStore(ctx, tx, uc.merchants, merchant, false, now); err != nil {
			return false, err
		}
	case ActionReactivate:
		if prevStatus != model.SubscriptionStatusSuspended {
			// grace cleared while still active: no transition, no side effects
			break
		}
		if err := uc.recordTransition(ctx, tx, sub, prevStatus, prevType, nil, model.HistoryActorSystem, now); err != nil {
			return false, err
		}
		if err := uc.notifs.Enqueue(ctx, tx, &model.Notification{
			ID:         uuid.NewString(),
			MerchantID: sub.MerchantID,
			Payload: model.ReactivatedPayload{
				MerchantID: sub.MerchantID,
				Type:       sub.Type,
			},
			CreatedAt: now,
		}); err != nil {
			return false, err
		}
		if err := forceStore(ctx, tx, uc.merchants, merchant, true, now); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (uc *AutoSwitchUseCase) recordTransition(ctx context.Context, tx repository.Tx, sub *model.Subscription, oldStatus model.SubscriptionStatus, oldType model.SubscriptionType, reason *model.SuspendReason, actor model.HistoryActor, now time.Time) error {
	return uc.history.Append(ctx, tx, &model.SubscriptionHistory{
		ID:         uuid.NewString(),
		MerchantID: sub.MerchantID,
		OldType:    oldType,
		OldStatus:  oldStatus,
		NewType:    sub.Type,
		NewStatus:  sub.Status,
		Reason:     reason,
		Actor:      actor,
		CreatedAt:  now,
	})
}

// forceStore flips the storefront flag for a suspension or reactivation. An
// owner's manual override always wins; the engine never fights it.
func forceStore(ctx context.Context, tx repository.Tx, merchants repository.MerchantRepository, m *model.Merchant, open bool, now time.Time) error {
	if m.ManualOverride {
		return nil
	}
	if m.IsOpen == open {
		return nil
	}
	if err := merchants.SetOpen(ctx, tx, m.ID, open, now); err != nil {
		return err
	}
	m.IsOpen = open
	return nil
}
