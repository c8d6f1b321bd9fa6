// File: internal/usecase/sweep_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
	"github.com/mygads/genfity-order-main-sub015/internal/infra/metrics"
)

// Locker is the distributed lock used to keep scheduler triggers from
// overlapping. Implemented by the redis locker.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

const (
	sweepLockKey   = "cron:subscriptions"
	cleanupLockKey = "cron:subscription-cleanup"
)

// SweepReport summarizes one scheduler run for the caller.
type SweepReport struct {
	Skipped         bool           `json:"skipped"` // another run held the lock
	Checked         int            `json:"checked"`
	Transitions     map[string]int `json:"transitions"`
	ExpiredRequests int64          `json:"expiredRequests"`
	Failures        []SweepFailure `json:"failures,omitempty"`
	Duration        string         `json:"duration"`
}

type SweepFailure struct {
	MerchantID string `json:"merchantId"`
	Error      string `json:"error"`
}

// CleanupReport summarizes one retention cleanup run.
type CleanupReport struct {
	Skipped         bool   `json:"skipped"`
	CatalogPurged   int64  `json:"catalogPurged"`
	MerchantsPurged int64  `json:"merchantsPurged"`
	RequestsPurged  int64  `json:"requestsPurged"`
	Duration        string `json:"duration"`
}

// SweepUseCase is the scheduled entry point: the nightly sweep runs the
// auto-switch engine for every billable merchant and expires stale payment
// requests; the cleanup run enforces the soft-delete retention window.
type SweepUseCase struct {
	merchants repository.MerchantRepository
	catalog   repository.CatalogRepository
	subs      repository.SubscriptionRepository
	requests  *PaymentRequestUseCase
	autosw    *AutoSwitchUseCase
	tm        repository.TransactionManager
	locker    Locker

	lockTTL       time.Duration
	retentionDays int
	log           *zerolog.Logger
}

func NewSweepUseCase(
	merchants repository.MerchantRepository,
	catalog repository.CatalogRepository,
	subs repository.SubscriptionRepository,
	requests *PaymentRequestUseCase,
	autosw *AutoSwitchUseCase,
	tm repository.TransactionManager,
	locker Locker,
	lockTTL time.Duration,
	retentionDays int,
	logger *zerolog.Logger,
) *SweepUseCase {
	l := logger.With().Str("component", "SweepUC").Logger()
	return &SweepUseCase{
		merchants:     merchants,
		catalog:       catalog,
		subs:          subs,
		requests:      requests,
		autosw:        autosw,
		tm:            tm,
		locker:        locker,
		lockTTL:       lockTTL,
		retentionDays: retentionDays,
		log:           &l,
	}
}

// RunNightly sweeps every merchant whose subscription is not cancelled. One
// merchant's failure never aborts the rest; failures are collected and
// reported, not retried inline, because the next run converges on the same
// decision anyway. A trigger while a run is in progress is a no-op.
func (uc *SweepUseCase) RunNightly(ctx context.Context, now time.Time) (*SweepReport, error) {
	start := time.Now()

	token, err := uc.locker.TryLock(ctx, sweepLockKey, uc.lockTTL)
	if errors.Is(err, domain.ErrSweepInProgress) {
		uc.log.Info().Msg("nightly sweep already in progress; skipping")
		return &SweepReport{Skipped: true, Duration: time.Since(start).String()}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := uc.locker.Unlock(ctx, sweepLockKey, token); err != nil {
			uc.log.Warn().Err(err).Msg("failed to release sweep lock")
		}
	}()

	report := &SweepReport{Transitions: map[string]int{}}

	ids, err := uc.merchants.ListBillableIDs(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		action, err := uc.autosw.Run(ctx, id, now)
		if err != nil {
			uc.log.Error().Err(err).Str("merchant_id", id).Msg("sweep: merchant check failed")
			report.Failures = append(report.Failures, SweepFailure{MerchantID: id, Error: err.Error()})
			continue
		}
		report.Checked++
		report.Transitions[string(action.Kind)]++
	}

	expired, err := uc.requests.ExpireStale(ctx, now)
	if err != nil {
		uc.log.Error().Err(err).Msg("sweep: expiring stale payment requests failed")
		report.Failures = append(report.Failures, SweepFailure{Error: err.Error()})
	}
	report.ExpiredRequests = expired

	if counts, err := uc.subs.CountByStatus(ctx, repository.NoTX); err == nil {
		metrics.SetSubscriptionsTotal(counts)
	}

	report.Duration = time.Since(start).String()
	metrics.ObserveSweep(time.Since(start), report.Checked, len(report.Failures))
	uc.log.Info().
		Int("checked", report.Checked).
		Int64("expired_requests", report.ExpiredRequests).
		Int("failures", len(report.Failures)).
		Str("duration", report.Duration).
		Msg("nightly sweep finished")
	return report, nil
}

// RunCleanup permanently deletes soft-deleted rows past the retention window
// and prunes long-terminal payment requests. It shares the scheduler secret
// and the overlap guard scheme with the nightly sweep.
func (uc *SweepUseCase) RunCleanup(ctx context.Context, now time.Time) (*CleanupReport, error) {
	start := time.Now()

	token, err := uc.locker.TryLock(ctx, cleanupLockKey, uc.lockTTL)
	if errors.Is(err, domain.ErrSweepInProgress) {
		uc.log.Info().Msg("cleanup already in progress; skipping")
		return &CleanupReport{Skipped: true, Duration: time.Since(start).String()}, nil
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := uc.locker.Unlock(ctx, cleanupLockKey, token); err != nil {
			uc.log.Warn().Err(err).Msg("failed to release cleanup lock")
		}
	}()

	cutoff := now.AddDate(0, 0, -uc.retentionDays)
	report := &CleanupReport{}

	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		if report.CatalogPurged, err = uc.catalog.PurgeDeleted(ctx, tx, cutoff); err != nil {
			return err
		}
		if report.MerchantsPurged, err = uc.merchants.PurgeDeleted(ctx, tx, cutoff); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		report.RequestsPurged, err = uc.requests.PurgeTerminal(ctx, tx, cutoff)
		return err
	})
	if err != nil {
		return nil, err
	}

	report.Duration = time.Since(start).String()
	uc.log.Info().
		Int64("catalog_purged", report.CatalogPurged).
		Int64("merchants_purged", report.MerchantsPurged).
		Int64("requests_purged", report.RequestsPurged).
		Str("duration", report.Duration).
		Msg("retention cleanup finished")
	return report, nil
}
