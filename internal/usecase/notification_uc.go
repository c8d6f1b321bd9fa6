// File: internal/usecase/notification_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/adapter"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
)

// DispatchReport summarizes one outbox drain.
type DispatchReport struct {
	Sent     int    `json:"sent"`
	Failed   int    `json:"failed"`
	Duration string `json:"duration"`
}

// NotificationUseCase drains the outbox: transitions enqueue rows inside their
// own transaction, and this dispatcher delivers them after the fact. A failed
// delivery stays unsent and is retried on the next run.
type NotificationUseCase struct {
	notifs repository.NotificationRepository
	sender adapter.NotificationSender
	batch  int
	log    *zerolog.Logger
}

func NewNotificationUseCase(notifs repository.NotificationRepository, sender adapter.NotificationSender, batch int, logger *zerolog.Logger) *NotificationUseCase {
	if batch <= 0 {
		batch = 100
	}
	l := logger.With().Str("component", "NotificationUC").Logger()
	return &NotificationUseCase{notifs: notifs, sender: sender, batch: batch, log: &l}
}

func (uc *NotificationUseCase) Dispatch(ctx context.Context) (*DispatchReport, error) {
	start := time.Now()

	pending, err := uc.notifs.ListUnsent(ctx, repository.NoTX, uc.batch)
	if err != nil {
		return nil, err
	}

	report := &DispatchReport{}
	for _, n := range pending {
		if err := uc.sender.Send(ctx, n); err != nil {
			uc.log.Error().Err(err).Str("notification_id", n.ID).Str("merchant_id", n.MerchantID).Msg("delivery failed")
			report.Failed++
			continue
		}
		if err := uc.notifs.MarkSent(ctx, repository.NoTX, n.ID); err != nil {
			// The send went out but the row stayed unsent; the next run will
			// re-deliver. Senders must tolerate duplicates.
			uc.log.Error().Err(err).Str("notification_id", n.ID).Msg("mark sent failed")
			report.Failed++
			continue
		}
		report.Sent++
	}

	report.Duration = time.Since(start).String()
	if report.Sent > 0 || report.Failed > 0 {
		uc.log.Info().Int("sent", report.Sent).Int("failed", report.Failed).Msg("outbox dispatched")
	}
	return report, nil
}
