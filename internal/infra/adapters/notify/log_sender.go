package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/adapter"
)

var _ adapter.NotificationSender = (*LogSender)(nil)

// LogSender writes each outbox entry to the service log. It stands in until a
// real delivery channel is attached; the outbox contract (exactly one row per
// transition, at-least-once delivery) is the same either way.
type LogSender struct {
	log *zerolog.Logger
}

func NewLogSender(logger *zerolog.Logger) *LogSender {
	l := logger.With().Str("component", "NotifySender").Logger()
	return &LogSender{log: &l}
}

func (s *LogSender) Send(_ context.Context, n *model.Notification) error {
	s.log.Info().
		Str("notification_id", n.ID).
		Str("merchant_id", n.MerchantID).
		Str("kind", string(n.Payload.Kind())).
		Interface("payload", n.Payload).
		Msg("notification")
	return nil
}
