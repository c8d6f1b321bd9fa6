// File: internal/domain/ports/adapter/notifier.go
package adapter

import (
	"context"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
)

// NotificationSender delivers one outbox entry to the merchant. Delivery
// transport (email, push, in-app) lives outside this service; the engine only
// guarantees each applied transition produces exactly one outbox row.
type NotificationSender interface {
	Send(ctx context.Context, n *model.Notification) error
}
