package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type NotificationKind string

const (
	NotificationSubscriptionSuspended   NotificationKind = "subscription_suspended"
	NotificationSubscriptionReactivated NotificationKind = "subscription_reactivated"
	NotificationPaymentRequestVerified  NotificationKind = "payment_request_verified"
	NotificationPaymentRequestRejected  NotificationKind = "payment_request_rejected"
)

// NotificationPayload is a closed union: one payload struct per kind, so the
// outbox consumer can switch exhaustively instead of probing a loose map.
type NotificationPayload interface {
	Kind() NotificationKind
}

type SuspendedPayload struct {
	MerchantID string        `json:"merchantId"`
	Reason     SuspendReason `json:"reason"`
	OldStatus  SubscriptionStatus `json:"oldStatus"`
}

func (SuspendedPayload) Kind() NotificationKind { return NotificationSubscriptionSuspended }

type ReactivatedPayload struct {
	MerchantID string           `json:"merchantId"`
	Type       SubscriptionType `json:"type"`
}

func (ReactivatedPayload) Kind() NotificationKind { return NotificationSubscriptionReactivated }

type PaymentVerifiedPayload struct {
	MerchantID string             `json:"merchantId"`
	RequestID  string             `json:"requestId"`
	Type       PaymentRequestType `json:"type"`
	Amount     decimal.Decimal    `json:"amount"`
	Currency   string             `json:"currency"`
}

func (PaymentVerifiedPayload) Kind() NotificationKind { return NotificationPaymentRequestVerified }

type PaymentRejectedPayload struct {
	MerchantID string `json:"merchantId"`
	RequestID  string `json:"requestId"`
	Reason     string `json:"reason"`
}

func (PaymentRejectedPayload) Kind() NotificationKind { return NotificationPaymentRequestRejected }

// Notification is one outbox row awaiting delivery. The engine enqueues it in
// the same transaction as the transition it announces, so a transition can
// never be applied without its notification (or vice versa).
type Notification struct {
	ID         string // UUID
	MerchantID string
	Payload    NotificationPayload
	CreatedAt  time.Time
	SentAt     *time.Time
}
