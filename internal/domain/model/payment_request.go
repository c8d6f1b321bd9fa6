package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
)

type PaymentRequestType string

const (
	PaymentRequestTypeDepositTopup PaymentRequestType = "deposit_topup"
	PaymentRequestTypeMonthly      PaymentRequestType = "monthly_subscription"
)

type PaymentRequestStatus string

const (
	PaymentRequestStatusPending   PaymentRequestStatus = "pending"   // owner created, bank transfer not yet claimed
	PaymentRequestStatusConfirmed PaymentRequestStatus = "confirmed" // owner claims the transfer was sent
	PaymentRequestStatusVerified  PaymentRequestStatus = "verified"  // admin verified; balance credited / period extended
	PaymentRequestStatusRejected  PaymentRequestStatus = "rejected"  // admin rejected, with reason
	PaymentRequestStatusCancelled PaymentRequestStatus = "cancelled" // owner cancelled while still open
	PaymentRequestStatusExpired   PaymentRequestStatus = "expired"   // pending request timed out before confirmation
)

// PaymentRequest is a merchant-initiated top-up or monthly renewal paid by a
// manually-confirmed bank transfer. At most one open (pending/confirmed)
// request may exist per merchant at a time.
type PaymentRequest struct {
	ID              string // UUID
	MerchantID      string // UUID
	Type            PaymentRequestType
	Status          PaymentRequestStatus
	Amount          decimal.Decimal
	Currency        string
	MonthsRequested int     // monthly renewals only
	RejectReason    *string // set on rejection

	ExpiresAt   time.Time // pending requests past this point are expired by the sweep
	ConfirmedAt *time.Time
	ResolvedAt  *time.Time // verification / rejection / cancellation / expiry time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Open reports whether the request still occupies the merchant's single open
// slot.
func (p *PaymentRequest) Open() bool {
	return p.Status == PaymentRequestStatusPending || p.Status == PaymentRequestStatusConfirmed
}

func NewPaymentRequest(id, merchantID string, typ PaymentRequestType, amount decimal.Decimal, currency string, months int, ttl time.Duration, now time.Time) (*PaymentRequest, error) {
	if id == "" || merchantID == "" || currency == "" {
		return nil, domain.ErrInvalidArgument
	}
	if !amount.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	switch typ {
	case PaymentRequestTypeDepositTopup:
		if months != 0 {
			return nil, domain.ErrInvalidArgument
		}
	case PaymentRequestTypeMonthly:
		if months <= 0 {
			return nil, domain.ErrInvalidArgument
		}
	default:
		return nil, domain.ErrInvalidArgument
	}
	return &PaymentRequest{
		ID:              id,
		MerchantID:      merchantID,
		Type:            typ,
		Status:          PaymentRequestStatusPending,
		Amount:          amount,
		Currency:        currency,
		MonthsRequested: months,
		ExpiresAt:       now.Add(ttl),
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}
