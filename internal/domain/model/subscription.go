package model

import (
	"time"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
)

type SubscriptionType string

const (
	SubscriptionTypeNone    SubscriptionType = "none"
	SubscriptionTypeTrial   SubscriptionType = "trial"
	SubscriptionTypeDeposit SubscriptionType = "deposit"
	SubscriptionTypeMonthly SubscriptionType = "monthly"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusSuspended SubscriptionStatus = "suspended"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// SuspendReason values are surfaced verbatim through the API, so they use the
// stable uppercase spelling clients already depend on.
type SuspendReason string

const (
	SuspendReasonTrialExpired    SuspendReason = "TRIAL_EXPIRED"
	SuspendReasonMonthlyExpired  SuspendReason = "MONTHLY_EXPIRED"
	SuspendReasonDepositDepleted SuspendReason = "DEPOSIT_DEPLETED"
)

// Subscription is the single billing row per merchant. It is never deleted,
// only transitioned by the auto-switch engine, the manual switch, or an admin
// override.
type Subscription struct {
	ID         string // UUID
	MerchantID string // UUID, unique
	Type       SubscriptionType
	Status     SubscriptionStatus

	TrialEndsAt      *time.Time // meaningful while Type == trial
	CurrentPeriodEnd *time.Time // meaningful while Type == monthly; nil or past means no paid period

	SuspendReason *SuspendReason // non-nil iff Status == suspended
	InGracePeriod bool
	GraceEndsAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTrialSubscription creates the onboarding subscription for a merchant.
func NewTrialSubscription(id, merchantID string, trialDays int, now time.Time) (*Subscription, error) {
	if id == "" || merchantID == "" || trialDays <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	ends := now.AddDate(0, 0, trialDays)
	return &Subscription{
		ID:          id,
		MerchantID:  merchantID,
		Type:        SubscriptionTypeTrial,
		Status:      SubscriptionStatusActive,
		TrialEndsAt: &ends,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// HasActivePeriod reports whether a monthly subscription still has a paid
// period covering now.
func (s *Subscription) HasActivePeriod(now time.Time) bool {
	return s.CurrentPeriodEnd != nil && now.Before(*s.CurrentPeriodEnd)
}

// ClearGrace resets the grace markers without touching status.
func (s *Subscription) ClearGrace() {
	s.InGracePeriod = false
	s.GraceEndsAt = nil
}
