package model

import "time"

// HistoryActor identifies who drove a subscription transition.
type HistoryActor string

const (
	HistoryActorSystem HistoryActor = "system" // auto-switch engine / nightly sweep
	HistoryActorAdmin  HistoryActor = "admin"
	HistoryActorOwner  HistoryActor = "owner" // manual switch
)

// SubscriptionHistory is one immutable entry in the append-only transition
// trail. Exactly one entry is written per applied transition.
type SubscriptionHistory struct {
	ID         string // UUID
	MerchantID string

	OldType   SubscriptionType
	OldStatus SubscriptionStatus
	NewType   SubscriptionType
	NewStatus SubscriptionStatus

	Reason *SuspendReason // suspension entries only
	Actor  HistoryActor

	CreatedAt time.Time
}
