package model

import (
	"time"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
)

// Merchant is the tenant record the billing engine cares about. The full
// merchant profile (address, branding, menu) lives elsewhere; the engine only
// reads the timezone and forces the storefront open/closed flag.
type Merchant struct {
	ID             string // UUID
	Name           string
	Timezone       string // IANA name, e.g. "Asia/Jakarta"
	IsOpen         bool
	ManualOverride bool       // owner pinned the open/closed flag; auto-switch must not touch it
	DeletedAt      *time.Time // soft delete marker; purged by the retention sweep
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Location resolves the merchant's configured timezone, falling back to UTC
// when the name is empty or unknown.
func (m *Merchant) Location() *time.Location {
	if m.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(m.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func NewMerchant(id, name, timezone string) (*Merchant, error) {
	if id == "" || name == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Merchant{
		ID:        id,
		Name:      name,
		Timezone:  timezone,
		IsOpen:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
