package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
)

// StorefrontStatus is the public view of a merchant's storefront.
type StorefrontStatus struct {
	MerchantID string
	Name       string
	IsOpen     bool
}

// StorefrontUseCase serves the unauthenticated storefront lookup. It reads the
// persisted open flag; the flag itself is maintained by the auto-switch engine
// and the owner's manual override.
type StorefrontUseCase struct {
	merchants repository.MerchantRepository
	autosw    *AutoSwitchUseCase
	log       *zerolog.Logger
}

func NewStorefrontUseCase(merchants repository.MerchantRepository, autosw *AutoSwitchUseCase, logger *zerolog.Logger) *StorefrontUseCase {
	return &StorefrontUseCase{merchants: merchants, autosw: autosw, log: logger}
}

func (uc *StorefrontUseCase) Status(ctx context.Context, merchantID string, now time.Time) (*StorefrontStatus, error) {
	// Opportunistic check so a lapsed merchant reads closed even before the
	// nightly sweep reaches it.
	uc.autosw.Check(ctx, merchantID, now)

	m, err := uc.merchants.FindByID(ctx, repository.NoTX, merchantID)
	if err != nil {
		return nil, err
	}
	open := m.IsOpen && m.DeletedAt == nil
	return &StorefrontStatus{MerchantID: m.ID, Name: m.Name, IsOpen: open}, nil
}
