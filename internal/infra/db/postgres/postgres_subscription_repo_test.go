//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
)

func seedMerchant(t *testing.T, name string) *model.Merchant {
	t.Helper()
	m, err := model.NewMerchant(uuid.NewString(), name, "Asia/Jakarta")
	if err != nil {
		t.Fatalf("failed to build merchant: %v", err)
	}
	if err := NewMerchantRepo(testPool).Save(context.Background(), nil, m); err != nil {
		t.Fatalf("failed to save merchant: %v", err)
	}
	return m
}

func TestSubscriptionRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewSubscriptionRepo(testPool)

	t.Run("should save and find a trial subscription", func(t *testing.T) {
		cleanup(t)
		merchant := seedMerchant(t, "Warung A")
		sub, _ := model.NewTrialSubscription(uuid.NewString(), merchant.ID, 14, time.Now().UTC())

		if err := repo.Save(ctx, nil, sub); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		got, err := repo.FindByMerchant(ctx, nil, merchant.ID)
		if err != nil {
			t.Fatalf("FindByMerchant failed: %v", err)
		}
		if got.Type != model.SubscriptionTypeTrial || got.Status != model.SubscriptionStatusActive {
			t.Errorf("unexpected state: type=%s status=%s", got.Type, got.Status)
		}
		if got.TrialEndsAt == nil {
			t.Error("expected trial_ends_at to round-trip")
		}
	})

	t.Run("should return not found for unknown merchant", func(t *testing.T) {
		cleanup(t)
		_, err := repo.FindByMerchant(ctx, nil, uuid.NewString())
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should upsert on second save for the same merchant", func(t *testing.T) {
		cleanup(t)
		merchant := seedMerchant(t, "Warung B")
		sub, _ := model.NewTrialSubscription(uuid.NewString(), merchant.ID, 14, time.Now().UTC())
		if err := repo.Save(ctx, nil, sub); err != nil {
			t.Fatalf("first save failed: %v", err)
		}

		sub.Type = model.SubscriptionTypeDeposit
		sub.TrialEndsAt = nil
		sub.UpdatedAt = time.Now().UTC()
		if err := repo.Save(ctx, nil, sub); err != nil {
			t.Fatalf("second save failed: %v", err)
		}

		got, err := repo.FindByMerchant(ctx, nil, merchant.ID)
		if err != nil {
			t.Fatalf("FindByMerchant failed: %v", err)
		}
		if got.Type != model.SubscriptionTypeDeposit {
			t.Errorf("expected deposit after upsert, got %s", got.Type)
		}
	})

	t.Run("guarded update should apply only against matching previous state", func(t *testing.T) {
		cleanup(t)
		merchant := seedMerchant(t, "Warung C")
		sub, _ := model.NewTrialSubscription(uuid.NewString(), merchant.ID, 14, time.Now().UTC())
		if err := repo.Save(ctx, nil, sub); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		// Matching guard applies.
		reason := model.SuspendReasonTrialExpired
		next := *sub
		next.Status = model.SubscriptionStatusSuspended
		next.SuspendReason = &reason
		next.UpdatedAt = time.Now().UTC()
		changed, err := repo.UpdateStateGuarded(ctx, nil, &next, model.SubscriptionStatusActive, model.SubscriptionTypeTrial, false)
		if err != nil {
			t.Fatalf("guarded update failed: %v", err)
		}
		if !changed {
			t.Fatal("expected guarded update to apply")
		}

		// Stale guard (still claims active) matches nothing.
		changed, err = repo.UpdateStateGuarded(ctx, nil, &next, model.SubscriptionStatusActive, model.SubscriptionTypeTrial, false)
		if err != nil {
			t.Fatalf("stale guarded update errored: %v", err)
		}
		if changed {
			t.Error("expected stale guarded update to be a no-op")
		}

		got, _ := repo.FindByMerchant(ctx, nil, merchant.ID)
		if got.Status != model.SubscriptionStatusSuspended || got.SuspendReason == nil || *got.SuspendReason != model.SuspendReasonTrialExpired {
			t.Errorf("unexpected persisted state: %+v", got)
		}
	})

	t.Run("should count subscriptions by status", func(t *testing.T) {
		cleanup(t)
		for i := 0; i < 3; i++ {
			merchant := seedMerchant(t, "Warung")
			sub, _ := model.NewTrialSubscription(uuid.NewString(), merchant.ID, 14, time.Now().UTC())
			if i == 0 {
				sub.Status = model.SubscriptionStatusSuspended
			}
			if err := repo.Save(ctx, nil, sub); err != nil {
				t.Fatalf("save failed: %v", err)
			}
		}

		counts, err := repo.CountByStatus(ctx, nil)
		if err != nil {
			t.Fatalf("CountByStatus failed: %v", err)
		}
		if counts[model.SubscriptionStatusActive] != 2 || counts[model.SubscriptionStatusSuspended] != 1 {
			t.Errorf("unexpected counts: %v", counts)
		}
	})
}
