//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/mygads/genfity-order-main-sub015/internal/domain"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/model"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/adapter"
	"github.com/mygads/genfity-order-main-sub015/internal/domain/ports/repository"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn with a nil transaction handle by default; the in-memory
// repos below ignore the handle anyway.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu   sync.Mutex
	data map[string]*model.Subscription // keyed by merchant id

	SaveFunc                    func(ctx context.Context, tx repository.Tx, s *model.Subscription) error
	FindByMerchantFunc          func(ctx context.Context, tx repository.Tx, merchantID string) (*model.Subscription, error)
	FindByMerchantForUpdateFunc func(ctx context.Context, tx repository.Tx, merchantID string) (*model.Subscription, error)
	UpdateStateGuardedFunc      func(ctx context.Context, tx repository.Tx, s *model.Subscription, prevStatus model.SubscriptionStatus, prevType model.SubscriptionType, prevInGrace bool) (bool, error)
	CountByStatusFunc           func(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error)
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{data: map[string]*model.Subscription{}}
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func (r *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	cp := *s
	r.data[s.MerchantID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) FindByMerchant(ctx context.Context, tx repository.Tx, merchantID string) (*model.Subscription, error) {
	if r.FindByMerchantFunc != nil {
		return r.FindByMerchantFunc(ctx, tx, merchantID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.data[merchantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *MockSubscriptionRepo) FindByMerchantForUpdate(ctx context.Context, tx repository.Tx, merchantID string) (*model.Subscription, error) {
	if r.FindByMerchantForUpdateFunc != nil {
		return r.FindByMerchantForUpdateFunc(ctx, tx, merchantID)
	}
	return r.FindByMerchant(ctx, tx, merchantID)
}

// UpdateStateGuarded mirrors the conditional write of the real repository:
// the stored row must still carry the expected prior state, otherwise the
// update is reported as not applied.
func (r *MockSubscriptionRepo) UpdateStateGuarded(ctx context.Context, tx repository.Tx, s *model.Subscription, prevStatus model.SubscriptionStatus, prevType model.SubscriptionType, prevInGrace bool) (bool, error) {
	if r.UpdateStateGuardedFunc != nil {
		return r.UpdateStateGuardedFunc(ctx, tx, s, prevStatus, prevType, prevInGrace)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[s.MerchantID]
	if !ok {
		return false, nil
	}
	if cur.Status != prevStatus || cur.Type != prevType || cur.InGracePeriod != prevInGrace {
		return false, nil
	}
	cp := *s
	r.data[s.MerchantID] = &cp
	return true, nil
}

func (r *MockSubscriptionRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.SubscriptionStatus]int, error) {
	if r.CountByStatusFunc != nil {
		return r.CountByStatusFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.SubscriptionStatus]int{}
	for _, s := range r.data {
		out[s.Status]++
	}
	return out, nil
}

// ---- Mock MerchantRepository ----

type MockMerchantRepo struct {
	mu   sync.Mutex
	data map[string]*model.Merchant

	SaveFunc            func(ctx context.Context, tx repository.Tx, m *model.Merchant) error
	FindByIDFunc        func(ctx context.Context, tx repository.Tx, id string) (*model.Merchant, error)
	SetOpenFunc         func(ctx context.Context, tx repository.Tx, id string, open bool, now time.Time) error
	ListBillableIDsFunc func(ctx context.Context, tx repository.Tx) ([]string, error)
	PurgeDeletedFunc    func(ctx context.Context, tx repository.Tx, before time.Time) (int64, error)
}

func NewMockMerchantRepo() *MockMerchantRepo {
	return &MockMerchantRepo{data: map[string]*model.Merchant{}}
}

var _ repository.MerchantRepository = (*MockMerchantRepo)(nil)

func (r *MockMerchantRepo) Save(ctx context.Context, tx repository.Tx, m *model.Merchant) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, m)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *m
	r.data[m.ID] = &cp
	return nil
}

func (r *MockMerchantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Merchant, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *MockMerchantRepo) SetOpen(ctx context.Context, tx repository.Tx, id string, open bool, now time.Time) error {
	if r.SetOpenFunc != nil {
		return r.SetOpenFunc(ctx, tx, id, open, now)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.IsOpen = open
	m.UpdatedAt = now
	return nil
}

func (r *MockMerchantRepo) ListBillableIDs(ctx context.Context, tx repository.Tx) ([]string, error) {
	if r.ListBillableIDsFunc != nil {
		return r.ListBillableIDsFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for id, m := range r.data {
		if m.DeletedAt == nil {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *MockMerchantRepo) PurgeDeleted(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	if r.PurgeDeletedFunc != nil {
		return r.PurgeDeletedFunc(ctx, tx, before)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, m := range r.data {
		if m.DeletedAt != nil && m.DeletedAt.Before(before) {
			delete(r.data, id)
			n++
		}
	}
	return n, nil
}

// ---- Mock CatalogRepository ----

type MockCatalogRepo struct {
	PurgeDeletedFunc func(ctx context.Context, tx repository.Tx, before time.Time) (int64, error)
}

var _ repository.CatalogRepository = (*MockCatalogRepo)(nil)

func (r *MockCatalogRepo) PurgeDeleted(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	if r.PurgeDeletedFunc != nil {
		return r.PurgeDeletedFunc(ctx, tx, before)
	}
	return 0, nil
}

// ---- Mock BalanceRepository ----

type MockBalanceRepo struct {
	mu   sync.Mutex
	data map[string]*model.Balance // keyed by merchantID+"/"+currency

	FindFunc   func(ctx context.Context, tx repository.Tx, merchantID, currency string) (*model.Balance, error)
	DebitFunc  func(ctx context.Context, tx repository.Tx, merchantID, currency string, amount decimal.Decimal) error
	CreditFunc func(ctx context.Context, tx repository.Tx, merchantID, currency string, amount decimal.Decimal) error
}

func NewMockBalanceRepo() *MockBalanceRepo {
	return &MockBalanceRepo{data: map[string]*model.Balance{}}
}

var _ repository.BalanceRepository = (*MockBalanceRepo)(nil)

func balanceKey(merchantID, currency string) string { return merchantID + "/" + currency }

func (r *MockBalanceRepo) Find(ctx context.Context, tx repository.Tx, merchantID, currency string) (*model.Balance, error) {
	if r.FindFunc != nil {
		return r.FindFunc(ctx, tx, merchantID, currency)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[balanceKey(merchantID, currency)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

// Debit mirrors the real repository's guard: a missing row or an amount
// larger than the stored balance is an insufficient-balance error, never a
// negative balance.
func (r *MockBalanceRepo) Debit(ctx context.Context, tx repository.Tx, merchantID, currency string, amount decimal.Decimal) error {
	if r.DebitFunc != nil {
		return r.DebitFunc(ctx, tx, merchantID, currency, amount)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[balanceKey(merchantID, currency)]
	if !ok || b.Amount.LessThan(amount) {
		return domain.ErrInsufficientBalance
	}
	b.Amount = b.Amount.Sub(amount)
	return nil
}

func (r *MockBalanceRepo) Credit(ctx context.Context, tx repository.Tx, merchantID, currency string, amount decimal.Decimal) error {
	if r.CreditFunc != nil {
		return r.CreditFunc(ctx, tx, merchantID, currency, amount)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := balanceKey(merchantID, currency)
	b, ok := r.data[key]
	if !ok {
		r.data[key] = &model.Balance{MerchantID: merchantID, Currency: currency, Amount: amount}
		return nil
	}
	b.Amount = b.Amount.Add(amount)
	return nil
}

// setBalance seeds a balance row directly, bypassing the Credit path.
func (r *MockBalanceRepo) setBalance(merchantID, currency string, amount decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[balanceKey(merchantID, currency)] = &model.Balance{MerchantID: merchantID, Currency: currency, Amount: amount}
}

// ---- Mock SubscriptionHistoryRepository ----

type MockHistoryRepo struct {
	mu      sync.Mutex
	Entries []*model.SubscriptionHistory

	AppendFunc func(ctx context.Context, tx repository.Tx, h *model.SubscriptionHistory) error
}

func NewMockHistoryRepo() *MockHistoryRepo {
	return &MockHistoryRepo{}
}

var _ repository.SubscriptionHistoryRepository = (*MockHistoryRepo)(nil)

func (r *MockHistoryRepo) Append(ctx context.Context, tx repository.Tx, h *model.SubscriptionHistory) error {
	if r.AppendFunc != nil {
		return r.AppendFunc(ctx, tx, h)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *h
	r.Entries = append(r.Entries, &cp)
	return nil
}

func (r *MockHistoryRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string, limit int) ([]*model.SubscriptionHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.SubscriptionHistory
	for i := len(r.Entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.Entries[i].MerchantID == merchantID {
			cp := *r.Entries[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ---- Mock NotificationRepository ----

type MockNotificationRepo struct {
	mu   sync.Mutex
	Rows []*model.Notification

	EnqueueFunc  func(ctx context.Context, tx repository.Tx, n *model.Notification) error
	MarkSentFunc func(ctx context.Context, tx repository.Tx, id string) error
}

func NewMockNotificationRepo() *MockNotificationRepo {
	return &MockNotificationRepo{}
}

var _ repository.NotificationRepository = (*MockNotificationRepo)(nil)

func (r *MockNotificationRepo) Enqueue(ctx context.Context, tx repository.Tx, n *model.Notification) error {
	if r.EnqueueFunc != nil {
		return r.EnqueueFunc(ctx, tx, n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.Rows = append(r.Rows, &cp)
	return nil
}

func (r *MockNotificationRepo) ListUnsent(ctx context.Context, tx repository.Tx, limit int) ([]*model.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Notification
	for _, n := range r.Rows {
		if n.SentAt == nil {
			cp := *n
			out = append(out, &cp)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *MockNotificationRepo) MarkSent(ctx context.Context, tx repository.Tx, id string) error {
	if r.MarkSentFunc != nil {
		return r.MarkSentFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.Rows {
		if n.ID == id && n.SentAt == nil {
			now := time.Now()
			n.SentAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

// unsentCount reports how many rows still await delivery.
func (r *MockNotificationRepo) unsentCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, row := range r.Rows {
		if row.SentAt == nil {
			n++
		}
	}
	return n
}

// ---- Mock PaymentRequestRepository ----

type MockPaymentRequestRepo struct {
	mu   sync.Mutex
	data map[string]*model.PaymentRequest

	SaveFunc               func(ctx context.Context, tx repository.Tx, p *model.PaymentRequest) error
	FindOpenByMerchantFunc func(ctx context.Context, tx repository.Tx, merchantID string) (*model.PaymentRequest, error)
	PurgeTerminalFunc      func(ctx context.Context, tx repository.Tx, before time.Time) (int64, error)
}

func NewMockPaymentRequestRepo() *MockPaymentRequestRepo {
	return &MockPaymentRequestRepo{data: map[string]*model.PaymentRequest{}}
}

var _ repository.PaymentRequestRepository = (*MockPaymentRequestRepo)(nil)

func (r *MockPaymentRequestRepo) Save(ctx context.Context, tx repository.Tx, p *model.PaymentRequest) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPaymentRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MockPaymentRequestRepo) FindByIDForUpdate(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRequest, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *MockPaymentRequestRepo) FindOpenByMerchant(ctx context.Context, tx repository.Tx, merchantID string) (*model.PaymentRequest, error) {
	if r.FindOpenByMerchantFunc != nil {
		return r.FindOpenByMerchantFunc(ctx, tx, merchantID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.MerchantID == merchantID && p.Open() {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRequestRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string, limit int) ([]*model.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentRequest
	for _, p := range r.data {
		if p.MerchantID == merchantID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MockPaymentRequestRepo) ExpireStalePending(ctx context.Context, tx repository.Tx, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, p := range r.data {
		if p.Status == model.PaymentRequestStatusPending && p.ExpiresAt.Before(now) {
			p.Status = model.PaymentRequestStatusExpired
			p.ResolvedAt = &now
			p.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *MockPaymentRequestRepo) PurgeTerminal(ctx context.Context, tx repository.Tx, before time.Time) (int64, error) {
	if r.PurgeTerminalFunc != nil {
		return r.PurgeTerminalFunc(ctx, tx, before)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.data {
		switch p.Status {
		case model.PaymentRequestStatusRejected, model.PaymentRequestStatusCancelled, model.PaymentRequestStatusExpired:
			if p.ResolvedAt != nil && p.ResolvedAt.Before(before) {
				delete(r.data, id)
				n++
			}
		}
	}
	return n, nil
}

// ---- Mock Locker ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string

	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
	UnlockFunc  func(ctx context.Context, key, token string) error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if l.TryLockFunc != nil {
		return l.TryLockFunc(ctx, key, ttl)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrSweepInProgress
	}
	token := uuid.NewString()
	l.held[key] = token
	return token, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	if l.UnlockFunc != nil {
		return l.UnlockFunc(ctx, key, token)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] != token {
		return domain.ErrNotFound
	}
	delete(l.held, key)
	return nil
}

// ---- Mock NotificationSender ----

type MockSender struct {
	mu   sync.Mutex
	Sent []*model.Notification

	SendFunc func(ctx context.Context, n *model.Notification) error
}

var _ adapter.NotificationSender = (*MockSender)(nil)

func (s *MockSender) Send(ctx context.Context, n *model.Notification) error {
	if s.SendFunc != nil {
		return s.SendFunc(ctx, n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.Sent = append(s.Sent, &cp)
	return nil
}
