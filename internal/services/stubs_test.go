package services

import (
	"context"
	"errors"
	"sync"
	"time"

	domain "github.com/PurePlantProtein/retail-final-ppp-sub002/internal/domain"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/payments"
	"github.com/PurePlantProtein/retail-final-ppp-sub002/internal/repositories"
)

// repoErrorStub satisfies repositories.RepositoryError for error mapping tests.
type repoErrorStub struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e repoErrorStub) Error() string       { return "repository error" }
func (e repoErrorStub) IsNotFound() bool    { return e.notFound }
func (e repoErrorStub) IsConflict() bool    { return e.conflict }
func (e repoErrorStub) IsUnavailable() bool { return e.unavailable }

var errRepoNotFound = repoErrorStub{notFound: true}

type stubProductRepo struct {
	upsertFn   func(context.Context, domain.Product) (domain.Product, error)
	deleteFn   func(context.Context, string) error
	findByIDFn func(context.Context, string) (domain.Product, error)
	listFn     func(context.Context, repositories.ProductListFilter) (domain.CursorPage[domain.Product], error)
}

func (s *stubProductRepo) Upsert(ctx context.Context, product domain.Product) (domain.Product, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, product)
	}
	return product, nil
}

func (s *stubProductRepo) Delete(ctx context.Context, productID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, productID)
	}
	return nil
}

func (s *stubProductRepo) FindByID(ctx context.Context, productID string) (domain.Product, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, productID)
	}
	return domain.Product{}, errRepoNotFound
}

func (s *stubProductRepo) List(ctx context.Context, filter repositories.ProductListFilter) (domain.CursorPage[domain.Product], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Product]{}, nil
}

type stubTierRepo struct {
	upsertFn      func(context.Context, domain.PricingTier) (domain.PricingTier, error)
	deleteFn      func(context.Context, string) error
	findByIDFn    func(context.Context, string) (domain.PricingTier, error)
	findDefaultFn func(context.Context) (domain.PricingTier, error)
	listFn        func(context.Context) ([]domain.PricingTier, error)
}

func (s *stubTierRepo) Upsert(ctx context.Context, tier domain.PricingTier) (domain.PricingTier, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, tier)
	}
	return tier, nil
}

func (s *stubTierRepo) Delete(ctx context.Context, tierID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, tierID)
	}
	return nil
}

func (s *stubTierRepo) FindByID(ctx context.Context, tierID string) (domain.PricingTier, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, tierID)
	}
	return domain.PricingTier{}, errRepoNotFound
}

func (s *stubTierRepo) FindDefault(ctx context.Context) (domain.PricingTier, error) {
	if s.findDefaultFn != nil {
		return s.findDefaultFn(ctx)
	}
	return domain.PricingTier{}, errRepoNotFound
}

func (s *stubTierRepo) List(ctx context.Context) ([]domain.PricingTier, error) {
	if s.listFn != nil {
		return s.listFn(ctx)
	}
	return nil, nil
}

type stubShippingRepo struct {
	upsertFn   func(context.Context, domain.ShippingOption) (domain.ShippingOption, error)
	deleteFn   func(context.Context, string) error
	findByIDFn func(context.Context, string) (domain.ShippingOption, error)
	listFn     func(context.Context, bool) ([]domain.ShippingOption, error)
}

func (s *stubShippingRepo) Upsert(ctx context.Context, option domain.ShippingOption) (domain.ShippingOption, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, option)
	}
	return option, nil
}

func (s *stubShippingRepo) Delete(ctx context.Context, optionID string) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, optionID)
	}
	return nil
}

func (s *stubShippingRepo) FindByID(ctx context.Context, optionID string) (domain.ShippingOption, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, optionID)
	}
	return domain.ShippingOption{}, errRepoNotFound
}

func (s *stubShippingRepo) List(ctx context.Context, activeOnly bool) ([]domain.ShippingOption, error) {
	if s.listFn != nil {
		return s.listFn(ctx, activeOnly)
	}
	return nil, nil
}

type stubOrderRepo struct {
	mu         sync.Mutex
	inserted   []domain.Order
	updated    []domain.Order
	insertFn   func(context.Context, domain.Order) error
	updateFn   func(context.Context, domain.Order) error
	findByIDFn func(context.Context, string) (domain.Order, error)
	listFn     func(context.Context, repositories.OrderListFilter) (domain.CursorPage[domain.Order], error)
}

func (s *stubOrderRepo) Insert(ctx context.Context, order domain.Order) error {
	s.mu.Lock()
	s.inserted = append(s.inserted, order)
	s.mu.Unlock()
	if s.insertFn != nil {
		return s.insertFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) Update(ctx context.Context, order domain.Order) error {
	s.mu.Lock()
	s.updated = append(s.updated, order)
	s.mu.Unlock()
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return nil
}

func (s *stubOrderRepo) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, orderID)
	}
	return domain.Order{}, errRepoNotFound
}

func (s *stubOrderRepo) List(ctx context.Context, filter repositories.OrderListFilter) (domain.CursorPage[domain.Order], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.Order]{}, nil
}

type stubUserRepo struct {
	upsertFn      func(context.Context, domain.UserProfile) (domain.UserProfile, error)
	findByIDFn    func(context.Context, string) (domain.UserProfile, error)
	listFn        func(context.Context, repositories.UserListFilter) (domain.CursorPage[domain.UserProfile], error)
	setRoleFn     func(context.Context, string, string) (domain.UserProfile, error)
	setApprovedFn func(context.Context, string, bool) (domain.UserProfile, error)
	assignTierFn  func(context.Context, string, string) (domain.UserProfile, error)
}

func (s *stubUserRepo) Upsert(ctx context.Context, profile domain.UserProfile) (domain.UserProfile, error) {
	if s.upsertFn != nil {
		return s.upsertFn(ctx, profile)
	}
	return profile, nil
}

func (s *stubUserRepo) FindByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	if s.findByIDFn != nil {
		return s.findByIDFn(ctx, userID)
	}
	return domain.UserProfile{}, errRepoNotFound
}

func (s *stubUserRepo) List(ctx context.Context, filter repositories.UserListFilter) (domain.CursorPage[domain.UserProfile], error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter)
	}
	return domain.CursorPage[domain.UserProfile]{}, nil
}

func (s *stubUserRepo) SetRole(ctx context.Context, userID, role string) (domain.UserProfile, error) {
	if s.setRoleFn != nil {
		return s.setRoleFn(ctx, userID, role)
	}
	return domain.UserProfile{ID: userID, Role: role}, nil
}

func (s *stubUserRepo) SetApproved(ctx context.Context, userID string, approved bool) (domain.UserProfile, error) {
	if s.setApprovedFn != nil {
		return s.setApprovedFn(ctx, userID, approved)
	}
	return domain.UserProfile{ID: userID, Approved: approved}, nil
}

func (s *stubUserRepo) AssignPricingTier(ctx context.Context, userID, tierID string) (domain.UserProfile, error) {
	if s.assignTierFn != nil {
		return s.assignTierFn(ctx, userID, tierID)
	}
	return domain.UserProfile{ID: userID, PricingTierID: tierID}, nil
}

// memoryCartStore is an in-memory CartStore with optional injected failures.
type memoryCartStore struct {
	mu       sync.Mutex
	lines    map[string][]domain.CartLine
	saveErr  error
	loadErr  error
	clearErr error
	cleared  []string
}

func newMemoryCartStore() *memoryCartStore {
	return &memoryCartStore{lines: map[string][]domain.CartLine{}}
}

func (m *memoryCartStore) Load(ctx context.Context, profileID string) ([]domain.CartLine, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lines := make([]domain.CartLine, len(m.lines[profileID]))
	copy(lines, m.lines[profileID])
	return lines, nil
}

func (m *memoryCartStore) Save(ctx context.Context, profileID string, lines []domain.CartLine) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := make([]domain.CartLine, len(lines))
	copy(stored, lines)
	m.lines[profileID] = stored
	return nil
}

func (m *memoryCartStore) Clear(ctx context.Context, profileID string) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.lines, profileID)
	m.cleared = append(m.cleared, profileID)
	return nil
}

// fixedPricing returns the same tier for every caller.
type fixedPricing struct {
	tier domain.PricingTier
	err  error
}

func (f fixedPricing) TierForUser(ctx context.Context, userID string) (domain.PricingTier, error) {
	return f.tier, f.err
}

type stubPaymentProvider struct {
	mu       sync.Mutex
	requests []payments.IntentRequest
	createFn func(context.Context, payments.IntentRequest) (payments.Intent, error)
}

func (s *stubPaymentProvider) CreateIntent(ctx context.Context, req payments.IntentRequest) (payments.Intent, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.createFn != nil {
		return s.createFn(ctx, req)
	}
	return payments.Intent{ID: "pi_test", ClientSecret: "pi_test_secret", Amount: req.Amount, Currency: req.Currency}, nil
}

func (s *stubPaymentProvider) LookupPayment(ctx context.Context, intentID string) (payments.PaymentDetails, error) {
	return payments.PaymentDetails{}, errors.New("not implemented")
}

func (s *stubPaymentProvider) Refund(ctx context.Context, req payments.RefundRequest) (payments.PaymentDetails, error) {
	return payments.PaymentDetails{}, errors.New("not implemented")
}

type stubCounterRepo struct {
	nextFn func(context.Context, string, int64) (int64, error)
}

func (s *stubCounterRepo) Next(ctx context.Context, counterID string, step int64) (int64, error) {
	if s.nextFn != nil {
		return s.nextFn(ctx, counterID, step)
	}
	return 1, nil
}

// memorySettingsStore keeps one settings record per profile in memory.
type memorySettingsStore struct {
	mu      sync.Mutex
	records map[string]domain.EmailSettings
	loadErr error
	saveErr error
}

func newMemorySettingsStore() *memorySettingsStore {
	return &memorySettingsStore{records: map[string]domain.EmailSettings{}}
}

func (m *memorySettingsStore) Load(ctx context.Context, profileID string) (domain.EmailSettings, error) {
	if m.loadErr != nil {
		return domain.EmailSettings{}, m.loadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if record, ok := m.records[profileID]; ok {
		return record, nil
	}
	return domain.DefaultEmailSettings(), nil
}

func (m *memorySettingsStore) Save(ctx context.Context, profileID string, settings domain.EmailSettings) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[profileID] = settings
	return nil
}

type capturePublisher struct {
	mu        sync.Mutex
	messages  []EmailJobMessage
	publishFn func(context.Context, EmailJobMessage) (string, error)
}

func (c *capturePublisher) PublishEmailJob(ctx context.Context, msg EmailJobMessage) (string, error) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	if c.publishFn != nil {
		return c.publishFn(ctx, msg)
	}
	return "msg-" + msg.RecipientClass, nil
}

type stubEmailService struct {
	mu         sync.Mutex
	dispatched []domain.Order
	dispatchFn func(context.Context, domain.Order) ([]string, error)
}

func (s *stubEmailService) Settings(ctx context.Context) (domain.EmailSettings, error) {
	return domain.DefaultEmailSettings(), nil
}

func (s *stubEmailService) UpdateSettings(ctx context.Context, cmd UpdateEmailSettingsCommand) (domain.EmailSettings, error) {
	return domain.DefaultEmailSettings(), nil
}

func (s *stubEmailService) DispatchOrderEmails(ctx context.Context, order domain.Order) ([]string, error) {
	s.mu.Lock()
	s.dispatched = append(s.dispatched, order)
	s.mu.Unlock()
	if s.dispatchFn != nil {
		return s.dispatchFn(ctx, order)
	}
	return []string{"msg-admin"}, nil
}

// memoryActivityStore records per-profile activity instants.
type memoryActivityStore struct {
	mu      sync.Mutex
	touched map[string]time.Time
	readErr error
}

func newMemoryActivityStore() *memoryActivityStore {
	return &memoryActivityStore{touched: map[string]time.Time{}}
}

func (m *memoryActivityStore) Touch(ctx context.Context, profileID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[profileID] = at
	return nil
}

func (m *memoryActivityStore) LastActivity(ctx context.Context, profileID string) (int64, error) {
	if m.readErr != nil {
		return 0, m.readErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.touched[profileID]
	if !ok {
		return 0, nil
	}
	return at.UnixMilli(), nil
}
