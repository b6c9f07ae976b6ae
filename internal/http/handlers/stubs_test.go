package handlers

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"urbangen/internal/billing"
	"urbangen/internal/domain"
	"urbangen/internal/infra"
	"urbangen/internal/providers/grsai"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*domain.User)}
}

func (m *memUsers) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
		if existing.Name == user.Name {
			return domain.ErrDuplicateName
		}
	}
	clone := *user
	m.users[user.ID] = &clone
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memUsers) SetCredits(ctx context.Context, id string, credits int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.Credits = credits
	return nil
}

func (m *memUsers) DebitCredits(ctx context.Context, id string, cost int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if user.Credits < cost {
		return 0, domain.ErrInsufficientCredits
	}
	user.Credits -= cost
	return user.Credits, nil
}

func (m *memUsers) AddCredits(ctx context.Context, id string, amount int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	user.Credits += amount
	return user.Credits, nil
}

func (m *memUsers) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return 0, nil
}

func (m *memUsers) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

type memRecords struct {
	mu      sync.Mutex
	records []domain.GenerationRecord
}

func (m *memRecords) Create(ctx context.Context, record *domain.GenerationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

func (m *memRecords) ListByUser(ctx context.Context, userID string) ([]domain.GenerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.GenerationRecord
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].UserID == userID {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func (m *memRecords) ListAll(ctx context.Context) ([]domain.GenerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.GenerationRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memRecords) Stats(ctx context.Context) (*domain.AdminStats, error) {
	return &domain.AdminStats{}, nil
}

type memOrders struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
}

func newMemOrders() *memOrders {
	return &memOrders{orders: make(map[string]*domain.Order)}
}

func (m *memOrders) Create(ctx context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *order
	m.orders[order.ID] = &clone
	return nil
}

func (m *memOrders) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *order
	return &clone, nil
}

func (m *memOrders) MarkPaid(ctx context.Context, id, tradeNo string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if order.Status != domain.OrderStatusPending {
		return nil, domain.ErrDuplicateOperation
	}
	order.Status = domain.OrderStatusSuccess
	order.TradeNo = tradeNo
	clone := *order
	return &clone, nil
}

func (m *memOrders) ListAll(ctx context.Context) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Order
	for _, order := range m.orders {
		out = append(out, *order)
	}
	return out, nil
}

// stubGenerator returns a fixed artifact or error.
type stubGenerator struct {
	artifact *grsai.Artifact
	err      error
	lastReq  grsai.GenerationRequest
	calls    int
}

func (g *stubGenerator) Generate(ctx context.Context, req grsai.GenerationRequest, onProgress grsai.ProgressFunc) (*grsai.Artifact, error) {
	g.calls++
	g.lastReq = req
	if g.err != nil {
		return nil, g.err
	}
	if onProgress != nil {
		onProgress(50)
	}
	return g.artifact, nil
}

// memStore records saved artifacts without touching disk.
type memStore struct {
	mu    sync.Mutex
	saved map[string]string
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string]string)}
}

func (s *memStore) SaveImage(ctx context.Context, imageID, imageData string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved[imageID] = imageData
	return "/tmp/" + imageID + ".png", nil
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func testLogger() *infra.Logger {
	discard := zerolog.New(io.Discard)
	l := infra.Logger(discard)
	return &l
}

func newTestApp(users *memUsers, records *memRecords, orders *memOrders, gen *stubGenerator) *App {
	store := newMemStore()
	svc := billing.NewService(billing.Options{
		Users:   users,
		Records: records,
		Orders:  orders,
		Store:   store,
		Logger:  testLogger(),
	})
	cfg := &infra.Config{
		JWTSecret:       "test-secret",
		StorageBaseURL:  "http://localhost:8080/static",
		RateLimitPerMin: 100,
	}
	return &App{
		Users:     users,
		Records:   records,
		Orders:    orders,
		Generator: gen,
		Billing:   svc,
		Cfg:       cfg,
		Logger:    testLogger(),
	}
}
