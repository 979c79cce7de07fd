package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dokani/risk-service/internal/domain/model"
	"github.com/dokani/risk-service/internal/domain/port"
	"github.com/dokani/risk-service/internal/infrastructure/memory"
	"github.com/dokani/risk-service/pkg/events"
)

// --- Mock implementations ---

// mockProfileRepository delegates to an in-memory store unless a func is set.
type mockProfileRepository struct {
	store           *memory.Store
	getOrCreateFunc func(ctx context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error)
	findByKeyFunc   func(ctx context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error)
	saveFunc        func(ctx context.Context, profile *model.CustomerRiskProfile) error
	saves           int
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{store: memory.NewStore()}
}

func (m *mockProfileRepository) GetOrCreate(ctx context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error) {
	if m.getOrCreateFunc != nil {
		return m.getOrCreateFunc(ctx, key)
	}
	return m.store.GetOrCreate(ctx, key)
}

func (m *mockProfileRepository) FindByKey(ctx context.Context, key model.ProfileKey) (*model.CustomerRiskProfile, error) {
	if m.findByKeyFunc != nil {
		return m.findByKeyFunc(ctx, key)
	}
	return m.store.FindByKey(ctx, key)
}

func (m *mockProfileRepository) Save(ctx context.Context, profile *model.CustomerRiskProfile) error {
	m.saves++
	if m.saveFunc != nil {
		return m.saveFunc(ctx, profile)
	}
	return m.store.Save(ctx, profile)
}

type mockActivity struct {
	countFunc func(ctx context.Context, key model.ProfileKey, since time.Time) (int, error)
	since     time.Time
	count     int
}

func (m *mockActivity) CountRecentReturns(ctx context.Context, key model.ProfileKey, since time.Time) (int, error) {
	m.since = since
	if m.countFunc != nil {
		return m.countFunc(ctx, key, since)
	}
	return m.count, nil
}

type mockRecorder struct {
	recorded   []port.ReturnRequest
	recordFunc func(ctx context.Context, req port.ReturnRequest) error
}

func (m *mockRecorder) RecordReturn(ctx context.Context, req port.ReturnRequest) error {
	if m.recordFunc != nil {
		return m.recordFunc(ctx, req)
	}
	m.recorded = append(m.recorded, req)
	return nil
}

type mockEventPublisher struct {
	publishedEvents []events.DomainEvent
	publishFunc     func(ctx context.Context, evts ...events.DomainEvent) error
	mu              sync.Mutex
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

func (m *mockEventPublisher) eventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.publishedEvents))
	for _, e := range m.publishedEvents {
		out = append(out, e.EventType())
	}
	return out
}

type mockMetrics struct {
	calculations []string
	updates      int
}

func (m *mockMetrics) RecordCalculation(_ context.Context, recommendation string, _ float64) {
	m.calculations = append(m.calculations, recommendation)
}

func (m *mockMetrics) RecordProfileUpdate(context.Context) { m.updates++ }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }
