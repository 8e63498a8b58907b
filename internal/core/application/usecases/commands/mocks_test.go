package commands_test

import (
	"context"
	"sync"
	"time"

	"ingestion/internal/core/application/usecases/commands"
	"ingestion/internal/core/domain/model/order"
	"ingestion/internal/core/ports"
	"ingestion/internal/pkg/errs"

	"github.com/stretchr/testify/mock"
)

type MockOrderRepository struct{ mock.Mock }

func (m *MockOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	args := m.Called(ctx, aggregate)
	return args.Error(0)
}

func (m *MockOrderRepository) Get(ctx context.Context, id int64) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByRequestID(ctx context.Context, requestID string) (*order.Order, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) TransitionStatus(
	ctx context.Context, id int64, from, to order.Status,
) (bool, error) {
	args := m.Called(ctx, id, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) FindStalePending(ctx context.Context, olderThan time.Time) ([]*order.Order, error) {
	args := m.Called(ctx, olderThan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

type MockOrderUoW struct{ mock.Mock }

func (m *MockOrderUoW) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockOrderUoW) OrderRepository() ports.OrderRepository {
	args := m.Called()
	return args.Get(0).(ports.OrderRepository)
}

type MockOrderUoWFactory struct{ mock.Mock }

func (m *MockOrderUoWFactory) Create() commands.OrderUoW {
	args := m.Called()
	return args.Get(0).(commands.OrderUoW)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) PublishOrderCreated(ctx context.Context, event order.CreatedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockLogisticsGateway struct{ mock.Mock }

func (m *MockLogisticsGateway) Notify(ctx context.Context, orderID int64, requestID string) error {
	args := m.Called(ctx, orderID, requestID)
	return args.Error(0)
}

// fakeOrderStore is an in-memory ports.OrderRepository with a real unique
// constraint on the request id, used for concurrency tests where expectation
// ordering on mocks cannot express interleavings.
type fakeOrderStore struct {
	mu     sync.Mutex
	nextID int64
	byReq  map[string]*order.Order
	byID   map[int64]*order.Order
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		byReq: make(map[string]*order.Order),
		byID:  make(map[int64]*order.Order),
	}
}

func (s *fakeOrderStore) Add(_ context.Context, aggregate *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byReq[aggregate.RequestID()]; exists {
		return ports.ErrDuplicateRequestID
	}

	s.nextID++
	if err := aggregate.AssignID(s.nextID); err != nil {
		return err
	}
	s.byReq[aggregate.RequestID()] = aggregate
	s.byID[aggregate.ID()] = aggregate
	return nil
}

func (s *fakeOrderStore) Get(_ context.Context, id int64) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	aggregate, ok := s.byID[id]
	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id)
	}
	return aggregate, nil
}

func (s *fakeOrderStore) FindByRequestID(_ context.Context, requestID string) (*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byReq[requestID], nil
}

func (s *fakeOrderStore) TransitionStatus(
	_ context.Context, id int64, from, to order.Status,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	aggregate, ok := s.byID[id]
	if !ok || aggregate.Status() != from {
		return false, nil
	}

	switch to {
	case order.Processing:
		return true, aggregate.StartProcessing()
	case order.Fulfilled:
		return true, aggregate.Fulfill()
	case order.Failed:
		return true, aggregate.Fail()
	default:
		return false, errs.NewValueIsInvalidError("status")
	}
}

func (s *fakeOrderStore) FindStalePending(_ context.Context, olderThan time.Time) ([]*order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stale []*order.Order
	for _, aggregate := range s.byID {
		if aggregate.Status() == order.Pending && aggregate.CreatedAt().Before(olderThan) {
			stale = append(stale, aggregate)
		}
	}
	return stale, nil
}

// passthroughUoW satisfies commands.OrderUoW over the fake store; the fake
// applies inserts immediately, mirroring how the unique constraint decides
// races regardless of transaction boundaries.
type passthroughUoW struct {
	store *fakeOrderStore
}

func (u passthroughUoW) Begin(context.Context) error            { return nil }
func (u passthroughUoW) Commit(context.Context) error           { return nil }
func (u passthroughUoW) Rollback(context.Context) error         { return nil }
func (u passthroughUoW) OrderRepository() ports.OrderRepository { return u.store }

type passthroughUoWFactory struct {
	store *fakeOrderStore
}

func (f passthroughUoWFactory) Create() commands.OrderUoW {
	return passthroughUoW{store: f.store}
}

// countingPublisher records publishes, optionally failing.
type countingPublisher struct {
	mu        sync.Mutex
	published []order.CreatedEvent
	fail      error
}

func (p *countingPublisher) PublishOrderCreated(_ context.Context, event order.CreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail != nil {
		return p.fail
	}
	p.published = append(p.published, event)
	return nil
}

func (p *countingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}
