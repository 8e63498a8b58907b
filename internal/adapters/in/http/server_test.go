package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apihttp "ingestion/internal/adapters/in/http"
	"ingestion/internal/core/application/usecases/commands"
	"ingestion/internal/core/application/usecases/queries"
	"ingestion/internal/core/domain/model/order"
	"ingestion/internal/core/ports"
	"ingestion/internal/pkg/errs"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryOrderStore is a minimal in-memory ports.OrderRepository for
// endpoint tests.
type memoryOrderStore struct {
	nextID int64
	byReq  map[string]*order.Order
}

func newMemoryOrderStore() *memoryOrderStore {
	return &memoryOrderStore{byReq: make(map[string]*order.Order)}
}

func (s *memoryOrderStore) Add(_ context.Context, aggregate *order.Order) error {
	if _, exists := s.byReq[aggregate.RequestID()]; exists {
		return ports.ErrDuplicateRequestID
	}
	s.nextID++
	if err := aggregate.AssignID(s.nextID); err != nil {
		return err
	}
	s.byReq[aggregate.RequestID()] = aggregate
	return nil
}

func (s *memoryOrderStore) Get(_ context.Context, id int64) (*order.Order, error) {
	for _, aggregate := range s.byReq {
		if aggregate.ID() == id {
			return aggregate, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("orderId", id)
}

func (s *memoryOrderStore) FindByRequestID(_ context.Context, requestID string) (*order.Order, error) {
	return s.byReq[requestID], nil
}

func (s *memoryOrderStore) TransitionStatus(_ context.Context, id int64, from, to order.Status) (bool, error) {
	aggregate, err := s.Get(context.Background(), id)
	if err != nil || aggregate.Status() != from {
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

func (s *memoryOrderStore) FindStalePending(context.Context, time.Time) ([]*order.Order, error) {
	return nil, nil
}

type memoryUoW struct{ store *memoryOrderStore }

func (u memoryUoW) Begin(context.Context) error            { return nil }
func (u memoryUoW) Commit(context.Context) error           { return nil }
func (u memoryUoW) Rollback(context.Context) error         { return nil }
func (u memoryUoW) OrderRepository() ports.OrderRepository { return u.store }

type memoryUoWFactory struct{ store *memoryOrderStore }

func (f memoryUoWFactory) Create() commands.OrderUoW { return memoryUoW{store: f.store} }

type silentPublisher struct{}

func (silentPublisher) PublishOrderCreated(context.Context, order.CreatedEvent) error { return nil }

func newTestServer() (*echo.Echo, *memoryOrderStore) {
	store := newMemoryOrderStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ingestHandler := commands.NewIngestOrderCommandHandler(
		commands.NewIdempotencyGuard(store),
		memoryUoWFactory{store: store},
		store,
		silentPublisher{},
		logger,
	)

	server := apihttp.NewServer(ingestHandler, queries.GetOrderByIDQueryHandler{})
	e := echo.New()
	server.RegisterRoutes(e)
	return e, store
}

func postOrder(t *testing.T, e *echo.Echo, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

const validBody = `{
	"requestId": "R1",
	"platform": "web",
	"customer": {"email": "jane.doe@example.com", "firstName": "Jane", "lastName": "Doe"},
	"items": [{"productSku": "SKU-1", "productName": "Widget", "quantity": 2, "unitPrice": "10.00"}]
}`

func TestIngestOrder_CreatesOrder(t *testing.T) {
	e, _ := newTestServer()

	rec := postOrder(t, e, validBody)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp apihttp.IngestOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, int64(1), resp.OrderID)
	assert.Equal(t, "R1", resp.RequestID)
	assert.Equal(t, "Pending", resp.Status)
	assert.Equal(t, "20.00", resp.TotalAmount.StringFixed(2))
	assert.True(t, resp.IsSuccess)
	assert.Equal(t, "Order created successfully", resp.Message)
}

func TestIngestOrder_ReplayReturnsOriginalOrder(t *testing.T) {
	e, _ := newTestServer()

	first := postOrder(t, e, validBody)
	require.Equal(t, http.StatusOK, first.Code)

	second := postOrder(t, e, validBody)
	require.Equal(t, http.StatusOK, second.Code)

	var firstResp, secondResp apihttp.IngestOrderResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &firstResp))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &secondResp))

	assert.Equal(t, firstResp.OrderID, secondResp.OrderID)
	assert.False(t, secondResp.IsSuccess)
	assert.Equal(t, "Order already processed (idempotent request)", secondResp.Message)
	assert.Equal(t, "20.00", secondResp.TotalAmount.StringFixed(2))
}

func TestIngestOrder_ValidationFailures(t *testing.T) {
	e, store := newTestServer()

	testCases := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "missing request id",
			body:     `{"customer": {"email": "a@b.com", "firstName": "A", "lastName": "B"}, "items": [{"productSku": "S", "productName": "N", "quantity": 1, "unitPrice": "1.00"}]}`,
			expected: "requestId is required",
		},
		{
			name:     "empty items",
			body:     `{"requestId": "R2", "customer": {"email": "a@b.com", "firstName": "A", "lastName": "B"}, "items": []}`,
			expected: "items must not be empty",
		},
		{
			name:     "zero quantity",
			body:     `{"requestId": "R3", "customer": {"email": "a@b.com", "firstName": "A", "lastName": "B"}, "items": [{"productSku": "S", "productName": "N", "quantity": 0, "unitPrice": "1.00"}]}`,
			expected: "items[0].quantity must be greater than zero",
		},
		{
			name:     "negative price",
			body:     `{"requestId": "R4", "customer": {"email": "a@b.com", "firstName": "A", "lastName": "B"}, "items": [{"productSku": "S", "productName": "N", "quantity": 1, "unitPrice": "-1"}]}`,
			expected: "items[0].unitPrice must not be negative",
		},
		{
			name:     "sub-cent unit price",
			body:     `{"requestId": "R6", "customer": {"email": "a@b.com", "firstName": "A", "lastName": "B"}, "items": [{"productSku": "S", "productName": "N", "quantity": 2, "unitPrice": "10.005"}]}`,
			expected: "items[0].unitPrice must have at most two decimal places",
		},
		{
			name:     "missing customer email",
			body:     `{"requestId": "R5", "customer": {"firstName": "A", "lastName": "B"}, "items": [{"productSku": "S", "productName": "N", "quantity": 1, "unitPrice": "1.00"}]}`,
			expected: "customer.email is required",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postOrder(t, e, tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.expected)
		})
	}

	// Nothing was persisted by any rejected request.
	assert.Empty(t, store.byReq)
}

func TestIngestOrder_InvalidEmailRejectedByDomain(t *testing.T) {
	e, store := newTestServer()

	body := `{
		"requestId": "R1",
		"customer": {"email": "not-an-email", "firstName": "Jane", "lastName": "Doe"},
		"items": [{"productSku": "SKU-1", "productName": "Widget", "quantity": 1, "unitPrice": "1.00"}]
	}`
	rec := postOrder(t, e, body)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.byReq)
}

func TestHealth(t *testing.T) {
	e, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Healthy", rec.Body.String())
}

func TestGetOrderByID_InvalidID(t *testing.T) {
	e, _ := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/abc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Order id must be an integer")
}
