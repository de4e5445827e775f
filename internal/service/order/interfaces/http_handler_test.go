package interfaces

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"ordercore/internal/pkg/metrics"
	"ordercore/internal/pkg/workerpool"
	"ordercore/internal/service/order/application"
	"ordercore/internal/service/order/application/resilience"
	"ordercore/internal/service/order/domain"
)

type stubRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newStubRepository() *stubRepository {
	return &stubRepository{orders: map[uuid.UUID]*domain.Order{}}
}

func (r *stubRepository) Save(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *order
	r.orders[order.ID] = &stored
	return &stored, nil
}

func (r *stubRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[id]; ok {
		out := *order
		return &out, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (r *stubRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID, query domain.PageQuery) (*domain.OrderPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var orders []*domain.Order
	for _, order := range r.orders {
		if order.CustomerID == customerID {
			out := *order
			orders = append(orders, &out)
		}
	}
	return &domain.OrderPage{
		Orders: orders,
		Page:   query.Page,
		Size:   query.Size,
		Total:  int64(len(orders)),
	}, nil
}

func (r *stubRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if order, ok := r.orders[id]; ok {
		order.Status = status
		return 1, nil
	}
	return 0, nil
}

type stubCache struct{}

func (stubCache) Get(ctx context.Context, key string) (domain.OrderResult, bool) {
	return domain.OrderResult{}, false
}
func (stubCache) Put(ctx context.Context, key string, result domain.OrderResult, ttl time.Duration) {}
func (stubCache) Evict(ctx context.Context, key string)                                            {}
func (stubCache) EvictPattern(ctx context.Context, pattern string)                                 {}

type stubProducer struct{}

func (stubProducer) OrderCreated(ctx context.Context, event *domain.OrderCreatedEvent) error {
	return nil
}

type stubAuthority struct {
	ok bool
}

func (s stubAuthority) CheckAvailability(ctx context.Context, items []domain.CommandItem) (bool, error) {
	return s.ok, nil
}
func (s stubAuthority) ValidateCustomer(ctx context.Context, customerID string) (bool, error) {
	return s.ok, nil
}
func (s stubAuthority) ValidatePaymentMethod(ctx context.Context, customerID, paymentMethodID string) (bool, error) {
	return s.ok, nil
}

func newTestMux(t *testing.T, repo *stubRepository, authoritiesOK bool) *http.ServeMux {
	t.Helper()

	tracer := noop.NewTracerProvider().Tracer("test")
	counters := metrics.NewCounters(prometheus.NewRegistry())
	governor := resilience.NewGovernor(resilience.GovernorConfig{
		Bulkhead: resilience.BreakerlessBulkheadConfig{Capacity: 25, MaxWait: 500 * time.Millisecond},
		Breaker: resilience.BreakerConfig{
			WindowSize:           10,
			MinCalls:             5,
			FailureRateThreshold: 0.5,
			SlowCallThreshold:    2 * time.Second,
			SlowRateThreshold:    0.5,
			OpenStateDuration:    30 * time.Second,
			HalfOpenProbes:       3,
		},
		Timeout: 2 * time.Second,
	}, domain.SystemClock{}, counters)

	authority := stubAuthority{ok: authoritiesOK}
	validator := application.NewValidationOrchestrator(authority, authority, authority, application.CheckTimeouts{
		Inventory: 100 * time.Millisecond,
		Customer:  100 * time.Millisecond,
		Payment:   100 * time.Millisecond,
	}, tracer)

	eventPool := workerpool.New("event-test", 1, 8)
	orderPool := workerpool.New("order-test", 2, 8)
	t.Cleanup(func() {
		orderPool.Shutdown(context.Background())
		eventPool.Shutdown(context.Background())
	})

	service := application.NewService(
		repo,
		stubCache{},
		domain.NewFactory(domain.SystemClock{}),
		validator,
		stubProducer{},
		application.NewRegistry(),
		governor,
		eventPool,
		counters,
		tracer,
		application.ServiceConfig{
			CacheTTL:          10 * time.Minute,
			SaveRetryAttempts: 3,
			SaveRetryBackoff:  time.Millisecond,
		},
	)

	mux := http.NewServeMux()
	NewOrderHandler(service, application.NewQueryService(repo, tracer), orderPool).RegisterRoutes(mux)
	return mux
}

func createOrderBody(t *testing.T, customerID string) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"customerId": customerID,
		"items": []map[string]interface{}{
			{"productId": uuid.New().String(), "quantity": 2, "unitPrice": "5.50"},
		},
		"shippingAddress": "1 Main Street",
		"paymentMethodId": "pm-1",
		"idempotencyKey":  "idem-1",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestCreateOrderEndpoint(t *testing.T) {
	mux := newTestMux(t, newStubRepository(), true)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", createOrderBody(t, uuid.New().String()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var view application.OrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, "PENDING", view.Status)
	assert.NotEmpty(t, view.ID)
}

func TestCreateOrderEndpointValidationFailure(t *testing.T) {
	mux := newTestMux(t, newStubRepository(), false)

	req := httptest.NewRequest(http.MethodPost, "/api/orders", createOrderBody(t, uuid.New().String()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload["errorMessage"], "invalid customer")
}

func TestCreateOrderEndpointRejectsBadInput(t *testing.T) {
	mux := newTestMux(t, newStubRepository(), true)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: "{not-json"},
		{name: "malformed customer id", body: `{"customerId":"nope","items":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestGetOrderEndpoint(t *testing.T) {
	repo := newStubRepository()
	mux := newTestMux(t, repo, true)

	// 先创建一笔订单
	createReq := httptest.NewRequest(http.MethodPost, "/api/orders", createOrderBody(t, uuid.New().String()))
	createRec := httptest.NewRecorder()
	mux.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var created application.OrderView
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+created.ID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var view application.OrderView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, created.ID, view.ID)
}

func TestGetOrderEndpointNotFound(t *testing.T) {
	mux := newTestMux(t, newStubRepository(), true)

	req := httptest.NewRequest(http.MethodGet, "/api/orders/"+uuid.New().String(), nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateOrderStatusEndpoint(t *testing.T) {
	repo := newStubRepository()
	mux := newTestMux(t, repo, true)

	createReq := httptest.NewRequest(http.MethodPost, "/api/orders", createOrderBody(t, uuid.New().String()))
	createRec := httptest.NewRecorder()
	mux.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	var created application.OrderView
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &created))

	req := httptest.NewRequest(http.MethodPut, "/api/orders/"+created.ID+"/status",
		strings.NewReader(`{"status":"CONFIRMED"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	getReq := httptest.NewRequest(http.MethodGet, "/api/orders/"+created.ID, nil)
	getRec := httptest.NewRecorder()
	mux.ServeHTTP(getRec, getReq)
	require.Equal(t, http.StatusOK, getRec.Code)
	var view application.OrderView
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &view))
	assert.Equal(t, "CONFIRMED", view.Status)
}

func TestUpdateOrderStatusEndpointRejectsBadInput(t *testing.T) {
	mux := newTestMux(t, newStubRepository(), true)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{
			name: "unknown status",
			path: "/api/orders/" + uuid.New().String() + "/status",
			body: `{"status":"TELEPORTED"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "malformed order id",
			path: "/api/orders/nope/status",
			body: `{"status":"CONFIRMED"}`,
			want: http.StatusBadRequest,
		},
		{
			name: "unknown order",
			path: "/api/orders/" + uuid.New().String() + "/status",
			body: `{"status":"CONFIRMED"}`,
			want: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestListOrdersEndpointRequiresCustomerID(t *testing.T) {
	mux := newTestMux(t, newStubRepository(), true)

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdersEndpoint(t *testing.T) {
	repo := newStubRepository()
	mux := newTestMux(t, repo, true)

	customerID := uuid.New().String()
	createReq := httptest.NewRequest(http.MethodPost, "/api/orders", createOrderBody(t, customerID))
	createRec := httptest.NewRecorder()
	mux.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/orders?customerId="+customerID, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var page application.OrderPageView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Content, 1)
}
