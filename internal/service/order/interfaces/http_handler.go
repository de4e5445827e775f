// internal/service/order/interfaces/http_handler.go
package interfaces

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"ordercore/internal/pkg/logger"
	"ordercore/internal/pkg/workerpool"
	"ordercore/internal/service/order/application"
	"ordercore/internal/service/order/application/resilience"
	"ordercore/internal/service/order/domain"
)

// OrderHandler 封装了订单服务的 HTTP 处理器。
type OrderHandler struct {
	service   *application.Service
	query     *application.QueryService
	orderPool *workerpool.Pool
	upgrader  websocket.Upgrader
}

// NewOrderHandler 创建一个新的 HTTP 处理器实例。
func NewOrderHandler(service *application.Service, query *application.QueryService, orderPool *workerpool.Pool) *OrderHandler {
	return &OrderHandler{
		service:   service,
		query:     query,
		orderPool: orderPool,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 简化处理，允许所有跨域
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterRoutes 在 ServeMux 上注册所有路由。
func (h *OrderHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/orders", h.createOrder)
	mux.HandleFunc("GET /api/orders", h.listOrders)
	mux.HandleFunc("GET /api/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.updateOrderStatus)
	mux.HandleFunc("GET /api/orders/{id}/status/stream", h.streamOrderStatus)
}

func (h *OrderHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	propagator := otel.GetTextMapPropagator()
	ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

	var req application.CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	cmd, err := req.ToCommand()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 创建在订单处理池上执行；池饱和时退化为在本 goroutine 上执行，
	// 保证请求必定被接纳而不是被拒绝
	resultCh := make(chan domain.OrderResult, 1)
	h.orderPool.Submit(func() {
		resultCh <- h.service.CreateOrder(ctx, cmd)
	})
	result := <-resultCh

	w.Header().Set("Content-Type", "application/json")
	if result.Success {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(application.ToOrderView(result.Order))
		return
	}
	if result.ErrorMessage == resilience.FallbackMessage {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	json.NewEncoder(w).Encode(map[string]string{"errorMessage": result.ErrorMessage})
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "malformed order id", http.StatusBadRequest)
		return
	}

	view, err := h.query.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(view)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(r.URL.Query().Get("customerId"))
	if err != nil {
		http.Error(w, "customerId is required", http.StatusBadRequest)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	query := domain.PageQuery{
		Page:     page,
		Size:     size,
		SortBy:   r.URL.Query().Get("sortBy"),
		SortDesc: r.URL.Query().Get("sortDirection") != "asc",
	}

	pageView, err := h.query.ListCustomerOrders(r.Context(), customerID, query)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pageView)
}

// updateOrderStatus 推进订单状态（履约流程回调用），
// 新状态会同步推送给该订单的活跃订阅者。
func (h *OrderHandler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "malformed order id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateStatus(r.Context(), orderID, status); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			http.Error(w, "order not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// streamOrderStatus 把连接升级为 WebSocket 并注册状态订阅。
// 订单不存在时订阅入口会以错误关闭通道，这里无需额外处理。
func (h *OrderHandler) streamOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "malformed order id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	ch := NewWSChannel(conn)
	ch.OnClose(func(error) {
		h.service.Unsubscribe(orderID, ch)
	})

	if err := h.service.Subscribe(r.Context(), orderID, ch); err != nil {
		logger.Ctx(r.Context()).Warn().Err(err).
			Str("order_id", orderID.String()).
			Msg("Order status subscription closed")
	}
}
