package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nawoda2/Temporal-Order-Lifecycle/controllers"
	"github.com/nawoda2/Temporal-Order-Lifecycle/models"
	"github.com/nawoda2/Temporal-Order-Lifecycle/routes"
	"github.com/nawoda2/Temporal-Order-Lifecycle/services"
)

type mockOrderService struct {
	startResp   *services.StartOrderResponse
	startErr    *services.ServiceError
	signalErr   *services.ServiceError
	statusResp  *services.OrderStatusResponse
	statusErr   *services.ServiceError
	lastOrderID string
	lastAddress models.Address
	lastSignal  string
}

func (m *mockOrderService) StartOrder(ctx context.Context, orderID string, req *services.StartOrderRequest) (*services.StartOrderResponse, *services.ServiceError) {
	m.lastOrderID = orderID
	return m.startResp, m.startErr
}

func (m *mockOrderService) Cancel(ctx context.Context, orderID string) *services.ServiceError {
	m.lastOrderID = orderID
	m.lastSignal = "cancel"
	return m.signalErr
}

func (m *mockOrderService) UpdateAddress(ctx context.Context, orderID string, address models.Address) *services.ServiceError {
	m.lastOrderID = orderID
	m.lastAddress = address
	m.lastSignal = "update-address"
	return m.signalErr
}

func (m *mockOrderService) Approve(ctx context.Context, orderID string) *services.ServiceError {
	m.lastOrderID = orderID
	m.lastSignal = "approve"
	return m.signalErr
}

func (m *mockOrderService) Status(ctx context.Context, orderID string) (*services.OrderStatusResponse, *services.ServiceError) {
	m.lastOrderID = orderID
	return m.statusResp, m.statusErr
}

func setupRouter(svc services.OrderService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	routes.RegisterOrderRoutes(r, controllers.NewOrderController(svc))
	return r
}

func TestStartOrderEndpoint(t *testing.T) {
	mockSvc := &mockOrderService{
		startResp: &services.StartOrderResponse{
			Status:     "started",
			WorkflowID: "order-1",
			PaymentID:  "pay-1",
			RunID:      "run-1",
		},
	}
	router := setupRouter(mockSvc)

	body, _ := json.Marshal(services.StartOrderRequest{
		PaymentID: "pay-1",
		Items:     models.ItemList{{SKU: "A", Qty: 2}},
	})
	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/start", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "order-1", mockSvc.lastOrderID)

	var resp services.StartOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "started", resp.Status)
	assert.Equal(t, "run-1", resp.RunID)
}

func TestStartOrderEndpointRejectsMissingPaymentID(t *testing.T) {
	router := setupRouter(&mockOrderService{})

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/start",
		bytes.NewReader([]byte(`{"items":[{"sku":"A","qty":1}]}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelEndpoint(t *testing.T) {
	mockSvc := &mockOrderService{}
	router := setupRouter(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/signals/cancel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancel", mockSvc.lastSignal)
	assert.Contains(t, w.Body.String(), "signal_sent")
}

func TestCancelEndpointUnknownOrder(t *testing.T) {
	mockSvc := &mockOrderService{
		signalErr: &services.ServiceError{StatusCode: http.StatusNotFound, Message: "order not found"},
	}
	router := setupRouter(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/orders/missing/signals/cancel", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "order not found")
}

func TestUpdateAddressEndpoint(t *testing.T) {
	mockSvc := &mockOrderService{}
	router := setupRouter(mockSvc)

	body := []byte(`{"address":{"street":"1 Main St","city":"Springfield","state":"IL","zip":"62701"}}`)
	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/signals/update-address", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "update-address", mockSvc.lastSignal)
	assert.Equal(t, "Springfield", mockSvc.lastAddress.City)
}

func TestApproveEndpoint(t *testing.T) {
	mockSvc := &mockOrderService{}
	router := setupRouter(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/orders/order-1/signals/approve", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "approve", mockSvc.lastSignal)
}

func TestStatusEndpoint(t *testing.T) {
	mockSvc := &mockOrderService{
		statusResp: &services.OrderStatusResponse{
			WorkflowID: "order-1",
			Status:     "Running",
			RunID:      "run-1",
			WorkflowState: models.OrderStatus{
				State: models.OrderStateAwaitingApproval,
			},
		},
	}
	router := setupRouter(mockSvc)

	req := httptest.NewRequest(http.MethodGet, "/orders/order-1/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp services.OrderStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.OrderStateAwaitingApproval, resp.WorkflowState.State)
}

func TestHealthEndpoint(t *testing.T) {
	router := setupRouter(&mockOrderService{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}
