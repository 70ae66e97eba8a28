package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/converter"
	"go.uber.org/zap"

	"github.com/nawoda2/Temporal-Order-Lifecycle/kafka"
	"github.com/nawoda2/Temporal-Order-Lifecycle/models"
	aws_pkg "github.com/nawoda2/Temporal-Order-Lifecycle/pkg/aws"
	"github.com/nawoda2/Temporal-Order-Lifecycle/workflows"
)

// ServiceError is a typed error with an HTTP status code.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string { return e.Message }

// StartOrderRequest is the payload for starting an order.
type StartOrderRequest struct {
	PaymentID string          `json:"payment_id" binding:"required"`
	Items     models.ItemList `json:"items" binding:"required"`
	Address   *models.Address `json:"address"`
}

// StartOrderResponse reports the started execution.
type StartOrderResponse struct {
	Status     string `json:"status"`
	WorkflowID string `json:"workflow_id"`
	PaymentID  string `json:"payment_id"`
	RunID      string `json:"run_id"`
}

// OrderStatusResponse combines the workflow's own status query with the
// engine's execution description.
type OrderStatusResponse struct {
	WorkflowID    string             `json:"workflow_id"`
	Status        string             `json:"status"`
	RunID         string             `json:"run_id"`
	WorkflowState models.OrderStatus `json:"workflow_state"`
}

// lifecycleEvent is the notification published when an order starts.
type lifecycleEvent struct {
	Event     string          `json:"event"`
	OrderID   string          `json:"order_id"`
	PaymentID string          `json:"payment_id"`
	Items     models.ItemList `json:"items"`
}

// workflowClient is the slice of the Temporal client the service needs.
// client.Client satisfies it.
type workflowClient interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
	SignalWorkflow(ctx context.Context, workflowID, runID, signalName string, arg interface{}) error
	QueryWorkflow(ctx context.Context, workflowID, runID, queryType string, args ...interface{}) (converter.EncodedValue, error)
	DescribeWorkflowExecution(ctx context.Context, workflowID, runID string) (*workflowservice.DescribeWorkflowExecutionResponse, error)
}

// OrderService defines the business logic interface for the HTTP front door.
type OrderService interface {
	StartOrder(ctx context.Context, orderID string, req *StartOrderRequest) (*StartOrderResponse, *ServiceError)
	Cancel(ctx context.Context, orderID string) *ServiceError
	UpdateAddress(ctx context.Context, orderID string, address models.Address) *ServiceError
	Approve(ctx context.Context, orderID string) *ServiceError
	Status(ctx context.Context, orderID string) (*OrderStatusResponse, *ServiceError)
}

type orderServiceImpl struct {
	client        workflowClient
	taskQueue     string
	snsClient     aws_pkg.SNSPublisher
	snsTopicArn   string
	kafkaProducer *kafka.Producer
	logger        *zap.Logger
}

// NewOrderService creates a new OrderService. snsClient and kafkaProducer are
// optional; lifecycle notifications are best-effort.
func NewOrderService(
	c client.Client,
	taskQueue string,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	kafkaProducer *kafka.Producer,
	logger *zap.Logger,
) OrderService {
	return newOrderService(c, taskQueue, snsClient, snsTopicArn, kafkaProducer, logger)
}

func newOrderService(
	c workflowClient,
	taskQueue string,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	kafkaProducer *kafka.Producer,
	logger *zap.Logger,
) *orderServiceImpl {
	return &orderServiceImpl{
		client:        c,
		taskQueue:     taskQueue,
		snsClient:     snsClient,
		snsTopicArn:   snsTopicArn,
		kafkaProducer: kafkaProducer,
		logger:        logger,
	}
}

func (s *orderServiceImpl) StartOrder(ctx context.Context, orderID string, req *StartOrderRequest) (*StartOrderResponse, *ServiceError) {
	run, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        orderID,
		TaskQueue: s.taskQueue,
	}, workflows.OrderWorkflow, models.OrderInput{
		OrderID:   orderID,
		PaymentID: req.PaymentID,
		Items:     req.Items,
		Address:   req.Address,
	})
	if err != nil {
		s.logger.Error("failed to start order workflow", zap.String("order_id", orderID), zap.Error(err))
		return nil, s.mapError(err)
	}

	s.publishLifecycleEvent(ctx, lifecycleEvent{
		Event:     "order.started",
		OrderID:   orderID,
		PaymentID: req.PaymentID,
		Items:     req.Items,
	})

	return &StartOrderResponse{
		Status:     "started",
		WorkflowID: orderID,
		PaymentID:  req.PaymentID,
		RunID:      run.GetRunID(),
	}, nil
}

func (s *orderServiceImpl) Cancel(ctx context.Context, orderID string) *ServiceError {
	return s.signal(ctx, orderID, workflows.SignalCancelOrder, nil)
}

func (s *orderServiceImpl) UpdateAddress(ctx context.Context, orderID string, address models.Address) *ServiceError {
	return s.signal(ctx, orderID, workflows.SignalUpdateAddress, address)
}

func (s *orderServiceImpl) Approve(ctx context.Context, orderID string) *ServiceError {
	return s.signal(ctx, orderID, workflows.SignalApproveOrder, nil)
}

func (s *orderServiceImpl) Status(ctx context.Context, orderID string) (*OrderStatusResponse, *ServiceError) {
	value, err := s.client.QueryWorkflow(ctx, orderID, "", workflows.QueryStatus)
	if err != nil {
		s.logger.Error("status query failed", zap.String("order_id", orderID), zap.Error(err))
		return nil, s.mapError(err)
	}
	var state models.OrderStatus
	if err := value.Get(&state); err != nil {
		return nil, &ServiceError{StatusCode: http.StatusInternalServerError, Message: "failed to decode workflow status"}
	}

	desc, err := s.client.DescribeWorkflowExecution(ctx, orderID, "")
	if err != nil {
		return nil, s.mapError(err)
	}
	info := desc.GetWorkflowExecutionInfo()

	return &OrderStatusResponse{
		WorkflowID:    orderID,
		Status:        info.GetStatus().String(),
		RunID:         info.GetExecution().GetRunId(),
		WorkflowState: state,
	}, nil
}

func (s *orderServiceImpl) signal(ctx context.Context, orderID, name string, payload interface{}) *ServiceError {
	if err := s.client.SignalWorkflow(ctx, orderID, "", name, payload); err != nil {
		s.logger.Error("failed to signal workflow",
			zap.String("order_id", orderID),
			zap.String("signal", name),
			zap.Error(err))
		return s.mapError(err)
	}
	return nil
}

func (s *orderServiceImpl) mapError(err error) *ServiceError {
	var notFound *serviceerror.NotFound
	if errors.As(err, &notFound) {
		return &ServiceError{StatusCode: http.StatusNotFound, Message: "order not found"}
	}
	return &ServiceError{StatusCode: http.StatusInternalServerError, Message: err.Error()}
}

// publishLifecycleEvent fans the event out to whichever notification channels
// are configured. Failures are logged, never surfaced to the caller.
func (s *orderServiceImpl) publishLifecycleEvent(ctx context.Context, evt lifecycleEvent) {
	msg, err := json.Marshal(evt)
	if err != nil {
		s.logger.Error("failed to marshal lifecycle event", zap.Error(err))
		return
	}
	if s.snsClient != nil && s.snsTopicArn != "" {
		if err := s.snsClient.Publish(ctx, s.snsTopicArn, msg); err != nil {
			s.logger.Warn("sns lifecycle publish failed", zap.String("order_id", evt.OrderID), zap.Error(err))
		}
	}
	if s.kafkaProducer != nil {
		if err := s.kafkaProducer.Publish(ctx, evt.OrderID, msg); err != nil {
			s.logger.Warn("kafka lifecycle publish failed", zap.String("order_id", evt.OrderID), zap.Error(err))
		}
	}
}
