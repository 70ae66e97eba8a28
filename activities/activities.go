package activities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/nawoda2/Temporal-Order-Lifecycle/models"
	"github.com/nawoda2/Temporal-Order-Lifecycle/repository"
)

// Error type tags the workflows' retry policies treat as non-retryable.
const (
	ErrTypeValidation = "ValidationError"
	ErrTypeNotFound   = "NotFoundError"
)

// Activities is the idempotent activity layer. Every method is safe under
// arbitrary repetition: repeated calls return the previously stored result
// instead of reapplying the transition.
type Activities struct {
	repo   repository.OrderRepository
	faults *FaultInjector
	logger *zap.Logger
}

// NewActivities wires the activity layer to an explicitly owned store handle.
func NewActivities(repo repository.OrderRepository, faults *FaultInjector, logger *zap.Logger) *Activities {
	return &Activities{repo: repo, faults: faults, logger: logger}
}

// ReceiveOrder inserts the order row, or returns the stored items/address
// unchanged when the row already exists (first writer wins).
func (a *Activities) ReceiveOrder(ctx context.Context, order models.OrderInput) (models.OrderInput, error) {
	if err := a.faults.Maybe(ctx); err != nil {
		return models.OrderInput{}, err
	}

	existing, err := a.repo.FindOrder(ctx, order.OrderID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.OrderInput{}, fmt.Errorf("lookup order %s: %w", order.OrderID, err)
	}
	if existing != nil {
		a.logger.Info("order already exists", zap.String("order_id", order.OrderID))
		return storedInput(order, existing), nil
	}

	event, err := newEvent(order.OrderID, models.StateOrderReceived, map[string]interface{}{
		"items":   order.Items,
		"address": order.Address,
		"state":   models.StateOrderReceived,
	})
	if err != nil {
		return models.OrderInput{}, err
	}

	applied, stored, err := a.repo.CreateOrderIfAbsent(ctx, &models.Order{
		ID:      order.OrderID,
		State:   models.StateOrderReceived,
		Items:   order.Items,
		Address: order.Address,
	}, event)
	if err != nil {
		return models.OrderInput{}, fmt.Errorf("receive order %s: %w", order.OrderID, err)
	}
	if !applied {
		return storedInput(order, stored), nil
	}

	a.logger.Info("order received", zap.String("order_id", order.OrderID))
	return order, nil
}

// ValidateOrder checks the order has items and advances it to
// ORDER_VALIDATED. Already-validated orders succeed without a second event.
func (a *Activities) ValidateOrder(ctx context.Context, order models.OrderInput) (bool, error) {
	if err := a.faults.Maybe(ctx); err != nil {
		return false, err
	}

	if len(order.Items) == 0 {
		return false, temporal.NewNonRetryableApplicationError("no items to validate", ErrTypeValidation, nil)
	}

	existing, err := a.findExisting(ctx, order.OrderID)
	if err != nil {
		return false, err
	}
	if existing.State == models.StateOrderValidated {
		a.logger.Info("order already validated", zap.String("order_id", order.OrderID))
		return true, nil
	}

	if err := a.transition(ctx, existing, models.StateOrderValidated); err != nil {
		return false, err
	}
	a.logger.Info("order validated", zap.String("order_id", order.OrderID))
	return true, nil
}

// ChargePayment records an idempotent ledger entry. An existing payment row
// is returned as-is, never re-charged.
func (a *Activities) ChargePayment(ctx context.Context, order models.OrderInput, paymentID string) (models.ChargeResult, error) {
	if err := a.faults.Maybe(ctx); err != nil {
		return models.ChargeResult{}, err
	}

	existing, err := a.repo.FindPayment(ctx, paymentID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ChargeResult{}, fmt.Errorf("lookup payment %s: %w", paymentID, err)
	}
	if existing != nil {
		a.logger.Info("payment already charged", zap.String("payment_id", paymentID))
		return chargeResult(existing), nil
	}

	// Placeholder pricing: amount is the sum of item quantities, with a
	// missing quantity counted as one.
	amount := 0
	for _, item := range order.Items {
		if item.Qty > 0 {
			amount += item.Qty
		} else {
			amount++
		}
	}

	event, err := newEvent(order.OrderID, models.StatePaymentCharged, map[string]interface{}{
		"payment_id": paymentID,
		"amount":     amount,
		"status":     models.StatePaymentCharged,
	})
	if err != nil {
		return models.ChargeResult{}, err
	}

	payment := &models.Payment{
		PaymentID: paymentID,
		OrderID:   order.OrderID,
		Status:    models.PaymentStatusCharged,
		Amount:    amount,
	}
	applied, stored, err := a.repo.CreatePaymentIfAbsent(ctx, payment, models.StatePaymentCharged, event)
	if err != nil {
		return models.ChargeResult{}, fmt.Errorf("charge payment %s: %w", paymentID, err)
	}
	if !applied {
		return chargeResult(stored), nil
	}

	a.logger.Info("payment charged",
		zap.String("payment_id", paymentID),
		zap.String("order_id", order.OrderID),
		zap.Int("amount", amount))
	return chargeResult(payment), nil
}

// PrepareOrder advances the order to PACKAGE_PREPARED.
func (a *Activities) PrepareOrder(ctx context.Context, order models.OrderInput) (string, error) {
	return a.advance(ctx, order.OrderID, models.StatePackagePrepared)
}

// DispatchCarrier advances the order to CARRIER_DISPATCHED.
func (a *Activities) DispatchCarrier(ctx context.Context, order models.OrderInput) (string, error) {
	return a.advance(ctx, order.OrderID, models.StateCarrierDispatched)
}

// MarkShipped advances the order to ORDER_SHIPPED.
func (a *Activities) MarkShipped(ctx context.Context, order models.OrderInput) (string, error) {
	return a.advance(ctx, order.OrderID, models.StateOrderShipped)
}

// UpdateAddress unconditionally overwrites the stored address and records the
// old and new values. Not state-conditioned; repeating with the same address
// is a no-op by value.
func (a *Activities) UpdateAddress(ctx context.Context, orderID string, address models.Address) error {
	if err := a.faults.Maybe(ctx); err != nil {
		return err
	}

	existing, err := a.findExisting(ctx, orderID)
	if err != nil {
		return err
	}

	event, err := newEvent(orderID, models.EventTypeAddressUpdated, map[string]interface{}{
		"old_address": existing.Address,
		"new_address": address,
	})
	if err != nil {
		return err
	}
	if err := a.repo.UpdateOrderAddress(ctx, orderID, &address, event); err != nil {
		return fmt.Errorf("update address for order %s: %w", orderID, err)
	}
	a.logger.Info("address updated", zap.String("order_id", orderID))
	return nil
}

// advance is the shared no-op-if-already-there transition used by the
// shipping-phase activities.
func (a *Activities) advance(ctx context.Context, orderID, toState string) (string, error) {
	if err := a.faults.Maybe(ctx); err != nil {
		return "", err
	}

	existing, err := a.findExisting(ctx, orderID)
	if err != nil {
		return "", err
	}
	if existing.State == toState {
		a.logger.Info("order already in state",
			zap.String("order_id", orderID),
			zap.String("state", toState))
		return toState, nil
	}

	if err := a.transition(ctx, existing, toState); err != nil {
		return "", err
	}
	a.logger.Info("order transitioned",
		zap.String("order_id", orderID),
		zap.String("state", toState))
	return toState, nil
}

func (a *Activities) findExisting(ctx context.Context, orderID string) (*models.Order, error) {
	existing, err := a.repo.FindOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("order %s not found", orderID), ErrTypeNotFound, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup order %s: %w", orderID, err)
	}
	return existing, nil
}

func (a *Activities) transition(ctx context.Context, order *models.Order, toState string) error {
	event, err := newEvent(order.ID, toState, map[string]interface{}{
		"state":          toState,
		"previous_state": order.State,
	})
	if err != nil {
		return err
	}
	if err := a.repo.TransitionOrder(ctx, order.ID, toState, event); err != nil {
		return fmt.Errorf("transition order %s to %s: %w", order.ID, toState, err)
	}
	return nil
}

func newEvent(orderID, eventType string, payload map[string]interface{}) (*models.Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event payload: %w", eventType, err)
	}
	return &models.Event{
		ID:      uuid.NewString(),
		OrderID: orderID,
		Type:    eventType,
		Payload: string(b),
	}, nil
}

func storedInput(input models.OrderInput, stored *models.Order) models.OrderInput {
	out := input
	if stored.Items != nil {
		out.Items = stored.Items
	}
	if stored.Address != nil {
		out.Address = stored.Address
	}
	return out
}

func chargeResult(p *models.Payment) models.ChargeResult {
	return models.ChargeResult{
		PaymentID: p.PaymentID,
		OrderID:   p.OrderID,
		Status:    p.Status,
		Amount:    p.Amount,
	}
}
