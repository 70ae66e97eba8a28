package workflows

import (
	"fmt"

	"go.temporal.io/sdk/workflow"

	"github.com/nawoda2/Temporal-Order-Lifecycle/activities"
	"github.com/nawoda2/Temporal-Order-Lifecycle/models"
)

// ShippingWorkflow prepares the package and dispatches the carrier. A
// terminal dispatch failure is reported to the parent order before the
// workflow itself fails; prepare failures propagate without notification
// since they are expected to be absorbed by the activity retry policy.
func ShippingWorkflow(ctx workflow.Context, order models.OrderInput) (string, error) {
	logger := workflow.GetLogger(ctx)
	state := models.ShippingStateInit

	if err := workflow.SetQueryHandler(ctx, QueryStatus, func() (models.ShippingStatus, error) {
		return models.ShippingStatus{State: state}, nil
	}); err != nil {
		return "", err
	}

	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())

	state = models.ShippingStatePreparing
	if err := workflow.ExecuteActivity(ctx, (*activities.Activities).PrepareOrder, order).Get(ctx, nil); err != nil {
		state = models.ShippingStateFailed
		return "", fmt.Errorf("prepare order: %w", err)
	}

	state = models.ShippingStateDispatching
	var dispatched string
	if err := workflow.ExecuteActivity(ctx, (*activities.Activities).DispatchCarrier, order).Get(ctx, &dispatched); err != nil {
		state = models.ShippingStateFailed
		notifyParent(ctx, order.OrderID, err)
		return "", fmt.Errorf("dispatch carrier: %w", err)
	}

	state = models.ShippingStateDispatched
	logger.Info("carrier dispatched", "order_id", order.OrderID)
	return dispatched, nil
}

// notifyParent sends the dispatch-failure diagnostic to the owning order
// workflow, when there is one. Delivery failures are logged, not raised: the
// dispatch error itself is about to propagate through the child result
// anyway.
func notifyParent(ctx workflow.Context, orderID string, cause error) {
	parent := workflow.GetInfo(ctx).ParentWorkflowExecution
	if parent == nil {
		return
	}
	reason := fmt.Sprintf("carrier dispatch failed for order %s: %v", orderID, cause)
	if err := workflow.SignalExternalWorkflow(ctx, parent.ID, parent.RunID, SignalDispatchFailed, reason).Get(ctx, nil); err != nil {
		workflow.GetLogger(ctx).Error("failed to notify parent of dispatch failure", "error", err)
	}
}
