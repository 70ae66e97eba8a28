package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/nawoda2/Temporal-Order-Lifecycle/activities"
)

// Signal and query names exposed by the order workflow.
const (
	SignalCancelOrder    = "cancel-order"
	SignalUpdateAddress  = "update-address"
	SignalApproveOrder   = "approve-order"
	SignalDispatchFailed = "dispatch-failed"
	QueryStatus          = "status"
)

// Task queues the two workers poll. The order workflow dispatches its
// shipping child to the shipping queue.
const (
	TaskQueueOrder    = "order-tq"
	TaskQueueShipping = "shipping-tq"
)

// approvalWindow is the manual-review deadline.
const approvalWindow = 300 * time.Second

// defaultActivityOptions absorb the fault injector's transient failures well
// inside the per-step timeout while abandoning stalled attempts at
// StartToClose.
func defaultActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 10 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    10,
			NonRetryableErrorTypes: []string{
				activities.ErrTypeValidation,
				activities.ErrTypeNotFound,
			},
		},
	}
}
