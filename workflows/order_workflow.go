package workflows

import (
	"fmt"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/nawoda2/Temporal-Order-Lifecycle/activities"
	"github.com/nawoda2/Temporal-Order-Lifecycle/models"
)

// orderState is the runtime state of one order workflow execution. It is
// owned by the workflow's control routine; signal handlers only touch it
// through the transition methods below, which the engine schedules at
// deterministic yield points.
type orderState struct {
	State          string
	Errors         []string
	Address        *models.Address
	Cancelled      bool
	Approved       bool
	Snapshot       *models.OrderInput
	addressUpdated bool
}

func newOrderState(input models.OrderInput) *orderState {
	return &orderState{
		State:   models.OrderStateInit,
		Address: input.Address,
	}
}

// requestCancel sets the cancelled flag while the order is still before the
// point of no return. Returns false when the request has to be ignored.
func (s *orderState) requestCancel() bool {
	switch s.State {
	case models.OrderStateInit, models.OrderStateReceiving,
		models.OrderStateValidating, models.OrderStateAwaitingApproval:
		s.Cancelled = true
		return true
	default:
		return false
	}
}

// applyAddress overwrites the runtime address and, when a snapshot exists,
// the snapshot's address too.
func (s *orderState) applyAddress(addr models.Address) {
	a := addr
	s.Address = &a
	s.addressUpdated = true
	if s.Snapshot != nil {
		s.Snapshot.Address = &a
	}
}

func (s *orderState) recordDispatchFailure(reason string) {
	s.Errors = append(s.Errors, fmt.Sprintf("dispatch failed: %s", reason))
}

// setSnapshot records the order as the store accepted it. An address
// correction that arrived before the snapshot wins over the stored address.
func (s *orderState) setSnapshot(in models.OrderInput) {
	s.Snapshot = &in
	if s.addressUpdated {
		s.Snapshot.Address = s.Address
	} else {
		s.Address = in.Address
	}
}

// mergeAddress folds the latest runtime address into the snapshot before it
// is handed to the payment and shipping steps.
func (s *orderState) mergeAddress() {
	if s.Snapshot != nil && s.Address != nil {
		s.Snapshot.Address = s.Address
	}
}

// fail drives the machine to its terminal failure state, keeping the
// diagnostic, and hands the error back for re-raising.
func (s *orderState) fail(err error) error {
	s.Errors = append(s.Errors, err.Error())
	s.State = models.OrderStateFailed
	return err
}

func (s *orderState) cancelled() models.OrderResult {
	s.State = models.OrderStateCancelled
	return models.OrderResult{State: s.State}
}

func (s *orderState) status() models.OrderStatus {
	errs := make([]string, len(s.Errors))
	copy(errs, s.Errors)
	return models.OrderStatus{
		State:     s.State,
		Address:   s.Address,
		Errors:    errs,
		Cancelled: s.Cancelled,
		Approved:  s.Approved,
	}
}

// OrderWorkflow drives one order through
// Receive → Validate → AwaitApproval → ChargePayment → Shipping (child) →
// MarkShipped → Complete, with cancellation checkpoints between the ordered
// steps.
func OrderWorkflow(ctx workflow.Context, input models.OrderInput) (models.OrderResult, error) {
	logger := workflow.GetLogger(ctx)
	st := newOrderState(input)

	if err := workflow.SetQueryHandler(ctx, QueryStatus, func() (models.OrderStatus, error) {
		return st.status(), nil
	}); err != nil {
		return models.OrderResult{}, err
	}

	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())
	registerSignalHandlers(ctx, st)

	var result models.OrderResult

	// Step 1: record the order.
	st.State = models.OrderStateReceiving
	var received models.OrderInput
	if err := workflow.ExecuteActivity(ctx, (*activities.Activities).ReceiveOrder, input).Get(ctx, &received); err != nil {
		return result, st.fail(fmt.Errorf("receive order: %w", err))
	}
	st.setSnapshot(received)

	if st.Cancelled {
		return st.cancelled(), nil
	}

	// Step 2: validate.
	st.State = models.OrderStateValidating
	if err := workflow.ExecuteActivity(ctx, (*activities.Activities).ValidateOrder, *st.Snapshot).Get(ctx, nil); err != nil {
		return result, st.fail(fmt.Errorf("validate order: %w", err))
	}

	if st.Cancelled {
		return st.cancelled(), nil
	}

	// Step 3: manual review. First of approval, cancellation or the review
	// deadline wins.
	st.State = models.OrderStateAwaitingApproval
	approved, err := workflow.AwaitWithTimeout(ctx, approvalWindow, func() bool {
		return st.Approved || st.Cancelled
	})
	if err != nil {
		return result, st.fail(fmt.Errorf("await approval: %w", err))
	}
	if st.Cancelled {
		return st.cancelled(), nil
	}
	if !approved {
		st.State = models.OrderStateApprovalTimeout
		st.Errors = append(st.Errors, "no approval within review window")
		result.State = st.State
		return result, temporal.NewApplicationError("no approval within review window", "ApprovalTimeout")
	}

	// Step 4: charge against the latest known address.
	st.State = models.OrderStateChargingPayment
	st.mergeAddress()
	var charge models.ChargeResult
	if err := workflow.ExecuteActivity(ctx, (*activities.Activities).ChargePayment, *st.Snapshot, input.PaymentID).Get(ctx, &charge); err != nil {
		return result, st.fail(fmt.Errorf("charge payment: %w", err))
	}
	result.Payment = charge

	// Step 5: delegate to the shipping workflow and propagate its outcome.
	st.State = models.OrderStateShipping
	childCtx := workflow.WithChildOptions(ctx, workflow.ChildWorkflowOptions{
		WorkflowID: input.OrderID + "-shipping",
		TaskQueue:  TaskQueueShipping,
	})
	var shipped string
	if err := workflow.ExecuteChildWorkflow(childCtx, ShippingWorkflow, *st.Snapshot).Get(ctx, &shipped); err != nil {
		return result, st.fail(fmt.Errorf("shipping failed: %w", err))
	}
	result.Shipping = shipped

	// Step 6: mark shipped.
	st.State = models.OrderStateShipped
	if err := workflow.ExecuteActivity(ctx, (*activities.Activities).MarkShipped, *st.Snapshot).Get(ctx, nil); err != nil {
		return result, st.fail(fmt.Errorf("mark shipped: %w", err))
	}

	st.State = models.OrderStateCompleted
	result.State = st.State
	logger.Info("order completed", "order_id", input.OrderID)
	return result, nil
}

// registerSignalHandlers drains each signal channel in its own coroutine and
// applies the matching state transition. The UpdateAddress handler is the one
// handler with a side effect: it persists the correction through the activity
// layer and absorbs any failure into the error log instead of aborting the
// order.
func registerSignalHandlers(ctx workflow.Context, st *orderState) {
	logger := workflow.GetLogger(ctx)

	cancelCh := workflow.GetSignalChannel(ctx, SignalCancelOrder)
	workflow.Go(ctx, func(gctx workflow.Context) {
		for {
			cancelCh.Receive(gctx, nil)
			if st.requestCancel() {
				logger.Info("cancellation requested", "state", st.State)
			} else {
				logger.Info("cancel ignored past point of no return", "state", st.State)
			}
		}
	})

	approveCh := workflow.GetSignalChannel(ctx, SignalApproveOrder)
	workflow.Go(ctx, func(gctx workflow.Context) {
		for {
			approveCh.Receive(gctx, nil)
			st.Approved = true
		}
	})

	dispatchCh := workflow.GetSignalChannel(ctx, SignalDispatchFailed)
	workflow.Go(ctx, func(gctx workflow.Context) {
		for {
			var reason string
			dispatchCh.Receive(gctx, &reason)
			st.recordDispatchFailure(reason)
			logger.Error("shipping reported dispatch failure", "reason", reason)
		}
	})

	updateCh := workflow.GetSignalChannel(ctx, SignalUpdateAddress)
	workflow.Go(ctx, func(gctx workflow.Context) {
		for {
			var addr models.Address
			updateCh.Receive(gctx, &addr)
			st.applyAddress(addr)
			if st.Snapshot == nil {
				continue
			}
			if err := workflow.ExecuteActivity(gctx, (*activities.Activities).UpdateAddress, st.Snapshot.OrderID, addr).Get(gctx, nil); err != nil {
				st.Errors = append(st.Errors, fmt.Sprintf("address update failed: %v", err))
				logger.Error("address update failed", "error", err)
			}
		}
	})
}
