package models

// Order workflow runtime states.
const (
	OrderStateInit             = "INIT"
	OrderStateReceiving        = "RECEIVING"
	OrderStateValidating       = "VALIDATING"
	OrderStateAwaitingApproval = "AWAITING_APPROVAL"
	OrderStateChargingPayment  = "CHARGING_PAYMENT"
	OrderStateShipping         = "SHIPPING"
	OrderStateShipped          = "SHIPPED"
	OrderStateCompleted        = "COMPLETED"
	OrderStateCancelled        = "CANCELLED"
	OrderStateApprovalTimeout  = "APPROVAL_TIMEOUT"
	OrderStateFailed           = "FAILED"
)

// Shipping workflow runtime states.
const (
	ShippingStateInit        = "INIT"
	ShippingStatePreparing   = "PREPARING"
	ShippingStateDispatching = "DISPATCHING"
	ShippingStateDispatched  = "DISPATCHED"
	ShippingStateFailed      = "FAILED"
)

// OrderInput is the order snapshot passed to the order workflow and through
// the activity layer.
type OrderInput struct {
	OrderID   string   `json:"order_id"`
	PaymentID string   `json:"payment_id"`
	Items     ItemList `json:"items"`
	Address   *Address `json:"address,omitempty"`
}

// ChargeResult is the stored outcome of a payment charge.
type ChargeResult struct {
	PaymentID string `json:"payment_id"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Amount    int    `json:"amount"`
}

// OrderResult is the combined payment+shipping outcome returned by the order
// workflow.
type OrderResult struct {
	State    string       `json:"state"`
	Payment  ChargeResult `json:"payment"`
	Shipping string       `json:"shipping"`
}

// OrderStatus is the order workflow's status query payload.
type OrderStatus struct {
	State     string   `json:"state"`
	Address   *Address `json:"address,omitempty"`
	Errors    []string `json:"errors"`
	Cancelled bool     `json:"cancelled"`
	Approved  bool     `json:"approved"`
}

// ShippingStatus is the shipping workflow's status query payload.
type ShippingStatus struct {
	State string `json:"state"`
}
