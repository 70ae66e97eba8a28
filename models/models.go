package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Store-side order lifecycle states, written by the activity layer.
const (
	StateOrderReceived     = "ORDER_RECEIVED"
	StateOrderValidated    = "ORDER_VALIDATED"
	StatePaymentCharged    = "PAYMENT_CHARGED"
	StatePackagePrepared   = "PACKAGE_PREPARED"
	StateCarrierDispatched = "CARRIER_DISPATCHED"
	StateOrderShipped      = "ORDER_SHIPPED"
)

// EventTypeAddressUpdated is the only event type that is not also a
// lifecycle state.
const EventTypeAddressUpdated = "ADDRESS_UPDATED"

// PaymentStatusCharged is the only status a payment row ever holds.
const PaymentStatusCharged = "CHARGED"

// Item is a single order line.
type Item struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

// ItemList is stored as a JSON column on orders.
type ItemList []Item

func (l ItemList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ItemList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type %T for ItemList", src)
	}
}

// Address is a structured mailing address. All fields are optional so a
// partial correction like {"city": "X"} round-trips unchanged.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

func (a Address) Value() (driver.Value, error) {
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (a *Address) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported type %T for Address", src)
	}
}

// Order is one row per caller-supplied id, never deleted. Only the activity
// layer mutates it.
type Order struct {
	ID        string    `gorm:"primaryKey" json:"order_id"`
	State     string    `gorm:"type:varchar(32);not null" json:"state"`
	Items     ItemList  `gorm:"type:jsonb" json:"items"`
	Address   *Address  `gorm:"type:jsonb" json:"address,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Payment is created at most once per payment id and is immutable after
// insert.
type Payment struct {
	PaymentID string    `gorm:"primaryKey" json:"payment_id"`
	OrderID   string    `gorm:"not null;index" json:"order_id"`
	Status    string    `gorm:"type:varchar(20);not null" json:"status"`
	Amount    int       `gorm:"not null" json:"amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Event is an append-only audit entry. Ordering is advisory only.
type Event struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   string    `gorm:"not null;index" json:"order_id"`
	Type      string    `gorm:"type:varchar(40);not null" json:"type"`
	Payload   string    `gorm:"type:jsonb" json:"payload"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}
