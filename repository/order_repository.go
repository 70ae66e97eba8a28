package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nawoda2/Temporal-Order-Lifecycle/models"
)

// OrderRepository defines store access for the activity layer. Every
// state-advancing method commits its row update and audit event in one
// transaction.
type OrderRepository interface {
	FindOrder(ctx context.Context, orderID string) (*models.Order, error)
	// CreateOrderIfAbsent inserts the order and its audit event unless the
	// row already exists. When another writer won the race it returns
	// applied=false and the stored row.
	CreateOrderIfAbsent(ctx context.Context, order *models.Order, event *models.Event) (bool, *models.Order, error)
	// TransitionOrder moves the order to toState and appends the event.
	TransitionOrder(ctx context.Context, orderID, toState string, event *models.Event) error
	// UpdateOrderAddress overwrites the stored address and appends the event.
	UpdateOrderAddress(ctx context.Context, orderID string, address *models.Address, event *models.Event) error
	FindPayment(ctx context.Context, paymentID string) (*models.Payment, error)
	// CreatePaymentIfAbsent inserts the payment, advances the order state and
	// appends the event in one transaction. When the payment row already
	// exists it returns applied=false and the stored row untouched.
	CreatePaymentIfAbsent(ctx context.Context, payment *models.Payment, orderState string, event *models.Event) (bool, *models.Payment, error)
	FindEvents(ctx context.Context, orderID string) ([]models.Event, error)
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new instance of GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

func (r *GormOrderRepository) FindOrder(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormOrderRepository) CreateOrderIfAbsent(ctx context.Context, order *models.Order, event *models.Event) (bool, *models.Order, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(order)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race; first writer wins.
			return nil
		}
		applied = true
		return tx.Create(event).Error
	})
	if err != nil {
		return false, nil, err
	}
	if !applied {
		stored, err := r.FindOrder(ctx, order.ID)
		if err != nil {
			return false, nil, err
		}
		return false, stored, nil
	}
	return true, order, nil
}

func (r *GormOrderRepository) TransitionOrder(ctx context.Context, orderID, toState string, event *models.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Update("state", toState).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
}

func (r *GormOrderRepository) UpdateOrderAddress(ctx context.Context, orderID string, address *models.Address, event *models.Event) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Order{}).
			Where("id = ?", orderID).
			Update("address", address).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
}

func (r *GormOrderRepository) FindPayment(ctx context.Context, paymentID string) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *GormOrderRepository) CreatePaymentIfAbsent(ctx context.Context, payment *models.Payment, orderState string, event *models.Event) (bool, *models.Payment, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(payment)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		applied = true
		if err := tx.Model(&models.Order{}).
			Where("id = ?", payment.OrderID).
			Update("state", orderState).Error; err != nil {
			return err
		}
		return tx.Create(event).Error
	})
	if err != nil {
		return false, nil, err
	}
	if !applied {
		stored, err := r.FindPayment(ctx, payment.PaymentID)
		if err != nil {
			return false, nil, err
		}
		return false, stored, nil
	}
	return true, payment, nil
}

func (r *GormOrderRepository) FindEvents(ctx context.Context, orderID string) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("timestamp ASC").
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
