package activities

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nawoda2/Temporal-Order-Lifecycle/models"
	"github.com/nawoda2/Temporal-Order-Lifecycle/repository"
)

func setupActivities(t *testing.T) (*Activities, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{})
	require.NoError(t, err)

	repo := repository.NewGormOrderRepository(gormDB)
	return NewActivities(repo, NewFaultInjector(false), zap.NewNop()), mock
}

func orderRows(orderID, state, items string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "state", "items", "address", "created_at", "updated_at"}).
		AddRow(orderID, state, items, nil, now, now)
}

func TestReceiveOrder_InsertsFreshOrder(t *testing.T) {
	a, mock := setupActivities(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs("O1", 1).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "events"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	input := models.OrderInput{OrderID: "O1", Items: models.ItemList{{SKU: "A", Qty: 2}}}
	out, err := a.ReceiveOrder(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, input.Items, out.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReceiveOrder_FirstWriterWins(t *testing.T) {
	a, mock := setupActivities(t)

	// A differing payload on a repeat call returns the stored items, not the
	// new ones, and writes nothing.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs("O1", 1).
		WillReturnRows(orderRows("O1", models.StateOrderReceived, `[{"sku":"FIRST","qty":9}]`))

	input := models.OrderInput{OrderID: "O1", Items: models.ItemList{{SKU: "SECOND", Qty: 1}}}
	out, err := a.ReceiveOrder(context.Background(), input)
	assert.NoError(t, err)
	assert.Equal(t, models.ItemList{{SKU: "FIRST", Qty: 9}}, out.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateOrder_EmptyItems(t *testing.T) {
	a, _ := setupActivities(t)

	_, err := a.ValidateOrder(context.Background(), models.OrderInput{OrderID: "O1"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeValidation, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestValidateOrder_NotFound(t *testing.T) {
	a, mock := setupActivities(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	_, err := a.ValidateOrder(context.Background(), models.OrderInput{
		OrderID: "missing",
		Items:   models.ItemList{{SKU: "A", Qty: 1}},
	})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeNotFound, appErr.Type())
	assert.True(t, appErr.NonRetryable())
}

func TestValidateOrder_AlreadyValidatedIsNoOp(t *testing.T) {
	a, mock := setupActivities(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs("O1", 1).
		WillReturnRows(orderRows("O1", models.StateOrderValidated, `[{"sku":"A","qty":2}]`))

	ok, err := a.ValidateOrder(context.Background(), models.OrderInput{
		OrderID: "O1",
		Items:   models.ItemList{{SKU: "A", Qty: 2}},
	})
	assert.NoError(t, err)
	assert.True(t, ok)
	// No transition, no duplicate event.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChargePayment_ReturnsStoredResultWithoutRecharging(t *testing.T) {
	a, mock := setupActivities(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payments"`)).
		WithArgs("P1", 1).
		WillReturnRows(sqlmock.NewRows([]string{"payment_id", "order_id", "status", "amount", "created_at"}).
			AddRow("P1", "O1", models.PaymentStatusCharged, 5, now))

	result, err := a.ChargePayment(context.Background(), models.OrderInput{
		OrderID: "O1",
		Items:   models.ItemList{{SKU: "A", Qty: 2}},
	}, "P1")
	assert.NoError(t, err)
	assert.Equal(t, 5, result.Amount)
	assert.Equal(t, models.PaymentStatusCharged, result.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestChargePayment_AmountIsSumOfQuantities(t *testing.T) {
	a, mock := setupActivities(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "payments"`)).
		WithArgs("P1", 1).
		WillReturnRows(sqlmock.NewRows([]string{}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "payments"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "events"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := a.ChargePayment(context.Background(), models.OrderInput{
		OrderID: "O1",
		Items:   models.ItemList{{SKU: "A", Qty: 2}, {SKU: "B", Qty: 1}},
	}, "P1")
	assert.NoError(t, err)
	assert.Equal(t, 3, result.Amount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkShipped_AlreadyShippedIsNoOp(t *testing.T) {
	a, mock := setupActivities(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs("O1", 1).
		WillReturnRows(orderRows("O1", models.StateOrderShipped, `[]`))

	state, err := a.MarkShipped(context.Background(), models.OrderInput{OrderID: "O1"})
	assert.NoError(t, err)
	assert.Equal(t, models.StateOrderShipped, state)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDispatchCarrier_Transitions(t *testing.T) {
	a, mock := setupActivities(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs("O1", 1).
		WillReturnRows(orderRows("O1", models.StatePackagePrepared, `[]`))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "events"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	state, err := a.DispatchCarrier(context.Background(), models.OrderInput{OrderID: "O1"})
	assert.NoError(t, err)
	assert.Equal(t, models.StateCarrierDispatched, state)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAddress_NotFound(t *testing.T) {
	a, mock := setupActivities(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs("missing", 1).
		WillReturnRows(sqlmock.NewRows([]string{}))

	err := a.UpdateAddress(context.Background(), "missing", models.Address{City: "X"})
	require.Error(t, err)

	var appErr *temporal.ApplicationError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, ErrTypeNotFound, appErr.Type())
}

func TestUpdateAddress_OverwritesUnconditionally(t *testing.T) {
	a, mock := setupActivities(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "orders"`)).
		WithArgs("O1", 1).
		WillReturnRows(orderRows("O1", models.StateOrderShipped, `[]`))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "orders"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "events"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Shipped already, still overwritten: the operation is not
	// state-conditioned.
	err := a.UpdateAddress(context.Background(), "O1", models.Address{City: "X"})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultInjector(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		assert.NoError(t, NewFaultInjector(false).Maybe(context.Background()))
	})

	t.Run("low roll fails transiently", func(t *testing.T) {
		f := NewFaultInjector(true)
		f.randFn = func() float64 { return 0.1 }
		assert.Error(t, f.Maybe(context.Background()))
	})

	t.Run("mid roll stalls until the caller gives up", func(t *testing.T) {
		f := NewFaultInjector(true)
		f.randFn = func() float64 { return 0.5 }
		f.stall = time.Hour

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := f.Maybe(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("high roll passes through", func(t *testing.T) {
		f := NewFaultInjector(true)
		f.randFn = func() float64 { return 0.9 }
		assert.NoError(t, f.Maybe(context.Background()))
	})
}
