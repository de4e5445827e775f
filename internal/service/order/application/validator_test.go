package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"

	"ordercore/internal/service/order/domain"
)

type fakeInventory struct {
	available bool
	err       error
	delay     time.Duration
}

func (f *fakeInventory) CheckAvailability(ctx context.Context, items []domain.CommandItem) (bool, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return f.available, f.err
}

type fakeCustomer struct {
	valid bool
	err   error
	delay time.Duration
}

func (f *fakeCustomer) ValidateCustomer(ctx context.Context, customerID string) (bool, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return f.valid, f.err
}

type fakePayment struct {
	valid bool
	err   error
	delay time.Duration
}

func (f *fakePayment) ValidatePaymentMethod(ctx context.Context, customerID, paymentMethodID string) (bool, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	return f.valid, f.err
}

func testCommand() *domain.CreateOrderCommand {
	return &domain.CreateOrderCommand{
		CustomerID:      uuid.New(),
		Items:           []domain.CommandItem{{ProductID: uuid.New().String(), Quantity: 1}},
		PaymentMethodID: "pm-1",
	}
}

func newOrchestrator(inv *fakeInventory, cust *fakeCustomer, pay *fakePayment, timeouts CheckTimeouts) *ValidationOrchestrator {
	return NewValidationOrchestrator(inv, cust, pay, timeouts, noop.NewTracerProvider().Tracer("test"))
}

func defaultTimeouts() CheckTimeouts {
	return CheckTimeouts{
		Inventory: 100 * time.Millisecond,
		Customer:  100 * time.Millisecond,
		Payment:   100 * time.Millisecond,
	}
}

func TestValidateAllPass(t *testing.T) {
	o := newOrchestrator(
		&fakeInventory{available: true},
		&fakeCustomer{valid: true},
		&fakePayment{valid: true},
		defaultTimeouts(),
	)

	verdict := o.Validate(context.Background(), testCommand())
	assert.True(t, verdict.Valid())
	assert.Empty(t, verdict.Errors)
}

func TestValidateAggregatesFailuresInFixedOrder(t *testing.T) {
	o := newOrchestrator(
		&fakeInventory{available: false},
		&fakeCustomer{valid: false},
		&fakePayment{valid: false},
		defaultTimeouts(),
	)

	verdict := o.Validate(context.Background(), testCommand())
	assert.False(t, verdict.Valid())
	assert.Equal(t, []string{
		"insufficient inventory for requested items",
		"invalid customer",
		"invalid payment method",
	}, verdict.Errors)
}

func TestValidateInventoryFailureIsOptimistic(t *testing.T) {
	// 库存检查出错 => 视为有货，不阻塞成交
	o := newOrchestrator(
		&fakeInventory{err: errors.New("inventory service down")},
		&fakeCustomer{valid: true},
		&fakePayment{valid: true},
		defaultTimeouts(),
	)

	verdict := o.Validate(context.Background(), testCommand())
	assert.True(t, verdict.Valid())
}

func TestValidateCustomerAndPaymentFailuresArePessimistic(t *testing.T) {
	// 客户 / 支付检查出错 => 视为不合法
	o := newOrchestrator(
		&fakeInventory{available: true},
		&fakeCustomer{err: errors.New("customer service down")},
		&fakePayment{err: errors.New("payment service down")},
		defaultTimeouts(),
	)

	verdict := o.Validate(context.Background(), testCommand())
	assert.False(t, verdict.Valid())
	assert.Equal(t, []string{"invalid customer", "invalid payment method"}, verdict.Errors)
}

func TestValidateTimeoutsApplyPerCheckFallback(t *testing.T) {
	// 三路全部超时：库存乐观放行，客户与支付悲观否决
	o := newOrchestrator(
		&fakeInventory{available: false, delay: time.Second},
		&fakeCustomer{valid: true, delay: time.Second},
		&fakePayment{valid: true, delay: time.Second},
		CheckTimeouts{
			Inventory: 20 * time.Millisecond,
			Customer:  20 * time.Millisecond,
			Payment:   20 * time.Millisecond,
		},
	)

	verdict := o.Validate(context.Background(), testCommand())
	assert.False(t, verdict.Valid())
	assert.Equal(t, []string{"invalid customer", "invalid payment method"}, verdict.Errors)
}

func TestValidateRunsChecksConcurrently(t *testing.T) {
	// 三路各需约 50ms，串行要 150ms；并发执行应该接近 50ms
	o := newOrchestrator(
		&fakeInventory{available: true, delay: 50 * time.Millisecond},
		&fakeCustomer{valid: true, delay: 50 * time.Millisecond},
		&fakePayment{valid: true, delay: 50 * time.Millisecond},
		defaultTimeouts(),
	)

	start := time.Now()
	verdict := o.Validate(context.Background(), testCommand())
	elapsed := time.Since(start)

	assert.True(t, verdict.Valid())
	assert.Less(t, elapsed, 120*time.Millisecond)
}
