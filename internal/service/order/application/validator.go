// internal/service/order/application/validator.go
package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ordercore/internal/pkg/logger"
	"ordercore/internal/service/order/domain"
	"ordercore/internal/service/order/domain/port"
)

// 校验失败信息的文案固定，聚合顺序也固定（库存 -> 客户 -> 支付），
// 保证结论在并发执行下依然是确定性的。
const (
	msgInsufficientInventory = "insufficient inventory for requested items"
	msgInvalidCustomer       = "invalid customer"
	msgInvalidPayment        = "invalid payment method"
)

// CheckTimeouts 是三个外部校验各自独立的超时时间。
type CheckTimeouts struct {
	Inventory time.Duration
	Customer  time.Duration
	Payment   time.Duration
}

// ValidationOrchestrator 并发调度三个独立的外部校验并聚合结论。
//
// 失败策略是非对称的，这是刻意的设计：
//   - 库存检查失败或超时 => 视为有货（乐观），不让一个非关键检查挡住成交；
//   - 客户 / 支付检查失败或超时 => 视为不合法（悲观），
//     绝不放行一个无法核实的主体或支付方式。
type ValidationOrchestrator struct {
	inventory port.InventoryAuthority
	customer  port.CustomerAuthority
	payment   port.PaymentAuthority
	timeouts  CheckTimeouts
	tracer    trace.Tracer
}

// NewValidationOrchestrator 创建校验编排器。
func NewValidationOrchestrator(
	inventory port.InventoryAuthority,
	customer port.CustomerAuthority,
	payment port.PaymentAuthority,
	timeouts CheckTimeouts,
	tracer trace.Tracer,
) *ValidationOrchestrator {
	return &ValidationOrchestrator{
		inventory: inventory,
		customer:  customer,
		payment:   payment,
		timeouts:  timeouts,
		tracer:    tracer,
	}
}

// Validate 执行三路并发校验，等待全部完成（或各自超时）后聚合。
// 任何一路慢都不会阻塞其它两路。
func (o *ValidationOrchestrator) Validate(ctx context.Context, cmd *domain.CreateOrderCommand) domain.ValidationVerdict {
	ctx, span := o.tracer.Start(ctx, "app.ValidateOrder")
	defer span.End()

	inventoryCh := o.runCheck(ctx, "inventory", o.timeouts.Inventory, true, func(ctx context.Context) (bool, error) {
		return o.inventory.CheckAvailability(ctx, cmd.Items)
	})
	customerCh := o.runCheck(ctx, "customer", o.timeouts.Customer, false, func(ctx context.Context) (bool, error) {
		return o.customer.ValidateCustomer(ctx, cmd.CustomerID.String())
	})
	paymentCh := o.runCheck(ctx, "payment", o.timeouts.Payment, false, func(ctx context.Context) (bool, error) {
		return o.payment.ValidatePaymentMethod(ctx, cmd.CustomerID.String(), cmd.PaymentMethodID)
	})

	inventoryOK := <-inventoryCh
	customerOK := <-customerCh
	paymentOK := <-paymentCh

	var errs []string
	if !inventoryOK {
		errs = append(errs, msgInsufficientInventory)
	}
	if !customerOK {
		errs = append(errs, msgInvalidCustomer)
	}
	if !paymentOK {
		errs = append(errs, msgInvalidPayment)
	}

	span.SetAttributes(
		attribute.Bool("validation.valid", len(errs) == 0),
		attribute.StringSlice("validation.errors", errs),
	)
	return domain.ValidationVerdict{Errors: errs}
}

type checkResult struct {
	ok  bool
	err error
}

// runCheck 在独立的 goroutine 中执行一路校验。
// fallback 是该路检查失败或超时后采用的默认结论。
// 超时后在途的远程调用不会被强行中止，其结果被丢弃。
func (o *ValidationOrchestrator) runCheck(
	ctx context.Context,
	name string,
	timeout time.Duration,
	fallback bool,
	call func(context.Context) (bool, error),
) <-chan bool {
	out := make(chan bool, 1)
	go func() {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		done := make(chan checkResult, 1)
		go func() {
			ok, err := call(checkCtx)
			done <- checkResult{ok: ok, err: err}
		}()

		select {
		case res := <-done:
			if res.err != nil {
				logger.Ctx(ctx).Warn().Err(res.err).
					Str("check", name).
					Bool("fallback", fallback).
					Msg("Validation check failed, applying default verdict")
				out <- fallback
				return
			}
			out <- res.ok
		case <-checkCtx.Done():
			logger.Ctx(ctx).Warn().
				Str("check", name).
				Bool("fallback", fallback).
				Msg("Validation check timed out, applying default verdict")
			out <- fallback
		}
	}()
	return out
}
