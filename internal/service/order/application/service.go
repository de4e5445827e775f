// internal/service/order/application/service.go
package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ordercore/internal/pkg/logger"
	"ordercore/internal/pkg/metrics"
	"ordercore/internal/pkg/workerpool"
	"ordercore/internal/service/order/application/resilience"
	"ordercore/internal/service/order/domain"
	"ordercore/internal/service/order/domain/port"
)

// ServiceConfig 是创建管线自身的可调参数。
type ServiceConfig struct {
	CacheTTL          time.Duration
	SaveRetryAttempts int // 含首次尝试在内的总次数
	SaveRetryBackoff  time.Duration
}

// Service 编排整条订单创建管线：
// 幂等查询 -> 三路并发校验 -> 工厂构造 -> 带重试的持久化 ->
// 异步事件通知 + 状态推送 + 缓存回填。
// 整条管线运行在 Governor 的准入 / 熔断 / 超时防护之下。
type Service struct {
	repo      domain.OrderRepository
	cache     port.ResultCache
	factory   *domain.Factory
	validator *ValidationOrchestrator
	notifier  port.EventProducer
	registry  *Registry
	governor  *resilience.Governor
	eventPool *workerpool.Pool
	counters  *metrics.Counters
	tracer    trace.Tracer
	cfg       ServiceConfig
}

// NewService 组装订单应用服务。
func NewService(
	repo domain.OrderRepository,
	cache port.ResultCache,
	factory *domain.Factory,
	validator *ValidationOrchestrator,
	notifier port.EventProducer,
	registry *Registry,
	governor *resilience.Governor,
	eventPool *workerpool.Pool,
	counters *metrics.Counters,
	tracer trace.Tracer,
	cfg ServiceConfig,
) *Service {
	if cfg.SaveRetryAttempts < 1 {
		cfg.SaveRetryAttempts = 1
	}
	if cfg.SaveRetryBackoff <= 0 {
		cfg.SaveRetryBackoff = time.Second
	}
	return &Service{
		repo:      repo,
		cache:     cache,
		factory:   factory,
		validator: validator,
		notifier:  notifier,
		registry:  registry,
		governor:  governor,
		eventPool: eventPool,
		counters:  counters,
		tracer:    tracer,
		cfg:       cfg,
	}
}

// Registry 暴露订阅注册表，供接口层在通道生命周期回调中使用。
func (s *Service) Registry() *Registry {
	return s.registry
}

// CreateOrder 是管线的对外入口。
// 无论内部发生什么，返回值都是一个结构化的 OrderResult。
func (s *Service) CreateOrder(ctx context.Context, cmd *domain.CreateOrderCommand) domain.OrderResult {
	return s.governor.Execute(ctx, func(ctx context.Context) domain.OrderResult {
		return s.createOrder(ctx, cmd)
	})
}

func (s *Service) createOrder(ctx context.Context, cmd *domain.CreateOrderCommand) domain.OrderResult {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()

	log := logger.Ctx(ctx)
	log.Info().Str("customer_id", cmd.CustomerID.String()).Msg("Processing order creation")

	// 1. 幂等短路：同一客户 + 同一幂等键直接返回此前的结果
	cacheKey := cmd.CacheKey()
	if cached, hit := s.cache.Get(ctx, cacheKey); hit {
		s.counters.Increment(metrics.CacheHit)
		span.AddEvent("Idempotency cache hit")
		log.Info().Str("cache_key", cacheKey).Msg("Returning cached order result")
		return cached
	}

	// 2. 三路并发校验
	verdict := s.validator.Validate(ctx, cmd)
	if ctx.Err() != nil {
		s.counters.Increment(metrics.ValidationTimeout)
		span.SetStatus(codes.Error, "validation exceeded pipeline deadline")
		return domain.FaultResult("order validation timed out")
	}
	if !verdict.Valid() {
		log.Warn().Strs("errors", verdict.Errors).Msg("Order validation failed")
		span.SetStatus(codes.Error, "order validation failed")
		return domain.FailureResult(strings.Join(verdict.Errors, "; "))
	}

	// 3. 构造聚合
	order, err := s.factory.Build(cmd)
	if err != nil {
		s.counters.Increment(metrics.CreationError)
		span.RecordError(err)
		log.Error().Err(err).Msg("Failed to construct order aggregate")
		return domain.FaultResult(fmt.Sprintf("order creation failed: %v", err))
	}

	// 4. 持久化，乐观锁冲突走有限重试
	saved, err := s.saveWithRetry(ctx, order)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, domain.ErrDuplicateOrder) {
			s.counters.Increment(metrics.SaveIntegrityError)
			log.Error().Err(err).Str("order_id", order.ID.String()).Msg("Data integrity violation while saving order")
			return domain.FaultResult("order creation failed: duplicate order")
		}
		s.counters.Increment(metrics.CreationError)
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("Failed to save order")
		return domain.FaultResult(fmt.Sprintf("order creation failed: %v", err))
	}

	result := domain.SuccessResult(saved)

	// 5. 事件通知与状态推送走独立事件池，永不拖慢关键路径
	s.dispatchCreatedEvent(ctx, saved)

	// 6. 回填幂等缓存（写失败由适配器吞掉并记录）
	s.cache.Put(ctx, cacheKey, result, s.cfg.CacheTTL)

	s.counters.Increment(metrics.CreatedSuccess)
	log.Info().Str("order_id", saved.ID.String()).Msg("Order created successfully")
	return result
}

// saveWithRetry 对版本冲突执行有限次数的常数退避重试：
// 每次冲突后重读当前版本，把本次写入重放到最新版本上。
// 完整性冲突不可通过重试恢复，立即终止。
func (s *Service) saveWithRetry(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	var saved *domain.Order
	backoff := retry.WithMaxRetries(
		uint64(s.cfg.SaveRetryAttempts-1),
		retry.NewConstant(s.cfg.SaveRetryBackoff),
	)

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := s.repo.Save(ctx, order)
		if err == nil {
			saved = out
			return nil
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			s.counters.Increment(metrics.SaveRetry)
			logger.Ctx(ctx).Warn().
				Str("order_id", order.ID.String()).
				Msg("Optimistic locking failure, retrying order save")
			if current, ferr := s.repo.FindByID(ctx, order.ID); ferr == nil {
				order.Version = current.Version
			}
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// dispatchCreatedEvent 把事件发布和订阅推送提交到事件池。
// 提交的任务使用剥离了截止时间、仅保留链路信息的上下文，
// 请求返回后任务仍可完成；任务失败只计数和记日志。
func (s *Service) dispatchCreatedEvent(ctx context.Context, order *domain.Order) {
	spanCtx := trace.SpanContextFromContext(ctx)
	eventCtx := trace.ContextWithSpanContext(context.Background(), spanCtx)

	event := domain.NewOrderCreatedEvent(order)
	orderID := order.ID
	status := order.Status

	s.eventPool.Submit(func() {
		if err := s.notifier.OrderCreated(eventCtx, event); err != nil {
			s.counters.Increment(metrics.EventPublishError)
			logger.Ctx(eventCtx).Error().Err(err).
				Str("order_id", event.OrderID).
				Msg("Failed to publish order created event")
		} else {
			s.counters.Increment(metrics.EventPublished)
		}
		s.registry.Publish(orderID, status)
	})
}

// Subscribe 注册一个订单状态订阅。
// 首帧快照直接读仓储而不是幂等缓存：订阅者看到的必须是已落库的状态。
// 订单不存在时，通道以 ErrOrderNotFound 关闭且不留任何注册表条目。
func (s *Service) Subscribe(ctx context.Context, orderID uuid.UUID, ch port.PushChannel) error {
	ctx, span := s.tracer.Start(ctx, "app.SubscribeOrderStatus")
	defer span.End()

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Warn().Err(err).
			Str("order_id", orderID.String()).
			Msg("Subscription rejected")
		ch.CompleteWithError(err)
		return err
	}

	s.registry.Add(orderID, ch)

	if err := ch.Send(statusEventName, uuid.New().String(), statusPayload(order.Status)); err != nil {
		s.registry.Remove(orderID, ch)
		ch.CompleteWithError(err)
		return err
	}

	logger.Ctx(ctx).Info().
		Str("order_id", orderID.String()).
		Msg("Order status subscription registered")
	return nil
}

// Unsubscribe 移除订阅。通道完成 / 超时 / 出错的回调也走这里，
// 保证注册表里不会留下悬空条目。
func (s *Service) Unsubscribe(orderID uuid.UUID, ch port.PushChannel) {
	s.registry.Remove(orderID, ch)
}

// UpdateStatus 更新订单状态并把新状态推送给活跃订阅者。
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, status domain.Status) error {
	ctx, span := s.tracer.Start(ctx, "app.UpdateOrderStatus")
	defer span.End()

	rows, err := s.repo.UpdateStatus(ctx, orderID, status)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if rows == 0 {
		return domain.ErrOrderNotFound
	}

	s.eventPool.Submit(func() {
		s.registry.Publish(orderID, status)
	})
	return nil
}
