// cmd/order-service/main.go
package main

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"ordercore/internal/pkg/bootstrap"
	"ordercore/internal/pkg/httpclient"
	"ordercore/internal/pkg/logger"
	"ordercore/internal/pkg/metrics"
	"ordercore/internal/pkg/redis"
	"ordercore/internal/pkg/workerpool"
	"ordercore/internal/service/order/application"
	"ordercore/internal/service/order/application/resilience"
	"ordercore/internal/service/order/domain"
	"ordercore/internal/service/order/infrastructure"
	"ordercore/internal/service/order/infrastructure/adapter"
	"ordercore/internal/service/order/interfaces"
)

const serviceName = "order-service"

// main 函数是应用的"组装根" (Composition Root)。
// 它的核心职责是：创建并组装所有依赖项，然后启动应用。
func main() {
	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) []func(ctx context.Context) {
			cfg := appCtx.Config
			var cleanups []func(ctx context.Context)

			// --- 基础设施 ---
			db, err := gorm.Open(mysql.Open(cfg.Infra.MySQLDSN), &gorm.Config{})
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("Failed to connect to mysql")
			}

			redisClient, err := redis.NewClient(cfg.Infra.RedisAddr, cfg.Infra.RedisPassword, 0)
			if err != nil {
				logger.Logger.Fatal().Err(err).Msg("Failed to connect to redis")
			}
			cleanups = append(cleanups, func(context.Context) { redisClient.Close() })

			repo := infrastructure.NewGormOrderRepository(db)
			if err := repo.AutoMigrate(); err != nil {
				logger.Logger.Fatal().Err(err).Msg("Failed to migrate order schema")
			}

			cache := infrastructure.NewRedisResultCache(redisClient)

			notifier := infrastructure.NewKafkaEventProducer(cfg.Infra.KafkaBrokers, cfg.Infra.KafkaTopic)
			cleanups = append(cleanups, func(context.Context) { notifier.Close() })

			// --- 外部校验服务适配器 ---
			tracer := otel.Tracer(serviceName)
			httpClient := httpclient.NewClient(tracer)
			inventory := adapter.NewInventoryHTTPAdapter(httpClient, cfg.Authority.InventoryURL)
			customer := adapter.NewCustomerHTTPAdapter(httpClient, cfg.Authority.CustomerURL)
			payment := adapter.NewPaymentHTTPAdapter(httpClient, cfg.Authority.PaymentURL)

			// --- 工作池：订单处理与事件通知相互隔离 ---
			orderPool := workerpool.New("order-processing", cfg.Pools.OrderWorkers, cfg.Pools.OrderQueueSize)
			eventPool := workerpool.New("event-processing", cfg.Pools.EventWorkers, cfg.Pools.EventQueueSize)
			cleanups = append(cleanups, func(ctx context.Context) {
				orderPool.Shutdown(ctx)
				eventPool.Shutdown(ctx)
			})

			// --- 应用层 ---
			counters := metrics.NewCounters(prometheus.DefaultRegisterer)
			clock := domain.SystemClock{}

			governor := resilience.NewGovernor(resilience.GovernorConfig{
				Bulkhead: resilience.BreakerlessBulkheadConfig{
					Capacity: cfg.Resilience.BulkheadCapacity,
					MaxWait:  cfg.Resilience.BulkheadWait,
				},
				Breaker: resilience.BreakerConfig{
					WindowSize:           cfg.Resilience.WindowSize,
					MinCalls:             cfg.Resilience.MinCalls,
					FailureRateThreshold: cfg.Resilience.FailureRateThreshold,
					SlowCallThreshold:    cfg.Resilience.SlowCallThreshold,
					SlowRateThreshold:    cfg.Resilience.SlowRateThreshold,
					OpenStateDuration:    cfg.Resilience.OpenStateDuration,
					HalfOpenProbes:       cfg.Resilience.HalfOpenProbes,
				},
				Timeout: cfg.Resilience.PipelineTimeout,
			}, clock, counters)

			validator := application.NewValidationOrchestrator(inventory, customer, payment, application.CheckTimeouts{
				Inventory: cfg.Authority.InventoryTimeout,
				Customer:  cfg.Authority.CustomerTimeout,
				Payment:   cfg.Authority.PaymentTimeout,
			}, tracer)

			service := application.NewService(
				repo,
				cache,
				domain.NewFactory(clock),
				validator,
				notifier,
				application.NewRegistry(),
				governor,
				eventPool,
				counters,
				tracer,
				application.ServiceConfig{
					CacheTTL:          cfg.Infra.CacheTTL,
					SaveRetryAttempts: cfg.Resilience.SaveRetryAttempts,
					SaveRetryBackoff:  cfg.Resilience.SaveRetryBackoff,
				},
			)
			queryService := application.NewQueryService(repo, tracer)

			// --- 接口层 ---
			handler := interfaces.NewOrderHandler(service, queryService, orderPool)
			handler.RegisterRoutes(appCtx.Mux)

			return cleanups
		},
	})
}
