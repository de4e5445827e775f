// internal/pkg/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config 汇总了订单服务运行所需的全部配置。
// 加载顺序：内置默认值 -> YAML 配置文件 -> 环境变量覆盖。
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Infra      InfraConfig      `yaml:"infra"`
	Authority  AuthorityConfig  `yaml:"authority"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Pools      PoolsConfig      `yaml:"pools"`
}

type ServiceConfig struct {
	Name string `yaml:"name" env:"SERVICE_NAME"`
	Port int    `yaml:"port" env:"SERVICE_PORT"`
}

type InfraConfig struct {
	MySQLDSN       string        `yaml:"mysql_dsn" env:"MYSQL_DSN"`
	RedisAddr      string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisPassword  string        `yaml:"redis_password" env:"REDIS_PASSWORD"`
	KafkaBrokers   []string      `yaml:"kafka_brokers" env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic     string        `yaml:"kafka_topic" env:"KAFKA_TOPIC"`
	JaegerEndpoint string        `yaml:"jaeger_endpoint" env:"JAEGER_ENDPOINT"`
	CacheTTL       time.Duration `yaml:"cache_ttl" env:"CACHE_TTL"`
}

// AuthorityConfig 描述三个外部校验服务的地址与各自的超时时间。
// 超时时间相互独立：库存检查是非关键路径，允许更宽松的失败策略。
type AuthorityConfig struct {
	InventoryURL     string        `yaml:"inventory_url" env:"INVENTORY_URL"`
	CustomerURL      string        `yaml:"customer_url" env:"CUSTOMER_URL"`
	PaymentURL       string        `yaml:"payment_url" env:"PAYMENT_URL"`
	InventoryTimeout time.Duration `yaml:"inventory_timeout" env:"INVENTORY_TIMEOUT"`
	CustomerTimeout  time.Duration `yaml:"customer_timeout" env:"CUSTOMER_TIMEOUT"`
	PaymentTimeout   time.Duration `yaml:"payment_timeout" env:"PAYMENT_TIMEOUT"`
}

type ResilienceConfig struct {
	BulkheadCapacity     int64         `yaml:"bulkhead_capacity" env:"BULKHEAD_CAPACITY"`
	BulkheadWait         time.Duration `yaml:"bulkhead_wait" env:"BULKHEAD_WAIT"`
	WindowSize           int           `yaml:"window_size" env:"CB_WINDOW_SIZE"`
	MinCalls             int           `yaml:"min_calls" env:"CB_MIN_CALLS"`
	FailureRateThreshold float64       `yaml:"failure_rate_threshold" env:"CB_FAILURE_RATE"`
	SlowCallThreshold    time.Duration `yaml:"slow_call_threshold" env:"CB_SLOW_CALL_THRESHOLD"`
	SlowRateThreshold    float64       `yaml:"slow_rate_threshold" env:"CB_SLOW_RATE"`
	OpenStateDuration    time.Duration `yaml:"open_state_duration" env:"CB_OPEN_DURATION"`
	HalfOpenProbes       int           `yaml:"half_open_probes" env:"CB_HALF_OPEN_PROBES"`
	PipelineTimeout      time.Duration `yaml:"pipeline_timeout" env:"PIPELINE_TIMEOUT"`
	SaveRetryAttempts    int           `yaml:"save_retry_attempts" env:"SAVE_RETRY_ATTEMPTS"`
	SaveRetryBackoff     time.Duration `yaml:"save_retry_backoff" env:"SAVE_RETRY_BACKOFF"`
}

type PoolsConfig struct {
	OrderWorkers   int `yaml:"order_workers" env:"ORDER_POOL_WORKERS"`
	OrderQueueSize int `yaml:"order_queue_size" env:"ORDER_POOL_QUEUE"`
	EventWorkers   int `yaml:"event_workers" env:"EVENT_POOL_WORKERS"`
	EventQueueSize int `yaml:"event_queue_size" env:"EVENT_POOL_QUEUE"`
}

// Default 返回一份可直接运行的默认配置。
// 熔断 / 舱壁 / 重试的阈值与压测调优后的基线保持一致。
func Default() *Config {
	return &Config{
		Service: ServiceConfig{Name: "order-service", Port: 8081},
		Infra: InfraConfig{
			MySQLDSN:       "root:root@tcp(localhost:3306)/orders?charset=utf8mb4&parseTime=True&loc=UTC",
			RedisAddr:      "localhost:6379",
			KafkaBrokers:   []string{"localhost:9092"},
			KafkaTopic:     "order-created-topic",
			JaegerEndpoint: "http://localhost:14268/api/traces",
			CacheTTL:       10 * time.Minute,
		},
		Authority: AuthorityConfig{
			InventoryURL:     "http://localhost:8082",
			CustomerURL:      "http://localhost:8083",
			PaymentURL:       "http://localhost:8084",
			InventoryTimeout: 3 * time.Second,
			CustomerTimeout:  2 * time.Second,
			PaymentTimeout:   3 * time.Second,
		},
		Resilience: ResilienceConfig{
			BulkheadCapacity:     25,
			BulkheadWait:         500 * time.Millisecond,
			WindowSize:           10,
			MinCalls:             5,
			FailureRateThreshold: 0.5,
			SlowCallThreshold:    2 * time.Second,
			SlowRateThreshold:    0.5,
			OpenStateDuration:    30 * time.Second,
			HalfOpenProbes:       3,
			PipelineTimeout:      5 * time.Second,
			SaveRetryAttempts:    3,
			SaveRetryBackoff:     time.Second,
		},
		Pools: PoolsConfig{
			OrderWorkers:   10,
			OrderQueueSize: 100,
			EventWorkers:   5,
			EventQueueSize: 200,
		},
	}
}

// Load 从指定路径加载配置。path 为空时只使用默认值和环境变量。
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// 环境变量优先级最高，方便在容器环境下覆盖单项配置
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}
	return cfg, nil
}
