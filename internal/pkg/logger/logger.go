// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Logger 是全局的结构化日志实例，在 Init 之后可用。
var Logger zerolog.Logger

func init() {
	// 默认输出到 stderr，服务启动后由 Init 重新配置
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Init 初始化全局日志实例，所有日志都会带上服务名字段。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个与当前链路关联的日志实例。
// 如果 context 中存在活跃的 Span，日志会自动带上 trace_id / span_id，
// 方便在日志系统中与 Jaeger 链路互相跳转。
func Ctx(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &Logger
	}
	l := Logger.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &l
}
