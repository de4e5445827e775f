// internal/pkg/bootstrap/app.go
package bootstrap

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"ordercore/internal/pkg/config"
	"ordercore/internal/pkg/logger"
	"ordercore/internal/pkg/tracing"
)

// AppCtx 是传递给业务装配逻辑的上下文。
type AppCtx struct {
	Mux    *http.ServeMux
	Config *config.Config
}

// AppInfo 包含了启动服务所需的所有特定信息。
type AppInfo struct {
	ServiceName string
	// RegisterHandlers 由组装根实现：创建依赖、注册路由，
	// 返回的清理函数会在关停流程中按注册顺序的逆序执行。
	RegisterHandlers func(appCtx AppCtx) []func(ctx context.Context)
}

// StartService 封装了通用的启动和优雅关停逻辑。
func StartService(info AppInfo) {
	// 1. 加载配置（路径可通过环境变量指定）
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if info.ServiceName != "" {
		cfg.Service.Name = info.ServiceName
	}

	logger.Init(cfg.Service.Name)

	// 2. 初始化 Tracer
	tp, err := tracing.InitTracerProvider(cfg.Service.Name, cfg.Infra.JaegerEndpoint)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer provider")
	}

	// 3. 组装业务依赖并注册路由
	mux := http.NewServeMux()
	var cleanups []func(ctx context.Context)
	if info.RegisterHandlers != nil {
		cleanups = info.RegisterHandlers(AppCtx{Mux: mux, Config: cfg})
	}

	// 4. 启动 HTTP Server
	server := &http.Server{Addr: ":" + strconv.Itoa(cfg.Service.Port), Handler: mux}
	go func() {
		logger.Logger.Info().Msgf("%s listening on :%d", cfg.Service.Name, cfg.Service.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	// 5. 阻塞主 goroutine，直到接收到退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Logger.Info().Msgf("Shutting down service %s...", cfg.Service.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 6. 按后进先出的顺序执行清理操作
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Error shutting down http server")
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		cleanups[i](ctx)
	}
	if err := tp.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Error shutting down tracer provider")
	}

	logger.Logger.Info().Msgf("Service %s gracefully shut down.", cfg.Service.Name)
}
