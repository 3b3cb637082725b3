package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/matheusmosca/orders-inventory/internal/auth"
	"github.com/matheusmosca/orders-inventory/internal/config"
	"github.com/matheusmosca/orders-inventory/internal/database"
	"github.com/matheusmosca/orders-inventory/internal/server"
	"github.com/matheusmosca/orders-inventory/internal/telemetry"
	"github.com/matheusmosca/orders-inventory/internal/uow"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("orders-service", "orders_db")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	providers, err := telemetry.Init(ctx, telemetry.Settings{
		Service:  cfg.ServiceName,
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
	})
	if err != nil {
		logger.Fatal("failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := providers.Shutdown(context.Background()); err != nil {
			logger.Error("error shutting down telemetry", zap.Error(err))
		}
	}()

	pool, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer pool.Close()

	observer, err := telemetry.NewObserver(logger, providers.Tracer, providers.Meter)
	if err != nil {
		logger.Fatal("failed to initialize observer", zap.Error(err))
	}

	scopes := uow.NewFactory(uow.NewPoolConnector(pool),
		uow.WithLogger(logger),
		uow.WithCallTimeout(cfg.CallTimeout),
	)
	tokens := auth.NewTokenIssuer([]byte(cfg.JWT.Secret), cfg.JWT.Issuer, cfg.JWT.TTL)
	handler := NewOrderHandler(NewOrderUseCase(scopes, observer))

	r := server.NewRouter(cfg.ServiceName, providers.Tracer)
	handler.Register(r, tokens)

	if err := server.Serve(ctx, logger, ":"+cfg.Port, r, cfg.ShutdownTimeout); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
