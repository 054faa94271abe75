package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pawdesk/pawdesk/internal/handlers"
	"github.com/pawdesk/pawdesk/internal/orders"
	"github.com/pawdesk/pawdesk/internal/outbox"
	"github.com/pawdesk/pawdesk/internal/payments"
	"github.com/pawdesk/pawdesk/internal/payments/square"
	"github.com/pawdesk/pawdesk/internal/scheduling"
	"github.com/pawdesk/pawdesk/internal/storage"
	"github.com/pawdesk/pawdesk/libs/config"
	"github.com/pawdesk/pawdesk/libs/db"
	"github.com/pawdesk/pawdesk/libs/httpx"
	"github.com/pawdesk/pawdesk/libs/kafkax"
	otelx "github.com/pawdesk/pawdesk/libs/otel"
	"github.com/pawdesk/pawdesk/libs/runtime"
	"github.com/pawdesk/pawdesk/libs/secrets"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	service := config.String("SERVICE_NAME", "pawdesk")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	jwtSecret, err := config.RequiredString("JWT_SECRET")
	if err != nil {
		panic(err)
	}
	credentialsSecret, err := config.RequiredString("CREDENTIALS_SECRET")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	box, err := secrets.NewBox(credentialsSecret)
	if err != nil {
		logger.Error("credentials box init failed", "err", err)
		panic(err)
	}

	staffRepo := storage.NewStaffRepository(pool)
	bizRepo := storage.NewBusinessRepository(pool)
	calRepo := storage.NewCalendarRepository(pool)
	orderRepo := storage.NewOrderRepository(pool)
	paymentRepo := storage.NewPaymentRepository(pool)
	outboxRepo := outbox.NewRepository(pool)

	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   config.String("KAFKA_BROKERS", ""),
		PollEvery: 2 * time.Second,
		BatchSize: 50,
	})
	go outboxPublisher.Run(ctx)

	schedulingSvc := scheduling.New(calRepo, staffRepo, bizRepo, outboxRepo, logger)
	orderSvc := orders.New(orderRepo, outboxRepo, logger)
	paymentStore := storage.NewPaymentStore(pool, paymentRepo, orderRepo, outboxRepo)
	paymentSvc := payments.New(paymentStore, box, square.Factory(), logger)

	mux := runtime.NewBaseMuxWithReady(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(config.String("KAFKA_BROKERS", ""))},
	)

	api := http.NewServeMux()
	handlers.NewCalendarHandler(schedulingSvc, logger).Register(api)
	handlers.NewOrderHandler(orderSvc, bizRepo, logger).Register(api)
	handlers.NewPaymentHandler(paymentSvc, logger).Register(api)
	mux.Handle("/api/v1/", handlers.RequireTenant(jwtSecret, logger, api))

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(1 << 20),
	}
	if origins := config.String("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		middlewares = append(middlewares, httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   strings.Split(origins, ","),
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           10 * time.Minute,
		}))
	}
	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if redisURL := config.String("REDIS_URL", ""); redisURL != "" {
		redisOpts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			panic(err)
		}
		rdb := redis.NewClient(redisOpts)
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, service)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		// Single-instance fallback; multi-instance deployments set REDIS_URL.
		middlewares = append(middlewares, httpx.NewRateLimiter(rateLimit, time.Minute).Middleware())
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, service)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
