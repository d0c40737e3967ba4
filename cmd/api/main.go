package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront-api/internal/auth"
	"github.com/flicky/go-storefront-api/internal/config"
	"github.com/flicky/go-storefront-api/internal/handler"
	"github.com/flicky/go-storefront-api/internal/middleware"
	"github.com/flicky/go-storefront-api/internal/payment"
	"github.com/flicky/go-storefront-api/internal/repository"
	"github.com/flicky/go-storefront-api/internal/service"
	"github.com/flicky/go-storefront-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	if err := run(log); err != nil {
		log.Error("storefront exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := openPostgres(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer pool.Close()
	log.Info("postgres ready")

	rdb, err := openRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()
	log.Info("redis ready")

	broker, err := openBroker(cfg.RabbitMQ)
	if err != nil {
		return err
	}
	defer broker.close()
	log.Info("rabbitmq ready")

	var processor payment.Processor
	if cfg.Stripe.Enabled() {
		processor = payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Timeout)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, payment routes disabled")
	}

	users := repository.NewUserRepository(pool)
	products := repository.NewProductRepository(pool)
	orders := repository.NewOrderRepository(pool)

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Expiration)
	orderSvc := service.NewOrderService(orders, worker.NewPublisher(broker.publish), log)
	paymentSvc := service.NewPaymentService(orderSvc, processor, rdb, cfg.Stripe.Currency, cfg.Stripe.MarkFailed, log)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(log),
		middleware.Metrics(),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)
	handler.RegisterRoutes(router, handler.Handlers{
		Auth:     handler.NewAuthHandler(service.NewAuthService(users, tokens)),
		User:     handler.NewUserHandler(service.NewUserService(users)),
		Product:  handler.NewProductHandler(service.NewProductService(products, rdb)),
		Cart:     handler.NewCartHandler(service.NewCartService(repository.NewCartRepository(pool), products)),
		Wishlist: handler.NewWishlistHandler(service.NewWishlistService(repository.NewWishlistRepository(pool), products)),
		Order:    handler.NewOrderHandler(orderSvc, paymentSvc),
		Payment:  handler.NewPaymentHandler(paymentSvc),
		Upload:   handler.NewUploadHandler(cfg.Server.UploadDir, cfg.Server.MaxUploadBytes),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": pool.Ping,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"rabbitmq": broker.ping,
		}),
	}, handler.RouteOptions{
		Authenticate:  middleware.Authenticate(tokens, users),
		AuthRateLimit: middleware.RateLimit(cfg.Server.AuthRateLimit, cfg.Server.AuthRateWindow),
		UploadDir:     cfg.Server.UploadDir,
	})

	stockWorker := worker.NewStockWorker(broker.consume, orders, products, rdb, log)
	workerErr := make(chan error, 1)
	go func() { workerErr <- stockWorker.Run(ctx) }()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case err := <-workerErr:
		if err != nil {
			return fmt.Errorf("stock worker: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func openPostgres(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func openRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// broker holds one connection with separate channels for consuming and publishing.
type broker struct {
	conn    *amqp.Connection
	consume *amqp.Channel
	publish *amqp.Channel
}

func openBroker(cfg config.RabbitMQConfig) (*broker, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	b := &broker{conn: conn}
	if b.consume, err = conn.Channel(); err != nil {
		b.close()
		return nil, fmt.Errorf("open consume channel: %w", err)
	}
	if err := worker.DeclareTopology(b.consume); err != nil {
		b.close()
		return nil, err
	}
	if b.publish, err = conn.Channel(); err != nil {
		b.close()
		return nil, fmt.Errorf("open publish channel: %w", err)
	}
	return b, nil
}

func (b *broker) ping(context.Context) error {
	if b.conn.IsClosed() {
		return errors.New("connection closed")
	}
	return nil
}

func (b *broker) close() {
	for _, ch := range []*amqp.Channel{b.publish, b.consume} {
		if ch != nil {
			ch.Close()
		}
	}
	b.conn.Close()
}
