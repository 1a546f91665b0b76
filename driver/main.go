package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go_trial/foodapi/cart"
	"go_trial/foodapi/config"
	"go_trial/foodapi/customers"
	"go_trial/foodapi/events"
	"go_trial/foodapi/handlers"
	"go_trial/foodapi/mailer"
	"go_trial/foodapi/middleware"
	"go_trial/foodapi/middleware/logkafka"
	"go_trial/foodapi/offers"
	"go_trial/foodapi/orders"
	"go_trial/foodapi/otp"
	"go_trial/foodapi/pricing"
	"go_trial/foodapi/session"
	"go_trial/foodapi/shopping"
	"go_trial/foodapi/store"
	"go_trial/foodapi/telem"
	"go_trial/foodapi/utils"
	"go_trial/foodapi/vendors"
	"go_trial/foodapi/verify"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

type revocations interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type orderPublisher interface {
	orders.Publisher
	Close() error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := telem.NewLogger(os.Stdout, cfg.Env, cfg.Log.Level)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownMetrics, err := telem.InitMetrics(cfg.Tracing.Service, cfg.Metrics.Addr, logger)
	if err != nil {
		return err
	}
	defer shutdownMetrics(context.Background())
	shutdownTracing, err := telem.InitTracing(cfg.Tracing.Service, cfg.Tracing.Endpoint)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	// Initialize MongoDB client
	client, err := utils.InitMongoClient(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())

	db := store.New(client, cfg.Mongo.Database,
		store.WithTimeout(cfg.Mongo.Timeout),
		store.WithTransactions(cfg.Mongo.Transactions))
	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}

	health := map[string]handlers.HealthCheck{"mongo": db.Ping}

	rdb, err := utils.InitRedis(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	var revoked revocations = session.NoRevocations{}
	if rdb != nil {
		defer rdb.Close()
		revoked = session.NewRedisRevocations(rdb, "foodapi")
		health["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	} else {
		logger.Warn("redis not configured, logout does not revoke sessions")
	}

	var publisher orderPublisher = events.Discard{}
	requestLogs := logkafka.Discard
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic))
		requestLogs = logkafka.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.LogTopic, func(err error) {
			logger.Warn("request log batch failed", "error", err)
		})
	}
	defer publisher.Close()
	defer requestLogs.Close()

	var mail verify.Mailer = mailer.NewLog(logger)
	if cfg.SMTP.Host != "" {
		mail = mailer.NewSMTP(mailer.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, cfg.OTP.TTL)
	} else {
		logger.Warn("smtp not configured, one-time codes are only logged")
	}

	tokens := session.NewTokens(cfg.Session.Secret, cfg.Session.TTL)
	secrets := otp.NewService(otp.WithTTL(cfg.OTP.TTL))
	gate := verify.NewGate(db, mail, secrets, tokens, revoked, logger,
		verify.WithMaxAttempts(cfg.OTP.MaxAttempts),
		verify.WithResendCooldown(cfg.OTP.ResendCooldown))
	engine := pricing.NewEngine(db, db, pricing.UnresolvedPolicy(cfg.Orders.UnresolvedItems), nil)
	offerService := offers.NewService(db, engine, cfg.Offers.Validity, nil, logger)

	api := handlers.New(handlers.Services{
		Customers:    customers.NewService(db, gate, tokens, logger),
		Verification: gate,
		Cart:         cart.NewManager(db),
		Orders: orders.NewService(db, engine, publisher, orders.Config{
			ReadyTime:    cfg.Orders.ReadyTime,
			StatusPolicy: orders.StatusPolicy(cfg.Orders.StatusPolicy),
		}, logger),
		Offers:       offerService,
		Vendors:      vendors.NewService(db, tokens, revoked, logger),
		Shopping:     shopping.NewService(db, offerService),
		Transactions: db,
		Revoker:      revoked,
		Health:       health,
	}, handlers.Config{
		Production:   cfg.Production(),
		CookieSecure: cfg.Session.CookieSecure,
		AdminKey:     cfg.Admin.APIKey,
	}, logger)
	if cfg.Admin.APIKey == "" {
		logger.Warn("admin.api_key not set, admin routes are disabled")
	}

	auth := middleware.NewAuth(tokens, revoked, db, api.Fail, logger)
	router := mux.NewRouter()
	handlers.Register(router, api, auth)

	var handler http.Handler = router
	handler = logkafka.New(requestLogs, cfg.Env, logger).LoggingMiddleware(handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-Admin-Key", "token", logkafka.TraceHeader},
		ExposedHeaders:   []string{logkafka.TraceHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})(handler)
	handler = otelhttp.NewHandler(handler, "foodapi")

	srv := &http.Server{
		Handler:      handler,
		Addr:         cfg.HTTP.Addr,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
