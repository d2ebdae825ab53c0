package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcustomer "github.com/rbritto/stockflow/internal/application/customer"
	apporder "github.com/rbritto/stockflow/internal/application/order"
	appproduct "github.com/rbritto/stockflow/internal/application/product"
	"github.com/rbritto/stockflow/internal/application/restock"
	"github.com/rbritto/stockflow/internal/application/stock"
	"github.com/rbritto/stockflow/internal/config"
	domcustomer "github.com/rbritto/stockflow/internal/domain/customer"
	domorder "github.com/rbritto/stockflow/internal/domain/order"
	domoutbox "github.com/rbritto/stockflow/internal/domain/outbox"
	domproduct "github.com/rbritto/stockflow/internal/domain/product"
	"github.com/rbritto/stockflow/internal/infrastructure/channel"
	"github.com/rbritto/stockflow/internal/infrastructure/id"
	"github.com/rbritto/stockflow/internal/infrastructure/memory"
	mysqlrepo "github.com/rbritto/stockflow/internal/infrastructure/mysql"
	"github.com/rbritto/stockflow/internal/infrastructure/outbox"
	"github.com/rbritto/stockflow/internal/infrastructure/rabbitmq"
	"github.com/rbritto/stockflow/internal/infrastructure/rediscache"
	"github.com/rbritto/stockflow/internal/notification"
	"github.com/rbritto/stockflow/internal/observability/prometrics"
	"github.com/rbritto/stockflow/internal/pkg/logging"

	_ "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)

	metrics := prometrics.New(cfg.ServiceName, nil)
	idGenerator := id.NewUUIDGenerator()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Repositories: MySQL when a DSN is configured, in-memory otherwise.
	var (
		productRepo  domproduct.LockingRepository
		orderRepo    domorder.Repository
		customerRepo domcustomer.Repository
	)
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			logger.Fatal("mysql_open_failed", zap.Error(err))
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("mysql_ping_failed", zap.Error(err))
		}
		defer db.Close()

		productRepo = mysqlrepo.NewProductRepository(db, cfg.LockTimeout)
		orderRepo = mysqlrepo.NewOrderRepository(db)
		customerRepo = mysqlrepo.NewCustomerRepository(db)
		logger.Info("storage_ready", zap.String("backend", "mysql"))
	} else {
		productRepo = memory.NewProductRepository(cfg.LockTimeout)
		orderRepo = memory.NewOrderRepository()
		customerRepo = memory.NewCustomerRepository()
		logger.Info("storage_ready", zap.String("backend", "memory"))
	}

	// Advisory availability cache, optional.
	var cache stock.AvailabilityCache
	if cfg.RedisAddr != "" {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis_ping_failed", zap.Error(err))
		}
		defer rdb.Close()
		cache = rediscache.NewStockCache(rdb)
		logger.Info("stock_cache_ready", zap.String("addr", cfg.RedisAddr))
	}

	// Notification channels are a closed, config-driven set.
	var channels []notification.Channel
	if cfg.SMTPAddr != "" {
		channels = append(channels, channel.NewEmailChannel(cfg.SMTPAddr, cfg.SMTPFrom, cfg.SMTPUser, cfg.SMTPPassword))
	}
	if cfg.WhatsAppURL != "" {
		channels = append(channels, channel.NewWhatsAppChannel(cfg.WhatsAppURL, cfg.WhatsAppToken))
	}
	facade := notification.NewFacade(channels, logger, metrics)

	// In-memory event bus carries StockUpdated / LowStock events out of the
	// stock critical path.
	bus := outbox.NewBus(logger)
	bus.Start(ctx)
	defer bus.Stop()

	ledger := stock.NewLedger(productRepo, cache, bus, cfg.LowStockThreshold, logger, metrics)

	lowStockWorker := stock.NewLowStockWorker(bus, facade, logger)
	lowStockWorker.Start()

	workflow := apporder.NewWorkflow(orderRepo, customerRepo, productRepo, ledger, idGenerator, bus, logger, metrics)
	opsRecipient := stock.Recipient{Email: cfg.OpsRecipient, Phone: cfg.OpsPhone}
	productService := appproduct.NewService(productRepo, ledger, idGenerator, opsRecipient, logger)
	customerService := appcustomer.NewService(customerRepo, idGenerator, logger)

	monitor := restock.NewMonitor(productRepo, facade, cfg.OpsRecipient, logger, metrics)
	monitor.Start(ctx, cfg.RestockInterval)

	// Queue intake and outbound event relay, optional.
	if cfg.AMQPURL != "" {
		conn, ch, err := rabbitmq.SetupConn(cfg.AMQPURL)
		if err != nil {
			logger.Fatal("rabbitmq_setup_failed", zap.Error(err))
		}
		defer conn.Close()

		consumer := rabbitmq.NewOrderConsumer(ch, workflow, logger)
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal("order_consumer_start_failed", zap.Error(err))
		}

		publisher := rabbitmq.NewPublisher(ch)
		bus.Subscribe(domproduct.StockUpdatedEvent{}.EventName(), func(ctx context.Context, e domoutbox.Event) error {
			evt, ok := e.(domproduct.StockUpdatedEvent)
			if !ok {
				return nil
			}
			return publisher.PublishStockUpdated(ctx, evt)
		})
		logger.Info("rabbitmq_ready")
	}

	if cfg.Env == "dev" {
		seedDemoData(ctx, logger, productService, customerService)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		logger.Info("http_server_start", zap.String("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		logger.Info("http_server_stopped")
	}
}

// seedDemoData provisions a handful of entities so local runs have something
// to exercise.
func seedDemoData(ctx context.Context, logger *zap.Logger, products *appproduct.Service, customers *appcustomer.Service) {
	restockDate := time.Now().UTC().AddDate(0, 0, 7)

	p, err := products.CreateProduct(ctx, appproduct.CreateProductInput{
		Name:         "Wireless Keyboard",
		Description:  "Low-profile wireless keyboard",
		SKU:          "KB-0001",
		Price:        decimal.NewFromInt(120),
		InitialStock: 100,
		MinimumStock: 10,
		RestockDate:  &restockDate,
	})
	if err != nil {
		logger.Warn("demo_seed_product_failed", zap.Error(err))
		return
	}

	c, err := customers.CreateCustomer(ctx, appcustomer.CreateCustomerInput{
		Name:     "Demo Customer",
		Email:    "demo@example.com",
		Document: "00000000000",
		Phones:   []string{"5511999999999"},
	})
	if err != nil {
		logger.Warn("demo_seed_customer_failed", zap.Error(err))
		return
	}

	logger.Info("demo_seed_done",
		zap.String("product_id", p.ID),
		zap.String("customer_id", c.ID),
	)
}
