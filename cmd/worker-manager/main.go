// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"usahud-crm/internal/agent"
	"usahud-crm/internal/api"
	"usahud-crm/internal/common/camunda"
	"usahud-crm/internal/common/config"
	"usahud-crm/internal/common/database"
	httpclient "usahud-crm/internal/common/http"
	"usahud-crm/internal/common/logger"
	"usahud-crm/internal/common/observability"
	"usahud-crm/internal/crm"
	"usahud-crm/internal/hud"
	"usahud-crm/internal/matching"
	"usahud-crm/internal/models"
	"usahud-crm/internal/notification"
	"usahud-crm/internal/store"
	"usahud-crm/internal/workflow"
	"usahud-crm/pkg/registry"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting USA HUD CRM",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name, cfg.Tracing)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- PostgreSQL ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	if err := pg.Migrate(ctx); err != nil {
		zapLog.Fatal("postgres migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected successfully")

	// --- Redis ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	readyChecks := map[string]api.Check{
		"postgres": pg.Ping,
		"redis":    rdb.Ping,
	}

	// --- Property source: Elasticsearch when configured, Postgres otherwise ---
	var source matching.PropertySource = matching.NewPostgresSource(pg.DB)
	if cfg.Database.Elasticsearch.GetURL() != "" {
		var esClient *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		if err := esClient.EnsureIndex(ctx, cfg.Database.Elasticsearch.PropertyIndex, database.PropertyIndexMapping); err != nil {
			zapLog.Fatal("elasticsearch index setup failed", zap.Error(err))
		}
		source = matching.NewSearchSource(esClient.Client, cfg.Database.Elasticsearch.PropertyIndex)
		readyChecks["elasticsearch"] = esClient.Ping
		zapLog.Info("Elasticsearch connected successfully")
	}

	// --- Transports ---
	client := httpclient.NewClient(config.GetDuration(cfg.Notifications.Email.Timeout))
	transports, err := buildTransports(ctx, cfg, client)
	if err != nil {
		zapLog.Fatal("notification transports failed", zap.Error(err))
	}

	// --- Domain services ---
	dispatcher := notification.NewDispatcher(
		transports.email,
		transports.sms,
		store.NewCollection[models.EmailLog](rdb.Client, store.Emails, rdb.Key),
		notification.Options{
			AdminEmail:   cfg.Notifications.Email.AdminEmail,
			BaseURL:      cfg.App.BaseURL,
			SMSEnabled:   cfg.Notifications.SMS.Enabled,
			SMSThreshold: cfg.Notifications.SMS.PriorityThreshold,
			BrokerPhone:  cfg.Notifications.SMS.BrokerPhone,
			GatewayEmail: cfg.Notifications.SMS.GatewayEmail,
		},
		log,
	)

	crmStore := crm.NewStore(rdb.Client, rdb.Key, dispatcher, log).
		WithEventRecorder(crm.NewPostgresRecorder(pg.DB))

	communicator := notification.NewCommunicator(
		transports.email,
		transports.sms,
		client,
		notification.SocialEndpoints{
			models.ChannelFacebook:  cfg.Integrations.Social.FacebookURL,
			models.ChannelInstagram: cfg.Integrations.Social.InstagramURL,
			models.ChannelWhatsApp:  cfg.Integrations.Social.WhatsAppURL,
		},
		store.NewCollection[models.CommunicationLog](rdb.Client, store.CommunicationLogs, rdb.Key),
		store.NewCollection[models.ScheduledMessage](rdb.Client, store.ScheduledMessages, rdb.Key),
		log,
	)

	matcher := matching.NewMatcher(
		source,
		communicator,
		store.NewCollection[models.PropertyShare](rdb.Client, store.PropertyShares, rdb.Key),
		store.NewCollection[models.ShareableLink](rdb.Client, store.ShareableLinks, rdb.Key),
		cfg.App.BaseURL,
		log,
	)

	catalog, err := loadCatalog(cfg.Workflow.RegistryPath)
	if err != nil {
		zapLog.Fatal("workflow presets failed", zap.Error(err))
	}
	engine := workflow.NewEngine(
		catalog,
		store.NewCollection[models.WorkflowInstance](rdb.Client, store.WorkflowInstances, rdb.Key),
		communicator,
		matcher,
		crmStore,
		log,
	)

	agents := agent.NewService(pg.DB, dispatcher, log)

	var enhancer *hud.Enhancer
	if cfg.APIs.OpenAI.APIKey != "" {
		enhancer = hud.NewEnhancer(
			httpclient.NewClient(config.GetDuration(cfg.APIs.OpenAI.Timeout)),
			cfg.APIs.OpenAI.BaseURL, cfg.APIs.OpenAI.APIKey, cfg.APIs.OpenAI.Model, log,
		)
	}

	// --- HTTP API ---
	server := api.NewServer(api.Deps{
		CRM:          crmStore,
		Matcher:      matcher,
		Workflows:    engine,
		Agents:       agents,
		Communicator: communicator,
		Relay:        transports.relay,
		GatewayEmail: cfg.Notifications.SMS.GatewayEmail,
		DashboardURL: cfg.App.BaseURL + "/broker-dashboard",
		ReadyChecks:  readyChecks,
		Logger:       log,
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	// --- Zeebe workers ---
	var zeebe *camunda.Client
	if cfg.Camunda.Enabled {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClient(cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		readyChecks["zeebe"] = zeebe.HealthCheck

		regs := registrations(cfg, workerDeps{
			dispatcher: dispatcher,
			redis:      rdb.Client,
			source:     source,
			engine:     engine,
			describer:  enhancer,
		}, log)
		jobWorkers := camunda.OpenWorkers(zeebe.GetClient(), cfg, regs, obs, log)
		zapLog.Info("Zeebe workers registered", zap.Int("count", len(jobWorkers)))
		defer func() {
			for _, w := range jobWorkers {
				w.Close()
			}
			if err := zeebe.Close(); err != nil {
				zapLog.Error("Error closing Zeebe client", zap.Error(err))
			}
		}()
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if interval := config.GetDuration(cfg.Workflow.SweepInterval); interval > 0 {
		g.Go(func() error {
			workflow.RunSweeper(gctx, engine, interval, log)
			return nil
		})
		g.Go(func() error {
			deliverScheduled(gctx, communicator, interval, log)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zapLog.Error("Service stopped with error", zap.Error(err))
		return
	}
	zapLog.Info("USA HUD CRM stopped gracefully")
}

// loadCatalog starts from the built-in presets and applies the registry
// file on top when one is configured.
func loadCatalog(path string) (*workflow.Catalog, error) {
	presets := workflow.DefaultPresets()
	if path == "" {
		return workflow.NewCatalog(presets...), nil
	}

	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	if err := registry.Validate(reg); err != nil {
		return nil, fmt.Errorf("registry %s: %w", path, err)
	}
	return workflow.NewCatalog(append(presets, reg.Presets...)...), nil
}

// deliverScheduled sends due scheduled messages every interval.
func deliverScheduled(ctx context.Context, c *notification.Communicator, interval time.Duration, log logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.DeliverDue(ctx)
			if err != nil {
				log.Error("Scheduled delivery failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			if n > 0 {
				log.Info("Scheduled messages delivered", map[string]interface{}{"count": n})
			}
		}
	}
}
