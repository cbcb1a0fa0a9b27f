// Package app wires the notification service from configuration and runs its
// ingress surfaces until shutdown.
package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"notification-dispatcher/internal/api"
	commonaws "notification-dispatcher/internal/common/aws"
	"notification-dispatcher/internal/common/camunda"
	"notification-dispatcher/internal/common/config"
	"notification-dispatcher/internal/common/database"
	"notification-dispatcher/internal/common/logger"
	"notification-dispatcher/internal/common/observability"
	"notification-dispatcher/internal/common/validation"
	"notification-dispatcher/internal/delivery"
	"notification-dispatcher/internal/directory"
	"notification-dispatcher/internal/inbox"
	"notification-dispatcher/internal/ingress"
	"notification-dispatcher/internal/notification/channels"
	"notification-dispatcher/internal/notification/descriptors"
	"notification-dispatcher/internal/notification/dispatcher"
	"notification-dispatcher/internal/notification/templates"
	sn "notification-dispatcher/internal/workers/notification/send-notification"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// App holds every long-lived component of the service.
type App struct {
	cfg    *config.Config
	logger logger.Logger

	Dispatcher *dispatcher.Dispatcher
	Validator  *validation.SendRequestValidator
	Templates  templates.Store
	Handler    http.Handler

	metrics *observability.Metrics
	tracing *observability.Tracing

	postgres *database.PostgresClient
	mongo    *database.MongoClient
	redis    *database.RedisClient

	checks []api.Check
}

// storage is the backend-specific trio behind the dispatcher.
type storage struct {
	templates templates.Store
	directory directory.Directory
	inbox     inbox.Store
}

// New builds the service. Components that fail to start are closed before returning.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	return newApp(ctx, cfg, log, prometheus.DefaultRegisterer)
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{cfg: cfg, logger: log.WithFields(map[string]interface{}{"component": "app"})}
	if err := a.build(ctx, log, reg); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, log logger.Logger, reg prometheus.Registerer) error {
	cfg := a.cfg

	var err error
	if a.tracing, err = observability.SetupTracing(ctx, cfg.Tracing, cfg.App.Name, cfg.App.Version); err != nil {
		return err
	}
	if a.metrics, err = observability.NewMetrics(cfg.App.Name, reg); err != nil {
		return err
	}

	store, err := a.openStorage(ctx)
	if err != nil {
		return err
	}
	a.Templates = store.templates

	registry := descriptors.NewRegistry(nil)
	if err := a.seed(ctx, registry); err != nil {
		return err
	}

	cache, err := a.openCache(ctx)
	if err != nil {
		return err
	}

	recorder, err := a.openRecorder(ctx)
	if err != nil {
		return err
	}

	channelRegistry, err := a.buildChannels(ctx, store.inbox)
	if err != nil {
		return err
	}

	if a.Validator, err = validation.NewSendRequestValidator(registry.Types()); err != nil {
		return fmt.Errorf("build request validator: %w", err)
	}

	a.Dispatcher = dispatcher.New(
		dispatcher.Config{ChannelTimeout: cfg.ChannelTimeout()},
		dispatcher.Deps{
			Descriptors: registry,
			Users:       store.directory,
			Companies:   store.directory,
			Templates:   templates.NewResolver(store.templates, cache, cfg.CacheTTL(), log),
			Channels:    channelRegistry,
			Inbox:       store.inbox,
			Recorder:    recorder,
			Observer:    a.metrics,
		},
		log,
	)

	a.Handler = api.NewHandler(a.Dispatcher, a.Validator, log, a.checks...).Routes()

	a.logger.Info("service assembled", map[string]interface{}{
		"backend":  cfg.Storage.Backend,
		"channels": channelRegistry.Types(),
		"types":    registry.Types(),
	})
	return nil
}

func (a *App) openStorage(ctx context.Context) (storage, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendPostgres:
		pg, err := database.NewPostgres(a.cfg.Database.Postgres)
		if err != nil {
			return storage{}, err
		}
		a.postgres = pg
		if err := retryWithBackoff(ctx, func() error { return pg.Ping(ctx) }, 5, time.Second, a.logger, "postgres connection"); err != nil {
			return storage{}, err
		}
		if a.cfg.Database.Postgres.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				return storage{}, err
			}
			a.logger.Info("postgres migrations applied", nil)
		}
		a.checks = append(a.checks, api.Check{Name: "postgres", Ping: pg.Ping})
		return storage{
			templates: templates.NewPostgresStore(pg.DB),
			directory: directory.NewPostgres(pg.DB),
			inbox:     inbox.NewPostgresStore(pg.DB),
		}, nil

	case config.BackendMongo:
		mc, err := database.NewMongo(ctx, a.cfg.Database.Mongo)
		if err != nil {
			return storage{}, err
		}
		a.mongo = mc
		tmplStore := templates.NewMongoStore(mc.Database)
		if err := tmplStore.EnsureIndexes(ctx); err != nil {
			return storage{}, err
		}
		inboxStore := inbox.NewMongoStore(mc.Database)
		if err := inboxStore.EnsureIndexes(ctx); err != nil {
			return storage{}, err
		}
		a.checks = append(a.checks, api.Check{Name: "mongo", Ping: mc.Ping})
		return storage{
			templates: tmplStore,
			directory: directory.NewMongo(mc.Database),
			inbox:     inboxStore,
		}, nil

	default:
		return storage{
			templates: templates.NewMemoryStore(),
			directory: directory.Fixture(),
			inbox:     inbox.NewMemoryStore(),
		}, nil
	}
}

// seed loads the default templates when configured and warns about any
// (type, channel) pair that would always be skipped.
func (a *App) seed(ctx context.Context, registry *descriptors.Registry) error {
	records := templates.DefaultSeed()
	for _, m := range templates.MissingDefaults(registry.All(), records) {
		a.logger.Warn("no default template for channel", map[string]interface{}{
			"type":    string(m.Type),
			"channel": string(m.Channel),
		})
	}

	if !a.cfg.Seed.OnStartup {
		return nil
	}
	if err := templates.Seed(ctx, a.Templates, records); err != nil {
		return err
	}
	a.logger.Info("templates seeded", map[string]interface{}{"count": len(records)})
	return nil
}

func (a *App) openCache(ctx context.Context) (templates.Cache, error) {
	if !a.cfg.Database.Redis.Enabled {
		return templates.NopCache{}, nil
	}
	rc := database.NewRedis(a.cfg.Database.Redis)
	a.redis = rc
	if err := rc.Ping(ctx); err != nil {
		return nil, err
	}
	a.checks = append(a.checks, api.Check{Name: "redis", Ping: rc.Ping})
	return templates.NewRedisCache(rc.Client), nil
}

func (a *App) openRecorder(ctx context.Context) (delivery.Recorder, error) {
	esCfg := a.cfg.Database.Elasticsearch
	if !esCfg.Enabled {
		return delivery.NopRecorder{}, nil
	}
	es, err := database.NewElasticsearch(esCfg)
	if err != nil {
		return nil, err
	}
	// the delivery log is best effort; a missing index falls back to dynamic mapping
	if err := es.EnsureDeliveryIndex(ctx, esCfg.Index); err != nil {
		a.logger.Warn("delivery index setup failed", map[string]interface{}{
			"index": esCfg.Index,
			"error": err.Error(),
		})
	}
	a.checks = append(a.checks, api.Check{Name: "elasticsearch", Ping: es.Ping})
	return delivery.NewElasticRecorder(es.Client, esCfg.Index), nil
}

func (a *App) buildChannels(ctx context.Context, inboxStore inbox.Store) (*channels.Registry, error) {
	var (
		awsCfg    awssdk.Config
		awsLoaded bool
	)
	loadAWS := func() (awssdk.Config, error) {
		if awsLoaded {
			return awsCfg, nil
		}
		cfg, err := commonaws.LoadConfig(ctx, a.cfg.AWS.Region)
		if err != nil {
			return awssdk.Config{}, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg, awsLoaded = cfg, true
		return awsCfg, nil
	}

	var sender channels.EmailSender
	switch a.cfg.Channels.Email.Provider {
	case config.EmailProviderSES:
		cfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		sender = channels.NewSESSender(commonaws.NewSESClient(cfg), a.cfg.Channels.Email.FromEmail)
	default:
		sender = channels.NewLogSender(a.logger)
	}

	registry := channels.NewRegistry(
		channels.NewEmailChannel(sender, a.logger),
		channels.NewUIChannel(inboxStore, a.logger),
	)

	if a.cfg.Channels.SMS.Enabled {
		cfg, err := loadAWS()
		if err != nil {
			return nil, err
		}
		registry.Register(channels.NewSMSChannel(commonaws.NewSNSClient(cfg), a.cfg.Channels.SMS.SenderID, a.logger))
	}
	return registry, nil
}

// Run serves HTTP and, when enabled, the Zeebe worker and Kafka consumer until
// ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	server := api.NewServer(a.cfg.Server, a.Handler, a.logger)
	g.Go(func() error { return server.Run(ctx) })

	if a.cfg.Camunda.Enabled {
		g.Go(func() error { return a.runWorker(ctx) })
	}
	if a.cfg.Kafka.Enabled {
		g.Go(func() error { return a.runConsumer(ctx) })
	}

	err := g.Wait()
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *App) runWorker(ctx context.Context) error {
	client, err := camunda.NewClientWithConfig(ctx, camunda.ConfigFrom(a.cfg.Camunda))
	if err != nil {
		return err
	}
	defer client.Close()

	handlerCfg := sn.LoadConfig(a.cfg)
	w := camunda.NewWorker(
		client.GetClient(),
		sn.TaskType,
		a.cfg.Camunda.MaxJobsActive,
		handlerCfg.Timeout,
		sn.NewHandler(handlerCfg, a.Dispatcher, a.Validator, a.logger),
		a.logger,
	)

	<-ctx.Done()
	w.Stop()
	return nil
}

func (a *App) runConsumer(ctx context.Context) error {
	consumer := ingress.NewKafkaConsumer(a.cfg.Kafka, a.logger)
	defer func() {
		if err := consumer.Close(); err != nil {
			a.logger.Warn("kafka consumer close failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	h := ingress.NewMessageHandler(a.Validator, a.Dispatcher, a.logger)
	return consumer.Consume(ctx, h.Handle)
}

// Close releases every opened client. It is safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.postgres != nil {
		errs = append(errs, a.postgres.Close())
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Close(ctx))
	}
	errs = append(errs, a.metrics.Shutdown(ctx), a.tracing.Shutdown(ctx))
	return stderrors.Join(errs...)
}

// retryWithBackoff retries operation with doubling delays until it succeeds,
// attempts run out, or ctx ends.
func retryWithBackoff(ctx context.Context, operation func() error, attempts int, delay time.Duration, log logger.Logger, name string) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		log.Warn(name+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxAttempts": attempts,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
