package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/aretw0/storefront"
	"github.com/aretw0/storefront/internal/config"
	"github.com/aretw0/storefront/internal/phrases"
	"github.com/aretw0/storefront/internal/testutils"
	"github.com/aretw0/storefront/pkg/adapters/dynamodb"
	"github.com/aretw0/storefront/pkg/adapters/file"
	"github.com/aretw0/storefront/pkg/adapters/kafka"
	"github.com/aretw0/storefront/pkg/adapters/memory"
	"github.com/aretw0/storefront/pkg/adapters/moltin"
	"github.com/aretw0/storefront/pkg/adapters/postgres"
	"github.com/aretw0/storefront/pkg/adapters/redis"
	"github.com/aretw0/storefront/pkg/adapters/ssm"
	"github.com/aretw0/storefront/pkg/domain"
	"github.com/aretw0/storefront/pkg/observability"
	"github.com/aretw0/storefront/pkg/persistence/middleware"
	"github.com/aretw0/storefront/pkg/ports"
)

// ErrCommerceNotConfigured is returned when no Moltin credentials are set and
// the demo shop was not requested.
var ErrCommerceNotConfigured = errors.New("moltin client id and secret (or secret parameter) are required; use --demo for the built-in shop")

// BuildOptions tunes how the engine is assembled.
type BuildOptions struct {
	// Demo serves the built-in sample shop instead of Moltin.
	Demo bool

	// Debug adds debug lifecycle logging.
	Debug bool

	// Store overrides the configured session store backend when set.
	Store string
}

// App is a fully assembled engine plus the process-level resources around it.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *storefront.Engine
	Registry *prometheus.Registry

	secrets ssm.Getter
}

// Secret resolves name through Parameter Store. It fails when AWS was never
// configured for this process.
func (a *App) Secret(ctx context.Context, name string) (string, error) {
	if a.secrets == nil {
		getter, err := newSecretGetter(ctx, a.Config)
		if err != nil {
			return "", err
		}
		a.secrets = getter
	}
	return a.secrets.GetParameter(ctx, name)
}

// Close releases the engine and everything it owns.
func (a *App) Close() error {
	return a.Engine.Close()
}

// Build creates a storefront engine with standard CLI conventions:
// configured store wrapped in encryption and metrics middleware, optional
// distributed lock, Moltin (or demo) services and lifecycle hooks.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts BuildOptions) (*App, error) {
	if opts.Store != "" {
		cfg.App.Store = opts.Store
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := &App{Config: cfg, Logger: logger, Registry: reg}

	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}

	store, closeStore, rdb, err := openStore(ctx, cfg, middleware.NewStoreMetrics(reg))
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeStore)

	svc, closeSvc, err := app.services(ctx, opts.Demo)
	if err != nil {
		cleanup()
		return nil, err
	}
	if closeSvc != nil {
		closers = append(closers, closeSvc)
	}
	svc.Store = store

	p, err := phrases.Load(cfg.App.PhrasesFile)
	if err != nil {
		cleanup()
		return nil, err
	}

	metrics := observability.NewMetrics(reg)
	engineOpts := []storefront.Option{
		storefront.WithLogger(logger),
		storefront.WithPhrases(p),
		storefront.WithEventTimeout(cfg.App.EventTimeout),
		storefront.WithSaveTimeout(cfg.App.SaveTimeout),
		storefront.WithLifecycleHooks(metrics.Hooks()),
		storefront.WithLifecycleHooks(observability.LoggingHooks(logger)),
	}
	if opts.Debug {
		engineOpts = append(engineOpts, storefront.WithLifecycleHooks(createDebugHooks(logger)))
	}

	if cfg.Redis.Lock {
		if rdb == nil {
			rdb = goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
			closers = append(closers, rdb.Close)
		}
		engineOpts = append(engineOpts,
			storefront.WithLocker(redis.NewLocker(rdb, cfg.Redis.Prefix+"lock:")),
			storefront.WithLockTTL(cfg.Redis.LockTTL),
		)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		pub, err := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), kafka.WithLogger(logger))
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create audit publisher: %w", err)
		}
		closers = append(closers, pub.Close)
		engineOpts = append(engineOpts, storefront.WithLifecycleHooks(pub.Hooks()))
	}

	for _, c := range closers {
		engineOpts = append(engineOpts, storefront.WithCloser(closerFunc(c)))
	}

	engine, err := storefront.New(svc, engineOpts...)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	app.Engine = engine

	logger.Info("engine ready", "store", cfg.App.Store, "demo", opts.Demo, "locker", cfg.Redis.Lock, "audit", len(cfg.Kafka.Brokers) > 0)
	return app, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func (a *App) services(ctx context.Context, demo bool) (storefront.Services, func() error, error) {
	if demo {
		shop := testutils.SampleShop()
		return storefront.Services{Catalog: shop, Cart: shop, Customers: shop}, nil, nil
	}
	cfg := a.Config
	if !cfg.MoltinConfigured() {
		return storefront.Services{}, nil, ErrCommerceNotConfigured
	}

	opts := []moltin.Option{moltin.WithLogger(a.Logger)}
	if cfg.Moltin.ClientSecret != "" {
		opts = append(opts, moltin.WithClientSecret(cfg.Moltin.ClientSecret))
	} else {
		getter, err := newSecretGetter(ctx, cfg)
		if err != nil {
			return storefront.Services{}, nil, err
		}
		a.secrets = getter
		opts = append(opts, moltin.WithSecretGetter(getter, cfg.Moltin.SecretParameter))
	}

	client, err := moltin.New(cfg.Moltin.BaseURL, cfg.Moltin.ClientID, opts...)
	if err != nil {
		return storefront.Services{}, nil, err
	}
	return storefront.Services{Catalog: client, Cart: client, Customers: client}, client.Close, nil
}

// OpenStore builds the configured session store with its middleware chain.
// The returned func releases the backend connection.
func OpenStore(ctx context.Context, cfg *config.Config) (ports.StateStore, func() error, error) {
	store, closeStore, _, err := openStore(ctx, cfg, nil)
	return store, closeStore, err
}

func openStore(ctx context.Context, cfg *config.Config, metrics *middleware.StoreMetrics) (ports.StateStore, func() error, goredis.UniversalClient, error) {
	var (
		base      ports.StateStore
		closeBase = func() error { return nil }
		rdb       goredis.UniversalClient
	)

	switch cfg.App.Store {
	case config.BackendMemory:
		base = memory.NewStore()
	case config.BackendFile:
		base = file.New(cfg.App.StorePath)
	case config.BackendRedis:
		rdb = goredis.NewClient(&goredis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		s := redis.NewFromClient(rdb, redis.WithPrefix(cfg.Redis.Prefix), redis.WithTTL(cfg.Redis.TTL))
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		base, closeBase = s, s.Close
	case config.BackendPostgres:
		pool, err := postgres.Connect(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("postgres: %w", err)
		}
		s := postgres.New(pool, postgres.WithTable(cfg.Postgres.Table))
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("postgres migrate: %w", err)
		}
		base = s
		closeBase = func() error { pool.Close(); return nil }
	case config.BackendDynamoDB:
		awsCfg, err := loadAWS(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, nil, nil, err
		}
		api := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
			if cfg.Dynamo.Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.Dynamo.Endpoint)
			}
		})
		s, err := dynamodb.New(api, cfg.Dynamo.Table, dynamodb.WithTTL(cfg.Dynamo.TTL))
		if err != nil {
			return nil, nil, nil, err
		}
		base = s
	default:
		return nil, nil, nil, fmt.Errorf("unknown store backend %q", cfg.App.Store)
	}

	var mws []middleware.Middleware
	if cfg.Encryption.Enabled() {
		active, fallback, err := cfg.Encryption.Keys()
		if err != nil {
			_ = closeBase()
			return nil, nil, nil, err
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:      active,
			FallbackKeys:   fallback,
			AllowPlaintext: cfg.Encryption.AllowPlaintext,
		})
		if err != nil {
			_ = closeBase()
			return nil, nil, nil, err
		}
		mws = append(mws, enc)
	}
	if metrics != nil {
		mws = append(mws, middleware.NewInstrumentedMiddleware(metrics, cfg.App.Store))
	}

	return middleware.Chain(base, mws...), closeBase, rdb, nil
}

func loadAWS(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}
	return cfg, nil
}

func newSecretGetter(ctx context.Context, cfg *config.Config) (ssm.Getter, error) {
	awsCfg, err := loadAWS(ctx, cfg.AWS.Region)
	if err != nil {
		return nil, err
	}
	return ssm.New(awsssm.NewFromConfig(awsCfg))
}

func createDebugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			logger.Debug("transition", "user_id", e.UserID, "from", e.From, "to", e.To, "duration", e.Duration)
		},
		OnIgnored: func(ctx context.Context, e *domain.IgnoredEvent) {
			logger.Debug("ignored", "user_id", e.UserID, "state", e.State, "reason", e.Reason)
		},
	}
}
