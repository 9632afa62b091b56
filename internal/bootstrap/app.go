package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"sourcing-backend/internal/decision"
	decisionapi "sourcing-backend/internal/decision/api"
	"sourcing-backend/internal/decision/remote"
	"sourcing-backend/internal/export"
	"sourcing-backend/internal/queue"
	"sourcing-backend/internal/services/health"
	"sourcing-backend/internal/sessions"
	"sourcing-backend/internal/shared/config"
	"sourcing-backend/internal/shared/server"
	"sourcing-backend/internal/shared/server/middleware"
	"sourcing-backend/internal/shared/storage/db"
	"sourcing-backend/internal/shared/storage/object"
	localstore "sourcing-backend/internal/shared/storage/object/local"
	miniostore "sourcing-backend/internal/shared/storage/object/minio"
	s3store "sourcing-backend/internal/shared/storage/object/s3"
	"sourcing-backend/internal/workflow"
)

// pendingGrace is added on top of the worst-case retry budget before a pending
// submission is considered abandoned.
const pendingGrace = 30 * time.Second

const redisPingTimeout = 5 * time.Second

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	SessionStore    sessions.Store
	Decider         decision.Collaborator
	Store           object.ObjectStore
	Queue           queue.Client
	Health          *health.Service
	SessionsService *sessions.Service
	SessionsHandler *sessions.Handler
	DecisionHandler *decisionapi.Handler

	closers []func() error
}

// Build prepares dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	app := &App{Config: cfg, Health: health.NewService()}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		app.closers = append(app.closers, sqlDB.Close)
		app.Health.Register("database", sqlDB.PingContext)
	}

	if err := buildSessionStore(ctx, app); err != nil {
		app.Close()
		return nil, err
	}

	decider, err := BuildDecider(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Decider = decider

	store, err := BuildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Queue = queueClient
	if closer, ok := queueClient.(interface{ Close() error }); ok {
		app.closers = append(app.closers, closer.Close)
	}

	exporter := export.NewXLSX()
	app.SessionsService = &sessions.Service{
		Store:          app.SessionStore,
		Coordinator:    &workflow.Coordinator{Decider: decider},
		Exporter:       exporter,
		Archive:        store,
		Events:         queueClient,
		NoticeTTL:      cfg.NoticeTTL,
		PendingTimeout: pendingTimeout(cfg),
	}
	app.SessionsHandler = sessions.NewHandler(app.SessionsService)
	// The decision endpoints always evaluate in-process.
	app.DecisionHandler = decisionapi.NewHandler(decision.Engine{}, exporter)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Health:          app.Health,
		SessionsHandler: app.SessionsHandler,
		DecisionHandler: app.DecisionHandler,
		RateLimiter:     middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("bootstrap: close: %v", err)
		}
	}
	a.closers = nil
}

// BuildDecider returns the configured collaborator wrapped in the retry policy.
func BuildDecider(cfg config.Config) (decision.Collaborator, error) {
	var base decision.Collaborator
	switch cfg.DecisionProvider {
	case "remote":
		client, err := remote.NewClient(cfg.DecisionServiceURL, cfg.DecisionTimeout)
		if err != nil {
			return nil, err
		}
		base = client
	default:
		base = decision.Engine{}
	}
	return workflow.WithRetry(base, workflow.RetryPolicy{
		MaxAttempts: cfg.DecisionMaxAttempts,
		Delay:       cfg.DecisionRetryDelay,
	}), nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.SessionStore != "postgres" {
		return nil, nil
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, fmt.Errorf("SESSION_STORE=postgres requires DATABASE_URL")
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

func buildSessionStore(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.SessionStore {
	case "postgres":
		app.SessionStore = &sessions.PGStore{DB: app.DB, TTL: cfg.SessionTTL}
	case "redis":
		rs, err := sessions.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		err = rs.Ping(pingCtx)
		cancel()
		if err != nil {
			rs.Close()
			if isDevLike(cfg.Env) {
				log.Printf("bootstrap: redis unavailable; using in-memory sessions: %v", err)
				app.SessionStore = sessions.NewMemoryStore(cfg.SessionTTL)
				return nil
			}
			return fmt.Errorf("ping redis: %w", err)
		}
		app.closers = append(app.closers, rs.Close)
		app.Health.Register("redis", rs.Ping)
		app.SessionStore = rs
	default:
		app.SessionStore = sessions.NewMemoryStore(cfg.SessionTTL)
	}
	return nil
}

// BuildStore returns the configured object store, or nil for OBJECT_STORE=none. The minio
// store reuses S3_BUCKET and S3_PREFIX.
func BuildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "none":
		return nil, nil
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Region:    cfg.AWSRegion,
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildQueue prefers SQS, then Kafka, and discards events when neither is configured.
func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	switch {
	case strings.TrimSpace(cfg.DecisionEventsQueueURL) != "":
		return queue.NewSQSClient(ctx, cfg.DecisionEventsQueueURL, cfg.AWSRegion)
	case len(cfg.KafkaBrokers) > 0:
		return queue.NewKafkaClient(cfg.KafkaBrokers, cfg.KafkaTopic)
	default:
		return queue.Nop{}, nil
	}
}

// pendingTimeout covers every attempt timing out plus the pauses between them.
func pendingTimeout(cfg config.Config) time.Duration {
	attempts := cfg.DecisionMaxAttempts
	if attempts <= 0 {
		attempts = workflow.DefaultMaxAttempts
	}
	return time.Duration(attempts)*(cfg.DecisionTimeout+cfg.DecisionRetryDelay) + pendingGrace
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
