package bootstrap

import (
	"context"
	"time"

	"mailagent/adapter/out/cache"
	"mailagent/adapter/out/mongodb"
	"mailagent/adapter/out/notify"
	"mailagent/adapter/out/persistence"
	"mailagent/config"
	"mailagent/core/agent/llm"
	"mailagent/core/port/out"
	"mailagent/core/service/classification"
	"mailagent/core/service/digest"
	"mailagent/core/service/state"
	"mailagent/core/service/vip"
	"mailagent/infra/database"
	"mailagent/pkg/httputil"
	"mailagent/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Dependencies wires every adapter and service once; API and worker
// entrypoints share the same graph.
type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	// Repositories
	EmailRepo out.EmailRepository
	VIPRepo   out.VIPRepository

	// Sinks
	DigestCache   out.DigestCache
	DigestArchive out.DigestArchive
	Notifier      out.Notifier

	// Annotator
	LLMClient *llm.Client

	// Services
	ClassificationService *classification.Service
	VIPService            *vip.Service
	StateTracker          *state.Tracker
	DigestService         *digest.Service
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	// Postgres (pgxpool for health checks, sqlx for the repositories)
	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	sqlDB, err := database.NewSQLXFromURL(cfg.DatabaseURL)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	deps.EmailRepo = persistence.NewEmailAdapter(sqlDB)
	deps.VIPRepo = persistence.NewVIPAdapter(sqlDB)

	// Redis digest cache (optional)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn("Redis connection failed: %v", err)
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
			deps.DigestCache = cache.NewDigestCacheAdapter(redisClient)
			logger.Info("Digest cache (Redis) initialized")
		}
	}

	// MongoDB digest archive (optional)
	if cfg.MongoDBURL != "" {
		mongoClient, err := mongodb.NewClient(cfg.MongoDBURL, cfg.MongoDBName)
		if err != nil {
			logger.Warn("MongoDB connection failed: %v", err)
		} else {
			deps.MongoDB = mongoClient
			cleanups = append(cleanups, func() {
				mongoClient.Disconnect(context.Background())
			})

			archive := mongodb.NewDigestArchiveAdapter(mongoClient.Database(cfg.MongoDBName))
			if err := archive.EnsureIndexes(context.Background()); err != nil {
				logger.Warn("Failed to ensure digest archive indexes: %v", err)
			}
			deps.DigestArchive = archive
			logger.Info("Digest archive (MongoDB) initialized")
		}
	}

	// Webhook notifier (optional)
	if cfg.WebhookURL != "" {
		deps.Notifier = notify.NewWebhookAdapter(
			cfg.WebhookURL,
			cfg.WebhookMaxRetries,
			time.Duration(cfg.WebhookRetryDelaySec)*time.Second,
		)
		logger.Info("Webhook notifier initialized")
	}

	// LLM annotator. Without a key the classifier runs heuristic-only.
	if cfg.OpenAIAPIKey != "" {
		deps.LLMClient = llm.NewClientWithConfig(llm.ClientConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.LLMModel,
			MaxTokens:   cfg.LLMMaxTokens,
			Temperature: cfg.LLMTemperature,
			RPM:         cfg.AnnotatorRPM,
			MaxRetries:  cfg.AnnotatorMaxRetries,
			HTTPClient:  httputil.OpenAIClient(),
		})
		logger.Info("LLM annotator initialized (model: %s)", cfg.LLMModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, classification runs heuristic-only")
	}

	// Services
	var annotator out.Annotator
	if deps.LLMClient != nil {
		annotator = deps.LLMClient
	}
	classifier := classification.NewClassifier(annotator, cfg.AnnotatorTimeout)

	classifyOpts := []classification.ServiceOption{
		classification.WithWorkers(cfg.ClassifyWorkers),
		classification.WithMaxBatch(cfg.ClassifyMaxBatch),
	}
	if deps.Notifier != nil {
		classifyOpts = append(classifyOpts, classification.WithNotifier(deps.Notifier))
	}
	deps.ClassificationService = classification.NewService(
		classifier,
		deps.EmailRepo,
		deps.VIPRepo,
		classifyOpts...,
	)

	deps.VIPService = vip.NewService(deps.VIPRepo)
	deps.StateTracker = state.NewTracker(deps.EmailRepo)

	digestOpts := []digest.ServiceOption{
		digest.WithReminderThreshold(cfg.ReminderThreshold),
	}
	if deps.DigestCache != nil {
		digestOpts = append(digestOpts, digest.WithCache(deps.DigestCache, cfg.DigestCacheTTL))
	}
	if deps.DigestArchive != nil {
		digestOpts = append(digestOpts, digest.WithArchive(deps.DigestArchive))
	}
	deps.DigestService = digest.NewService(deps.EmailRepo, digestOpts...)

	// Runs first on shutdown: drain in-flight urgent notifications before
	// the connections below close.
	cleanups = append(cleanups, deps.ClassificationService.WaitNotifications)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	return deps, cleanup, nil
}

func (d *Dependencies) HealthCheck(ctx context.Context) error {
	if err := d.DB.Ping(ctx); err != nil {
		return err
	}
	if d.Redis != nil {
		if err := d.Redis.Ping(ctx).Err(); err != nil {
			return err
		}
	}
	return nil
}
