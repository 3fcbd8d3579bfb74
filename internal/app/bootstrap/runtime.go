package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"

	"github.com/ngophungianghi/careai-server/internal/accounts"
	"github.com/ngophungianghi/careai-server/internal/booking"
	"github.com/ngophungianghi/careai-server/internal/clinic"
	appconfig "github.com/ngophungianghi/careai-server/internal/config"
	"github.com/ngophungianghi/careai-server/internal/media"
	"github.com/ngophungianghi/careai-server/internal/notify"
	"github.com/ngophungianghi/careai-server/internal/triage"
	"github.com/ngophungianghi/careai-server/pkg/logging"
)

// BuildPgxPool opens the primary connection pool. Returns (nil, nil) when no
// database is configured; callers fall back to in-memory repositories.
func BuildPgxPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || cfg.DatabaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping database: %w", err)
	}
	return pool, nil
}

// BuildSQLDB opens a database/sql handle over the same database for the
// admin dashboard aggregates. Returns (nil, nil) when unconfigured.
func BuildSQLDB(ctx context.Context, cfg *appconfig.Config) (*sql.DB, error) {
	if cfg == nil || cfg.DatabaseURL == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open sql db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrap: ping sql db: %w", err)
	}
	return db, nil
}

// BuildDoctorRepository picks Postgres when a pool is available.
func BuildDoctorRepository(pool *pgxpool.Pool) clinic.Repository {
	if pool == nil {
		return clinic.NewInMemoryRepository()
	}
	return clinic.NewPostgresRepository(pool)
}

// BuildBookingRepository picks Postgres when a pool is available.
func BuildBookingRepository(pool *pgxpool.Pool) booking.Repository {
	if pool == nil {
		return booking.NewInMemoryRepository()
	}
	return booking.NewPostgresRepository(pool)
}

// BuildAccountRepository picks Postgres when a pool is available.
func BuildAccountRepository(pool *pgxpool.Pool) accounts.Repository {
	if pool == nil {
		return accounts.NewInMemoryRepository()
	}
	return accounts.NewPostgresRepository(pool)
}

// BuildRedisClient connects to Redis and verifies the connection. Returns
// (nil, nil) when no address is configured.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config) (*redis.Client, error) {
	if cfg == nil || cfg.RedisAddr == "" {
		return nil, nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("bootstrap: ping redis: %w", err)
	}
	return client, nil
}

// BuildSessionStore keeps triage sessions in Redis when available.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client) triage.SessionStore {
	if redisClient == nil {
		return triage.NewInMemorySessionStore()
	}
	return triage.NewRedisSessionStore(redisClient, cfg.TriageSessionTTL)
}

// unavailableLLMClient always fails; the triage service degrades each turn
// to its apology reply.
type unavailableLLMClient struct{}

func (unavailableLLMClient) Complete(context.Context, triage.LLMRequest) (triage.LLMResponse, error) {
	return triage.LLMResponse{}, errors.New("bootstrap: no conversational agent configured")
}

// BuildLLMClient wires Gemini as the primary agent with Bedrock as fallback.
// With neither configured the returned client always fails, which the triage
// service surfaces as an apologetic reply.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (triage.LLMClient, error) {
	if logger == nil {
		logger = logging.Default()
	}

	var primary, fallback triage.LLMClient

	if cfg.GeminiAPIKey != "" {
		gemini, err := triage.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, err
		}
		primary = gemini
	}

	if cfg.BedrockModelID != "" {
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, err
		}
		fallback = triage.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID)
	}

	switch {
	case primary != nil:
		return triage.NewFallbackLLMClient(primary, fallback, logger), nil
	case fallback != nil:
		logger.Info("gemini not configured; using bedrock as primary agent")
		return fallback, nil
	default:
		logger.Warn("no conversational agent configured; triage will reply with apologies")
		return unavailableLLMClient{}, nil
	}
}

// BuildEmailSender returns SendGrid when configured, otherwise a logging stub.
func BuildEmailSender(cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger)
	if sender == nil {
		return notify.NewStubEmailSender(logger)
	}
	return sender
}

// BuildPortraitStore wires S3-backed portrait storage when a bucket is
// configured. Returns nil otherwise; portrait upload is then disabled.
func BuildPortraitStore(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (media.PortraitStore, error) {
	if cfg.PortraitBucket == "" {
		return nil, nil
	}
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.AWSEndpointOverride != "" {
			o.BaseEndpoint = awssdk.String(cfg.AWSEndpointOverride)
			o.UsePathStyle = true
		}
	})
	return media.NewS3PortraitStore(s3Client, cfg.PortraitBucket, cfg.PortraitBaseURL, logger), nil
}

func loadAWSConfig(ctx context.Context, cfg *appconfig.Config) (awssdk.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, fmt.Errorf("bootstrap: load aws config: %w", err)
	}
	return awsCfg, nil
}
