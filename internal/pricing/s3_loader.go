package pricing

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectGetter is the part of the S3 client the loader needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// s3Loader implements Loader for documents stored in AWS S3.
type s3Loader struct {
	client objectGetter
	bucket string
	logger zerolog.Logger
}

// NewS3Loader creates a new S3-based settings loader.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	logger = logger.With().Str("component", "s3-pricing-loader").Logger()

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", bucket).
		Str("region", region).
		Msg("S3 loader initialised")

	return &s3Loader{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		logger: logger,
	}, nil
}

// Load reads the settings document stored under key.
func (l *s3Loader) Load(ctx context.Context, key string) (Settings, error) {
	l.logger.Info().
		Str("bucket", l.bucket).
		Str("key", key).
		Msg("loading pricing defaults from S3")

	result, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("failed to get object from S3")
		return Settings{}, fmt.Errorf("failed to get object from S3 (bucket=%s, key=%s): %w", l.bucket, key, err)
	}
	defer result.Body.Close()

	settings, err := decodeSettings(ctx, result.Body)
	if err != nil {
		l.logger.Error().
			Err(err).
			Str("bucket", l.bucket).
			Str("key", key).
			Msg("invalid pricing defaults in S3")
		return Settings{}, fmt.Errorf("invalid pricing defaults in S3 object %s: %w", key, err)
	}

	return settings, nil
}

// fallbackLoader tries S3 first, then falls back to the local file system.
type fallbackLoader struct {
	s3Loader   Loader
	fileLoader Loader
	s3Prefix   string
	logger     zerolog.Logger
}

// NewFallbackLoader creates a loader that tries S3 first, then falls back to
// the local file system. If s3Loader is nil only the file loader is used.
func NewFallbackLoader(s3Loader, fileLoader Loader, s3Prefix string, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		s3Loader:   s3Loader,
		fileLoader: fileLoader,
		s3Prefix:   s3Prefix,
		logger:     logger.With().Str("component", "fallback-pricing-loader").Logger(),
	}
}

// Load prepends the S3 prefix for the S3 attempt and uses path as-is locally.
func (l *fallbackLoader) Load(ctx context.Context, path string) (Settings, error) {
	if l.s3Loader != nil {
		key := l.s3Prefix + path

		settings, err := l.s3Loader.Load(ctx, key)
		if err == nil {
			return settings, nil
		}

		l.logger.Warn().
			Err(err).
			Str("s3_key", key).
			Msg("failed to load from S3, falling back to local file system")
	}

	return l.fileLoader.Load(ctx, path)
}

// LoadDefaults resolves the pricing defaults, degrading to DefaultSettings
// when no document can be read.
func LoadDefaults(ctx context.Context, loader Loader, path string, logger zerolog.Logger) Settings {
	if loader == nil || path == "" {
		return DefaultSettings()
	}

	settings, err := loader.Load(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("using built-in pricing defaults")
		return DefaultSettings()
	}
	return settings
}
