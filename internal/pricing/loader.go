package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Loader reads a pricing defaults document.
type Loader interface {
	// Load reads the document at path and returns validated settings.
	Load(ctx context.Context, path string) (Settings, error)
}

// fileLoader implements Loader for documents on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based settings loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "pricing-loader").Logger(),
	}
}

// Load reads a JSON settings document from the local file system.
func (l *fileLoader) Load(ctx context.Context, path string) (Settings, error) {
	l.logger.Info().Str("file", path).Msg("loading pricing defaults")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open pricing defaults")
		return Settings{}, fmt.Errorf("failed to open pricing defaults %s: %w", path, err)
	}
	defer file.Close()

	settings, err := decodeSettings(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("invalid pricing defaults")
		return Settings{}, fmt.Errorf("invalid pricing defaults %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Str("delivery_fee", settings.DeliveryFee.String()).
		Msg("pricing defaults loaded successfully")

	return settings, nil
}

// decodeSettings overlays the document on DefaultSettings so a partial
// document only overrides the fields it names.
func decodeSettings(ctx context.Context, r io.Reader) (Settings, error) {
	if err := ctx.Err(); err != nil {
		return Settings{}, err
	}

	settings := DefaultSettings()
	if err := json.NewDecoder(r).Decode(&settings); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}
