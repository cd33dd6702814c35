package catalog

import (
	"context"

	"bookorder/internal/config"

	"github.com/rs/zerolog"
)

// Open resolves the catalogue described by cfg. Without a path the built-in
// catalogue is used; with S3 enabled the document is fetched from the bucket
// first and read from disk if that fails.
func Open(ctx context.Context, cfg config.CatalogConfig, logger zerolog.Logger) (*Store, error) {
	if cfg.Path == "" {
		logger.Info().Msg("using built-in catalogue")
		return Default(), nil
	}

	fileLoader := NewFileLoader(logger)
	if !cfg.S3.Enabled {
		return fileLoader.Load(ctx, cfg.Path)
	}

	s3Loader, err := NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
	if err != nil {
		logger.Warn().
			Err(err).
			Msg("failed to initialise S3 loader, falling back to local file system only")
		return fileLoader.Load(ctx, cfg.Path)
	}

	return NewFallbackLoader(s3Loader, fileLoader, cfg.S3.Prefix, logger).Load(ctx, cfg.Path)
}
