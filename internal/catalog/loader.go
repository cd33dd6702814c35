package catalog

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"bookorder/internal/model"

	"github.com/rs/zerolog"
)

// Loader loads a catalogue document from some location.
type Loader interface {
	// Load reads the catalogue at path. Paths ending in .gz are gunzipped.
	Load(ctx context.Context, path string) (*Store, error)
}

// document is the on-disk catalogue format.
type document struct {
	Subjects []model.Subject `json:"subjects"`
}

// Encode writes subjects in the catalogue document format.
func Encode(w io.Writer, subjects []model.Subject) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(document{Subjects: subjects})
}

// decode parses a catalogue document, gunzipping when compressed is set.
func decode(r io.Reader, compressed bool) (*Store, error) {
	if compressed {
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzipReader.Close()
		r = gzipReader
	}

	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode catalogue: %w", err)
	}

	if len(doc.Subjects) == 0 {
		return nil, fmt.Errorf("catalogue contains no subjects")
	}

	return New(doc.Subjects)
}

// fileLoader implements Loader for catalogue files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalogue loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads a catalogue file from disk.
func (l *fileLoader) Load(ctx context.Context, path string) (*Store, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.logger.Info().Str("file", path).Msg("loading catalogue file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open catalogue file")
		return nil, fmt.Errorf("failed to open catalogue file %s: %w", path, err)
	}
	defer file.Close()

	store, err := decode(file, strings.HasSuffix(path, ".gz"))
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read catalogue file")
		return nil, fmt.Errorf("failed to read catalogue file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("items_loaded", store.Len()).
		Msg("catalogue file loaded successfully")

	return store, nil
}
