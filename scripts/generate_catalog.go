//go:build ignore

package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"bookorder/internal/catalog"
)

// Writes the built-in catalogue as a gzipped document that CATALOG_PATH or
// the S3 loader can serve. Run with: go run scripts/generate_catalog.go [path]
func main() {
	path := filepath.Join("data", "catalog.json.gz")
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	store := catalog.Default()
	if err := writeCatalog(path, store); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}

	fmt.Printf("Created %s with %d subjects and %d books\n", path, len(store.Subjects()), store.Len())
}

func writeCatalog(path string, store *catalog.Store) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	if err := catalog.Encode(gzipWriter, store.Subjects()); err != nil {
		return fmt.Errorf("failed to encode catalogue: %w", err)
	}

	return gzipWriter.Close()
}
