package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"etfseasonal/internal/files"
)

const collectionPattern = "*/storage/*.json"

// FileValidator checks the local dataset tree and the export directory
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateDatasetDirectory checks that dir exists and holds a directory for
// every category. Categories may be nested, e.g. ETF_equity/PPA.
func (v *FileValidator) ValidateDatasetDirectory(dir string, categories []string) error {
	if err := v.validateDir(dir, "dataset"); err != nil {
		return err
	}

	var missing []string
	for _, category := range categories {
		path := filepath.Join(dir, filepath.FromSlash(category))
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			missing = append(missing, category)
			continue
		}

		n, err := v.CountCollections(dir, category)
		if err != nil {
			return err
		}
		v.logger.Debug("Category validated",
			slog.String("category", category),
			slog.Int("collections", n))
	}

	if len(missing) > 0 {
		v.logger.Warn("Dataset categories missing",
			slog.String("directory", dir),
			slog.Any("categories", missing))
		return fmt.Errorf("dataset directory %s has no category %s", dir, strings.Join(missing, ", "))
	}

	v.logger.Info("Dataset directory validated",
		slog.String("directory", dir),
		slog.Int("categories", len(categories)))
	return nil
}

func (v *FileValidator) validateDir(dir, what string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Directory does not exist",
			slog.String("kind", what),
			slog.String("directory", dir))
		return fmt.Errorf("%s directory %s does not exist", what, dir)
	}
	if err != nil {
		v.logger.Error("Failed to stat directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// ValidateOutputDirectory ensures the export directory exists or can be
// created, and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateCollectionFile checks that path is a readable JSON file
func (v *FileValidator) ValidateCollectionFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".json" {
		return fmt.Errorf("file %s is not a JSON collection (extension: %s)", path, ext)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("Collection file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// CountCollections counts the serialized collections stored for every
// ticker of category: <category>/<ticker>/storage/*.json
func (v *FileValidator) CountCollections(dir, category string) (int, error) {
	found, err := files.NewDiscovery(dir).FindFilesByPattern(category, collectionPattern)
	if err != nil {
		return 0, fmt.Errorf("failed to count collections: %w", err)
	}
	return len(found), nil
}

// LatestCollection returns the most recently written collection of category.
// ok is false when the category holds none.
func (v *FileValidator) LatestCollection(dir, category string) (files.FileInfo, bool, error) {
	found, err := files.NewDiscovery(dir).FindFilesByPattern(category, collectionPattern)
	if err != nil {
		return files.FileInfo{}, false, fmt.Errorf("failed to list collections: %w", err)
	}
	latest, ok := files.GetLatestFile(found)
	return latest, ok, nil
}
