package config

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	RootDir    string
	DatasetDir string
	FREDDir    string
	ExportsDir string
	LogsDir    string
	LogFile    string
}

// GetPaths resolves the configured directories against the root directory.
// A relative root is taken relative to the current working directory, the
// same way the dashboard resolves its DATA_ABS_DIR.
func GetPaths(cfg *Config) (*Paths, error) {
	root := cfg.Paths.RootDir
	if root == "" {
		root = "."
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %v", err)
	}

	datasetDir := under(root, cfg.Paths.DatasetDir)

	return &Paths{
		RootDir:    root,
		DatasetDir: datasetDir,
		FREDDir:    under(datasetDir, cfg.Dataset.FREDDir),
		ExportsDir: under(root, cfg.Paths.ExportsDir),
		LogsDir:    under(root, cfg.Paths.LogsDir),
		LogFile:    under(root, cfg.Logging.FilePath),
	}, nil
}

func under(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, filepath.FromSlash(p))
}

// EnsureDirectories creates the writable directories if they don't exist.
// The dataset tree is owned by the pipeline and is never created here.
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.ExportsDir,
		p.LogsDir,
		filepath.Dir(p.LogFile),
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		logger.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// StorageKey returns the slash separated key of a ticker file relative to the
// dataset directory: <category>/<ticker>/storage/<filename>.
func StorageKey(category, ticker, filename string) string {
	return path.Join(category, ticker, "storage", filename)
}

// EconomicKey returns the slash separated key of the FRED collection relative
// to the dataset directory.
func EconomicKey(ds DatasetConfig) string {
	return path.Join(strings.Trim(filepath.ToSlash(ds.FREDDir), "/"), ds.FREDFile)
}

// ExportPath returns a path inside the exports directory
func (p *Paths) ExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	slog.Default().Info("Path resolution summary",
		slog.Group("directories",
			slog.String("root", p.RootDir),
			slog.String("dataset", p.DatasetDir),
			slog.String("fred", p.FREDDir),
			slog.String("exports", p.ExportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.String("log_file", p.LogFile),
		slog.Bool("dataset_present", FileExists(p.DatasetDir)))
}
