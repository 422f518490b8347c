package files

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// Manager provides file operations rooted at a single base directory.
// Keys are slash separated and must stay inside the base directory.
type Manager struct {
	basePath string
}

// NewManager creates a new file manager instance
func NewManager(basePath string) *Manager {
	return &Manager{basePath: basePath}
}

// BasePath returns the directory every key is resolved against.
func (m *Manager) BasePath() string {
	return m.basePath
}

// FileExists checks if a file exists at the given key
func (m *Manager) FileExists(key string) bool {
	fullPath, err := m.resolvePath(key)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	exists := err == nil

	slog.Debug("FileExists check",
		slog.String("key", key),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// Open opens the file stored under key for reading.
func (m *Manager) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := m.resolvePath(key)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Opening file",
		slog.String("key", key),
		slog.String("full_path", fullPath))

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", key, err)
	}
	return f, nil
}

// ReadFile reads the entire content of a file
func (m *Manager) ReadFile(ctx context.Context, key string) ([]byte, error) {
	f, err := m.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// ListDirs returns the names of the subdirectories of dir, sorted.
func (m *Manager) ListDirs(ctx context.Context, dir string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := m.resolvePath(dir)
	if err != nil {
		return nil, err
	}

	slog.DebugContext(ctx, "Listing directories",
		slog.String("dir", dir),
		slog.String("full_path", fullPath))

	dirs, err := NewDiscovery(m.basePath).ListDirectories(fullPath)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(dirs))
	for _, d := range dirs {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names, nil
}

// WriteFile writes data to a file, creating parent directories as needed
func (m *Manager) WriteFile(key string, data []byte) error {
	fullPath, err := m.resolvePath(key)
	if err != nil {
		return err
	}

	slog.Info("Writing file",
		slog.String("key", key),
		slog.String("full_path", fullPath),
		slog.Int("size_bytes", len(data)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return os.WriteFile(fullPath, data, 0644)
}

// Create opens a file for writing under key, creating parent directories.
func (m *Manager) Create(key string) (*os.File, error) {
	fullPath, err := m.resolvePath(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return os.Create(fullPath)
}

// resolvePath maps a slash separated key to a path under the base directory.
// Absolute paths already inside the base are accepted as-is.
func (m *Manager) resolvePath(key string) (string, error) {
	if filepath.IsAbs(key) {
		rel, err := filepath.Rel(m.basePath, key)
		if err != nil || (rel != "." && !filepath.IsLocal(rel)) {
			return "", fmt.Errorf("path %s is outside %s: %w", key, m.basePath, fs.ErrPermission)
		}
		return filepath.Clean(key), nil
	}

	local := filepath.FromSlash(key)
	if local == "" || local == "." {
		return m.basePath, nil
	}
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("path %s escapes %s: %w", key, m.basePath, fs.ErrPermission)
	}
	return filepath.Join(m.basePath, local), nil
}
