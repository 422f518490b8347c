package dataset

import (
	"context"
	"io"
)

// Source reads the dataset tree. Keys are slash separated and relative to the
// dataset root, e.g. "ETF_sector/XLB/storage/pivot_stats.json".
//
// files.Manager is the local filesystem Source; S3Source reads the same tree
// from a bucket.
type Source interface {
	// Open returns the content stored under key. A missing key returns an
	// error wrapping fs.ErrNotExist.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// ListDirs returns the immediate child directory names of dir, sorted.
	ListDirs(ctx context.Context, dir string) ([]string, error)
}
