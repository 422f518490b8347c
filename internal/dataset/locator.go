package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"etfseasonal/internal/config"
	"etfseasonal/internal/infrastructure"
	"etfseasonal/internal/stats"
)

// tickerPattern matches ticker directory names: no leading dot, second
// character an upper-case letter.
var tickerPattern = regexp.MustCompile(`^[^.][A-Z]`)

// Key identifies one serialized collection and, optionally, which of its
// variants to use.
type Key struct {
	Category string
	Ticker   string
	Filename string
	// Variant selects element [Variant][1] of a sequence of pairs. Nil selects
	// element [1] of a single pair.
	Variant *int
}

// Variant returns a pointer to i for use in Key.
func Variant(i int) *int { return &i }

// String is the memoization identity of the key.
func (k Key) String() string {
	v := "-"
	if k.Variant != nil {
		v = strconv.Itoa(*k.Variant)
	}
	return k.Category + "/" + k.Ticker + "/" + k.Filename + "#" + v
}

func (k Key) validate() error {
	for name, part := range map[string]string{"category": k.Category, "ticker": k.Ticker, "filename": k.Filename} {
		if part == "" {
			return fmt.Errorf("%w: empty %s", stats.ErrDataUnavailable, name)
		}
		if strings.Contains(part, "..") || strings.HasPrefix(part, "/") {
			return fmt.Errorf("%w: invalid %s %q", stats.ErrDataUnavailable, name, part)
		}
	}
	if name := k.Ticker; strings.Contains(name, "/") {
		return fmt.Errorf("%w: invalid ticker %q", stats.ErrDataUnavailable, name)
	}
	return nil
}

// Locator resolves collections from a Source and memoizes them for the life
// of the process. Concurrent resolves of the same key share one read.
type Locator struct {
	source      Source
	cache       Cache
	categories  []string
	economicKey string
	logger      *slog.Logger
	metrics     *infrastructure.BusinessMetrics
	tracer      trace.Tracer

	mu    sync.RWMutex
	memo  map[string]stats.Collection
	group singleflight.Group
}

// Option configures a Locator.
type Option func(*Locator)

// WithCache adds a shared cache tier consulted before the source.
func WithCache(c Cache) Option {
	return func(l *Locator) { l.cache = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Locator) { l.logger = logger }
}

// WithMetrics records cache and load metrics.
func WithMetrics(m *infrastructure.BusinessMetrics) Option {
	return func(l *Locator) { l.metrics = m }
}

// WithCategories overrides the ETF categories.
func WithCategories(categories ...string) Option {
	return func(l *Locator) { l.categories = append([]string(nil), categories...) }
}

// WithEconomicKey overrides the key of the FRED collection.
func WithEconomicKey(key string) Option {
	return func(l *Locator) { l.economicKey = key }
}

// NewLocator creates a locator reading from src.
func NewLocator(src Source, opts ...Option) *Locator {
	defaults := config.Default().Dataset
	l := &Locator{
		source:      src,
		categories:  defaults.Categories,
		economicKey: config.EconomicKey(defaults),
		logger:      slog.Default(),
		tracer:      otel.Tracer("etfseasonal/dataset"),
		memo:        make(map[string]stats.Collection),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = infrastructure.WithComponent(l.logger, "dataset_locator")
	return l
}

// Categories returns the configured ETF categories in display order.
func (l *Locator) Categories() []string {
	return append([]string(nil), l.categories...)
}

// HasCategory reports whether category is configured.
func (l *Locator) HasCategory(category string) bool {
	for _, c := range l.categories {
		if c == category {
			return true
		}
	}
	return false
}

// Tickers lists the ticker directories of a category, sorted. A category that
// cannot be listed yields an empty list.
func (l *Locator) Tickers(ctx context.Context, category string) []string {
	names, err := l.source.ListDirs(ctx, category)
	if err != nil {
		l.logger.DebugContext(ctx, "cannot list tickers",
			slog.String("category", category),
			slog.String("error", err.Error()))
		return []string{}
	}

	tickers := make([]string, 0, len(names))
	for _, n := range names {
		if tickerPattern.MatchString(n) {
			tickers = append(tickers, n)
		}
	}
	sort.Strings(tickers)
	return tickers
}

// Resolve returns the collection identified by k.
//
// A missing file, undecodable content or a variant that does not fit the
// file's shape fails with stats.ErrDataUnavailable. Failures are not
// memoized.
func (l *Locator) Resolve(ctx context.Context, k Key) (stats.Collection, error) {
	if err := k.validate(); err != nil {
		return nil, err
	}
	return l.load(ctx, k.String(), config.StorageKey(k.Category, k.Ticker, k.Filename), k.Filename,
		func(data []byte) (stats.Collection, error) {
			return decodeCollection(data, k.Variant)
		})
}

// ResolveEconomic returns the FRED collection: series name to a table of
// dated values.
func (l *Locator) ResolveEconomic(ctx context.Context) (stats.Collection, error) {
	return l.load(ctx, "economic/"+l.economicKey, l.economicKey, l.economicKey, decodeEconomic)
}

// Cached returns the number of memoized collections.
func (l *Locator) Cached() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.memo)
}

func (l *Locator) lookup(id string) (stats.Collection, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	c, ok := l.memo[id]
	return c, ok
}

func (l *Locator) store(id string, c stats.Collection) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.memo[id] = c
}

func (l *Locator) load(ctx context.Context, id, storageKey, filename string, decode func([]byte) (stats.Collection, error)) (stats.Collection, error) {
	if c, ok := l.lookup(id); ok {
		infrastructure.RecordCacheLookup(ctx, l.metrics, filename, "memory")
		return c, nil
	}

	v, err, _ := l.group.Do(id, func() (any, error) {
		if c, ok := l.lookup(id); ok {
			return c, nil
		}

		// Shared by every waiter for id; detached from the first caller.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.DatasetReadTimeout)
		defer cancel()

		if l.cache != nil {
			c, found, err := l.cache.Get(ctx, id)
			switch {
			case err != nil:
				l.logger.WarnContext(ctx, "shared cache read failed",
					slog.String("key", id),
					slog.String("error", err.Error()))
			case found:
				infrastructure.RecordCacheLookup(ctx, l.metrics, filename, "shared")
				l.store(id, c)
				return c, nil
			}
		}

		infrastructure.RecordCacheLookup(ctx, l.metrics, filename, "")
		l.logger.DebugContext(ctx, "collection cache miss", slog.String("key", id))

		start := time.Now()
		c, err := l.read(ctx, storageKey, decode)
		infrastructure.RecordDatasetLoad(ctx, l.metrics, filename, time.Since(start), err)
		if err != nil {
			return nil, err
		}

		l.store(id, c)
		if l.cache != nil {
			if err := l.cache.Set(ctx, id, c); err != nil {
				infrastructure.WithError(l.logger, err).WarnContext(ctx, "shared cache write failed",
					slog.String("key", id))
			}
		}
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(stats.Collection), nil
}

func (l *Locator) read(ctx context.Context, storageKey string, decode func([]byte) (stats.Collection, error)) (stats.Collection, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.read", trace.WithAttributes(attribute.String("dataset.key", storageKey)))
	defer span.End()

	rc, err := l.source.Open(ctx, storageKey)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		l.logger.DebugContext(ctx, "collection source unavailable",
			slog.String("storage_key", storageKey),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s: %w", stats.ErrDataUnavailable, storageKey, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("%w: read %s: %w", stats.ErrDataUnavailable, storageKey, err)
	}

	c, err := decode(data)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		if errors.Is(err, stats.ErrSchema) {
			l.logger.ErrorContext(ctx, "malformed collection",
				slog.String("storage_key", storageKey),
				slog.String("error", err.Error()))
		}
		return nil, fmt.Errorf("%w: decode %s: %w", stats.ErrDataUnavailable, storageKey, err)
	}

	infrastructure.AddSpanEvent(ctx, "collection.decoded", map[string]interface{}{
		"tables": len(c),
		"bytes":  len(data),
	})
	l.logger.DebugContext(ctx, "collection loaded",
		slog.String("storage_key", storageKey),
		slog.Int("tables", len(c)),
		slog.Int("bytes", len(data)))
	return c, nil
}
