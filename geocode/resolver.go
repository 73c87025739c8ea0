package geocode

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/mapper"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

const (
	DefaultBatchSize   = 10
	DefaultBatchDelay  = 100 * time.Millisecond
	DefaultCallTimeout = 10 * time.Second
)

type Result struct {
	Lat              float64
	Lng              float64
	Found            bool
	FormattedAddress string
}

type Geocoder interface {
	Geocode(ctx context.Context, query string) (Result, error)
}

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Source says where a resolved coordinate came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceProvider Source = "provider"
	SourceFallback Source = "fallback"
)

type Resolution struct {
	Coordinate
	Source Source `json:"source"`
}

// ProgressFunc is called after every batch group with the number of
// addresses processed so far.
type ProgressFunc func(processed, total int)

type Stats struct {
	CacheHits int64 `json:"cache_hits"`
	Provider  int64 `json:"provider"`
	Fallbacks int64 `json:"fallbacks"`
}

type Resolver struct {
	geocoder   Geocoder
	cache      *Cache
	now        func() time.Time
	timeout    time.Duration
	maxAge     time.Duration
	batchSize  int
	batchDelay time.Duration
	progress   ProgressFunc
	logger     *zap.Logger
	inflight   singleflight.Group

	cacheHits atomic.Int64
	provider  atomic.Int64
	fallbacks atomic.Int64
}

type ResolverOption func(*Resolver)

// WithCallTimeout bounds every provider call.
func WithCallTimeout(timeout time.Duration) ResolverOption {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithMaxAge treats cache entries older than maxAge as misses. Zero keeps
// entries forever.
func WithMaxAge(maxAge time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.maxAge = maxAge
	}
}

func WithBatchSize(size int) ResolverOption {
	return func(r *Resolver) {
		if size > 0 {
			r.batchSize = size
		}
	}
}

func WithBatchDelay(delay time.Duration) ResolverOption {
	return func(r *Resolver) {
		if delay >= 0 {
			r.batchDelay = delay
		}
	}
}

func WithProgress(fn ProgressFunc) ResolverOption {
	return func(r *Resolver) {
		r.progress = fn
	}
}

func WithLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver wires a provider to a cache. A nil geocoder resolves every miss
// to the state fallback; a nil cache gets a fresh in-memory one.
func NewResolver(geocoder Geocoder, cache *Cache, opts ...ResolverOption) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	r := &Resolver{
		geocoder:   geocoder,
		cache:      cache,
		now:        time.Now,
		timeout:    DefaultCallTimeout,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) Cache() *Cache {
	return r.cache
}

func (r *Resolver) Stats() Stats {
	return Stats{
		CacheHits: r.cacheHits.Load(),
		Provider:  r.provider.Load(),
		Fallbacks: r.fallbacks.Load(),
	}
}

// Resolve returns coordinates for addr, consulting the cache first unless
// forceRefresh is set. Provider failures and empty results resolve to the
// state capital, which is cached as well. The only error is ctx's.
func (r *Resolver) Resolve(ctx context.Context, addr model.NormalizedAddress, forceRefresh bool) (Resolution, error) {
	key := CacheKey(addr)
	if !forceRefresh {
		if entry, ok := r.cache.Get(key); ok && !r.expired(entry) {
			r.cacheHits.Add(1)
			return Resolution{
				Coordinate: Coordinate{Latitude: entry.Lat, Longitude: entry.Lng},
				Source:     SourceCache,
			}, nil
		}
	}
	v, err, _ := r.inflight.Do(key, func() (any, error) {
		return r.lookup(ctx, addr, key)
	})
	if err != nil {
		return Resolution{}, err
	}
	return v.(Resolution), nil
}

// ResolveBatch resolves addresses in groups of the configured batch size.
// Members of a group run concurrently; groups run one after another with the
// batch delay between them. Results keep the input order.
func (r *Resolver) ResolveBatch(ctx context.Context, addrs []model.NormalizedAddress, forceRefresh bool) ([]Resolution, error) {
	out := make([]Resolution, len(addrs))
	for start := 0; start < len(addrs); start += r.batchSize {
		if start > 0 {
			if err := sleepWithContext(ctx, r.batchDelay); err != nil {
				return nil, err
			}
		}
		end := min(start+r.batchSize, len(addrs))
		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, err := r.Resolve(gctx, addrs[i], forceRefresh)
				if err != nil {
					return err
				}
				out[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if r.progress != nil {
			r.progress(end, len(addrs))
		}
	}
	return out, nil
}

func (r *Resolver) lookup(ctx context.Context, addr model.NormalizedAddress, key string) (Resolution, error) {
	query := Query(addr)
	if r.geocoder != nil {
		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		result, err := r.geocoder.Geocode(callCtx, query)
		cancel()
		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
		switch {
		case err != nil:
			r.logger.Warn("geocode: provider failed, using state fallback",
				zap.String("query", query), zap.String("state", addr.State), zap.Error(err))
		case !result.Found:
			r.logger.Debug("geocode: no results, using state fallback",
				zap.String("query", query), zap.String("state", addr.State))
		default:
			r.provider.Add(1)
			r.cache.Set(key, CacheEntry{
				Query:     query,
				Lat:       result.Lat,
				Lng:       result.Lng,
				Found:     true,
				Source:    SourceProvider,
				UpdatedAt: r.now(),
			})
			return Resolution{
				Coordinate: Coordinate{Latitude: result.Lat, Longitude: result.Lng},
				Source:     SourceProvider,
			}, nil
		}
	}

	r.fallbacks.Add(1)
	fallback := Fallback(addr.State)
	r.cache.Set(key, CacheEntry{
		Query:     query,
		Lat:       fallback.Latitude,
		Lng:       fallback.Longitude,
		Found:     false,
		Source:    SourceFallback,
		UpdatedAt: r.now(),
	})
	return Resolution{Coordinate: fallback, Source: SourceFallback}, nil
}

func (r *Resolver) expired(entry CacheEntry) bool {
	if r.maxAge <= 0 || entry.UpdatedAt.IsZero() {
		return false
	}
	return r.now().Sub(entry.UpdatedAt) > r.maxAge
}

// Query renders the provider query for addr with a country suffix. A
// resolved Australian state wins over New Zealand place names in the text.
func Query(addr model.NormalizedAddress) string {
	parts := make([]string, 0, 5)
	if !mapper.IsPlaceholder(addr.Street) {
		parts = append(parts, addr.Street)
	}
	if !mapper.IsPlaceholder(addr.City) {
		parts = append(parts, addr.City)
	}
	if addr.State != "" {
		parts = append(parts, addr.State)
	}
	if addr.Postcode != "" {
		parts = append(parts, addr.Postcode)
	}
	joined := strings.Join(parts, ", ")
	country := "Australia"
	if mapper.IsNewZealandState(addr.State) || (addr.State == "" && mapper.IsNewZealand(joined)) {
		country = "New Zealand"
	}
	return strings.Join(append(parts, country), ", ")
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
