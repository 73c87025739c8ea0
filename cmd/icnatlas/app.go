package main

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/config"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/export"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/geocode"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/icn"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/pipeline"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/rawstore"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/runlog"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/sample"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/store"
)

// app holds everything a command needs, built once from config.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	cache   *geocode.Cache
	db      *store.DB
	rejects *rawstore.FileStore
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if err := config.Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Log.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		return nil, eris.Wrapf(err, "log level %q", cfg.Log.Level)
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

// newApp opens the store (if configured) and loads the geocode cache from it
// or from the cache file.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger}

	if cfg.Store.Driver != "" {
		db, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
	}

	if err := a.loadCache(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) loadCache(ctx context.Context) error {
	if a.db != nil {
		a.cache = geocode.NewCache()
		n, err := a.db.LoadGeocodeCache(ctx, a.cache)
		if err != nil {
			return err
		}
		a.logger.Info("icnatlas: geocode cache loaded from store", zap.Int("entries", n))
		return nil
	}
	cache, err := geocode.LoadCache(a.cfg.Geocode.CachePath)
	if err != nil {
		return err
	}
	a.cache = cache
	a.logger.Info("icnatlas: geocode cache loaded",
		zap.String("path", a.cfg.Geocode.CachePath), zap.Int("entries", cache.Len()))
	return nil
}

func (a *app) saveCache(ctx context.Context) error {
	if a.db != nil {
		return a.db.SaveGeocodeCache(ctx, a.cache)
	}
	return geocode.SaveCache(a.cfg.Geocode.CachePath, a.cache)
}

func (a *app) close() {
	if a.rejects != nil {
		if err := a.rejects.Close(); err != nil {
			a.logger.Warn("icnatlas: close reject store", zap.Error(err))
		}
	}
	if a.db != nil {
		_ = a.db.Close()
	}
	_ = a.logger.Sync()
}

func (a *app) source() icn.Source {
	in := a.cfg.Input
	if in.URL == "" {
		return icn.FileSource{Path: in.Path}
	}
	retry := icn.RetryConfig{
		MaxAttempts: in.RetryAttempts,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		StatusCodes: map[int]struct{}{429: {}, 500: {}, 502: {}, 503: {}, 504: {}},
	}
	return icn.NewClient(in.URL,
		icn.WithMinInterval(in.MinInterval),
		icn.WithRetryConfig(retry),
		icn.WithLogger(a.logger))
}

func (a *app) geocoder() geocode.Geocoder {
	g := a.cfg.Geocode
	switch g.Provider {
	case "google":
		opts := []geocode.GoogleOption{geocode.WithGoogleRate(g.RatePerSecond, 1)}
		if g.BaseURL != "" {
			opts = append(opts, geocode.WithGoogleEndpoint(g.BaseURL))
		}
		return geocode.NewGoogle(g.APIKey, opts...)
	case "nominatim":
		opts := []geocode.NominatimOption{}
		if g.BaseURL != "" {
			opts = append(opts, geocode.WithBaseURL(g.BaseURL))
		}
		if g.RatePerSecond > 0 {
			opts = append(opts, geocode.WithMinInterval(time.Duration(float64(time.Second)/g.RatePerSecond)))
		}
		return geocode.NewNominatim(opts...)
	default:
		return nil
	}
}

func (a *app) resolver() *geocode.Resolver {
	g := a.cfg.Geocode
	opts := []geocode.ResolverOption{
		geocode.WithBatchDelay(g.BatchDelay),
		geocode.WithMaxAge(g.MaxAge),
		geocode.WithLogger(a.logger),
		geocode.WithProgress(func(processed, total int) {
			a.logger.Info("icnatlas: geocoding", zap.Int("processed", processed), zap.Int("total", total))
		}),
	}
	if g.BatchSize > 0 {
		opts = append(opts, geocode.WithBatchSize(g.BatchSize))
	}
	if g.CallTimeout > 0 {
		opts = append(opts, geocode.WithCallTimeout(g.CallTimeout))
	}
	return geocode.NewResolver(a.geocoder(), a.cache, opts...)
}

// service wires the pipeline with exports, bookkeeping and the snapshot
// store.
func (a *app) service() *pipeline.Service {
	cfg := a.cfg
	opts := []pipeline.Option{
		pipeline.WithLogger(a.logger),
		pipeline.WithGeocodeRefresh(cfg.Geocode.ForceRefresh),
		pipeline.WithRunLog(runlog.NewRecorder(cfg.Output.RunsDir)),
		pipeline.WithPublisher(a.publish),
	}
	if cfg.Sample.Size > 0 {
		opts = append(opts, pipeline.WithSampler(sample.NewSeeded(cfg.Sample.Seed), cfg.Sample.Size))
	}
	if cfg.Output.RejectedDir != "" {
		a.rejects = rawstore.NewFileStore(cfg.Output.RejectedDir)
		opts = append(opts, pipeline.WithRejectStore(a.rejects))
	}
	if cfg.Output.StatePath != "" {
		opts = append(opts, pipeline.WithStatePath(cfg.Output.StatePath))
	}
	if a.db != nil {
		opts = append(opts, pipeline.WithSnapshots(a.db))
	}
	return pipeline.New(a.source(), a.resolver(), opts...)
}

// publish writes the export files and persists the geocode cache. A failure
// here keeps the previous result live.
func (a *app) publish(ctx context.Context, result *pipeline.Result) error {
	out := a.cfg.Output
	if out.Dir != "" {
		err := export.WriteResult(out.Dir, export.Bundle{
			LoadID:      result.Report.LoadID,
			GeneratedAt: result.Report.FinishedAt,
			Companies:   result.Companies,
			Filters:     result.Filters,
			Stats:       result.Stats,
		})
		if err != nil {
			return err
		}
	}
	if out.XLSX != "" {
		if err := export.WriteXLSX(out.XLSX, result.Companies, result.Stats); err != nil {
			return err
		}
	}
	if err := a.saveCache(ctx); err != nil {
		return eris.Wrap(err, "save geocode cache")
	}
	return nil
}
