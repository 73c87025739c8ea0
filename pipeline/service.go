package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/aggregate"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/geocode"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/icn"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/rawstore"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/runlog"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/runstate"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/sample"
)

var (
	ErrNotLoaded = eris.New("pipeline: no data loaded")
	ErrNotFound  = eris.New("pipeline: company not found")
)

// Snapshotter persists the published company list so an unchanged input can
// be served without aggregating and geocoding again.
type Snapshotter interface {
	SaveCompanies(ctx context.Context, loadID string, companies []model.Company) error
	LoadCompanies(ctx context.Context) ([]model.Company, error)
	SnapshotLoadID(ctx context.Context) (string, error)
}

// Publisher receives a finished result before it becomes visible. An error
// fails the load.
type Publisher func(ctx context.Context, result *Result) error

// Service owns the load guard and the last published Result. It is safe for
// concurrent use.
type Service struct {
	source       icn.Source
	resolver     *geocode.Resolver
	sampler      *sample.Sampler
	sampleSize   int
	forceGeocode bool
	logger       *zap.Logger
	rejects      *rawstore.FileStore
	runs         *runlog.Recorder
	statePath    string
	snapshots    Snapshotter
	publishers   []Publisher
	now          func() time.Time
	newID        func() string

	mu      sync.Mutex
	loading chan struct{}
	result  *Result
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSampler bounds every load to size companies. size <= 0 disables it.
func WithSampler(sampler *sample.Sampler, size int) Option {
	return func(s *Service) {
		s.sampler = sampler
		s.sampleSize = size
	}
}

// WithGeocodeRefresh bypasses the geocode cache on every load.
func WithGeocodeRefresh(force bool) Option {
	return func(s *Service) {
		s.forceGeocode = force
	}
}

func WithRejectStore(store *rawstore.FileStore) Option {
	return func(s *Service) {
		s.rejects = store
	}
}

func WithRunLog(recorder *runlog.Recorder) Option {
	return func(s *Service) {
		s.runs = recorder
	}
}

// WithStatePath records the last successful load. Together with
// WithSnapshots it lets an unchanged input reuse the stored companies.
func WithStatePath(path string) Option {
	return func(s *Service) {
		s.statePath = path
	}
}

func WithSnapshots(snapshots Snapshotter) Option {
	return func(s *Service) {
		s.snapshots = snapshots
	}
}

func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.publishers = append(s.publishers, publisher)
		}
	}
}

// New builds a service reading from source. A nil resolver leaves every
// company at the (0,0) sentinel.
func New(source icn.Source, resolver *geocode.Resolver, opts ...Option) *Service {
	s := &Service{
		source:   source,
		resolver: resolver,
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the published result, running a load first if there is none.
// Callers arriving while a load is in flight wait for it.
func (s *Service) Load(ctx context.Context) (*Result, error) {
	return s.load(ctx, false)
}

// Reload waits for any in-flight load and then runs a fresh one.
func (s *Service) Reload(ctx context.Context) (*Result, error) {
	return s.load(ctx, true)
}

func (s *Service) load(ctx context.Context, force bool) (*Result, error) {
	if s == nil {
		return nil, eris.New("pipeline: service is nil")
	}
	for {
		s.mu.Lock()
		if s.loading == nil {
			if s.result != nil && !force {
				result := s.result
				s.mu.Unlock()
				return result, nil
			}
			break
		}
		wait := s.loading
		s.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	done := make(chan struct{})
	s.loading = done
	s.mu.Unlock()

	result, err := s.run(ctx, force)

	s.mu.Lock()
	if err == nil {
		s.result = result
	}
	s.loading = nil
	close(done)
	s.mu.Unlock()
	return result, err
}

// Current returns the published result without loading.
func (s *Service) Current() (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil, ErrNotLoaded
	}
	return s.result, nil
}

func (s *Service) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading != nil
}

// Search filters the published companies.
func (s *Service) Search(filter model.Filter) ([]model.Company, error) {
	result, err := s.Current()
	if err != nil {
		return nil, err
	}
	return aggregate.Search(result.Companies, filter), nil
}

func (s *Service) Company(id string) (model.Company, error) {
	result, err := s.Current()
	if err != nil {
		return model.Company{}, err
	}
	for _, c := range result.Companies {
		if c.ID == id {
			return c, nil
		}
	}
	return model.Company{}, ErrNotFound
}

func (s *Service) run(ctx context.Context, force bool) (result *Result, err error) {
	report := Report{LoadID: s.newID(), StartedAt: s.now()}
	logger := s.logger.With(zap.String("load_id", report.LoadID))
	logger.Info("pipeline: load started", zap.Bool("force", force))

	var record *runlog.RunRecord
	if s.runs != nil {
		if record, err = s.runs.Start(report.LoadID, ""); err != nil {
			logger.Warn("pipeline: run log start failed", zap.Error(err))
		}
	}
	defer func() {
		if record != nil {
			record.Origin = report.Origin
			if ferr := s.runs.Finish(record, report.Metrics(), err); ferr != nil {
				logger.Warn("pipeline: run log finish failed", zap.Error(ferr))
			}
		}
		if err != nil {
			logger.Error("pipeline: load failed", zap.Error(err))
		}
	}()

	if s.source == nil {
		return nil, eris.New("pipeline: source is nil")
	}
	snap, err := s.source.Read(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read source")
	}
	report.Origin = snap.Origin
	report.Digest = snap.Digest

	result, err = s.reuse(ctx, force, snap, report, logger)
	if err != nil {
		return nil, err
	}
	if result == nil {
		result, err = s.build(ctx, snap, report, logger)
		if err != nil {
			return nil, err
		}
	}

	for _, publish := range s.publishers {
		if err := publish(ctx, result); err != nil {
			return nil, eris.Wrap(err, "pipeline: publish")
		}
	}
	s.record(ctx, result, logger)

	result.Report.FinishedAt = s.now()
	result.Report.Duration = result.Report.FinishedAt.Sub(result.Report.StartedAt)
	report = result.Report
	logger.Info("pipeline: load finished",
		zap.Int("companies", report.Companies),
		zap.Int("skipped_items", report.SkippedItems),
		zap.Int("skipped_records", report.SkippedRecords),
		zap.Int("geocode_fallback", report.Geocoded.Fallback),
		zap.Bool("reused", report.Reused),
		zap.Duration("duration", report.Duration))
	return result, nil
}

// reuse serves the stored snapshot when the input digest matches the last
// successful load. It returns nil when a full build is needed.
func (s *Service) reuse(ctx context.Context, force bool, snap icn.Snapshot, report Report, logger *zap.Logger) (*Result, error) {
	if force || s.statePath == "" || s.snapshots == nil {
		return nil, nil
	}
	state, err := runstate.Load(s.statePath)
	if err != nil {
		logger.Warn("pipeline: run state unreadable", zap.Error(err))
		return nil, nil
	}
	if !state.Unchanged(snap.Digest) {
		return nil, nil
	}
	// The snapshot must come from the load the state describes.
	snapshotID, err := s.snapshots.SnapshotLoadID(ctx)
	if err != nil || snapshotID != state.LoadID {
		logger.Warn("pipeline: snapshot does not match run state, rebuilding",
			zap.String("snapshot_load_id", snapshotID), zap.String("state_load_id", state.LoadID), zap.Error(err))
		return nil, nil
	}
	companies, err := s.snapshots.LoadCompanies(ctx)
	if err != nil || len(companies) == 0 {
		logger.Warn("pipeline: snapshot unavailable, rebuilding", zap.Error(err))
		return nil, nil
	}
	report.Reused = true
	report.Companies = len(companies)
	logger.Info("pipeline: input unchanged, reusing snapshot", zap.String("digest", snap.Digest))
	return publishable(companies, nil, report), nil
}

func (s *Service) build(ctx context.Context, snap icn.Snapshot, report Report, logger *zap.Logger) (*Result, error) {
	agg := aggregate.NewCompanyAggregator(aggregate.WithLogger(logger))
	for _, item := range snap.Items {
		agg.AddItem(item)
	}
	companies := agg.Companies()
	counts := agg.Counts()
	report.Items = counts.Items
	report.Records = counts.Records
	report.SkippedItems = counts.SkippedItems
	report.SkippedRecords = counts.SkippedRecords
	logger.Info("pipeline: aggregated",
		zap.Int("items", counts.Items),
		zap.Int("companies", len(companies)))

	if s.sampler != nil && s.sampleSize > 0 && len(companies) > s.sampleSize {
		companies = s.sampler.Sample(companies, s.sampleSize)
		report.Sampled = true
		logger.Info("pipeline: sampled", zap.Int("size", len(companies)))
	}

	if s.resolver != nil && len(companies) > 0 {
		addrs := make([]model.NormalizedAddress, len(companies))
		for i, c := range companies {
			addrs[i] = c.BillingAddress
		}
		resolutions, err := s.resolver.ResolveBatch(ctx, addrs, s.forceGeocode)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: geocode")
		}
		for i, res := range resolutions {
			companies[i].Latitude = res.Latitude
			companies[i].Longitude = res.Longitude
			switch res.Source {
			case geocode.SourceCache:
				report.Geocoded.Cache++
			case geocode.SourceProvider:
				report.Geocoded.Provider++
			case geocode.SourceFallback:
				report.Geocoded.Fallback++
			}
		}
	}

	report.Companies = len(companies)
	return publishable(companies, agg.Rejections(), report), nil
}

func publishable(companies []model.Company, rejections []model.Rejection, report Report) *Result {
	stats := aggregate.NewStatsAggregator()
	for _, c := range companies {
		stats.Add(c)
	}
	return &Result{
		Companies:  companies,
		Filters:    stats.FilterOptions(),
		Stats:      stats.Statistics(),
		Report:     report,
		Rejections: rejections,
	}
}

// record writes the bookkeeping of a successful load. Failures are logged
// and do not fail the load.
func (s *Service) record(ctx context.Context, result *Result, logger *zap.Logger) {
	report := result.Report
	if s.rejects != nil {
		if err := s.rejects.AppendAll(report.LoadID, result.Rejections); err != nil {
			logger.Warn("pipeline: rejected records not written", zap.Error(err))
		}
	}
	if s.snapshots != nil && !report.Reused {
		if err := s.snapshots.SaveCompanies(ctx, report.LoadID, result.Companies); err != nil {
			logger.Warn("pipeline: snapshot not saved", zap.Error(err))
			return
		}
	}
	if s.statePath != "" {
		state := &runstate.State{
			LastLoadAt:  s.now(),
			LoadID:      report.LoadID,
			InputDigest: report.Digest,
			Companies:   report.Companies,
		}
		if err := runstate.Save(s.statePath, state); err != nil {
			logger.Warn("pipeline: run state not saved", zap.Error(err))
		}
	}
}
