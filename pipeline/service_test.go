package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/geocode"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/icn"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/rawstore"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/runlog"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/sample"
)

type failingGeocoder struct {
	calls atomic.Int32
}

func (g *failingGeocoder) Geocode(ctx context.Context, query string) (geocode.Result, error) {
	g.calls.Add(1)
	return geocode.Result{}, errors.New("upstream down")
}

// countingSource blocks every read until release is closed.
type countingSource struct {
	items   []model.RawItem
	digest  string
	release chan struct{}
	reads   atomic.Int32
	err     error
}

func (s *countingSource) Read(ctx context.Context) (icn.Snapshot, error) {
	s.reads.Add(1)
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return icn.Snapshot{}, ctx.Err()
		}
	}
	if s.err != nil {
		return icn.Snapshot{}, s.err
	}
	return icn.Snapshot{Items: s.items, Digest: s.digest, Origin: "test"}, nil
}

type memorySnapshots struct {
	mu        sync.Mutex
	loadID    string
	companies []model.Company
	saves     int
}

func (m *memorySnapshots) SaveCompanies(ctx context.Context, loadID string, companies []model.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadID = loadID
	m.companies = append([]model.Company(nil), companies...)
	m.saves++
	return nil
}

func (m *memorySnapshots) SnapshotLoadID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadID, nil
}

func (m *memorySnapshots) LoadCompanies(ctx context.Context) ([]model.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Company(nil), m.companies...), nil
}

func scenarioItems() []model.RawItem {
	return []model.RawItem{
		{
			ItemID:     "A",
			ItemName:   "Cables",
			SectorName: "Energy",
			Organizations: []model.RawOrganizationRecord{
				{OrganisationID: "ORG1", Name: "Acme", State: "Vic", CapabilityType: "supplier", City: "Melbourne"},
			},
		},
		{
			ItemID:     "B",
			ItemName:   "Drills",
			SectorName: "Mining",
			Organizations: []model.RawOrganizationRecord{
				{OrganisationID: "ORG1", Name: "Acme", State: "Vic", CapabilityType: "Manufacturer"},
				{OrganisationID: "ORG2", Name: "Beta", State: "South Australia", CapabilityType: "Service Provider"},
				{OrganisationID: "#N/A", Name: "Ghost"},
			},
		},
		{ItemID: "C", ItemName: "N/A", SectorName: "#N/A"},
	}
}

func newResolver(g geocode.Geocoder) *geocode.Resolver {
	return geocode.NewResolver(g, geocode.NewCache(), geocode.WithBatchDelay(0))
}

func TestServiceLoadEndToEnd(t *testing.T) {
	geocoder := &failingGeocoder{}
	svc := New(icn.StaticSource(scenarioItems()), newResolver(geocoder))

	_, err := svc.Current()
	assert.ErrorIs(t, err, ErrNotLoaded)

	result, err := svc.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Companies, 2)

	org1 := result.Companies[0]
	assert.Equal(t, "ORG1", org1.ID)
	assert.Equal(t, []string{"Energy", "Mining"}, org1.KeySectors)
	assert.Equal(t, model.CompanyBoth, org1.CompanyType)
	assert.Equal(t, "VIC", org1.BillingAddress.State)
	assert.Equal(t, geocode.Fallback("VIC").Latitude, org1.Latitude)

	org2 := result.Companies[1]
	assert.Equal(t, "SA", org2.BillingAddress.State)
	assert.InDelta(t, -34.9285, org2.Latitude, 1e-9)
	assert.InDelta(t, 138.6007, org2.Longitude, 1e-9)

	report := result.Report
	assert.NotEmpty(t, report.LoadID)
	assert.Equal(t, 3, report.Items)
	assert.Equal(t, 4, report.Records)
	assert.Equal(t, 1, report.SkippedItems)
	assert.Equal(t, 1, report.SkippedRecords)
	assert.Equal(t, 2, report.Companies)
	assert.Equal(t, GeocodeCounts{Fallback: 2}, report.Geocoded)
	assert.Len(t, result.Rejections, 2)

	assert.Equal(t, 2, result.Stats.TotalCompanies)
	assert.Equal(t, 1, result.Stats.Both)
	assert.Equal(t, 1, result.Stats.Services)
	assert.Equal(t, []string{"VIC", "SA"}, result.Filters.States)
	assert.Equal(t, 2, result.Stats.DataQuality.WithCoordinates)

	again, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, result, again)
	assert.Equal(t, int32(2), geocoder.calls.Load())
}

func TestServiceConcurrentLoadsShareOne(t *testing.T) {
	src := &countingSource{items: scenarioItems(), release: make(chan struct{})}
	svc := New(src, nil)

	const callers = 8
	results := make([]*Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Load(context.Background())
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	require.Eventually(t, svc.Loading, time.Second, time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.reads.Load())
	for _, res := range results {
		assert.Same(t, results[0], res)
	}
	assert.False(t, svc.Loading())
}

func TestServiceReloadRunsAgain(t *testing.T) {
	src := &countingSource{items: scenarioItems()}
	svc := New(src, nil)

	first, err := svc.Load(context.Background())
	require.NoError(t, err)
	second, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.Report.LoadID, second.Report.LoadID)
	assert.Equal(t, int32(2), src.reads.Load())

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, second, current)
}

func TestServiceFailedLoadPublishesNothing(t *testing.T) {
	src := &countingSource{err: icn.ErrNotArray}
	svc := New(src, nil)

	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, icn.ErrNotArray)
	_, err = svc.Current()
	assert.ErrorIs(t, err, ErrNotLoaded)

	src.err = nil
	src.items = scenarioItems()
	_, err = svc.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.reads.Load())
}

func TestServicePublisherErrorFailsLoad(t *testing.T) {
	var published int
	svc := New(icn.StaticSource(scenarioItems()), nil,
		WithPublisher(func(ctx context.Context, r *Result) error {
			published++
			return errors.New("disk full")
		}))
	_, err := svc.Load(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, published)
	_, err = svc.Current()
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestServiceWaiterHonoursContext(t *testing.T) {
	src := &countingSource{items: scenarioItems(), release: make(chan struct{})}
	svc := New(src, nil)
	go func() { _, _ = svc.Load(context.Background()) }()
	require.Eventually(t, svc.Loading, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := svc.Load(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	close(src.release)
}

func TestServiceReusesUnchangedInput(t *testing.T) {
	dir := t.TempDir()
	geocoder := &failingGeocoder{}
	snapshots := &memorySnapshots{}
	src := &countingSource{items: scenarioItems(), digest: "abc"}
	opts := []Option{
		WithStatePath(filepath.Join(dir, "state.json")),
		WithSnapshots(snapshots),
	}

	first, err := New(src, newResolver(geocoder), opts...).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, first.Report.Reused)
	assert.Equal(t, 1, snapshots.saves)

	second, err := New(src, newResolver(geocoder), opts...).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, second.Report.Reused)
	assert.Equal(t, first.Companies, second.Companies)
	assert.Equal(t, first.Stats, second.Stats)
	assert.Equal(t, int32(2), geocoder.calls.Load())
	assert.Equal(t, 1, snapshots.saves)

	src.digest = "changed"
	third, err := New(src, newResolver(geocoder), opts...).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, third.Report.Reused)
	assert.Equal(t, 2, snapshots.saves)
}

func companyIDs(companies []model.Company) []string {
	ids := make([]string, 0, len(companies))
	for _, c := range companies {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestServiceForcedLoadDoesNotLeakIntoReuse(t *testing.T) {
	dir := t.TempDir()
	statePath := filepath.Join(dir, "state.json")
	snapshots := &memorySnapshots{}
	inputA := &countingSource{items: scenarioItems(), digest: "digest-a"}
	inputB := &countingSource{
		digest: "digest-b",
		items: []model.RawItem{{
			ItemID:     "Z",
			ItemName:   "Pumps",
			SectorName: "Water",
			Organizations: []model.RawOrganizationRecord{
				{OrganisationID: "ORGB", Name: "Other", State: "QLD", CapabilityType: "Supplier"},
			},
		}},
	}
	withState := []Option{WithStatePath(statePath), WithSnapshots(snapshots)}

	tests := []struct {
		name   string
		run    func() (*Result, error)
		ids    []string
		reused bool
	}{
		{
			name: "plain A",
			run:  func() (*Result, error) { return New(inputA, nil, withState...).Load(context.Background()) },
			ids:  []string{"ORG1", "ORG2"},
		},
		{
			name: "forced B",
			run:  func() (*Result, error) { return New(inputB, nil, withState...).Reload(context.Background()) },
			ids:  []string{"ORGB"},
		},
		{
			name: "plain A after forced B",
			run:  func() (*Result, error) { return New(inputA, nil, withState...).Load(context.Background()) },
			ids:  []string{"ORG1", "ORG2"},
		},
		{
			name: "forced B without run state",
			run: func() (*Result, error) {
				return New(inputB, nil, WithSnapshots(snapshots)).Reload(context.Background())
			},
			ids: []string{"ORGB"},
		},
		{
			name: "plain A after stateless snapshot",
			run:  func() (*Result, error) { return New(inputA, nil, withState...).Load(context.Background()) },
			ids:  []string{"ORG1", "ORG2"},
		},
		{
			name:   "plain A again reuses",
			run:    func() (*Result, error) { return New(inputA, nil, withState...).Load(context.Background()) },
			ids:    []string{"ORG1", "ORG2"},
			reused: true,
		},
	}
	for _, tt := range tests {
		result, err := tt.run()
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.ids, companyIDs(result.Companies), tt.name)
		assert.Equal(t, tt.reused, result.Report.Reused, tt.name)
	}
}

func TestServiceLoadSkipsMistypedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icn.json")
	input := `[
  {"Item ID": 1, "Item Name": "Cables", "Sector Name": "Energy", "Organizations": [
    {"Organisation: Organisation ID": "ORG1", "Organisation: Billing State/Province": "VIC", "Capability Type": "Supplier"},
    {"Organisation: Organisation ID": "ORG2", "Organisation: Billing State/Province": 0}
  ]},
  {"Item ID": 2, "Item Name": ["Pumps"], "Organizations": []}
]`
	require.NoError(t, os.WriteFile(path, []byte(input), 0o644))

	result, err := New(icn.FileSource{Path: path}, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ORG1"}, companyIDs(result.Companies))
	assert.Equal(t, 2, result.Report.Items)
	assert.Equal(t, 1, result.Report.SkippedItems)
	assert.Equal(t, 1, result.Report.SkippedRecords)
	require.Len(t, result.Rejections, 2)
	assert.Equal(t, model.RejectMalformedOrganisation, result.Rejections[0].Reason)
	assert.Equal(t, model.RejectMalformedItem, result.Rejections[1].Reason)
}

func TestServiceBookkeeping(t *testing.T) {
	dir := t.TempDir()
	runs := runlog.NewRecorder(filepath.Join(dir, "runs"))
	rejects := rawstore.NewFileStore(filepath.Join(dir, "rejected"))
	defer rejects.Close()

	svc := New(icn.StaticSource(scenarioItems()), nil, WithRunLog(runs), WithRejectStore(rejects))
	result, err := svc.Load(context.Background())
	require.NoError(t, err)

	record, err := runs.Read(result.Report.LoadID)
	require.NoError(t, err)
	assert.Equal(t, runlog.StatusCompleted, record.Status)
	assert.Equal(t, "memory", record.Origin)
	assert.Equal(t, int64(2), record.Metrics["companies"])

	matches, err := filepath.Glob(filepath.Join(dir, "rejected", "rejected-*.jsonl"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestServiceSampling(t *testing.T) {
	items := make([]model.RawItem, 0, 30)
	states := []string{"NSW", "VIC", "QLD", "WA", "TAS"}
	for i := 0; i < 30; i++ {
		items = append(items, model.RawItem{
			ItemID:     model.FlexString(rune('a' + i)),
			ItemName:   "Thing",
			SectorName: "Energy",
			Organizations: []model.RawOrganizationRecord{{
				OrganisationID: model.FlexString("ORG" + string(rune('A'+i))),
				State:          states[i%len(states)],
				CapabilityType: "Supplier",
			}},
		})
	}
	svc := New(icn.StaticSource(items), nil, WithSampler(sample.NewSeeded(3), 10))
	result, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Report.Sampled)
	assert.Len(t, result.Companies, 10)
	assert.Len(t, result.Stats.ByState, 5)
}

func TestServiceSearch(t *testing.T) {
	svc := New(icn.StaticSource(scenarioItems()), nil)
	_, err := svc.Search(model.Filter{})
	assert.ErrorIs(t, err, ErrNotLoaded)

	_, err = svc.Load(context.Background())
	require.NoError(t, err)

	found, err := svc.Search(model.Filter{States: []string{"SA"}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "ORG2", found[0].ID)

	c, err := svc.Company("ORG1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	_, err = svc.Company("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}
