package aggregate

import (
	"sort"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/mapper"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

const (
	TopCityLimit         = 10
	FilterCapabilityCap  = 100
	completeAddressParts = 4
)

// StatsAggregator accumulates dataset statistics and filter facets one
// company at a time.
type StatsAggregator struct {
	stats        model.Statistics
	capabilities int
	cities       map[string]int
	sectors      map[string]struct{}
	states       map[string]struct{}
	kinds        map[model.CapabilityType]struct{}
	names        map[string]struct{}
}

func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{
		stats: model.Statistics{
			ByState:          map[string]int{},
			BySector:         map[string]int{},
			ByCapabilityType: map[string]int{},
		},
		cities:  map[string]int{},
		sectors: map[string]struct{}{},
		states:  map[string]struct{}{},
		kinds:   map[model.CapabilityType]struct{}{},
		names:   map[string]struct{}{},
	}
}

func (a *StatsAggregator) Add(company model.Company) {
	if a == nil {
		return
	}
	s := &a.stats
	s.TotalCompanies++
	if company.VerificationStatus == model.Verified {
		s.Verified++
	} else {
		s.Unverified++
	}
	switch company.CompanyType {
	case model.CompanySupplier:
		s.Suppliers++
	case model.CompanyManufacturer:
		s.Manufacturers++
	case model.CompanyBoth:
		s.Both++
	case model.CompanyService:
		s.Services++
	case model.CompanyRetail:
		s.Retail++
	}

	addr := company.BillingAddress
	if mapper.IsStateCode(addr.State) {
		s.ByState[addr.State]++
		a.states[addr.State] = struct{}{}
	}
	for _, sector := range company.KeySectors {
		if mapper.IsPlaceholder(sector) {
			continue
		}
		s.BySector[sector]++
		a.sectors[sector] = struct{}{}
	}

	seen := map[model.CapabilityType]struct{}{}
	for _, capability := range company.ICNCapabilities {
		a.kinds[capability.CapabilityType] = struct{}{}
		if _, ok := seen[capability.CapabilityType]; ok {
			continue
		}
		seen[capability.CapabilityType] = struct{}{}
		s.ByCapabilityType[string(capability.CapabilityType)]++
	}
	for _, name := range company.Capabilities {
		if !mapper.IsPlaceholder(name) {
			a.names[name] = struct{}{}
		}
	}
	a.capabilities += len(company.ICNCapabilities)

	parts := 0
	if !mapper.IsPlaceholder(addr.Street) {
		s.DataQuality.WithStreet++
		parts++
	}
	if !mapper.IsPlaceholder(addr.City) {
		s.DataQuality.WithCity++
		a.cities[addr.City]++
		parts++
	}
	if addr.Postcode != "" {
		s.DataQuality.WithPostcode++
		parts++
	}
	if mapper.IsStateCode(addr.State) {
		parts++
	}
	if parts == completeAddressParts {
		s.DataQuality.CompleteAddress++
	}
	if company.HasCoordinates() {
		s.DataQuality.WithCoordinates++
	}
}

// Statistics returns a copy of the accumulated figures.
func (a *StatsAggregator) Statistics() model.Statistics {
	if a == nil {
		return model.Statistics{}
	}
	out := a.stats
	out.ByState = copyCounts(a.stats.ByState)
	out.BySector = copyCounts(a.stats.BySector)
	out.ByCapabilityType = copyCounts(a.stats.ByCapabilityType)
	if out.TotalCompanies > 0 {
		out.AvgCapabilitiesPerCompany = float64(a.capabilities) / float64(out.TotalCompanies)
	}
	out.TopCities = topCities(a.cities, TopCityLimit)
	return out
}

// FilterOptions returns the distinct facet values seen so far. States follow
// the fixed code order, capability types the enum order, the rest sort
// lexically. Capabilities are truncated to FilterCapabilityCap.
func (a *StatsAggregator) FilterOptions() model.FilterOptions {
	if a == nil {
		return model.FilterOptions{}
	}
	opts := model.FilterOptions{
		Sectors:         sortedKeys(a.sectors),
		States:          []string{},
		Cities:          make([]string, 0, len(a.cities)),
		CapabilityTypes: []string{},
		Capabilities:    sortedKeys(a.names),
	}
	for _, code := range mapper.StateCodes {
		if _, ok := a.states[code]; ok {
			opts.States = append(opts.States, code)
		}
	}
	for city := range a.cities {
		opts.Cities = append(opts.Cities, city)
	}
	sort.Strings(opts.Cities)
	for _, kind := range model.CapabilityTypes {
		if _, ok := a.kinds[kind]; ok {
			opts.CapabilityTypes = append(opts.CapabilityTypes, string(kind))
		}
	}
	if len(opts.Capabilities) > FilterCapabilityCap {
		opts.Capabilities = opts.Capabilities[:FilterCapabilityCap]
	}
	return opts
}

// BuildStatistics summarises companies in one pass.
func BuildStatistics(companies []model.Company) model.Statistics {
	a := NewStatsAggregator()
	for _, company := range companies {
		a.Add(company)
	}
	return a.Statistics()
}

func BuildFilterOptions(companies []model.Company) model.FilterOptions {
	a := NewStatsAggregator()
	for _, company := range companies {
		a.Add(company)
	}
	return a.FilterOptions()
}

func topCities(counts map[string]int, limit int) []model.CityCount {
	out := make([]model.CityCount, 0, len(counts))
	for city, count := range counts {
		out = append(out, model.CityCount{City: city, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].City < out[j].City
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for key := range set {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}
