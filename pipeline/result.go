package pipeline

import (
	"time"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

// Result is one published load. It is never modified after publication.
type Result struct {
	Companies  []model.Company     `json:"companies"`
	Filters    model.FilterOptions `json:"filters"`
	Stats      model.Statistics    `json:"statistics"`
	Report     Report              `json:"report"`
	Rejections []model.Rejection   `json:"rejections,omitempty"`
}

type Report struct {
	LoadID         string        `json:"load_id"`
	Origin         string        `json:"origin,omitempty"`
	Digest         string        `json:"digest,omitempty"`
	StartedAt      time.Time     `json:"started_at"`
	FinishedAt     time.Time     `json:"finished_at"`
	Duration       time.Duration `json:"duration"`
	Items          int           `json:"items"`
	Records        int           `json:"records"`
	SkippedItems   int           `json:"skipped_items"`
	SkippedRecords int           `json:"skipped_records"`
	Companies      int           `json:"companies"`
	Sampled        bool          `json:"sampled"`
	Reused         bool          `json:"reused"`
	Geocoded       GeocodeCounts `json:"geocoded"`
}

type GeocodeCounts struct {
	Cache    int `json:"cache"`
	Provider int `json:"provider"`
	Fallback int `json:"fallback"`
}

// Metrics flattens the report for run logs.
func (r Report) Metrics() map[string]int64 {
	return map[string]int64{
		"items":            int64(r.Items),
		"records":          int64(r.Records),
		"skipped_items":    int64(r.SkippedItems),
		"skipped_records":  int64(r.SkippedRecords),
		"companies":        int64(r.Companies),
		"geocode_cache":    int64(r.Geocoded.Cache),
		"geocode_provider": int64(r.Geocoded.Provider),
		"geocode_fallback": int64(r.Geocoded.Fallback),
		"duration_ms":      r.Duration.Milliseconds(),
	}
}
