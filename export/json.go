package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

const (
	CompaniesFile  = "companies.json"
	FiltersFile    = "filters.json"
	StatisticsFile = "statistics.json"
)

// Bundle is the published triple plus load metadata.
type Bundle struct {
	LoadID      string
	GeneratedAt time.Time
	Companies   []model.Company
	Filters     model.FilterOptions
	Stats       model.Statistics
}

type companiesMeta struct {
	LoadID      string    `json:"load_id,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
}

type companiesOutput struct {
	Meta      companiesMeta   `json:"meta"`
	Companies []model.Company `json:"companies"`
}

// WriteJSON writes v to path through a temp file and rename so readers never
// see a partial file.
func WriteJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "export: create %s", dir)
		}
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "export: encode %s", path)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(payload, '\n'), 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "export: rename %s", path)
	}
	return nil
}

// WriteResult writes companies.json, filters.json and statistics.json into
// dir.
func WriteResult(dir string, bundle Bundle) error {
	if dir == "" {
		return eris.New("export: directory is required")
	}
	if bundle.GeneratedAt.IsZero() {
		bundle.GeneratedAt = time.Now()
	}
	companies := bundle.Companies
	if companies == nil {
		companies = []model.Company{}
	}
	if err := WriteJSON(filepath.Join(dir, CompaniesFile), companiesOutput{
		Meta: companiesMeta{
			LoadID:      bundle.LoadID,
			GeneratedAt: bundle.GeneratedAt,
			Total:       len(companies),
		},
		Companies: companies,
	}); err != nil {
		return err
	}
	if err := WriteJSON(filepath.Join(dir, FiltersFile), bundle.Filters); err != nil {
		return err
	}
	return WriteJSON(filepath.Join(dir, StatisticsFile), bundle.Stats)
}
