package export

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

const (
	CompaniesSheet  = "Companies"
	StatisticsSheet = "Statistics"
)

var companyHeaders = []string{
	"ID", "Name", "Company Type", "Verification", "Verified On",
	"Street", "City", "State", "Postcode", "Latitude", "Longitude",
	"Sectors", "Capabilities", "Capability Count",
}

// WriteXLSX renders companies and their statistics into a two-sheet
// workbook.
func WriteXLSX(path string, companies []model.Company, stats model.Statistics) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CompaniesSheet); err != nil {
		return eris.Wrap(err, "export: rename sheet")
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return eris.Wrap(err, "export: header style")
	}

	if err := writeRow(f, CompaniesSheet, 1, toRow(companyHeaders)); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(companyHeaders))
	if err := f.SetCellStyle(CompaniesSheet, "A1", last+"1", headerStyle); err != nil {
		return eris.Wrap(err, "export: style header")
	}
	for i, c := range companies {
		addr := c.BillingAddress
		row := []any{
			c.ID, c.Name, string(c.CompanyType), string(c.VerificationStatus), c.VerificationDate,
			addr.Street, addr.City, addr.State, addr.Postcode, c.Latitude, c.Longitude,
			strings.Join(c.KeySectors, "; "), strings.Join(c.Capabilities, "; "), len(c.ICNCapabilities),
		}
		if err := writeRow(f, CompaniesSheet, i+2, row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(CompaniesSheet, "A", last, 18); err != nil {
		return eris.Wrap(err, "export: column width")
	}

	if _, err := f.NewSheet(StatisticsSheet); err != nil {
		return eris.Wrap(err, "export: statistics sheet")
	}
	for i, row := range statisticsRows(stats) {
		if err := writeRow(f, StatisticsSheet, i+1, row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(StatisticsSheet, "A1", "B1", headerStyle); err != nil {
		return eris.Wrap(err, "export: style statistics header")
	}
	f.SetActiveSheet(0)

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "export: create %s", dir)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}
	return nil
}

func statisticsRows(stats model.Statistics) [][]any {
	rows := [][]any{
		{"Metric", "Value"},
		{"Total companies", stats.TotalCompanies},
		{"Verified", stats.Verified},
		{"Unverified", stats.Unverified},
		{"Suppliers", stats.Suppliers},
		{"Manufacturers", stats.Manufacturers},
		{"Both", stats.Both},
		{"Services", stats.Services},
		{"Retail", stats.Retail},
		{"Avg capabilities per company", stats.AvgCapabilitiesPerCompany},
		{"With street", stats.DataQuality.WithStreet},
		{"With city", stats.DataQuality.WithCity},
		{"With postcode", stats.DataQuality.WithPostcode},
		{"Complete address", stats.DataQuality.CompleteAddress},
		{"With coordinates", stats.DataQuality.WithCoordinates},
	}
	rows = appendCounts(rows, "State", stats.ByState)
	rows = appendCounts(rows, "Sector", stats.BySector)
	rows = appendCounts(rows, "Capability type", stats.ByCapabilityType)
	for _, city := range stats.TopCities {
		rows = append(rows, []any{"City: " + city.City, city.Count})
	}
	return rows
}

func appendCounts(rows [][]any, label string, counts map[string]int) [][]any {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		rows = append(rows, []any{label + ": " + key, counts[key]})
	}
	return rows
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return eris.Wrap(err, "export: cell name")
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return eris.Wrapf(err, "export: write %s row %d", sheet, row)
	}
	return nil
}

func toRow(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
