package aggregate

import (
	"math"
	"strings"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/mapper"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

const earthRadiusKM = 6371.0

// Search returns the companies matching filter, in input order, capped at
// filter.Limit when positive.
func Search(companies []model.Company, filter model.Filter) []model.Company {
	out := make([]model.Company, 0)
	for _, company := range companies {
		if !Matches(company, filter) {
			continue
		}
		out = append(out, company)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out
}

// Matches reports whether company satisfies every populated field of filter.
// List fields match when any value matches; a "both" company satisfies both
// the supplier and manufacturer company types.
func Matches(company model.Company, filter model.Filter) bool {
	if filter.VerifiedOnly != nil && *filter.VerifiedOnly && company.VerificationStatus != model.Verified {
		return false
	}
	if len(filter.States) > 0 && !containsFold(filter.States, company.BillingAddress.State) {
		return false
	}
	if len(filter.Cities) > 0 && !containsFold(filter.Cities, company.BillingAddress.City) {
		return false
	}
	if len(filter.Sectors) > 0 && !anyFold(filter.Sectors, company.KeySectors) {
		return false
	}
	if len(filter.CapabilityTypes) > 0 && !matchesCapabilityType(company, filter.CapabilityTypes) {
		return false
	}
	if len(filter.CompanyTypes) > 0 && !matchesCompanyType(company.CompanyType, filter.CompanyTypes) {
		return false
	}
	if filter.Near != nil {
		if !company.HasCoordinates() {
			return false
		}
		if DistanceKM(filter.Near.Latitude, filter.Near.Longitude, company.Latitude, company.Longitude) > filter.Near.KM {
			return false
		}
	}
	if query := strings.ToLower(strings.TrimSpace(filter.Query)); query != "" {
		return matchesQuery(company, query)
	}
	return true
}

// DistanceKM is the haversine great-circle distance between two points.
func DistanceKM(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func matchesQuery(company model.Company, query string) bool {
	if strings.Contains(strings.ToLower(company.Name), query) ||
		strings.Contains(strings.ToLower(company.BillingAddress.City), query) {
		return true
	}
	for _, values := range [][]string{company.KeySectors, company.Capabilities} {
		for _, value := range values {
			if strings.Contains(strings.ToLower(value), query) {
				return true
			}
		}
	}
	return false
}

// matchesCapabilityType accepts either enum values ("Item Supplier") or
// class names ("supplier").
func matchesCapabilityType(company model.Company, wanted []string) bool {
	for _, capability := range company.ICNCapabilities {
		class := string(mapper.ClassOf(capability.CapabilityType))
		for _, w := range wanted {
			if strings.EqualFold(w, string(capability.CapabilityType)) || strings.EqualFold(w, class) {
				return true
			}
		}
	}
	return false
}

func matchesCompanyType(kind model.CompanyType, wanted []model.CompanyType) bool {
	for _, w := range wanted {
		if w == kind {
			return true
		}
		if kind == model.CompanyBoth && (w == model.CompanySupplier || w == model.CompanyManufacturer) {
			return true
		}
	}
	return false
}

func containsFold(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

func anyFold(values, targets []string) bool {
	for _, target := range targets {
		if containsFold(values, target) {
			return true
		}
	}
	return false
}
