package mapper

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

var cityTypos = map[string]string{
	"melboure":     "Melbourne",
	"melbourn":     "Melbourne",
	"melbounre":    "Melbourne",
	"sydeny":       "Sydney",
	"syndey":       "Sydney",
	"brisban":      "Brisbane",
	"brisbaine":    "Brisbane",
	"adelade":      "Adelaide",
	"adelaid":      "Adelaide",
	"canberrra":    "Canberra",
	"canbera":      "Canberra",
	"hobert":       "Hobart",
	"darwn":        "Darwin",
	"geelon":       "Geelong",
	"wollongog":    "Wollongong",
	"newcastel":    "Newcastle",
	"auckand":      "Auckland",
	"welington":    "Wellington",
	"christchurh":  "Christchurch",
	"christchruch": "Christchurch",
}

var newZealandHints = []string{
	"new zealand",
	"auckland",
	"wellington",
	"christchurch",
	"dunedin",
	"tauranga",
	"queenstown",
	"rotorua",
	"palmerston north",
	"napier",
	"nelson",
	"invercargill",
	"waikato",
	"canterbury",
	"otago",
}

// NormalizeAddress cleans the raw billing fields. When the state field is
// unusable the city is used as the region hint.
func NormalizeAddress(street, city, state, postcode string) model.NormalizedAddress {
	region := state
	if IsInvalid(region) && !IsInvalid(city) {
		region = city
	}
	return model.NormalizedAddress{
		Street:   CleanText(street, PlaceholderStreet),
		City:     NormalizeCity(city),
		State:    NormalizeState(region),
		Postcode: NormalizePostcode(postcode),
	}
}

func NormalizeCity(value string) string {
	city := CleanText(value, "")
	if city == "" {
		return PlaceholderCity
	}
	lower := strings.ToLower(city)
	if fixed, ok := cityTypos[lower]; ok {
		return fixed
	}
	return cases.Title(language.English).String(lower)
}

// NormalizePostcode keeps four-digit postcodes; numeric exports drop the
// leading zero of NT/ACT codes, so three digits are padded back.
func NormalizePostcode(value string) string {
	if IsInvalid(value) {
		return ""
	}
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch len(digits) {
	case 4:
		return digits
	case 3:
		return "0" + digits
	default:
		return ""
	}
}

// ComposeAddress renders "street, city STATE postcode", leaving out
// placeholders.
func ComposeAddress(addr model.NormalizedAddress) string {
	parts := make([]string, 0, 2)
	if !IsPlaceholder(addr.Street) {
		parts = append(parts, addr.Street)
	}
	locality := make([]string, 0, 3)
	if !IsPlaceholder(addr.City) {
		locality = append(locality, addr.City)
	}
	if addr.State != "" {
		locality = append(locality, addr.State)
	}
	if addr.Postcode != "" {
		locality = append(locality, addr.Postcode)
	}
	if len(locality) > 0 {
		parts = append(parts, strings.Join(locality, " "))
	}
	return strings.Join(parts, ", ")
}

// IsNewZealand reports whether free address text mentions a New Zealand
// city or region.
func IsNewZealand(text string) bool {
	lower := " " + aliasKey(text) + " "
	if strings.Contains(lower, " nz ") {
		return true
	}
	for _, hint := range newZealandHints {
		if strings.Contains(lower, " "+hint+" ") {
			return true
		}
	}
	return false
}
