package mapper

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Placeholders substituted for invalid fields.
const (
	PlaceholderName   = "Unknown Company"
	PlaceholderStreet = "Address Not Available"
	PlaceholderCity   = "City Not Available"
	PlaceholderSector = "General"
)

var sentinels = map[string]struct{}{
	"#N/A":      {},
	"N/A":       {},
	"0":         {},
	"NULL":      {},
	"UNDEFINED": {},
}

// IsInvalid reports whether value is blank or one of the export's sentinel
// placeholders. Comparison is case-insensitive.
func IsInvalid(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return true
	}
	_, ok := sentinels[strings.ToUpper(trimmed)]
	return ok
}

// Clean returns the trimmed value, or placeholder when value is invalid.
func Clean(value, placeholder string) string {
	if IsInvalid(value) {
		return placeholder
	}
	return strings.TrimSpace(value)
}

// CleanText is Clean plus NFKC folding and whitespace collapsing, used for
// names and locality fields that are compared or displayed.
func CleanText(value, placeholder string) string {
	if IsInvalid(value) {
		return placeholder
	}
	s := norm.NFKC.String(value)
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return placeholder
	}
	return s
}

// IsPlaceholder reports whether value is one of the substituted placeholders.
func IsPlaceholder(value string) bool {
	switch value {
	case PlaceholderName, PlaceholderStreet, PlaceholderCity, PlaceholderSector, "":
		return true
	}
	return false
}
