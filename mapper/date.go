package mapper

import (
	"strings"
	"time"
)

var validationDateLayouts = []string{
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
}

// ParseValidationDate converts the export's d/M/yyyy date into ISO
// yyyy-MM-dd. ok is false for sentinels and unparseable text.
func ParseValidationDate(value string) (string, bool) {
	if IsInvalid(value) {
		return "", false
	}
	trimmed := strings.TrimSpace(value)
	for _, layout := range validationDateLayouts {
		t, err := time.Parse(layout, trimmed)
		if err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}
