package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "full name", input: "Victoria", want: StateVIC},
		{name: "city", input: "melbourne", want: StateVIC},
		{name: "code typo", input: "qkd", want: StateQLD},
		{name: "mixed case code", input: "Vic", want: StateVIC},
		{name: "punctuated code", input: "N.S.W.", want: StateNSW},
		{name: "surrounding whitespace", input: "  wa ", want: StateWA},
		{name: "territory", input: "Australian Capital Territory", want: StateACT},
		{name: "nz city", input: "Christchurch", want: StateSI},
		{name: "nz island", input: "North Island", want: StateNI},
		{name: "name typo", input: "Queensand", want: StateQLD},
		{name: "fuzzy code", input: "TSS", want: StateTAS},
		{name: "empty", input: "", want: StateNSW},
		{name: "sentinel", input: "#N/A", want: StateNSW},
		{name: "zero sentinel", input: "0", want: StateNSW},
		{name: "keyword hint", input: "Pilbara mining region", want: StateWA},
		{name: "wine keyword", input: "Barossa wine country", want: StateSA},
		{name: "first letter fallback", input: "Tullamarine Precinct", want: StateTAS},
		{name: "no rule matches", input: "Zzyzx Road Estate", want: StateNSW},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeState(tt.input))
		})
	}
}

func TestNormalizeStateTotalAndIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "#N/A", "null", "UNDEFINED", "Victoria", "vic", "xyz", "12345",
		"Newcastle upon Tyne", "South Island", "s.i.", "??", "qu", "Technology Park",
		"Government House", "ÅÄÖ", "NSW 2000", "Western Australia", "Kalgoorlie-Boulder",
	}
	for _, input := range inputs {
		first := NormalizeState(input)
		assert.True(t, IsStateCode(first), "input %q -> %q", input, first)
		assert.Equal(t, first, NormalizeState(first), "input %q", input)
	}
}

func TestStateNormalizerTwoLetterRule(t *testing.T) {
	strict := NewStateNormalizer(0)

	assert.Equal(t, StateSA, strict.Normalize("SX"))
	assert.Equal(t, StateSA, strict.Normalize("s.x."))
	assert.Equal(t, StateVIC, strict.Normalize("VX"))
	assert.Equal(t, StateNSW, strict.Normalize("NX"))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"NSW", "", 3},
		{"", "QLD", 3},
		{"QKD", "QLD", 1},
		{"VIC", "VIC", 0},
		{"KITTEN", "SITTING", 3},
		{"NA", "WA", 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%s/%s", tt.a, tt.b)
	}
}
