package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsInvalid(t *testing.T) {
	for _, value := range []string{"", "   ", "#N/A", "n/a", "0", "null", "Undefined", " NULL "} {
		assert.True(t, IsInvalid(value), "%q", value)
	}
	for _, value := range []string{"Acme", "00", "N/A Pty", "Zero"} {
		assert.False(t, IsInvalid(value), "%q", value)
	}
}

func TestClean(t *testing.T) {
	assert.Equal(t, "Acme Pty Ltd", Clean("  Acme Pty Ltd ", PlaceholderName))
	assert.Equal(t, PlaceholderName, Clean("#N/A", PlaceholderName))
	assert.Equal(t, "", Clean("undefined", ""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Acme Pty Ltd", CleanText("Acme  Pty\tLtd", PlaceholderName))
	assert.Equal(t, "ACME", CleanText("ＡＣＭＥ", PlaceholderName))
	assert.Equal(t, PlaceholderStreet, CleanText("N/A", PlaceholderStreet))
}

func TestNormalizeAddress(t *testing.T) {
	addr := NormalizeAddress(" 1 Main Rd ", "SYDENY", "#N/A", "2000")
	assert.Equal(t, "1 Main Rd", addr.Street)
	assert.Equal(t, "Sydney", addr.City)
	assert.Equal(t, StateNSW, addr.State)
	assert.Equal(t, "2000", addr.Postcode)

	addr = NormalizeAddress("0", "0", "0", "0")
	assert.Equal(t, PlaceholderStreet, addr.Street)
	assert.Equal(t, PlaceholderCity, addr.City)
	assert.Equal(t, StateNSW, addr.State)
	assert.Equal(t, "", addr.Postcode)
	assert.Equal(t, "NSW", ComposeAddress(addr))

	addr = NormalizeAddress("", "darwin city", "", "800")
	assert.Equal(t, "Darwin City", addr.City)
	assert.Equal(t, "0800", addr.Postcode)
}

func TestNormalizePostcode(t *testing.T) {
	assert.Equal(t, "3000", NormalizePostcode("3000"))
	assert.Equal(t, "0870", NormalizePostcode("870"))
	assert.Equal(t, "", NormalizePostcode("30000"))
	assert.Equal(t, "", NormalizePostcode("#N/A"))
	assert.Equal(t, "6000", NormalizePostcode("WA 6000"))
}

func TestIsNewZealand(t *testing.T) {
	assert.True(t, IsNewZealand("12 Queen St, Auckland 1010"))
	assert.True(t, IsNewZealand("Dunedin, NZ"))
	assert.False(t, IsNewZealand("1 Collins St, Melbourne VIC 3000"))
	assert.False(t, IsNewZealand("Nzinga Road"))
}

func TestParseValidationDate(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"5/3/2023", "2023-03-05", true},
		{"15/11/2021", "2021-11-15", true},
		{"01/02/2020", "2020-02-01", true},
		{"3/4/2022 0:00", "2022-04-03", true},
		{"2023-03-05", "", false},
		{"31/2/2023", "", false},
		{"#N/A", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseValidationDate(tt.input)
		assert.Equal(t, tt.wantOK, ok, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
	}
}
