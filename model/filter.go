package model

// Filter selects companies from a published result. Nil or empty fields do
// not constrain the selection.
type Filter struct {
	Query           string        `json:"query,omitempty"`
	Sectors         []string      `json:"sectors,omitempty"`
	States          []string      `json:"states,omitempty"`
	Cities          []string      `json:"cities,omitempty"`
	CapabilityTypes []string      `json:"capabilityTypes,omitempty"`
	CompanyTypes    []CompanyType `json:"companyTypes,omitempty"`
	VerifiedOnly    *bool         `json:"verifiedOnly,omitempty"`
	Near            *Radius       `json:"near,omitempty"`
	Limit           int           `json:"limit,omitempty"`
}

type Radius struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	KM        float64 `json:"km"`
}

// IsZero reports whether the filter constrains nothing.
func (f Filter) IsZero() bool {
	return f.Query == "" &&
		len(f.Sectors) == 0 &&
		len(f.States) == 0 &&
		len(f.Cities) == 0 &&
		len(f.CapabilityTypes) == 0 &&
		len(f.CompanyTypes) == 0 &&
		f.VerifiedOnly == nil &&
		f.Near == nil &&
		f.Limit <= 0
}
