package model

type Statistics struct {
	TotalCompanies            int            `json:"totalCompanies"`
	Verified                  int            `json:"verified"`
	Unverified                int            `json:"unverified"`
	Suppliers                 int            `json:"suppliers"`
	Manufacturers             int            `json:"manufacturers"`
	Both                      int            `json:"both"`
	Services                  int            `json:"services"`
	Retail                    int            `json:"retail"`
	ByState                   map[string]int `json:"byState"`
	BySector                  map[string]int `json:"bySector"`
	ByCapabilityType          map[string]int `json:"byCapabilityType"`
	AvgCapabilitiesPerCompany float64        `json:"avgCapabilitiesPerCompany"`
	TopCities                 []CityCount    `json:"topCities"`
	DataQuality               DataQuality    `json:"dataQuality"`
}

type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

type DataQuality struct {
	WithStreet      int `json:"withStreet"`
	WithCity        int `json:"withCity"`
	WithPostcode    int `json:"withPostcode"`
	CompleteAddress int `json:"completeAddress"`
	WithCoordinates int `json:"withCoordinates"`
}

type FilterOptions struct {
	Sectors         []string `json:"sectors"`
	States          []string `json:"states"`
	Cities          []string `json:"cities"`
	CapabilityTypes []string `json:"capabilityTypes"`
	Capabilities    []string `json:"capabilities"`
}
