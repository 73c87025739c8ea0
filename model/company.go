package model

type VerificationStatus string

const (
	Verified   VerificationStatus = "verified"
	Unverified VerificationStatus = "unverified"
)

type CompanyType string

const (
	CompanySupplier     CompanyType = "supplier"
	CompanyManufacturer CompanyType = "manufacturer"
	CompanyBoth         CompanyType = "both"
	CompanyService      CompanyType = "service"
	CompanyRetail       CompanyType = "retail"
)

// CapabilityType is the closed set of roles an organisation can hold for an item.
type CapabilityType string

const (
	CapabilitySupplier          CapabilityType = "Supplier"
	CapabilityItemSupplier      CapabilityType = "Item Supplier"
	CapabilityPartsSupplier     CapabilityType = "Parts Supplier"
	CapabilityManufacturer      CapabilityType = "Manufacturer"
	CapabilityManufacturerParts CapabilityType = "Manufacturer (Parts)"
	CapabilityServiceProvider   CapabilityType = "Service Provider"
	CapabilityProjectManagement CapabilityType = "Project Management"
	CapabilityDesigner          CapabilityType = "Designer"
	CapabilityAssembler         CapabilityType = "Assembler"
	CapabilityRetailer          CapabilityType = "Retailer"
	CapabilityWholesaler        CapabilityType = "Wholesaler"
)

// CapabilityTypes lists the enumeration in its canonical order.
var CapabilityTypes = []CapabilityType{
	CapabilitySupplier,
	CapabilityItemSupplier,
	CapabilityPartsSupplier,
	CapabilityManufacturer,
	CapabilityManufacturerParts,
	CapabilityServiceProvider,
	CapabilityProjectManagement,
	CapabilityDesigner,
	CapabilityAssembler,
	CapabilityRetailer,
	CapabilityWholesaler,
}

// CapabilityClass is the semantic grouping used for company-type derivation.
type CapabilityClass string

const (
	ClassSupplier     CapabilityClass = "supplier"
	ClassManufacturer CapabilityClass = "manufacturer"
	ClassService      CapabilityClass = "service"
	ClassRetail       CapabilityClass = "retail"
)

type NormalizedAddress struct {
	Street   string `json:"street"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postcode string `json:"postcode"`
}

type Capability struct {
	CapabilityID     string         `json:"capabilityId"`
	ItemID           string         `json:"itemId"`
	ItemName         string         `json:"itemName"`
	DetailedItemName string         `json:"detailedItemName"`
	CapabilityType   CapabilityType `json:"capabilityType"`
	SectorName       string         `json:"sectorName"`
	SectorMappingID  string         `json:"sectorMappingId"`
}

type Company struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Address            string             `json:"address"`
	BillingAddress     NormalizedAddress  `json:"billingAddress"`
	Latitude           float64            `json:"latitude"`
	Longitude          float64            `json:"longitude"`
	VerificationStatus VerificationStatus `json:"verificationStatus"`
	VerificationDate   string             `json:"verificationDate,omitempty"`
	KeySectors         []string           `json:"keySectors"`
	Capabilities       []string           `json:"capabilities"`
	CompanyType        CompanyType        `json:"companyType"`
	ICNCapabilities    []Capability       `json:"icnCapabilities"`
}

// HasCoordinates reports whether the company left the (0,0) sentinel.
func (c Company) HasCoordinates() bool {
	return c.Latitude != 0 || c.Longitude != 0
}

// Rejection records a raw row that was skipped during aggregation.
type Rejection struct {
	ItemID         string `json:"item_id,omitempty"`
	OrganisationID string `json:"organisation_id,omitempty"`
	Reason         string `json:"reason"`
	Detail         string `json:"detail,omitempty"`
}

const (
	RejectInvalidItem           = "invalid_item"
	RejectInvalidOrganisation   = "invalid_organisation_id"
	RejectMalformedItem         = "malformed_item"
	RejectMalformedOrganisation = "malformed_organisation"
)
