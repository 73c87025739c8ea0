package aggregate

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/mapper"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

// CompanyAggregator folds raw item/organisation rows into one Company per
// organisation id. It is not safe for concurrent use.
type CompanyAggregator struct {
	records        map[string]*model.Company
	order          []string
	kinds          map[string][]model.CapabilityType
	items          int
	rows           int
	skippedItems   int
	skippedRecords int
	rejections     []model.Rejection
	logger         *zap.Logger
}

type Option func(*CompanyAggregator)

func WithLogger(logger *zap.Logger) Option {
	return func(a *CompanyAggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

func NewCompanyAggregator(opts ...Option) *CompanyAggregator {
	a := &CompanyAggregator{
		records: map[string]*model.Company{},
		kinds:   map[string][]model.CapabilityType{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// AddItem merges every organisation record of item. Invalid items and
// records are counted and skipped.
func (a *CompanyAggregator) AddItem(item model.RawItem) {
	if a == nil {
		return
	}
	a.items++
	itemID := strings.TrimSpace(item.ItemID.String())
	if item.Malformed != "" {
		a.skippedItems++
		a.rows += len(item.Organizations)
		a.reject(model.Rejection{ItemID: itemID, Reason: model.RejectMalformedItem, Detail: item.Malformed})
		return
	}
	if mapper.IsInvalid(item.SectorName) && mapper.IsInvalid(item.ItemName) {
		a.skippedItems++
		a.rows += len(item.Organizations)
		a.reject(model.Rejection{ItemID: itemID, Reason: model.RejectInvalidItem})
		return
	}

	sector := mapper.CleanText(item.SectorName, mapper.PlaceholderSector)
	itemName := mapper.CleanText(item.ItemName, "")
	detailed := mapper.CleanText(item.DetailedItemName, itemName)
	if itemName == "" {
		itemName = detailed
	}
	if itemName == "" {
		itemName, detailed = sector, sector
	}

	for _, rec := range item.Organizations {
		a.rows++
		orgID := strings.TrimSpace(rec.OrganisationID.String())
		if rec.Malformed != "" {
			a.skippedRecords++
			a.reject(model.Rejection{ItemID: itemID, OrganisationID: orgID, Reason: model.RejectMalformedOrganisation, Detail: rec.Malformed})
			continue
		}
		if mapper.IsInvalid(orgID) {
			a.skippedRecords++
			a.reject(model.Rejection{ItemID: itemID, OrganisationID: orgID, Reason: model.RejectInvalidOrganisation})
			continue
		}

		kind := mapper.NormalizeCapabilityType(rec.CapabilityType)
		capability := model.Capability{
			CapabilityID:     mapper.Clean(rec.CapabilityID.String(), ""),
			ItemID:           itemID,
			ItemName:         itemName,
			DetailedItemName: detailed,
			CapabilityType:   kind,
			SectorName:       sector,
			SectorMappingID:  mapper.Clean(item.SectorMappingID.String(), ""),
		}

		company, ok := a.records[orgID]
		if !ok {
			a.records[orgID] = newCompany(orgID, rec, sector, detailed, capability)
			a.order = append(a.order, orgID)
			a.kinds[orgID] = []model.CapabilityType{kind}
			continue
		}

		company.KeySectors = appendUnique(company.KeySectors, sector)
		company.Capabilities = appendUnique(company.Capabilities, detailed)
		company.ICNCapabilities = append(company.ICNCapabilities, capability)
		a.kinds[orgID] = append(a.kinds[orgID], kind)
		company.CompanyType = mapper.CompanyTypeOf(a.kinds[orgID])
	}
}

func newCompany(orgID string, rec model.RawOrganizationRecord, sector, detailed string, capability model.Capability) *model.Company {
	addr := mapper.NormalizeAddress(rec.Street, rec.City, rec.State, rec.Postcode.String())
	date, verified := mapper.ParseValidationDate(rec.ValidationDate)
	status := model.Unverified
	if verified {
		status = model.Verified
	}
	return &model.Company{
		ID:                 orgID,
		Name:               mapper.CleanText(rec.Name, mapper.PlaceholderName),
		Address:            mapper.ComposeAddress(addr),
		BillingAddress:     addr,
		VerificationStatus: status,
		VerificationDate:   date,
		KeySectors:         []string{sector},
		Capabilities:       []string{detailed},
		CompanyType:        mapper.CompanyTypeOf([]model.CapabilityType{capability.CapabilityType}),
		ICNCapabilities:    []model.Capability{capability},
	}
}

func (a *CompanyAggregator) reject(rejection model.Rejection) {
	a.rejections = append(a.rejections, rejection)
	a.logger.Debug("aggregate: skipped record",
		zap.String("item_id", rejection.ItemID),
		zap.String("organisation_id", rejection.OrganisationID),
		zap.String("reason", rejection.Reason))
}

// Companies returns the merged companies in first-seen order. Coordinates are
// still the (0,0) sentinel.
func (a *CompanyAggregator) Companies() []model.Company {
	if a == nil {
		return nil
	}
	out := make([]model.Company, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.records[id])
	}
	return out
}

func (a *CompanyAggregator) Len() int {
	if a == nil {
		return 0
	}
	return len(a.records)
}

type Counts struct {
	Items          int `json:"items"`
	Records        int `json:"records"`
	SkippedItems   int `json:"skipped_items"`
	SkippedRecords int `json:"skipped_records"`
}

func (a *CompanyAggregator) Counts() Counts {
	if a == nil {
		return Counts{}
	}
	return Counts{
		Items:          a.items,
		Records:        a.rows,
		SkippedItems:   a.skippedItems,
		SkippedRecords: a.skippedRecords,
	}
}

func (a *CompanyAggregator) Rejections() []model.Rejection {
	if a == nil {
		return nil
	}
	return append([]model.Rejection(nil), a.rejections...)
}

func appendUnique(values []string, value string) []string {
	for _, existing := range values {
		if existing == value {
			return values
		}
	}
	return append(values, value)
}
