package model

import "encoding/json"

// RawItem is one item/capability row of the ICN export together with every
// organisation that claims to offer it.
type RawItem struct {
	ItemID           FlexString              `json:"Item ID"`
	ItemName         string                  `json:"Item Name"`
	DetailedItemName string                  `json:"Detailed Item Name"`
	SectorName       string                  `json:"Sector Name"`
	SectorMappingID  FlexString              `json:"Sector Mapping ID"`
	Organizations    []RawOrganizationRecord `json:"Organizations"`

	// Malformed holds the decode error of a row whose fields had the wrong
	// JSON types. Such rows are rejected, not loaded.
	Malformed string `json:"-"`
}

type RawOrganizationRecord struct {
	CapabilityID   FlexString `json:"Organisation Capability"`
	OrganisationID FlexString `json:"Organisation: Organisation ID"`
	Name           string     `json:"Organisation: Organisation Name"`
	CapabilityType string     `json:"Capability Type"`
	ValidationDate string     `json:"Validation Date"`
	Street         string     `json:"Organisation: Billing Street"`
	City           string     `json:"Organisation: Billing City"`
	State          string     `json:"Organisation: Billing State/Province"`
	Postcode       FlexString `json:"Organisation: Billing Zip/Postal Code"`

	Malformed string `json:"-"`
}

// UnmarshalJSON decodes the organisation records one by one so that a
// mistyped record is marked Malformed instead of failing the whole item.
func (it *RawItem) UnmarshalJSON(data []byte) error {
	type plain RawItem
	var aux struct {
		plain
		Organizations []json.RawMessage `json:"Organizations"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*it = RawItem(aux.plain)
	it.Organizations = nil
	if len(aux.Organizations) > 0 {
		it.Organizations = make([]RawOrganizationRecord, 0, len(aux.Organizations))
	}
	for _, raw := range aux.Organizations {
		var rec RawOrganizationRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			rec = RawOrganizationRecord{Malformed: err.Error()}
			// Keep the id when it is readable so the rejection names it.
			var id struct {
				OrganisationID FlexString `json:"Organisation: Organisation ID"`
			}
			_ = json.Unmarshal(raw, &id)
			rec.OrganisationID = id.OrganisationID
		}
		it.Organizations = append(it.Organizations, rec)
	}
	return nil
}

// FlexString accepts JSON strings and numbers; the export mixes both for ids
// and postcodes.
type FlexString string

func (s *FlexString) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var v json.Number
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = FlexString(v.String())
	return nil
}

// MalformedItem builds the placeholder for an export row that could not be
// decoded at all.
func MalformedItem(data []byte, err error) RawItem {
	var id struct {
		ItemID FlexString `json:"Item ID"`
	}
	_ = json.Unmarshal(data, &id)
	return RawItem{ItemID: id.ItemID, Malformed: err.Error()}
}

func (s FlexString) String() string {
	return string(s)
}
