package mapper

import (
	"sort"
	"strings"
	"unicode"

	"github.com/kljensen/snowball"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

type capabilityAlias struct {
	alias string
	kind  model.CapabilityType
}

var capabilityAliases = []capabilityAlias{
	{"supply", model.CapabilitySupplier},
	{"suppliers", model.CapabilitySupplier},
	{"supplier/distributor", model.CapabilitySupplier},
	{"item supply", model.CapabilityItemSupplier},
	{"product supplier", model.CapabilityItemSupplier},
	{"parts supply", model.CapabilityPartsSupplier},
	{"part supplier", model.CapabilityPartsSupplier},
	{"component supplier", model.CapabilityPartsSupplier},
	{"manufacture", model.CapabilityManufacturer},
	{"manufacturing", model.CapabilityManufacturer},
	{"fabricator", model.CapabilityManufacturer},
	{"fabrication", model.CapabilityManufacturer},
	{"producer", model.CapabilityManufacturer},
	{"parts manufacturer", model.CapabilityManufacturerParts},
	{"manufacturer parts", model.CapabilityManufacturerParts},
	{"component manufacturer", model.CapabilityManufacturerParts},
	{"service", model.CapabilityServiceProvider},
	{"services", model.CapabilityServiceProvider},
	{"service provider(s)", model.CapabilityServiceProvider},
	{"consultant", model.CapabilityServiceProvider},
	{"consulting", model.CapabilityServiceProvider},
	{"contractor", model.CapabilityServiceProvider},
	{"installer", model.CapabilityServiceProvider},
	{"maintenance", model.CapabilityServiceProvider},
	{"project manager", model.CapabilityProjectManagement},
	{"project management services", model.CapabilityProjectManagement},
	{"pm", model.CapabilityProjectManagement},
	{"design", model.CapabilityDesigner},
	{"design engineer", model.CapabilityDesigner},
	{"engineering design", model.CapabilityDesigner},
	{"assembly", model.CapabilityAssembler},
	{"assembler/integrator", model.CapabilityAssembler},
	{"integrator", model.CapabilityAssembler},
	{"retail", model.CapabilityRetailer},
	{"retail store", model.CapabilityRetailer},
	{"reseller", model.CapabilityRetailer},
	{"wholesale", model.CapabilityWholesaler},
	{"distributor", model.CapabilityWholesaler},
	{"distribution", model.CapabilityWholesaler},
}

var (
	capabilitySynonyms = map[string]model.CapabilityType{}
	capabilityStems    = map[string]model.CapabilityType{}
)

func init() {
	for _, kind := range model.CapabilityTypes {
		addStem(string(kind), kind)
	}
	for _, entry := range capabilityAliases {
		capabilitySynonyms[entry.alias] = entry.kind
		addStem(entry.alias, entry.kind)
	}
}

func addStem(value string, kind model.CapabilityType) {
	key := stemKey(value)
	if key == "" {
		return
	}
	if _, exists := capabilityStems[key]; exists {
		return
	}
	capabilityStems[key] = kind
}

// NormalizeCapabilityType maps free text onto the closed enumeration:
// exact match, then the synonym table (verbatim and stemmed), then
// Service Provider.
func NormalizeCapabilityType(value string) model.CapabilityType {
	cleaned := CleanText(value, "")
	if cleaned == "" {
		return model.CapabilityServiceProvider
	}
	for _, kind := range model.CapabilityTypes {
		if strings.EqualFold(cleaned, string(kind)) {
			return kind
		}
	}
	lower := strings.ToLower(cleaned)
	if kind, ok := capabilitySynonyms[lower]; ok {
		return kind
	}
	if kind, ok := capabilityStems[stemKey(lower)]; ok {
		return kind
	}
	return model.CapabilityServiceProvider
}

// stemKey reduces a phrase to its sorted English stems so that word order and
// inflection do not matter ("parts manufacturing" == "Manufacturer (Parts)").
func stemKey(value string) string {
	words := strings.FieldsFunc(strings.ToLower(value), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	if len(words) == 0 {
		return ""
	}
	stems := make([]string, 0, len(words))
	for _, word := range words {
		stem, err := snowball.Stem(word, "english", true)
		if err != nil || stem == "" {
			stem = word
		}
		stems = append(stems, stem)
	}
	sort.Strings(stems)
	return strings.Join(stems, " ")
}

// ClassOf groups a capability type into its semantic class.
func ClassOf(kind model.CapabilityType) model.CapabilityClass {
	switch kind {
	case model.CapabilitySupplier, model.CapabilityItemSupplier, model.CapabilityPartsSupplier:
		return model.ClassSupplier
	case model.CapabilityManufacturer, model.CapabilityManufacturerParts, model.CapabilityAssembler:
		return model.ClassManufacturer
	case model.CapabilityRetailer, model.CapabilityWholesaler:
		return model.ClassRetail
	default:
		return model.ClassService
	}
}

// CompanyTypeOf derives the company type from every capability type the
// company holds. Precedence: both > manufacturer > supplier > service > retail.
func CompanyTypeOf(kinds []model.CapabilityType) model.CompanyType {
	classes := map[model.CapabilityClass]bool{}
	for _, kind := range kinds {
		classes[ClassOf(kind)] = true
	}
	switch {
	case classes[model.ClassSupplier] && classes[model.ClassManufacturer]:
		return model.CompanyBoth
	case classes[model.ClassManufacturer]:
		return model.CompanyManufacturer
	case classes[model.ClassSupplier]:
		return model.CompanySupplier
	case classes[model.ClassService]:
		return model.CompanyService
	case classes[model.ClassRetail]:
		return model.CompanyRetail
	default:
		return model.CompanySupplier
	}
}
