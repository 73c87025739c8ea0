package mapper

import (
	"strings"
	"unicode"
)

const (
	StateNSW = "NSW"
	StateVIC = "VIC"
	StateQLD = "QLD"
	StateWA  = "WA"
	StateSA  = "SA"
	StateTAS = "TAS"
	StateACT = "ACT"
	StateNT  = "NT"
	StateNI  = "NI"
	StateSI  = "SI"
)

// StateCodes is the fixed iteration order: Australian states and territories
// first, then the two New Zealand islands.
var StateCodes = []string{
	StateNSW, StateVIC, StateQLD, StateWA, StateSA,
	StateTAS, StateACT, StateNT, StateNI, StateSI,
}

// DefaultMaxStateDistance is the largest edit distance accepted by the fuzzy
// stage.
const DefaultMaxStateDistance = 3

func IsStateCode(value string) bool {
	for _, code := range StateCodes {
		if value == code {
			return true
		}
	}
	return false
}

// IsNewZealandState reports whether code is one of the NZ island codes.
func IsNewZealandState(code string) bool {
	return code == StateNI || code == StateSI
}

// StateNormalizer resolves free-text region strings to one of the ten codes.
type StateNormalizer struct {
	maxDistance int
}

func NewStateNormalizer(maxDistance int) *StateNormalizer {
	if maxDistance < 0 {
		maxDistance = 0
	}
	return &StateNormalizer{maxDistance: maxDistance}
}

var defaultStateNormalizer = NewStateNormalizer(DefaultMaxStateDistance)

// NormalizeState is total: every input maps to one of StateCodes.
func NormalizeState(value string) string {
	return defaultStateNormalizer.Normalize(value)
}

func (n *StateNormalizer) Normalize(value string) string {
	if IsInvalid(value) {
		return StateNSW
	}
	if code, ok := lookupStateAlias(value); ok {
		return code
	}
	if code, ok := matchStateCode(value); ok {
		return code
	}
	if code, ok := n.fuzzyState(value); ok {
		return code
	}
	return guessState(value)
}

func lookupStateAlias(value string) (string, bool) {
	key := aliasKey(value)
	if key == "" {
		return "", false
	}
	code, ok := stateAliases[key]
	return code, ok
}

func matchStateCode(value string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(value))
	if IsStateCode(upper) {
		return upper, true
	}
	code, ok := stateCodeTypos[upper]
	return code, ok
}

func (n *StateNormalizer) fuzzyState(value string) (string, bool) {
	stripped := lettersOnly(strings.ToUpper(value))
	if stripped == "" {
		return "", false
	}
	best := ""
	bestDistance := -1
	for _, code := range StateCodes {
		distance := levenshtein(stripped, code)
		if bestDistance < 0 || distance < bestDistance {
			best = code
			bestDistance = distance
		}
	}
	if bestDistance <= n.maxDistance {
		return best, true
	}
	if len(stripped) == 2 {
		switch stripped[0] {
		case 'N':
			return StateNSW, true
		case 'V':
			return StateVIC, true
		case 'Q':
			return StateQLD, true
		case 'W':
			return StateWA, true
		case 'T':
			return StateTAS, true
		case 'A':
			return StateACT, true
		case 'S':
			if stripped[1] == 'I' {
				return StateSI, true
			}
			return StateSA, true
		}
	}
	return "", false
}

func guessState(value string) string {
	lower := strings.ToLower(value)
	for _, hint := range stateKeywordHints {
		if strings.Contains(lower, hint.keyword) {
			return hint.code
		}
	}
	stripped := lettersOnly(strings.ToUpper(value))
	if stripped == "" {
		return StateNSW
	}
	if code, ok := stateFirstLetters[stripped[0]]; ok {
		return code
	}
	return StateNSW
}

// aliasKey lower-cases value, turns punctuation into spaces and collapses runs.
func aliasKey(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	prevSpace := true
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

func lettersOnly(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// levenshtein computes the edit distance between two ASCII strings with a
// two-row table.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

var stateAliases = map[string]string{
	// codes
	"nsw": StateNSW, "vic": StateVIC, "qld": StateQLD, "wa": StateWA, "sa": StateSA,
	"tas": StateTAS, "act": StateACT, "nt": StateNT, "ni": StateNI, "si": StateSI,

	// full names and common abbreviations
	"new south wales":              StateNSW,
	"n s w":                        StateNSW,
	"victoria":                     StateVIC,
	"vict":                         StateVIC,
	"queensland":                   StateQLD,
	"qland":                        StateQLD,
	"queens land":                  StateQLD,
	"western australia":            StateWA,
	"west australia":               StateWA,
	"w a":                          StateWA,
	"south australia":              StateSA,
	"s a":                          StateSA,
	"tasmania":                     StateTAS,
	"tassie":                       StateTAS,
	"australian capital territory": StateACT,
	"capital territory":            StateACT,
	"northern territory":           StateNT,
	"north territory":              StateNT,
	"n t":                          StateNT,
	"north island":                 StateNI,
	"south island":                 StateSI,
	"new zealand":                  StateNI,
	"nz":                           StateNI,

	// major cities
	"sydney":         StateNSW,
	"newcastle":      StateNSW,
	"wollongong":     StateNSW,
	"parramatta":     StateNSW,
	"central coast":  StateNSW,
	"albury":         StateNSW,
	"melbourne":      StateVIC,
	"geelong":        StateVIC,
	"ballarat":       StateVIC,
	"bendigo":        StateVIC,
	"dandenong":      StateVIC,
	"brisbane":       StateQLD,
	"gold coast":     StateQLD,
	"sunshine coast": StateQLD,
	"cairns":         StateQLD,
	"townsville":     StateQLD,
	"toowoomba":      StateQLD,
	"perth":          StateWA,
	"fremantle":      StateWA,
	"bunbury":        StateWA,
	"kalgoorlie":     StateWA,
	"adelaide":       StateSA,
	"mount gambier":  StateSA,
	"whyalla":        StateSA,
	"hobart":         StateTAS,
	"launceston":     StateTAS,
	"devonport":      StateTAS,
	"canberra":       StateACT,
	"darwin":         StateNT,
	"alice springs":  StateNT,
	"auckland":       StateNI,
	"wellington":     StateNI,
	"hamilton":       StateNI,
	"tauranga":       StateNI,
	"christchurch":   StateSI,
	"dunedin":        StateSI,
	"queenstown":     StateSI,
	"nelson":         StateSI,

	// known typos
	"victora":          StateVIC,
	"vicotria":         StateVIC,
	"victroia":         StateVIC,
	"queensand":        StateQLD,
	"queenland":        StateQLD,
	"qeensland":        StateQLD,
	"new south wale":   StateNSW,
	"new south whales": StateNSW,
	"tasmaina":         StateTAS,
	"sydeny":           StateNSW,
	"melbourn":         StateVIC,
	"melboure":         StateVIC,
	"brisban":          StateQLD,
	"adelade":          StateSA,
}

var stateCodeTypos = map[string]string{
	"NWS": StateNSW,
	"NSE": StateNSW,
	"VIV": StateVIC,
	"VCI": StateVIC,
	"QKD": StateQLD,
	"QDL": StateQLD,
	"QL":  StateQLD,
	"TSA": StateTAS,
	"TA":  StateTAS,
	"ATC": StateACT,
	"AC":  StateACT,
	"WS":  StateWA,
}

type stateHint struct {
	keyword string
	code    string
}

var stateKeywordHints = []stateHint{
	{"mining", StateWA},
	{"resources", StateWA},
	{"tech", StateVIC},
	{"finance", StateNSW},
	{"financial", StateNSW},
	{"tourism", StateQLD},
	{"reef", StateQLD},
	{"wine", StateSA},
	{"vineyard", StateSA},
	{"forest", StateTAS},
	{"timber", StateTAS},
	{"government", StateACT},
	{"federal", StateACT},
	{"indigenous", StateNT},
	{"outback", StateNT},
}

var stateFirstLetters = map[byte]string{
	'N': StateNSW,
	'V': StateVIC,
	'Q': StateQLD,
	'W': StateWA,
	'S': StateSA,
	'T': StateTAS,
	'A': StateACT,
}
