package sample

import (
	"math/rand"
	"sort"
	"time"

	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/mapper"
	"github.com/ITP-ICN-G05/ICN-Mobile-sub001/model"
)

// Sampler bounds a company list while keeping at least one company per
// observed state and per observed sector. It is not safe for concurrent use
// because it owns its random source.
type Sampler struct {
	rng *rand.Rand
}

// New returns a sampler drawing from rng. A nil rng is seeded from the clock.
func New(rng *rand.Rand) *Sampler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Sampler{rng: rng}
}

// NewSeeded returns a reproducible sampler; seed 0 means clock-seeded.
func NewSeeded(seed int64) *Sampler {
	if seed == 0 {
		return New(nil)
	}
	return New(rand.New(rand.NewSource(seed)))
}

// Sample returns companies unchanged when len(companies) <= size or size is
// not positive. Otherwise it runs three phases: one company per state, one
// per sector (stopping at size), then a random fill up to size. The state
// phase does not check size, so the result can exceed size when there are
// more states than budget.
func (s *Sampler) Sample(companies []model.Company, size int) []model.Company {
	if size <= 0 || len(companies) <= size {
		return companies
	}

	selected := make([]model.Company, 0, size)
	visited := make(map[string]struct{}, size)
	pick := func(indexes []int) {
		open := make([]int, 0, len(indexes))
		for _, i := range indexes {
			if _, ok := visited[companies[i].ID]; !ok {
				open = append(open, i)
			}
		}
		if len(open) == 0 {
			return
		}
		chosen := companies[open[s.rng.Intn(len(open))]]
		visited[chosen.ID] = struct{}{}
		selected = append(selected, chosen)
	}

	byState := map[string][]int{}
	bySector := map[string][]int{}
	for i, c := range companies {
		byState[c.BillingAddress.State] = append(byState[c.BillingAddress.State], i)
		for _, sector := range c.KeySectors {
			if sector == mapper.PlaceholderSector {
				continue
			}
			bySector[sector] = append(bySector[sector], i)
		}
	}

	for _, state := range groupOrder(byState, mapper.StateCodes) {
		pick(byState[state])
	}
	for _, sector := range groupOrder(bySector, nil) {
		if len(selected) >= size {
			break
		}
		pick(bySector[sector])
	}

	remaining := size - len(selected)
	if remaining <= 0 {
		return selected
	}
	rest := make([]model.Company, 0, len(companies)-len(selected))
	for _, c := range companies {
		if _, ok := visited[c.ID]; !ok {
			rest = append(rest, c)
		}
	}
	s.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
	if remaining > len(rest) {
		remaining = len(rest)
	}
	return append(selected, rest[:remaining]...)
}

// groupOrder lists group keys with the preferred keys first, then the rest
// sorted, so a seeded sampler is reproducible.
func groupOrder(groups map[string][]int, preferred []string) []string {
	out := make([]string, 0, len(groups))
	seen := make(map[string]struct{}, len(preferred))
	for _, key := range preferred {
		if _, ok := groups[key]; ok {
			out = append(out, key)
			seen[key] = struct{}{}
		}
	}
	rest := make([]string, 0, len(groups))
	for key := range groups {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
