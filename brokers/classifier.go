// Package brokers maps IDX broker codes to classification categories used
// by the order-flow analyzers. The reference table is process-wide,
// read-mostly state: it is loaded once into an immutable snapshot and any
// reload publishes a brand-new snapshot atomically, so concurrent readers
// never observe a half-updated table.
package brokers

import (
	"sort"
	"strings"
	"sync/atomic"
)

// Category is a broker classification bucket.
type Category string

const (
	CategoryRetail        Category = "retail"
	CategoryInstitutional Category = "institutional"
	CategoryForeign       Category = "foreign"
	CategoryMixed         Category = "mixed"
	CategoryUnknown       Category = "unknown"
)

// Profile is one broker's static classification record.
type Profile struct {
	Code       string
	Name       string
	Categories []Category // non-empty subset of {retail, institutional, foreign}
}

// PrimaryCategory derives the single classification bucket for a profile.
// The guards form an ordered chain, first match wins:
//
//  1. retail together with foreign or institutional -> mixed
//  2. foreign present                               -> foreign
//  3. institutional present                         -> institutional
//  4. retail present                                -> retail
//  5. empty set                                     -> unknown
func (p Profile) PrimaryCategory() Category {
	has := make(map[Category]bool, len(p.Categories))
	for _, c := range p.Categories {
		has[c] = true
	}
	switch {
	case has[CategoryRetail] && (has[CategoryForeign] || has[CategoryInstitutional]):
		return CategoryMixed
	case has[CategoryForeign]:
		return CategoryForeign
	case has[CategoryInstitutional]:
		return CategoryInstitutional
	case has[CategoryRetail]:
		return CategoryRetail
	default:
		return CategoryUnknown
	}
}

// Overrides are caller-supplied per-analysis classification overrides.
// They replace static table membership for the codes they list. A code
// present in both sets classifies as smart money: the manual smart-money
// list is the higher-confidence signal and wins the tie.
type Overrides struct {
	SmartMoney []string
	Retail     []string
}

// Classifier resolves broker codes against an atomically published snapshot
// of the reference table.
type Classifier struct {
	snapshot atomic.Pointer[map[string]Profile]
}

// NewClassifier builds a classifier seeded with the given profiles.
func NewClassifier(profiles []Profile) *Classifier {
	c := &Classifier{}
	c.Reload(profiles)
	return c
}

// Reload publishes a fresh immutable snapshot built from profiles.
// In-flight Classify calls keep reading the snapshot they started with.
func (c *Classifier) Reload(profiles []Profile) {
	table := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		table[strings.ToUpper(p.Code)] = p
	}
	c.snapshot.Store(&table)
}

// Classify maps a broker code to its category. It is a pure function of
// (code, overrides, snapshot): no shared state is mutated per call.
// Unknown codes classify as CategoryUnknown, a valid non-error outcome that
// excludes the broker from either aggregate downstream.
func (c *Classifier) Classify(code string, overrides *Overrides) Category {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return CategoryUnknown
	}

	if overrides != nil {
		// Smart-money override checked first so it wins a double listing.
		if containsCode(overrides.SmartMoney, code) {
			return CategoryInstitutional
		}
		if containsCode(overrides.Retail, code) {
			return CategoryRetail
		}
	}

	table := c.snapshot.Load()
	if table == nil {
		return CategoryUnknown
	}
	profile, ok := (*table)[code]
	if !ok {
		return CategoryUnknown
	}
	return profile.PrimaryCategory()
}

// RetailSet returns the set of known codes classifying retail or mixed
// under the given overrides. This is the counterparty set the imposter
// detector checks trades against.
func (c *Classifier) RetailSet(overrides *Overrides) map[string]bool {
	set := make(map[string]bool)

	table := c.snapshot.Load()
	if table != nil {
		for code := range *table {
			switch c.Classify(code, overrides) {
			case CategoryRetail, CategoryMixed:
				set[code] = true
			}
		}
	}
	if overrides != nil {
		for _, code := range overrides.Retail {
			code = strings.ToUpper(strings.TrimSpace(code))
			if code != "" && c.Classify(code, overrides) == CategoryRetail {
				set[code] = true
			}
		}
	}
	return set
}

// Codes lists the snapshot's broker codes in sorted order.
func (c *Classifier) Codes() []string {
	table := c.snapshot.Load()
	if table == nil {
		return nil
	}
	codes := make([]string, 0, len(*table))
	for code := range *table {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup returns the profile for a code when the snapshot knows it.
func (c *Classifier) Lookup(code string) (Profile, bool) {
	table := c.snapshot.Load()
	if table == nil {
		return Profile{}, false
	}
	p, ok := (*table)[strings.ToUpper(code)]
	return p, ok
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if strings.EqualFold(strings.TrimSpace(c), code) {
			return true
		}
	}
	return false
}
