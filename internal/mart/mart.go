// Package mart publishes the final food nutrition dataset: category
// normalization, canonical-name deduplication with a deterministic
// tie-break, derived classification attributes, and per-category summary
// statistics.
package mart

import (
	"sort"
	"strings"

	"nutripipe/internal/config"
	"nutripipe/internal/facts"
)

// UncategorizedLabel replaces categories that carry no semantic meaning.
const UncategorizedLabel = "Uncategorized"

// Density buckets a food's caloric concentration per 100g.
type Density string

const (
	DensityVeryLow  Density = "Very Low"
	DensityLow      Density = "Low"
	DensityModerate Density = "Moderate"
	DensityHigh     Density = "High"
)

// Profile is one published mart row. The canonical food name (lowercased,
// trimmed description) is unique across the table.
type Profile struct {
	FDCID        int64
	FoodName     string
	Category     string
	DataType     string
	Calories     *float64
	Protein      *float64
	TotalFat     *float64
	Carbohydrate *float64
	Fiber        *float64
	Sodium       *float64

	VegetarianFriendly bool
	LowSodium          bool
	HighProtein        bool
	LowCarb            bool
	LowFat             bool
	CalorieDensity     Density
}

// Resolve produces the published profile table from the wide macronutrient
// rows. Rules are passed by value; nothing here keeps mutable shared state.
func Resolve(rows []facts.MacroRow, rules config.RulesConfig) []Profile {
	groups := make(map[string]facts.MacroRow)
	for _, r := range rows {
		// Hard prerequisite for publication: name, calories and protein.
		if r.FoodName == "" || r.Calories == nil || r.Protein == nil {
			continue
		}
		best, ok := groups[r.FoodName]
		if !ok || outranks(r, best) {
			groups[r.FoodName] = r
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Profile, 0, len(names))
	for _, name := range names {
		out = append(out, classify(groups[name], rules))
	}
	return out
}

// outranks reports whether candidate wins over incumbent within one
// canonical-name group. Completeness (fiber and sodium both populated beats
// one, beats neither) decides first; among equally complete rows the
// numerically highest food id, the most recently assigned identifier, wins.
// This is a total order, so exactly one row survives per group.
func outranks(candidate, incumbent facts.MacroRow) bool {
	cr, ir := completeness(candidate), completeness(incumbent)
	if cr != ir {
		return cr > ir
	}
	return candidate.FDCID > incumbent.FDCID
}

func completeness(r facts.MacroRow) int {
	rank := 0
	if r.Fiber != nil {
		rank++
	}
	if r.Sodium != nil {
		rank++
	}
	return rank
}

// NormalizeCategory replaces a category that is empty or entirely digits
// with the Uncategorized label; a bare numeric code carries no semantic
// meaning and must not be displayed as a category.
func NormalizeCategory(category string) string {
	c := strings.TrimSpace(category)
	if c == "" || allDigits(c) {
		return UncategorizedLabel
	}
	return c
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// classify derives the boolean and enum classification attributes for one
// surviving row.
func classify(r facts.MacroRow, rules config.RulesConfig) Profile {
	category := NormalizeCategory(r.Category)
	t := rules.Thresholds

	p := Profile{
		FDCID:        r.FDCID,
		FoodName:     r.FoodName,
		Category:     category,
		DataType:     r.DataType,
		Calories:     r.Calories,
		Protein:      r.Protein,
		TotalFat:     r.TotalFat,
		Carbohydrate: r.Carbohydrate,
		Fiber:        r.Fiber,
		Sodium:       r.Sodium,

		VegetarianFriendly: vegetarianFriendly(category, rules),
		LowSodium:          r.Sodium != nil && *r.Sodium < t.SodiumMax,
		HighProtein:        *r.Protein >= t.ProteinMin,
		LowCarb:            r.Carbohydrate != nil && *r.Carbohydrate <= t.CarbMax,
		LowFat:             r.TotalFat != nil && *r.TotalFat < t.FatMax,
		CalorieDensity:     calorieDensity(*r.Calories, t),
	}
	return p
}

// vegetarianFriendly is true only when the category is neither on the
// exclusion list nor contains any exclusion keyword (case-insensitive).
func vegetarianFriendly(category string, rules config.RulesConfig) bool {
	for _, excluded := range rules.ExclusionCategories {
		if category == excluded {
			return false
		}
	}
	lower := strings.ToLower(category)
	for _, kw := range rules.ExclusionKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return false
		}
	}
	return true
}

// calorieDensity buckets calories with lower-bound-inclusive boundaries,
// matching SQL BETWEEN semantics: 100 and 200 are Low, 400 is Moderate.
func calorieDensity(calories float64, t config.Thresholds) Density {
	switch {
	case calories < t.CalorieVeryLowMax:
		return DensityVeryLow
	case calories <= t.CalorieLowMax:
		return DensityLow
	case calories <= t.CalorieModerateMax:
		return DensityModerate
	default:
		return DensityHigh
	}
}
