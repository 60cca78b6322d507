// Package staging applies per-entity cleaning to the raw tables: text
// normalization, validity predicates, and lookup resolution. Rows failing
// their predicate are silently excluded; this is a data-quality filter, not
// an error path. Every staged row records the load timestamp for lineage.
package staging

import (
	"strconv"
	"strings"
	"time"

	"nutripipe/internal/loader"
)

// Food is a validity-filtered food row. Description is trimmed and
// lowercased, which makes it the canonical food name used as the mart
// dedup key. Category carries the resolved category description when the
// lookup knows the code, otherwise the raw code text.
type Food struct {
	FDCID       int64
	DataType    string
	Description string
	Category    string
	LoadedAt    time.Time
}

// Nutrient is a validity-filtered nutrient definition.
type Nutrient struct {
	ID          int64
	Name        string
	Unit        string
	NutrientNbr string
	Rank        float64
	LoadedAt    time.Time
}

// FoodNutrient is a validity-filtered nutrient measurement. Amount stays
// nullable: a null amount passes staging and is excluded later by the fact
// joiner, while a negative amount is dropped here as a derivation artifact.
type FoodNutrient struct {
	FDCID      int64
	NutrientID int64
	Amount     *float64
	LoadedAt   time.Time
}

// FoodPortion is a validity-filtered portion row with its measure unit
// resolved through the measure_unit lookup.
type FoodPortion struct {
	FDCID       int64
	SeqNum      int64
	Amount      float64
	Unit        string
	Description string
	Modifier    string
	GramWeight  float64
	LoadedAt    time.Time
}

// Tables holds the staged entity tables for one run.
type Tables struct {
	Foods         []Food
	Nutrients     []Nutrient
	FoodNutrients []FoodNutrient
	FoodPortions  []FoodPortion
}

// Transform stages all raw tables at once. now becomes the lineage
// timestamp on every staged row.
func Transform(raw *loader.RawTables, now time.Time) *Tables {
	categories := categoryLookup(raw.FoodCategories)
	units := unitLookup(raw.MeasureUnits)
	return &Tables{
		Foods:         Foods(raw.Foods, categories, now),
		Nutrients:     Nutrients(raw.Nutrients, now),
		FoodNutrients: FoodNutrients(raw.FoodNutrients, now),
		FoodPortions:  FoodPortions(raw.FoodPortions, units, now),
	}
}

// categoryLookup indexes category descriptions by their numeric id.
func categoryLookup(raw []loader.RawFoodCategory) map[int64]string {
	m := make(map[int64]string, len(raw))
	for _, c := range raw {
		if c.ID == nil || c.Description == nil {
			continue
		}
		desc := strings.TrimSpace(*c.Description)
		if desc == "" {
			continue
		}
		m[*c.ID] = desc
	}
	return m
}

// unitLookup indexes measure unit names by their numeric id.
func unitLookup(raw []loader.RawMeasureUnit) map[int64]string {
	m := make(map[int64]string, len(raw))
	for _, u := range raw {
		if u.ID == nil || u.Name == nil {
			continue
		}
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			continue
		}
		m[*u.ID] = name
	}
	return m
}

// Foods stages the raw food table. A food survives when its id is non-null
// and its description is non-empty after trimming.
func Foods(raw []loader.RawFood, categories map[int64]string, now time.Time) []Food {
	out := make([]Food, 0, len(raw))
	for _, f := range raw {
		if f.FDCID == nil || f.Description == nil {
			continue
		}
		desc := strings.ToLower(strings.TrimSpace(*f.Description))
		if desc == "" {
			continue
		}
		out = append(out, Food{
			FDCID:       *f.FDCID,
			DataType:    deref(f.DataType),
			Description: desc,
			Category:    resolveCategory(f.FoodCategoryID, categories),
			LoadedAt:    now,
		})
	}
	return out
}

// resolveCategory maps a raw category code to the category description when
// the code is a known numeric lookup id. Unknown codes keep their trimmed
// text; the mart resolver normalizes leftovers.
func resolveCategory(code *string, categories map[int64]string) string {
	if code == nil {
		return ""
	}
	raw := strings.TrimSpace(*code)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if desc, ok := categories[id]; ok {
			return desc
		}
	}
	return raw
}

// Nutrients stages the nutrient definition table; the name must be non-empty.
func Nutrients(raw []loader.RawNutrient, now time.Time) []Nutrient {
	out := make([]Nutrient, 0, len(raw))
	for _, n := range raw {
		if n.ID == nil || n.Name == nil {
			continue
		}
		name := strings.TrimSpace(*n.Name)
		if name == "" {
			continue
		}
		out = append(out, Nutrient{
			ID:          *n.ID,
			Name:        name,
			Unit:        deref(n.UnitName),
			NutrientNbr: deref(n.NutrientNbr),
			Rank:        derefFloat(n.Rank),
			LoadedAt:    now,
		})
	}
	return out
}

// FoodNutrients stages the measurement table. Both foreign keys must be
// non-null; negative amounts are dropped, not clamped.
func FoodNutrients(raw []loader.RawFoodNutrient, now time.Time) []FoodNutrient {
	out := make([]FoodNutrient, 0, len(raw))
	for _, fn := range raw {
		if fn.FDCID == nil || fn.NutrientID == nil {
			continue
		}
		if fn.Amount != nil && *fn.Amount < 0 {
			continue
		}
		out = append(out, FoodNutrient{
			FDCID:      *fn.FDCID,
			NutrientID: *fn.NutrientID,
			Amount:     fn.Amount,
			LoadedAt:   now,
		})
	}
	return out
}

// FoodPortions stages the portion table; gram weight must be positive.
func FoodPortions(raw []loader.RawFoodPortion, units map[int64]string, now time.Time) []FoodPortion {
	out := make([]FoodPortion, 0, len(raw))
	for _, p := range raw {
		if p.FDCID == nil || p.GramWeight == nil || *p.GramWeight <= 0 {
			continue
		}
		unit := ""
		if p.MeasureUnitID != nil {
			unit = units[*p.MeasureUnitID]
		}
		out = append(out, FoodPortion{
			FDCID:       *p.FDCID,
			SeqNum:      derefInt(p.SeqNum),
			Amount:      derefFloat(p.Amount),
			Unit:        unit,
			Description: strings.TrimSpace(deref(p.PortionDescription)),
			Modifier:    strings.TrimSpace(deref(p.Modifier)),
			GramWeight:  *p.GramWeight,
			LoadedAt:    now,
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefInt(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}
