// Package facts derives the long-format nutrition fact from the staged
// tables and pivots it into one wide macronutrient row per food.
package facts

import (
	"sort"
	"strings"

	"nutripipe/internal/config"
	"nutripipe/internal/staging"
)

// NutritionFact is one long-format row: a single positive nutrient
// measurement for one food, with the nutrient definition resolved.
type NutritionFact struct {
	FDCID        int64
	FoodName     string
	Category     string
	DataType     string
	NutrientID   int64
	NutrientName string
	Unit         string
	Amount       float64
}

// BuildLong joins staged foods to their nutrient measurements and resolves
// each measurement's definition. Only facts with amount > 0 propagate:
// a null amount is unusable and an exact zero means "measured as none",
// which must not be conflated with "not measured" downstream. A food with
// no usable measurement contributes no rows.
func BuildLong(foods []staging.Food, nutrients []staging.Nutrient, measurements []staging.FoodNutrient) []NutritionFact {
	defs := make(map[int64]staging.Nutrient, len(nutrients))
	for _, n := range nutrients {
		defs[n.ID] = n
	}

	byFood := make(map[int64][]staging.FoodNutrient, len(foods))
	for _, m := range measurements {
		byFood[m.FDCID] = append(byFood[m.FDCID], m)
	}

	var out []NutritionFact
	for _, f := range foods {
		ms := byFood[f.FDCID]
		sort.Slice(ms, func(i, j int) bool { return ms[i].NutrientID < ms[j].NutrientID })
		for _, m := range ms {
			if m.Amount == nil || *m.Amount <= 0 {
				continue
			}
			fact := NutritionFact{
				FDCID:      f.FDCID,
				FoodName:   f.Description,
				Category:   f.Category,
				DataType:   f.DataType,
				NutrientID: m.NutrientID,
				Amount:     *m.Amount,
			}
			// Left join to the definition: a missing definition leaves
			// name and unit empty rather than dropping the measurement.
			if def, ok := defs[m.NutrientID]; ok {
				fact.NutrientName = def.Name
				fact.Unit = def.Unit
			}
			out = append(out, fact)
		}
	}
	return out
}

// MacroRow is the wide-format row for one food. A nil macronutrient means
// the source had no matching measurement; zero never stands in for unknown.
type MacroRow struct {
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
}

// Pivot collapses the long fact into one row per food. Nutrient names are
// matched by case-sensitive substring against the configured patterns so
// qualifier variants ("Energy (Atwater General Factors)") fold into one
// column. When several rows match the same column for one food the maximum
// amount wins; duplicates are typically method variants with partially
// populated amounts, and max avoids zero-biased averaging.
func Pivot(long []NutritionFact, patterns config.MacroPatterns) []MacroRow {
	rows := make(map[int64]*MacroRow)
	var order []int64

	for _, fact := range long {
		r, ok := rows[fact.FDCID]
		if !ok {
			r = &MacroRow{
				FDCID:    fact.FDCID,
				FoodName: fact.FoodName,
				Category: fact.Category,
				DataType: fact.DataType,
			}
			rows[fact.FDCID] = r
			order = append(order, fact.FDCID)
		}

		amount := fact.Amount
		switch {
		case strings.Contains(fact.NutrientName, patterns.Calories):
			r.Calories = maxOf(r.Calories, amount)
		case strings.Contains(fact.NutrientName, patterns.Protein):
			r.Protein = maxOf(r.Protein, amount)
		case strings.Contains(fact.NutrientName, patterns.TotalFat):
			r.TotalFat = maxOf(r.TotalFat, amount)
		case strings.Contains(fact.NutrientName, patterns.Carbohydrate):
			r.Carbohydrate = maxOf(r.Carbohydrate, amount)
		case strings.Contains(fact.NutrientName, patterns.Fiber):
			r.Fiber = maxOf(r.Fiber, amount)
		case strings.Contains(fact.NutrientName, patterns.Sodium):
			r.Sodium = maxOf(r.Sodium, amount)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	out := make([]MacroRow, 0, len(order))
	for _, id := range order {
		out = append(out, *rows[id])
	}
	return out
}

func maxOf(current *float64, amount float64) *float64 {
	if current == nil || amount > *current {
		return &amount
	}
	return current
}
