package mart

import (
	"math"
	"sort"
)

// CategoryStats is one per-category summary row aggregated from the
// published profiles. Means are rounded to one decimal and computed over
// the rows where the nutrient is populated.
type CategoryStats struct {
	Category         string
	FoodCount        int
	AvgCalories      float64
	AvgProtein       float64
	AvgFat           float64
	AvgCarbs         float64
	AvgFiber         float64
	HighProteinCount int
	LowSodiumCount   int
}

// Aggregate groups the profiles by category and computes the summary rows,
// ordered by descending food count with category name breaking ties.
func Aggregate(profiles []Profile) []CategoryStats {
	type acc struct {
		count                                    int
		calSum, protSum, fatSum, carbSum, fibSum float64
		fatN, carbN, fibN                        int
		highProtein, lowSodium                   int
	}

	byCategory := make(map[string]*acc)
	for _, p := range profiles {
		if p.Category == "" {
			continue
		}
		a, ok := byCategory[p.Category]
		if !ok {
			a = &acc{}
			byCategory[p.Category] = a
		}
		a.count++
		a.calSum += *p.Calories
		a.protSum += *p.Protein
		if p.TotalFat != nil {
			a.fatSum += *p.TotalFat
			a.fatN++
		}
		if p.Carbohydrate != nil {
			a.carbSum += *p.Carbohydrate
			a.carbN++
		}
		if p.Fiber != nil {
			a.fibSum += *p.Fiber
			a.fibN++
		}
		if p.HighProtein {
			a.highProtein++
		}
		if p.LowSodium {
			a.lowSodium++
		}
	}

	out := make([]CategoryStats, 0, len(byCategory))
	for category, a := range byCategory {
		out = append(out, CategoryStats{
			Category:         category,
			FoodCount:        a.count,
			AvgCalories:      round1(a.calSum / float64(a.count)),
			AvgProtein:       round1(a.protSum / float64(a.count)),
			AvgFat:           round1(mean(a.fatSum, a.fatN)),
			AvgCarbs:         round1(mean(a.carbSum, a.carbN)),
			AvgFiber:         round1(mean(a.fibSum, a.fibN)),
			HighProteinCount: a.highProtein,
			LowSodiumCount:   a.lowSodium,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].FoodCount != out[j].FoodCount {
			return out[i].FoodCount > out[j].FoodCount
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
