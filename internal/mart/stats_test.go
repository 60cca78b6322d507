package mart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	profiles := []Profile{
		{FoodName: "apples, raw", Category: "Fruits", Calories: f64(52), Protein: f64(0.3), Carbohydrate: f64(14), Fiber: f64(2.4), LowSodium: true},
		{FoodName: "bananas, raw", Category: "Fruits", Calories: f64(89), Protein: f64(1.1), Carbohydrate: f64(23), LowSodium: true},
		{FoodName: "cheddar cheese", Category: "Dairy", Calories: f64(403), Protein: f64(23), TotalFat: f64(33), HighProtein: true},
	}

	stats := Aggregate(profiles)
	require.Len(t, stats, 2)

	// Ordered by descending food count.
	fruits := stats[0]
	assert.Equal(t, "Fruits", fruits.Category)
	assert.Equal(t, 2, fruits.FoodCount)
	assert.Equal(t, 70.5, fruits.AvgCalories)
	assert.Equal(t, 0.7, fruits.AvgProtein)
	assert.Equal(t, 18.5, fruits.AvgCarbs)
	// Fiber mean is over the one populated row, not zero-padded.
	assert.Equal(t, 2.4, fruits.AvgFiber)
	assert.Equal(t, 2, fruits.LowSodiumCount)
	assert.Equal(t, 0, fruits.HighProteinCount)

	dairy := stats[1]
	assert.Equal(t, 1, dairy.FoodCount)
	assert.Equal(t, 403.0, dairy.AvgCalories)
	assert.Equal(t, 33.0, dairy.AvgFat)
	assert.Equal(t, 1, dairy.HighProteinCount)
}

func TestAggregate_TieBrokenByCategoryName(t *testing.T) {
	profiles := []Profile{
		{FoodName: "a", Category: "Spices", Calories: f64(1), Protein: f64(1)},
		{FoodName: "b", Category: "Beverages", Calories: f64(1), Protein: f64(1)},
	}

	stats := Aggregate(profiles)
	require.Len(t, stats, 2)
	assert.Equal(t, "Beverages", stats[0].Category)
	assert.Equal(t, "Spices", stats[1].Category)
}

func TestAggregate_Empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}

func TestAggregate_SkipsEmptyCategory(t *testing.T) {
	profiles := []Profile{
		{FoodName: "x", Category: "", Calories: f64(1), Protein: f64(1)},
	}
	assert.Empty(t, Aggregate(profiles))
}
