package staging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutripipe/internal/loader"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }
func str(v string) *string   { return &v }

var now = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

func TestFoods(t *testing.T) {
	categories := map[int64]string{9: "Fruits and Fruit Juices"}

	tests := []struct {
		name string
		raw  loader.RawFood
		want *Food
	}{
		{
			name: "valid food with resolved category",
			raw:  loader.RawFood{FDCID: i64(1), DataType: str("sr_legacy_food"), Description: str("  Apples, raw  "), FoodCategoryID: str("9")},
			want: &Food{FDCID: 1, DataType: "sr_legacy_food", Description: "apples, raw", Category: "Fruits and Fruit Juices", LoadedAt: now},
		},
		{
			name: "unknown numeric category code kept as text",
			raw:  loader.RawFood{FDCID: i64(2), Description: str("Mystery"), FoodCategoryID: str("1105")},
			want: &Food{FDCID: 2, Description: "mystery", Category: "1105", LoadedAt: now},
		},
		{
			name: "null description dropped",
			raw:  loader.RawFood{FDCID: i64(3), Description: nil},
		},
		{
			name: "blank description dropped",
			raw:  loader.RawFood{FDCID: i64(4), Description: str("   ")},
		},
		{
			name: "null id dropped",
			raw:  loader.RawFood{FDCID: nil, Description: str("Orphan")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Foods([]loader.RawFood{tt.raw}, categories, now)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			require.Len(t, got, 1)
			assert.Equal(t, *tt.want, got[0])
		})
	}
}

func TestNutrients(t *testing.T) {
	raw := []loader.RawNutrient{
		{ID: i64(1003), Name: str(" Protein "), UnitName: str("G"), NutrientNbr: str("203"), Rank: f64(600)},
		{ID: i64(1004), Name: nil},
		{ID: nil, Name: str("Orphan")},
	}

	got := Nutrients(raw, now)
	require.Len(t, got, 1)
	assert.Equal(t, "Protein", got[0].Name)
	assert.Equal(t, "G", got[0].Unit)
	assert.Equal(t, now, got[0].LoadedAt)
}

func TestFoodNutrients(t *testing.T) {
	raw := []loader.RawFoodNutrient{
		{FDCID: i64(1), NutrientID: i64(1003), Amount: f64(0.85)},
		{FDCID: i64(1), NutrientID: i64(1008), Amount: nil},     // null amount survives staging
		{FDCID: i64(1), NutrientID: i64(1079), Amount: f64(-1)}, // negative dropped, not clamped
		{FDCID: i64(1), NutrientID: i64(1093), Amount: f64(0)},  // zero passes staging
		{FDCID: nil, NutrientID: i64(1003), Amount: f64(1)},
		{FDCID: i64(2), NutrientID: nil, Amount: f64(1)},
	}

	got := FoodNutrients(raw, now)
	require.Len(t, got, 3)
	assert.Equal(t, 0.85, *got[0].Amount)
	assert.Nil(t, got[1].Amount)
	assert.Equal(t, 0.0, *got[2].Amount)
}

func TestFoodPortions(t *testing.T) {
	units := map[int64]string{1000: "cup"}
	raw := []loader.RawFoodPortion{
		{ID: i64(1), FDCID: i64(1), SeqNum: i64(1), Amount: f64(1), MeasureUnitID: i64(1000), Modifier: str(" sliced "), GramWeight: f64(109)},
		{ID: i64(2), FDCID: i64(1), GramWeight: f64(0)},
		{ID: i64(3), FDCID: i64(1), GramWeight: f64(-5)},
		{ID: i64(4), FDCID: i64(1), GramWeight: nil},
		{ID: i64(5), FDCID: nil, GramWeight: f64(10)},
	}

	got := FoodPortions(raw, units, now)
	require.Len(t, got, 1)
	assert.Equal(t, "cup", got[0].Unit)
	assert.Equal(t, "sliced", got[0].Modifier)
	assert.Equal(t, 109.0, got[0].GramWeight)

	// Invariant: every staged portion has a positive gram weight.
	for _, p := range got {
		assert.Greater(t, p.GramWeight, 0.0)
	}
}

func TestTransform(t *testing.T) {
	raw := &loader.RawTables{
		Foods:          []loader.RawFood{{FDCID: i64(1), Description: str("Apples, raw"), FoodCategoryID: str("9")}},
		Nutrients:      []loader.RawNutrient{{ID: i64(1003), Name: str("Protein")}},
		FoodCategories: []loader.RawFoodCategory{{ID: i64(9), Code: str("0900"), Description: str("Fruits and Fruit Juices")}},
		MeasureUnits:   []loader.RawMeasureUnit{{ID: i64(1000), Name: str("cup")}},
		FoodNutrients:  []loader.RawFoodNutrient{{FDCID: i64(1), NutrientID: i64(1003), Amount: f64(0.3)}},
		FoodPortions:   []loader.RawFoodPortion{{ID: i64(1), FDCID: i64(1), MeasureUnitID: i64(1000), GramWeight: f64(109)}},
	}

	got := Transform(raw, now)
	require.Len(t, got.Foods, 1)
	assert.Equal(t, "Fruits and Fruit Juices", got.Foods[0].Category)
	assert.Len(t, got.Nutrients, 1)
	assert.Len(t, got.FoodNutrients, 1)
	require.Len(t, got.FoodPortions, 1)
	assert.Equal(t, "cup", got.FoodPortions[0].Unit)
}
