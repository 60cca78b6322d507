package loader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"nutripipe/internal/config"
)

// RawFood is one row of the food source file. Nullable columns are pointers;
// validity is enforced downstream by the staging transformer, not here.
type RawFood struct {
	FDCID          *int64
	DataType       *string
	Description    *string
	FoodCategoryID *string
}

// RawNutrient is one row of the nutrient definition source file.
type RawNutrient struct {
	ID          *int64
	Name        *string
	UnitName    *string
	NutrientNbr *string
	Rank        *float64
}

// RawFoodCategory is one row of the food_category lookup file.
type RawFoodCategory struct {
	ID          *int64
	Code        *string
	Description *string
}

// RawMeasureUnit is one row of the measure_unit lookup file.
type RawMeasureUnit struct {
	ID   *int64
	Name *string
}

// RawFoodNutrient is one row of the food_nutrient fact file, one per
// (food, nutrient) measurement.
type RawFoodNutrient struct {
	ID                *int64
	FDCID             *int64
	NutrientID        *int64
	Amount            *float64
	DataPoints        *int64
	DerivationID      *int64
	Min               *float64
	Max               *float64
	Median            *float64
	Footnote          *string
	MinYearAcquired   *int64
	PercentDailyValue *float64
}

// RawFoodPortion is one row of the food_portion source file.
type RawFoodPortion struct {
	ID                 *int64
	FDCID              *int64
	SeqNum             *int64
	Amount             *float64
	MeasureUnitID      *int64
	PortionDescription *string
	Modifier           *string
	GramWeight         *float64
	DataPoints         *int64
	Footnote           *string
	MinYearAcquired    *int64
}

// LoadFoods reads the food source file.
func LoadFoods(ctx context.Context, path string, opt Options) ([]RawFood, Stats, error) {
	return loadEntity(ctx, path, FoodSchema, opt, func(v row) RawFood {
		return RawFood{
			FDCID:          intAt(v, 0),
			DataType:       textAt(v, 1),
			Description:    textAt(v, 2),
			FoodCategoryID: textAt(v, 3),
		}
	})
}

// LoadNutrients reads the nutrient definition source file.
func LoadNutrients(ctx context.Context, path string, opt Options) ([]RawNutrient, Stats, error) {
	return loadEntity(ctx, path, NutrientSchema, opt, func(v row) RawNutrient {
		return RawNutrient{
			ID:          intAt(v, 0),
			Name:        textAt(v, 1),
			UnitName:    textAt(v, 2),
			NutrientNbr: textAt(v, 3),
			Rank:        floatAt(v, 4),
		}
	})
}

// LoadFoodCategories reads the food_category lookup file.
func LoadFoodCategories(ctx context.Context, path string, opt Options) ([]RawFoodCategory, Stats, error) {
	return loadEntity(ctx, path, FoodCategorySchema, opt, func(v row) RawFoodCategory {
		return RawFoodCategory{
			ID:          intAt(v, 0),
			Code:        textAt(v, 1),
			Description: textAt(v, 2),
		}
	})
}

// LoadMeasureUnits reads the measure_unit lookup file.
func LoadMeasureUnits(ctx context.Context, path string, opt Options) ([]RawMeasureUnit, Stats, error) {
	return loadEntity(ctx, path, MeasureUnitSchema, opt, func(v row) RawMeasureUnit {
		return RawMeasureUnit{
			ID:   intAt(v, 0),
			Name: textAt(v, 1),
		}
	})
}

// LoadFoodNutrients reads the food_nutrient fact file.
func LoadFoodNutrients(ctx context.Context, path string, opt Options) ([]RawFoodNutrient, Stats, error) {
	return loadEntity(ctx, path, FoodNutrientSchema, opt, func(v row) RawFoodNutrient {
		return RawFoodNutrient{
			ID:                intAt(v, 0),
			FDCID:             intAt(v, 1),
			NutrientID:        intAt(v, 2),
			Amount:            floatAt(v, 3),
			DataPoints:        intAt(v, 4),
			DerivationID:      intAt(v, 5),
			Min:               floatAt(v, 6),
			Max:               floatAt(v, 7),
			Median:            floatAt(v, 8),
			Footnote:          textAt(v, 9),
			MinYearAcquired:   intAt(v, 10),
			PercentDailyValue: floatAt(v, 11),
		}
	})
}

// LoadFoodPortions reads the food_portion source file.
func LoadFoodPortions(ctx context.Context, path string, opt Options) ([]RawFoodPortion, Stats, error) {
	return loadEntity(ctx, path, FoodPortionSchema, opt, func(v row) RawFoodPortion {
		return RawFoodPortion{
			ID:                 intAt(v, 0),
			FDCID:              intAt(v, 1),
			SeqNum:             intAt(v, 2),
			Amount:             floatAt(v, 3),
			MeasureUnitID:      intAt(v, 4),
			PortionDescription: textAt(v, 5),
			Modifier:           textAt(v, 6),
			GramWeight:         floatAt(v, 7),
			DataPoints:         intAt(v, 8),
			Footnote:           textAt(v, 9),
			MinYearAcquired:    intAt(v, 10),
		}
	})
}

// RawTables holds the fully loaded raw entity tables for one run.
type RawTables struct {
	Foods          []RawFood
	Nutrients      []RawNutrient
	FoodCategories []RawFoodCategory
	MeasureUnits   []RawMeasureUnit
	FoodNutrients  []RawFoodNutrient
	FoodPortions   []RawFoodPortion

	// Stats per entity name.
	Stats map[string]Stats
}

// LoadAll loads the six entity files. Entity loads are independent and run
// concurrently; each stage transform downstream still sees complete tables.
func LoadAll(ctx context.Context, inputs config.InputsConfig, opt Options) (*RawTables, error) {
	tables := &RawTables{Stats: make(map[string]Stats, 6)}
	var (
		foodStats, nutrientStats, categoryStats Stats
		unitStats, factStats, portionStats      Stats
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		tables.Foods, foodStats, err = LoadFoods(gctx, inputs.Path(inputs.Food), opt)
		return err
	})
	g.Go(func() (err error) {
		tables.Nutrients, nutrientStats, err = LoadNutrients(gctx, inputs.Path(inputs.Nutrient), opt)
		return err
	})
	g.Go(func() (err error) {
		tables.FoodCategories, categoryStats, err = LoadFoodCategories(gctx, inputs.Path(inputs.FoodCategory), opt)
		return err
	})
	g.Go(func() (err error) {
		tables.MeasureUnits, unitStats, err = LoadMeasureUnits(gctx, inputs.Path(inputs.MeasureUnit), opt)
		return err
	})
	g.Go(func() (err error) {
		tables.FoodNutrients, factStats, err = LoadFoodNutrients(gctx, inputs.Path(inputs.FoodNutrient), opt)
		return err
	})
	g.Go(func() (err error) {
		tables.FoodPortions, portionStats, err = LoadFoodPortions(gctx, inputs.Path(inputs.FoodPortion), opt)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables.Stats[FoodSchema.Entity] = foodStats
	tables.Stats[NutrientSchema.Entity] = nutrientStats
	tables.Stats[FoodCategorySchema.Entity] = categoryStats
	tables.Stats[MeasureUnitSchema.Entity] = unitStats
	tables.Stats[FoodNutrientSchema.Entity] = factStats
	tables.Stats[FoodPortionSchema.Entity] = portionStats

	return tables, nil
}
