package pipeline

import (
	"context"
	"fmt"
	"time"

	"nutripipe/internal/config"
	"nutripipe/internal/facts"
	"nutripipe/internal/loader"
	"nutripipe/internal/mart"
	"nutripipe/internal/staging"
)

// Stage identifiers.
const (
	StageIDLoad    = "load"
	StageIDStaging = "staging"
	StageIDJoin    = "join"
	StageIDPivot   = "pivot"
	StageIDMart    = "mart"
	StageIDStats   = "stats"
)

// publish installs rows and records the published row count.
func publish[T any](store *SnapshotStore, metrics *Metrics, table string, rows []T) {
	store.Publish(table, rows, len(rows))
	if metrics != nil {
		metrics.RowsPublished.WithLabelValues(table).Add(float64(len(rows)))
	}
}

// LoadStage ingests the six raw entity files. Entity loads run concurrently;
// all six tables publish together only after every load succeeded, so a
// missing file leaves all previously published raw tables untouched.
type LoadStage struct {
	Inputs  config.InputsConfig
	Options loader.Options
	Metrics *Metrics
}

func (s *LoadStage) ID() string   { return StageIDLoad }
func (s *LoadStage) Name() string { return "Raw Ingestion" }

func (s *LoadStage) Run(ctx context.Context, store *SnapshotStore) error {
	tables, err := loader.LoadAll(ctx, s.Inputs, s.Options)
	if err != nil {
		return err
	}

	if s.Metrics != nil {
		for entity, st := range tables.Stats {
			s.Metrics.RowsLoaded.WithLabelValues(entity).Add(float64(st.Loaded))
			s.Metrics.RowsRejected.WithLabelValues(entity).Add(float64(st.Rejected))
		}
	}

	publish(store, s.Metrics, TableRawFoods, tables.Foods)
	publish(store, s.Metrics, TableRawNutrients, tables.Nutrients)
	publish(store, s.Metrics, TableRawFoodCategories, tables.FoodCategories)
	publish(store, s.Metrics, TableRawMeasureUnits, tables.MeasureUnits)
	publish(store, s.Metrics, TableRawFoodNutrients, tables.FoodNutrients)
	publish(store, s.Metrics, TableRawFoodPortions, tables.FoodPortions)
	return nil
}

// StagingStage applies the per-entity validity filters and text
// normalization. Now is overridable so tests control the lineage timestamp.
type StagingStage struct {
	Metrics *Metrics
	Now     func() time.Time
}

func (s *StagingStage) ID() string   { return StageIDStaging }
func (s *StagingStage) Name() string { return "Staging Cleanup" }

func (s *StagingStage) Run(ctx context.Context, store *SnapshotStore) error {
	raw := &loader.RawTables{}
	var err error
	if raw.Foods, err = Rows[[]loader.RawFood](store, TableRawFoods); err != nil {
		return err
	}
	if raw.Nutrients, err = Rows[[]loader.RawNutrient](store, TableRawNutrients); err != nil {
		return err
	}
	if raw.FoodCategories, err = Rows[[]loader.RawFoodCategory](store, TableRawFoodCategories); err != nil {
		return err
	}
	if raw.MeasureUnits, err = Rows[[]loader.RawMeasureUnit](store, TableRawMeasureUnits); err != nil {
		return err
	}
	if raw.FoodNutrients, err = Rows[[]loader.RawFoodNutrient](store, TableRawFoodNutrients); err != nil {
		return err
	}
	if raw.FoodPortions, err = Rows[[]loader.RawFoodPortion](store, TableRawFoodPortions); err != nil {
		return err
	}

	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}
	staged := staging.Transform(raw, now)

	publish(store, s.Metrics, TableStagedFoods, staged.Foods)
	publish(store, s.Metrics, TableStagedNutrients, staged.Nutrients)
	publish(store, s.Metrics, TableStagedFoodNutrients, staged.FoodNutrients)
	publish(store, s.Metrics, TableStagedFoodPortions, staged.FoodPortions)
	return nil
}

// JoinStage builds the long-format nutrition fact.
type JoinStage struct {
	Metrics *Metrics
}

func (s *JoinStage) ID() string   { return StageIDJoin }
func (s *JoinStage) Name() string { return "Fact Join" }

func (s *JoinStage) Run(ctx context.Context, store *SnapshotStore) error {
	foods, err := Rows[[]staging.Food](store, TableStagedFoods)
	if err != nil {
		return err
	}
	nutrients, err := Rows[[]staging.Nutrient](store, TableStagedNutrients)
	if err != nil {
		return err
	}
	measurements, err := Rows[[]staging.FoodNutrient](store, TableStagedFoodNutrients)
	if err != nil {
		return err
	}

	long := facts.BuildLong(foods, nutrients, measurements)
	publish(store, s.Metrics, TableNutritionFactLong, long)
	return nil
}

// PivotStage collapses the long fact into one wide row per food.
type PivotStage struct {
	Patterns config.MacroPatterns
	Metrics  *Metrics
}

func (s *PivotStage) ID() string   { return StageIDPivot }
func (s *PivotStage) Name() string { return "Macronutrient Pivot" }

func (s *PivotStage) Run(ctx context.Context, store *SnapshotStore) error {
	long, err := Rows[[]facts.NutritionFact](store, TableNutritionFactLong)
	if err != nil {
		return err
	}

	wide := facts.Pivot(long, s.Patterns)
	publish(store, s.Metrics, TableMacronutrientWide, wide)
	return nil
}

// MartStage resolves the published nutrition profiles.
type MartStage struct {
	Rules   config.RulesConfig
	Metrics *Metrics
}

func (s *MartStage) ID() string   { return StageIDMart }
func (s *MartStage) Name() string { return "Mart Resolution" }

func (s *MartStage) Run(ctx context.Context, store *SnapshotStore) error {
	wide, err := Rows[[]facts.MacroRow](store, TableMacronutrientWide)
	if err != nil {
		return err
	}

	profiles := mart.Resolve(wide, s.Rules)
	publish(store, s.Metrics, TableNutritionProfiles, profiles)
	return nil
}

// StatsStage aggregates per-category summary statistics from the mart.
type StatsStage struct {
	Metrics *Metrics
}

func (s *StatsStage) ID() string   { return StageIDStats }
func (s *StatsStage) Name() string { return "Category Aggregation" }

func (s *StatsStage) Run(ctx context.Context, store *SnapshotStore) error {
	profiles, err := Rows[[]mart.Profile](store, TableNutritionProfiles)
	if err != nil {
		return err
	}

	stats := mart.Aggregate(profiles)
	publish(store, s.Metrics, TableCategoryStats, stats)
	return nil
}

// DefaultStages wires the full stage chain for one configuration.
func DefaultStages(cfg *config.Config, metrics *Metrics) []Stage {
	return []Stage{
		&LoadStage{Inputs: cfg.Inputs, Options: loader.NewOptions(cfg.CSV), Metrics: metrics},
		&StagingStage{Metrics: metrics},
		&JoinStage{Metrics: metrics},
		&PivotStage{Patterns: cfg.Rules.MacroPatterns, Metrics: metrics},
		&MartStage{Rules: cfg.Rules, Metrics: metrics},
		&StatsStage{Metrics: metrics},
	}
}

// Profiles returns the currently published mart table.
func Profiles(store *SnapshotStore) ([]mart.Profile, error) {
	profiles, err := Rows[[]mart.Profile](store, TableNutritionProfiles)
	if err != nil {
		return nil, fmt.Errorf("mart not available: %w", err)
	}
	return profiles, nil
}

// CategoryStats returns the currently published category summary table.
func CategoryStats(store *SnapshotStore) ([]mart.CategoryStats, error) {
	stats, err := Rows[[]mart.CategoryStats](store, TableCategoryStats)
	if err != nil {
		return nil, fmt.Errorf("category stats not available: %w", err)
	}
	return stats, nil
}
