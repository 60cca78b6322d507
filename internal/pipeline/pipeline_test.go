package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nutripipe/internal/config"
	"nutripipe/internal/facts"
	"nutripipe/internal/mart"
	"nutripipe/internal/staging"
)

// fixtureConfig writes a small but complete USDA-shaped dataset and returns
// a configuration pointing at it.
func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"food.csv": `fdc_id,data_type,description,food_category_id,publication_date
100,sr_legacy_food,"Cheddar cheese",1,2019-04-01
500,sr_legacy_food,"cheddar cheese  ",1,2019-04-01
200,sr_legacy_food,"Carrots, raw",11,2019-04-01
300,sr_legacy_food,"Beef, ground",13,2019-04-01
400,sr_legacy_food,,1,2019-04-01
600,sr_legacy_food,"Mystery snack",1105,2019-04-01
`,
		"nutrient.csv": `id,name,unit_name,nutrient_nbr,rank
1008,Energy,KCAL,208,300
1003,Protein,G,203,600
1004,Total lipid (fat),G,204,800
1005,"Carbohydrate, by difference",G,205,1110
1079,"Fiber, total dietary",G,291,1200
1093,"Sodium, Na",MG,307,5800
`,
		"food_category.csv": `id,code,description
1,0100,Dairy and Egg Products
11,1100,Vegetable and Vegetable Products
13,1300,Beef Products
`,
		"measure_unit.csv": `id,name
1000,cup
`,
		"food_nutrient.csv": `id,fdc_id,nutrient_id,amount,data_points,derivation_id,min,max,median,footnote,min_year_acquired,percent_daily_value
1,100,1008,403,,1,,,,,,
2,100,1003,23,,1,,,,,,
3,100,1079,0.1,,1,,,,,,
4,100,1093,650,,1,,,,,,
5,500,1008,410,,1,,,,,,
6,500,1003,24,,1,,,,,,
7,200,1008,25,,1,,,,,,
8,200,1003,2,,1,,,,,,
9,200,1004,0.1,,1,,,,,,
10,200,1005,5,,1,,,,,,
11,200,1093,10,,1,,,,,,
12,300,1008,250,,1,,,,,,
13,300,1003,26,,1,,,,,,
14,300,1093,-75,,1,,,,,,
15,600,1008,150,,1,,,,,,
16,600,1003,3,,1,,,,,,
17,200,1008,0,,1,,,,,,
`,
		"food_portion.csv": `id,fdc_id,seq_num,amount,measure_unit_id,portion_description,modifier,gram_weight,data_points,footnote,min_year_acquired
1,100,1,1,1000,,shredded,113,,,
2,200,1,1,1000,,chopped,128,,,
3,300,1,1,1000,,,0,,,
`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	cfg := config.Default()
	cfg.Inputs.Dir = dir
	return &cfg
}

func runPipeline(t *testing.T, cfg *config.Config) *SnapshotStore {
	t.Helper()
	store := NewSnapshotStore()
	metrics := NewMetrics(prometheus.NewRegistry())
	stages := DefaultStages(cfg, metrics)
	// Pin the lineage timestamp so staged tables compare equal across runs.
	stages[1].(*StagingStage).Now = func() time.Time {
		return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	}
	runner := NewRunner(store, metrics, nil, stages...)
	_, err := runner.Run(context.Background())
	require.NoError(t, err)
	return store
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := fixtureConfig(t)
	store := runPipeline(t, cfg)

	profiles, err := Profiles(store)
	require.NoError(t, err)

	byName := make(map[string]mart.Profile, len(profiles))
	for _, p := range profiles {
		// Canonical food name is unique across the mart.
		_, dup := byName[p.FoodName]
		assert.False(t, dup, "duplicate canonical name %q", p.FoodName)
		byName[p.FoodName] = p
	}

	// The null-description food never reaches any downstream table.
	long, err := Rows[[]facts.NutritionFact](store, TableNutritionFactLong)
	require.NoError(t, err)
	for _, fact := range long {
		assert.NotEqual(t, int64(400), fact.FDCID)
		assert.Greater(t, fact.Amount, 0.0)
	}

	// Dedup: the complete cheddar row (fiber+sodium, id 100) beats id 500.
	cheddar, ok := byName["cheddar cheese"]
	require.True(t, ok)
	assert.Equal(t, int64(100), cheddar.FDCID)
	assert.Equal(t, "Dairy and Egg Products", cheddar.Category)
	assert.Equal(t, mart.DensityHigh, cheddar.CalorieDensity)
	assert.True(t, cheddar.HighProtein)
	assert.False(t, cheddar.LowSodium)

	// Classification sample: the carrot row.
	carrots, ok := byName["carrots, raw"]
	require.True(t, ok)
	assert.True(t, carrots.VegetarianFriendly)
	assert.True(t, carrots.LowSodium)
	assert.False(t, carrots.HighProtein)
	assert.True(t, carrots.LowCarb)
	assert.True(t, carrots.LowFat)
	assert.Equal(t, mart.DensityVeryLow, carrots.CalorieDensity)
	// The zero-amount Energy duplicate must not displace the real value.
	assert.Equal(t, 25.0, *carrots.Calories)

	// Beef: negative sodium was dropped in staging, so sodium is unknown.
	beef, ok := byName["beef, ground"]
	require.True(t, ok)
	assert.False(t, beef.VegetarianFriendly)
	assert.Nil(t, beef.Sodium)
	assert.False(t, beef.LowSodium)

	// Unresolved numeric category normalizes to Uncategorized.
	mystery, ok := byName["mystery snack"]
	require.True(t, ok)
	assert.Equal(t, "Uncategorized", mystery.Category)

	// Staged portions all carry positive gram weights.
	portions, err := Rows[[]staging.FoodPortion](store, TableStagedFoodPortions)
	require.NoError(t, err)
	require.Len(t, portions, 2)
	for _, p := range portions {
		assert.Greater(t, p.GramWeight, 0.0)
	}

	stats, err := CategoryStats(store)
	require.NoError(t, err)
	require.NotEmpty(t, stats)
	for i := 1; i < len(stats); i++ {
		assert.GreaterOrEqual(t, stats[i-1].FoodCount, stats[i].FoodCount)
	}
}

func TestRun_Idempotent(t *testing.T) {
	cfg := fixtureConfig(t)

	first := runPipeline(t, cfg)
	second := runPipeline(t, cfg)

	firstProfiles, err := Profiles(first)
	require.NoError(t, err)
	secondProfiles, err := Profiles(second)
	require.NoError(t, err)
	assert.Equal(t, firstProfiles, secondProfiles)

	firstStats, err := CategoryStats(first)
	require.NoError(t, err)
	secondStats, err := CategoryStats(second)
	require.NoError(t, err)
	assert.Equal(t, firstStats, secondStats)
}

func TestRun_MissingSourceIsStageFatal(t *testing.T) {
	cfg := fixtureConfig(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.Inputs.Dir, "food_portion.csv")))

	store := NewSnapshotStore()
	runner := NewRunner(store, nil, nil, DefaultStages(cfg, nil)...)
	_, err := runner.Run(context.Background())

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageIDLoad, stageErr.StageID)

	// Nothing was published: the failed load does not expose partial tables.
	_, ok := store.Get(TableRawFoods)
	assert.False(t, ok)
}

func TestRun_FailedStagePreservesPriorSnapshot(t *testing.T) {
	cfg := fixtureConfig(t)
	store := runPipeline(t, cfg)

	before, err := Profiles(store)
	require.NoError(t, err)
	beforeSnap, _ := store.Get(TableNutritionProfiles)

	// Re-run against the same store with a now-broken source. The load
	// stage fails and every previously published table stays visible.
	require.NoError(t, os.Remove(filepath.Join(cfg.Inputs.Dir, "food.csv")))
	runner := NewRunner(store, nil, nil, DefaultStages(cfg, nil)...)
	_, err = runner.Run(context.Background())
	require.Error(t, err)

	after, err := Profiles(store)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	afterSnap, _ := store.Get(TableNutritionProfiles)
	assert.Equal(t, beforeSnap.Version, afterSnap.Version)
}

func TestRun_EmptyResultPropagates(t *testing.T) {
	cfg := fixtureConfig(t)
	// No food survives validity filtering; every downstream table is empty,
	// which is valid output rather than an error.
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.Inputs.Dir, "food.csv"),
		[]byte("fdc_id,data_type,description,food_category_id,publication_date\n1,sr,,1,2019\n"),
		0644))

	store := runPipeline(t, cfg)

	profiles, err := Profiles(store)
	require.NoError(t, err)
	assert.Empty(t, profiles)

	stats, err := CategoryStats(store)
	require.NoError(t, err)
	assert.Empty(t, stats)
}

func TestRun_MissingInputTableIsStageFatal(t *testing.T) {
	store := NewSnapshotStore()
	runner := NewRunner(store, nil, nil, &JoinStage{})
	_, err := runner.Run(context.Background())

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageIDJoin, stageErr.StageID)
	assert.True(t, errors.Is(err, ErrTableNotPublished))
}

func TestRun_Metrics(t *testing.T) {
	cfg := fixtureConfig(t)
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	store := NewSnapshotStore()
	runner := NewRunner(store, metrics, nil, DefaultStages(cfg, metrics)...)
	_, err := runner.Run(context.Background())
	require.NoError(t, err)

	loaded := testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("food"))
	assert.Equal(t, 6.0, loaded)

	published := testutil.ToFloat64(metrics.RowsPublished.WithLabelValues(TableNutritionProfiles))
	assert.Equal(t, 4.0, published)
}

func TestSnapshotStore_PublishSwapsVersion(t *testing.T) {
	store := NewSnapshotStore()

	first := store.Publish("t", []int{1, 2}, 2)
	second := store.Publish("t", []int{3}, 1)
	assert.NotEqual(t, first.Version, second.Version)

	rows, err := Rows[[]int](store, "t")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, rows)

	_, err = Rows[[]string](store, "t")
	assert.Error(t, err)
}
