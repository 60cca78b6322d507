package pipeline

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Published table names, in pipeline order.
const (
	TableRawFoods          = "raw_food"
	TableRawNutrients      = "raw_nutrient"
	TableRawFoodCategories = "raw_food_category"
	TableRawMeasureUnits   = "raw_measure_unit"
	TableRawFoodNutrients  = "raw_food_nutrient"
	TableRawFoodPortions   = "raw_food_portion"

	TableStagedFoods         = "staged_food"
	TableStagedNutrients     = "staged_nutrient"
	TableStagedFoodNutrients = "staged_food_nutrient"
	TableStagedFoodPortions  = "staged_food_portion"

	TableNutritionFactLong = "nutrition_fact_long"
	TableMacronutrientWide = "macronutrient_wide"
	TableNutritionProfiles = "food_nutrition_profile"
	TableCategoryStats     = "category_stats"
)

// Snapshot is one published version of a table.
type Snapshot struct {
	Table       string
	Version     string
	PublishedAt time.Time
	RowCount    int
	rows        any
}

// SnapshotStore holds the active version of every published table.
// Publishing replaces the active version in one atomic step; readers always
// see either the previous complete version or the new one, never a partial
// table.
type SnapshotStore struct {
	mu     sync.RWMutex
	tables map[string]Snapshot
}

// NewSnapshotStore creates an empty store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{tables: make(map[string]Snapshot)}
}

// Publish installs rows as the new active version of table and returns the
// snapshot descriptor.
func (s *SnapshotStore) Publish(table string, rows any, rowCount int) Snapshot {
	snap := Snapshot{
		Table:       table,
		Version:     uuid.NewString(),
		PublishedAt: time.Now().UTC(),
		RowCount:    rowCount,
		rows:        rows,
	}
	s.mu.Lock()
	s.tables[table] = snap
	s.mu.Unlock()
	return snap
}

// Get returns the active snapshot of table.
func (s *SnapshotStore) Get(table string) (Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.tables[table]
	return snap, ok
}

// Rows returns the active rows of table with their concrete type. A missing
// table or a type mismatch is a structural problem and therefore stage-fatal
// for the caller.
func Rows[T any](s *SnapshotStore, table string) (T, error) {
	var zero T
	snap, ok := s.Get(table)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrTableNotPublished, table)
	}
	rows, ok := snap.rows.(T)
	if !ok {
		return zero, fmt.Errorf("table %s holds %T, not %T", table, snap.rows, zero)
	}
	return rows, nil
}
