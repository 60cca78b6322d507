// Package store publishes the mart tables to a SQLite database for the
// downstream meal-planning consumer. Each publication writes a fresh table
// and swaps it for the previous one inside a single transaction, so readers
// never observe a partially written table.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"nutripipe/internal/mart"
)

// Table names in the published database.
const (
	TableProfiles = "food_nutrition_profile"
	TableStats    = "category_stats"
)

// DB wraps the published SQLite database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if necessary) the published database at path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// The publisher is the only writer; a single connection keeps the
	// swap transaction serialized.
	db.SetMaxOpenConns(1)
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// PublishProfiles replaces the profile table with the given rows.
func (d *DB) PublishProfiles(ctx context.Context, profiles []mart.Profile) error {
	next := TableProfiles + "_next"
	createNext := fmt.Sprintf(`CREATE TABLE %s (
		food_id INTEGER NOT NULL,
		food_name TEXT NOT NULL UNIQUE,
		category TEXT NOT NULL,
		data_type TEXT,
		calories REAL NOT NULL,
		protein REAL NOT NULL,
		total_fat REAL,
		carbohydrate REAL,
		fiber REAL,
		sodium REAL,
		vegetarian_friendly INTEGER NOT NULL,
		low_sodium INTEGER NOT NULL,
		high_protein INTEGER NOT NULL,
		low_carb INTEGER NOT NULL,
		low_fat INTEGER NOT NULL,
		calorie_density TEXT NOT NULL
	)`, next)

	insert := fmt.Sprintf(`INSERT INTO %s (
		food_id, food_name, category, data_type,
		calories, protein, total_fat, carbohydrate, fiber, sodium,
		vegetarian_friendly, low_sodium, high_protein, low_carb, low_fat,
		calorie_density
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, next)

	return d.swap(ctx, TableProfiles, createNext, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range profiles {
			_, err := stmt.ExecContext(ctx,
				p.FDCID, p.FoodName, p.Category, p.DataType,
				deref(p.Calories), deref(p.Protein),
				nullable(p.TotalFat), nullable(p.Carbohydrate),
				nullable(p.Fiber), nullable(p.Sodium),
				p.VegetarianFriendly, p.LowSodium, p.HighProtein,
				p.LowCarb, p.LowFat, string(p.CalorieDensity))
			if err != nil {
				return fmt.Errorf("failed to insert profile %q: %w", p.FoodName, err)
			}
		}
		return nil
	})
}

// PublishCategoryStats replaces the category stats table with the given rows.
func (d *DB) PublishCategoryStats(ctx context.Context, stats []mart.CategoryStats) error {
	next := TableStats + "_next"
	createNext := fmt.Sprintf(`CREATE TABLE %s (
		category TEXT NOT NULL UNIQUE,
		food_count INTEGER NOT NULL,
		avg_calories REAL NOT NULL,
		avg_protein REAL NOT NULL,
		avg_fat REAL NOT NULL,
		avg_carbs REAL NOT NULL,
		avg_fiber REAL NOT NULL,
		high_protein_count INTEGER NOT NULL,
		low_sodium_count INTEGER NOT NULL
	)`, next)

	insert := fmt.Sprintf(`INSERT INTO %s (
		category, food_count, avg_calories, avg_protein, avg_fat,
		avg_carbs, avg_fiber, high_protein_count, low_sodium_count
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, next)

	return d.swap(ctx, TableStats, createNext, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, insert)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, s := range stats {
			_, err := stmt.ExecContext(ctx,
				s.Category, s.FoodCount, s.AvgCalories, s.AvgProtein,
				s.AvgFat, s.AvgCarbs, s.AvgFiber,
				s.HighProteinCount, s.LowSodiumCount)
			if err != nil {
				return fmt.Errorf("failed to insert stats for %q: %w", s.Category, err)
			}
		}
		return nil
	})
}

// swap materializes the next version of table and atomically replaces the
// active one. The previous version stays queryable until the commit.
func (d *DB) swap(ctx context.Context, table, createNext string, fill func(*sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s_next", table)); err != nil {
		return fmt.Errorf("failed to drop stale next table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createNext); err != nil {
		return fmt.Errorf("failed to create next table: %w", err)
	}
	if err := fill(tx); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
		return fmt.Errorf("failed to drop previous table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s_next RENAME TO %s", table, table)); err != nil {
		return fmt.Errorf("failed to activate next table: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit swap: %w", err)
	}

	slog.Info("mart table published", slog.String("table", table))
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func nullable(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
