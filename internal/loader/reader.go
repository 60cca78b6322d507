package loader

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"nutripipe/internal/config"
)

// Options controls how a delimited source file is read.
type Options struct {
	Delimiter  rune
	SkipHeader bool
	nullTokens map[string]struct{}
}

// NewOptions builds reader options from the CSV configuration. The empty
// string is always treated as null regardless of the configured token set.
func NewOptions(cfg config.CSVConfig) Options {
	tokens := make(map[string]struct{}, len(cfg.NullTokens)+1)
	for _, t := range cfg.NullTokens {
		tokens[t] = struct{}{}
	}
	tokens[""] = struct{}{}
	return Options{
		Delimiter:  cfg.Delim(),
		SkipHeader: cfg.SkipHeader,
		nullTokens: tokens,
	}
}

func (o Options) isNull(cell string) bool {
	_, ok := o.nullTokens[cell]
	return ok
}

// Stats reports the outcome of loading one entity file.
type Stats struct {
	Loaded   int
	Rejected int
}

// row holds the coerced cells of one record. An entry is nil (null),
// int64, float64, or string according to the schema column kind.
type row []any

// coerce converts a raw record into a typed row, or reports the first
// column that failed.
func coerce(record []string, schema Schema, opt Options) (row, error) {
	if len(record) != len(schema.Columns) {
		return nil, fmt.Errorf("expected %d columns, got %d", len(schema.Columns), len(record))
	}

	vals := make(row, len(record))
	for i, col := range schema.Columns {
		cell := strings.TrimSpace(record[i])
		if opt.isNull(cell) {
			continue
		}
		switch col.Kind {
		case KindInt:
			n, err := strconv.ParseInt(cell, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %q is not an integer", col.Name, cell)
			}
			vals[i] = n
		case KindFloat:
			f, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("column %s: %q is not a float", col.Name, cell)
			}
			vals[i] = f
		case KindText:
			if col.MaxLen > 0 && len(cell) > col.MaxLen {
				return nil, fmt.Errorf("column %s: text exceeds %d bytes", col.Name, col.MaxLen)
			}
			vals[i] = cell
		}
	}
	return vals, nil
}

// loadEntity reads one source file and binds every accepted row to an entity
// value. Rows failing coercion are rejected and counted, not fatal.
func loadEntity[T any](ctx context.Context, path string, schema Schema, opt Options, bind func(row) T) ([]T, Stats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to open %s source %s: %w", schema.Entity, path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.Comma = opt.Delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var (
		out   []T
		stats Stats
		line  int
	)

	for {
		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, Stats{}, err
			}
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed CSV line: reject the row, keep the batch going.
			stats.Rejected++
			line++
			continue
		}
		line++
		if opt.SkipHeader && line == 1 {
			continue
		}

		vals, err := coerce(record, schema, opt)
		if err != nil {
			stats.Rejected++
			slog.Debug("row rejected",
				slog.String("entity", schema.Entity),
				slog.Int("line", line),
				slog.String("reason", err.Error()))
			continue
		}
		out = append(out, bind(vals))
		stats.Loaded++
	}

	slog.Info("entity loaded",
		slog.String("entity", schema.Entity),
		slog.String("path", path),
		slog.Int("loaded", stats.Loaded),
		slog.Int("rejected", stats.Rejected))

	return out, stats, nil
}

// Typed cell accessors. Index is trusted; schemas and bind functions are
// declared together in this package.

func intAt(vals row, i int) *int64 {
	if v, ok := vals[i].(int64); ok {
		return &v
	}
	return nil
}

func floatAt(vals row, i int) *float64 {
	if v, ok := vals[i].(float64); ok {
		return &v
	}
	return nil
}

func textAt(vals row, i int) *string {
	if v, ok := vals[i].(string); ok {
		return &v
	}
	return nil
}
