package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"nutripipe/internal/mart"
)

// Sheet names in the exported workbook.
const (
	SheetProfiles = "Nutrition Profiles"
	SheetStats    = "Category Stats"
)

// ExcelExporter writes both mart tables into one workbook for review.
type ExcelExporter struct {
	outputDir string
}

// NewExcelExporter creates an Excel exporter writing into outputDir.
func NewExcelExporter(outputDir string) *ExcelExporter {
	return &ExcelExporter{outputDir: outputDir}
}

// ExportWorkbook writes the profile and category stats sheets.
func (e *ExcelExporter) ExportWorkbook(fileName string, profiles []mart.Profile, stats []mart.CategoryStats) error {
	fullPath := filepath.Join(e.outputDir, fileName)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetProfiles)
	if _, err := f.NewSheet(SheetStats); err != nil {
		return fmt.Errorf("failed to create stats sheet: %w", err)
	}

	if err := writeSheet(f, SheetProfiles, ProfileHeaders, len(profiles), func(i int) []string {
		return ProfileRecord(profiles[i])
	}); err != nil {
		return err
	}
	if err := writeSheet(f, SheetStats, StatsHeaders, len(stats), func(i int) []string {
		return StatsRecord(stats[i])
	}); err != nil {
		return err
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("Workbook written",
		slog.String("path", fullPath),
		slog.Int("profiles", len(profiles)),
		slog.Int("categories", len(stats)))
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, n int, record func(int) []string) error {
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := setRow(f, sheet, i+2, record(i)); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, cells []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", rowNum, sheet, err)
	}
	return nil
}
