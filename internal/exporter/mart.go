package exporter

import (
	"strconv"

	"nutripipe/internal/mart"
)

// ProfileHeaders is the published column order of the profile table.
var ProfileHeaders = []string{
	"food_id", "food_name", "category", "data_type",
	"calories", "protein", "total_fat", "carbohydrate", "fiber", "sodium",
	"vegetarian_friendly", "low_sodium", "high_protein", "low_carb", "low_fat",
	"calorie_density",
}

// StatsHeaders is the published column order of the category stats table.
var StatsHeaders = []string{
	"category", "food_count",
	"avg_calories", "avg_protein", "avg_fat", "avg_carbs", "avg_fiber",
	"high_protein_count", "low_sodium_count",
}

// MartExporter writes the published mart tables as CSV files.
type MartExporter struct {
	csvWriter *CSVWriter
	bom       bool
}

// NewMartExporter creates a mart exporter writing into outputDir.
func NewMartExporter(outputDir string, bomPrefix bool) *MartExporter {
	return &MartExporter{
		csvWriter: NewCSVWriter(outputDir),
		bom:       bomPrefix,
	}
}

// ExportProfiles writes the food nutrition profile table.
func (e *MartExporter) ExportProfiles(fileName string, profiles []mart.Profile) error {
	records := make([][]string, 0, len(profiles))
	for _, p := range profiles {
		records = append(records, ProfileRecord(p))
	}
	return e.csvWriter.WriteCSV(fileName, WriteOptions{
		Headers:   ProfileHeaders,
		Records:   records,
		BOMPrefix: e.bom,
	})
}

// ExportCategoryStats writes the per-category summary table.
func (e *MartExporter) ExportCategoryStats(fileName string, stats []mart.CategoryStats) error {
	records := make([][]string, 0, len(stats))
	for _, s := range stats {
		records = append(records, StatsRecord(s))
	}
	return e.csvWriter.WriteCSV(fileName, WriteOptions{
		Headers:   StatsHeaders,
		Records:   records,
		BOMPrefix: e.bom,
	})
}

// ProfileRecord formats one profile row. Null macronutrients render as
// empty cells; zero is a real measured value and renders as "0".
func ProfileRecord(p mart.Profile) []string {
	return []string{
		strconv.FormatInt(p.FDCID, 10),
		p.FoodName,
		p.Category,
		p.DataType,
		formatNullable(p.Calories),
		formatNullable(p.Protein),
		formatNullable(p.TotalFat),
		formatNullable(p.Carbohydrate),
		formatNullable(p.Fiber),
		formatNullable(p.Sodium),
		strconv.FormatBool(p.VegetarianFriendly),
		strconv.FormatBool(p.LowSodium),
		strconv.FormatBool(p.HighProtein),
		strconv.FormatBool(p.LowCarb),
		strconv.FormatBool(p.LowFat),
		string(p.CalorieDensity),
	}
}

// StatsRecord formats one category stats row.
func StatsRecord(s mart.CategoryStats) []string {
	return []string{
		s.Category,
		strconv.Itoa(s.FoodCount),
		formatFloat(s.AvgCalories),
		formatFloat(s.AvgProtein),
		formatFloat(s.AvgFat),
		formatFloat(s.AvgCarbs),
		formatFloat(s.AvgFiber),
		strconv.Itoa(s.HighProteinCount),
		strconv.Itoa(s.LowSodiumCount),
	}
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
