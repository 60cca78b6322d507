package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Inputs  InputsConfig  `yaml:"inputs" envconfig:"INPUTS"`
	CSV     CSVConfig     `yaml:"csv" envconfig:"CSV"`
	Rules   RulesConfig   `yaml:"rules" envconfig:"RULES"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
}

// InputsConfig locates the raw USDA source files, one delimited file per entity.
type InputsConfig struct {
	Dir          string `yaml:"dir" envconfig:"DIR" validate:"required"`
	Food         string `yaml:"food" envconfig:"FOOD" validate:"required"`
	Nutrient     string `yaml:"nutrient" envconfig:"NUTRIENT" validate:"required"`
	FoodCategory string `yaml:"food_category" envconfig:"FOOD_CATEGORY" validate:"required"`
	MeasureUnit  string `yaml:"measure_unit" envconfig:"MEASURE_UNIT" validate:"required"`
	FoodNutrient string `yaml:"food_nutrient" envconfig:"FOOD_NUTRIENT" validate:"required"`
	FoodPortion  string `yaml:"food_portion" envconfig:"FOOD_PORTION" validate:"required"`
}

// Path returns the full path for one of the input files.
func (c InputsConfig) Path(name string) string {
	return filepath.Join(c.Dir, name)
}

// CSVConfig controls how the delimited source files are read.
type CSVConfig struct {
	Delimiter  string   `yaml:"delimiter" envconfig:"DELIMITER" validate:"required,len=1"`
	SkipHeader bool     `yaml:"skip_header" envconfig:"SKIP_HEADER"`
	NullTokens []string `yaml:"null_tokens" envconfig:"NULL_TOKENS"`
}

// RulesConfig carries the classification rules consumed by the pivot and mart
// stages. It is loaded once per run and passed by value; nothing mutates it.
type RulesConfig struct {
	// MacroPatterns are case-sensitive substrings matched against USDA
	// nutrient names to collapse qualifier variants (e.g. "Energy (Atwater
	// General Factors)") into one canonical macronutrient column.
	MacroPatterns MacroPatterns `yaml:"macro_patterns" envconfig:"MACRO_PATTERNS"`

	// ExclusionCategories lists category literals whose foods are never
	// vegetarian friendly.
	ExclusionCategories []string `yaml:"exclusion_categories" envconfig:"EXCLUSION_CATEGORIES" validate:"required,min=1"`

	// ExclusionKeywords are matched case-insensitively as substrings of the
	// normalized category.
	ExclusionKeywords []string `yaml:"exclusion_keywords" envconfig:"EXCLUSION_KEYWORDS" validate:"required,min=1"`

	Thresholds Thresholds `yaml:"thresholds" envconfig:"THRESHOLDS"`
}

// MacroPatterns holds the nutrient-name pattern for each pivoted column.
type MacroPatterns struct {
	Calories     string `yaml:"calories" envconfig:"CALORIES" validate:"required"`
	Protein      string `yaml:"protein" envconfig:"PROTEIN" validate:"required"`
	TotalFat     string `yaml:"total_fat" envconfig:"TOTAL_FAT" validate:"required"`
	Carbohydrate string `yaml:"carbohydrate" envconfig:"CARBOHYDRATE" validate:"required"`
	Fiber        string `yaml:"fiber" envconfig:"FIBER" validate:"required"`
	Sodium       string `yaml:"sodium" envconfig:"SODIUM" validate:"required"`
}

// Thresholds holds the numeric cutoffs for the derived classification flags.
// Units assume mg/100g for sodium and g/100g for the remaining nutrients.
type Thresholds struct {
	SodiumMax          float64 `yaml:"sodium_max" envconfig:"SODIUM_MAX" validate:"gt=0"`
	ProteinMin         float64 `yaml:"protein_min" envconfig:"PROTEIN_MIN" validate:"gt=0"`
	CarbMax            float64 `yaml:"carb_max" envconfig:"CARB_MAX" validate:"gt=0"`
	FatMax             float64 `yaml:"fat_max" envconfig:"FAT_MAX" validate:"gt=0"`
	CalorieVeryLowMax  float64 `yaml:"calorie_very_low_max" envconfig:"CALORIE_VERY_LOW_MAX" validate:"gt=0"`
	CalorieLowMax      float64 `yaml:"calorie_low_max" envconfig:"CALORIE_LOW_MAX" validate:"gtfield=CalorieVeryLowMax"`
	CalorieModerateMax float64 `yaml:"calorie_moderate_max" envconfig:"CALORIE_MODERATE_MAX" validate:"gtfield=CalorieLowMax"`
}

// OutputConfig locates the published outputs.
type OutputConfig struct {
	Dir        string `yaml:"dir" envconfig:"DIR" validate:"required"`
	SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH" validate:"required"`
	ExcelFile  string `yaml:"excel_file" envconfig:"EXCEL_FILE" validate:"required"`
	BOMPrefix  bool   `yaml:"bom_prefix" envconfig:"BOM_PREFIX"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" validate:"required,oneof=debug info warn error"`
	Format string `yaml:"format" envconfig:"FORMAT" validate:"required,oneof=json text"`
	Output string `yaml:"output" envconfig:"OUTPUT" validate:"required"`
}

// Default returns the configuration with all default values applied.
func Default() Config {
	return Config{
		Inputs: InputsConfig{
			Dir:          "data/usda",
			Food:         "food.csv",
			Nutrient:     "nutrient.csv",
			FoodCategory: "food_category.csv",
			MeasureUnit:  "measure_unit.csv",
			FoodNutrient: "food_nutrient.csv",
			FoodPortion:  "food_portion.csv",
		},
		CSV: CSVConfig{
			Delimiter:  ",",
			SkipHeader: true,
			NullTokens: []string{"NULL", "null", ""},
		},
		Rules: RulesConfig{
			MacroPatterns: MacroPatterns{
				Calories:     "Energy",
				Protein:      "Protein",
				TotalFat:     "Total lipid",
				Carbohydrate: "Carbohydrate",
				Fiber:        "Fiber",
				Sodium:       "Sodium",
			},
			ExclusionCategories: []string{
				"Poultry Products",
				"Pork Products",
				"Beef Products",
				"Finfish and Shellfish Products",
				"Lamb, Veal, and Game Products",
				"Sausages and Luncheon Meats",
			},
			ExclusionKeywords: []string{
				"beef", "pork", "poultry", "fish", "meat",
				"chicken", "turkey", "lamb", "seafood",
			},
			Thresholds: Thresholds{
				SodiumMax:          140,
				ProteinMin:         15,
				CarbMax:            25,
				FatMax:             5,
				CalorieVeryLowMax:  100,
				CalorieLowMax:      200,
				CalorieModerateMax: 400,
			},
		},
		Output: OutputConfig{
			Dir:        "data/mart",
			SQLitePath: "data/mart/nutrition.db",
			ExcelFile:  "nutrition_profiles.xlsx",
			BOMPrefix:  true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "console",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// NUTRI_* environment variables, in increasing order of precedence.
func Load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, &cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process("NUTRI", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile overlays values from a YAML file onto cfg.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	return nil
}

// Delim returns the CSV delimiter as a rune.
func (c CSVConfig) Delim() rune {
	return rune(c.Delimiter[0])
}
