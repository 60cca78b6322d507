// Package config provides centralized configuration management for the
// nutrition pipeline. It handles loading configuration from multiple sources,
// validation, and provides a type-safe API for accessing configuration values
// throughout the application.
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// All environment variables follow the pattern NUTRI_* for namespacing:
//
//	NUTRI_INPUTS_DIR=data/usda
//	NUTRI_OUTPUT_DIR=data/mart
//	NUTRI_LOGGING_LEVEL=info
//
// Classification rules (vegetarian exclusions, macronutrient name patterns,
// nutrient thresholds) live in the Rules section and are passed by value into
// the pipeline stages that consume them; no package keeps them as globals.
package config
