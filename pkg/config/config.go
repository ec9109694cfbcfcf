package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/gersimian1/LiquidaPro/internal/domain/extract/consolidator"
	"github.com/gersimian1/LiquidaPro/internal/domain/extract/parser"
)

// Config holds all application configuration.
type Config struct {
	Extract ExtractConfig
	Output  OutputConfig
	History HistoryConfig
	Log     LogConfig
}

type ExtractConfig struct {
	// Fields is the default column projection, name first.
	Fields []parser.FieldID
	// Ordering of consolidated employees in reports.
	Ordering consolidator.Ordering
	// Workers bounds the per-document fan-out; 0 means one per CPU.
	Workers int
}

type OutputConfig struct {
	// Dir is where reports land when the caller gives no explicit path.
	Dir string
	// Title is the banner row of XLSX reports.
	Title string
}

type HistoryConfig struct {
	Enabled bool
	Path    string
}

type LogConfig struct {
	Level string
}

// Load reads configuration from the environment, after loading a local .env
// file when one exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	fields, err := parseFields(getEnv("LIQUIDAPRO_FIELDS", ""))
	if err != nil {
		return nil, err
	}
	ordering, err := parseOrdering(getEnv("LIQUIDAPRO_ORDERING", "alphabetical"))
	if err != nil {
		return nil, err
	}

	home, _ := os.UserHomeDir()
	cfg := &Config{
		Extract: ExtractConfig{
			Fields:   fields,
			Ordering: ordering,
			Workers:  getEnvAsInt("LIQUIDAPRO_WORKERS", 0),
		},
		Output: OutputConfig{
			Dir:   getEnv("LIQUIDAPRO_OUTPUT_DIR", "."),
			Title: getEnv("LIQUIDAPRO_REPORT_TITLE", "Consolidado de haberes"),
		},
		History: HistoryConfig{
			Enabled: getEnvAsBool("LIQUIDAPRO_HISTORY_ENABLED", true),
			Path:    getEnv("LIQUIDAPRO_HISTORY_PATH", filepath.Join(home, ".liquidapro", "history.db")),
		},
		Log: LogConfig{
			Level: getEnv("LIQUIDAPRO_LOG_LEVEL", "info"),
		},
	}
	return cfg, nil
}

// parseFields turns a comma-separated field list into identifiers. Empty
// input selects every field; the name column is always present and first.
func parseFields(raw string) ([]parser.FieldID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	fields := []parser.FieldID{parser.FieldName}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := parser.ParseFieldID(part)
		if err != nil {
			return nil, fmt.Errorf("LIQUIDAPRO_FIELDS: %w", err)
		}
		if id == parser.FieldName {
			continue
		}
		fields = append(fields, id)
	}
	return fields, nil
}

func parseOrdering(raw string) (consolidator.Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "alphabetical", "alfabetico", "":
		return consolidator.OrderAlphabetical, nil
	case "original", "appearance":
		return consolidator.OrderOriginal, nil
	default:
		return 0, fmt.Errorf("LIQUIDAPRO_ORDERING: unknown ordering %q", raw)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
