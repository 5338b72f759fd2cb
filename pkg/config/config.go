// Package config loads divledger's small settings file and .env
// overrides (§10.3): default decimal separator, default report
// currency, default journal path, and compact serialization mode.
package config

import (
	"os"
	"path/filepath"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Settings is the full set of operator-configurable defaults.
type Settings struct {
	DecimalSeparator string `yaml:"decimal_separator"`
	ReportCurrency   string `yaml:"report_currency"`
	JournalPath      string `yaml:"journal_path"`
	Compact          bool   `yaml:"compact"`
}

// Defaults returns the settings divledger falls back to when no config
// file is found anywhere in the search path.
func Defaults() Settings {
	return Settings{
		DecimalSeparator: ".",
		ReportCurrency:   "$",
		JournalPath:      "",
		Compact:          false,
	}
}

// Load resolves settings in priority order: an explicit --config flag
// path, $DIVLEDGER_CONFIG, then ~/.config/divledger/config.yaml. It
// first loads .env (for DIVLEDGER_* overrides, exactly as the teacher's
// cmd/pipeline/main.go does at process start), then reads whichever
// config path resolves first, falling back to Defaults() if none exist.
func Load(flagPath string) (Settings, error) {
	godotenv.Load()

	settings := Defaults()

	path := resolvePath(flagPath)
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, err
	}

	if err := parseInto(data, &settings); err != nil {
		return settings, err
	}

	applyEnvOverrides(&settings)
	return settings, nil
}

func resolvePath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv("DIVLEDGER_CONFIG"); env != "" {
		return env
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "divledger", "config.yaml")
	}
	return ""
}

// parseInto tries strict YAML first, then falls back to HJSON (itself
// repaired with json-repair if it doesn't parse clean) — the same
// "try strict, then repair" two-stage pattern as the teacher's
// pkg/core/utils.ParseHJSON/RepairJSON.
func parseInto(data []byte, settings *Settings) error {
	if err := yaml.Unmarshal(data, settings); err == nil {
		return nil
	}

	var loose map[string]interface{}
	if err := hjson.Unmarshal(data, &loose); err != nil {
		repaired, rerr := jsonrepair.RepairJSON(string(data))
		if rerr != nil {
			return rerr
		}
		if err := hjson.Unmarshal([]byte(repaired), &loose); err != nil {
			return err
		}
	}

	if v, ok := loose["decimal_separator"].(string); ok {
		settings.DecimalSeparator = v
	}
	if v, ok := loose["report_currency"].(string); ok {
		settings.ReportCurrency = v
	}
	if v, ok := loose["journal_path"].(string); ok {
		settings.JournalPath = v
	}
	if v, ok := loose["compact"].(bool); ok {
		settings.Compact = v
	}
	return nil
}

func applyEnvOverrides(settings *Settings) {
	if v := os.Getenv("DIVLEDGER_DECIMAL_SEPARATOR"); v != "" {
		settings.DecimalSeparator = v
	}
	if v := os.Getenv("DIVLEDGER_REPORT_CURRENCY"); v != "" {
		settings.ReportCurrency = v
	}
	if v := os.Getenv("DIVLEDGER_JOURNAL_PATH"); v != "" {
		settings.JournalPath = v
	}
	if v := os.Getenv("DIVLEDGER_COMPACT"); v == "1" || v == "true" {
		settings.Compact = true
	}
}
