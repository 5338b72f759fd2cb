package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReturnsDefaultsWhenNoFileFound(t *testing.T) {
	t.Setenv("DIVLEDGER_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	got, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != Defaults() {
		t.Errorf("expected defaults, got %+v", got)
	}
}

func TestLoadParsesStrictYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "decimal_separator: \",\"\nreport_currency: EUR\njournal_path: /data/main.journal\ncompact: true\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.DecimalSeparator != "," || got.ReportCurrency != "EUR" || !got.Compact {
		t.Errorf("unexpected settings: %+v", got)
	}
}

func TestLoadFallsBackToHJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.hjson")
	// Unquoted keys/values are valid Hjson but not valid YAML-as-map here
	// because it looks like a flow mapping without proper YAML quoting.
	content := "{\n  report_currency: EUR\n  journal_path: /data/main.journal\n  // trailing comment\n}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ReportCurrency != "EUR" {
		t.Errorf("expected HJSON fallback to set report_currency, got %+v", got)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("report_currency: EUR\n"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	t.Setenv("DIVLEDGER_REPORT_CURRENCY", "GBP")

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.ReportCurrency != "GBP" {
		t.Errorf("expected env override GBP, got %s", got.ReportCurrency)
	}
}
