package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/TagSheet/internal/model"
)

func TestSaveAndLoadAppConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	cfg := model.DefaultAppConfig()
	cfg.PrinterName = "Office_Laser"
	cfg.Theme = "dark"
	cfg.PrintDPI = 600
	cfg.DefaultMode = model.ModeBoth
	cfg.RecentExports = []string{"/tmp/a.pdf", "/tmp/b.pdf"}

	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig failed: %v", err)
	}

	loaded, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if loaded.PrinterName != "Office_Laser" {
		t.Errorf("expected PrinterName=Office_Laser, got %s", loaded.PrinterName)
	}
	if loaded.Theme != "dark" {
		t.Errorf("expected Theme=dark, got %s", loaded.Theme)
	}
	if loaded.PrintDPI != 600 {
		t.Errorf("expected PrintDPI=600, got %f", loaded.PrintDPI)
	}
	if loaded.DefaultMode != model.ModeBoth {
		t.Errorf("expected mode both, got %s", loaded.DefaultMode)
	}
	if len(loaded.RecentExports) != 2 {
		t.Errorf("expected 2 recent exports, got %d", len(loaded.RecentExports))
	}
	if loaded.CurrencyB.Suffix != " €" {
		t.Errorf("expected EUR suffix to survive, got %q", loaded.CurrencyB.Suffix)
	}
}

func TestLoadAppConfigMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent", "config.json")

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.ExchangeRate != model.BGNPerEUR {
		t.Errorf("expected default rate, got %f", cfg.ExchangeRate)
	}
	if cfg.Theme != "system" {
		t.Errorf("expected theme=system, got %s", cfg.Theme)
	}
}

func TestLoadAppConfigPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"theme":"light","default_mode":"sideways"}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.Theme != "light" {
		t.Errorf("expected theme=light, got %s", cfg.Theme)
	}
	if cfg.PrintDPI != 300 {
		t.Errorf("expected default print dpi, got %f", cfg.PrintDPI)
	}
	if cfg.DefaultMode != model.ModeAToB {
		t.Errorf("expected invalid mode to fall back to a_to_b, got %s", cfg.DefaultMode)
	}
}

func TestLoadAppConfigInvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte("not valid json{{{"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON, got nil")
	}
	if cfg.PrintDPI != 300 {
		t.Error("expected defaults alongside the error")
	}
}

func TestSaveAppConfigCreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "dir", "config.json")

	cfg := model.DefaultAppConfig()
	if err := SaveAppConfig(path, cfg); err != nil {
		t.Fatalf("SaveAppConfig should create parent dirs: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}
}

func TestLoadAppConfigNilRecentExports(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	data := []byte(`{"theme":"light","recent_exports":null}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}
	if cfg.RecentExports == nil {
		t.Error("RecentExports should not be nil after loading")
	}
}

func TestPaths(t *testing.T) {
	p := Paths{Dir: "/data"}
	if p.Calibration() != filepath.Join("/data", "calibration.json") {
		t.Errorf("unexpected calibration path %s", p.Calibration())
	}
	if p.Session() != filepath.Join("/data", "session.json") {
		t.Errorf("unexpected session path %s", p.Session())
	}
	if filepath.Base(DefaultConfigDir()) != ".tagsheet" {
		t.Errorf("unexpected config dir %s", DefaultConfigDir())
	}
}

func TestWriteFileAtomicLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.json")
	for i := 0; i < 3; i++ {
		if err := writeFileAtomic(path, []byte(`{"n":1}`)); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the store file, got %d entries", len(entries))
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("expected mode 0644, got %v", info.Mode().Perm())
	}
}
