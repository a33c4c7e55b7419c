package project

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/piwi3910/TagSheet/internal/model"
)

// BackupData is the top-level structure for import/export of all
// application data.
type BackupData struct {
	Version     string            `json:"version"`
	CreatedAt   string            `json:"created_at"`
	Config      model.AppConfig   `json:"config"`
	Calibration CalibrationFile   `json:"calibration"`
	Session     model.Session     `json:"session"`
	Presets     model.PresetStore `json:"presets"`
}

// backupVersion is bumped when BackupData changes shape.
const backupVersion = "2.0.0"

// NewBackup bundles the stores into one record.
func NewBackup(config model.AppConfig, cal CalibrationFile, session model.Session, presets model.PresetStore) BackupData {
	return BackupData{
		Version:     backupVersion,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Config:      config,
		Calibration: cal,
		Session:     session,
		Presets:     presets,
	}
}

// ExportAllData writes all application data to a single JSON file at the
// specified path.
func ExportAllData(exportPath string, backup BackupData) error {
	if backup.Version == "" {
		backup.Version = backupVersion
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup data: %w", err)
	}
	if err := writeFileAtomic(exportPath, data); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying and saving it.
func ImportAllData(importPath string) (BackupData, error) {
	data, err := os.ReadFile(importPath)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}

	body := struct {
		Version     string            `json:"version"`
		CreatedAt   string            `json:"created_at"`
		Config      model.AppConfig   `json:"config"`
		Calibration CalibrationFile   `json:"calibration"`
		Session     json.RawMessage   `json:"session"`
		Presets     model.PresetStore `json:"presets"`
	}{
		Config:      model.DefaultAppConfig(),
		Calibration: NewCalibrationFile(model.DefaultCalibration()),
		Presets:     model.NewPresetStore(),
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return BackupData{}, fmt.Errorf("failed to parse backup file: %w", err)
	}
	if body.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}

	backup := BackupData{
		Version:     body.Version,
		CreatedAt:   body.CreatedAt,
		Config:      body.Config,
		Calibration: body.Calibration,
		Session:     model.NewSession(0),
		Presets:     body.Presets,
	}
	// Sessions go through the migrating decoder like the session store.
	if len(body.Session) > 0 && string(body.Session) != "null" {
		s, err := DecodeSession(body.Session)
		if err != nil {
			return BackupData{}, fmt.Errorf("failed to parse backup session: %w", err)
		}
		backup.Session = s
	}

	// Ensure lists are never nil
	if backup.Config.RecentExports == nil {
		backup.Config.RecentExports = []string{}
	}
	if backup.Presets.Presets == nil {
		backup.Presets.Presets = []model.StylePreset{}
	}
	return backup, nil
}
