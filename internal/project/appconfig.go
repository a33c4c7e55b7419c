package project

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/piwi3910/TagSheet/internal/model"
)

// DefaultConfigDir returns the default directory for application data.
// On all platforms this is ~/.tagsheet/
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".tagsheet")
}

// Paths locates the JSON stores inside one directory.
type Paths struct {
	Dir string
}

// DefaultPaths returns the stores under DefaultConfigDir.
func DefaultPaths() Paths {
	return Paths{Dir: DefaultConfigDir()}
}

func (p Paths) Config() string      { return filepath.Join(p.Dir, "config.json") }
func (p Paths) Calibration() string { return filepath.Join(p.Dir, "calibration.json") }
func (p Paths) Session() string     { return filepath.Join(p.Dir, "session.json") }
func (p Paths) Presets() string     { return filepath.Join(p.Dir, "presets.json") }

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return DefaultPaths().Config()
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
// It creates any missing parent directories automatically.
func SaveAppConfig(path string, config model.AppConfig) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// LoadAppConfig reads an AppConfig from the given path. Keys missing from
// the file keep their defaults. If the file does not exist, it returns
// DefaultAppConfig with no error.
func LoadAppConfig(path string) (model.AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultAppConfig(), nil
		}
		return model.DefaultAppConfig(), err
	}
	config := model.DefaultAppConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return model.DefaultAppConfig(), err
	}
	// Ensure RecentExports is never nil
	if config.RecentExports == nil {
		config.RecentExports = []string{}
	}
	if !config.DefaultMode.Valid() {
		config.DefaultMode = model.ModeAToB
	}
	return config, nil
}
