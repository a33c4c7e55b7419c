package project

import (
	"encoding/json"
	"os"

	"github.com/piwi3910/TagSheet/internal/model"
)

// SavePresets writes the preset store to a JSON file.
func SavePresets(path string, store model.PresetStore) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// LoadPresets reads a preset store from a JSON file.
// If the file does not exist, returns an empty store.
func LoadPresets(path string) (model.PresetStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.NewPresetStore(), nil
		}
		return model.NewPresetStore(), err
	}
	var store model.PresetStore
	if err := json.Unmarshal(data, &store); err != nil {
		return model.NewPresetStore(), err
	}
	if store.Presets == nil {
		store.Presets = []model.StylePreset{}
	}
	return store, nil
}
