package model

import (
	"time"

	"github.com/google/uuid"
)

// StylePreset is a named, reusable label style.
type StylePreset struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt string     `json:"created_at"`
	Style     LabelStyle `json:"style"`
}

// NewStylePreset captures the style of content under a name.
func NewStylePreset(name string, content LabelContent) StylePreset {
	return StylePreset{
		ID:        uuid.New().String()[:8],
		Name:      name,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Style:     content.Style(),
	}
}

// PresetStore holds a collection of style presets.
type PresetStore struct {
	Presets []StylePreset `json:"presets"`
}

// NewPresetStore creates an empty preset store.
func NewPresetStore() PresetStore {
	return PresetStore{
		Presets: []StylePreset{},
	}
}

// Add adds a preset, replacing any existing preset with the same name.
func (ps *PresetStore) Add(p StylePreset) {
	for i := range ps.Presets {
		if ps.Presets[i].Name == p.Name {
			ps.Presets[i] = p
			return
		}
	}
	ps.Presets = append(ps.Presets, p)
}

// Remove removes a preset by ID. Returns true if found and removed.
func (ps *PresetStore) Remove(id string) bool {
	for i, p := range ps.Presets {
		if p.ID == id {
			ps.Presets = append(ps.Presets[:i], ps.Presets[i+1:]...)
			return true
		}
	}
	return false
}

// FindByName returns a pointer to the preset with the given name, or nil.
func (ps *PresetStore) FindByName(name string) *StylePreset {
	for i := range ps.Presets {
		if ps.Presets[i].Name == name {
			return &ps.Presets[i]
		}
	}
	return nil
}

// Names returns preset names for UI dropdowns.
func (ps *PresetStore) Names() []string {
	names := make([]string, len(ps.Presets))
	for i, p := range ps.Presets {
		names[i] = p.Name
	}
	return names
}
