package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/piwi3910/TagSheet/internal/model"
)

// CalibrationVersion is the calibration file schema written by this build.
const CalibrationVersion = 1

// CalibrationFile is a calibration record plus whatever keys the file
// carried that this build does not know. Unknown keys, both top-level and
// inside "params", are written back unchanged on save.
type CalibrationFile struct {
	model.Calibration

	extra  map[string]json.RawMessage
	params map[string]json.RawMessage
}

// NewCalibrationFile wraps cal with no unknown keys.
func NewCalibrationFile(cal model.Calibration) CalibrationFile {
	return CalibrationFile{Calibration: cal}
}

// Unknown returns the names of preserved top-level and params keys.
func (f CalibrationFile) Unknown() (top, params []string) {
	for k := range f.extra {
		top = append(top, k)
	}
	for k := range f.params {
		params = append(params, k)
	}
	return top, params
}

// UnmarshalJSON merges the document over the defaults. Older files that
// stored the parameters flat at the top level are accepted too.
func (f *CalibrationFile) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	cal := model.DefaultCalibration()
	extra := map[string]json.RawMessage{}
	var params map[string]json.RawMessage

	paramKeys := jsonKeys(cal.Params)
	if _, nested := doc["params"]; !nested && hasAny(doc, paramKeys) {
		flat := map[string]json.RawMessage{}
		for k, v := range doc {
			if paramKeys[k] {
				flat[k] = v
				delete(doc, k)
			}
		}
		raw, _ := json.Marshal(flat)
		doc["params"] = raw
	}

	for key, raw := range doc {
		switch key {
		case "version":
		case "params":
			if err := json.Unmarshal(raw, &cal.Params); err != nil {
				return fmt.Errorf("params: %w", err)
			}
			var all map[string]json.RawMessage
			if err := json.Unmarshal(raw, &all); err != nil {
				return fmt.Errorf("params: %w", err)
			}
			for k, v := range all {
				if !paramKeys[k] {
					if params == nil {
						params = map[string]json.RawMessage{}
					}
					params[k] = v
				}
			}
		case "toggles":
			if err := json.Unmarshal(raw, &cal.Toggles); err != nil {
				return fmt.Errorf("toggles: %w", err)
			}
		case "skip_hw_margin":
			if err := json.Unmarshal(raw, &cal.SkipHWMargin); err != nil {
				return fmt.Errorf("skip_hw_margin: %w", err)
			}
		default:
			extra[key] = raw
		}
	}

	if len(extra) == 0 {
		extra = nil
	}
	f.Calibration = cal
	f.extra = extra
	f.params = params
	return nil
}

// MarshalJSON writes the known fields over the preserved unknown ones.
func (f CalibrationFile) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(f.extra)+4)
	for k, v := range f.extra {
		doc[k] = v
	}

	params, err := mergeKeys(f.Params, f.params)
	if err != nil {
		return nil, err
	}
	doc["params"] = params

	for key, v := range map[string]any{
		"version":        CalibrationVersion,
		"toggles":        f.Toggles,
		"skip_hw_margin": f.SkipHWMargin,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		doc[key] = raw
	}
	return json.Marshal(doc)
}

// LoadCalibration reads the calibration store. A missing file yields the
// defaults with no error. A corrupt file yields the defaults and the
// parse error; callers log it and carry on.
func LoadCalibration(path string) (CalibrationFile, error) {
	def := NewCalibrationFile(model.DefaultCalibration())
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return def, nil
		}
		return def, err
	}
	var f CalibrationFile
	if err := json.Unmarshal(data, &f); err != nil {
		return def, fmt.Errorf("corrupt calibration file %s: %w", path, err)
	}
	if warnings := f.Params.Validate(); len(warnings) > 0 {
		for _, w := range warnings {
			slog.Warn("calibration does not fit the page", "path", path, "warning", w)
		}
	}
	return f, nil
}

// SaveCalibration writes the store atomically.
func SaveCalibration(path string, f CalibrationFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// jsonKeys returns the top-level keys v encodes to.
func jsonKeys(v any) map[string]bool {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	keys := make(map[string]bool, len(m))
	for k := range m {
		keys[k] = true
	}
	return keys
}

func hasAny(doc map[string]json.RawMessage, keys map[string]bool) bool {
	for k := range doc {
		if keys[k] {
			return true
		}
	}
	return false
}

// mergeKeys encodes v and adds the extra keys it does not already set.
func mergeKeys(v any, extra map[string]json.RawMessage) (json.RawMessage, error) {
	raw, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return raw, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	for k, x := range extra {
		if _, ok := m[k]; !ok {
			m[k] = x
		}
	}
	return json.Marshal(m)
}
