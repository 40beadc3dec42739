package ingest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// JSONImporter handles .json exports.
//
// Accepted shapes:
//   - a string: the text itself
//   - an object with a "text" or "content" string
//   - an object with a "notes" array, or a bare array, whose elements are
//     strings or objects with "text"/"content"
//
// Array elements are joined with a blank line in order.
type JSONImporter struct{}

// CanHandle returns true for JSON file extensions.
func (j *JSONImporter) CanHandle(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".json"
}

// Name returns "json".
func (j *JSONImporter) Name() string { return "json" }

// Decode extracts clinical text from a JSON envelope.
func (j *JSONImporter) Decode(data []byte) (string, error) {
	if hasBOM(data) {
		data = data[len(bom):]
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}

	switch v := raw.(type) {
	case string:
		return v, nil
	case []interface{}:
		return joinElements(v)
	case map[string]interface{}:
		if s, ok := textField(v); ok {
			return s, nil
		}
		if notes, ok := v["notes"].([]interface{}); ok {
			return joinElements(notes)
		}
		return "", fmt.Errorf("object has no text, content or notes field")
	default:
		return "", fmt.Errorf("unsupported JSON value %T", raw)
	}
}

func textField(obj map[string]interface{}) (string, bool) {
	for _, k := range []string{"text", "content"} {
		if s, ok := obj[k].(string); ok {
			return s, true
		}
	}
	return "", false
}

func joinElements(elems []interface{}) (string, error) {
	parts := make([]string, 0, len(elems))
	for i, elem := range elems {
		switch e := elem.(type) {
		case string:
			parts = append(parts, e)
		case map[string]interface{}:
			s, ok := textField(e)
			if !ok {
				return "", fmt.Errorf("element [%d] has no text or content field", i)
			}
			parts = append(parts, s)
		default:
			return "", fmt.Errorf("element [%d]: unsupported JSON value %T", i, elem)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}
