package llm

import (
	"encoding/json"
	"strings"
)

// DecodeObject coerces raw model output into a JSON object. Strict parsing
// runs first; only when that fails does it fall back to the widest
// brace-delimited span. Collapsing to a single regex pass would mis-handle
// legitimately nested braces, so both stages stay in this order.
func DecodeObject(text string) (map[string]any, bool) {
	cleaned := stripCodeFences(text)
	if cleaned == "" {
		return nil, false
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err == nil {
		return obj, true
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return nil, false
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// DecodeArray is DecodeObject for bare JSON arrays.
func DecodeArray(text string) ([]any, bool) {
	cleaned := stripCodeFences(text)
	if cleaned == "" {
		return nil, false
	}

	var arr []any
	if err := json.Unmarshal([]byte(cleaned), &arr); err == nil {
		return arr, true
	}

	start := strings.Index(cleaned, "[")
	end := strings.LastIndex(cleaned, "]")
	if start < 0 || end <= start {
		return nil, false
	}
	if err := json.Unmarshal([]byte(cleaned[start:end+1]), &arr); err != nil {
		return nil, false
	}
	return arr, true
}

// stripCodeFences removes markdown fence markers models like to wrap JSON in.
func stripCodeFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.Trim(cleaned, "`")
		cleaned = strings.TrimSpace(cleaned)
		if strings.HasPrefix(strings.ToLower(cleaned), "json") {
			cleaned = strings.TrimSpace(cleaned[4:])
		}
	}
	return cleaned
}
