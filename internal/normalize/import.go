package normalize

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrInvalidPayload marks a provider-import payload the caller got wrong:
// not an object or array, or items that are not JSON objects.
var ErrInvalidPayload = eris.New("normalize: invalid provider payload")

// defaultImportQuery labels imports whose payload carries no query text.
const defaultImportQuery = "provider_import"

// ExtractPayload pulls the item list and the free-text query label out of an
// arbitrary provider export: a bare array, an object wrapping items under
// items/data/results, or a single bare object treated as one item.
func ExtractPayload(payload any) ([]map[string]any, string, error) {
	if list, ok := payload.([]any); ok {
		items, err := ensureItemObjects(list)
		return items, defaultImportQuery, err
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, "", eris.Wrap(ErrInvalidPayload, "payload must be a JSON object or array")
	}

	var candidate any
	for _, key := range []string{"items", "data", "results"} {
		if v, ok := obj[key]; ok && v != nil {
			candidate = v
			break
		}
	}
	if candidate == nil {
		if len(obj) > 0 {
			candidate = []any{payload}
		} else {
			candidate = []any{}
		}
	}

	list, ok := candidate.([]any)
	if !ok {
		return nil, "", eris.Wrap(ErrInvalidPayload, "provider payload items must be an array")
	}

	items, err := ensureItemObjects(list)
	if err != nil {
		return nil, "", err
	}

	return items, importQueryText(obj), nil
}

func importQueryText(obj map[string]any) string {
	for _, key := range []string{"query", "searchQuery", "search_string", "searchString"} {
		switch v := obj[key].(type) {
		case nil:
		case string:
			if v != "" {
				return v
			}
		default:
			return fmt.Sprint(v)
		}
	}
	return defaultImportQuery
}

func ensureItemObjects(list []any) ([]map[string]any, error) {
	items := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			return nil, eris.Wrap(ErrInvalidPayload, "each provider item must be a JSON object")
		}
		items = append(items, obj)
	}
	return items, nil
}
