package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Params are the request parameters that, together with the path, identify a
// cached response. Values are expected to be one of: string, bool, an integer
// or float type, nil, []any (or any typed slice of those), or map[string]any.
type Params map[string]any

// Key generates a deterministic cache key string from a path and its parameters.
// Format: path?key1=val1&key2=val2
//
// Keys are sorted at every mapping level so two parameter sets that differ only
// in insertion order produce the same key. Nested mappings are rendered as a
// list of sorted key:value pairs. Names and string values are query-escaped,
// so separators inside a value never read as structure.
//
// Example:
//
//	Key("/pages/home", Params{"lang": "en", "page": 2}) == "/pages/home?lang=en&page=2"
func Key(path string, params Params) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+canonical(params[k]))
	}

	return path + "?" + strings.Join(parts, "&")
}

// canonical renders a parameter value for a key. It never fails: values
// outside the supported variant fall back to their fmt representation.
func canonical(v any) string {
	return render(v, url.QueryEscape)
}

// render stringifies v, passing every scalar text through esc.
func render(v any, esc func(string) string) string {
	if list, ok := asList(v); ok {
		items := make([]string, 0, len(list))
		for _, item := range list {
			items = append(items, render(item, esc))
		}
		return "[" + strings.Join(items, ",") + "]"
	}

	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return esc(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", val)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case Params:
		return renderMap(val, esc)
	case map[string]any:
		return renderMap(val, esc)
	case map[string]string:
		m := make(map[string]any, len(val))
		for k, s := range val {
			m[k] = s
		}
		return renderMap(m, esc)
	case fmt.Stringer:
		return esc(val.String())
	default:
		return esc(fmt.Sprintf("%v", val))
	}
}

func renderMap(m map[string]any, esc func(string) string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, strconv.Quote(esc(k)+":"+render(m[k], esc)))
	}
	return "[" + strings.Join(pairs, ",") + "]"
}

// asList reports whether v is one of the supported list types.
func asList(v any) ([]any, bool) {
	switch val := v.(type) {
	case []any:
		return val, true
	case []string:
		list := make([]any, len(val))
		for i, s := range val {
			list[i] = s
		}
		return list, true
	case []int:
		list := make([]any, len(val))
		for i, n := range val {
			list[i] = n
		}
		return list, true
	default:
		return nil, false
	}
}

func unescaped(s string) string { return s }

// QueryValues renders params as URL query values for the origin request.
// A list becomes one value per element, in order; url.Values.Encode does
// the escaping.
func QueryValues(params Params) url.Values {
	values := make(url.Values, len(params))
	for k, v := range params {
		if list, ok := asList(v); ok {
			for _, item := range list {
				values.Add(k, render(item, unescaped))
			}
			continue
		}
		values.Set(k, render(v, unescaped))
	}
	return values
}
