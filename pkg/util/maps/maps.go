package maps

import (
	"fmt"
	"sort"
	"strings"
)

// Get returns the value for the given dotted key
func Get(m interface{}, key string) interface{} {
	var obj interface{} = m
	var val interface{} = nil

	parts := strings.Split(key, ".")
	for _, p := range parts {
		if v, ok := obj.(map[string]interface{}); ok {
			obj = v[p]
			val = obj
		} else {
			return nil
		}
	}
	return val
}

// Flatten returns the "key: value" lines of the given map, nested maps are flattened with dotted keys.
// Lines are sorted by key.
func Flatten(m map[string]interface{}) []string {
	var lines []string
	flatten(&lines, "", m)
	sort.Strings(lines)
	return lines
}

func flatten(lines *[]string, prefix string, m map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, isMap := v.(map[string]interface{}); isMap {
			flatten(lines, key, sub)
			continue
		}
		*lines = append(*lines, fmt.Sprintf("%s: %v", key, v))
	}
}
