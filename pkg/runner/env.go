package runner

import (
	"sort"
	"strings"
)

// MergeEnv overlays env onto base, a list of KEY=VALUE entries as returned
// by os.Environ. Overlay values win on key collision and keys only present in
// the overlay are appended in sorted order. Neither argument is modified.
func MergeEnv(base []string, overlay map[string]string) []string {
	index := make(map[string]int, len(base)+len(overlay))
	merged := make([]string, 0, len(base)+len(overlay))

	for _, entry := range base {
		key := envKey(entry)
		if i, ok := index[key]; ok {
			merged[i] = entry
			continue
		}
		index[key] = len(merged)
		merged = append(merged, entry)
	}

	keys := make([]string, 0, len(overlay))
	for k := range overlay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		entry := k + "=" + overlay[k]
		if i, ok := index[k]; ok {
			merged[i] = entry
			continue
		}
		index[k] = len(merged)
		merged = append(merged, entry)
	}

	return merged
}

// envKey returns the name part of a KEY=VALUE entry. A leading '=' belongs
// to the name, as in the per-drive entries found on Windows.
func envKey(entry string) string {
	start := 0
	if strings.HasPrefix(entry, "=") {
		start = 1
	}
	if i := strings.IndexByte(entry[start:], '='); i >= 0 {
		return entry[:start+i]
	}
	return entry
}

// EnvMap converts KEY=VALUE entries into a map. Later entries win.
func EnvMap(entries []string) map[string]string {
	m := make(map[string]string, len(entries))
	for _, entry := range entries {
		key := envKey(entry)
		value := ""
		if len(entry) > len(key) {
			value = entry[len(key)+1:]
		}
		m[key] = value
	}
	return m
}
