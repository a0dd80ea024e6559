package judge

import (
	"sort"
	"strings"
)

// languageIDs maps the platform's language names to the judge's numeric ids.
// The supported set is fixed; extending it means the starter code and
// reference solutions stored on problems must grow the same keys.
var languageIDs = map[string]int{
	"cpp":        54,
	"java":       62,
	"javascript": 63,
}

// ResolveLanguage maps a language name to the judge's language id.
// Lookup is case-insensitive. The second return value reports whether the
// language is supported; callers must reject unsupported languages before
// dispatching anything to the judge.
func ResolveLanguage(name string) (int, bool) {
	id, ok := languageIDs[strings.ToLower(strings.TrimSpace(name))]
	return id, ok
}

// SupportedLanguages returns the supported language names, sorted.
func SupportedLanguages() []string {
	names := make([]string, 0, len(languageIDs))
	for name := range languageIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
