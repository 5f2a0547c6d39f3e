// Package personalize turns stored template bodies into personalized,
// trackable email content.
package personalize

import (
	"regexp"
	"sort"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.\-]+)\s*\}\}`)

// Token returns the canonical placeholder literal for name.
func Token(name string) string {
	return "{{" + name + "}}"
}

// Detect returns the sorted, distinct placeholder names found in text.
func Detect(text string) []string {
	return DetectAll(text)
}

// DetectAll merges Detect over several bodies.
func DetectAll(texts ...string) []string {
	seen := make(map[string]struct{})
	for _, text := range texts {
		for _, m := range placeholderPattern.FindAllStringSubmatch(text, -1) {
			seen[m[1]] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Fill substitutes every known placeholder in a single pass. Unknown
// placeholders are left exactly as written.
func Fill(text string, values map[string]string) string {
	matches := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		name := text[m[2]:m[3]]

		b.WriteString(text[last:start])
		if v, ok := values[name]; ok {
			b.WriteString(v)
		} else {
			b.WriteString(text[start:end])
		}
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}
