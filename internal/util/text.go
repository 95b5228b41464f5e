package util

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and joins its alphanumeric runs with hyphens
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.TrimSuffix(b.String(), "-")
	if runes := []rune(slug); len(runes) > 200 {
		slug = strings.TrimSuffix(string(runes[:200]), "-")
	}
	if slug == "" {
		return "untitled"
	}
	return slug
}

// Excerpt returns the first max runes of content, ellipsized
func Excerpt(content string, max int) string {
	content = strings.Join(strings.Fields(content), " ")
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}

// ReadingTime estimates minutes at 200 words per minute, at least 1
func ReadingTime(content string) int {
	minutes := (len(strings.Fields(content)) + 199) / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}

// Contains reports whether list holds s
func Contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
