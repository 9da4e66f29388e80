package service

import (
	"regexp"
	"strings"

	"github.com/formsink/formsink/internal/submissions/domain"
)

var (
	// keyFilter keeps word characters, whitespace, and hyphen.
	keyFilter = regexp.MustCompile(`[^\w\s-]`)
	// controlChars matches the C0 controls stripped from values. Tab, LF, and
	// CR survive.
	controlChars = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
)

const maxKeyLength = 100

// SanitizeKey filters a field name down to word characters, whitespace, and
// hyphen, truncated to 100 characters.
func SanitizeKey(key string) string {
	key = keyFilter.ReplaceAllString(key, "")
	if runes := []rune(key); len(runes) > maxKeyLength {
		return string(runes[:maxKeyLength])
	}
	return key
}

// SanitizeValue strips C0 control characters and trims surrounding
// whitespace. Embedded newlines are preserved.
func SanitizeValue(s string) string {
	return strings.TrimSpace(controlChars.ReplaceAllString(s, ""))
}

// sanitizeFields applies key and value sanitization to every remaining user
// field, element-wise for lists, preserving submission order. Fields still
// carrying the reserved prefix are dropped outright.
func sanitizeFields(fields *domain.FormData) *domain.FormData {
	out := domain.NewFormData()
	for _, key := range fields.Keys() {
		if strings.HasPrefix(key, domain.ReservedPrefix) {
			continue
		}
		v, _ := fields.Get(key)
		out.Set(SanitizeKey(key), v.Map(SanitizeValue))
	}
	return out
}
