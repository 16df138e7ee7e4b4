package game

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims surrounding whitespace and composes the name to NFC so
// visually identical names compare equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// FoldName is the key used for case-insensitive uniqueness checks.
func FoldName(name string) string {
	// A Caser keeps state between calls, so build one per use.
	return cases.Fold().String(NormalizeName(name))
}

// SameName reports whether two names collide under case-insensitive comparison.
func SameName(a, b string) bool {
	return FoldName(a) == FoldName(b)
}

// IsSentinel reports whether name refers to the required attribute.
func IsSentinel(name string) bool {
	return SameName(name, SentinelAttribute)
}

func allowedNameRune(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r):
		return true
	case r == ' ', r == '-', r == '_', r == '\'':
		return true
	}
	// Combining marks left after NFC (e.g. scripts without precomposed forms).
	return unicode.Is(unicode.Mn, r)
}

// CheckName normalizes name and validates it against the length limit and the
// allowed character set. The returned error is a ValidationError for field.
func CheckName(field, name string, maxLen int) (string, error) {
	n := NormalizeName(name)
	if n == "" {
		return "", ValidationError{Field: field, Message: "name is required"}
	}
	if utf8.RuneCountInString(n) > maxLen {
		return "", ValidationError{Field: field, Message: fmt.Sprintf("name must be at most %d characters", maxLen)}
	}
	for _, r := range n {
		if !allowedNameRune(r) {
			return "", ValidationError{Field: field, Message: fmt.Sprintf("name contains a disallowed character %q", r)}
		}
	}
	return n, nil
}
