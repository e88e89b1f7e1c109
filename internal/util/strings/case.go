package strings

import (
	"strings"
	"unicode"
)

// ToKebabCase converts camelCase to kebab-case.
// Handles acronyms properly (XMLParser -> xml-parser)
func ToKebabCase(s string) string {
	var result strings.Builder
	runes := []rune(s)

	for i, r := range runes {
		if r == '_' || r == ' ' {
			result.WriteRune('-')
			continue
		}
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				// Add hyphen before uppercase letter if:
				// 1. Previous char is lowercase or a digit
				// 2. Next char is lowercase (for acronyms like XMLParser -> xml-parser)
				if unicode.IsLower(prev) || unicode.IsDigit(prev) {
					result.WriteRune('-')
				} else if i+1 < len(runes) && unicode.IsLower(runes[i+1]) && prev != '-' && prev != '_' && prev != ' ' {
					result.WriteRune('-')
				}
			}
			result.WriteRune(unicode.ToLower(r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// ToCamelCase converts a kebab-case, snake_case or space-separated name to
// camelCase. The first word keeps everything but its leading rune lowercase,
// so already-camelCased input passes through unchanged.
func ToCamelCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	if len(words) == 0 {
		return ""
	}

	var result strings.Builder
	for i, word := range words {
		runes := []rune(word)
		if i == 0 {
			runes[0] = unicode.ToLower(runes[0])
		} else {
			runes[0] = unicode.ToUpper(runes[0])
		}
		result.WriteString(string(runes))
	}
	return result.String()
}
