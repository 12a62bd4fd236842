package search

import (
	"strings"
	"unicode"
)

// tsqueryReserved are characters with meaning in to_tsquery syntax.
const tsqueryReserved = `'&|!*?:\`

// BuildTSQuery turns free search text into a to_tsquery expression where every
// token is a prefix match and all tokens must match:
//
//	"go  dev'ops" -> "go:* & devops:*"
//
// It returns "" when nothing searchable remains.
func BuildTSQuery(term string) string {
	term = strings.TrimSpace(term)
	if term == "" {
		return ""
	}

	tokens := strings.FieldsFunc(term, unicode.IsSpace)
	parts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = stripReserved(tok)
		if tok == "" {
			continue
		}
		parts = append(parts, tok+":*")
	}
	return strings.Join(parts, " & ")
}

func stripReserved(tok string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(tsqueryReserved, r) {
			return -1
		}
		return r
	}, tok)
}

// NormalizeQuery lowercases, drops anything that is not a letter, number or
// space, and collapses runs of spaces. Used for cache keys.
func NormalizeQuery(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}
	input = strings.ToLower(input)

	b := strings.Builder{}
	b.Grow(len(input))
	lastWasSpace := false

	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(r)
			lastWasSpace = false
			continue
		}
		if unicode.IsSpace(r) {
			if b.Len() == 0 || lastWasSpace {
				continue
			}
			b.WriteByte(' ')
			lastWasSpace = true
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
