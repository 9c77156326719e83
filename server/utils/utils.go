package utils

import (
	"strings"
	"unicode"
)

// ParseInput splits a slash command into its arguments. The trigger is removed,
// double quotes group words into one argument and a backslash escapes the next rune.
func ParseInput(input, trigger string) []string {
	// Transform curly quotes to straight quotes
	input = strings.Map(func(in rune) rune {
		switch in {
		case '“', '”':
			return '"'
		}

		return in
	}, input)

	input = strings.TrimSpace(strings.TrimPrefix(input, "/"+trigger))

	fields := []string{}
	escaped := false
	quoted := false
	var word strings.Builder

	addField := func() {
		w := strings.TrimSpace(word.String())
		word.Reset()
		if w == "" {
			return
		}
		fields = append(fields, w)
	}

	for _, c := range input {
		switch {
		case c == '"' && !escaped:
			quoted = !quoted
		case c == '\\' && !escaped:
		case unicode.IsSpace(c) && !quoted && !escaped:
			addField()
		default:
			word.WriteRune(c)
		}
		escaped = c == '\\' && !escaped
	}
	addField()

	return fields
}
