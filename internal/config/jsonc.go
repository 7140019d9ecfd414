package config

import (
	"strings"
)

// StripJSONComments removes // and /* */ comments and trailing commas from
// JSONC content. String literals are left untouched.
func StripJSONComments(data []byte) []byte {
	input := string(data)
	var result strings.Builder
	result.Grow(len(input))

	i := 0
	inString := false
	escaped := false
	for i < len(input) {
		c := input[i]

		if inString {
			result.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			i++
			continue
		}

		if c == '"' {
			inString = true
			result.WriteByte(c)
			i++
			continue
		}

		// Line comment
		if c == '/' && i+1 < len(input) && input[i+1] == '/' {
			for i < len(input) && input[i] != '\n' {
				i++
			}
			continue
		}

		// Block comment
		if c == '/' && i+1 < len(input) && input[i+1] == '*' {
			i += 2
			for i+1 < len(input) && !(input[i] == '*' && input[i+1] == '/') {
				i++
			}
			i += 2
			continue
		}

		if c == ',' && closesAfter(input, i+1) {
			i++
			continue
		}

		result.WriteByte(c)
		i++
	}

	return []byte(result.String())
}

// closesAfter reports whether the next significant character at or after
// pos is a closing bracket, skipping whitespace and comments.
func closesAfter(input string, pos int) bool {
	for pos < len(input) {
		switch c := input[pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pos++
		case c == '/' && pos+1 < len(input) && input[pos+1] == '/':
			for pos < len(input) && input[pos] != '\n' {
				pos++
			}
		case c == '/' && pos+1 < len(input) && input[pos+1] == '*':
			pos += 2
			for pos+1 < len(input) && !(input[pos] == '*' && input[pos+1] == '/') {
				pos++
			}
			pos += 2
		default:
			return c == '}' || c == ']'
		}
	}
	return false
}
