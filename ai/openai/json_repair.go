package openai

import "strings"

// repairJSON fixes a common failure mode in small-model JSON output:
// object keys missing their opening quote, e.g. `{category": "lookup"}`.
func repairJSON(s string) string {
	runes := []rune(s)
	var out strings.Builder
	out.Grow(len(s) + 16)

	i := 0
	for i < len(runes) {
		ch := runes[i]
		out.WriteRune(ch)
		i++

		if ch != '{' && ch != ',' {
			continue
		}

		// Skip whitespace after { or ,
		for i < len(runes) && (runes[i] == ' ' || runes[i] == '\n' || runes[i] == '\t') {
			out.WriteRune(runes[i])
			i++
		}

		if i >= len(runes) || runes[i] == '"' || !isLetter(runes[i]) {
			continue
		}

		// Possible unquoted key, find its extent
		keyStart := i
		for i < len(runes) && (isLetter(runes[i]) || runes[i] == '_') {
			i++
		}

		if i+1 < len(runes) && runes[i] == '"' && runes[i+1] == ':' {
			// Bare key followed by ":  -> insert the missing quote
			out.WriteRune('"')
		}
		out.WriteString(string(runes[keyStart:i]))
	}

	return out.String()
}
