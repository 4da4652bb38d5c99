// Package jsonrepair applies best-effort fixes to the JSON-shaped text
// that generative models return: markdown fences, smart quotes,
// single-quoted strings, trailing commas and unbalanced brackets.
package jsonrepair

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RepairError reports that the input could not be parsed even after
// repair. Raw carries the original model output for operator inspection.
type RepairError struct {
	Raw string
	Err error
}

func (e *RepairError) Error() string {
	return fmt.Sprintf("unrepairable JSON: %v", e.Err)
}

func (e *RepairError) Unwrap() error {
	return e.Err
}

// StripFences removes markdown code-fence lines (``` or ```json) from
// the text, leaving the fenced content.
func StripFences(s string) string {
	if !strings.Contains(s, "```") {
		return strings.TrimSpace(s)
	}
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// Parse attempts a strict parse of raw into v; on failure it runs one
// repair pass and retries. A second failure yields a RepairError
// carrying the raw text. No further retries are attempted.
func Parse(raw string, v interface{}) error {
	cleaned := StripFences(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err == nil {
		return nil
	}
	repaired := Repair(cleaned)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return &RepairError{Raw: raw, Err: err}
	}
	return nil
}

// Repair rewrites s into the closest well-formed JSON it can produce.
// It is a single forward scan: quote normalization, trailing-comma
// removal, stray-closer dropping and bracket balancing at the end.
func Repair(s string) string {
	// Smart quotes come from models echoing prose; fold them first.
	s = strings.NewReplacer("“", `"`, "”", `"`, "‘", "'", "’", "'").Replace(s)

	// Cut any leading prose before the first brace or bracket.
	if i := strings.IndexAny(s, "{["); i > 0 {
		s = s[i:]
	}

	var b strings.Builder
	var stack []byte
	inString := false
	singleQuoted := false
	escaped := false

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inString {
			switch {
			case escaped:
				b.WriteRune(r)
				escaped = false
			case r == '\\':
				b.WriteRune(r)
				escaped = true
			case !singleQuoted && r == '"':
				b.WriteRune('"')
				inString = false
			case singleQuoted && r == '\'':
				b.WriteRune('"')
				inString = false
			case singleQuoted && r == '"':
				// A double quote inside a single-quoted string must be
				// escaped once the delimiters are normalized.
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
			continue
		}

		switch r {
		case '"':
			inString = true
			singleQuoted = false
			b.WriteRune('"')
		case '\'':
			inString = true
			singleQuoted = true
			b.WriteRune('"')
		case '{':
			stack = append(stack, '}')
			b.WriteRune(r)
		case '[':
			stack = append(stack, ']')
			b.WriteRune(r)
		case '}', ']':
			if len(stack) == 0 {
				continue // stray closer
			}
			// Close what is actually open, even if the model mixed
			// bracket kinds.
			b.WriteByte(stack[len(stack)-1])
			stack = stack[:len(stack)-1]
		case ',':
			if next := nextNonSpace(runes, i+1); next == '}' || next == ']' || next == 0 {
				continue // trailing comma
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}

	if inString {
		b.WriteRune('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

func nextNonSpace(runes []rune, from int) rune {
	for i := from; i < len(runes); i++ {
		switch runes[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return runes[i]
		}
	}
	return 0
}
