package compiler

import (
	"regexp"
	"strings"
)

var (
	reTextID    = regexp.MustCompile(`\s*@([^@\s]+)@\s*$`)
	reLabel     = regexp.MustCompile(`^:\s*([A-Za-z0-9_.\-]+)\s*$`)
	reGoto      = regexp.MustCompile(`(?i)^\[go\s*to\s+([^\]\s]+)\s*\]$`)
	reSet       = regexp.MustCompile(`(?i)^\[set\s+([^\s\]]+)\s+(.+)\]$`)
	reEvent     = regexp.MustCompile(`(?i)^\[event\s+([^\s\]]+)\s*(.*)\]$`)
	reIf        = regexp.MustCompile(`(?i)^\[if\s+(.+)\]$`)
	reElseIf    = regexp.MustCompile(`(?i)^\[else\s*if\s+(.+)\]$`)
	reElse      = regexp.MustCompile(`(?i)^\[else\]$`)
	reEndIf     = regexp.MustCompile(`(?i)^\[end\s*if\]$`)
	reSpeaker   = regexp.MustCompile(`^([^\s:\[\]*@{}]+):\s*(.*)$`)
	reParameter = regexp.MustCompile(`\{([^{}]+)\}`)
)

type condKind int

const (
	condNone condKind = iota
	condIf
	condElseIf
	condElse
	condEndIf
)

// classifyCond recognises conditional lines, returning the guard for if/elseif.
func classifyCond(line string) (condKind, string) {
	if m := reElseIf.FindStringSubmatch(line); m != nil {
		return condElseIf, m[1]
	}
	if m := reIf.FindStringSubmatch(line); m != nil {
		return condIf, m[1]
	}
	if reElse.MatchString(line) {
		return condElse, ""
	}
	if reEndIf.MatchString(line) {
		return condEndIf, ""
	}
	return condNone, ""
}

// measureIndent counts leading whitespace columns, a tab counting as tabWidth.
func measureIndent(line string, tabWidth int) (int, string) {
	indent := 0
	for i, r := range line {
		switch r {
		case ' ':
			indent++
		case '\t':
			indent += tabWidth
		default:
			return indent, line[i:]
		}
	}
	return indent, ""
}

// splitTextID strips a trailing @id@ marker.
func splitTextID(s string) (string, string) {
	loc := reTextID.FindStringSubmatchIndex(s)
	if loc == nil {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(s[:loc[0]]), s[loc[2]:loc[3]]
}

// parameterNames returns the unique {Name} parameters of a line of text.
func parameterNames(text string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, m := range reParameter.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name != "" && !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// splitArgs splits event arguments on commas outside quotes, braces and parentheses.
func splitArgs(s string) []string {
	var (
		out     []string
		depth   int
		inQuote bool
		start   int
	)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\' && inQuote:
			i++
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(' || c == '{':
			depth++
		case c == ')' || c == '}':
			depth--
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if last := strings.TrimSpace(s[start:]); last != "" || len(out) > 0 {
		out = append(out, last)
	}
	return out
}

func isComment(trimmed string) bool { return strings.HasPrefix(trimmed, "#") }
func isChoice(trimmed string) bool  { return strings.HasPrefix(trimmed, "*") }
