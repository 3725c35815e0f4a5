// Package notation parses the journal activity notation: prose entries
// carrying key:: value segments with chained sub-keys, comma-separated
// sibling values, and typed attribute tokens.
package notation

import (
	"strings"
)

// Marker separates a key from its value within an entry.
const Marker = "::"

// SplitEntries splits raw journal text into candidate entry segments.
// Segments end at newlines or at sentence-terminating periods; only
// segments containing at least one :: marker are returned, everything
// else is ordinary prose. Never fails on malformed input.
func SplitEntries(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		for _, seg := range splitSentences(line) {
			seg = strings.TrimSpace(seg)
			if seg == "" || !strings.Contains(seg, Marker) {
				continue
			}
			out = append(out, seg)
		}
	}
	return out
}

// splitSentences splits a line on periods that terminate a sentence.
// A period is a terminator when followed by whitespace or end-of-line,
// unless it sits inside double quotes, belongs to a numeric token (3.5),
// or ends a dotted abbreviation (e.g., i.e.) whose token already contains
// an earlier period.
func splitSentences(line string) []string {
	var out []string
	start := 0
	inQuote := false
	for i := 0; i < len(line); i++ {
		if line[i] == '"' {
			inQuote = !inQuote
			continue
		}
		if line[i] != '.' || inQuote {
			continue
		}
		if i+1 < len(line) && !isSpace(line[i+1]) {
			continue
		}
		if tokenHasEarlierDot(line, start, i) {
			continue
		}
		out = append(out, line[start:i])
		start = i + 1
	}
	if start < len(line) {
		out = append(out, line[start:])
	}
	return out
}

// tokenHasEarlierDot reports whether the token ending at line[end] contains
// another period, which marks it as an abbreviation rather than a sentence end.
func tokenHasEarlierDot(line string, start, end int) bool {
	i := end - 1
	for i >= start && !isSpace(line[i]) {
		if line[i] == '.' {
			return true
		}
		i--
	}
	return false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}
