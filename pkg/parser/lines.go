package parser

import "strings"

// CountPhysicalLines returns the number of "physical" source lines: lines
// that are not blank, not comment-only, and not inside a multi-line string
// literal. The opening line of a triple-quoted string still counts because
// it carries code; continuation lines up to and including the closer do not.
func CountPhysicalLines(source []byte) int {
	count := 0
	inString := false
	var delim string

	for _, line := range strings.Split(string(source), "\n") {
		if inString {
			if idx := strings.Index(line, delim); idx >= 0 {
				inString = false
				// Anything after the closer on the same line is almost
				// always the end of a docstring; the line stays skipped.
			}
			continue
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		if open, d := opensMultilineString(line); open {
			inString = true
			delim = d
		}
		count++
	}

	return count
}

// opensMultilineString reports whether a line opens a triple-quoted string
// that is not closed on the same line, and returns the delimiter.
func opensMultilineString(line string) (bool, string) {
	rest := line
	for {
		di := strings.Index(rest, `"""`)
		si := strings.Index(rest, "'''")
		var delim string
		var idx int
		switch {
		case di < 0 && si < 0:
			return false, ""
		case si < 0 || (di >= 0 && di < si):
			delim, idx = `"""`, di
		default:
			delim, idx = "'''", si
		}
		rest = rest[idx+len(delim):]
		if closeIdx := strings.Index(rest, delim); closeIdx >= 0 {
			// Opened and closed on the same line; keep scanning.
			rest = rest[closeIdx+len(delim):]
			continue
		}
		return true, delim
	}
}

// TotalLines returns the raw line count of the source.
func TotalLines(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	n := strings.Count(string(source), "\n") + 1
	if source[len(source)-1] == '\n' {
		n--
	}
	return n
}
