package command

import "strings"

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Line is the 1-based source line, zero for a standalone Parse.
	Line int
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command.
	Args []string
	// RawArgs is the raw text after the command (preserving spacing for report).
	RawArgs string
}

// Parse splits a text line into a command and arguments. Anything after a
// '#' is a comment.
//
// Postcondition: Returns a ParseResult. If line is blank, Command is empty.
func Parse(line string) ParseResult {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return ParseResult{}
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	var args []string
	if rest != "" {
		args = strings.Fields(rest)
	}
	return ParseResult{
		Command: strings.ToLower(cmd),
		Args:    args,
		RawArgs: rest,
	}
}

// ParseProgram parses src one instruction per line, skipping blank and
// comment-only lines.
//
// Postcondition: every result has a non-empty Command and its source Line.
func ParseProgram(src string) []ParseResult {
	var out []ParseResult
	for i, line := range strings.Split(src, "\n") {
		res := Parse(line)
		if res.Command == "" {
			continue
		}
		res.Line = i + 1
		out = append(out, res)
	}
	return out
}
