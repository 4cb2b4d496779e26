package params

import (
	"strings"
)

// parseDocParams extracts per-parameter descriptions from free-text schema
// documentation. It looks for a "Parameters:" or "Args:" block whose entries
// have the shape "name: description", with deeper-indented continuation
// lines folded into the preceding entry. Parsing is best effort: malformed
// blocks yield an empty map, never an error, so the merge/injection
// contract stays independent of documentation formatting.
func parseDocParams(doc string) map[string]string {
	if strings.TrimSpace(doc) == "" {
		return nil
	}

	lines := strings.Split(doc, "\n")
	start := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		lowered := strings.ToLower(trimmed)
		if lowered == "parameters:" || lowered == "args:" {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}

	descriptions := map[string]string{}
	entryIndent := -1
	current := ""

	flushTo := func(name, text string) {
		if name == "" {
			return
		}
		descriptions[name] = strings.TrimSpace(text)
	}

	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			break
		}
		indent := indentWidth(line)
		if entryIndent < 0 {
			entryIndent = indent
		}
		if indent < entryIndent {
			// Dedent ends the block.
			break
		}

		if indent > entryIndent && current != "" {
			descriptions[current] += " " + strings.TrimSpace(line)
			continue
		}

		name, text, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			// Malformed entry; skip it rather than failing extraction.
			current = ""
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" || strings.ContainsAny(name, " \t") {
			current = ""
			continue
		}
		flushTo(name, text)
		current = name
	}

	if len(descriptions) == 0 {
		return nil
	}
	for name, text := range descriptions {
		descriptions[name] = strings.TrimSpace(text)
	}
	return descriptions
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}
