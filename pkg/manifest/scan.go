package manifest

import (
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// depTableKinds are the dependency table names cargo recognizes. The same
// names also appear under [target.<spec>.*] for platform-scoped dependencies.
var depTableKinds = map[string]bool{
	"dependencies":       true,
	"dev-dependencies":   true,
	"build-dependencies": true,
}

// scanSections parses the document and enumerates its dependency sections in
// declaration order. Entry values come from a full TOML decode; requirement
// byte spans come from a positional scan of the raw text so updates can
// rewrite exactly the requirement string and nothing else.
//
// Parameters:
//   - content: Raw Cargo.toml bytes
//
// Returns:
//   - []Section: Dependency sections in declaration order, entries in
//     declaration order within each section
//   - error: Returns error if the content is not valid TOML
func scanSections(content []byte) ([]Section, error) {
	var doc map[string]any
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}

	var sections []Section
	index := make(map[string]int)

	ensureSection := func(parts []string) int {
		key := strings.Join(parts, "\x00")
		if i, ok := index[key]; ok {
			return i
		}
		sections = append(sections, Section{
			TablePath: joinTablePath(parts),
			parts:     append([]string(nil), parts...),
		})
		index[key] = len(sections) - 1
		return len(sections) - 1
	}

	const (
		ctxNone = iota
		ctxSection
		ctxSubTable
	)

	ctx := ctxNone
	curSection := -1
	curEntry := -1

	pos := 0
	n := len(content)
	for pos < n {
		lineEnd := pos
		for lineEnd < n && content[lineEnd] != '\n' {
			lineEnd++
		}
		trimmed := strings.TrimSpace(string(content[pos:lineEnd]))

		switch {
		case trimmed == "" || strings.HasPrefix(trimmed, "#"):
			// blank line or comment

		case strings.HasPrefix(trimmed, "["):
			ctx, curSection, curEntry = ctxNone, -1, -1
			if strings.HasPrefix(trimmed, "[[") {
				break // arrays of tables are never dependency tables
			}
			parts, ok := parseTableHeader(trimmed)
			if !ok {
				break
			}
			tableParts, depName, isDep := classifyDepTable(parts)
			if !isDep {
				break
			}
			si := ensureSection(tableParts)
			if depName == "" {
				ctx, curSection = ctxSection, si
				break
			}
			// [dependencies.<name>] sub-table form: the table itself is the
			// entry; its version span is filled in by the key lines below.
			// The decoded document is the authority on whether the entry
			// really exists.
			table := lookupTable(doc, tableParts)
			value, declared := table[depName]
			if !declared {
				break
			}
			sections[si].Entries = append(sections[si].Entries, Entry{
				Name:     depName,
				Value:    value,
				reqStart: -1,
				reqEnd:   -1,
			})
			ctx, curSection, curEntry = ctxSubTable, si, len(sections[si].Entries)-1

		default:
			// Every key/value line is scanned, whatever table it lives in, so
			// multi-line values are always skipped in full. Otherwise a line
			// like "[dependencies]" inside a multi-line string would read as
			// a section header.
			keyParts, valueStart, ok := splitKeyValue(content, pos, lineEnd)
			if !ok {
				break
			}
			valueEnd, err := scanValue(content, valueStart)
			if err != nil {
				return nil, fmt.Errorf("invalid TOML near byte %d: %w", valueStart, err)
			}
			if valueEnd > lineEnd {
				// multi-line value: skip the scanner to the line it ends on
				lineEnd = valueEnd
				for lineEnd < n && content[lineEnd] != '\n' {
					lineEnd++
				}
			}

			if ctx == ctxNone {
				break
			}

			if ctx == ctxSection {
				table := lookupTable(doc, sections[curSection].parts)
				name := keyParts[0]
				value, declared := table[name]
				if !declared {
					break // not a real entry of the validated document
				}

				if len(keyParts) == 1 {
					entry := Entry{Name: name, Value: value, reqStart: -1, reqEnd: -1}
					if rs, re := requirementSpan(content, valueStart, valueEnd); rs >= 0 {
						entry.reqStart, entry.reqEnd = rs, re
						entry.Requirement = string(content[rs:re])
					}
					sections[curSection].Entries = append(sections[curSection].Entries, entry)
					break
				}

				// dotted declaration (serde.version = "1.0"): the first line
				// naming the crate creates the entry, the version line
				// contributes the requirement span
				if len(keyParts) == 2 {
					ei := ensureEntry(&sections[curSection], name, value)
					if keyParts[1] == "version" {
						if rs, re := stringLiteralSpan(content, valueStart, valueEnd); rs >= 0 {
							e := &sections[curSection].Entries[ei]
							e.reqStart, e.reqEnd = rs, re
							e.Requirement = string(content[rs:re])
						}
					}
				}
				break
			}

			if len(keyParts) == 1 && keyParts[0] == "version" && curEntry >= 0 {
				if rs, re := stringLiteralSpan(content, valueStart, valueEnd); rs >= 0 {
					e := &sections[curSection].Entries[curEntry]
					e.reqStart, e.reqEnd = rs, re
					e.Requirement = string(content[rs:re])
				}
			}
		}

		pos = lineEnd + 1
	}

	return sections, nil
}

// classifyDepTable decides whether a table header path names a dependency
// table or a dependency sub-table.
//
// Parameters:
//   - parts: The dotted header path, quotes already stripped
//
// Returns:
//   - []string: The dependency table path the entry belongs to
//   - string: The crate name for sub-table headers, empty for section headers
//   - bool: true if the header names a dependency table at all
func classifyDepTable(parts []string) ([]string, string, bool) {
	switch {
	case len(parts) == 1 && depTableKinds[parts[0]]:
		return parts, "", true
	case len(parts) == 2 && depTableKinds[parts[0]]:
		return parts[:1], parts[1], true
	case len(parts) == 3 && parts[0] == "target" && depTableKinds[parts[2]]:
		return parts, "", true
	case len(parts) == 4 && parts[0] == "target" && depTableKinds[parts[2]]:
		return parts[:3], parts[3], true
	}
	return nil, "", false
}

// parseTableHeader splits a [a.b.'c d'] header line into its key parts.
// Returns false for headers the scanner cannot make sense of; those are
// treated as non-dependency tables rather than errors, since the full TOML
// decode has already validated the document.
func parseTableHeader(line string) ([]string, bool) {
	s := line[1:]
	var parts []string
	i, n := 0, len(s)

	for {
		for i < n && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i >= n {
			return nil, false
		}

		var part string
		switch s[i] {
		case '"', '\'':
			q := s[i]
			j := i + 1
			for j < n && s[j] != q {
				if q == '"' && s[j] == '\\' {
					j++
				}
				j++
			}
			if j >= n {
				return nil, false
			}
			part = s[i+1 : j]
			i = j + 1
		default:
			j := i
			for j < n && s[j] != '.' && s[j] != ']' && s[j] != ' ' && s[j] != '\t' {
				j++
			}
			if j == i {
				return nil, false
			}
			part = s[i:j]
			i = j
		}
		parts = append(parts, part)

		for i < n && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
		if i < n && s[i] == '.' {
			i++
			continue
		}
		if i < n && s[i] == ']' {
			return parts, true
		}
		return nil, false
	}
}

// joinTablePath renders a table path the way it would be written in a
// header, quoting parts that are not bare keys.
func joinTablePath(parts []string) string {
	rendered := make([]string, len(parts))
	for i, p := range parts {
		if isBareKey(p) {
			rendered[i] = p
		} else {
			rendered[i] = "'" + p + "'"
		}
	}
	return strings.Join(rendered, ".")
}

// ensureEntry returns the index of the named entry in the section, appending
// one when it is not there yet. Dotted declarations spread one entry over
// several lines, and only the first line creates it.
func ensureEntry(sec *Section, name string, value any) int {
	for i := range sec.Entries {
		if sec.Entries[i].Name == name {
			return i
		}
	}
	sec.Entries = append(sec.Entries, Entry{Name: name, Value: value, reqStart: -1, reqEnd: -1})
	return len(sec.Entries) - 1
}

// lookupTable navigates the decoded document to the table at the given path.
// Returns nil when any part of the path is missing or not a table.
func lookupTable(doc map[string]any, parts []string) map[string]any {
	cur := doc
	for _, p := range parts {
		next, ok := cur[p].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// splitKeyValue parses a `key = value` line inside a table, including the
// dotted form (`serde.version = "1.0"`).
//
// Returns:
//   - []string: The key parts with quotes stripped, one per dotted segment
//   - int: Absolute byte offset where the value starts
//   - bool: false for lines the scanner skips (malformed lines)
func splitKeyValue(content []byte, pos, lineEnd int) ([]string, int, bool) {
	i := pos
	var parts []string

	for {
		for i < lineEnd && (content[i] == ' ' || content[i] == '\t') {
			i++
		}
		if i >= lineEnd {
			return nil, 0, false
		}

		switch content[i] {
		case '"', '\'':
			q := content[i]
			j := i + 1
			for j < lineEnd && content[j] != q {
				if q == '"' && content[j] == '\\' {
					j++
				}
				j++
			}
			if j >= lineEnd {
				return nil, 0, false
			}
			parts = append(parts, string(content[i+1:j]))
			i = j + 1
		default:
			j := i
			for j < lineEnd && isBareKeyByte(content[j]) {
				j++
			}
			if j == i {
				return nil, 0, false
			}
			parts = append(parts, string(content[i:j]))
			i = j
		}

		for i < lineEnd && (content[i] == ' ' || content[i] == '\t') {
			i++
		}
		if i < lineEnd && content[i] == '.' {
			i++
			continue
		}
		break
	}

	if i >= lineEnd || content[i] != '=' {
		return nil, 0, false
	}
	i++
	for i < lineEnd && (content[i] == ' ' || content[i] == '\t') {
		i++
	}
	if i >= lineEnd {
		return nil, 0, false
	}

	return parts, i, true
}

// scanValue returns the exclusive end offset of the TOML value starting at i.
// Inline tables nest, arrays and multi-line strings may span lines, and bare
// values run to the first comment or delimiter.
func scanValue(content []byte, i int) (int, error) {
	n := len(content)

	switch content[i] {
	case '"', '\'':
		return scanString(content, i)

	case '{':
		depth := 0
		j := i
		for j < n {
			switch content[j] {
			case '"', '\'':
				e, err := scanString(content, j)
				if err != nil {
					return 0, err
				}
				j = e
			case '{':
				depth++
				j++
			case '}':
				depth--
				j++
				if depth == 0 {
					return j, nil
				}
			case '\n':
				return 0, fmt.Errorf("unterminated inline table")
			default:
				j++
			}
		}
		return 0, fmt.Errorf("unterminated inline table")

	case '[':
		depth := 0
		j := i
		for j < n {
			switch content[j] {
			case '"', '\'':
				e, err := scanString(content, j)
				if err != nil {
					return 0, err
				}
				j = e
			case '[':
				depth++
				j++
			case ']':
				depth--
				j++
				if depth == 0 {
					return j, nil
				}
			case '#':
				for j < n && content[j] != '\n' {
					j++
				}
			default:
				j++
			}
		}
		return 0, fmt.Errorf("unterminated array")

	default:
		j := i
		for j < n && content[j] != '\n' && content[j] != '#' && content[j] != ',' && content[j] != '}' && content[j] != ']' {
			j++
		}
		for j > i && (content[j-1] == ' ' || content[j-1] == '\t' || content[j-1] == '\r') {
			j--
		}
		return j, nil
	}
}

// scanString returns the exclusive end offset of the string literal starting
// at i, handling basic, literal, and triple-quoted forms.
func scanString(content []byte, i int) (int, error) {
	n := len(content)
	q := content[i]

	if i+2 < n && content[i+1] == q && content[i+2] == q {
		j := i + 3
		for j <= n-3 {
			if content[j] == q && content[j+1] == q && content[j+2] == q {
				return j + 3, nil
			}
			if q == '"' && content[j] == '\\' {
				j++
			}
			j++
		}
		return 0, fmt.Errorf("unterminated string")
	}

	j := i + 1
	for j < n {
		c := content[j]
		if c == q {
			return j + 1, nil
		}
		if q == '"' && c == '\\' {
			j += 2
			continue
		}
		if c == '\n' {
			return 0, fmt.Errorf("unterminated string")
		}
		j++
	}
	return 0, fmt.Errorf("unterminated string")
}

// requirementSpan locates the version requirement string inside a dependency
// entry value: the literal itself for bare string values, the version
// attribute's literal for inline tables. Returns -1 offsets when the entry
// has no requirement string (git/path-only tables, workspace entries).
func requirementSpan(content []byte, vs, ve int) (int, int) {
	switch content[vs] {
	case '"', '\'':
		return stringLiteralSpan(content, vs, ve)
	case '{':
		return inlineVersionSpan(content, vs+1, ve-1)
	}
	return -1, -1
}

// stringLiteralSpan returns the byte span of a string literal's contents,
// excluding the quotes.
func stringLiteralSpan(content []byte, vs, ve int) (int, int) {
	if ve-vs < 2 {
		return -1, -1
	}
	q := content[vs]
	if q != '"' && q != '\'' {
		return -1, -1
	}
	if ve-vs >= 6 && content[vs+1] == q && content[vs+2] == q {
		return vs + 3, ve - 3
	}
	if content[ve-1] == q {
		return vs + 1, ve - 1
	}
	return -1, -1
}

// inlineVersionSpan walks the items of an inline table looking for a
// `version = "..."` attribute and returns its literal's span.
func inlineVersionSpan(content []byte, i, end int) (int, int) {
	for i < end {
		for i < end && (content[i] == ' ' || content[i] == '\t' || content[i] == ',') {
			i++
		}
		if i >= end {
			break
		}

		var key string
		if content[i] == '"' || content[i] == '\'' {
			e, err := scanString(content, i)
			if err != nil || e > end {
				return -1, -1
			}
			key = string(content[i+1 : e-1])
			i = e
		} else {
			j := i
			for j < end && isBareKeyByte(content[j]) {
				j++
			}
			if j == i {
				return -1, -1
			}
			key = string(content[i:j])
			i = j
		}

		for i < end && (content[i] == ' ' || content[i] == '\t') {
			i++
		}
		if i >= end || content[i] != '=' {
			return -1, -1
		}
		i++
		for i < end && (content[i] == ' ' || content[i] == '\t') {
			i++
		}
		if i >= end {
			break
		}

		vs := i
		e, err := scanValue(content, i)
		if err != nil || e > end {
			return -1, -1
		}
		if key == "version" {
			return stringLiteralSpan(content, vs, e)
		}
		i = e
	}
	return -1, -1
}

// isBareKeyByte reports whether b may appear in a bare TOML key.
func isBareKeyByte(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// isBareKey reports whether s can be written as a bare TOML key.
func isBareKey(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isBareKeyByte(s[i]) {
			return false
		}
	}
	return true
}
