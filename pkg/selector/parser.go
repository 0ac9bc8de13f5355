// Package selector parses component/directive selectors and resolves template
// usages (element tags, attributes, classes and pipe names) to entities.
package selector

import (
	"strings"
)

// Compound is one comma-separated part of a selector, e.g. button[mat-button].primary
type Compound struct {
	Element    string   // Element name, empty if the compound has none
	Attributes []string // Attribute names, without brackets or values
	Classes    []string // Class names, without the leading dot
}

// Parse splits a selector into its compound selectors.
// :not(...) groups and other pseudo selectors are ignored.
func Parse(selector string) []Compound {
	var compounds []Compound
	for _, part := range splitTopLevel(selector) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		c := parseCompound(part)
		if c.Element == "" && len(c.Attributes) == 0 && len(c.Classes) == 0 {
			continue
		}
		compounds = append(compounds, c)
	}
	return compounds
}

// splitTopLevel splits on commas that are not nested in brackets or parentheses
func splitTopLevel(s string) []string {
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(':
			depth++
		case ']', ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func parseCompound(s string) Compound {
	var c Compound

	i := 0
	n := scanName(s, i)
	c.Element = s[i:n]
	i = n

	for i < len(s) {
		switch s[i] {
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				end = len(s) - i
			}
			if name := AttributeName(s[i+1 : i+end]); name != "" {
				c.Attributes = append(c.Attributes, name)
			}
			i += end + 1

		case '.':
			n := scanName(s, i+1)
			if n > i+1 {
				c.Classes = append(c.Classes, s[i+1:n])
			}
			i = n

		case ':':
			i = skipPseudo(s, i)

		default:
			i++
		}
	}
	return c
}

// AttributeName extracts the attribute name from bracket content: "type=submit" -> "type"
func AttributeName(content string) string {
	if idx := strings.IndexAny(content, "~|^$*="); idx >= 0 {
		content = content[:idx]
	}
	return strings.TrimSpace(content)
}

func scanName(s string, i int) int {
	for i < len(s) && isNameChar(s[i]) {
		i++
	}
	return i
}

func isNameChar(b byte) bool {
	return b == '-' || b == '_' ||
		(b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// skipPseudo skips ":name" and a following parenthesized argument, if any
func skipPseudo(s string, i int) int {
	i = scanName(s, i+1)
	if i < len(s) && s[i] == '(' {
		depth := 0
		for ; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return i + 1
				}
			}
		}
	}
	return i
}
