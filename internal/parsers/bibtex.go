package parsers

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nickng/bibtex"
)

// The bibtex package keeps lexer state in package variables, so parses are
// serialized and the state is cleared after each one.
var parseMu sync.Mutex

// BibEntry is one bibliography record with lowercase field names and
// unwrapped values.
type BibEntry struct {
	Type   string
	Key    string
	Fields map[string]string
}

// Get returns a field value. "ID" resolves to the citation key and "ENTRYTYPE"
// to the entry type, so callers can address every attribute the same way.
func (e BibEntry) Get(name string) (string, bool) {
	switch name {
	case "ID":
		return e.Key, e.Key != ""
	case "ENTRYTYPE":
		return e.Type, e.Type != ""
	}
	v, ok := e.Fields[strings.ToLower(name)]
	return v, ok
}

// ParseBibTeX reads a whole bibliography. Entries keep their file order.
// Text outside @type{...} blocks, such as % comment lines or an exporter's
// header, is ignored. Any syntax error inside a block fails the whole document.
func ParseBibTeX(r io.Reader) ([]BibEntry, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read bibtex: %w", err)
	}
	src := entryBlocks(string(raw))
	if strings.TrimSpace(src) == "" {
		return []BibEntry{}, nil
	}

	doc, err := parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid bibtex: %w", err)
	}

	entries := make([]BibEntry, 0, len(doc.Entries))
	for _, raw := range doc.Entries {
		if raw == nil {
			continue
		}
		entry := BibEntry{
			Type:   strings.ToLower(strings.TrimSpace(raw.Type)),
			Key:    strings.TrimSpace(raw.CiteName),
			Fields: make(map[string]string, len(raw.Fields)),
		}
		for name, value := range raw.Fields {
			if value == nil {
				continue
			}
			entry.Fields[strings.ToLower(strings.TrimSpace(name))] = cleanValue(value.String())
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parse(src string) (*bibtex.BibTex, error) {
	parseMu.Lock()
	defer parseMu.Unlock()
	defer resetLexer()
	return bibtex.Parse(strings.NewReader(src))
}

// resetLexer clears the field flag a failed parse can leave set. A lone comma
// always clears it; the resulting syntax error is expected.
func resetLexer() {
	_, _ = bibtex.Parse(strings.NewReader(","))
}

// entryBlocks keeps only the @type{...} and @type(...) blocks of src. Lines
// starting with % between blocks are skipped so a commented-out entry stays
// out. An unterminated block is kept to the end so the parser reports it.
func entryBlocks(src string) string {
	var b strings.Builder
	lineStart := true
	for i := 0; i < len(src); {
		ch := src[i]
		switch {
		case ch == '%' && lineStart:
			next := strings.IndexByte(src[i:], '\n')
			if next < 0 {
				return b.String()
			}
			i += next
		case ch == '@':
			open, kind := blockOpen(src, i)
			if open < 0 {
				lineStart = false
				i++
				continue
			}
			if kind == "comment" {
				// @comment runs to the next @ and may hold unbalanced braces.
				next := strings.IndexByte(src[open:], '@')
				if next < 0 {
					return b.String()
				}
				lineStart = false
				i = open + next
				continue
			}
			end := blockEnd(src, open)
			if end < 0 {
				b.WriteString(src[i:])
				return b.String()
			}
			b.WriteString(src[i : end+1])
			b.WriteByte('\n')
			lineStart = false
			i = end + 1
		case ch == '\n':
			lineStart = true
			i++
		case ch == ' ' || ch == '\t' || ch == '\r':
			i++
		default:
			lineStart = false
			i++
		}
	}
	return b.String()
}

// blockOpen returns the index of the opening delimiter of the block starting
// at the @ in src[at] and its lowercased type, or -1 when no entry type and
// delimiter follow.
func blockOpen(src string, at int) (int, string) {
	j := skipSpace(src, at+1)
	typeStart := j
	for j < len(src) && isLetter(src[j]) {
		j++
	}
	if j == typeStart {
		return -1, ""
	}
	kind := strings.ToLower(src[typeStart:j])
	j = skipSpace(src, j)
	if j < len(src) && (src[j] == '{' || src[j] == '(') {
		return j, kind
	}
	return -1, ""
}

// blockEnd returns the index of the delimiter closing src[open], or -1.
func blockEnd(src string, open int) int {
	opener, closer := byte('{'), byte('}')
	if src[open] == '(' {
		opener, closer = '(', ')'
	}
	depth := 0
	for j := open; j < len(src); j++ {
		switch src[j] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return -1
}

func skipSpace(src string, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r' || src[i] == '\n') {
		i++
	}
	return i
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// cleanValue drops the outer delimiters and any protective braces and
// collapses runs of whitespace left over from line wrapping.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("{", "", "}", "").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
