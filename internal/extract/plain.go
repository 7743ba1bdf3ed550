package extract

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// extractPlain returns content as a string, replacing invalid UTF-8
// sequences with the replacement character.
func extractPlain(content []byte) (string, error) {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�"), nil
	}
	return string(content), nil
}

// extractMarkdown strips a leading YAML frontmatter block, keeping the
// body untouched so heading-based chunking still sees the structure.
func extractMarkdown(content []byte) (string, error) {
	text, err := extractPlain(content)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(text, "---\n") && !strings.HasPrefix(text, "---\r\n") {
		return text, nil
	}
	rest := text[strings.IndexByte(text, '\n')+1:]
	for _, close := range []string{"\n---\n", "\n---\r\n"} {
		if idx := strings.Index(rest, close); idx >= 0 {
			return strings.TrimLeft(rest[idx+len(close):], "\r\n"), nil
		}
	}
	// Unclosed frontmatter: keep everything.
	return text, nil
}

// extractCSV flattens rows to tab-joined lines.
func extractCSV(content []byte) (string, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return "", fmt.Errorf("parse CSV: %w", err)
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(strings.Join(row, "\t"))
		b.WriteByte('\n')
	}
	return strings.TrimSpace(b.String()), nil
}

// extractJSON flattens a JSON document to "path: value" lines so nested
// values stay searchable. Content that does not parse (a JSONL stream or
// a config with comments) is kept as plain text instead.
func extractJSON(content []byte) (string, error) {
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return extractPlain(content)
	}
	var lines []string
	flattenJSON("", v, &lines)
	return strings.Join(lines, "\n"), nil
}

func flattenJSON(prefix string, v any, lines *[]string) {
	switch val := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenJSON(joinKey(prefix, k), val[k], lines)
		}
	case []any:
		for i, item := range val {
			flattenJSON(fmt.Sprintf("%s[%d]", prefix, i), item, lines)
		}
	default:
		*lines = append(*lines, fmt.Sprintf("%s: %v", prefix, val))
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
