// Package frontmatter reads and writes the "---" delimited key: value header
// that sits on top of every stored post.
//
// The format is deliberately flat: one key: value pair per line, split on the
// first colon, no quoting and no nesting. It is not YAML.
package frontmatter

import (
	"regexp"
	"strings"
)

const delimiter = "---"

var reDocument = regexp.MustCompile(`^---\n([\s\S]*?)\n---\n([\s\S]*)$`)

// Field is a single key: value line.
type Field struct {
	Key   string
	Value string
}

// Metadata is an ordered set of fields. Encoding emits fields in slice order.
type Metadata []Field

// Get returns the value stored under key.
func (m Metadata) Get(key string) (string, bool) {
	for _, f := range m {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

// Value returns the value stored under key, or "" when missing.
func (m Metadata) Value(key string) string {
	v, _ := m.Get(key)
	return v
}

// Set replaces the value of key in place, or appends a new field.
func (m Metadata) Set(key, value string) Metadata {
	for i := range m {
		if m[i].Key == key {
			m[i].Value = value
			return m
		}
	}
	return append(m, Field{Key: key, Value: value})
}

// Keys returns the field keys in order.
func (m Metadata) Keys() []string {
	keys := make([]string, len(m))
	for i, f := range m {
		keys[i] = f.Key
	}
	return keys
}

// Document is a decoded post file.
type Document struct {
	Metadata Metadata
	Body     string
}

// Decode splits doc into its metadata header and body. A document without a
// leading header is returned whole as the body with empty metadata.
func Decode(doc string) Document {
	match := reDocument.FindStringSubmatch(doc)
	if match == nil {
		return Document{Metadata: Metadata{}, Body: doc}
	}

	meta := Metadata{}
	for _, line := range strings.Split(match[1], "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		meta = meta.Set(key, strings.TrimSpace(value))
	}

	return Document{Metadata: meta, Body: strings.TrimSpace(match[2])}
}

// Encode renders meta and body as a stored document. Values are written
// verbatim; a value containing a newline produces a document that will not
// decode back to the same fields.
func Encode(meta Metadata, body string) string {
	lines := make([]string, len(meta))
	for i, f := range meta {
		lines[i] = f.Key + ": " + f.Value
	}

	var b strings.Builder
	b.WriteString(delimiter + "\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n" + delimiter + "\n\n")
	b.WriteString(body)
	return b.String()
}
