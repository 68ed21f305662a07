// Package legacy decodes the positional pipe-delimited segments sent by legacy
// ERP integrations. Field positions are a fixed contract with the sender: each
// segment has an ordered field list and is decoded straight into a named struct.
package legacy

import (
	"strings"
)

const (
	// Delimiter separates fields in every segment except line details.
	Delimiter = "|"
	// DetailDelimiter separates line-detail fields; amounts may contain Delimiter.
	DetailDelimiter = "0.00¬03"
)

// Decode splits a segment on delimiter. It does not trim or validate.
func Decode(segment, delimiter string) []string {
	return strings.Split(segment, delimiter)
}

// fieldSet gives named access to a decoded segment through its schema.
type fieldSet struct {
	schema []string
	values []string
}

func decodeWith(segment, delimiter string, schema []string) fieldSet {
	return fieldSet{schema: schema, values: Decode(segment, delimiter)}
}

// get returns the value at the schema position of name, or "" when the sender
// omitted trailing fields.
func (f fieldSet) get(name string) string {
	for i, field := range f.schema {
		if field != name {
			continue
		}
		if i < len(f.values) {
			return f.values[i]
		}
		return ""
	}
	return ""
}
