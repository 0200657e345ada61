package http

import (
	"net/http"
	"sort"
	"strings"
)

// HeaderField is a single response header entry.
type HeaderField struct {
	Key   string
	Value string
}

// FlattenHeaders joins fields as "k1:v1;k2:v2" in slice order, with no
// trailing separator. Keys and values are not escaped, so values containing
// ';' or ':' cannot be split back apart.
func FlattenHeaders(fields []HeaderField) string {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(f.Key)
		b.WriteByte(':')
		b.WriteString(f.Value)
	}
	return b.String()
}

// HeaderFields converts h into header fields ordered by canonical key.
// The result is not in the order the headers arrived on the wire: net/http
// does not retain wire order, so key order is the only stable order
// available. Multiple values for one key are joined with ",".
func HeaderFields(h http.Header) []HeaderField {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]HeaderField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, HeaderField{Key: k, Value: strings.Join(h[k], ",")})
	}
	return fields
}
