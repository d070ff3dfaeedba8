package filter

import (
	"net/url"
	"strings"
)

// Param is one key/value pair of a query string.
type Param struct {
	Key   string
	Value string
}

// Query is an ordered list of parameters. Unlike url.Values it keeps
// insertion order when encoded, so equal filters always produce the same
// link.
type Query []Param

// Set appends key=value.
func (q *Query) Set(key, value string) {
	*q = append(*q, Param{Key: key, Value: value})
}

// Get returns the first value for key.
func (q Query) Get(key string) (string, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (q Query) Has(key string) bool {
	_, ok := q.Get(key)
	return ok
}

// formEscaper turns url.QueryEscape output into the browser's form
// encoding, which leaves '*' bare and escapes '~'.
var formEscaper = strings.NewReplacer("%2A", "*", "~", "%7E")

// Encode renders the query in form encoding ("a b" becomes "a+b").
func (q Query) Encode() string {
	var b strings.Builder
	for i, p := range q {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(formEscape(p.Key))
		b.WriteByte('=')
		b.WriteString(formEscape(p.Value))
	}
	return b.String()
}

func formEscape(s string) string {
	return formEscaper.Replace(url.QueryEscape(s))
}

func (q Query) String() string {
	return q.Encode()
}

// Values converts to url.Values for callers that need the stdlib type.
func (q Query) Values() url.Values {
	v := make(url.Values, len(q))
	for _, p := range q {
		v.Add(p.Key, p.Value)
	}
	return v
}
