package serious

import (
	"strings"
	"unicode"
)

// KeyMapper derives the serialized key of a field from its Go name when no
// key is given by tags.
type KeyMapper interface {
	Key(name string) string
}

// KeyMapperFunc adapts a function to KeyMapper.
type KeyMapperFunc func(name string) string

func (f KeyMapperFunc) Key(name string) string { return f(name) }

var (
	// NoopKeys uses the Go field name as is.
	NoopKeys KeyMapper = KeyMapperFunc(func(name string) string { return name })

	// SnakeCaseKeys maps UserID to user_id and HTTPServer to http_server.
	SnakeCaseKeys KeyMapper = KeyMapperFunc(toSnakeCase)

	// CamelCaseKeys maps UserID to userId and HTTPServer to httpServer.
	CamelCaseKeys KeyMapper = KeyMapperFunc(toCamelCase)
)

func toSnakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func toCamelCase(name string) string {
	parts := strings.Split(toSnakeCase(name), "_")
	var b strings.Builder
	b.Grow(len(name))

	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			b.WriteString(part)
			continue
		}
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}
