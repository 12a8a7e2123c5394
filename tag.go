package serious

import (
	"reflect"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Base Error types for tag parsing errors
var (
	ErrSubTagNotFound     = errors.New("subtag not found")
	ErrInvalidSubTag      = errors.New("invalid subtag format")
	ErrMissingSubTagValue = errors.New("no value found after subtag")
	ErrUnterminatedSubTag = errors.New("unterminated subtag value")
	ErrDuplicateSubTag    = errors.New("subtag declared twice")
	ErrUnknownSubTag      = errors.New("subtag is not allowed")
	ErrEmptyKeySubTag     = errors.New("key subtag cannot be empty")
)

// This file contains the tag parser for the serious package. It supports
// all tags in the following grammar:
//
// Tag grammar:
//     <field> <type> <tag>
// tag:
//     serious:"-" | serious:"[<subtag>]^*" // Space Separated
//
// subtag:
//     key:'<serialized key>'        // overrides the key mapper and json tag
//     default:'<default_value>'     // Go literal parsed into the field type
//     codec:'<field codec name>'    // registered with RegisterFieldCodec or WithFieldCodec
//
// Values without spaces may omit the scope delimiter: default:5.
// A backslash escapes the next byte, so default:'it\'s' yields it's.
// A json:"name" tag is honoured as the key when no key subtag is given.

// FieldTag corresponds to the `serious` tag in the struct field tags.
// Example: Name string `serious:"key:'user_name' default:'anonymous'"`
type FieldTag struct {
	Key        string
	Default    string
	HasDefault bool
	Codec      string
	Skip       bool
}

func decodeFieldTag(field reflect.StructField) (FieldTag, error) {
	var ft FieldTag

	if tag, ok := field.Tag.Lookup(SeriousTagName); ok {
		tag = strings.TrimSpace(tag)
		if tag == SkipFieldTag {
			return FieldTag{Skip: true}, nil
		}

		subtags, err := SubTags(tag)
		if err != nil {
			return FieldTag{}, errors.Wrapf(err, "unable to parse %s tag of field %s", SeriousTagName, field.Name)
		}

		for name, value := range subtags {
			switch name {
			case KeySubTagPrefix:
				if value == "" {
					return FieldTag{}, errors.Wrapf(ErrEmptyKeySubTag, "field %s", field.Name)
				}
				ft.Key = value
			case DefaultValueSubTagPrefix:
				ft.Default, ft.HasDefault = value, true
			case CodecSubTagPrefix:
				ft.Codec = value
			default:
				return FieldTag{}, errors.Wrapf(ErrUnknownSubTag, "%q in field %s", name, field.Name)
			}
		}
	}

	if ft.Key == "" {
		if name, ok := field.Tag.Lookup(JSONTagName); ok {
			name, _, _ = strings.Cut(name, ",")
			if name == SkipFieldTag {
				return FieldTag{Skip: true}, nil
			}
			ft.Key = name
		}
	}

	return ft, nil
}

// SubTags splits a tag into its subtags keyed by name, skipping the
// excluded names.
func SubTags(tag string, excludes ...string) (map[string]string, error) {
	return SubTagsByDelimiter(tag, DefaultSubTagScopeDelimiter, excludes...)
}

func SubTagsByDelimiter(tag string, delim byte, excludes ...string) (map[string]string, error) {
	result := make(map[string]string)

	i := 0
	for {
		i = skipTagSpace(tag, i)
		if i >= len(tag) {
			break
		}

		colonIdx := strings.Index(tag[i:], DefaultKeyValueTagDelimiter)
		if colonIdx == -1 {
			return nil, errors.Wrapf(ErrInvalidSubTag, "%q", tag[i:])
		}
		colonIdx += i

		key := tag[i:colonIdx]
		if key == "" || strings.ContainsAny(key, " \t") {
			return nil, errors.Wrapf(ErrInvalidSubTag, "%q", tag[i:])
		}

		value, next, err := readSubTagValue(tag, colonIdx+1, delim)
		if err != nil {
			return nil, errors.Wrapf(err, "subtag %q", key)
		}
		i = next

		if _, ok := result[key]; ok {
			return nil, errors.Wrapf(ErrDuplicateSubTag, "%q", key)
		}
		if !lo.Contains(excludes, key) {
			result[key] = value
		}
	}

	return result, nil
}

func SubTag(tag string, key string) (string, error) {
	return SubTagByDelimeter(tag, key, DefaultSubTagScopeDelimiter)
}

// Example: tag = `default:5 key:'user id'`
//
// SubTagByDelimeter(tag, "key", '\'') returns "user id"
//
// Nested example: a:'b:'c:'d'''
//
// SubTagByDelimeter(tag, "a", '\'') returns "b:'c:'d''"
func SubTagByDelimeter(tag string, key string, delim byte) (string, error) {
	subtags, err := SubTagsByDelimiter(tag, delim)
	if err != nil {
		return "", err
	}
	value, ok := subtags[key]
	if !ok {
		return "", errors.Wrapf(ErrSubTagNotFound, "%q", key)
	}
	return value, nil
}

// readSubTagValue reads a simple or delimited value starting at start and
// returns it together with the index just past it.
func readSubTagValue(tag string, start int, delim byte) (string, int, error) {
	start = skipTagSpace(tag, start)
	if start >= len(tag) {
		return "", start, ErrMissingSubTagValue
	}

	// A value that doesn't start with our delimiter ends at the next space
	if tag[start] != delim {
		end := start
		for end < len(tag) && tag[end] != ' ' && tag[end] != '\t' {
			end++
		}
		return tag[start:end], end, nil
	}

	var builder strings.Builder
	escaped := false
	nestingLevel := 0

	for i := start + 1; i < len(tag); i++ {
		c := tag[i]
		switch {
		case escaped:
			builder.WriteByte(c)
			escaped = false
		case c == '\\':
			escaped = true
		case c == ':' && i+1 < len(tag) && tag[i+1] == delim:
			// nested subtag, its delimiters belong to the value
			nestingLevel++
			builder.WriteByte(c)
			builder.WriteByte(delim)
			i++
		case c == delim:
			if nestingLevel == 0 {
				return builder.String(), i + 1, nil
			}
			nestingLevel--
			builder.WriteByte(c)
		default:
			builder.WriteByte(c)
		}
	}

	return "", len(tag), ErrUnterminatedSubTag
}

func skipTagSpace(tag string, i int) int {
	for i < len(tag) && (tag[i] == ' ' || tag[i] == '\t') {
		i++
	}
	return i
}
