package options

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ListSeparator delimits StringList values in a keyfile.
const ListSeparator = ';'

var (
	// ErrKeyNotFound reports that a group has no such key. The resolver
	// treats it as absence, never as a failure.
	ErrKeyNotFound = errors.New("key not found")

	// ErrInvalidValue reports text that cannot be parsed as the option's kind.
	ErrInvalidValue = errors.New("invalid value")
)

// ParseError describes one option whose raw text could not be parsed.
type ParseError struct {
	Group  string
	Option string
	Kind   Kind
	Raw    string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("group %q option %q: value %q is not a valid %s: %v",
		e.Group, e.Option, e.Raw, e.Kind, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseString decodes the keyfile escape sequences \s \n \t \r \\ and \;.
func ParseString(raw string) (string, error) {
	if !strings.ContainsRune(raw, '\\') {
		return raw, nil
	}

	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i == len(raw) {
			return "", fmt.Errorf("%w: escape character at end of line", ErrInvalidValue)
		}
		switch raw[i] {
		case 's':
			b.WriteByte(' ')
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case ListSeparator:
			b.WriteByte(ListSeparator)
		default:
			return "", fmt.Errorf("%w: invalid escape sequence \\%c", ErrInvalidValue, raw[i])
		}
	}
	return b.String(), nil
}

// ParseStringList splits raw on ListSeparator. An escaped separator is kept
// literally and a single trailing empty element is dropped, so "a;b;" and
// "a;b" are the same list.
func ParseStringList(raw string) ([]string, error) {
	var (
		pieces []string
		start  int
	)
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '\\':
			i++
		case ListSeparator:
			pieces = append(pieces, raw[start:i])
			start = i + 1
		}
	}
	if start < len(raw) {
		pieces = append(pieces, raw[start:])
	}

	list := make([]string, 0, len(pieces))
	for _, p := range pieces {
		s, err := ParseString(p)
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

// ParseBool accepts the canonical tokens true, false, 1 and 0.
func ParseBool(raw string) (bool, error) {
	switch strings.TrimSpace(raw) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: expected true, false, 1 or 0", ErrInvalidValue)
	}
}

// ParseInt parses a base-10 signed integer.
func ParseInt(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return n, nil
}

// ParseDouble parses a floating point number.
func ParseDouble(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return f, nil
}
