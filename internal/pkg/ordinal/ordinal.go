// Package ordinal extracts integer sequence numbers from issued identifiers and
// allocates the next one. Identifiers stay strings everywhere else; this is the
// only place they are read as numbers.
package ordinal

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrExhausted is returned when the next ordinal would not fit in an int64.
var ErrExhausted = errors.New("ordinal space exhausted")

// Parser extracts the ordinal from an identifier. ok is false when the
// identifier carries no usable ordinal; callers must skip it, never fail.
type Parser func(identifier string) (n int64, ok bool)

// Scope decides whether an identifier takes part in an allocation.
type Scope func(identifier string) bool

// Numeric accepts identifiers made only of ASCII digits, ignoring surrounding
// whitespace. "0042" is 42; "42A", "" and "-1" have no ordinal.
func Numeric(identifier string) (int64, bool) {
	s := strings.TrimSpace(identifier)
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// overflow
		return 0, false
	}
	return n, true
}

// Template returns a Parser reading the first capture group of re as the
// ordinal. Anything around the group (type codes, slashes, year) is ignored.
func Template(re *regexp.Regexp) Parser {
	return func(identifier string) (int64, bool) {
		m := re.FindStringSubmatch(strings.TrimSpace(identifier))
		if len(m) < 2 {
			return 0, false
		}
		return Numeric(m[1])
	}
}

// Any admits every identifier.
func Any(string) bool { return true }

// HasSuffix admits identifiers ending with suffix, e.g. "/2568".
func HasSuffix(suffix string) Scope {
	return func(identifier string) bool {
		return strings.HasSuffix(strings.TrimSpace(identifier), suffix)
	}
}

// Max returns the largest ordinal among in-scope candidates, or 0 when none parse.
func Max(candidates []string, scope Scope, parse Parser) int64 {
	if scope == nil {
		scope = Any
	}
	var max int64
	for _, c := range candidates {
		if !scope(c) {
			continue
		}
		n, ok := parse(c)
		if !ok {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max
}

// Fits reports whether n more ordinals can follow max without overflow.
func Fits(max int64, n int) bool {
	return n <= 0 || max <= math.MaxInt64-int64(n)
}

// Next returns Max + 1. Deleted records must be included in candidates: their
// identifiers stay reserved.
func Next(candidates []string, scope Scope, parse Parser) (int64, error) {
	max := Max(candidates, scope, parse)
	if !Fits(max, 1) {
		return 0, ErrExhausted
	}
	return max + 1, nil
}

// Block returns n consecutive ordinals starting at first, rendered as identifiers.
func Block(first int64, n int) ([]string, error) {
	if first < 1 || !Fits(first-1, n) {
		return nil, ErrExhausted
	}
	ids := make([]string, 0, max(n, 0))
	for i := 0; i < n; i++ {
		ids = append(ids, strconv.FormatInt(first+int64(i), 10))
	}
	return ids, nil
}
