package noteforge

import (
	"strconv"
	"strings"
	"unicode"
)

// filterFunc transforms a Value given zero or more string arguments. All
// filters are pure.
type filterFunc func(v Value, args []string) (Value, error)

type filterSpec struct {
	minArgs int
	maxArgs int
	fn      filterFunc
}

// filterTable is the closed set of filters usable in a chain. Unknown
// names are rejected at validation time, never resolved as a no-op.
var filterTable = map[string]filterSpec{
	"default": {1, 1, func(v Value, args []string) (Value, error) {
		if v.IsEmpty() {
			return Infer(args[0]), nil
		}
		return v, nil
	}},
	"join": {0, 1, func(v Value, args []string) (Value, error) {
		sep := ", "
		if len(args) > 0 {
			sep = args[0]
		}
		parts := make([]string, 0, v.Len())
		for _, item := range v.AsList() {
			parts = append(parts, item.Format())
		}
		return String(strings.Join(parts, sep)), nil
	}},
	"upper": {0, 0, func(v Value, args []string) (Value, error) {
		return String(strings.ToUpper(v.Format())), nil
	}},
	"lower": {0, 0, func(v Value, args []string) (Value, error) {
		return String(strings.ToLower(v.Format())), nil
	}},
	"capitalize": {0, 0, func(v Value, args []string) (Value, error) {
		s := v.Format()
		if s == "" {
			return String(""), nil
		}
		runes := []rune(s)
		runes[0] = unicode.ToUpper(runes[0])
		return String(string(runes)), nil
	}},
	"truncate": {1, 1, func(v Value, args []string) (Value, error) {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return Null(), NewFunctionError("truncate", args, "length must be a non-negative integer")
		}
		runes := []rune(v.Format())
		if len(runes) <= n {
			return String(string(runes)), nil
		}
		if n <= 3 {
			return String(string(runes[:n])), nil
		}
		return String(string(runes[:n-3]) + "..."), nil
	}},
}

// KnownFilter reports whether a filter name is in the closed set.
func KnownFilter(name string) bool {
	_, ok := filterTable[name]
	return ok
}

// FilterNames returns the closed filter set, for validation messages.
func FilterNames() []string {
	names := make([]string, 0, len(filterTable))
	for name := range filterTable {
		names = append(names, name)
	}
	return names
}

// filterCall is one parsed segment of a filter chain.
type filterCall struct {
	name string
	args []string
}

// EvaluateFilterChain resolves an interpolation body of the form
// "var | filter:\"arg\" | filter2" against the context. The first segment
// is a dotted variable path; subsequent segments apply left to right.
func EvaluateFilterChain(body string, ctx Context) (Value, error) {
	segments := splitFilterChain(body)
	if len(segments) == 0 {
		return Null(), NewParseError("empty interpolation", body, 0)
	}

	path := strings.TrimSpace(segments[0])
	value, _ := ctx.Lookup(path)

	for _, segment := range segments[1:] {
		call, err := parseFilterCall(segment)
		if err != nil {
			return Null(), err
		}
		spec, ok := filterTable[call.name]
		if !ok {
			return Null(), NewFunctionError(call.name, call.args, "unknown filter")
		}
		if len(call.args) < spec.minArgs {
			return Null(), NewFunctionError(call.name, call.args, "too few arguments")
		}
		if len(call.args) > spec.maxArgs {
			return Null(), NewFunctionError(call.name, call.args, "too many arguments")
		}
		value, err = spec.fn(value, call.args)
		if err != nil {
			return Null(), err
		}
	}

	return value, nil
}

// splitFilterChain splits on '|' outside quoted arguments.
func splitFilterChain(body string) []string {
	var segments []string
	var current strings.Builder
	var quote byte

	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case quote != 0:
			current.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			current.WriteByte(c)
		case c == '|':
			segments = append(segments, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	segments = append(segments, current.String())
	return segments
}

// parseFilterCall parses one chain segment: name, or name:arg,arg with
// optionally quoted arguments.
func parseFilterCall(segment string) (filterCall, error) {
	segment = strings.TrimSpace(segment)
	if segment == "" {
		return filterCall{}, NewParseError("empty filter segment", segment, 0)
	}

	colon := strings.IndexByte(segment, ':')
	if colon < 0 {
		return filterCall{name: segment}, nil
	}

	name := strings.TrimSpace(segment[:colon])
	argText := strings.TrimSpace(segment[colon+1:])
	args, err := splitFilterArgs(argText)
	if err != nil {
		return filterCall{}, err
	}
	return filterCall{name: name, args: args}, nil
}

// splitFilterArgs splits comma-separated, optionally quoted arguments.
func splitFilterArgs(text string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote byte
	quoted := false

	flush := func() {
		arg := current.String()
		if !quoted {
			arg = strings.TrimSpace(arg)
		}
		args = append(args, arg)
		current.Reset()
		quoted = false
	}

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				current.WriteByte(c)
			}
		case c == '"' || c == '\'':
			quote = c
			quoted = true
		case c == ',':
			flush()
		case c == ' ' && current.Len() == 0 && !quoted:
			// skip leading space
		default:
			current.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, NewParseError("unterminated filter argument", text, 0)
	}
	flush()
	return args, nil
}
