package noteforge

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Function represents a callable function in templates.
type Function interface {
	// Call executes the function with the given arguments.
	Call(args ...Value) (Value, error)

	// Name returns the function name.
	Name() string

	// MinArgs returns the minimum number of arguments required.
	MinArgs() int

	// MaxArgs returns the maximum number of arguments allowed.
	MaxArgs() int
}

// FunctionRegistry manages the closed set of available functions.
type FunctionRegistry struct {
	functions map[string]Function
	mutex     sync.RWMutex
}

// NewFunctionRegistry creates an empty function registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// NewDefaultFunctionRegistry creates a registry with the builtin functions
// registered against the given clock. A nil clock uses time.Now.
func NewDefaultFunctionRegistry(clock func() time.Time) *FunctionRegistry {
	if clock == nil {
		clock = time.Now
	}
	registry := NewFunctionRegistry()
	registerBuiltinFunctions(registry, clock)
	return registry
}

// Register adds a function to the registry.
func (r *FunctionRegistry) Register(fn Function) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	name := fn.Name()
	if name == "" {
		return fmt.Errorf("function name cannot be empty")
	}
	r.functions[name] = fn
	return nil
}

// Get retrieves a function by name.
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	fn, exists := r.functions[name]
	return fn, exists
}

// Known reports whether a function name is registered.
func (r *FunctionRegistry) Known(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Names returns all registered function names.
func (r *FunctionRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	return names
}

// simpleFunction provides a basic implementation of Function.
type simpleFunction struct {
	name    string
	minArgs int
	maxArgs int
	handler func(args ...Value) (Value, error)
}

// NewSimpleFunction wraps a handler as a Function with argument-count
// checking.
func NewSimpleFunction(name string, minArgs, maxArgs int, handler func(args ...Value) (Value, error)) Function {
	return &simpleFunction{name: name, minArgs: minArgs, maxArgs: maxArgs, handler: handler}
}

func (f *simpleFunction) Call(args ...Value) (Value, error) {
	if len(args) < f.minArgs {
		return Null(), NewFunctionError(f.name, formatArgs(args),
			fmt.Sprintf("requires at least %d arguments, got %d", f.minArgs, len(args)))
	}
	if f.maxArgs >= 0 && len(args) > f.maxArgs {
		return Null(), NewFunctionError(f.name, formatArgs(args),
			fmt.Sprintf("accepts at most %d arguments, got %d", f.maxArgs, len(args)))
	}
	return f.handler(args...)
}

func (f *simpleFunction) Name() string { return f.name }
func (f *simpleFunction) MinArgs() int { return f.minArgs }
func (f *simpleFunction) MaxArgs() int { return f.maxArgs }

func formatArgs(args []Value) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = arg.Format()
	}
	return out
}

// registerBuiltinFunctions registers the closed builtin set.
func registerBuiltinFunctions(registry *FunctionRegistry, clock func() time.Time) {
	registry.Register(NewSimpleFunction("now", 0, 1, func(args ...Value) (Value, error) {
		layout := "2006-01-02 15:04"
		if len(args) > 0 && !args[0].IsEmpty() {
			layout = translateDateFormat(args[0].AsString())
		}
		return String(clock().Format(layout)), nil
	}))

	registry.Register(NewSimpleFunction("today", 0, 1, func(args ...Value) (Value, error) {
		layout := "2006-01-02"
		if len(args) > 0 && !args[0].IsEmpty() {
			layout = translateDateFormat(args[0].AsString())
		}
		return String(clock().Format(layout)), nil
	}))

	registry.Register(NewSimpleFunction("date_format", 2, 2, func(args ...Value) (Value, error) {
		t, err := parseDate(args[0])
		if err != nil {
			return Null(), NewFunctionError("date_format", formatArgs(args), err.Error())
		}
		return String(t.Format(translateDateFormat(args[1].AsString()))), nil
	}))

	registry.Register(NewSimpleFunction("tag_list", 1, 1, func(args ...Value) (Value, error) {
		tags := args[0].AsList()
		parts := make([]string, 0, len(tags))
		for _, tag := range tags {
			text := strings.TrimSpace(strings.TrimPrefix(tag.Format(), "#"))
			if text == "" {
				continue
			}
			parts = append(parts, "#"+text)
		}
		return String(strings.Join(parts, " ")), nil
	}))

	registry.Register(NewSimpleFunction("length", 1, 1, func(args ...Value) (Value, error) {
		return Int(args[0].Len()), nil
	}))

	registry.Register(NewSimpleFunction("number_format", 2, 2, func(args ...Value) (Value, error) {
		num, ok := args[0].AsFloat()
		if !ok {
			return Null(), NewFunctionError("number_format", formatArgs(args), "first argument must be numeric")
		}
		switch style := args[1].AsString(); style {
		case "currency":
			return String("$" + groupThousands(fmt.Sprintf("%.2f", num))), nil
		case "percent":
			return String(strconv.FormatFloat(num*100, 'f', -1, 64) + "%"), nil
		default:
			return Null(), NewFunctionError("number_format", formatArgs(args), "style must be \"currency\" or \"percent\"")
		}
	}))

	registry.Register(NewSimpleFunction("conditional", 3, 3, func(args ...Value) (Value, error) {
		if args[0].IsTruthy() {
			return args[1], nil
		}
		return args[2], nil
	}))
}

// groupThousands inserts comma separators into the integer part of a
// formatted decimal string.
func groupThousands(s string) string {
	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot:]
	}
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}
	if len(intPart) > 3 {
		var groups []string
		for len(intPart) > 3 {
			groups = append([]string{intPart[len(intPart)-3:]}, groups...)
			intPart = intPart[:len(intPart)-3]
		}
		groups = append([]string{intPart}, groups...)
		intPart = strings.Join(groups, ",")
	}
	if neg {
		intPart = "-" + intPart
	}
	return intPart + fracPart
}

// commonDateFormats are tried in order when parsing date values supplied as
// strings.
var commonDateFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseDate attempts to parse a date from a Value.
func parseDate(v Value) (time.Time, error) {
	if v.IsEmpty() {
		return time.Time{}, fmt.Errorf("cannot parse empty value as date")
	}
	if f, ok := v.AsFloat(); ok && v.Kind() == KindNumber {
		// Unix timestamp, seconds or milliseconds.
		n := int64(f)
		if n > 1e10 {
			return time.Unix(n/1000, (n%1000)*1e6), nil
		}
		return time.Unix(n, 0), nil
	}
	s := v.AsString()
	for _, format := range commonDateFormats {
		if parsed, err := time.Parse(format, s); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse date string: %s", s)
}

// strftimeReplacer translates strftime-style patterns to Go layouts.
// Date functions accept %Y-%m-%d style patterns; Go layouts pass
// through untouched.
var strftimeReplacer = strings.NewReplacer(
	"%Y", "2006",
	"%y", "06",
	"%m", "01",
	"%d", "02",
	"%H", "15",
	"%I", "03",
	"%M", "04",
	"%S", "05",
	"%B", "January",
	"%b", "Jan",
	"%A", "Monday",
	"%a", "Mon",
	"%p", "PM",
	"%z", "-0700",
	"%Z", "MST",
	"%%", "%",
)

// translateDateFormat converts a strftime pattern to a Go time layout.
func translateDateFormat(pattern string) string {
	if !strings.Contains(pattern, "%") {
		return pattern
	}
	return strftimeReplacer.Replace(pattern)
}
