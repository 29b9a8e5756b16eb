package noteforge

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is the closed variant type carried through the engine: every piece
// of context data, every filter input and output, and every frontmatter
// field is one of these. The zero Value is null.
type Value struct {
	kind  Kind
	str   string
	num   float64
	isInt bool
	b     bool
	list  []Value
	m     map[string]Value
}

// Null returns the null Value.
func Null() Value {
	return Value{}
}

// String wraps a string.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Int wraps an integer.
func Int(n int) Value {
	return Value{kind: KindNumber, num: float64(n), isInt: true}
}

// Float wraps a float.
func Float(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Bool wraps a bool.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// List wraps a slice of Values.
func List(items ...Value) Value {
	return Value{kind: KindList, list: items}
}

// Map wraps a map of Values.
func Map(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMap, m: m}
}

// StringList wraps a slice of strings as a list Value.
func StringList(items ...string) Value {
	vals := make([]Value, len(items))
	for i, s := range items {
		vals[i] = String(s)
	}
	return List(vals...)
}

// From converts an arbitrary Go value into a Value. Unsupported types are
// coerced to their string representation rather than rejected.
func From(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case int:
		return Int(x)
	case int8:
		return Int(int(x))
	case int16:
		return Int(int(x))
	case int32:
		return Int(int(x))
	case int64:
		return Int(int(x))
	case uint:
		return Int(int(x))
	case uint8:
		return Int(int(x))
	case uint16:
		return Int(int(x))
	case uint32:
		return Int(int(x))
	case uint64:
		return Int(int(x))
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case time.Time:
		return String(x.Format("2006-01-02 15:04:05"))
	case []Value:
		return List(x...)
	case []string:
		return StringList(x...)
	case []interface{}:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = From(item)
		}
		return List(items...)
	case map[string]Value:
		return Map(x)
	case map[string]interface{}:
		m := make(map[string]Value, len(x))
		for k, item := range x {
			m[k] = From(item)
		}
		return Map(m)
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

var (
	intLikeRegex   = regexp.MustCompile(`^-?\d+$`)
	floatLikeRegex = regexp.MustCompile(`^-?\d+\.\d+$`)
)

// Infer converts a raw string into a typed Value using the engine's
// inference rules: integers and floats become numbers, the fixed boolean
// token set becomes bools, null tokens become null, everything else stays
// a string.
func Infer(s string) Value {
	trimmed := strings.TrimSpace(s)
	switch strings.ToLower(trimmed) {
	case "true", "yes", "on":
		return Bool(true)
	case "false", "no", "off":
		return Bool(false)
	case "null", "nil", "none", "~":
		return Null()
	}
	if intLikeRegex.MatchString(trimmed) {
		if n, err := strconv.Atoi(trimmed); err == nil {
			return Int(n)
		}
	}
	if floatLikeRegex.MatchString(trimmed) {
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return Float(f)
		}
	}
	return String(s)
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsEmpty reports whether the value is null, an empty string, or an empty
// collection. Numbers and bools are never empty.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindList:
		return len(v.list) == 0
	case KindMap:
		return len(v.m) == 0
	default:
		return false
	}
}

// IsTruthy reports the truthiness used by conditionals: null, empty string,
// zero, false, and empty collections are false; everything else is true.
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindString:
		return v.str != ""
	case KindNumber:
		return v.num != 0
	case KindBool:
		return v.b
	case KindList:
		return len(v.list) > 0
	case KindMap:
		return len(v.m) > 0
	default:
		return false
	}
}

// AsString returns the underlying string when the value is a string, or the
// canonical formatting otherwise.
func (v Value) AsString() string {
	if v.kind == KindString {
		return v.str
	}
	return v.Format()
}

// AsFloat returns a numeric view of the value. Strings that look numeric
// convert; everything else reports false.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// AsInt returns an integer view of the value.
func (v Value) AsInt() (int, bool) {
	f, ok := v.AsFloat()
	if !ok {
		return 0, false
	}
	return int(f), true
}

// AsBool returns the underlying bool, or false when the value is not one.
func (v Value) AsBool() (bool, bool) {
	if v.kind == KindBool {
		return v.b, true
	}
	return false, false
}

// AsList returns the underlying list; scalar values wrap into a one-element
// list so callers iterating "always a sequence" fields stay simple.
func (v Value) AsList() []Value {
	switch v.kind {
	case KindList:
		return v.list
	case KindNull:
		return nil
	default:
		return []Value{v}
	}
}

// AsMap returns the underlying map, or nil for non-map values.
func (v Value) AsMap() map[string]Value {
	if v.kind == KindMap {
		return v.m
	}
	return nil
}

// Get looks up a key on a map value. Missing keys and non-map values
// return null.
func (v Value) Get(key string) Value {
	if v.kind != KindMap {
		return Null()
	}
	return v.m[key]
}

// Len returns the collection or string length, matching the length()
// template function.
func (v Value) Len() int {
	switch v.kind {
	case KindString:
		return len([]rune(v.str))
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// Format renders the canonical text form used for interpolation: integers
// without a decimal point, floats with minimal digits, lists joined with
// ", ", null as the empty string.
func (v Value) Format() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindString:
		return v.str
	case KindNumber:
		if v.isInt {
			return strconv.FormatInt(int64(v.num), 10)
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindList:
		parts := make([]string, len(v.list))
		for i, item := range v.list {
			parts[i] = item.Format()
		}
		return strings.Join(parts, ", ")
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + v.m[k].Format()
		}
		return strings.Join(parts, ", ")
	default:
		return ""
	}
}

// Equal compares two values. Numeric comparison is attempted first so
// Int(3) equals Float(3) and String("3"); otherwise both sides compare by
// canonical string form.
func (v Value) Equal(other Value) bool {
	if v.kind == KindNull || other.kind == KindNull {
		return v.kind == other.kind
	}
	if lf, lok := v.AsFloat(); lok {
		if rf, rok := other.AsFloat(); rok {
			return lf == rf
		}
	}
	return v.Format() == other.Format()
}

// Interface converts a Value back into plain Go data. Used when handing
// frontmatter maps to callers and by the YAML round-trip tests.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindString:
		return v.str
	case KindNumber:
		if v.isInt {
			return int(v.num)
		}
		return v.num
	case KindBool:
		return v.b
	case KindList:
		items := make([]interface{}, len(v.list))
		for i, item := range v.list {
			items[i] = item.Interface()
		}
		return items
	case KindMap:
		m := make(map[string]interface{}, len(v.m))
		for k, item := range v.m {
			m[k] = item.Interface()
		}
		return m
	default:
		return nil
	}
}

// Context is the key/value data supplied to a render call. The engine never
// mutates a caller's context; loop iterations copy-and-extend.
type Context map[string]Value

// NewContext builds a Context from plain Go data.
func NewContext(data map[string]interface{}) Context {
	ctx := make(Context, len(data))
	for k, v := range data {
		ctx[k] = From(v)
	}
	return ctx
}

// Clone returns a shallow copy of the context, used by loop bodies to bind
// iteration variables without touching the caller's map.
func (c Context) Clone() Context {
	clone := make(Context, len(c)+2)
	for k, v := range c {
		clone[k] = v
	}
	return clone
}

// Lookup resolves a dotted path ("user.name") against the context. The
// second return reports whether the first segment exists at all.
func (c Context) Lookup(path string) (Value, bool) {
	parts := strings.Split(path, ".")
	root, ok := c[parts[0]]
	if !ok {
		return Null(), false
	}
	current := root
	for _, part := range parts[1:] {
		current = current.Get(part)
	}
	return current, true
}
