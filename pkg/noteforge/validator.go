package noteforge

import (
	"fmt"
	"strings"
)

// Validator performs static pre-checks on a template so the Generator can
// fail soft with a fallback document instead of erroring mid-render.
type Validator struct {
	registry *FunctionRegistry
}

// NewValidator creates a validator that checks function names against the
// given registry.
func NewValidator(registry *FunctionRegistry) *Validator {
	if registry == nil {
		registry = NewDefaultFunctionRegistry(nil)
	}
	return &Validator{registry: registry}
}

// Validate checks a template source against a context. It returns ok plus
// a list of human-readable problems; it never returns an error itself.
//
// Checks: balanced if/endif and each/endeach pairs (both bracket styles
// tokenize to the same types), balanced blocks, parseable condition
// expressions, known function and filter names, and referenced variables
// present in the context (loop-bound and @-prefixed variables excluded).
func (v *Validator) Validate(source string, ctx Context) (bool, []string) {
	var errors []string

	tokens := Tokenize(source)

	ifCount, endIfCount := 0, 0
	eachCount, endEachCount := 0, 0
	blockCount, endBlockCount := 0, 0
	boundVars := map[string]bool{}

	// First pass: structure counts and loop-bound names.
	for _, t := range tokens {
		switch t.Type {
		case TokenIf:
			ifCount++
		case TokenEndIf:
			endIfCount++
		case TokenEach:
			eachCount++
			if node, err := parseEachHeader(t.Value); err == nil && node.Variable != "" {
				boundVars[node.Variable] = true
			}
		case TokenEndEach:
			endEachCount++
		case TokenBlock:
			blockCount++
		case TokenEndBlock:
			endBlockCount++
		}
	}

	if ifCount != endIfCount {
		errors = append(errors, fmt.Sprintf("unbalanced conditionals: %d if, %d endif", ifCount, endIfCount))
	}
	if eachCount != endEachCount {
		errors = append(errors, fmt.Sprintf("unbalanced loops: %d each, %d endeach", eachCount, endEachCount))
	}
	if blockCount != endBlockCount {
		errors = append(errors, fmt.Sprintf("unbalanced blocks: %d block, %d endblock", blockCount, endBlockCount))
	}

	// Second pass: conditions, variables, functions, filters.
	for _, t := range tokens {
		switch t.Type {
		case TokenIf, TokenElif:
			if err := ParseCondition(t.Value); err != nil {
				errors = append(errors, fmt.Sprintf("invalid condition %q: %v", t.Value, err))
			}
		case TokenVariable:
			errors = append(errors, v.checkVariable(t.Value, ctx, boundVars)...)
		case TokenFunction:
			node, err := parseFunctionToken(t.Value)
			if err != nil {
				errors = append(errors, fmt.Sprintf("malformed function call %q: %v", t.Value, err))
				continue
			}
			if !v.registry.Known(node.Name) {
				errors = append(errors, fmt.Sprintf("unknown function %q", node.Name))
			}
		}
	}

	return len(errors) == 0, errors
}

// checkVariable validates one interpolation body: filter names must be in
// the closed set and the root variable must exist in the context unless it
// is loop-bound or an @-builtin.
func (v *Validator) checkVariable(body string, ctx Context, boundVars map[string]bool) []string {
	var errors []string

	segments := splitFilterChain(body)
	if len(segments) == 0 || strings.TrimSpace(segments[0]) == "" {
		return []string{fmt.Sprintf("empty interpolation %q", body)}
	}

	for _, segment := range segments[1:] {
		call, err := parseFilterCall(segment)
		if err != nil {
			errors = append(errors, fmt.Sprintf("invalid filter in %q: %v", body, err))
			continue
		}
		if !KnownFilter(call.name) {
			errors = append(errors, fmt.Sprintf("unknown filter %q", call.name))
		}
	}

	path := strings.TrimSpace(segments[0])
	root := path
	if dot := strings.IndexByte(root, '.'); dot >= 0 {
		root = root[:dot]
	}

	switch {
	case strings.HasPrefix(root, "@"):
	case boundVars[root]:
	case hasDefaultFilter(segments[1:]):
		// A default filter makes a missing variable intentional.
	default:
		if _, ok := ctx[root]; !ok {
			errors = append(errors, fmt.Sprintf("undefined variable %q", root))
		}
	}

	return errors
}

// hasDefaultFilter reports whether the chain contains a default filter.
func hasDefaultFilter(segments []string) bool {
	for _, segment := range segments {
		call, err := parseFilterCall(segment)
		if err == nil && call.name == "default" {
			return true
		}
	}
	return false
}
