package noteforge

import (
	"fmt"
	"strings"
)

// comparison operators in match order; two-character operators first so
// ">=" never tokenizes as ">" "=".
var comparisonOps = []string{"==", "!=", ">=", "<=", ">", "<"}

// EvaluateCondition evaluates a boolean expression against a context. It
// never returns an error: unparsable expressions evaluate to false with a
// logged diagnostic.
//
// The grammar is deliberately small: comparisons, and/or/not, and bare-name
// truthiness. and/or combine strictly left-to-right with no precedence, so
// "a or b and c" means "(a or b) and c". Templates were authored against
// that behavior, so it is preserved as a compatibility constraint.
func EvaluateCondition(expr string, ctx Context) bool {
	result, err := evaluateConditionExpr(expr, ctx)
	if err != nil {
		GetLogger().Warn("condition evaluated to false",
			"error", NewEvaluationError(expr, err).Error())
		return false
	}
	return result
}

// ParseCondition checks that an expression is well-formed under the
// condition grammar without evaluating truthiness against real data. Used
// by the validator.
func ParseCondition(expr string) error {
	_, err := evaluateConditionExpr(expr, Context{})
	return err
}

func evaluateConditionExpr(expr string, ctx Context) (bool, error) {
	tokens, err := tokenizeCondition(expr)
	if err != nil {
		return false, err
	}
	if len(tokens) == 0 {
		return false, NewParseError("empty condition", "", 0)
	}

	p := &conditionParser{tokens: tokens, ctx: ctx}

	result, err := p.parseOperand()
	if err != nil {
		return false, err
	}

	// Fold and/or strictly left-to-right.
	for !p.done() {
		op := p.next()
		if op.kind != condTokenIdent || (op.text != "and" && op.text != "or") {
			return false, NewParseError("expected 'and' or 'or'", op.text, op.pos)
		}
		right, err := p.parseOperand()
		if err != nil {
			return false, err
		}
		if op.text == "and" {
			result = result && right
		} else {
			result = result || right
		}
	}

	return result, nil
}

type condTokenKind int

const (
	condTokenIdent condTokenKind = iota
	condTokenString
	condTokenOperator
)

type condToken struct {
	kind condTokenKind
	text string
	pos  int
}

// tokenizeCondition splits an expression into identifiers/literals, quoted
// strings, and comparison operators.
func tokenizeCondition(expr string) ([]condToken, error) {
	var tokens []condToken
	pos := 0

	for pos < len(expr) {
		c := expr[pos]

		if c == ' ' || c == '\t' || c == '\n' {
			pos++
			continue
		}

		if c == '"' || c == '\'' {
			end := strings.IndexByte(expr[pos+1:], c)
			if end < 0 {
				return nil, NewParseError("unterminated string literal", expr[pos:], pos)
			}
			tokens = append(tokens, condToken{
				kind: condTokenString,
				text: expr[pos+1 : pos+1+end],
				pos:  pos,
			})
			pos += end + 2
			continue
		}

		matched := false
		for _, op := range comparisonOps {
			if strings.HasPrefix(expr[pos:], op) {
				tokens = append(tokens, condToken{kind: condTokenOperator, text: op, pos: pos})
				pos += len(op)
				matched = true
				break
			}
		}
		if matched {
			continue
		}

		// Identifier, dotted path, or numeric literal.
		start := pos
		for pos < len(expr) && !strings.ContainsRune(" \t\n\"'=!<>", rune(expr[pos])) {
			pos++
		}
		if pos == start {
			return nil, NewParseError(fmt.Sprintf("unexpected character %q", expr[pos]), expr[pos:pos+1], pos)
		}
		tokens = append(tokens, condToken{kind: condTokenIdent, text: expr[start:pos], pos: start})
	}

	return tokens, nil
}

type conditionParser struct {
	tokens []condToken
	pos    int
	ctx    Context
}

func (p *conditionParser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *conditionParser) peek() condToken {
	if p.done() {
		return condToken{}
	}
	return p.tokens[p.pos]
}

func (p *conditionParser) next() condToken {
	t := p.peek()
	p.pos++
	return t
}

// parseOperand parses one truth-valued unit: an optional chain of 'not'
// prefixes followed by either a comparison or a bare value.
func (p *conditionParser) parseOperand() (bool, error) {
	if p.done() {
		return false, NewParseError("expected operand", "", 0)
	}

	if t := p.peek(); t.kind == condTokenIdent && t.text == "not" {
		p.next()
		inner, err := p.parseOperand()
		if err != nil {
			return false, err
		}
		return !inner, nil
	}

	left, err := p.parseValue()
	if err != nil {
		return false, err
	}

	if !p.done() && p.peek().kind == condTokenOperator {
		op := p.next()
		right, err := p.parseValue()
		if err != nil {
			return false, err
		}
		return compareValues(left, op.text, right)
	}

	return left.IsTruthy(), nil
}

// parseValue resolves a single token to a Value: string literals stay
// strings, numeric/boolean tokens become typed literals, and everything
// else looks up in the context (missing names are null).
func (p *conditionParser) parseValue() (Value, error) {
	if p.done() {
		return Null(), NewParseError("expected value", "", 0)
	}
	t := p.next()
	switch t.kind {
	case condTokenString:
		return String(t.text), nil
	case condTokenIdent:
		if t.text == "and" || t.text == "or" || t.text == "not" {
			return Null(), NewParseError("keyword in value position", t.text, t.pos)
		}
		lit := Infer(t.text)
		if lit.Kind() != KindString {
			return lit, nil
		}
		if v, ok := p.ctx.Lookup(t.text); ok {
			return v, nil
		}
		return Null(), nil
	default:
		return Null(), NewParseError("unexpected operator", t.text, t.pos)
	}
}

// compareValues applies a comparison operator, attempting numeric
// comparison first and falling back to string comparison.
func compareValues(left Value, op string, right Value) (bool, error) {
	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	numeric := lok && rok

	switch op {
	case "==":
		return left.Equal(right), nil
	case "!=":
		return !left.Equal(right), nil
	case ">":
		if numeric {
			return lf > rf, nil
		}
		return left.AsString() > right.AsString(), nil
	case ">=":
		if numeric {
			return lf >= rf, nil
		}
		return left.AsString() >= right.AsString(), nil
	case "<":
		if numeric {
			return lf < rf, nil
		}
		return left.AsString() < right.AsString(), nil
	case "<=":
		if numeric {
			return lf <= rf, nil
		}
		return left.AsString() <= right.AsString(), nil
	default:
		return false, NewParseError("unknown operator", op, 0)
	}
}
