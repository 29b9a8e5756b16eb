package noteforge

import (
	"fmt"
	"strings"
)

// Node is one element of a parsed template: text, an interpolation, or a
// control structure. Rendering a node never mutates the context it is
// given.
type Node interface {
	Render(ctx Context, env *renderEnv) (string, error)
	String() string
}

// renderEnv carries per-render dependencies through the node tree.
type renderEnv struct {
	registry *FunctionRegistry
}

// TextNode represents plain text content.
type TextNode struct {
	Content string
}

func (n *TextNode) String() string {
	return fmt.Sprintf("Text(%q)", n.Content)
}

func (n *TextNode) Render(ctx Context, env *renderEnv) (string, error) {
	return n.Content, nil
}

// VariableNode represents an interpolation with an optional filter chain,
// e.g. {{ name | default:"Guest" | upper }}.
type VariableNode struct {
	Body string
}

func (n *VariableNode) String() string {
	return fmt.Sprintf("Variable(%s)", n.Body)
}

func (n *VariableNode) Render(ctx Context, env *renderEnv) (string, error) {
	value, err := EvaluateFilterChain(n.Body, ctx)
	if err != nil {
		return "", NewEvaluationError(n.Body, err)
	}
	return value.Format(), nil
}

// FunctionNode represents a function call directive, e.g. {{ now("%Y") }}.
type FunctionNode struct {
	Name string
	Args []functionArg
}

// functionArg is either a literal or a context path.
type functionArg struct {
	literal Value
	path    string
}

func (a functionArg) resolve(ctx Context) Value {
	if a.path == "" {
		return a.literal
	}
	v, _ := ctx.Lookup(a.path)
	return v
}

func (n *FunctionNode) String() string {
	return fmt.Sprintf("Function(%s/%d)", n.Name, len(n.Args))
}

func (n *FunctionNode) Render(ctx Context, env *renderEnv) (string, error) {
	fn, ok := env.registry.Get(n.Name)
	if !ok {
		return "", NewFunctionError(n.Name, nil, "unknown function")
	}
	args := make([]Value, len(n.Args))
	for i, arg := range n.Args {
		args[i] = arg.resolve(ctx)
	}
	result, err := fn.Call(args...)
	if err != nil {
		return "", err
	}
	return result.Format(), nil
}

// IfNode represents a conditional with optional elif and else branches.
type IfNode struct {
	Condition string
	ThenBody  []Node
	Elifs     []*ElifNode
	ElseBody  []Node
}

func (n *IfNode) String() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("If(%s)", n.Condition))
	for _, elif := range n.Elifs {
		parts = append(parts, elif.String())
	}
	if len(n.ElseBody) > 0 {
		parts = append(parts, "Else")
	}
	return strings.Join(parts, " ")
}

func (n *IfNode) Render(ctx Context, env *renderEnv) (string, error) {
	if EvaluateCondition(n.Condition, ctx) {
		return renderBody(n.ThenBody, ctx, env)
	}
	for _, elif := range n.Elifs {
		if EvaluateCondition(elif.Condition, ctx) {
			return renderBody(elif.Body, ctx, env)
		}
	}
	if len(n.ElseBody) > 0 {
		return renderBody(n.ElseBody, ctx, env)
	}
	return "", nil
}

// ElifNode represents one elif clause.
type ElifNode struct {
	Condition string
	Body      []Node
}

func (n *ElifNode) String() string {
	return fmt.Sprintf("Elif(%s)", n.Condition)
}

// EachNode represents an iteration directive. With the bare form
// {{#each items}} the body sees @item and @index; the named form
// {{#each x in items}} binds x instead of @item.
type EachNode struct {
	Variable   string
	Collection string
	Body       []Node
}

func (n *EachNode) String() string {
	if n.Variable != "" {
		return fmt.Sprintf("Each(%s in %s)", n.Variable, n.Collection)
	}
	return fmt.Sprintf("Each(%s)", n.Collection)
}

func (n *EachNode) Render(ctx Context, env *renderEnv) (string, error) {
	collection, _ := ctx.Lookup(n.Collection)
	items := collection.AsList()
	if collection.IsNull() {
		items = nil
	}

	variable := n.Variable
	if variable == "" {
		variable = "@item"
	}

	var result strings.Builder
	for i, item := range items {
		loopCtx := ctx.Clone()
		loopCtx[variable] = item
		loopCtx["@index"] = Int(i)
		loopCtx["@first"] = Bool(i == 0)
		loopCtx["@last"] = Bool(i == len(items)-1)

		rendered, err := renderBody(n.Body, loopCtx, env)
		if err != nil {
			return "", err
		}
		result.WriteString(rendered)
	}
	return result.String(), nil
}

// IncludeNode renders to an explicit include marker; the Generator resolves
// markers through the Loader so nested includes stay depth-bounded instead
// of being inlined during compilation.
type IncludeNode struct {
	Name string
}

const (
	includeMarkerPrefix = "<!--noteforge:include "
	includeMarkerSuffix = "-->"
)

func (n *IncludeNode) String() string {
	return fmt.Sprintf("Include(%s)", n.Name)
}

func (n *IncludeNode) Render(ctx Context, env *renderEnv) (string, error) {
	return includeMarkerPrefix + n.Name + includeMarkerSuffix, nil
}

// BlockNode represents a named, overridable content region. After the
// Loader has merged inheritance, any remaining block renders its default
// content.
type BlockNode struct {
	Name string
	Body []Node
}

func (n *BlockNode) String() string {
	return fmt.Sprintf("Block(%s)", n.Name)
}

func (n *BlockNode) Render(ctx Context, env *renderEnv) (string, error) {
	return renderBody(n.Body, ctx, env)
}

// renderBody renders a list of nodes into one string.
func renderBody(body []Node, ctx Context, env *renderEnv) (string, error) {
	var result strings.Builder
	for _, node := range body {
		rendered, err := node.Render(ctx, env)
		if err != nil {
			return "", err
		}
		result.WriteString(rendered)
	}
	return result.String(), nil
}

// TemplateAST is a parsed template: the node list plus the extends link
// when the source begins with an extends directive.
type TemplateAST struct {
	Extends string
	Nodes   []Node
}

// ParseTemplate tokenizes and parses a template source into an AST.
func ParseTemplate(source string) (*TemplateAST, error) {
	tokens := Tokenize(source)
	parser := &templateParser{tokens: tokens}

	ast := &TemplateAST{}
	if len(tokens) > 0 && tokens[0].Type == TokenExtends {
		ast.Extends = tokens[0].Value
		parser.pos = 1
	}

	nodes, err := parser.parseBodyUntil()
	if err != nil {
		return nil, err
	}
	if !parser.done() {
		t := parser.current()
		return nil, NewParseError("unexpected closing directive", t.Raw, parser.pos)
	}
	ast.Nodes = nodes
	return ast, nil
}

type templateParser struct {
	tokens []Token
	pos    int
}

func (p *templateParser) done() bool {
	return p.pos >= len(p.tokens)
}

func (p *templateParser) current() Token {
	if p.done() {
		return Token{Type: TokenText}
	}
	return p.tokens[p.pos]
}

func (p *templateParser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

// parseBodyUntil parses nodes until one of the stop token types or the end
// of input. The stop token is left unconsumed.
func (p *templateParser) parseBodyUntil(stopTypes ...TokenType) ([]Node, error) {
	var body []Node

	for !p.done() {
		token := p.current()

		for _, stop := range stopTypes {
			if token.Type == stop {
				return body, nil
			}
		}

		switch token.Type {
		case TokenText:
			if token.Value != "" {
				body = append(body, &TextNode{Content: token.Value})
			}
			p.advance()

		case TokenVariable:
			body = append(body, &VariableNode{Body: token.Value})
			p.advance()

		case TokenFunction:
			fn, err := parseFunctionToken(token.Value)
			if err != nil {
				return nil, err
			}
			body = append(body, fn)
			p.advance()

		case TokenIf:
			node, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			body = append(body, node)

		case TokenEach:
			node, err := p.parseEach()
			if err != nil {
				return nil, err
			}
			body = append(body, node)

		case TokenBlock:
			node, err := p.parseBlock()
			if err != nil {
				return nil, err
			}
			body = append(body, node)

		case TokenInclude:
			body = append(body, &IncludeNode{Name: token.Value})
			p.advance()

		case TokenExtends:
			return nil, NewParseError("extends must be the first directive", token.Raw, p.pos)

		default:
			// Unmatched closing directive.
			return body, nil
		}
	}

	return body, nil
}

func (p *templateParser) parseIf() (*IfNode, error) {
	condition := p.current().Value
	if strings.TrimSpace(condition) == "" {
		return nil, NewParseError("if directive requires a condition", p.current().Raw, p.pos)
	}
	p.advance()

	node := &IfNode{Condition: condition}

	thenBody, err := p.parseBodyUntil(TokenElif, TokenElse, TokenEndIf)
	if err != nil {
		return nil, err
	}
	node.ThenBody = thenBody

	for p.current().Type == TokenElif {
		elif := &ElifNode{Condition: p.current().Value}
		if strings.TrimSpace(elif.Condition) == "" {
			return nil, NewParseError("elif directive requires a condition", p.current().Raw, p.pos)
		}
		p.advance()
		elifBody, err := p.parseBodyUntil(TokenElif, TokenElse, TokenEndIf)
		if err != nil {
			return nil, err
		}
		elif.Body = elifBody
		node.Elifs = append(node.Elifs, elif)
	}

	if p.current().Type == TokenElse {
		p.advance()
		elseBody, err := p.parseBodyUntil(TokenEndIf)
		if err != nil {
			return nil, err
		}
		node.ElseBody = elseBody
	}

	if p.current().Type != TokenEndIf {
		return nil, NewParseError("unclosed if directive", node.Condition, p.pos)
	}
	p.advance()

	return node, nil
}

func (p *templateParser) parseEach() (*EachNode, error) {
	node, err := parseEachHeader(p.current().Value)
	if err != nil {
		return nil, err
	}
	p.advance()

	body, err := p.parseBodyUntil(TokenEndEach)
	if err != nil {
		return nil, err
	}
	node.Body = body

	if p.current().Type != TokenEndEach {
		return nil, NewParseError("unclosed each directive", node.Collection, p.pos)
	}
	p.advance()

	return node, nil
}

func (p *templateParser) parseBlock() (*BlockNode, error) {
	name := p.current().Value
	if name == "" {
		return nil, NewParseError("block directive requires a name", p.current().Raw, p.pos)
	}
	p.advance()

	body, err := p.parseBodyUntil(TokenEndBlock)
	if err != nil {
		return nil, err
	}

	if p.current().Type != TokenEndBlock {
		return nil, NewParseError("unclosed block directive", name, p.pos)
	}
	p.advance()

	return &BlockNode{Name: name, Body: body}, nil
}

// parseEachHeader parses "items" or "x in items".
func parseEachHeader(header string) (*EachNode, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, NewParseError("each directive requires a collection", header, 0)
	}
	if idx := strings.Index(header, " in "); idx >= 0 {
		variable := strings.TrimSpace(header[:idx])
		collection := strings.TrimSpace(header[idx+4:])
		if variable == "" || collection == "" {
			return nil, NewParseError("invalid each directive", header, 0)
		}
		return &EachNode{Variable: variable, Collection: collection}, nil
	}
	return &EachNode{Collection: header}, nil
}

// parseFunctionToken parses "name(arg, arg)" into a FunctionNode.
func parseFunctionToken(body string) (*FunctionNode, error) {
	open := strings.IndexByte(body, '(')
	if open < 0 || !strings.HasSuffix(body, ")") {
		return nil, NewParseError("malformed function call", body, 0)
	}
	name := strings.TrimSpace(body[:open])
	argText := body[open+1 : len(body)-1]

	node := &FunctionNode{Name: name}
	if strings.TrimSpace(argText) == "" {
		return node, nil
	}

	rawArgs, err := splitFilterArgs(argText)
	if err != nil {
		return nil, err
	}
	quoted := quotedArgPositions(argText)
	for i, raw := range rawArgs {
		if i < len(quoted) && quoted[i] {
			node.Args = append(node.Args, functionArg{literal: String(raw)})
			continue
		}
		lit := Infer(raw)
		if lit.Kind() != KindString {
			node.Args = append(node.Args, functionArg{literal: lit})
			continue
		}
		node.Args = append(node.Args, functionArg{path: raw})
	}
	return node, nil
}

// quotedArgPositions reports, per comma-separated argument, whether it was
// written as a quoted literal. Quoted arguments stay strings instead of
// resolving as context paths.
func quotedArgPositions(argText string) []bool {
	var positions []bool
	var quote byte
	sawQuote := false

	for i := 0; i < len(argText); i++ {
		c := argText[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			sawQuote = true
		case c == ',':
			positions = append(positions, sawQuote)
			sawQuote = false
		}
	}
	positions = append(positions, sawQuote)
	return positions
}
