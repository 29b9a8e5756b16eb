package noteforge

import (
	"regexp"
	"strings"
)

// TokenType represents the type of a template token.
type TokenType int

const (
	TokenText TokenType = iota
	TokenVariable
	TokenFunction
	TokenIf
	TokenElif
	TokenElse
	TokenEndIf
	TokenEach
	TokenEndEach
	TokenBlock
	TokenEndBlock
	TokenExtends
	TokenInclude
)

// Token represents a parsed template token.
type Token struct {
	Type  TokenType
	Value string
	Raw   string
}

var (
	// Matches template directives between {{ and }}.
	tokenRegex = regexp.MustCompile(`\{\{([^{}]*)\}\}`)
	// A directive body that is a bare function call: name(args).
	functionCallRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*\(.*\)$`)
	// Quoted argument of extends/include/block directives.
	quotedNameRegex = regexp.MustCompile(`^"([^"]*)"|^'([^']*)'`)
)

// Tokenize parses a template string into tokens. Both the hash bracket
// style ({{#if}}...{{/if}}) and the keyword style ({{if}}...{{endif}}) are
// recognized, matching templates authored against either generation of the
// directive syntax.
func Tokenize(input string) []Token {
	var tokens []Token
	lastEnd := 0

	matches := tokenRegex.FindAllStringSubmatchIndex(input, -1)

	for _, match := range matches {
		if match[0] > lastEnd {
			tokens = append(tokens, Token{
				Type:  TokenText,
				Value: input[lastEnd:match[0]],
			})
		}

		raw := input[match[0]:match[1]]
		content := strings.TrimSpace(input[match[2]:match[3]])

		if content == "" {
			// Empty directives pass through as text for the cleanup
			// pass to strip.
			tokens = append(tokens, Token{Type: TokenText, Value: raw})
		} else {
			token := parseToken(content)
			token.Raw = raw
			tokens = append(tokens, token)
		}

		lastEnd = match[1]
	}

	if lastEnd < len(input) {
		tokens = append(tokens, Token{
			Type:  TokenText,
			Value: input[lastEnd:],
		})
	}

	return tokens
}

// parseToken determines the type of a directive from its content.
func parseToken(content string) Token {
	// Closing directives in hash style: {{/if}}, {{/each}}, {{/block}}.
	if strings.HasPrefix(content, "/") {
		switch strings.TrimSpace(content[1:]) {
		case "if":
			return Token{Type: TokenEndIf}
		case "each":
			return Token{Type: TokenEndEach}
		case "block":
			return Token{Type: TokenEndBlock}
		}
		return Token{Type: TokenText, Value: "{{" + content + "}}"}
	}

	// Opening directives in hash style: {{#if ...}}, {{#each ...}}.
	body := content
	if strings.HasPrefix(body, "#") {
		body = strings.TrimSpace(body[1:])
	}

	parts := strings.Fields(body)
	if len(parts) == 0 {
		return Token{Type: TokenText, Value: "{{" + content + "}}"}
	}

	keyword := parts[0]
	rest := strings.TrimSpace(strings.TrimPrefix(body, keyword))

	switch keyword {
	case "if":
		return Token{Type: TokenIf, Value: rest}
	case "elif", "elsif", "elseif":
		return Token{Type: TokenElif, Value: rest}
	case "else":
		return Token{Type: TokenElse}
	case "endif":
		return Token{Type: TokenEndIf}
	case "each":
		return Token{Type: TokenEach, Value: rest}
	case "endeach":
		return Token{Type: TokenEndEach}
	case "block":
		return Token{Type: TokenBlock, Value: unquoteName(rest)}
	case "endblock":
		return Token{Type: TokenEndBlock}
	case "extends":
		return Token{Type: TokenExtends, Value: unquoteName(rest)}
	case "include":
		return Token{Type: TokenInclude, Value: unquoteName(rest)}
	}

	if functionCallRegex.MatchString(body) {
		return Token{Type: TokenFunction, Value: body}
	}

	// Anything else is a variable interpolation, possibly with a filter
	// chain after '|'.
	return Token{Type: TokenVariable, Value: body}
}

// unquoteName strips surrounding quotes from a directive argument such as
// the template name of extends/include or a block name.
func unquoteName(s string) string {
	s = strings.TrimSpace(s)
	if m := quotedNameRegex.FindStringSubmatch(s); m != nil {
		if m[1] != "" {
			return m[1]
		}
		return m[2]
	}
	return s
}

// FindTemplateTokens finds all raw template directives in a string. Used by
// the compiler's cleanup pass and by validation diagnostics.
func FindTemplateTokens(input string) []string {
	matches := tokenRegex.FindAllString(input, -1)
	if matches == nil {
		return []string{}
	}
	return matches
}
