package noteforge

import (
	"regexp"
	"strings"
)

// Compiler renders template source against a context. Compilation is a
// pure function of (source, context): identical inputs produce byte-
// identical output, so results are safe to cache or re-run.
type Compiler struct {
	registry *FunctionRegistry
}

// NewCompiler creates a compiler that resolves function calls through the
// given registry.
func NewCompiler(registry *FunctionRegistry) *Compiler {
	if registry == nil {
		registry = NewDefaultFunctionRegistry(nil)
	}
	return &Compiler{registry: registry}
}

// CompileResult is the output of one compile call: the rendered body and,
// when the template began with a frontmatter fence, the rendered fence
// interior.
type CompileResult struct {
	Body           string
	Frontmatter    string
	HasFrontmatter bool
}

// Compile renders a template. A leading frontmatter fence is compiled
// separately from the body with the same directive engine. Both halves go
// through the cleanup pass, which strips stray directive-like sequences
// and collapses runs of blank lines.
func (c *Compiler) Compile(source string, ctx Context) (CompileResult, error) {
	fmSource, bodySource, hasFM := splitFrontmatterFence(source)

	result := CompileResult{HasFrontmatter: hasFM}

	if hasFM {
		rendered, err := c.render(fmSource, ctx)
		if err != nil {
			return CompileResult{}, err
		}
		result.Frontmatter = cleanupOutput(rendered)
	}

	body, err := c.render(bodySource, ctx)
	if err != nil {
		return CompileResult{}, err
	}
	result.Body = cleanupOutput(body)

	return result, nil
}

// CompileBody renders source that is known to have no fence, such as block
// interiors and included fragments.
func (c *Compiler) CompileBody(source string, ctx Context) (string, error) {
	rendered, err := c.render(source, ctx)
	if err != nil {
		return "", err
	}
	return cleanupOutput(rendered), nil
}

func (c *Compiler) render(source string, ctx Context) (string, error) {
	ast, err := ParseTemplate(source)
	if err != nil {
		return "", err
	}
	env := &renderEnv{registry: c.registry}
	return renderBody(ast.Nodes, ctx, env)
}

const fenceDelimiter = "---"

// splitFrontmatterFence detects a fence-delimited block at the very top of
// the template and returns (fence interior, remaining body, found).
func splitFrontmatterFence(source string) (string, string, bool) {
	if !strings.HasPrefix(source, fenceDelimiter+"\n") && source != fenceDelimiter {
		return "", source, false
	}

	rest := strings.TrimPrefix(source, fenceDelimiter+"\n")
	end := -1
	if strings.HasPrefix(rest, fenceDelimiter+"\n") || rest == fenceDelimiter {
		end = 0
	} else if idx := strings.Index(rest, "\n"+fenceDelimiter); idx >= 0 {
		after := rest[idx+1+len(fenceDelimiter):]
		if after == "" || strings.HasPrefix(after, "\n") {
			end = idx + 1
		}
	}
	if end < 0 {
		return "", source, false
	}

	interior := rest[:end]
	body := rest[end+len(fenceDelimiter):]
	body = strings.TrimPrefix(body, "\n")
	return interior, body, true
}

var (
	strayDirectiveRegex = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	blankRunRegex       = regexp.MustCompile(`\n{3,}`)
)

// cleanupOutput strips any directive-like sequences that survived
// rendering (for example from context values containing braces) and
// collapses runs of three or more newlines down to one blank line.
func cleanupOutput(s string) string {
	s = strayDirectiveRegex.ReplaceAllString(s, "")
	s = blankRunRegex.ReplaceAllString(s, "\n\n")
	return s
}
