package noteforge

import (
	"errors"
	"strings"
	"testing"
)

func renderSource(t *testing.T, source string, ctx Context) string {
	t.Helper()
	compiler := NewCompiler(NewDefaultFunctionRegistry(testClock))
	out, err := compiler.CompileBody(source, ctx)
	if err != nil {
		t.Fatalf("render %q: %v", source, err)
	}
	return out
}

func TestRenderVariables(t *testing.T) {
	ctx := Context{
		"name": String("Ann"),
		"user": Map(map[string]Value{"email": String("ann@example.com")}),
	}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"interpolation", "Hello {{name}}!", "Hello Ann!"},
		{"dotted path", "mail: {{user.email}}", "mail: ann@example.com"},
		{"missing renders empty", "x{{missing}}y", "xy"},
		{"default filter on missing", `Hello {{missing | default:"Guest"}}`, "Hello Guest"},
		{"default filter not applied", `Hello {{name | default:"Guest"}}`, "Hello Ann"},
		{"filter chain", "{{name | upper}}", "ANN"},
		{"whitespace inside braces", "{{ name }}", "Ann"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderSource(t, tt.source, ctx); got != tt.want {
				t.Errorf("render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestRenderConditionals(t *testing.T) {
	tests := []struct {
		name   string
		source string
		ctx    Context
		want   string
	}{
		{
			name:   "true branch",
			source: "{{#if x > 3}}yes{{/if}}",
			ctx:    Context{"x": Int(5)},
			want:   "yes",
		},
		{
			name:   "false branch renders nothing",
			source: "{{#if x > 3}}yes{{/if}}",
			ctx:    Context{"x": Int(2)},
			want:   "",
		},
		{
			name:   "else branch",
			source: "{{#if done}}done{{#else}}pending{{/if}}",
			ctx:    Context{"done": Bool(false)},
			want:   "pending",
		},
		{
			name:   "elif chain picks middle",
			source: "{{#if x > 10}}big{{#elif x > 5}}mid{{#else}}small{{/if}}",
			ctx:    Context{"x": Int(7)},
			want:   "mid",
		},
		{
			name:   "elif chain falls through",
			source: "{{#if x > 10}}big{{#elif x > 5}}mid{{#else}}small{{/if}}",
			ctx:    Context{"x": Int(1)},
			want:   "small",
		},
		{
			name:   "keyword style",
			source: "{{if flag}}on{{endif}}",
			ctx:    Context{"flag": Bool(true)},
			want:   "on",
		},
		{
			name:   "nested conditionals",
			source: "{{#if a}}A{{#if b}}B{{/if}}{{/if}}",
			ctx:    Context{"a": Bool(true), "b": Bool(true)},
			want:   "AB",
		},
		{
			name:   "unparsable condition renders nothing",
			source: "{{#if x >}}yes{{#else}}no{{/if}}",
			ctx:    Context{"x": Int(1)},
			want:   "no",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderSource(t, tt.source, tt.ctx); got != tt.want {
				t.Errorf("render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestRenderLoops(t *testing.T) {
	tests := []struct {
		name   string
		source string
		ctx    Context
		want   string
	}{
		{
			name:   "bare form binds @item",
			source: "{{#each items}}{{@item}}-{{/each}}",
			ctx:    Context{"items": StringList("a", "b")},
			want:   "a-b-",
		},
		{
			name:   "index and last",
			source: "{{#each items}}{{@index}}:{{@item}}{{#if not @last}},{{/if}}{{/each}}",
			ctx:    Context{"items": StringList("a", "b")},
			want:   "0:a,1:b",
		},
		{
			name:   "first marker",
			source: "{{#each items}}{{#if @first}}>{{/if}}{{@item}}{{/each}}",
			ctx:    Context{"items": StringList("a", "b")},
			want:   ">ab",
		},
		{
			name:   "named form with field access",
			source: "{{#each tx in txs}}{{tx.label}}={{tx.amount}};{{/each}}",
			ctx: Context{"txs": List(
				Map(map[string]Value{"label": String("coffee"), "amount": Float(3.5)}),
				Map(map[string]Value{"label": String("lunch"), "amount": Int(12)}),
			)},
			want: "coffee=3.5;lunch=12;",
		},
		{
			name:   "keyword style",
			source: "{{each items}}{{@item}}{{endeach}}",
			ctx:    Context{"items": StringList("x", "y")},
			want:   "xy",
		},
		{
			name:   "missing collection renders nothing",
			source: "{{#each nothing}}x{{/each}}",
			ctx:    Context{},
			want:   "",
		},
		{
			name:   "scalar iterates once",
			source: "{{#each solo}}[{{@item}}]{{/each}}",
			ctx:    Context{"solo": String("a")},
			want:   "[a]",
		},
		{
			name:   "outer variable visible inside loop",
			source: "{{#each items}}{{prefix}}{{@item}}{{/each}}",
			ctx:    Context{"items": StringList("1", "2"), "prefix": String("#")},
			want:   "#1#2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderSource(t, tt.source, tt.ctx); got != tt.want {
				t.Errorf("render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestRenderLoopDoesNotMutateContext(t *testing.T) {
	ctx := Context{"items": StringList("a", "b")}
	renderSource(t, "{{#each items}}{{@item}}{{/each}}", ctx)

	if _, ok := ctx["@item"]; ok {
		t.Error("loop leaked @item into the caller's context")
	}
	if _, ok := ctx["@index"]; ok {
		t.Error("loop leaked @index into the caller's context")
	}
}

func TestRenderFunctions(t *testing.T) {
	ctx := Context{
		"flag":   Bool(true),
		"amount": Float(1234.5),
	}

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"literal args", `{{conditional(flag, "on", "off")}}`, "on"},
		{"context path arg", `{{number_format(amount, "currency")}}`, "$1,234.50"},
		{"clock-backed", `{{today("%Y")}}`, "2026"},
		{"numeric literal arg", `{{conditional(1, "yes", "no")}}`, "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := renderSource(t, tt.source, ctx); got != tt.want {
				t.Errorf("render(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestRenderErrorsWrapExpression(t *testing.T) {
	compiler := NewCompiler(nil)
	_, err := compiler.CompileBody("{{name | reverse}}", Context{"name": String("x")})
	if err == nil {
		t.Fatal("expected error for unknown filter")
	}
	if !IsEvaluationError(err) {
		t.Fatalf("got %T, want *EvaluationError", err)
	}
	if !strings.Contains(err.Error(), "name | reverse") {
		t.Errorf("error should name the failing expression: %v", err)
	}
	if !IsFunctionError(errors.Unwrap(err)) {
		t.Errorf("cause should be the filter error, got %v", errors.Unwrap(err))
	}
}

func TestRenderBlockDefaultContent(t *testing.T) {
	got := renderSource(t, `{{block "body"}}default text{{/block}}`, Context{})
	if got != "default text" {
		t.Errorf("block rendered %q, want %q", got, "default text")
	}
}

func TestRenderIncludeEmitsMarker(t *testing.T) {
	got := renderSource(t, `{{include "footer"}}`, Context{})
	want := includeMarkerPrefix + "footer" + includeMarkerSuffix
	if got != want {
		t.Errorf("include rendered %q, want %q", got, want)
	}
}

func TestParseTemplate(t *testing.T) {
	t.Run("extends recorded when first", func(t *testing.T) {
		ast, err := ParseTemplate(`{{extends "base"}}{{block "a"}}x{{/block}}`)
		if err != nil {
			t.Fatalf("ParseTemplate error: %v", err)
		}
		if ast.Extends != "base" {
			t.Errorf("Extends = %q, want %q", ast.Extends, "base")
		}
	})

	t.Run("extends mid-template rejected", func(t *testing.T) {
		_, err := ParseTemplate(`text {{extends "base"}}`)
		if err == nil || !IsParseError(err) {
			t.Fatalf("expected parse error, got %v", err)
		}
	})

	errorCases := []struct {
		name   string
		source string
	}{
		{"unclosed if", "{{#if x}}yes"},
		{"unclosed each", "{{#each items}}x"},
		{"unclosed block", `{{block "a"}}x`},
		{"stray endif", "text{{/if}}"},
		{"if without condition", "{{#if}}x{{/if}}"},
		{"unterminated function argument", `{{now("%Y)}}`},
	}

	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTemplate(tt.source)
			if err == nil {
				t.Fatalf("ParseTemplate(%q) expected error", tt.source)
			}
			if !IsParseError(err) {
				t.Errorf("ParseTemplate(%q) returned %T, want *ParseError", tt.source, err)
			}
		})
	}
}

func TestNodeString(t *testing.T) {
	ast, err := ParseTemplate("{{#if x}}{{name}}{{/if}}{{#each items}}i{{/each}}")
	if err != nil {
		t.Fatalf("ParseTemplate error: %v", err)
	}
	var labels []string
	for _, node := range ast.Nodes {
		labels = append(labels, node.String())
	}
	joined := strings.Join(labels, " ")
	if !strings.Contains(joined, "If(x)") || !strings.Contains(joined, "Each(items)") {
		t.Errorf("unexpected node labels: %s", joined)
	}
}
