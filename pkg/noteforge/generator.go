package noteforge

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Document is one finished render: a filename, the full content exactly as
// the persistence layer stores it, and the parsed frontmatter mapping.
// Documents are created once and never modified; ownership passes to the
// caller.
type Document struct {
	Filename    string
	Content     string
	Frontmatter Fields
}

// Generator orchestrates Loader, Compiler, and Serializer into one render
// call. Validation runs first; templates that fail it produce a minimal
// fallback document instead of an error.
type Generator struct {
	loader    *Loader
	compiler  *Compiler
	validator *Validator
	config    *Config
	clock     func() time.Time
}

// NewGenerator wires a generator from its parts. Nil parts get defaults.
func NewGenerator(loader *Loader, compiler *Compiler, validator *Validator, config *Config) *Generator {
	if config == nil {
		config = DefaultConfig()
	}
	if loader == nil {
		loader = NewLoader(config)
	}
	if compiler == nil {
		compiler = NewCompiler(nil)
	}
	if validator == nil {
		validator = NewValidator(nil)
	}
	return &Generator{
		loader:    loader,
		compiler:  compiler,
		validator: validator,
		config:    config,
		clock:     time.Now,
	}
}

// SetClock replaces the time source, making filenames and timestamp fields
// deterministic under test.
func (g *Generator) SetClock(clock func() time.Time) {
	if clock != nil {
		g.clock = clock
	}
}

// Generate renders a named template. A missing template falls back to the
// minimal document; only non-not-found I/O errors propagate.
func (g *Generator) Generate(name string, ctx Context, ai *AIResult) (*Document, error) {
	source, err := g.loader.Load(name)
	if err != nil {
		if IsTemplateNotFound(err) {
			GetLogger().Warn("template not found, using fallback", "template", name)
			return g.fallbackDocument(name, ctx), nil
		}
		return nil, err
	}
	return g.generate(name, source, ctx, ai)
}

// GenerateFromSource renders raw template text, bypassing the loader for
// the initial read. Extends directives in the source still resolve through
// the loader.
func (g *Generator) GenerateFromSource(source string, ctx Context, ai *AIResult) (*Document, error) {
	resolved, err := g.loader.ResolveSource(source)
	if err != nil {
		if IsTemplateNotFound(err) {
			GetLogger().Warn("parent template not found, using fallback")
			return g.fallbackDocument("note", ctx), nil
		}
		return nil, err
	}
	return g.generate("note", resolved, ctx, ai)
}

func (g *Generator) generate(name, source string, ctx Context, ai *AIResult) (*Document, error) {
	if ctx == nil {
		ctx = Context{}
	}

	ok, problems := g.validator.Validate(source, ctx)
	if !ok {
		if g.config.StrictMode {
			issues := make([]ValidationIssue, len(problems))
			for i, p := range problems {
				issues[i] = ValidationIssue{Field: name, Message: p}
			}
			return nil, &ValidationError{Issues: issues}
		}
		GetLogger().Warn("template failed validation, using fallback",
			"template", name, "problems", strings.Join(problems, "; "))
		return g.fallbackDocument(name, ctx), nil
	}

	compiled, err := g.compiler.Compile(source, ctx)
	if err != nil {
		// Validation passed but rendering failed; recover locally the
		// same way validation failures do.
		GetLogger().Warn("compile failed, using fallback",
			"template", name, "error", err.Error())
		return g.fallbackDocument(name, ctx), nil
	}

	body, err := g.resolveIncludes(compiled.Body, ctx)
	if err != nil {
		return nil, err
	}

	fields := Fields{}
	if compiled.HasFrontmatter {
		parsed, err := ParseFrontmatter(compiled.Frontmatter)
		if err != nil {
			GetLogger().Warn("discarding unparsable frontmatter",
				"template", name, "error", err.Error())
		} else {
			fields = parsed
		}
	}

	ApplyAIResult(fields, ai)
	mergeAbsent(fields, AnalyzeContent(body).Fields())
	if _, ok := fields["created"]; !ok {
		fields["created"] = String(g.clock().Format("2006-01-02 15:04"))
	}

	header := SerializeFrontmatter(fields, SerializeOptions{})
	content := header + "\n" + strings.TrimLeft(body, "\n")

	return &Document{
		Filename:    g.filename(fields, name),
		Content:     content,
		Frontmatter: fields,
	}, nil
}

// mergeAbsent copies fields from src that dst does not already carry.
func mergeAbsent(dst, src Fields) {
	for key, value := range src {
		if existing, ok := dst[key]; ok && !existing.IsEmpty() {
			continue
		}
		dst[key] = value
	}
}

var includeMarkerRegex = regexp.MustCompile(regexp.QuoteMeta(includeMarkerPrefix) + `([^>]*?)` + regexp.QuoteMeta(includeMarkerSuffix))

// resolveIncludes substitutes include markers with compiled fragment
// bodies, up to the configured depth. Fragments that fail to load or
// validate resolve to nothing rather than failing the document.
func (g *Generator) resolveIncludes(body string, ctx Context) (string, error) {
	for depth := 0; depth < g.config.MaxIncludeDepth; depth++ {
		if !includeMarkerRegex.MatchString(body) {
			return body, nil
		}
		var failure error
		body = includeMarkerRegex.ReplaceAllStringFunc(body, func(marker string) string {
			name := strings.TrimSpace(includeMarkerRegex.FindStringSubmatch(marker)[1])
			fragment, err := g.loader.Load(name)
			if err != nil {
				if IsTemplateNotFound(err) {
					GetLogger().Warn("include not found", "template", name)
					return ""
				}
				failure = err
				return ""
			}
			rendered, err := g.compiler.CompileBody(fragment, ctx)
			if err != nil {
				GetLogger().Warn("include failed to render", "template", name, "error", err.Error())
				return ""
			}
			return rendered
		})
		if failure != nil {
			return "", failure
		}
	}
	// Depth exhausted: drop whatever markers remain.
	return includeMarkerRegex.ReplaceAllString(body, ""), nil
}

// fallbackDocument builds the minimal document used when a template is
// missing or invalid: a title heading plus the raw content, with only a
// created timestamp in the header.
func (g *Generator) fallbackDocument(name string, ctx Context) *Document {
	title := "Untitled"
	if v, ok := ctx["title"]; ok && !v.IsEmpty() {
		title = v.Format()
	}
	rawContent := ""
	if v, ok := ctx["content"]; ok {
		rawContent = v.Format()
	}

	fields := Fields{
		"created": String(g.clock().Format("2006-01-02 15:04")),
	}

	var body strings.Builder
	body.WriteString("# " + title + "\n")
	if rawContent != "" {
		body.WriteString("\n" + rawContent + "\n")
	}

	header := SerializeFrontmatter(fields, SerializeOptions{})
	return &Document{
		Filename:    g.filename(Fields{"title": String(title)}, name),
		Content:     header + "\n" + body.String(),
		Frontmatter: fields,
	}
}

var slugStripRegex = regexp.MustCompile(`[^a-z0-9]+`)

// filename derives the output filename from the fixed scheme:
// date-time prefix, a slug from the title (or template name), and a short
// unique suffix.
func (g *Generator) filename(fields Fields, templateName string) string {
	slug := ""
	if title, ok := fields["title"]; ok {
		slug = slugify(title.Format())
	}
	if slug == "" {
		slug = slugify(strings.TrimSuffix(templateName, g.config.TemplateExt))
	}
	if slug == "" {
		slug = "note"
	}

	stamp := g.clock().Format("2006-01-02-1504")
	suffix := uuid.NewString()[:8]
	return stamp + "-" + slug + "-" + suffix + ".md"
}

// slugify lowercases text and reduces it to hyphen-separated alphanumeric
// runs, capped at a sane filename length.
func slugify(s string) string {
	s = strings.ToLower(s)
	s = slugStripRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 40 {
		s = strings.Trim(s[:40], "-")
	}
	return s
}
