package noteforge

import "time"

// Engine provides the main API: one engine owns a template cache, a
// function registry, and the generator pipeline built on them. Engines are
// safe for concurrent use.
type Engine struct {
	config    *Config
	loader    *Loader
	registry  *FunctionRegistry
	compiler  *Compiler
	validator *Validator
	generator *Generator
	clock     func() time.Time
}

// Option configures an engine at construction time.
type Option func(*Engine)

// WithConfig sets the engine configuration.
func WithConfig(config *Config) Option {
	return func(e *Engine) {
		e.config = config
	}
}

// WithTemplateDir overrides the template directory.
func WithTemplateDir(dir string) Option {
	return func(e *Engine) {
		cfg := *e.config
		cfg.TemplateDir = dir
		e.config = &cfg
	}
}

// WithFunction registers a custom function alongside the builtins.
// Functions the registry rejects are dropped with a logged warning;
// use RegisterFunction to observe the error.
func WithFunction(fn Function) Option {
	return func(e *Engine) {
		if err := e.registry.Register(fn); err != nil {
			GetLogger().Warn("dropping invalid function option", "error", err.Error())
		}
	}
}

// WithClock replaces the time source used by now/today, timestamp fields,
// and filename generation.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLogger routes engine logs to the given logger.
func WithLogger(logger *Logger) Option {
	return func(e *Engine) {
		SetLogger(logger)
	}
}

// New creates an engine. Without options it reads configuration from the
// environment.
func New(opts ...Option) *Engine {
	e := &Engine{
		config: GetGlobalConfig(),
		clock:  time.Now,
	}
	e.registry = NewDefaultFunctionRegistry(func() time.Time { return e.clock() })

	for _, opt := range opts {
		opt(e)
	}

	e.loader = NewLoader(e.config)
	e.compiler = NewCompiler(e.registry)
	e.validator = NewValidator(e.registry)
	e.generator = NewGenerator(e.loader, e.compiler, e.validator, e.config)
	e.generator.SetClock(func() time.Time { return e.clock() })
	return e
}

// Generate renders a named template into a finished document.
func (e *Engine) Generate(name string, ctx Context, ai *AIResult) (*Document, error) {
	return e.generator.Generate(name, ctx, ai)
}

// GenerateFromSource renders raw template text into a finished document.
func (e *Engine) GenerateFromSource(source string, ctx Context, ai *AIResult) (*Document, error) {
	return e.generator.GenerateFromSource(source, ctx, ai)
}

// Render compiles raw template text against a context and returns the
// rendered body only, without frontmatter handling or validation. Useful
// for fragments and tests.
func (e *Engine) Render(source string, ctx Context) (string, error) {
	return e.compiler.CompileBody(source, ctx)
}

// Validate runs static checks on template source against a context.
func (e *Engine) Validate(source string, ctx Context) (bool, []string) {
	return e.validator.Validate(source, ctx)
}

// RegisterFunction adds a custom function to the engine's registry.
func (e *Engine) RegisterFunction(fn Function) error {
	return e.registry.Register(fn)
}

// Loader exposes the engine's template loader.
func (e *Engine) Loader() *Loader {
	return e.loader
}

// Config returns the engine's configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// ClearCache drops all cached templates.
func (e *Engine) ClearCache() {
	e.loader.ClearCache()
}

// Watch starts filesystem-driven cache invalidation for the template
// directory.
func (e *Engine) Watch() error {
	return e.loader.Watch()
}

// Close releases the engine's filesystem watcher if one is running.
func (e *Engine) Close() error {
	return e.loader.Close()
}
