package noteforge

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Loader reads named templates from a directory, resolves extends links by
// merging child blocks into the parent skeleton, and caches both raw loads
// and resolved results.
type Loader struct {
	dir     string
	ext     string
	enabled bool
	cache   *templateCache

	watchMu sync.Mutex
	watcher *templateWatcher
}

// NewLoader creates a loader for the configured template directory.
func NewLoader(config *Config) *Loader {
	if config == nil {
		config = DefaultConfig()
	}
	return &Loader{
		dir:     config.TemplateDir,
		ext:     config.TemplateExt,
		enabled: config.CacheEnabled,
		cache:   newTemplateCache(),
	}
}

// Load returns the inheritance-resolved source for a named template. A
// name with no extension gets the configured one appended. Returns
// TemplateNotFoundError when no file matches; other I/O failures propagate
// as-is.
func (l *Loader) Load(name string) (string, error) {
	if l.enabled {
		if resolved, ok := l.cache.GetResolved(name); ok {
			return resolved, nil
		}
	}

	resolved, err := l.resolve(name, map[string]bool{})
	if err != nil {
		return "", err
	}

	if l.enabled {
		resolved = l.cache.SetResolved(name, resolved)
	}
	return resolved, nil
}

// LoadRaw returns the template source exactly as stored, without
// inheritance resolution.
func (l *Loader) LoadRaw(name string) (string, error) {
	if l.enabled {
		if source, ok := l.cache.GetRaw(name); ok {
			return source, nil
		}
	}

	path := l.pathFor(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", NewTemplateNotFoundError(name, l.dir)
		}
		return "", err
	}

	source := string(data)
	if l.enabled {
		source = l.cache.SetRaw(name, source)
	}
	return source, nil
}

// ClearCache drops all cached templates.
func (l *Loader) ClearCache() {
	l.cache.Clear()
}

// CacheSize returns the number of cached raw templates.
func (l *Loader) CacheSize() int {
	return l.cache.Size()
}

func (l *Loader) pathFor(name string) string {
	filename := name
	if filepath.Ext(filename) == "" {
		filename += l.ext
	}
	return filepath.Join(l.dir, filename)
}

// resolve loads a template and, when it begins with an extends directive,
// recursively resolves the parent and substitutes the child's blocks into
// it. The visited set guards against inheritance cycles.
func (l *Loader) resolve(name string, visited map[string]bool) (string, error) {
	if visited[name] {
		return "", NewParseError("inheritance cycle detected", name, 0)
	}
	visited[name] = true

	source, err := l.LoadRaw(name)
	if err != nil {
		return "", err
	}

	return l.resolveSource(source, visited)
}

// ResolveSource applies inheritance resolution to raw template text that
// did not come from a named file.
func (l *Loader) ResolveSource(source string) (string, error) {
	return l.resolveSource(source, map[string]bool{})
}

func (l *Loader) resolveSource(source string, visited map[string]bool) (string, error) {
	tokens := Tokenize(source)
	if len(tokens) == 0 || firstDirective(tokens).Type != TokenExtends {
		return source, nil
	}

	parentName := firstDirective(tokens).Value
	parentSource, err := l.resolve(parentName, visited)
	if err != nil {
		return "", err
	}

	overrides, err := extractBlocks(tokens)
	if err != nil {
		return "", err
	}

	return mergeBlocks(parentSource, overrides)
}

// firstDirective skips leading whitespace-only text tokens so an extends
// directive preceded by a blank line still counts as leading.
func firstDirective(tokens []Token) Token {
	for _, t := range tokens {
		if t.Type == TokenText && strings.TrimSpace(t.Value) == "" {
			continue
		}
		return t
	}
	return Token{Type: TokenText}
}

// extractBlocks collects the raw interior source of every top-level block
// in a child template.
func extractBlocks(tokens []Token) (map[string]string, error) {
	blocks := map[string]string{}

	for i := 0; i < len(tokens); i++ {
		if tokens[i].Type != TokenBlock {
			continue
		}
		name := tokens[i].Value
		var interior strings.Builder
		depth := 1
		j := i + 1
		for ; j < len(tokens); j++ {
			switch tokens[j].Type {
			case TokenBlock:
				depth++
			case TokenEndBlock:
				depth--
			}
			if depth == 0 {
				break
			}
			interior.WriteString(rawToken(tokens[j]))
		}
		if depth != 0 {
			return nil, NewParseError("unclosed block directive", name, i)
		}
		blocks[name] = interior.String()
		i = j
	}

	return blocks, nil
}

// mergeBlocks rewrites the parent source, replacing the interior of each
// block the child overrides. Blocks without an override keep their default
// content; block markers stay in place for the compiler to render.
func mergeBlocks(parentSource string, overrides map[string]string) (string, error) {
	tokens := Tokenize(parentSource)
	var out strings.Builder

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Type != TokenBlock {
			out.WriteString(rawToken(t))
			continue
		}

		name := t.Value
		depth := 1
		j := i + 1
		var defaultContent strings.Builder
		for ; j < len(tokens); j++ {
			switch tokens[j].Type {
			case TokenBlock:
				depth++
			case TokenEndBlock:
				depth--
			}
			if depth == 0 {
				break
			}
			defaultContent.WriteString(rawToken(tokens[j]))
		}
		if depth != 0 {
			return "", NewParseError("unclosed block directive in parent", name, i)
		}

		content := defaultContent.String()
		if override, ok := overrides[name]; ok {
			content = override
		}
		out.WriteString(`{{block "` + name + `"}}`)
		out.WriteString(content)
		out.WriteString("{{/block}}")
		i = j
	}

	return out.String(), nil
}

// rawToken reconstructs the source text of a token.
func rawToken(t Token) string {
	if t.Type == TokenText {
		return t.Value
	}
	return t.Raw
}
