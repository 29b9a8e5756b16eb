package noteforge

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLoaderConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		TemplateDir:     t.TempDir(),
		TemplateExt:     ".md",
		CacheEnabled:    true,
		LogLevel:        "error",
		MaxIncludeDepth: 10,
	}
}

func writeTemplate(t *testing.T, dir, name, source string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(source), 0o644); err != nil {
		t.Fatalf("writing template %s: %v", name, err)
	}
}

func TestLoaderLoad(t *testing.T) {
	config := testLoaderConfig(t)
	writeTemplate(t, config.TemplateDir, "note.md", "# {{title}}\n")

	loader := NewLoader(config)

	t.Run("name without extension", func(t *testing.T) {
		source, err := loader.Load("note")
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if source != "# {{title}}\n" {
			t.Errorf("Load = %q", source)
		}
	})

	t.Run("name with extension", func(t *testing.T) {
		source, err := loader.Load("note.md")
		if err != nil {
			t.Fatalf("Load error: %v", err)
		}
		if source != "# {{title}}\n" {
			t.Errorf("Load = %q", source)
		}
	})

	t.Run("missing template", func(t *testing.T) {
		_, err := loader.Load("ghost")
		if err == nil {
			t.Fatal("expected error for missing template")
		}
		if !IsTemplateNotFound(err) {
			t.Errorf("got %T, want *TemplateNotFoundError", err)
		}
	})
}

func TestLoaderInheritance(t *testing.T) {
	config := testLoaderConfig(t)
	writeTemplate(t, config.TemplateDir, "base.md",
		"{{block \"header\"}}default-header{{/block}}\n{{block \"body\"}}default-body{{/block}}\n")
	writeTemplate(t, config.TemplateDir, "child.md",
		"{{extends \"base\"}}\n{{block \"header\"}}custom-header{{/block}}\n")

	loader := NewLoader(config)
	resolved, err := loader.Load("child")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	compiler := NewCompiler(nil)
	rendered, err := compiler.CompileBody(resolved, Context{})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}

	if rendered != "custom-header\ndefault-body\n" {
		t.Errorf("inherited render = %q, want %q", rendered, "custom-header\ndefault-body\n")
	}
}

func TestLoaderInheritanceChain(t *testing.T) {
	config := testLoaderConfig(t)
	writeTemplate(t, config.TemplateDir, "grandparent.md",
		"{{block \"a\"}}ga{{/block}}|{{block \"b\"}}gb{{/block}}|{{block \"c\"}}gc{{/block}}")
	writeTemplate(t, config.TemplateDir, "parent.md",
		"{{extends \"grandparent\"}}{{block \"b\"}}pb{{/block}}")
	writeTemplate(t, config.TemplateDir, "leaf.md",
		"{{extends \"parent\"}}{{block \"c\"}}lc{{/block}}")

	loader := NewLoader(config)
	resolved, err := loader.Load("leaf")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	rendered, err := NewCompiler(nil).CompileBody(resolved, Context{})
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if rendered != "ga|pb|lc" {
		t.Errorf("chain render = %q, want %q", rendered, "ga|pb|lc")
	}
}

func TestLoaderInheritanceCycle(t *testing.T) {
	config := testLoaderConfig(t)
	writeTemplate(t, config.TemplateDir, "a.md", "{{extends \"b\"}}")
	writeTemplate(t, config.TemplateDir, "b.md", "{{extends \"a\"}}")

	loader := NewLoader(config)
	_, err := loader.Load("a")
	if err == nil {
		t.Fatal("expected cycle error")
	}
	if !IsParseError(err) {
		t.Errorf("got %T, want *ParseError", err)
	}
	if !strings.Contains(err.Error(), "cycle") {
		t.Errorf("error should mention the cycle: %v", err)
	}
}

func TestLoaderCache(t *testing.T) {
	config := testLoaderConfig(t)
	writeTemplate(t, config.TemplateDir, "note.md", "v1")

	loader := NewLoader(config)
	if _, err := loader.Load("note"); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	// The cache serves the old content until explicitly cleared.
	writeTemplate(t, config.TemplateDir, "note.md", "v2")
	source, err := loader.Load("note")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if source != "v1" {
		t.Errorf("cached Load = %q, want %q", source, "v1")
	}

	loader.ClearCache()
	source, err = loader.Load("note")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if source != "v2" {
		t.Errorf("Load after ClearCache = %q, want %q", source, "v2")
	}
}

func TestLoaderCacheDisabled(t *testing.T) {
	config := testLoaderConfig(t)
	config.CacheEnabled = false
	writeTemplate(t, config.TemplateDir, "note.md", "v1")

	loader := NewLoader(config)
	if _, err := loader.Load("note"); err != nil {
		t.Fatalf("Load error: %v", err)
	}

	writeTemplate(t, config.TemplateDir, "note.md", "v2")
	source, err := loader.Load("note")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if source != "v2" {
		t.Errorf("uncached Load = %q, want %q", source, "v2")
	}
	if loader.CacheSize() != 0 {
		t.Errorf("CacheSize = %d, want 0 with cache disabled", loader.CacheSize())
	}
}

func TestLoaderResolveSource(t *testing.T) {
	config := testLoaderConfig(t)
	writeTemplate(t, config.TemplateDir, "base.md",
		"{{block \"body\"}}fallback{{/block}}")

	loader := NewLoader(config)

	t.Run("no extends passes through", func(t *testing.T) {
		source := "plain {{name}}"
		resolved, err := loader.ResolveSource(source)
		if err != nil {
			t.Fatalf("ResolveSource error: %v", err)
		}
		if resolved != source {
			t.Errorf("ResolveSource = %q, want unchanged input", resolved)
		}
	})

	t.Run("extends resolves against directory", func(t *testing.T) {
		resolved, err := loader.ResolveSource(
			"{{extends \"base\"}}{{block \"body\"}}override{{/block}}")
		if err != nil {
			t.Fatalf("ResolveSource error: %v", err)
		}
		rendered, err := NewCompiler(nil).CompileBody(resolved, Context{})
		if err != nil {
			t.Fatalf("render error: %v", err)
		}
		if rendered != "override" {
			t.Errorf("resolved render = %q, want %q", rendered, "override")
		}
	})

	t.Run("missing parent", func(t *testing.T) {
		_, err := loader.ResolveSource("{{extends \"ghost\"}}")
		if !IsTemplateNotFound(err) {
			t.Errorf("got %v, want template-not-found", err)
		}
	})
}

func TestLoaderWatchInvalidatesCache(t *testing.T) {
	config := testLoaderConfig(t)
	writeTemplate(t, config.TemplateDir, "note.md", "v1")

	loader := NewLoader(config)
	if err := loader.Watch(); err != nil {
		t.Fatalf("Watch error: %v", err)
	}
	defer loader.Close()

	if _, err := loader.Load("note"); err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loader.CacheSize() == 0 {
		t.Fatal("expected cached entry before write")
	}

	writeTemplate(t, config.TemplateDir, "note.md", "v2")

	// The watcher clears the cache asynchronously; poll briefly.
	deadline := time.Now().Add(2 * time.Second)
	for loader.CacheSize() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("cache was not invalidated after template write")
		}
		time.Sleep(10 * time.Millisecond)
	}

	source, err := loader.Load("note")
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if source != "v2" {
		t.Errorf("Load after watch invalidation = %q, want %q", source, "v2")
	}
}

func TestLoaderWatchCloseConcurrent(t *testing.T) {
	loader := NewLoader(testLoaderConfig(t))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := loader.Watch(); err != nil {
				t.Errorf("Watch error: %v", err)
			}
			if err := loader.Close(); err != nil {
				t.Errorf("Close error: %v", err)
			}
		}()
	}
	wg.Wait()

	// Close after everything settled is a no-op.
	if err := loader.Close(); err != nil {
		t.Errorf("final Close error: %v", err)
	}
}
