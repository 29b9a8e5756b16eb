package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noteforge/noteforge/pkg/noteforge"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "version":
		fmt.Println("noteforge version " + version)
	case "render":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		if err := render(os.Args[2], os.Args[3:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	case "validate":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		if err := validate(os.Args[2], os.Args[3:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("noteforge - template rendering and frontmatter generation")
	fmt.Println()
	fmt.Println("Usage: noteforge <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  render <template-file> [context.yaml]    Render a template to stdout")
	fmt.Println("  validate <template-file> [context.yaml]  Check a template for problems")
	fmt.Println("  version                                  Show version information")
}

func loadContext(args []string) (noteforge.Context, error) {
	if len(args) == 0 {
		return noteforge.Context{}, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, err
	}
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid context file: %w", err)
	}
	return noteforge.NewContext(raw), nil
}

func render(templatePath string, rest []string) error {
	source, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}
	ctx, err := loadContext(rest)
	if err != nil {
		return err
	}

	engine := noteforge.New()
	doc, err := engine.GenerateFromSource(string(source), ctx, nil)
	if err != nil {
		var ve *noteforge.ValidationError
		if errors.As(err, &ve) {
			for _, msg := range ve.Messages() {
				fmt.Fprintln(os.Stderr, "-", msg)
			}
		}
		return err
	}

	fmt.Println("# file:", doc.Filename)
	fmt.Print(doc.Content)
	return nil
}

func validate(templatePath string, rest []string) error {
	source, err := os.ReadFile(templatePath)
	if err != nil {
		return err
	}
	ctx, err := loadContext(rest)
	if err != nil {
		return err
	}

	engine := noteforge.New()
	ok, problems := engine.Validate(string(source), ctx)
	if ok {
		fmt.Println("template is valid")
		return nil
	}
	for _, problem := range problems {
		fmt.Println("-", problem)
	}
	return fmt.Errorf("%d problems found", len(problems))
}
