// Package noteforge renders text templates into finished documents with a
// canonically ordered frontmatter header.
//
// A template is plain UTF-8 text carrying a small directive vocabulary:
//
//	Variables:    {{name}}, {{user.email}}, {{name | default:"Guest" | upper}}
//	Conditionals: {{#if amount > 100}}...{{#elif amount > 10}}...{{#else}}...{{/if}}
//	Loops:        {{#each items}}{{@item}}{{/each}}, {{#each tx in transactions}}...{{/each}}
//	Functions:    {{now("%Y-%m-%d")}}, {{number_format(amount, "currency")}}
//	Inheritance:  {{extends "base"}} with {{block "name"}}...{{/block}} overrides
//	Includes:     {{include "footer"}}
//
// The keyword bracket style ({{if}}...{{endif}}, {{each}}...{{endeach}})
// is accepted alongside the hash style for older templates.
//
// Basic usage:
//
//	engine := noteforge.New(noteforge.WithTemplateDir("templates"))
//	doc, err := engine.Generate("daily-note", noteforge.NewContext(map[string]interface{}{
//	    "title":   "Standup notes",
//	    "content": "Discussed the Q3 roadmap.",
//	}), nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// doc.Filename and doc.Content go to the persistence layer.
//
// Rendering is deterministic: the same template and context always produce
// byte-identical output, and frontmatter fields emit in a fixed canonical
// order regardless of insertion order. Invalid templates never fail a
// render; the generator substitutes a minimal fallback document instead.
package noteforge
