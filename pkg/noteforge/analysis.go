package noteforge

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ContentAnalysis holds metadata derived from a document body: statistics
// and extracted references that feed frontmatter fields.
type ContentAnalysis struct {
	WordCount int
	URLs      []string
	Wikilinks []string
	Tags      []string
	Amounts   []float64
}

var (
	wikilinkRegex  = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|[^\[\]]*)?\]\]`)
	inlineTagRegex = regexp.MustCompile(`(?:^|\s)#([a-zA-Z][a-zA-Z0-9_/-]*)`)
	bareURLRegex   = regexp.MustCompile(`https?://[^\s<>)\]"']+`)
	amountRegex    = regexp.MustCompile(`(?:\$(\d+(?:,\d{3})*(?:\.\d+)?))|(?:(\d+(?:\.\d+)?)\s?(?:USD|EUR|GBP)\b)`)
)

// AnalyzeContent derives metadata from rendered body text. Markdown links
// come from a goldmark AST walk; wikilinks, inline tags, and currency
// amounts are extracted from the source text directly since they are not
// part of standard markdown.
func AnalyzeContent(content string) ContentAnalysis {
	analysis := ContentAnalysis{
		WordCount: countWords(content),
		URLs:      extractURLs(content),
		Wikilinks: extractWikilinks(content),
		Tags:      extractInlineTags(content),
		Amounts:   extractAmounts(content),
	}
	return analysis
}

// Fields converts the analysis into frontmatter fields, skipping anything
// that came up empty.
func (a ContentAnalysis) Fields() Fields {
	fields := Fields{
		"word_count": Int(a.WordCount),
	}
	if len(a.URLs) > 0 {
		fields["related_links"] = StringList(a.URLs...)
	}
	if len(a.Wikilinks) > 0 {
		fields["wikilinks"] = StringList(a.Wikilinks...)
	}
	if len(a.Tags) > 0 {
		fields["tags"] = StringList(a.Tags...)
	}
	if len(a.Amounts) == 1 {
		fields["amount"] = Float(a.Amounts[0])
	}
	return fields
}

func countWords(content string) int {
	return len(strings.Fields(content))
}

// extractURLs walks the markdown AST collecting link and autolink
// destinations, then picks up bare URLs the parser left as plain text.
// Order of first appearance is preserved and duplicates dropped.
func extractURLs(content string) []string {
	source := []byte(content)
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	seen := map[string]bool{}
	var urls []string
	add := func(url string) {
		url = strings.TrimRight(url, ".,;")
		if url == "" || seen[url] {
			return
		}
		seen[url] = true
		urls = append(urls, url)
	}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			add(string(node.Destination))
		case *ast.AutoLink:
			add(string(node.URL(source)))
		}
		return ast.WalkContinue, nil
	})

	for _, match := range bareURLRegex.FindAllString(content, -1) {
		add(match)
	}

	return urls
}

func extractWikilinks(content string) []string {
	seen := map[string]bool{}
	var links []string
	for _, m := range wikilinkRegex.FindAllStringSubmatch(content, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		links = append(links, name)
	}
	return links
}

func extractInlineTags(content string) []string {
	seen := map[string]bool{}
	var tags []string
	for _, m := range inlineTagRegex.FindAllStringSubmatch(content, -1) {
		tag := m[1]
		if seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}

func extractAmounts(content string) []float64 {
	var amounts []float64
	for _, m := range amountRegex.FindAllStringSubmatch(content, -1) {
		raw := m[1]
		if raw == "" {
			raw = m[2]
		}
		raw = strings.ReplaceAll(raw, ",", "")
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			amounts = append(amounts, f)
		}
	}
	return amounts
}
