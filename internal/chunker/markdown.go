package chunker

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	gmtext "github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/toc"
)

// Section is a heading-delimited span of a markdown document. Path is the
// heading hierarchy ("Installation > Prerequisites"); the preamble before
// the first heading has an empty path.
type section struct {
	Path string
	Body string
}

var markdown = goldmark.New()

// splitMarkdown splits source at H1/H2 boundaries. Returns nil when the
// document has no headings, in which case the caller falls back to plain
// sentence windowing.
func splitMarkdown(source []byte) []section {
	doc := markdown.Parser().Parse(gmtext.NewReader(source))

	tree, err := toc.Inspect(doc, source, toc.MinDepth(1), toc.MaxDepth(2))
	if err != nil || len(tree.Items) == 0 {
		return nil
	}

	headings := collectHeadings(doc, source)
	if len(headings) == 0 {
		return nil
	}

	titles := make([]string, 0, len(headings))
	flattenTitles(tree.Items, "", &titles)
	if len(titles) != len(headings) {
		// The TOC tree disagrees with the raw heading walk (e.g. an H2
		// preceding any H1); fall back to flat heading titles.
		titles = titles[:0]
		for _, h := range headings {
			titles = append(titles, h.title)
		}
	}

	var sections []section
	if pre := strings.TrimSpace(string(source[:headings[0].start])); pre != "" {
		sections = append(sections, section{Body: pre})
	}
	for i, h := range headings {
		end := len(source)
		if i+1 < len(headings) {
			end = headings[i+1].start
		}
		body := strings.TrimSpace(string(source[h.start:end]))
		sections = append(sections, section{Path: titles[i], Body: body})
	}
	return sections
}

type heading struct {
	title string
	start int
}

// collectHeadings walks the AST and returns H1/H2 headings with the source
// offset where each heading line begins, in document order.
func collectHeadings(doc ast.Node, source []byte) []heading {
	var out []heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Kind() != ast.KindHeading {
			return ast.WalkContinue, nil
		}
		h := n.(*ast.Heading)
		if h.Level > 2 || h.Lines().Len() == 0 {
			return ast.WalkContinue, nil
		}
		out = append(out, heading{
			title: string(h.Text(source)),
			start: h.Lines().At(0).Start,
		})
		return ast.WalkContinue, nil
	})
	return out
}

// flattenTitles lists TOC item titles in document order, joining nested
// levels with " > ".
func flattenTitles(items toc.Items, parent string, out *[]string) {
	for _, item := range items {
		path := string(item.Title)
		if parent != "" {
			path = parent + " > " + path
		}
		*out = append(*out, path)
		flattenTitles(item.Items, path, out)
	}
}
