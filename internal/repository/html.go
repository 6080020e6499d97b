package repository

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	collapseSpaces = regexp.MustCompile(`[ \t]+`)
	collapseBreaks = regexp.MustCompile(`\n\s*\n\s*\n+`)
)

// extractTextFromHTML returns the visible text of a page, one block element per paragraph.
func extractTextFromHTML(htmlContent string) (string, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	walkText(doc, &sb, 0)

	lines := strings.Split(sb.String(), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(collapseSpaces.ReplaceAllString(line, " "))
	}
	text := strings.Join(lines, "\n")
	text = collapseBreaks.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text), nil
}

func walkText(n *html.Node, sb *strings.Builder, depth int) {
	if depth > 200 {
		return
	}

	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "iframe", "svg", "nav", "footer", "header", "form", "button":
			return
		case "br":
			sb.WriteString("\n")
		case "p", "div", "section", "article", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
			sb.WriteString("\n\n")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, sb, depth+1)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "section", "article", "li", "tr", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote", "pre":
			sb.WriteString("\n\n")
		case "td", "th":
			sb.WriteString(" ")
		}
	}
}
