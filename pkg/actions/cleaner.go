package actions

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// pageText is the readable content distilled from a page.
type pageText struct {
	Title       string
	Description string
	Body        string
	Truncated   bool
}

// noiseElements are removed entirely along with their subtrees.
var noiseElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"embed":    true,
	"object":   true,
	"svg":      true,
	"template": true,
}

// blockElements get their own line in the extracted text.
var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"div": true, "fieldset": true, "footer": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "table": true, "td": true,
	"th": true, "tr": true, "ul": true, "br": true, "hr": true,
}

// extractPageText parses raw HTML and reduces it to readable text.
// Link destinations are kept inline so extracted content remains
// navigable; everything else collapses to whitespace-normalized lines.
func extractPageText(rawHTML string, maxLength int) (*pageText, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page HTML: %w", err)
	}

	result := &pageText{
		Title:       findTitle(doc),
		Description: findMetaDescription(doc),
	}

	var sb strings.Builder
	collectText(doc, &sb)

	body := normalizeLines(sb.String())
	if len(body) > maxLength {
		body = body[:maxLength] + "\n[content truncated]"
		result.Truncated = true
	}
	result.Body = body
	return result, nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.CommentNode:
		return
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text != "" {
			sb.WriteString(text)
			sb.WriteString(" ")
		}
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if noiseElements[tag] {
			return
		}
		if tag == "a" {
			writeLink(n, sb)
			return
		}
		if blockElements[tag] {
			sb.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collectText(c, sb)
		}
		if blockElements[tag] {
			sb.WriteString("\n")
		}
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collectText(c, sb)
		}
	}
}

func writeLink(n *html.Node, sb *strings.Builder) {
	var inner strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, &inner)
	}
	text := strings.TrimSpace(inner.String())
	href := attrValue(n, "href")

	switch {
	case text == "" && href == "":
		return
	case href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:"):
		sb.WriteString(text + " ")
	case text == "":
		sb.WriteString(href + " ")
	default:
		fmt.Fprintf(sb, "%s (%s) ", text, href)
	}
}

func attrValue(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if strings.ToLower(attr.Key) == name {
			return attr.Val
		}
	}
	return ""
}

// normalizeLines collapses runs of blank lines and trims each line.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

func findTitle(doc *html.Node) string {
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func findMetaDescription(doc *html.Node) string {
	var description string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if description != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "meta" {
			if attrValue(n, "name") == "description" {
				description = strings.TrimSpace(attrValue(n, "content"))
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return description
}
