// Package dom analyses page HTML: navigational anchors, form controls and
// readable content.
package dom

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type CleanConfig struct {
	TagsToRemove []string
	// DropHidden removes elements hidden via the hidden attribute,
	// aria-hidden or inline display/visibility styles.
	DropHidden bool
}

var DefaultCleanConfig = CleanConfig{
	TagsToRemove: []string{
		"script", "style", "noscript", "svg", "iframe", "template", "link", "meta",
	},
	DropHidden: true,
}

var errNoBody = errors.New("html has no body")

// Clean parses rawHTML and returns its <body> with noise and hidden
// elements removed.
func Clean(rawHTML string, cfg *CleanConfig) (*html.Node, error) {
	if cfg == nil {
		cfg = &DefaultCleanConfig
	}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, err
	}

	body := findBodyNode(doc)
	if body == nil {
		return nil, errNoBody
	}

	cleanNode(body, cfg)
	return body, nil
}

func parse(rawHTML string) (*goquery.Document, error) {
	body, err := Clean(rawHTML, &DefaultCleanConfig)
	if err != nil {
		return nil, err
	}
	return goquery.NewDocumentFromNode(body), nil
}

func findBodyNode(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBodyNode(c); b != nil {
			return b
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg *CleanConfig) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type != html.ElementNode {
		return
	}

	if isOneOf(n.Data, cfg.TagsToRemove...) || (cfg.DropHidden && isHidden(n)) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func isHidden(n *html.Node) bool {
	for _, a := range n.Attr {
		switch a.Key {
		case "hidden":
			return true
		case "aria-hidden":
			if strings.EqualFold(a.Val, "true") {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(a.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		case "type":
			if n.Data == "input" && strings.EqualFold(a.Val, "hidden") {
				return true
			}
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func isOneOf(s string, candidates ...string) bool {
	for _, c := range candidates {
		if s == c {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
