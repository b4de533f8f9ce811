package dom

import (
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"browser-commander/internal/domain/entity"
)

// ExtractAnchors returns every visible link with an absolute http(s) URL,
// in document order.
func ExtractAnchors(rawHTML, baseURL string) ([]entity.Anchor, error) {
	doc, err := parse(rawHTML)
	if err != nil {
		return nil, err
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	var anchors []entity.Anchor
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := resolveHref(base, s.AttrOr("href", ""))
		if !ok {
			return
		}
		text := collapse(s.Text())
		if text == "" {
			text = collapse(s.Find("img[alt]").First().AttrOr("alt", ""))
		}
		anchors = append(anchors, entity.Anchor{
			Text:      text,
			Href:      href,
			AriaLabel: collapse(s.AttrOr("aria-label", "")),
			Title:     collapse(s.AttrOr("title", "")),
			Location:  locate(s.Nodes[0]),
		})
	})
	return anchors, nil
}

func resolveHref(base *url.URL, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(raw, "#") {
		return "", false
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return "", false
	}
	abs.Fragment = ""
	return abs.String(), true
}

// locate classifies n by its nearest structural ancestor.
func locate(n *html.Node) entity.LinkLocation {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if loc, ok := locationOf(p); ok {
			return loc
		}
	}
	return entity.LocationMain
}

func locationOf(n *html.Node) (entity.LinkLocation, bool) {
	switch n.Data {
	case "header":
		return entity.LocationHeader, true
	case "nav":
		return entity.LocationNav, true
	case "footer":
		return entity.LocationFooter, true
	case "aside":
		return entity.LocationSidebar, true
	case "main":
		return entity.LocationMain, true
	}

	switch strings.ToLower(attr(n, "role")) {
	case "banner":
		return entity.LocationHeader, true
	case "navigation", "menubar":
		return entity.LocationNav, true
	case "contentinfo":
		return entity.LocationFooter, true
	case "complementary":
		return entity.LocationSidebar, true
	case "main":
		return entity.LocationMain, true
	}

	words := strings.FieldsFunc(strings.ToLower(attr(n, "id")+" "+attr(n, "class")), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, h := range locationHints {
		for _, w := range words {
			if h.match(w) {
				return h.location, true
			}
		}
	}
	return "", false
}

// locationHints are checked in order, so "main-nav" is nav, not main.
var locationHints = []struct {
	location entity.LinkLocation
	match    func(word string) bool
}{
	{entity.LocationHeader, func(w string) bool { return w == "header" || w == "masthead" || w == "topbar" }},
	{entity.LocationNav, func(w string) bool { return strings.HasPrefix(w, "nav") || strings.HasPrefix(w, "menu") }},
	{entity.LocationFooter, func(w string) bool { return w == "footer" || w == "bottom" }},
	{entity.LocationSidebar, func(w string) bool { return w == "sidebar" || w == "aside" }},
	{entity.LocationMain, func(w string) bool { return w == "main" || w == "content" }},
}
