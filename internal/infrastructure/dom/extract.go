package dom

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
)

const maxContentLength = 20_000

type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price,omitempty"`
	RawPrice string  `json:"raw_price,omitempty"`
}

type Content struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt,omitempty"`
	Text    string `json:"text"`
}

var itemSelectors = map[string]string{
	"cart": `.cart-item, .cart_item, .cart__item, .basket-item, .basket__item, ` +
		`[data-cart-item], tr.cart-row, li.cart-product, .woocommerce-cart-form__cart-item`,
	"products": `.product, .product-item, .product-card, .product-tile, [data-product], ` +
		`[data-product-id], li.product, article.product, .offer-item`,
}

var (
	priceSelectors = `.price, .product-price, .amount, [itemprop="price"], [data-price]`
	nameSelectors  = `.name, .title, .product-name, .product-title, h2, h3, h4, a`

	pricePattern = regexp.MustCompile(`(?i)(?:([$€£])\s*(\d+(?:[ \x{00a0}.,]\d{3})*(?:[.,]\d{1,2})?))|(?:(\d+(?:[ \x{00a0}.,]\d{3})*(?:[.,]\d{1,2})?)\s*(zł|zl|pln|usd|eur|€|\$|gbp|£))`)
)

// ReadableText extracts the main article text of the page. The result is
// sanitized and stripped of markup.
func ReadableText(rawHTML, pageURL string) (Content, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return Content{}, err
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		return Content{}, err
	}

	p := bluemonday.StrictPolicy()
	text := collapse(html.UnescapeString(p.Sanitize(article.TextContent)))
	if len(text) > maxContentLength {
		text = text[:maxContentLength]
	}

	return Content{
		Title:   collapse(html.UnescapeString(p.Sanitize(article.Title))),
		Excerpt: collapse(html.UnescapeString(p.Sanitize(article.Excerpt))),
		Text:    text,
	}, nil
}

// ExtractItems lists cart lines or product tiles. kind is "cart" or "products".
func ExtractItems(rawHTML, kind string) ([]Item, error) {
	doc, err := parse(rawHTML)
	if err != nil {
		return nil, err
	}
	sel, ok := itemSelectors[kind]
	if !ok {
		sel = itemSelectors["products"]
	}

	var items []Item
	doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
		// nested matches (a .product inside a .product) count once
		if s.ParentsFiltered(sel).Length() > 0 {
			return
		}
		item := Item{Name: collapse(s.Find(nameSelectors).First().Text())}

		priceText := s.Find(priceSelectors).First().Text()
		if priceText == "" {
			priceText = s.Text()
		}
		if price, raw, ok := ParsePrice(priceText); ok {
			item.Price, item.RawPrice = price, raw
		}
		if item.Name == "" && item.RawPrice == "" {
			return
		}
		items = append(items, item)
	})
	return items, nil
}

// ParsePrice finds the first amount with a currency marker in s, e.g.
// "1 299,00 zł", "$12.99", "45 EUR".
func ParsePrice(s string) (float64, string, bool) {
	m := pricePattern.FindStringSubmatch(s)
	if m == nil {
		return 0, "", false
	}
	num := m[2]
	if num == "" {
		num = m[3]
	}
	v, ok := parseAmount(num)
	if !ok {
		return 0, "", false
	}
	return v, strings.TrimSpace(m[0]), true
}

// parseAmount treats the last "," or "." followed by one or two digits as
// the decimal separator; every other separator groups thousands.
func parseAmount(num string) (float64, bool) {
	num = strings.NewReplacer(" ", "", "\u00a0", "").Replace(num)
	dec := ""
	if i := strings.LastIndexAny(num, ".,"); i >= 0 && len(num)-i-1 <= 2 {
		dec = num[i+1:]
		num = num[:i]
	}
	num = strings.NewReplacer(".", "", ",", "").Replace(num)
	if dec != "" {
		num += "." + dec
	}
	v, err := strconv.ParseFloat(num, 64)
	return v, err == nil
}
