package dom

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"browser-commander/internal/domain/entity"
	"browser-commander/internal/domain/textnorm"
)

// GenericSubmitSelector matches any submit control on the page.
const GenericSubmitSelector = `button[type="submit"], input[type="submit"]`

var (
	cssIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

	consentHints = []string{"zgod", "consent", "rodo", "privacy", "prywatn", "agree", "akcept", "accept", "terms", "regulamin", "gdpr"}
	searchHints  = []string{"search", "szukaj", "wyszukaj", "query"}
	phoneHints   = []string{"tel", "phone", "telefon", "komork", "mobile"}
	orderHints   = []string{"zamowien", "order"}
	messageHints = []string{"message", "wiadomosc", "tresc", "comment", "komentarz", "zapytanie", "content", "enquiry", "inquiry"}
	nameHints    = []string{"name", "imie", "nazwisk", "fullname"}
)

// AnalyzeForms finds selectors for the contact/search fields, consent
// checkboxes and submit controls on the page.
func AnalyzeForms(rawHTML string) (entity.FormAnalysis, error) {
	analysis := entity.FormAnalysis{Fields: map[string]string{}}

	doc, err := parse(rawHTML)
	if err != nil {
		return analysis, err
	}

	forms := doc.Find("form")
	analysis.FormCount = forms.Length()
	analysis.HasPassword = doc.Find(`input[type="password"]`).Length() > 0

	var mainForm, searchForm *goquery.Selection
	bestFields := 0
	fieldsIn := map[*html.Node]int{}

	doc.Find("input, textarea, select").Each(func(_ int, s *goquery.Selection) {
		kind := classify(s, doc)
		if kind == "" {
			return
		}
		if kind == "consent" {
			analysis.ConsentSelectors = append(analysis.ConsentSelectors, selectorFor(s))
			return
		}
		if _, seen := analysis.Fields[kind]; seen {
			return
		}
		analysis.Fields[kind] = selectorFor(s)

		form := s.Closest("form")
		if form.Length() == 0 {
			return
		}
		if kind == entity.FieldSearch {
			searchForm = form
			return
		}
		node := form.Nodes[0]
		fieldsIn[node]++
		if fieldsIn[node] > bestFields {
			bestFields = fieldsIn[node]
			mainForm = form
		}
	})

	if mainForm != nil {
		analysis.SubmitSelector = submitIn(mainForm)
	} else if _, ok := analysis.Fields[entity.FieldEmail]; ok {
		if btn := doc.Find(GenericSubmitSelector).First(); btn.Length() > 0 {
			analysis.SubmitSelector = selectorFor(btn)
		}
	}
	if searchForm != nil {
		analysis.SearchSubmit = submitIn(searchForm)
	}

	return analysis, nil
}

func classify(s *goquery.Selection, doc *goquery.Document) string {
	tag := goquery.NodeName(s)
	typ := strings.ToLower(s.AttrOr("type", "text"))

	switch typ {
	case "submit", "button", "image", "reset", "file", "radio", "password", "hidden":
		return ""
	}

	hint := textnorm.Fold(strings.Join([]string{
		s.AttrOr("name", ""),
		s.AttrOr("id", ""),
		s.AttrOr("placeholder", ""),
		s.AttrOr("autocomplete", ""),
		s.AttrOr("aria-label", ""),
		labelText(s, doc),
	}, " "))

	if typ == "checkbox" {
		if containsAny(hint, consentHints) || s.Is("[required]") {
			return "consent"
		}
		return ""
	}
	if tag == "select" {
		return ""
	}

	name := strings.ToLower(s.AttrOr("name", ""))
	switch {
	case typ == "search" || containsAny(hint, searchHints) || name == "q" || name == "s":
		return entity.FieldSearch
	case typ == "email" || strings.Contains(hint, "mail"):
		return entity.FieldEmail
	case typ == "tel" || containsAny(hint, phoneHints):
		return entity.FieldPhone
	case containsAny(hint, orderHints):
		return entity.FieldOrderNumber
	case tag == "textarea" || containsAny(hint, messageHints):
		return entity.FieldMessage
	case containsAny(hint, nameHints):
		return entity.FieldName
	}
	return ""
}

func labelText(s *goquery.Selection, doc *goquery.Document) string {
	if id := s.AttrOr("id", ""); id != "" {
		if l := doc.Find(fmt.Sprintf(`label[for=%q]`, id)); l.Length() > 0 {
			return collapse(l.First().Text())
		}
	}
	if l := s.Closest("label"); l.Length() > 0 {
		return collapse(l.Text())
	}
	return ""
}

func submitIn(form *goquery.Selection) string {
	btn := form.Find(`button[type="submit"], input[type="submit"], button:not([type])`).First()
	if btn.Length() == 0 {
		return ""
	}
	if sel := ownSelector(btn); sel != "" {
		return sel
	}
	if id := form.AttrOr("id", ""); cssIdent.MatchString(id) {
		return fmt.Sprintf(`#%s [type="submit"], #%s button`, id, id)
	}
	return GenericSubmitSelector
}

func selectorFor(s *goquery.Selection) string {
	if sel := ownSelector(s); sel != "" {
		return sel
	}
	tag := goquery.NodeName(s)
	if typ := s.AttrOr("type", ""); typ != "" {
		return fmt.Sprintf(`%s[type=%q]`, tag, typ)
	}
	return tag
}

func ownSelector(s *goquery.Selection) string {
	tag := goquery.NodeName(s)
	if id := s.AttrOr("id", ""); id != "" {
		if cssIdent.MatchString(id) {
			return "#" + id
		}
		return fmt.Sprintf(`[id=%q]`, id)
	}
	if name := s.AttrOr("name", ""); name != "" {
		return fmt.Sprintf(`%s[name=%q]`, tag, name)
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
