package parser

import (
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/domain/textnorm"
)

const (
	genericConfidence = 0.3
	maxGoalConfidence = 0.95

	// lead keeps trigger words from matching inside longer words; \b is
	// ASCII-only and would not see Polish letters.
	lead = `(?:^|[^\p{L}])`
)

var (
	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bhttps?://[^\s"'<>]+`),
	}
	domainPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(?:www\.)?(?:[a-z0-9](?:[a-z0-9-]*[a-z0-9])?\.)+[a-z]{2,24}(?:/[^\s"'<>]*)?`),
	}
	emailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:e-?mail|adres(?:em)?(?:\s+e-?mail)?)\s*:?\s*([a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,})`),
		regexp.MustCompile(`(?i)([a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,})`),
	}
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:tel(?:efon(?:em)?)?|phone|nr\s+tel)\.?\s*:?\s*(\+?\d[\d\s-]{6,}\d)`),
		regexp.MustCompile(`(\+\d{2}[\s-]?\d{3}[\s-]?\d{3}[\s-]?\d{3})`),
		regexp.MustCompile(`\b(\d{3}[\s-]\d{3}[\s-]\d{3})\b`),
	}
	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(lead + `(?i:imieniem i nazwiskiem|imię i nazwisko|full name)\s*:?\s+(\p{Lu}[\p{L}'-]+(?:\s+\p{Lu}[\p{L}'-]+)?)`),
		regexp.MustCompile(lead + `(?i:nazwiskiem|nazwisko|imieniem|imię|imie|jako)\s*:?\s+(\p{Lu}[\p{L}'-]+(?:\s+\p{Lu}[\p{L}'-]+)?)`),
		regexp.MustCompile(lead + `(?i:name|named|signed as)\s*:?\s+(\p{Lu}[\p{L}'-]+(?:\s+\p{Lu}[\p{L}'-]+)?)`),
	}
	orderPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(?i:numer(?:em)? zamówienia|nr zamówienia|zamówieni[ae]|order number|order no\.?|order)\s*(?i:nr|number|no\.?)?\s*:?\s*#?([A-Za-z0-9-]*\d[A-Za-z0-9-]*)`),
		regexp.MustCompile(`#([A-Za-z0-9-]*\d[A-Za-z0-9-]{2,})`),
	}
	quotes          = `"„“”'`
	messagePatterns = []*regexp.Regexp{
		regexp.MustCompile(lead + `(?i:wiadomością|wiadomość|wiadomosc|treścią|treść|tresc|message|text|napisz|write)\s*:?\s*["„“']([^"”']+)["”']`),
		regexp.MustCompile(`["„“]([^"”]{3,})["”]`),
	}
	searchPatterns = []*regexp.Regexp{
		regexp.MustCompile(lead + `(?i:wyszukaj|szukaj|poszukaj|znajdź|znajdz|search for|search|look up|find)\s+["„“']([^"”']+)["”']`),
		regexp.MustCompile(lead + `(?i:wyszukaj|szukaj|poszukaj|search for|search)\s+(?:(?i:frazę|fraze|produkt|product|for)\s+)?([\p{L}\d][\p{L}\d ]*?)(?:\s+(?i:i|oraz|and|na|on|w|in|then|a potem)\s|[.,;!?]|$)`),
	}
	maxPricePatterns = []*regexp.Regexp{
		regexp.MustCompile(lead + `(?i:do|poniżej|ponizej|maks(?:ymalnie)?|max|under|below|up to|less than)\s*[$€]?\s*(\d+(?:[.,]\d{1,2})?)\s*(?i:zł|zl|pln|usd|eur|€|\$)`),
		regexp.MustCompile(lead + `(?i:poniżej|ponizej|maks(?:ymalnie)?|max|under|below|up to|less than|cheaper than|tańsze niż|tansze niz)\s*[$€]?\s*(\d+(?:[.,]\d{1,2})?)`),
	}
	minItemsPatterns = []*regexp.Regexp{
		regexp.MustCompile(lead + `(?i:co najmniej|przynajmniej|minimum|min\.?|at least)\s+(\d+)`),
	}

	// fileExtensions look like TLDs but name files, as in "cennik.pdf".
	fileExtensions = map[string]bool{
		"pdf": true, "html": true, "htm": true, "php": true, "aspx": true,
		"jpg": true, "jpeg": true, "png": true, "gif": true, "webp": true, "svg": true,
		"doc": true, "docx": true, "xls": true, "xlsx": true, "ppt": true, "pptx": true, "odt": true,
		"csv": true, "txt": true, "json": true, "xml": true,
		"zip": true, "rar": true, "mp3": true, "mp4": true,
	}
)

// Parser extracts a ParsedCommand from a free-form instruction.
type Parser struct {
	logger output.LoggerPort
}

func New(logger output.LoggerPort) *Parser {
	return &Parser{logger: logger}
}

// Parse never fails: fields that cannot be found are left empty.
func (p *Parser) Parse(text string) entity.ParsedCommand {
	cmd := entity.ParsedCommand{OriginalText: text}
	text = strings.TrimSpace(text)
	var confidences []float64

	rest := text
	if email, ok := firstMatch(emailPatterns, rest); ok {
		cmd.FormData.Email = strings.ToLower(email)
		confidences = append(confidences, 0.95)
	}
	rest = emailPatterns[1].ReplaceAllString(rest, " ")

	domainConf := 0.0
	if raw, ok := firstMatch(urlPatterns, rest); ok {
		raw = trimTrailing(raw)
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			cmd.TargetURL = raw
			cmd.TargetDomain = strings.ToLower(u.Hostname())
			domainConf = 1.0
		}
		rest = strings.Replace(rest, raw, " ", 1)
	} else if raw, ok := firstDomain(rest); ok {
		domain, path, _ := strings.Cut(raw, "/")
		cmd.TargetDomain = strings.ToLower(domain)
		cmd.TargetURL = "https://" + cmd.TargetDomain
		if path != "" {
			cmd.TargetURL += "/" + path
		}
		domainConf = 0.9
		rest = strings.Replace(rest, raw, " ", 1)
	}
	confidences = append(confidences, domainConf)

	if phone, ok := firstMatch(phonePatterns, rest); ok {
		cmd.FormData.Phone = strings.Join(strings.Fields(phone), " ")
		confidences = append(confidences, 0.8)
	}
	if name, ok := firstMatch(namePatterns, rest); ok {
		cmd.FormData.Name = name
		confidences = append(confidences, 0.8)
	}
	if order, ok := firstMatch(orderPatterns, rest); ok && len(order) >= 3 {
		cmd.FormData.OrderNumber = order
		confidences = append(confidences, 0.85)
	}
	if q, ok := firstMatch(searchPatterns, rest); ok {
		cmd.SearchQuery = strings.TrimSpace(q)
		confidences = append(confidences, 0.85)
	}
	for _, re := range messagePatterns {
		m := re.FindStringSubmatch(rest)
		if m == nil || strings.TrimSpace(m[1]) == cmd.SearchQuery {
			continue
		}
		cmd.FormData.Message = strings.Trim(strings.TrimSpace(m[1]), quotes)
		confidences = append(confidences, 0.9)
		break
	}

	cmd.Actions = detectActions(rest)
	cmd.Constraints = extractConstraints(rest)

	match, secondary := detectGoal(rest)
	cmd.PrimaryGoal = match.Goal
	cmd.GoalConfidence = match.Confidence
	cmd.SecondaryGoals = secondary
	confidences = append(confidences, match.Confidence)

	cmd.Confidence = mean(confidences)

	if p.logger != nil {
		p.logger.Debug("Parsed instruction",
			"domain", cmd.TargetDomain,
			"goal", cmd.PrimaryGoal,
			"goal_confidence", cmd.GoalConfidence,
			"actions", cmd.Actions,
			"confidence", cmd.Confidence,
		)
	}
	return cmd
}

// DetectGoal runs only the keyword pre-detection pass.
func DetectGoal(text string) entity.GoalMatch {
	m, _ := detectGoal(text)
	return m
}

func detectGoal(text string) (entity.GoalMatch, []entity.Goal) {
	exact := " " + strings.Join(textnorm.Words(text), " ") + " "
	tokens := textnorm.Tokenize(text)
	folded := " " + strings.Join(tokens, " ") + " "

	type scored struct {
		goal  entity.Goal
		score float64
		hits  []string
	}
	var results []scored
	for _, entry := range goalKeywords {
		s := scored{goal: entry.goal}
		for _, kw := range entry.keywords {
			k := strings.ToLower(kw)
			switch {
			case strings.Contains(exact, " "+k+" "):
				s.score += 2
				s.hits = append(s.hits, kw)
			case strings.Contains(folded, " "+textnorm.Fold(k)+" "):
				s.score += 1.5
				s.hits = append(s.hits, kw)
			case !strings.Contains(k, " "):
				if w := stemWeight(textnorm.Fold(k), tokens); w > 0 {
					s.score += w
					s.hits = append(s.hits, kw+"*")
				}
			}
		}
		if s.score > 0 {
			results = append(results, s)
		}
	}

	if len(results) == 0 {
		return entity.GoalMatch{
			Goal:       entity.GoalGeneric,
			Confidence: genericConfidence,
			Method:     entity.MethodKeyword,
			Reasoning:  "no goal keywords",
		}, nil
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	best := results[0]
	secondary := make([]entity.Goal, 0, len(results)-1)
	for _, r := range results[1:] {
		secondary = append(secondary, r.goal)
	}
	return entity.GoalMatch{
		Goal:       best.goal,
		Confidence: math.Min(maxGoalConfidence, 0.5+best.score*0.1),
		Method:     entity.MethodKeyword,
		Reasoning:  "keywords: " + strings.Join(best.hits, ", "),
	}, secondary
}

// stemWeight matches the keyword stem as a token prefix so inflected
// forms ("koszyka", "formularzu") still count.
func stemWeight(keyword string, tokens []string) float64 {
	r := []rune(keyword)
	n := len(r)
	switch {
	case n >= 7:
		n -= 2
	case n >= 5:
		n--
	}
	if n < 4 {
		return 0
	}
	stem := string(r[:n])
	for _, t := range tokens {
		if strings.HasPrefix(t, stem) {
			if n >= 5 {
				return 1.0
			}
			return 0.8
		}
	}
	return 0
}

func detectActions(text string) []string {
	folded := " " + strings.Join(textnorm.Tokenize(text), " ")
	type hit struct {
		action string
		pos    int
	}
	var hits []hit
	seen := map[string]bool{}
	for _, ak := range actionKeywords {
		pos := strings.Index(folded, " "+textnorm.Fold(ak.keyword))
		if pos < 0 {
			continue
		}
		if seen[ak.action] {
			for i := range hits {
				if hits[i].action == ak.action && pos < hits[i].pos {
					hits[i].pos = pos
				}
			}
			continue
		}
		seen[ak.action] = true
		hits = append(hits, hit{ak.action, pos})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.action
	}
	return out
}

func extractConstraints(text string) entity.Constraints {
	var c entity.Constraints
	if raw, ok := firstMatch(maxPricePatterns, text); ok {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64); err == nil {
			c.MaxPrice = v
		}
	}
	if raw, ok := firstMatch(minItemsPatterns, text); ok {
		if v, err := strconv.Atoi(raw); err == nil {
			c.MinItems = v
		}
	}
	return c
}

func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if len(m) > 1 {
			return strings.TrimSpace(m[1]), true
		}
		return strings.TrimSpace(m[0]), true
	}
	return "", false
}

// firstDomain returns the first bare domain in text whose TLD is not a
// file extension, trimmed of trailing punctuation.
func firstDomain(text string) (string, bool) {
	for _, re := range domainPatterns {
		for _, raw := range re.FindAllString(text, -1) {
			raw = trimTrailing(raw)
			host, _, _ := strings.Cut(raw, "/")
			tld := strings.ToLower(host[strings.LastIndex(host, ".")+1:])
			if fileExtensions[tld] {
				continue
			}
			return raw, true
		}
	}
	return "", false
}

func trimTrailing(s string) string {
	return strings.TrimRight(s, ".,;:!?)]}")
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
