package resolver

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"browser-commander/internal/application/port/output"
	"browser-commander/internal/domain/entity"
	"browser-commander/internal/domain/textnorm"
	"browser-commander/internal/infrastructure/dom"
)

const (
	AcceptThreshold     = 0.5
	DefaultProbeTimeout = 15 * time.Second

	textWeight     = 2.0
	ariaWeight     = 1.5
	hrefWeight     = 3.0
	locationWeight = 0.5
	longTextLimit  = 100
)

type Resolver struct {
	logger       output.LoggerPort
	probeTimeout time.Duration
}

func New(logger output.LoggerPort, probeTimeout time.Duration) *Resolver {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Resolver{logger: logger, probeTimeout: probeTimeout}
}

// Resolve finds the URL of the page serving goal, starting from the page's
// current document, and leaves the page there. An accepted link that fails
// to load falls through to the path and subdomain probes. It returns nil
// when nothing matched; the page is then navigated back to where it started.
func (r *Resolver) Resolve(ctx context.Context, page output.PagePort, goal entity.Goal) *entity.Resolution {
	origin := page.CurrentURL()
	log := r.logger.WithFields(map[string]any{"goal": goal, "origin": origin})

	if _, ok := goalCriteria[goal]; !ok {
		log.Debug("No resolution criteria for goal")
		return nil
	}

	failed := ""
	if res := r.resolveByLinks(ctx, page, goal, origin, log); res != nil {
		if r.visit(ctx, page, res, log) {
			return res
		}
		if ctx.Err() != nil {
			return nil
		}
		failed = res.URL
	}

	base, err := url.Parse(origin)
	if err != nil || base.Host == "" {
		log.Warn("Cannot probe paths, origin is not a URL", "error", err)
		return nil
	}

	for _, path := range probePaths[goal] {
		target := base.Scheme + "://" + base.Host + path
		if target == failed {
			continue
		}
		if res := r.probe(ctx, page, target, entity.ResolvedByPath, log); res != nil {
			return res
		}
		if ctx.Err() != nil {
			return nil
		}
	}

	host := strings.TrimPrefix(base.Hostname(), "www.")
	for _, sub := range probeSubdomains[goal] {
		target := base.Scheme + "://" + sub + "." + host + "/"
		if res := r.probe(ctx, page, target, entity.ResolvedBySubdomain, log); res != nil {
			return res
		}
		if ctx.Err() != nil {
			return nil
		}
	}

	log.Warn("Resolution failed, returning to origin")
	if page.CurrentURL() != origin {
		if _, err := page.Navigate(ctx, origin, r.probeTimeout); err != nil {
			log.Warn("Failed to return to origin", "error", err)
		}
	}
	return nil
}

func (r *Resolver) resolveByLinks(ctx context.Context, page output.PagePort, goal entity.Goal, origin string, log output.LoggerPort) *entity.Resolution {
	html, err := page.Evaluate(ctx, output.ScriptPageHTML)
	if err != nil {
		log.Warn("Failed to read page HTML", "error", err)
		return nil
	}
	anchors, err := dom.ExtractAnchors(html, origin)
	if err != nil {
		log.Warn("Failed to extract anchors", "error", err)
		return nil
	}

	candidates := Rank(anchors, goal)
	log.Debug("Scored link candidates", "anchors", len(anchors), "candidates", len(candidates))
	if len(candidates) == 0 {
		return nil
	}

	top := candidates[0]
	if top.Score <= AcceptThreshold {
		log.Info("Best link below threshold", "url", top.URL, "score", top.Score)
		return nil
	}

	log.Info("Resolved by link", "url", top.URL, "score", top.Score, "reason", top.Reason)
	return &entity.Resolution{URL: top.URL, Method: entity.ResolvedByLink, Candidate: &top}
}

// visit loads a link resolution unless the page is already there.
func (r *Resolver) visit(ctx context.Context, page output.PagePort, res *entity.Resolution, log output.LoggerPort) bool {
	if page.CurrentURL() == res.URL {
		return true
	}
	nav, err := page.Navigate(ctx, res.URL, r.probeTimeout)
	if err != nil {
		log.Warn("Resolved link failed to load", "url", res.URL, "error", err)
		return false
	}
	if nav.StatusCode >= 400 {
		log.Warn("Resolved link failed to load", "url", res.URL, "status", nav.StatusCode)
		return false
	}
	return true
}

func (r *Resolver) probe(ctx context.Context, page output.PagePort, target string, method entity.ResolutionMethod, log output.LoggerPort) *entity.Resolution {
	res, err := page.Navigate(ctx, target, r.probeTimeout)
	if err != nil {
		log.Debug("Probe failed", "url", target, "error", err)
		return nil
	}
	if res.StatusCode >= 400 {
		log.Debug("Probe rejected", "url", target, "status", res.StatusCode)
		return nil
	}
	u := res.URL
	if u == "" {
		u = target
	}
	log.Info("Resolved by probe", "url", u, "method", method, "status", res.StatusCode)
	return &entity.Resolution{URL: u, Method: method}
}

// Rank scores anchors against the goal's criteria, keeps the best
// candidate per URL and sorts by descending score. Ties keep document order.
// Anchors matching no keyword or href pattern are not candidates.
func Rank(anchors []entity.Anchor, goal entity.Goal) []entity.LinkCandidate {
	c, ok := goalCriteria[goal]
	if !ok {
		return nil
	}

	byURL := map[string]int{}
	var out []entity.LinkCandidate
	for _, a := range anchors {
		cand, relevant := score(a, c)
		if !relevant {
			continue
		}
		if i, seen := byURL[cand.URL]; seen {
			if cand.Score > out[i].Score {
				out[i] = cand
			}
			continue
		}
		byURL[cand.URL] = len(out)
		out = append(out, cand)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func score(a entity.Anchor, c criteria) (entity.LinkCandidate, bool) {
	var total float64
	var reasons []string

	label := a.AriaLabel
	if label == "" {
		label = a.Title
	}
	for _, kw := range c.keywords {
		if textnorm.ContainsPhrase(a.Text, kw) {
			total += textWeight
			reasons = append(reasons, "text:"+kw)
		}
		if textnorm.ContainsPhrase(label, kw) {
			total += ariaWeight
			reasons = append(reasons, "aria:"+kw)
		}
	}

	href := hrefPath(a.Href)
	for _, p := range c.hrefPatterns {
		if strings.Contains(href, p) {
			total += hrefWeight
			reasons = append(reasons, "href:"+p)
		}
	}
	relevant := len(reasons) > 0

	for i, loc := range c.locations {
		if loc == a.Location {
			bonus := float64(len(c.locations)-i) * locationWeight
			total += bonus
			reasons = append(reasons, fmt.Sprintf("location:%s", loc))
			break
		}
	}

	switch n := utf8.RuneCountInString(a.Text); {
	case n > longTextLimit:
		total--
		reasons = append(reasons, "long-text")
	case n < 2:
		total -= 2
		reasons = append(reasons, "short-text")
	}

	return entity.LinkCandidate{
		URL:      a.Href,
		Text:     a.Text,
		Score:    total,
		Location: a.Location,
		Reason:   strings.Join(reasons, ","),
	}, relevant
}

// hrefPath returns the folded host-relative part of href, so a domain like
// "contact-tools.com" does not count as a contact link.
func hrefPath(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return textnorm.Fold(href)
	}
	host := u.Hostname()
	sub := ""
	if i := strings.Index(host, "."); i > 0 && strings.Count(host, ".") >= 2 {
		sub = host[:i] + "."
	}
	return textnorm.Fold(sub + u.EscapedPath() + "?" + u.RawQuery)
}
