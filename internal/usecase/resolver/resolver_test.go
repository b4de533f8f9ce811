package resolver

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"browser-commander/internal/domain/entity"
	"browser-commander/internal/infrastructure/dom"
	"browser-commander/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const origin = "https://example.com/"

func pageAt(html string, extra map[string]*testutil.FakeSite) *testutil.FakePage {
	sites := map[string]*testutil.FakeSite{origin: {HTML: html}}
	for u, s := range extra {
		sites[u] = s
	}
	p := testutil.NewFakePage(sites)
	p.SetCurrent(origin)
	return p
}

func TestResolve_ByLink(t *testing.T) {
	page := pageAt(`<html><body>
		<main><a href="/blog">Blog</a></main>
		<footer><a href="/kontakt">Kontakt</a><a href="/o-nas">O nas</a></footer>
	</body></html>`, map[string]*testutil.FakeSite{
		"https://example.com/kontakt": {HTML: "<html><body>form</body></html>"},
	})
	r := New(testutil.NopLogger(), 0)

	res := r.Resolve(context.Background(), page, entity.GoalFindContactForm)

	require.NotNil(t, res)
	assert.Equal(t, "https://example.com/kontakt", res.URL)
	assert.Equal(t, entity.ResolvedByLink, res.Method)
	assert.InDelta(t, 7.5, res.Candidate.Score, 1e-9)
	assert.Equal(t, []string{"https://example.com/kontakt"}, page.NavigateCalls)
	assert.Equal(t, "https://example.com/kontakt", page.CurrentURL())
}

func TestResolve_BrokenLinkFallsBackToPaths(t *testing.T) {
	page := pageAt(`<html><body>
		<footer><a href="/kontakt">Kontakt</a></footer>
	</body></html>`, map[string]*testutil.FakeSite{
		"https://example.com/kontakt": {Status: 404},
		"https://example.com/contact": {HTML: "<html><body>form</body></html>"},
	})
	r := New(testutil.NopLogger(), 0)

	res := r.Resolve(context.Background(), page, entity.GoalFindContactForm)

	require.NotNil(t, res)
	assert.Equal(t, "https://example.com/contact", res.URL)
	assert.Equal(t, entity.ResolvedByPath, res.Method)
	assert.Equal(t, []string{"https://example.com/kontakt", "https://example.com/contact"}, page.NavigateCalls,
		"the broken link is not tried again as a path")
	assert.Equal(t, "https://example.com/contact", page.CurrentURL())
}

func TestResolve_BrokenLinkAndNoPathsReturnsToOrigin(t *testing.T) {
	page := pageAt(`<html><body>
		<footer><a href="/pomoc">Pomoc</a></footer>
	</body></html>`, map[string]*testutil.FakeSite{
		"https://example.com/pomoc": {Status: 500},
	})

	res := New(testutil.NopLogger(), 0).Resolve(context.Background(), page, entity.GoalFindHelp)

	assert.Nil(t, res)
	assert.Equal(t, origin, page.CurrentURL())
}

func TestResolve_PathProbe(t *testing.T) {
	page := pageAt(`<html><body><a href="/blog">Blog</a></body></html>`, map[string]*testutil.FakeSite{
		"https://example.com/contact": {HTML: "<html><body>form</body></html>"},
	})
	r := New(testutil.NopLogger(), 0)

	res := r.Resolve(context.Background(), page, entity.GoalFindContactForm)

	require.NotNil(t, res)
	assert.Equal(t, "https://example.com/contact", res.URL)
	assert.Equal(t, entity.ResolvedByPath, res.Method)
	assert.Equal(t, []string{"https://example.com/kontakt", "https://example.com/contact"}, page.NavigateCalls)
}

func TestResolve_SubdomainProbe(t *testing.T) {
	page := pageAt(`<html><body></body></html>`, map[string]*testutil.FakeSite{
		"https://jobs.example.com/": {},
	})
	r := New(testutil.NopLogger(), 0)

	res := r.Resolve(context.Background(), page, entity.GoalFindCareers)

	require.NotNil(t, res)
	assert.Equal(t, "https://jobs.example.com/", res.URL)
	assert.Equal(t, entity.ResolvedBySubdomain, res.Method)
	assert.Len(t, page.NavigateCalls, len(probePaths[entity.GoalFindCareers])+2)
}

func TestResolve_FailureReturnsToOrigin(t *testing.T) {
	page := pageAt(`<html><body><a href="/">Home</a></body></html>`, map[string]*testutil.FakeSite{
		"https://example.com/pomoc": {Status: 500},
	})
	r := New(testutil.NopLogger(), 0)

	res := r.Resolve(context.Background(), page, entity.GoalFindHelp)

	assert.Nil(t, res)
	assert.Equal(t, origin, page.CurrentURL())
}

func TestResolve_GenericGoal(t *testing.T) {
	page := pageAt(`<html><body><a href="/kontakt">Kontakt</a></body></html>`, nil)

	res := New(testutil.NopLogger(), 0).Resolve(context.Background(), page, entity.GoalGeneric)

	assert.Nil(t, res)
	assert.Empty(t, page.NavigateCalls)
}

func TestRank(t *testing.T) {
	anchors := []entity.Anchor{
		{Text: "Koszyk", Href: "https://example.com/koszyk", Location: entity.LocationMain},
		{Text: "", AriaLabel: "Cart", Href: "https://example.com/koszyk", Location: entity.LocationHeader},
		{Text: strings.Repeat("koszyk pełen promocji ", 6), Href: "https://example.com/news", Location: entity.LocationMain},
		{Text: "x", Href: "https://example.com/cart", Location: entity.LocationFooter},
		{Text: "Blog", Href: "https://example.com/blog", Location: entity.LocationHeader},
	}

	got := Rank(anchors, entity.GoalFindCart)

	require.Len(t, got, 3)
	// text (+2) + href (+3) + main (2*0.5) beats aria (+1.5) + href (+3) + header (4*0.5) - short (2)
	assert.Equal(t, "https://example.com/koszyk", got[0].URL)
	assert.InDelta(t, 6.0, got[0].Score, 1e-9)
	assert.Equal(t, "Koszyk", got[0].Text)
	assert.Equal(t, "https://example.com/news", got[1].URL)
	assert.InDelta(t, 2.0, got[1].Score, 1e-9)
	assert.Equal(t, "https://example.com/cart", got[2].URL)
	assert.InDelta(t, 1.5, got[2].Score, 1e-9)
}

func TestScore_TitleUsedWhenNoAria(t *testing.T) {
	c := goalCriteria[entity.GoalFindLogin]

	got, relevant := score(entity.Anchor{Text: "👤", Title: "Zaloguj się", Href: "https://example.com/u", Location: entity.LocationSidebar}, c)

	assert.True(t, relevant)
	assert.InDelta(t, 1.5-2, got.Score, 1e-9)
	assert.Contains(t, got.Reason, "aria:zaloguj")
}

func TestHrefPath_IgnoresDomain(t *testing.T) {
	assert.NotContains(t, hrefPath("https://contact-tools.com/blog"), "contact")
	assert.Contains(t, hrefPath("https://careers.example.com/"), "careers")
	assert.Contains(t, hrefPath("https://example.com/pl/kontakt?x=1"), "kontakt")
}

func TestResolve_NeverAcceptsLowScores(t *testing.T) {
	words := []string{"kontakt", "contact", "blog", "home", "o nas", "koszyk", "", "x", "napisz do nas", "sklep"}
	hrefs := []string{"/kontakt", "/contact", "/blog", "/", "/o-nas", "/cart", "/p/1", "/news"}
	tags := []string{"header", "nav", "footer", "aside", "main", "div"}
	goals := []entity.Goal{entity.GoalFindContactForm, entity.GoalFindCart, entity.GoalFindAbout, entity.GoalFindProducts}
	served := map[string]*testutil.FakeSite{}
	for _, h := range hrefs {
		if h == "/" {
			continue
		}
		served["https://example.com"+h] = &testutil.FakeSite{}
	}

	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(rt, "n")
		var b strings.Builder
		b.WriteString("<html><body>")
		for i := 0; i < n; i++ {
			tag := rapid.SampledFrom(tags).Draw(rt, "tag")
			fmt.Fprintf(&b, `<%s><a href="%s">%s</a></%s>`, tag,
				rapid.SampledFrom(hrefs).Draw(rt, "href"),
				rapid.SampledFrom(words).Draw(rt, "text"), tag)
		}
		b.WriteString("</body></html>")
		goal := rapid.SampledFrom(goals).Draw(rt, "goal")

		page := pageAt(b.String(), served)
		res := New(testutil.NopLogger(), 0).Resolve(context.Background(), page, goal)

		anchors, err := dom.ExtractAnchors(b.String(), origin)
		require.NoError(rt, err)
		ranked := Rank(anchors, goal)

		if res != nil && res.Method == entity.ResolvedByLink {
			require.Greater(rt, res.Candidate.Score, AcceptThreshold)
			return
		}
		if len(ranked) > 0 {
			require.LessOrEqual(rt, ranked[0].Score, AcceptThreshold)
		}
	})
}
