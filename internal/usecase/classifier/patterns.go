package classifier

import (
	"regexp"

	"browser-commander/internal/domain/entity"
)

type goalPatterns struct {
	goal     entity.Goal
	patterns []*regexp.Regexp
}

// Patterns are matched against folded text, so they are written without
// diacritics.
var patternSets = []goalPatterns{
	{entity.GoalFindContactForm, compile(
		`kontakt|contact`,
		`formularz|\bform\b`,
		`wysl|\bsend\b|napisz|\bwrite\b`,
		`wiadomos|message|zapytanie|inquiry`,
	)},
	{entity.GoalFindCart, compile(
		`koszyk|\bcart\b|basket`,
		`zawartos|contents?|\bitems?\b|produkty w`,
		`pokaz|sprawdz|\bshow\b|\bcheck\b|\bopen\b|otworz`,
	)},
	{entity.GoalFindCheckout, compile(
		`checkout|\bkasa\b|kasy`,
		`zamowieni|\border\b|platnos|payment`,
		`podsumowani|summary|finaliz|complete`,
	)},
	{entity.GoalFindLogin, compile(
		`zaloguj|logowani|\blog ?in\b|sign ?in`,
		`kont[ao]|account|panel`,
	)},
	{entity.GoalFindRegister, compile(
		`rejestr|zarejestr|register|sign ?up`,
		`zaloz|utworz|create|\bnew\b|nowe`,
		`kont[ao]|account`,
	)},
	{entity.GoalFindSearch, compile(
		`wyszukaj|szukaj|search|look ?up`,
		`fraz|query|hasl[oa]|term`,
	)},
	{entity.GoalFindProducts, compile(
		`produkt|product|towar|item`,
		`katalog|catalog|oferta|ofert|sklep|shop|store`,
		`kategori|categor|list`,
	)},
	{entity.GoalFindCareers, compile(
		`karier|career|\bjobs?\b|prac[ay]\b|rekrutac|hiring`,
		`ofert|offer|vacanc|stanowisk|position`,
	)},
	{entity.GoalFindHelp, compile(
		`pomoc|\bhelp\b|support|wsparci`,
		`\bfaq\b|pytani|question|centrum|center`,
	)},
	{entity.GoalFindAbout, compile(
		`o nas|o firmie|about`,
		`firm|company|zespol|team|histori|story`,
	)},
	{entity.GoalFindPricing, compile(
		`cennik|pricing|\bceny\b|\bprices?\b`,
		`pakiet|plan|abonament|subscription|tier`,
	)},
	{entity.GoalExtractData, compile(
		`pobierz|wyciagnij|zbierz|wypisz|extract|scrape|collect`,
		`dane|data|lista|list|tabel|table|ceny|prices`,
		`wszystk|\ball\b|each|kazd`,
	)},
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

// matchPatterns returns the best goal by match ratio. Ties keep catalogue order.
func matchPatterns(folded string) (entity.Goal, float64, int) {
	best, bestRatio, bestHits := entity.GoalGeneric, 0.0, 0
	for _, set := range patternSets {
		hits := 0
		for _, re := range set.patterns {
			if re.MatchString(folded) {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(set.patterns))
		if ratio > bestRatio {
			best, bestRatio, bestHits = set.goal, ratio, hits
		}
	}
	return best, bestRatio, bestHits
}
