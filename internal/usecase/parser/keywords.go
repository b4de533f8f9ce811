package parser

import "browser-commander/internal/domain/entity"

// goalKeywords drives the keyword pre-detection. Multi-word entries are
// matched as phrases; only single words take part in stem matching.
var goalKeywords = []struct {
	goal     entity.Goal
	keywords []string
}{
	{entity.GoalFindContactForm, []string{
		"formularz", "formularz kontaktowy", "kontakt", "kontaktowy", "wyślij", "wiadomość", "napisz",
		"contact", "contact form", "contact us", "send", "message", "form",
	}},
	{entity.GoalFindCart, []string{
		"koszyk", "koszyka", "zawartość koszyka", "cart", "basket", "shopping cart", "bag",
	}},
	{entity.GoalFindCheckout, []string{
		"kasa", "zamówienie", "podsumowanie zamówienia", "płatność", "checkout", "check out", "payment",
	}},
	{entity.GoalFindLogin, []string{
		"zaloguj", "logowanie", "login", "log in", "sign in", "signin", "moje konto", "my account",
	}},
	{entity.GoalFindRegister, []string{
		"rejestracja", "zarejestruj", "załóż konto", "register", "sign up", "signup", "create account",
	}},
	{entity.GoalFindSearch, []string{
		"wyszukaj", "szukaj", "wyszukiwarka", "search", "look up", "find",
	}},
	{entity.GoalFindProducts, []string{
		"produkty", "produkt", "oferta", "sklep", "katalog", "products", "product", "shop", "catalog", "store",
	}},
	{entity.GoalFindCareers, []string{
		"kariera", "praca", "oferty pracy", "rekrutacja", "careers", "career", "jobs", "job offers", "hiring",
	}},
	{entity.GoalFindHelp, []string{
		"pomoc", "wsparcie", "faq", "pytania", "help", "support", "help center",
	}},
	{entity.GoalFindAbout, []string{
		"o nas", "o firmie", "firma", "about", "about us", "company", "who we are",
	}},
	{entity.GoalFindPricing, []string{
		"cennik", "ceny", "pakiety", "plany", "pricing", "prices", "plans",
	}},
	{entity.GoalExtractData, []string{
		"pobierz", "wyciągnij", "zbierz", "wypisz", "lista", "extract", "scrape", "collect", "list", "get data",
	}},
}

type actionKeyword struct {
	action  string
	keyword string
}

var actionKeywords = []actionKeyword{
	{entity.ActionNavigate, "wejdź"},
	{entity.ActionNavigate, "przejdź"},
	{entity.ActionNavigate, "otwórz"},
	{entity.ActionNavigate, "go to"},
	{entity.ActionNavigate, "open"},
	{entity.ActionNavigate, "visit"},
	{entity.ActionNavigate, "navigate"},
	{entity.ActionFill, "wypełnij"},
	{entity.ActionFill, "wpisz"},
	{entity.ActionFill, "uzupełnij"},
	{entity.ActionFill, "fill"},
	{entity.ActionSubmit, "wyślij"},
	{entity.ActionSubmit, "zatwierdź"},
	{entity.ActionSubmit, "submit"},
	{entity.ActionSubmit, "send"},
	{entity.ActionSearch, "wyszukaj"},
	{entity.ActionSearch, "szukaj"},
	{entity.ActionSearch, "search"},
	{entity.ActionClick, "kliknij"},
	{entity.ActionClick, "naciśnij"},
	{entity.ActionClick, "click"},
	{entity.ActionClick, "press"},
	{entity.ActionLogin, "zaloguj"},
	{entity.ActionLogin, "log in"},
	{entity.ActionLogin, "sign in"},
	{entity.ActionLogin, "login"},
	{entity.ActionAddToCart, "dodaj do koszyka"},
	{entity.ActionAddToCart, "add to cart"},
	{entity.ActionExtract, "pobierz"},
	{entity.ActionExtract, "wyciągnij"},
	{entity.ActionExtract, "wypisz"},
	{entity.ActionExtract, "zbierz"},
	{entity.ActionExtract, "extract"},
	{entity.ActionExtract, "scrape"},
	{entity.ActionScreenshot, "zrzut ekranu"},
	{entity.ActionScreenshot, "screenshot"},
}
