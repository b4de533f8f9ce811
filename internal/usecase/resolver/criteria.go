package resolver

import "browser-commander/internal/domain/entity"

type criteria struct {
	keywords     []string
	hrefPatterns []string
	// locations in priority order; earlier entries earn a larger bonus
	locations []entity.LinkLocation
}

var (
	headerFirst = []entity.LinkLocation{entity.LocationHeader, entity.LocationNav, entity.LocationMain, entity.LocationFooter}
	footerFirst = []entity.LinkLocation{entity.LocationFooter, entity.LocationNav, entity.LocationHeader, entity.LocationMain}
	navFirst    = []entity.LinkLocation{entity.LocationNav, entity.LocationHeader, entity.LocationMain, entity.LocationSidebar}
)

var goalCriteria = map[entity.Goal]criteria{
	entity.GoalFindContactForm: {
		keywords:     []string{"kontakt", "contact", "napisz do nas", "skontaktuj", "formularz", "get in touch", "write to us"},
		hrefPatterns: []string{"kontakt", "contact"},
		locations:    []entity.LinkLocation{entity.LocationFooter, entity.LocationHeader, entity.LocationNav, entity.LocationMain, entity.LocationSidebar},
	},
	entity.GoalFindCart: {
		keywords:     []string{"koszyk", "cart", "basket", "shopping bag", "twój koszyk", "your cart"},
		hrefPatterns: []string{"koszyk", "cart", "basket"},
		locations:    headerFirst,
	},
	entity.GoalFindCheckout: {
		keywords:     []string{"kasa", "do kasy", "checkout", "zamówienie", "przejdź do płatności", "proceed to checkout", "order"},
		hrefPatterns: []string{"checkout", "kasa", "zamowienie", "order"},
		locations:    headerFirst,
	},
	entity.GoalFindLogin: {
		keywords:     []string{"zaloguj", "logowanie", "login", "log in", "sign in", "moje konto", "my account", "konto"},
		hrefPatterns: []string{"login", "logowanie", "signin", "sign-in", "account", "konto"},
		locations:    headerFirst,
	},
	entity.GoalFindRegister: {
		keywords:     []string{"rejestracja", "zarejestruj", "załóż konto", "register", "sign up", "create account"},
		hrefPatterns: []string{"register", "rejestracja", "signup", "sign-up"},
		locations:    headerFirst,
	},
	entity.GoalFindSearch: {
		keywords:     []string{"szukaj", "wyszukaj", "wyszukiwarka", "search"},
		hrefPatterns: []string{"search", "szukaj"},
		locations:    headerFirst,
	},
	entity.GoalFindProducts: {
		keywords:     []string{"produkty", "sklep", "oferta", "katalog", "products", "shop", "catalog", "store"},
		hrefPatterns: []string{"produkty", "products", "sklep", "shop", "katalog", "catalog", "oferta"},
		locations:    navFirst,
	},
	entity.GoalFindCareers: {
		keywords:     []string{"kariera", "praca", "oferty pracy", "rekrutacja", "careers", "jobs", "join us"},
		hrefPatterns: []string{"kariera", "career", "praca", "jobs", "rekrutacja"},
		locations:    footerFirst,
	},
	entity.GoalFindHelp: {
		keywords:     []string{"pomoc", "wsparcie", "faq", "obsługa klienta", "help", "support", "customer service"},
		hrefPatterns: []string{"pomoc", "help", "faq", "support"},
		locations:    footerFirst,
	},
	entity.GoalFindAbout: {
		keywords:     []string{"o nas", "o firmie", "firma", "about", "about us", "company", "who we are"},
		hrefPatterns: []string{"o-nas", "o-firmie", "about", "company"},
		locations:    footerFirst,
	},
	entity.GoalFindPricing: {
		keywords:     []string{"cennik", "ceny", "pakiety", "pricing", "prices", "plans"},
		hrefPatterns: []string{"cennik", "pricing", "ceny", "plans"},
		locations:    navFirst,
	},
}

// probePaths are tried in order when no link scores high enough.
var probePaths = map[entity.Goal][]string{
	entity.GoalFindContactForm: {"/kontakt", "/contact", "/contact-us", "/pl/kontakt", "/kontakt.html"},
	entity.GoalFindCart:        {"/koszyk", "/cart", "/basket", "/checkout/cart"},
	entity.GoalFindCheckout:    {"/checkout", "/zamowienie", "/kasa", "/order"},
	entity.GoalFindLogin:       {"/login", "/logowanie", "/zaloguj", "/account/login", "/signin"},
	entity.GoalFindRegister:    {"/register", "/rejestracja", "/signup", "/account/register"},
	entity.GoalFindSearch:      {"/search", "/szukaj"},
	entity.GoalFindProducts:    {"/produkty", "/products", "/sklep", "/shop", "/oferta"},
	entity.GoalFindCareers:     {"/kariera", "/careers", "/praca", "/jobs"},
	entity.GoalFindHelp:        {"/pomoc", "/help", "/faq", "/support"},
	entity.GoalFindAbout:       {"/o-nas", "/about", "/about-us", "/o-firmie"},
	entity.GoalFindPricing:     {"/cennik", "/pricing", "/ceny"},
}

var probeSubdomains = map[entity.Goal][]string{
	entity.GoalFindCareers:  {"careers", "jobs", "kariera"},
	entity.GoalFindHelp:     {"help", "support", "pomoc"},
	entity.GoalFindLogin:    {"account", "konto", "login"},
	entity.GoalFindProducts: {"shop", "sklep"},
}
