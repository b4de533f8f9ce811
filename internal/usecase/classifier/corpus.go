package classifier

import "browser-commander/internal/domain/entity"

// goalCorpus is the closed document set for TF-IDF: one document per goal.
var goalCorpus = []struct {
	goal entity.Goal
	text string
}{
	{entity.GoalFindContactForm, "kontakt kontaktowy formularz formularza formularzu wyślij wyslij napisz wiadomość wiadomosc zapytanie " +
		"contact form message send write inquiry email reach us get in touch"},
	{entity.GoalFindCart, "koszyk koszyka koszyku zawartość produkty w koszyku " +
		"cart basket shopping bag items contents view cart"},
	{entity.GoalFindCheckout, "kasa kasy zamówienie zamówienia płatność dostawa podsumowanie " +
		"checkout order payment shipping delivery summary place order"},
	{entity.GoalFindLogin, "zaloguj zalogować logowanie konto panel klienta hasło " +
		"login log in sign in signin account password my account"},
	{entity.GoalFindRegister, "rejestracja zarejestruj załóż konto nowe konto utwórz " +
		"register registration sign up signup create account new account join"},
	{entity.GoalFindSearch, "wyszukaj szukaj wyszukiwarka znajdź fraza hasło " +
		"search find look up query lookup keyword"},
	{entity.GoalFindProducts, "produkty produkt oferta sklep katalog kategorie towary " +
		"products product shop store catalog catalogue categories items offer"},
	{entity.GoalFindCareers, "kariera praca oferty pracy rekrutacja stanowisko dołącz " +
		"careers career jobs job openings hiring vacancies positions join team"},
	{entity.GoalFindHelp, "pomoc wsparcie faq pytania centrum pomocy obsługa klienta " +
		"help support faq questions help center customer service"},
	{entity.GoalFindAbout, "o nas o firmie firma historia zespół misja " +
		"about us company story team mission who we are"},
	{entity.GoalFindPricing, "cennik ceny cena pakiety plany abonament koszt " +
		"pricing prices price plans packages subscription cost"},
	{entity.GoalExtractData, "pobierz wyciągnij zbierz wypisz dane lista tabela " +
		"extract scrape collect data list table get all text"},
}
