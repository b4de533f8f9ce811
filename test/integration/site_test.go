package integration

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const pageStyle = `<style>header{background:#1d4ed8;color:#fff;height:160px} footer{background:#111;color:#eee;height:120px}</style>`

// newCompanySite serves a small Polish company site: a home page linking to
// /kontakt and /o-nas, a contact form posting to /wyslano, and a 503 page.
func newCompanySite(t *testing.T) *httptest.Server {
	t.Helper()

	page := func(body string) string {
		return fmt.Sprintf(`<!DOCTYPE html><html lang="pl"><head><meta charset="utf-8"><title>Firma</title>%s</head><body>%s</body></html>`, pageStyle, body)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page(`
			<header><h1>Witamy w Firmie</h1></header>
			<main><p>Produkujemy meble od 1990 roku.</p></main>
			<footer>
				<a href="/o-nas">O nas</a>
				<a href="/kontakt">Kontakt</a>
			</footer>`))
	})
	mux.HandleFunc("/kontakt", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page(`
			<header><h1>Kontakt</h1></header>
			<form id="contact" action="/wyslano" method="get">
				<label for="name">Imię i nazwisko</label><input id="name" name="name" type="text">
				<label for="email">E-mail</label><input id="email" name="email" type="email">
				<label for="message">Wiadomość</label><textarea id="message" name="message"></textarea>
				<label><input id="consent" name="consent" type="checkbox"> Wyrażam zgodę na przetwarzanie danych</label>
				<button id="send" type="submit">Wyślij</button>
			</form>`))
	})
	mux.HandleFunc("/wyslano", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page(fmt.Sprintf(`
			<header><h1>Dziękujemy!</h1></header>
			<main><p>Wiadomość została wysłana. Odpowiemy na adres %s.</p></main>`, r.URL.Query().Get("email"))))
	})
	mux.HandleFunc("/o-nas", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page(`
			<header><h1>O nas</h1></header>
			<main><p>Nasz zespół to 40 stolarzy z Podhala.</p></main>`))
	})
	mux.HandleFunc("/awaria", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}
