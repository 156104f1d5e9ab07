package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	lunatech "github.com/Malmeu/LunatechWeb-main"
)

func itoa(n int) string { return strconv.Itoa(n) }

func NotFound(page lunatech.ErrorPage) templ.Component {
	return errorPage(page, "Page introuvable")
}

func ServerError(page lunatech.ErrorPage) templ.Component {
	return errorPage(page, "Erreur du serveur")
}

func errorPage(page lunatech.ErrorPage, title string) templ.Component {
	return Layout(page.Layout, component(func(ctx context.Context, h *html) {
		h.raw(`<section class="error"><p class="kicker">`, itoa(page.Code), `</p><h1>`, esc(title), `</h1>`)
		if page.Message != "" {
			h.raw(`<p>`, esc(page.Message), `</p>`)
		}
		h.raw(`<a class="button" href="/">Retour à l'accueil</a></section>`)
	}))
}
