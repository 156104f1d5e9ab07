// Package views holds the site's page components. Every page is a
// templ.Component built from the page structs of the lunatech package.
package views

import (
	"context"

	"github.com/a-h/templ"

	lunatech "github.com/Malmeu/LunatechWeb-main"
)

// Funcs returns the ViewFuncs the App renders with.
func Funcs() lunatech.ViewFuncs {
	return lunatech.ViewFuncs{
		Landing:     Landing,
		BlogList:    BlogList,
		Post:        Post,
		Login:       Login,
		Editor:      Editor,
		NotFound:    NotFound,
		ServerError: ServerError,
	}
}

// Layout wraps body in the document shell with SEO and OpenGraph tags.
func Layout(l lunatech.Layout, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *html) {
		m := l.Meta
		h.raw(`<!DOCTYPE html><html lang="fr"><head>`,
			`<meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`,
			`<title>`, esc(m.Title), `</title>`,
			`<meta name="description" content="`, esc(m.Description), `">`,
			`<link rel="canonical" href="`, href(m.URL), `">`,
			`<meta property="og:site_name" content="`, esc(l.Site.Name), `">`,
			`<meta property="og:title" content="`, esc(m.Title), `">`,
			`<meta property="og:description" content="`, esc(m.Description), `">`,
			`<meta property="og:url" content="`, href(m.URL), `">`,
			`<meta property="og:type" content="`, esc(m.OGType), `">`)
		if m.Image != "" {
			h.raw(`<meta property="og:image" content="`, href(m.Image), `">`,
				`<meta name="twitter:card" content="summary_large_image">`)
		}
		h.raw(`<link rel="alternate" type="application/rss+xml" title="`, esc(l.Site.Name), `" href="/feed.xml">`,
			`<link rel="icon" href="/favicon.svg" type="image/svg+xml">`,
			`<link rel="stylesheet" href="/public/style.css">`)
		if l.JSONLD != "" {
			// encoding/json escapes <, > and & so the block cannot close the script.
			h.raw(`<script type="application/ld+json">`, l.JSONLD, `</script>`)
		}
		h.raw(`</head><body>`)
		nav(h, l)
		h.raw(`<main class="container">`)
		h.render(ctx, body)
		h.raw(`</main>`)
		h.raw(`<footer class="footer"><p>© `, esc(l.Site.Name),
			` · <a href="/blog">Blog</a> · <a href="/feed.xml">RSS</a></p></footer>`)
		h.raw(`</body></html>`)
	})
}

func nav(h *html, l lunatech.Layout) {
	h.raw(`<header class="nav"><a class="brand" href="/">`, esc(l.Site.Name), `</a><nav>`,
		`<a href="/#services">Services</a>`,
		`<a href="/#experience">Expérience</a>`,
		`<a href="/blog">Blog</a>`)
	if l.SignedIn {
		h.raw(`<a href="/admin/blog">Éditeur</a>`,
			`<form class="inline" method="post" action="/admin/logout">`,
			`<input type="hidden" name="_csrf" value="`, esc(l.CSRF), `">`,
			`<button type="submit" class="link">Déconnexion</button></form>`)
	}
	h.raw(`</nav></header>`)
}

func alert(h *html, class, msg string) {
	if msg == "" {
		return
	}
	h.raw(`<p class="alert alert-`, class, `" role="alert">`, esc(msg), `</p>`)
}
