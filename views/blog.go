package views

import (
	"context"
	"strconv"

	"github.com/a-h/templ"

	lunatech "github.com/Malmeu/LunatechWeb-main"
)

// BlogList is the blog index with search and tag filter.
func BlogList(page lunatech.BlogListPage) templ.Component {
	return Layout(page.Layout, component(func(ctx context.Context, h *html) {
		h.raw(`<section class="blog"><h1>Blog</h1>`)
		h.raw(`<form class="filters" method="get" action="/blog" role="search">`,
			`<input type="search" name="q" placeholder="Rechercher un article…" value="`, esc(page.Search), `">`,
			`<select name="tag"><option value="">Tous les tags</option>`)
		for _, t := range page.Tags {
			selected := ""
			if t == page.Tag {
				selected = ` selected`
			}
			h.raw(`<option value="`, esc(t), `"`, selected, `>`, esc(t), `</option>`)
		}
		h.raw(`</select><button type="submit">Filtrer</button></form>`)

		if len(page.Tags) > 0 {
			h.raw(`<div class="tags">`)
			for _, t := range page.Tags {
				h.raw(`<a class="`, TagClass(t == page.Tag), `" href="`, href(tagURL(t)), `">`, esc(t), `</a>`)
			}
			h.raw(`</div>`)
		}

		alert(h, "error", page.Err)
		if page.Err == "" {
			switch {
			case page.Total == 0:
				h.raw(`<p class="muted">Aucun article pour le moment.</p>`)
			case len(page.Posts) == 0:
				h.raw(`<p class="muted">Aucun article ne correspond à votre recherche.</p>`)
			default:
				h.raw(`<p class="muted">`, strconv.Itoa(len(page.Posts)), ` article(s)</p>`)
			}
		}

		h.raw(`<div class="cards">`)
		for _, p := range page.Posts {
			postCard(h, p, page.Tag)
		}
		h.raw(`</div></section>`)
	}))
}

func postCard(h *html, p lunatech.Post, activeTag string) {
	h.raw(`<article class="card post-card">`)
	if p.FeaturedImage != "" {
		h.raw(`<a href="`, href(p.Link()), `"><img src="`, href(p.FeaturedImage), `" alt="`, esc(p.Title), `" loading="lazy"></a>`)
	}
	h.raw(`<h3><a href="`, href(p.Link()), `">`, esc(p.Title), `</a></h3>`,
		`<p>`, esc(p.Description), `</p>`)
	byline(h, p)
	tagList(h, p.Tags, activeTag)
	h.raw(`</article>`)
}

func byline(h *html, p lunatech.Post) {
	h.raw(`<p class="byline">`)
	if p.Author.AvatarURL != "" {
		h.raw(`<img class="avatar" src="`, href(p.Author.AvatarURL), `" alt="" width="32" height="32">`)
	}
	if p.Author.FullName != "" {
		h.raw(`<span>`, esc(p.Author.FullName), `</span> · `)
	}
	h.raw(`<time datetime="`, esc(p.CreatedAt.UTC().Format("2006-01-02")), `">`, esc(FormatDate(p.CreatedAt)), `</time></p>`)
}

func tagList(h *html, tags []string, active string) {
	if len(tags) == 0 {
		return
	}
	h.raw(`<div class="tags">`)
	for _, t := range tags {
		h.raw(`<a class="`, TagClass(t == active), `" href="`, href(tagURL(t)), `">`, esc(t), `</a>`)
	}
	h.raw(`</div>`)
}

// Post is the single post page.
func Post(page lunatech.PostPage) templ.Component {
	return Layout(page.Layout, component(func(ctx context.Context, h *html) {
		h.raw(`<p><a href="/blog">← Retour au blog</a></p>`)
		switch page.State {
		case lunatech.DetailLoading:
			h.raw(`<p class="muted">Chargement…</p>`)
			return
		case lunatech.DetailError:
			alert(h, "error", page.Err)
			return
		case lunatech.DetailNotFound:
			h.raw(`<h1>Article non trouvé</h1>`)
			return
		}

		p := page.Post
		h.raw(`<article class="post"><h1>`, esc(p.Title), `</h1>`)
		byline(h, p)
		tagList(h, p.Tags, "")
		if p.FeaturedImage != "" {
			h.raw(`<img class="featured" src="`, href(p.FeaturedImage), `" alt="`, esc(p.Title), `">`)
		}
		// ContentHTML comes out of the sanitizing renderer.
		h.raw(`<div class="prose">`, p.ContentHTML, `</div></article>`)

		if len(page.Related) > 0 {
			h.raw(`<section class="related"><h2>Articles similaires</h2><div class="cards">`)
			for _, r := range page.Related {
				postCard(h, r, "")
			}
			h.raw(`</div></section>`)
		}
	}))
}
