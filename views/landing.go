package views

import (
	"context"

	"github.com/a-h/templ"

	lunatech "github.com/Malmeu/LunatechWeb-main"
)

type service struct {
	title       string
	description string
}

var services = []service{
	{"Développement Web Full Stack", "Nous créons des applications web et mobiles sur mesure, robustes et évolutives."},
	{"Sites Web No-Code", "Solutions rapides et efficaces avec des plateformes no-code pour des sites professionnels."},
	{"Création Multimédia", "Production de contenu multimédia : vidéos, animations et visuels interactifs."},
	{"Réseaux Sociaux", "Stratégie social media, création de contenu et gestion de communauté."},
	{"Design et Impressions", "Services de design graphique et d'impression pour votre communication."},
}

type milestone struct {
	title  string
	period string
	points []string
}

var experience = []milestone{
	{"Découverte", "Semaine 1", []string{
		"Atelier pour comprendre vos objectifs et votre audience.",
		"Audit de l'existant et choix des outils.",
	}},
	{"Conception", "Semaines 2 à 3", []string{
		"Maquettes, parcours utilisateur et identité visuelle.",
		"Validation ensemble avant le développement.",
	}},
	{"Réalisation", "Semaines 4 à 8", []string{
		"Développement, intégration du contenu et tests.",
		"Mise en ligne et formation de votre équipe.",
	}},
	{"Suivi", "En continu", []string{
		"Maintenance, évolutions et accompagnement sur les réseaux sociaux.",
	}},
}

// Landing is the marketing home page with a teaser of recent posts.
func Landing(page lunatech.LandingPage) templ.Component {
	return Layout(page.Layout, component(func(ctx context.Context, h *html) {
		h.raw(`<section class="hero"><h1>`, esc(page.Site.Name), `</h1>`)
		if page.Site.Description != "" {
			h.raw(`<p class="lead">`, esc(page.Site.Description), `</p>`)
		}
		h.raw(`<a class="button" href="#services">Découvrir nos services</a></section>`)

		h.raw(`<section id="services" class="services"><p class="kicker">Ce que nous proposons</p><h2>Nos Services.</h2><div class="cards">`)
		for _, s := range services {
			h.raw(`<div class="card"><h3>`, esc(s.title), `</h3><p>`, esc(s.description), `</p></div>`)
		}
		h.raw(`</div></section>`)

		h.raw(`<section id="experience" class="experience"><p class="kicker">Notre méthode</p><h2>Expérience.</h2><ol class="timeline">`)
		for _, m := range experience {
			h.raw(`<li><h3>`, esc(m.title), `</h3><p class="muted">`, esc(m.period), `</p><ul>`)
			for _, p := range m.points {
				h.raw(`<li>`, esc(p), `</li>`)
			}
			h.raw(`</ul></li>`)
		}
		h.raw(`</ol></section>`)

		h.raw(`<section id="blog" class="recent"><p class="kicker">Nos derniers articles</p><h2>Blog.</h2>`)
		alert(h, "error", page.Err)
		if len(page.Recent) == 0 && page.Err == "" {
			h.raw(`<p class="muted">Aucun article pour le moment.</p>`)
		}
		h.raw(`<div class="cards">`)
		for _, p := range page.Recent {
			postCard(h, p, "")
		}
		h.raw(`</div><a class="button" href="/blog">Voir tous les articles</a></section>`)
	}))
}
