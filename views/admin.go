package views

import (
	"context"

	"github.com/a-h/templ"

	lunatech "github.com/Malmeu/LunatechWeb-main"
)

func csrfField(h *html, token string) {
	h.raw(`<input type="hidden" name="_csrf" value="`, esc(token), `">`)
}

// Login is the admin sign-in form.
func Login(page lunatech.LoginPage) templ.Component {
	return Layout(page.Layout, component(func(ctx context.Context, h *html) {
		h.raw(`<section class="login"><h1>Connexion</h1>`)
		alert(h, "error", page.Err)
		h.raw(`<form method="post" action="/admin/login">`)
		csrfField(h, page.CSRF)
		h.raw(`<input type="hidden" name="next" value="`, esc(page.Next), `">`,
			`<label>Email<input type="email" name="email" required autocomplete="username" value="`, esc(page.Email), `"></label>`,
			`<label>Mot de passe<input type="password" name="password" required autocomplete="current-password"></label>`,
			`<button type="submit">Se connecter</button></form></section>`)
	}))
}

// Editor is the admin post list with the draft form.
func Editor(page lunatech.EditorPage) templ.Component {
	return Layout(page.Layout, component(func(ctx context.Context, h *html) {
		h.raw(`<section class="editor" data-editor><div class="editor-head"><h1>Gestion du blog</h1>`,
			`<a class="button" href="/admin/blog/new">Nouvel article</a>`,
			`<a href="/admin/blog?refresh=1">Actualiser</a></div>`)
		alert(h, "success", page.Message)
		alert(h, "error", page.Err)
		if page.Editing {
			editorForm(h, page.Form, page.CSRF)
		}
		postTable(h, page.Posts, page.CSRF)
		h.raw(`</section>`)
	}))
}

func editorForm(h *html, f lunatech.EditorForm, csrf string) {
	heading := "Nouvel article"
	if f.ID != "" {
		heading = "Modifier l'article"
	}
	h.raw(`<form class="post-form" method="post" action="/admin/blog/save"><h2>`, heading, `</h2>`)
	csrfField(h, csrf)
	h.raw(`<input type="hidden" name="id" value="`, esc(f.ID), `">`)
	input(h, "Titre", "title", f.Title, true)
	input(h, "Slug (laisser vide pour le générer)", "slug", f.Slug, false)
	textarea(h, "Description", "description", f.Description, 3, true)
	textarea(h, "Contenu (Markdown)", "content", f.Content, 18, true)
	input(h, "Tags (séparés par des virgules)", "tags", f.Tags, false)
	input(h, "Meta title", "meta_title", f.MetaTitle, false)
	textarea(h, "Meta description", "meta_description", f.MetaDescription, 2, false)

	h.raw(`<fieldset class="image"><legend>Image à la une</legend>`,
		`<input type="hidden" name="featured_image" value="`, esc(f.FeaturedImage), `">`)
	if f.FeaturedImage != "" {
		h.raw(`<img class="preview" src="`, href(f.FeaturedImage), `" alt="">`,
			`<button type="submit" formaction="/admin/blog/image/remove" formnovalidate>Retirer l'image</button>`)
	}
	h.raw(`<input type="file" name="image" accept="image/jpeg,image/png,image/gif,image/webp">`,
		`<button type="submit" formaction="/admin/blog/image" formenctype="multipart/form-data" formnovalidate>Téléverser l'image</button>`,
		`</fieldset>`)

	checked := ""
	if f.Published {
		checked = ` checked`
	}
	h.raw(`<label class="check"><input type="checkbox" name="published" value="1"`, checked, `> Publié</label>`,
		`<div class="actions"><button type="submit">Enregistrer</button>`,
		`<a href="/admin/blog">Annuler</a></div></form>`)
}

func input(h *html, label, name, value string, required bool) {
	req := ""
	if required {
		req = ` required`
	}
	h.raw(`<label>`, esc(label), `<input type="text" name="`, name, `" value="`, esc(value), `"`, req, `></label>`)
}

func textarea(h *html, label, name, value string, rows int, required bool) {
	req := ""
	if required {
		req = ` required`
	}
	h.raw(`<label>`, esc(label), `<textarea name="`, name, `" rows="`, itoa(rows), `"`, req, `>`, esc(value), `</textarea></label>`)
}

func postTable(h *html, posts []lunatech.Post, csrf string) {
	if len(posts) == 0 {
		h.raw(`<p class="muted">Aucun article.</p>`)
		return
	}
	h.raw(`<table class="posts"><thead><tr><th>Titre</th><th>Date</th><th>Statut</th><th></th></tr></thead><tbody>`)
	for _, p := range posts {
		status := "Brouillon"
		if p.Published {
			status = "Publié"
		}
		h.raw(`<tr><td><a href="`, href(p.Link()), `">`, esc(p.Title), `</a></td>`,
			`<td>`, esc(FormatDate(p.CreatedAt)), `</td><td>`, status, `</td><td class="row-actions">`,
			`<a href="/admin/blog/edit/`, esc(lunatech.PathEscape(p.ID)), `">Modifier</a>`,
			`<form class="inline" method="post" action="/admin/blog/delete/`, esc(lunatech.PathEscape(p.ID)), `">`)
		csrfField(h, csrf)
		h.raw(`<button type="submit" class="link danger">Supprimer</button></form></td></tr>`)
	}
	h.raw(`</tbody></table>`)
}
