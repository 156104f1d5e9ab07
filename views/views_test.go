package views

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"

	lunatech "github.com/Malmeu/LunatechWeb-main"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(context.Background(), &sb); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	return sb.String()
}

func testLayout() lunatech.Layout {
	return lunatech.Layout{
		Site: lunatech.SiteConfig{Name: "Lunatech", Description: "Agence web"},
		Meta: lunatech.PageMeta{Title: "Blog | Lunatech", URL: "https://lunatech.example/blog", OGType: "website"},
		CSRF: "tok123",
	}
}

func TestPostEscapesFieldsButNotContent(t *testing.T) {
	page := lunatech.PostPage{
		Layout: testLayout(),
		State:  lunatech.DetailLoaded,
		Post: lunatech.Post{
			Title:       `<script>alert("x")</script>`,
			Slug:        "x",
			ContentHTML: "<p>Hello <strong>world</strong></p>",
			Tags:        []string{"go & web"},
			CreatedAt:   time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		},
	}
	out := render(t, Post(page))

	if strings.Contains(out, `<script>alert`) {
		t.Error("title not escaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Error("escaped title missing")
	}
	if !strings.Contains(out, `<div class="prose"><p>Hello <strong>world</strong></p></div>`) {
		t.Error("content HTML should be written as is")
	}
	if !strings.Contains(out, "3 mars 2025") {
		t.Error("French date missing")
	}
	if !strings.Contains(out, `href="/blog?tag=go+%26+web"`) {
		t.Errorf("tag link missing or unescaped:\n%s", out)
	}
}

func TestPostStates(t *testing.T) {
	tests := []struct {
		state lunatech.DetailState
		want  string
	}{
		{lunatech.DetailLoading, "Chargement"},
		{lunatech.DetailNotFound, "Article non trouvé"},
		{lunatech.DetailError, "backend down"},
	}
	for _, tt := range tests {
		out := render(t, Post(lunatech.PostPage{Layout: testLayout(), State: tt.state, Err: "backend down"}))
		if !strings.Contains(out, tt.want) {
			t.Errorf("state %v: missing %q", tt.state, tt.want)
		}
		if strings.Contains(out, `class="prose"`) {
			t.Errorf("state %v rendered post content", tt.state)
		}
	}
}

func TestBlogListMessages(t *testing.T) {
	empty := render(t, BlogList(lunatech.BlogListPage{Layout: testLayout()}))
	if !strings.Contains(empty, "Aucun article pour le moment.") {
		t.Error("empty blog message missing")
	}

	noMatch := render(t, BlogList(lunatech.BlogListPage{Layout: testLayout(), Total: 2, Search: `"quoted"`, Tags: []string{"go"}, Tag: "go"}))
	if !strings.Contains(noMatch, "Aucun article ne correspond") {
		t.Error("no-match message missing")
	}
	if !strings.Contains(noMatch, `value="&#34;quoted&#34;"`) {
		t.Error("search value not escaped")
	}
	if !strings.Contains(noMatch, `<option value="go" selected>`) {
		t.Error("active tag not selected")
	}
}

func TestEditorForm(t *testing.T) {
	page := lunatech.EditorPage{
		Layout:  testLayout(),
		Editing: true,
		Form:    lunatech.EditorForm{ID: "p1", Title: "Draft", Content: "</textarea><b>", Published: true, FeaturedImage: "/uploads/a.png"},
		Posts:   []lunatech.Post{{ID: "p1", Title: "Draft", Slug: "draft"}},
		Message: "Post saved.",
	}
	out := render(t, Editor(page))

	for _, want := range []string{
		"data-editor",
		`<input type="hidden" name="_csrf" value="tok123">`,
		`<input type="hidden" name="id" value="p1">`,
		`name="published" value="1" checked`,
		`formaction="/admin/blog/image"`,
		`formaction="/admin/blog/image/remove"`,
		`action="/admin/blog/delete/p1"`,
		`src="/uploads/a.png"`,
		"Post saved.",
		"&lt;/textarea&gt;&lt;b&gt;",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("editor output missing %q", want)
		}
	}
}

func TestLayoutNavWhenSignedIn(t *testing.T) {
	l := testLayout()
	out := render(t, Login(lunatech.LoginPage{Layout: l, Next: "/admin/blog"}))
	if strings.Contains(out, "/admin/logout") {
		t.Error("logout shown to anonymous visitor")
	}

	l.SignedIn = true
	l.JSONLD = `{"@type":"WebSite"}`
	out = render(t, Landing(lunatech.LandingPage{Layout: l}))
	if !strings.Contains(out, `action="/admin/logout"`) {
		t.Error("logout form missing")
	}
	if !strings.Contains(out, `<script type="application/ld+json">{"@type":"WebSite"}</script>`) {
		t.Error("JSON-LD missing")
	}
	if !strings.Contains(out, `<link rel="canonical" href="https://lunatech.example/blog">`) {
		t.Error("canonical link missing")
	}
}

func TestErrorPages(t *testing.T) {
	out := render(t, NotFound(lunatech.ErrorPage{Layout: testLayout(), Code: 404, Message: "gone"}))
	if !strings.Contains(out, "404") || !strings.Contains(out, "Page introuvable") {
		t.Errorf("not found page: %s", out)
	}
	if out := render(t, ServerError(lunatech.ErrorPage{Layout: testLayout(), Code: 502})); !strings.Contains(out, "Erreur du serveur") {
		t.Error("server error title missing")
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(time.Time{}); got != "" {
		t.Errorf("zero time = %q", got)
	}
	if got := FormatDate(time.Date(2024, 12, 25, 23, 0, 0, 0, time.UTC)); got != "25 décembre 2024" {
		t.Errorf("got %q", got)
	}
}
