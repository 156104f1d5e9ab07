package lunatech

import "github.com/a-h/templ"

// ViewFuncs holds the templ components the App renders. The views package
// provides the site's set; tests and embedders may supply their own.
type ViewFuncs struct {
	Landing     func(page LandingPage) templ.Component
	BlogList    func(page BlogListPage) templ.Component
	Post        func(page PostPage) templ.Component
	Login       func(page LoginPage) templ.Component
	Editor      func(page EditorPage) templ.Component
	NotFound    func(page ErrorPage) templ.Component
	ServerError func(page ErrorPage) templ.Component
}

// Layout is the data every page shares with the document shell.
type Layout struct {
	Site     SiteConfig
	Meta     PageMeta
	CSRF     string
	SignedIn bool
	JSONLD   string
}

type LandingPage struct {
	Layout
	Recent []Post
	Err    string
}

type BlogListPage struct {
	Layout
	Posts  []Post
	Tags   []string
	Search string
	Tag    string
	Total  int
	Err    string
}

type PostPage struct {
	Layout
	State   DetailState
	Post    Post
	Related []Post
	Err     string
}

type LoginPage struct {
	Layout
	Email string
	Next  string
	Err   string
}

type EditorPage struct {
	Layout
	Posts   []Post
	Form    EditorForm
	Editing bool
	Message string
	Err     string
}

type ErrorPage struct {
	Layout
	Code    int
	Message string
}
