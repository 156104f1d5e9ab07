package lunatech

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

func (a *App) layout(c echo.Context, meta PageMeta) Layout {
	if meta.Title == "" {
		meta.Title = a.Config.Name
	}
	if meta.Description == "" {
		meta.Description = a.Config.Description
	}
	if meta.URL == "" {
		meta.URL = BuildURL(a.Config.URL, c.Request().URL.Path)
	}
	if meta.OGType == "" {
		meta.OGType = "website"
	}
	return Layout{
		Site: a.Config,
		Meta: meta,
		CSRF: CsrfToken(c),
	}
}

func (a *App) handleLanding(c echo.Context) error {
	page := LandingPage{Layout: a.layout(c, PageMeta{})}
	page.JSONLD = WebsiteJsonLD(a.Config)
	recent, err := a.Cache.ListRecentPosts(c.Request().Context(), defaultRecentLimit)
	if err != nil {
		// The teaser is optional; the rest of the page still renders.
		a.Log.Error().Err(err).Msg("load recent posts")
		page.Err = Message(err)
	}
	page.Recent = recent
	return Render(c, a.Views.Landing(page))
}

func (a *App) handleBlogList(c echo.Context) error {
	ctx := c.Request().Context()
	lc := NewListController(a.Cache)
	lc.Load(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	lc.SetSearch(c.QueryParam("q"))
	lc.SetTag(c.QueryParam("tag"))

	page := lc.Page()
	page.Layout = a.layout(c, PageMeta{
		Title:       "Blog | " + a.Config.Name,
		Description: a.Config.Description,
		URL:         BuildURL(a.Config.URL, "blog"),
	})
	return Render(c, a.Views.BlogList(page))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	dc := NewDetailController(a.Repo)
	dc.Load(ctx, c.Param("slug"))
	if err := ctx.Err(); err != nil {
		return err
	}

	page := PostPage{State: dc.State(), Err: dc.Err()}
	switch page.State {
	case DetailNotFound:
		return a.renderNotFound(c)
	case DetailError:
		page.Layout = a.layout(c, PageMeta{Title: "Blog | " + a.Config.Name})
		return RenderStatus(c, http.StatusBadGateway, a.Views.Post(page))
	}

	post := dc.Post()
	page.Post = post
	page.Layout = a.layout(c, PageMeta{
		Title:       post.PageTitle() + " | " + a.Config.Name,
		Description: post.PageDescription(),
		URL:         BuildURL(a.Config.URL, "blog", post.Slug),
		OGType:      "article",
		Image:       post.FeaturedImage,
	})
	page.JSONLD = BlogPostingJsonLD(post, a.Config)
	if posts, err := a.Cache.ListPosts(ctx); err == nil {
		page.Related = FilterRelatedPosts(post, posts)
		if len(page.Related) > 3 {
			page.Related = page.Related[:3]
		}
	} else {
		a.Log.Warn().Err(err).Msg("load related posts")
	}
	return Render(c, a.Views.Post(page))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Cache.ListPosts(c.Request().Context())
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.Config.StaticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.Config.StaticDir + "/robots.txt")
}

func (a *App) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := a.Store.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": Version})
}

func (a *App) renderNotFound(c echo.Context) error {
	return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(ErrorPage{
		Layout:  a.layout(c, PageMeta{Title: "Not found | " + a.Config.Name}),
		Code:    http.StatusNotFound,
		Message: "The page you are looking for does not exist.",
	}))
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
	case errors.Is(err, context.Canceled):
		// The client went away; nobody is reading the response.
		return
	default:
		code = StatusFor(err)
	}

	if code == http.StatusNotFound {
		_ = a.renderNotFound(c)
		return
	}
	if code >= 500 {
		a.Log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("server error")
		_ = RenderStatus(c, code, a.Views.ServerError(ErrorPage{
			Layout:  a.layout(c, PageMeta{Title: "Error | " + a.Config.Name}),
			Code:    code,
			Message: "Something went wrong. Please try again.",
		}))
		return
	}
	if he != nil {
		a.Echo.DefaultHTTPErrorHandler(err, c)
		return
	}
	a.Echo.DefaultHTTPErrorHandler(echo.NewHTTPError(code, Message(err)), c)
}
