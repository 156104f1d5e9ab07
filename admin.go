package lunatech

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

func (a *App) loginPage(c echo.Context, email, next, msg string) LoginPage {
	return LoginPage{
		Layout: a.layout(c, PageMeta{Title: "Sign in | " + a.Config.Name}),
		Email:  email,
		Next:   next,
		Err:    msg,
	}
}

func (a *App) handleLoginForm(c echo.Context) error {
	if _, ok := a.Sessions.CurrentUser(c); ok {
		return c.Redirect(http.StatusSeeOther, "/admin/blog")
	}
	return Render(c, a.Views.Login(a.loginPage(c, "", safeNext(c.QueryParam("next")), "")))
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	email := c.FormValue("email")
	next := safeNext(c.FormValue("next"))
	if !a.loginLimiter.Check(ip) {
		return RenderStatus(c, http.StatusTooManyRequests,
			a.Views.Login(a.loginPage(c, email, next, "Too many sign-in attempts. Try again later.")))
	}

	if _, err := a.Sessions.SignIn(c, email, c.FormValue("password")); err != nil {
		if errors.Is(err, ErrAuth) || errors.Is(err, ErrValidation) {
			a.loginLimiter.Record(ip)
		}
		return RenderStatus(c, StatusFor(err), a.Views.Login(a.loginPage(c, email, next, Message(err))))
	}
	a.loginLimiter.Reset(ip)
	return c.Redirect(http.StatusSeeOther, next)
}

// safeNext keeps post-login redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/admin/blog"
	}
	return next
}

func (a *App) handleLogout(c echo.Context) error {
	a.Sessions.SignOut(c)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) editorFor(c echo.Context) *EditorController {
	return a.editors.For(SessionFrom(c))
}

func (a *App) renderEditor(c echo.Context, code int, ctrl *EditorController) error {
	page := ctrl.Page()
	page.Layout = a.layout(c, PageMeta{Title: "Blog editor | " + a.Config.Name})
	page.SignedIn = true
	return RenderStatus(c, code, a.Views.Editor(page))
}

func (a *App) handleEditor(c echo.Context) error {
	ctrl := a.editorFor(c)
	load := ctrl.Load
	if c.QueryParam("refresh") != "" {
		load = ctrl.Reload
	}
	if err := load(c.Request().Context()); err != nil {
		if c.Request().Context().Err() != nil {
			return err
		}
		return a.renderEditor(c, StatusFor(err), ctrl)
	}
	return a.renderEditor(c, http.StatusOK, ctrl)
}

func (a *App) handleEditorNew(c echo.Context) error {
	ctrl := a.editorFor(c)
	if err := ctrl.Load(c.Request().Context()); err != nil && c.Request().Context().Err() != nil {
		return err
	}
	ctrl.New()
	return a.renderEditor(c, http.StatusOK, ctrl)
}

func (a *App) handleEditorEdit(c echo.Context) error {
	ctx := c.Request().Context()
	ctrl := a.editorFor(c)
	if err := ctrl.Load(ctx); err != nil && ctx.Err() != nil {
		return err
	}
	post, ok := ctrl.Find(c.Param("id"))
	if !ok {
		p, err := a.Repo.GetPostByID(ctx, c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return a.renderNotFound(c)
			}
			return err
		}
		post = p
	}
	ctrl.Edit(post)
	return a.renderEditor(c, http.StatusOK, ctrl)
}

func bindEditorForm(c echo.Context) EditorForm {
	return EditorForm{
		ID:              strings.TrimSpace(c.FormValue("id")),
		Title:           c.FormValue("title"),
		Slug:            c.FormValue("slug"),
		Description:     c.FormValue("description"),
		Content:         c.FormValue("content"),
		MetaTitle:       c.FormValue("meta_title"),
		MetaDescription: c.FormValue("meta_description"),
		Tags:            c.FormValue("tags"),
		FeaturedImage:   c.FormValue("featured_image"),
		Published:       c.FormValue("published") != "",
	}
}

func (a *App) handleEditorSave(c echo.Context) error {
	ctx := c.Request().Context()
	ctrl := a.editorFor(c)
	if _, err := ctrl.Submit(ctx, bindEditorForm(c)); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return a.renderEditor(c, StatusFor(err), ctrl)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/blog")
}

func (a *App) handleEditorDelete(c echo.Context) error {
	ctx := c.Request().Context()
	ctrl := a.editorFor(c)
	if err := ctrl.Delete(ctx, c.Param("id")); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return a.renderEditor(c, StatusFor(err), ctrl)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/blog")
}

func (a *App) handleEditorImageRemove(c echo.Context) error {
	ctx := c.Request().Context()
	ctrl := a.editorFor(c)
	ctrl.SetForm(bindEditorForm(c))
	if err := ctrl.RemoveImage(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return a.renderEditor(c, StatusFor(err), ctrl)
	}
	return a.renderEditor(c, http.StatusOK, ctrl)
}

func (a *App) handleEditorImage(c echo.Context) error {
	ctx := c.Request().Context()
	ctrl := a.editorFor(c)
	ctrl.SetForm(bindEditorForm(c))

	fh, err := c.FormFile("image")
	if err != nil {
		ctrl.fail("Choose an image to upload.")
		return a.renderEditor(c, http.StatusBadRequest, ctrl)
	}
	f, err := fh.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := ctrl.AttachImage(ctx, Upload{Filename: fh.Filename, Body: f, Size: fh.Size}); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return a.renderEditor(c, StatusFor(err), ctrl)
	}
	return a.renderEditor(c, http.StatusOK, ctrl)
}
