package gitpress

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/gitpress/content"
	"github.com/eringen/gitpress/ghcontents"
)

func (a *App) handleAdmin(c echo.Context) error {
	if !IsAdmin(c) {
		return Render(c, a.Views.AdminLogin(a.site(), false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c, c.QueryParam("msg"))
}

func (a *App) handleAdminLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		a.log.Warn().Str("ip", ip).Msg("admin login rate limited")
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	pass := c.FormValue("password")
	if subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1 {
		if err := setAdminSession(c); err != nil {
			return err
		}
		a.log.Info().Str("ip", ip).Msg("admin signed in")
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}
	a.loginLimiter.Record(ip)
	a.log.Warn().Str("ip", ip).Msg("admin login failed")
	return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(a.site(), true, CsrfToken(c)))
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminNew(c echo.Context) error {
	post := content.Post{Date: a.today(), Author: a.Config.Author}
	return Render(c, a.Views.AdminEditor(a.site(), post, true, "", CsrfToken(c)))
}

func (a *App) handleAdminEdit(c echo.Context) error {
	slug := c.Param("slug")
	res := a.Store.GetPost(c.Request().Context(), slug)
	if res.Value == nil {
		if !res.OK() {
			return a.redirectDashboard(c, "Could not load "+slug+". Try again.")
		}
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
	}
	return Render(c, a.Views.AdminEditor(a.site(), *res.Value, false, "", CsrfToken(c)))
}

func (a *App) handleAdminSave(c echo.Context) error {
	if err := c.Request().ParseForm(); err != nil {
		return err
	}
	ctx := c.Request().Context()
	isNew := c.FormValue("is_new") != ""

	post := content.Post{
		Title:   singleLine(c.FormValue("title")),
		Slug:    strings.TrimSpace(c.FormValue("slug")),
		Author:  singleLine(c.FormValue("author")),
		Date:    strings.TrimSpace(c.FormValue("date")),
		Excerpt: singleLine(c.FormValue("excerpt")),
		Content: strings.TrimSpace(c.FormValue("content")),
	}
	if post.Slug == "" {
		post.Slug = Slugify(post.Title)
	}

	editor := func(status int, msg string) error {
		return RenderStatus(c, status, a.Views.AdminEditor(a.site(), post, isNew, msg, CsrfToken(c)))
	}

	if err := post.Validate(); err != nil {
		return editor(http.StatusUnprocessableEntity, err.Error())
	}

	existing := a.Store.GetPost(ctx, post.Slug)
	if !existing.OK() {
		a.log.Warn().Err(existing.Degraded).Str("slug", post.Slug).Msg("admin save: could not read stored post")
		return editor(http.StatusBadGateway, "Could not check the stored version of "+post.Slug+". Try again.")
	}
	if existing.Value != nil {
		if isNew {
			return editor(http.StatusConflict, "A post with the slug "+post.Slug+" already exists.")
		}
		post.Metadata = existing.Value.Metadata
	}

	// New posts are written without a sha so the remote refuses to replace a
	// file that appeared after the check above.
	sha := ""
	if existing.Value != nil {
		sha = existing.Value.SHA
	}
	if _, err := a.Store.SavePostAt(ctx, post.Slug, post.Content, content.PostMetadata(post), sha); err != nil {
		a.log.Error().Err(err).Str("slug", post.Slug).Msg("admin save failed")
		if isNew && errors.Is(err, ghcontents.ErrConflict) {
			return editor(http.StatusConflict, "A post with the slug "+post.Slug+" already exists.")
		}
		return editor(http.StatusBadGateway, "Could not save the post: "+err.Error())
	}

	a.Cache.Invalidate()
	return a.redirectDashboard(c, "Post saved.")
}

func (a *App) handleAdminDelete(c echo.Context) error {
	slug := c.Param("slug")
	if err := a.Store.DeletePost(c.Request().Context(), slug); err != nil {
		a.log.Error().Err(err).Str("slug", slug).Msg("admin delete failed")
		if errors.Is(err, content.ErrNotFound) {
			return a.redirectDashboard(c, "Post "+slug+" no longer exists.")
		}
		return a.redirectDashboard(c, "Could not delete "+slug+". Try again.")
	}
	a.Cache.Invalidate()
	return a.redirectDashboard(c, "Post deleted.")
}

func (a *App) redirectDashboard(c echo.Context, msg string) error {
	return c.Redirect(http.StatusSeeOther, "/admin/?"+url.Values{"msg": {msg}}.Encode())
}

func (a *App) renderAdminDashboard(c echo.Context, msg string) error {
	res := a.Store.ListPosts(c.Request().Context())
	if !res.OK() {
		a.log.Warn().Err(res.Degraded).Msg("admin: degraded listing")
		if msg != "" {
			msg += " "
		}
		msg += "Some posts could not be loaded."
	}
	return Render(c, a.Views.AdminDashboard(a.site(), res.Value, msg, CsrfToken(c)))
}
