package gitpress

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

func (a *App) handleHome(c echo.Context) error {
	res := a.Cache.ListPosts(c.Request().Context())
	if !res.OK() {
		a.log.Warn().Err(res.Degraded).Msg("home: serving degraded listing")
	}
	return Render(c, a.Views.Home(a.site(), res.Value))
}

func (a *App) handlePost(c echo.Context) error {
	slug := c.Param("slug")
	res := a.Cache.GetPost(c.Request().Context(), slug)
	if res.Value == nil {
		if !res.OK() {
			a.log.Warn().Err(res.Degraded).Str("slug", slug).Msg("post: read failed")
		}
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
	}
	return Render(c, a.Views.Post(a.site(), *res.Value))
}

func (a *App) handleSitemap(c echo.Context) error {
	res := a.Cache.ListPosts(c.Request().Context())
	if !res.OK() {
		a.log.Warn().Err(res.Degraded).Msg("sitemap: serving degraded listing")
	}
	return a.renderSitemap(c, res.Value)
}

func (a *App) handleFeed(c echo.Context) error {
	res := a.Cache.ListPosts(c.Request().Context())
	if !res.OK() {
		a.log.Warn().Err(res.Degraded).Msg("feed: serving degraded listing")
	}
	return a.renderRSS(c, res.Value)
}

func handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func (a *App) handleFavicon(c echo.Context) error {
	return c.File(a.staticDir + "/favicon.svg")
}

func (a *App) handleRobots(c echo.Context) error {
	return c.File(a.staticDir + "/robots.txt")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound(a.site()))
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		a.log.Error().Err(err).Str("uri", c.Request().RequestURI).Msg("server error")
		_ = RenderStatus(c, code, a.Views.ServerError(a.site()))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
