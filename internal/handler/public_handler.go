package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/logging"
	"github.com/landingkit/internal/metrics"
	"github.com/landingkit/internal/render"
	"github.com/landingkit/internal/service"
	"go.uber.org/zap"
)

const htmlContentType = "text/html; charset=utf-8"

// ShowHome renders the public home page.
func (a *API) ShowHome(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"title": a.siteName,
	})
}

// ShowLandingPage renders the page named by the first path segment. Subdomain requests
// arrive here after the host rewrite, so /<slug>/anything renders the same page.
func (a *API) ShowLandingPage(c *gin.Context) {
	ctx := c.Request.Context()
	slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
	if service.ValidateSlug(slug) != nil {
		a.NotFound(c)
		return
	}

	if html, ok := a.cache.Get(ctx, slug); ok {
		a.metrics.ObserveCache(true)
		a.metrics.ObserveRender(metrics.RenderCached)
		c.Header("X-Cache", "HIT")
		c.Data(http.StatusOK, htmlContentType, html)
		return
	}
	a.metrics.ObserveCache(false)

	page, err := a.pages.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, service.ErrLandingPageNotFound) {
			a.renderNotFound(c)
			return
		}
		a.renderFailure(c, "load landing page", err)
		return
	}

	doc, err := a.pages.Document(page)
	if err != nil {
		a.renderFailure(c, "decode landing page", err)
		return
	}

	checkout := ""
	if page.CheckoutURL != nil {
		checkout = *page.CheckoutURL
	}
	out, err := a.renderer.Render(render.PageView{
		Title:       page.Title,
		CheckoutURL: checkout,
		Document:    doc,
	})
	if err != nil {
		a.renderFailure(c, "render landing page", err)
		return
	}

	a.cache.Set(ctx, slug, out)
	a.metrics.ObserveRender(metrics.RenderOK)
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, htmlContentType, out)
}

// NotFound answers unmatched routes: JSON under /api, the not-found page elsewhere.
func (a *API) NotFound(c *gin.Context) {
	if path := c.Request.URL.Path; path == "/api" || strings.HasPrefix(path, "/api/") {
		respondError(c, http.StatusNotFound, "Not found")
		return
	}
	a.writeNotFound(c)
}

func (a *API) renderNotFound(c *gin.Context) {
	a.metrics.ObserveRender(metrics.RenderNotFound)
	a.writeNotFound(c)
}

func (a *API) writeNotFound(c *gin.Context) {
	out, err := a.renderer.RenderNotFound()
	if err != nil {
		logging.FromContext(c).Error("render not found page", zap.Error(err))
		c.String(http.StatusNotFound, "Not Found")
		return
	}
	c.Data(http.StatusNotFound, htmlContentType, out)
}

func (a *API) renderFailure(c *gin.Context, message string, err error) {
	a.metrics.ObserveRender(metrics.RenderError)
	logging.FromContext(c).Error(message, zap.Error(err), zap.String("slug", c.Param("slug")))
	_ = c.Error(err)
	c.String(http.StatusInternalServerError, "Internal Server Error")
}
