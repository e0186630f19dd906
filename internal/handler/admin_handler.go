package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/auth"
	"github.com/landingkit/internal/db"
	"github.com/landingkit/internal/logging"
	"github.com/landingkit/internal/registry"
	"github.com/landingkit/internal/service"
	"go.uber.org/zap"
)

// newPageSlug opens the editor on a blank document.
const newPageSlug = "new"

type pageListItem struct {
	Slug        string
	Title       string
	PublicURL   string
	CheckoutURL string
	UpdatedAt   time.Time
}

type settingsForm struct {
	Slug        string
	Title       string
	CheckoutURL string
	PublicURL   string
}

// ShowLoginPage 渲染登录页面
func (a *API) ShowLoginPage(c *gin.Context) {
	if _, ok := auth.Current(c); ok {
		c.Redirect(http.StatusFound, "/admin")
		return
	}
	a.renderHTML(c, http.StatusOK, "login.html", gin.H{
		"title": "Admin login",
	})
}

// Login 处理表单登录
func (a *API) Login(c *gin.Context) {
	email := c.PostForm("email")
	password := c.PostForm("password")

	user, err := a.users.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		status, message := http.StatusUnauthorized, msgInvalidCredentials
		if !errors.Is(err, service.ErrInvalidCredentials) {
			logging.FromContext(c).Error("authenticate admin", zap.Error(err))
			status, message = http.StatusInternalServerError, "Sign-in failed, please try again"
		}
		a.renderHTML(c, status, "login.html", gin.H{
			"title": "Admin login",
			"email": email,
			"error": message,
		})
		return
	}

	if err := auth.StartSession(c, user.ID, user.Email); err != nil {
		logging.FromContext(c).Error("save session", zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "login.html", gin.H{
			"title": "Admin login",
			"email": email,
			"error": "Failed to save session",
		})
		return
	}

	c.Redirect(http.StatusFound, "/admin")
}

// Logout 处理用户登出
func (a *API) Logout(c *gin.Context) {
	if err := auth.EndSession(c); err != nil {
		logging.FromContext(c).Warn("clear session", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/admin/login")
}

// ShowDashboard 渲染落地页列表
func (a *API) ShowDashboard(c *gin.Context) {
	a.renderDashboard(c, http.StatusOK, gin.H{})
}

func (a *API) renderDashboard(c *gin.Context, status int, data gin.H) {
	pages, err := a.pages.List(c.Request.Context())
	if err != nil {
		logging.FromContext(c).Error("list landing pages", zap.Error(err))
		a.renderHTML(c, http.StatusInternalServerError, "dashboard.html", gin.H{
			"title": "Landing pages",
			"error": "Failed to load landing pages",
		})
		return
	}

	items := make([]pageListItem, 0, len(pages))
	for _, page := range pages {
		item := pageListItem{
			Slug:      page.Slug,
			Title:     page.Title,
			PublicURL: a.resolver.PublicURL(page.Slug),
			UpdatedAt: page.UpdatedAt,
		}
		if page.CheckoutURL != nil {
			item.CheckoutURL = *page.CheckoutURL
		}
		items = append(items, item)
	}

	payload := gin.H{
		"title": "Landing pages",
		"pages": items,
		"now":   time.Now(),
	}
	for key, value := range data {
		payload[key] = value
	}
	a.renderHTML(c, status, "dashboard.html", payload)
}

// CreatePageFromForm creates a page from the dashboard form with a blank document and opens
// it in the editor.
func (a *API) CreatePageFromForm(c *gin.Context) {
	title := strings.TrimSpace(c.PostForm("title"))
	slug := strings.TrimSpace(c.PostForm("slug"))
	if slug == "" {
		slug = service.FormatSlug(title)
	}

	doc, err := json.Marshal(a.pages.Registry().NewDocument())
	if err != nil {
		logging.FromContext(c).Error("encode blank document", zap.Error(err))
		a.renderDashboard(c, http.StatusInternalServerError, gin.H{"error": "Failed to create landing page"})
		return
	}

	page, err := a.pages.Create(c.Request.Context(), service.CreateLandingPageInput{
		Slug:  slug,
		Title: title,
		Data:  doc,
	})
	if err != nil {
		status, message := formErrorStatus(err)
		if status == http.StatusInternalServerError {
			logging.FromContext(c).Error("create landing page", zap.Error(err))
		}
		a.renderDashboard(c, status, gin.H{
			"error":     message,
			"formTitle": title,
			"formSlug":  slug,
		})
		return
	}

	a.metrics.ObserveMutation("create")
	c.Redirect(http.StatusSeeOther, "/admin/editor/"+url.PathEscape(page.Slug))
}

// ShowEditor renders the editor shell. The bundle under /assets mounts on #editor and reads
// the document and endpoints from its data attributes.
func (a *API) ShowEditor(c *gin.Context) {
	slug := c.Param("slug")
	reg := a.pages.Registry()

	title := "New landing page"
	var doc registry.Document
	var page *db.LandingPage
	if slug == newPageSlug {
		doc = reg.NewDocument()
	} else {
		var err error
		page, err = a.pages.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			if errors.Is(err, service.ErrLandingPageNotFound) {
				a.writeNotFound(c)
				return
			}
			logging.FromContext(c).Error("load landing page", zap.Error(err))
			c.String(http.StatusInternalServerError, "Internal Server Error")
			return
		}
		if doc, err = a.pages.Document(page); err != nil {
			logging.FromContext(c).Warn("stored document unreadable, starting blank", zap.Error(err), zap.String("slug", slug))
			doc = reg.NewDocument()
		}
		title = page.Title
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		logging.FromContext(c).Error("encode document", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return
	}

	data := gin.H{
		"title":    title,
		"isNew":    page == nil,
		"document": string(encoded),
		"saveURL":  "/api/landing-pages",
	}
	if page != nil {
		data["slug"] = page.Slug
		data["saveURL"] = "/api/landing-pages/" + url.PathEscape(page.Slug)
		data["publicURL"] = a.resolver.PublicURL(page.Slug)
	}
	a.renderHTML(c, http.StatusOK, "editor.html", data)
}

// ShowSettings renders the title/slug/checkout form for one page.
func (a *API) ShowSettings(c *gin.Context) {
	page, ok := a.loadPageForAdmin(c)
	if !ok {
		return
	}

	a.renderHTML(c, http.StatusOK, "settings.html", gin.H{
		"title": page.Title + " settings",
		"page":  a.settingsForm(page),
		"saved": c.Query("saved") == "1",
	})
}

// UpdateSettings saves the settings form. A slug change redirects to the renamed page.
func (a *API) UpdateSettings(c *gin.Context) {
	slug := c.Param("slug")
	title := c.PostForm("title")
	newSlug := c.PostForm("slug")
	checkout := c.PostForm("checkoutUrl")

	page, err := a.pages.Update(c.Request.Context(), slug, service.UpdateLandingPageInput{
		Slug:        &newSlug,
		Title:       &title,
		CheckoutURL: &checkout,
	})
	if err != nil {
		if errors.Is(err, service.ErrLandingPageNotFound) {
			a.writeNotFound(c)
			return
		}
		status, message := formErrorStatus(err)
		if status == http.StatusInternalServerError {
			logging.FromContext(c).Error("update landing page settings", zap.Error(err))
		}
		a.renderHTML(c, status, "settings.html", gin.H{
			"title": "Settings",
			"page": settingsForm{
				Slug:        newSlug,
				Title:       title,
				CheckoutURL: checkout,
				PublicURL:   a.resolver.PublicURL(slug),
			},
			"originalSlug": slug,
			"error":        message,
		})
		return
	}

	a.cache.Invalidate(c.Request.Context(), slug, page.Slug)
	a.metrics.ObserveMutation("update")
	c.Redirect(http.StatusSeeOther, "/admin/settings/"+url.PathEscape(page.Slug)+"?saved=1")
}

// DeletePage removes a page from the settings screen.
func (a *API) DeletePage(c *gin.Context) {
	slug := c.Param("slug")
	if err := a.pages.Delete(c.Request.Context(), slug); err != nil {
		if errors.Is(err, service.ErrLandingPageNotFound) {
			a.writeNotFound(c)
			return
		}
		logging.FromContext(c).Error("delete landing page", zap.Error(err))
		a.renderDashboard(c, http.StatusInternalServerError, gin.H{"error": "Failed to delete landing page"})
		return
	}

	a.cache.Invalidate(c.Request.Context(), slug)
	a.metrics.ObserveMutation("delete")
	c.Redirect(http.StatusSeeOther, "/admin")
}

func (a *API) loadPageForAdmin(c *gin.Context) (*db.LandingPage, bool) {
	page, err := a.pages.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrLandingPageNotFound) {
			a.writeNotFound(c)
			return nil, false
		}
		logging.FromContext(c).Error("load landing page", zap.Error(err))
		c.String(http.StatusInternalServerError, "Internal Server Error")
		return nil, false
	}
	return page, true
}

func (a *API) settingsForm(page *db.LandingPage) settingsForm {
	form := settingsForm{
		Slug:      page.Slug,
		Title:     page.Title,
		PublicURL: a.resolver.PublicURL(page.Slug),
	}
	if page.CheckoutURL != nil {
		form.CheckoutURL = *page.CheckoutURL
	}
	return form
}

// formErrorStatus maps service errors to the status and message shown on admin forms.
func formErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrSlugConflict):
		return http.StatusConflict, msgSlugConflict
	case errors.Is(err, service.ErrMissingFields), errors.Is(err, service.ErrTitleRequired):
		return http.StatusBadRequest, "Title and slug are required"
	case errors.Is(err, service.ErrInvalidSlug):
		return http.StatusBadRequest, msgInvalidSlug
	case errors.Is(err, service.ErrReservedSlug):
		return http.StatusBadRequest, msgReservedSlug
	case errors.Is(err, service.ErrInvalidDocument):
		return http.StatusBadRequest, msgInvalidDocument
	default:
		return http.StatusInternalServerError, "Something went wrong, please try again"
	}
}
