package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/service"
)

const (
	msgMissingFields   = "Missing required fields: slug, title, data"
	msgPageNotFound    = "Landing page not found"
	msgSlugConflict    = "A landing page with this slug already exists"
	msgInvalidBody     = "Invalid request body"
	msgPageDeleted     = "Landing page deleted successfully"
	msgTitleRequired   = "Title is required"
	msgInvalidSlug     = "Slug must be 1-63 lowercase letters, digits or dashes"
	msgReservedSlug    = "This slug is reserved"
	msgInvalidDocument = "Invalid page data"
)

type createLandingPageRequest struct {
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Data        json.RawMessage `json:"data"`
	CheckoutURL *string         `json:"checkoutUrl"`
}

type updateLandingPageRequest struct {
	Slug        *string         `json:"slug"`
	Title       *string         `json:"title"`
	Data        json.RawMessage `json:"data"`
	CheckoutURL optionalString  `json:"checkoutUrl"`
}

// optionalString tells an absent field apart from an explicit null.
type optionalString struct {
	Set   bool
	Value *string
}

func (o *optionalString) UnmarshalJSON(raw []byte) error {
	o.Set = true
	if string(raw) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(raw, &o.Value)
}

// Patch maps the field onto an update: nil leaves it alone, null clears it.
func (o optionalString) Patch() *string {
	if !o.Set {
		return nil
	}
	if o.Value == nil {
		empty := ""
		return &empty
	}
	return o.Value
}

// ListLandingPages returns every page, most recently updated first.
func (a *API) ListLandingPages(c *gin.Context) {
	pages, err := a.pages.List(c.Request.Context())
	if err != nil {
		internalError(c, "Failed to fetch landing pages", err)
		return
	}

	payload := make([]landingPagePayload, 0, len(pages))
	for i := range pages {
		payload = append(payload, a.landingPagePayload(&pages[i]))
	}
	c.JSON(http.StatusOK, payload)
}

// GetLandingPage returns one page by slug.
func (a *API) GetLandingPage(c *gin.Context) {
	page, err := a.pages.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrLandingPageNotFound) {
			respondError(c, http.StatusNotFound, msgPageNotFound)
			return
		}
		internalError(c, "Failed to fetch landing page", err)
		return
	}
	c.JSON(http.StatusOK, a.landingPagePayload(page))
}

// CreateLandingPage stores a page published from the editor.
func (a *API) CreateLandingPage(c *gin.Context) {
	var req createLandingPageRequest
	if !bindJSON(c, &req, msgInvalidBody) {
		return
	}

	page, err := a.pages.Create(c.Request.Context(), service.CreateLandingPageInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Data:        req.Data,
		CheckoutURL: req.CheckoutURL,
	})
	if err != nil {
		a.respondPageError(c, err, "Failed to create landing page")
		return
	}

	a.metrics.ObserveMutation("create")
	c.JSON(http.StatusCreated, a.landingPagePayload(page))
}

// UpdateLandingPage applies a partial update. Renames are allowed; the cached render of both
// the old and the new slug is dropped.
func (a *API) UpdateLandingPage(c *gin.Context) {
	var req updateLandingPageRequest
	if !bindJSON(c, &req, msgInvalidBody) {
		return
	}

	slug := c.Param("slug")
	page, err := a.pages.Update(c.Request.Context(), slug, service.UpdateLandingPageInput{
		Slug:        req.Slug,
		Title:       req.Title,
		Data:        req.Data,
		CheckoutURL: req.CheckoutURL.Patch(),
	})
	if err != nil {
		a.respondPageError(c, err, "Failed to update landing page")
		return
	}

	a.cache.Invalidate(c.Request.Context(), slug, page.Slug)
	a.metrics.ObserveMutation("update")
	c.JSON(http.StatusOK, a.landingPagePayload(page))
}

// DeleteLandingPage removes a page permanently.
func (a *API) DeleteLandingPage(c *gin.Context) {
	slug := c.Param("slug")
	if err := a.pages.Delete(c.Request.Context(), slug); err != nil {
		a.respondPageError(c, err, "Failed to delete landing page")
		return
	}

	a.cache.Invalidate(c.Request.Context(), slug)
	a.metrics.ObserveMutation("delete")
	c.JSON(http.StatusOK, gin.H{"message": msgPageDeleted})
}

// ListComponents serves the component registry to the editor bundle.
func (a *API) ListComponents(c *gin.Context) {
	c.JSON(http.StatusOK, a.pages.Registry().Schema())
}

func (a *API) respondPageError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrLandingPageNotFound):
		respondError(c, http.StatusNotFound, msgPageNotFound)
	case errors.Is(err, service.ErrSlugConflict):
		respondError(c, http.StatusConflict, msgSlugConflict)
	case errors.Is(err, service.ErrMissingFields):
		respondError(c, http.StatusBadRequest, msgMissingFields)
	case errors.Is(err, service.ErrTitleRequired):
		respondError(c, http.StatusBadRequest, msgTitleRequired)
	case errors.Is(err, service.ErrInvalidSlug):
		respondError(c, http.StatusBadRequest, msgInvalidSlug)
	case errors.Is(err, service.ErrReservedSlug):
		respondError(c, http.StatusBadRequest, msgReservedSlug)
	case errors.Is(err, service.ErrInvalidDocument):
		c.JSON(http.StatusBadRequest, gin.H{"error": msgInvalidDocument, "details": err.Error()})
	default:
		internalError(c, fallback, err)
	}
}
