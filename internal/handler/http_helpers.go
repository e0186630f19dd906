package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/db"
	"github.com/landingkit/internal/logging"
	"go.uber.org/zap"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// internalError logs err with the request logger and answers with a generic message.
func internalError(c *gin.Context, message string, err error) {
	logging.FromContext(c).Error(message, zap.Error(err))
	_ = c.Error(err)
	respondError(c, http.StatusInternalServerError, message)
}

type landingPagePayload struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Data        json.RawMessage `json:"data"`
	CheckoutURL *string         `json:"checkoutUrl"`
	PublicURL   string          `json:"publicUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (a *API) landingPagePayload(page *db.LandingPage) landingPagePayload {
	data := json.RawMessage(page.Data)
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	return landingPagePayload{
		ID:          page.ID,
		Slug:        page.Slug,
		Title:       page.Title,
		Data:        data,
		CheckoutURL: page.CheckoutURL,
		PublicURL:   a.resolver.PublicURL(page.Slug),
		CreatedAt:   page.CreatedAt,
		UpdatedAt:   page.UpdatedAt,
	}
}
