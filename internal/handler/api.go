package handler

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/auth"
	"github.com/landingkit/internal/cache"
	"github.com/landingkit/internal/metrics"
	"github.com/landingkit/internal/render"
	"github.com/landingkit/internal/service"
	"github.com/landingkit/internal/tenant"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed templates/*.html
var templateFS embed.FS

// Dependencies are the collaborators shared by every handler.
type Dependencies struct {
	DB       *gorm.DB
	Pages    *service.LandingPageService
	Users    *service.UserService
	Assets   *service.AssetService
	Renderer *render.Renderer
	Cache    cache.PageCache
	Metrics  *metrics.Metrics
	Resolver tenant.Resolver
	Logger   *zap.Logger
	SiteName string
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db       *gorm.DB
	pages    *service.LandingPageService
	users    *service.UserService
	assets   *service.AssetService
	renderer *render.Renderer
	cache    cache.PageCache
	metrics  *metrics.Metrics
	resolver tenant.Resolver
	logger   *zap.Logger
	siteName string
}

// NewAPI constructs a handler set with shared services.
func NewAPI(deps Dependencies) (*API, error) {
	if deps.DB == nil || deps.Pages == nil || deps.Renderer == nil {
		return nil, errors.New("handler: database, page service and renderer are required")
	}

	api := &API{
		db:       deps.DB,
		pages:    deps.Pages,
		users:    deps.Users,
		assets:   deps.Assets,
		renderer: deps.Renderer,
		cache:    deps.Cache,
		metrics:  deps.Metrics,
		resolver: deps.Resolver,
		logger:   deps.Logger,
		siteName: deps.SiteName,
	}
	if api.users == nil {
		api.users = service.NewUserService(deps.DB)
	}
	if api.cache == nil {
		api.cache = cache.Noop{}
	}
	if api.logger == nil {
		api.logger = zap.NewNop()
	}
	if api.siteName == "" {
		api.siteName = "Landingkit"
	}
	return api, nil
}

// ParseTemplates parses the admin and home page templates for gin's HTML renderer.
func ParseTemplates(funcs template.FuncMap) (*template.Template, error) {
	tmpl, err := template.New("admin").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse admin templates: %w", err)
	}
	return tmpl, nil
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["siteName"]; !exists {
		payload["siteName"] = a.siteName
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = time.Now().Year()
	}
	if _, exists := payload["identity"]; !exists {
		if identity, ok := auth.Current(c); ok {
			payload["identity"] = identity
		}
	}

	c.HTML(status, template, payload)
}
