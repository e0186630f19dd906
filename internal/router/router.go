package router

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/auth"
	"github.com/landingkit/internal/handler"
	"github.com/landingkit/internal/logging"
	"github.com/landingkit/internal/metrics"
	"github.com/landingkit/internal/tenant"
	"go.uber.org/zap"
)

// Options 汇总构建路由所需的依赖。
type Options struct {
	API           *handler.API
	Logger        *zap.Logger
	Metrics       *metrics.Metrics
	Resolver      tenant.Resolver
	SessionSecret string
	SecureCookies bool
	// Verifier accepts identity-provider bearer tokens; nil allows session cookies only.
	Verifier *auth.Verifier
	// Users confirms session admins still exist.
	Users auth.UserLookup

	// UploadDir is served at UploadURLPath when assets are stored locally.
	UploadDir       string
	UploadURLPath   string
	EditorAssetsDir string
	LoginRateLimit  int
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(opts Options) (*gin.Engine, error) {
	if opts.API == nil {
		return nil, errors.New("router: handler API is required")
	}
	if strings.TrimSpace(opts.SessionSecret) == "" {
		return nil, errors.New("router: session secret is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	api := opts.API

	r := gin.New()
	r.Use(logging.Recovery(logger), logging.RequestLogger(logger))
	r.Use(opts.Metrics.Middleware())

	// 配置会话中间件
	r.Use(auth.Sessions(auth.NewSessionStore(opts.SessionSecret, opts.SecureCookies)))
	r.Use(auth.NewAuthenticator(opts.Verifier, opts.Users).Identify())

	tmpl, err := handler.ParseTemplates(template.FuncMap{
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.In(time.Local).Format("2006-01-02 15:04")
		},
		"relativeTime": func(t time.Time) string {
			return formatRelativeTime(time.Now(), t)
		},
	})
	if err != nil {
		return nil, err
	}
	r.SetHTMLTemplate(tmpl)

	// 静态文件服务
	if opts.UploadDir != "" {
		r.Static(uploadPath(opts.UploadURLPath), opts.UploadDir)
	}
	if opts.EditorAssetsDir != "" {
		r.Static("/assets", opts.EditorAssetsDir)
	}

	r.GET("/healthz", api.HealthCheck)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}
	r.GET("/", api.ShowHome)

	loginLimit := auth.LoginRateLimit(opts.LoginRateLimit, time.Minute)

	// 后台管理路由
	admin := r.Group("/admin")
	{
		admin.GET("/login", api.ShowLoginPage)
		admin.POST("/login", loginLimit, api.Login)
		admin.GET("/logout", api.Logout)

		// 需要认证的后台路由
		protected := admin.Group("")
		protected.Use(auth.RequireAdmin())
		{
			protected.GET("", api.ShowDashboard)
			protected.POST("/pages", api.CreatePageFromForm)
			protected.GET("/editor/:slug", api.ShowEditor)
			protected.GET("/settings/:slug", api.ShowSettings)
			protected.POST("/settings/:slug", api.UpdateSettings)
			protected.POST("/settings/:slug/delete", api.DeletePage)
		}
	}

	// JSON API
	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/auth/login", loginLimit, api.APILogin)
		apiGroup.POST("/auth/logout", api.APILogout)

		secured := apiGroup.Group("")
		secured.Use(auth.RequireAPI())
		{
			secured.GET("/auth/me", api.CurrentUser)
			secured.GET("/components", api.ListComponents)
			secured.POST("/uploads", api.UploadAsset)

			secured.GET("/landing-pages", api.ListLandingPages)
			secured.POST("/landing-pages", api.CreateLandingPage)
			secured.GET("/landing-pages/:slug", api.GetLandingPage)
			secured.PUT("/landing-pages/:slug", api.UpdateLandingPage)
			secured.DELETE("/landing-pages/:slug", api.DeleteLandingPage)
		}
	}

	// 公开落地页：第一个路径段即 slug
	r.GET("/:slug", api.ShowLandingPage)
	r.GET("/:slug/*rest", api.ShowLandingPage)
	r.NoRoute(api.NotFound)

	return r, nil
}

// Handler wraps the engine with the subdomain rewrite so <slug>.<domain> requests reach the
// public page routes.
func Handler(opts Options) (http.Handler, error) {
	engine, err := SetupRouter(opts)
	if err != nil {
		return nil, err
	}

	var extraExempt []string
	if opts.UploadDir != "" {
		extraExempt = append(extraExempt, uploadPath(opts.UploadURLPath))
	}
	return tenant.Rewrite(opts.Resolver, extraExempt...)(engine), nil
}

func uploadPath(path string) string {
	path = "/" + strings.Trim(strings.TrimSpace(path), "/")
	if path == "/" {
		return "/static/uploads"
	}
	return path
}

// formatRelativeTime renders t relative to now for the admin page list.
func formatRelativeTime(now, t time.Time) string {
	if t.IsZero() {
		return ""
	}

	diff := now.Sub(t)
	if diff < time.Minute {
		return "just now"
	}

	switch {
	case diff < time.Hour:
		return plural(int(diff/time.Minute), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff/time.Hour), "hour")
	case diff < 30*24*time.Hour:
		return plural(int(diff/(24*time.Hour)), "day")
	case diff < 365*24*time.Hour:
		return plural(int(diff/(30*24*time.Hour)), "month")
	default:
		return plural(int(diff/(365*24*time.Hour)), "year")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
