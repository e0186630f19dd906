package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/landingkit/internal/auth"
	"github.com/landingkit/internal/cache"
	"github.com/landingkit/internal/db"
	"github.com/landingkit/internal/handler"
	"github.com/landingkit/internal/metrics"
	"github.com/landingkit/internal/registry"
	"github.com/landingkit/internal/render"
	"github.com/landingkit/internal/router"
	"github.com/landingkit/internal/service"
	"github.com/landingkit/internal/storage"
	"github.com/landingkit/internal/tenant"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct-horse"
	testTokenSecret   = "identity-provider-secret"
)

type testEnv struct {
	handler http.Handler
	db      *gorm.DB
	pages   *service.LandingPageService
	redis   *miniredis.Miniredis
	metrics *metrics.Metrics
	client  *testClient
}

type envOptions struct {
	maxUploadBytes int64
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})

	users := service.NewUserService(gdb)
	if _, err := users.CreateAdmin(context.Background(), testAdminEmail, testAdminPassword); err != nil {
		t.Fatalf("failed to seed admin: %v", err)
	}

	reg := registry.MustLoad()
	renderer, err := render.New(reg, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to build renderer: %v", err)
	}

	uploadDir := t.TempDir()
	store, err := storage.NewLocalStore(uploadDir, "/static/uploads")
	if err != nil {
		t.Fatalf("failed to build local store: %v", err)
	}

	mr := miniredis.RunT(t)
	pageCache, err := cache.NewRedisCache(context.Background(), cache.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() { pageCache.Close() })

	m := metrics.New()
	pages := service.NewLandingPageService(gdb, reg)
	resolver := tenant.NewResolver("example.com", "").WithReserved(service.IsReservedSlug)

	api, err := handler.NewAPI(handler.Dependencies{
		DB:       gdb,
		Pages:    pages,
		Users:    users,
		Assets:   service.NewAssetService(store, opts.maxUploadBytes),
		Renderer: renderer,
		Cache:    pageCache,
		Metrics:  m,
		Resolver: resolver,
	})
	if err != nil {
		t.Fatalf("failed to build api: %v", err)
	}

	h, err := router.Handler(router.Options{
		API:            api,
		Metrics:        m,
		Resolver:       resolver,
		SessionSecret:  "test-secret",
		Verifier:       auth.NewVerifier(testTokenSecret, ""),
		Users:          users,
		UploadDir:      uploadDir,
		UploadURLPath:  "/static/uploads",
		LoginRateLimit: 1000,
	})
	if err != nil {
		t.Fatalf("failed to build router: %v", err)
	}

	return &testEnv{
		handler: h,
		db:      gdb,
		pages:   pages,
		redis:   mr,
		metrics: m,
		client:  newTestClient(t, h),
	}
}

// testClient keeps cookies between requests like a browser.
type testClient struct {
	t       *testing.T
	handler http.Handler
	jar     http.CookieJar
}

func newTestClient(t *testing.T, h http.Handler) *testClient {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testClient{t: t, handler: h, jar: jar}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	// httptest.NewRequest leaves the URL relative; the jar only tracks absolute URLs.
	if req.URL.Host == "" {
		req.URL.Scheme = "http"
		req.URL.Host = req.Host
	}
	for _, cookie := range c.jar.Cookies(req.URL) {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)
	c.jar.SetCookies(req.URL, w.Result().Cookies())
	return w
}

func (c *testClient) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *testClient) json(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			c.t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *testClient) form(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *testClient) upload(path, field, filename string, data []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		c.t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		c.t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		c.t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return c.do(req)
}

func (c *testClient) login() {
	c.t.Helper()
	w := c.json(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    testAdminEmail,
		"password": testAdminPassword,
	})
	if w.Code != http.StatusOK {
		c.t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

type pageResponse struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Data        json.RawMessage `json:"data"`
	CheckoutURL *string         `json:"checkoutUrl"`
	PublicURL   string          `json:"publicUrl"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

const heroDocument = `{"content":[{"type":"Hero","props":{"id":"Hero-1","title":"Big Launch","ctaText":"Buy now","ctaUrl":"#checkout"}}],"root":{"props":{}}}`

func (e *testEnv) createPage(t *testing.T, slug, title string) pageResponse {
	t.Helper()
	w := e.client.json(http.MethodPost, "/api/landing-pages", map[string]any{
		"slug":  slug,
		"title": title,
		"data":  json.RawMessage(heroDocument),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create page: %d %s", w.Code, w.Body.String())
	}
	return decodeJSON[pageResponse](t, w)
}

func counterValue(t *testing.T, m *metrics.Metrics, name, label, value string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if hasLabel(metric, label, value) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabel(metric *dto.Metric, name, value string) bool {
	for _, pair := range metric.GetLabel() {
		if pair.GetName() == name && pair.GetValue() == value {
			return true
		}
	}
	return false
}

func pngBytes(t *testing.T, w, h int, noisy bool) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	rng := rand.New(rand.NewSource(1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: 200, G: 80, B: 40, A: 255}
			if noisy {
				c = color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255}
			}
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}
