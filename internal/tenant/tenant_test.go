package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubdomain(t *testing.T) {
	prod := NewResolver("Example.com.", "")
	local := NewResolver("", "3000")

	tests := []struct {
		name     string
		resolver Resolver
		host     string
		want     string
		ok       bool
	}{
		{name: "root domain", resolver: prod, host: "example.com", ok: false},
		{name: "www", resolver: prod, host: "www.example.com", ok: false},
		{name: "slug", resolver: prod, host: "promo.example.com", want: "promo", ok: true},
		{name: "slug with port", resolver: prod, host: "Promo.Example.com:443", want: "promo", ok: true},
		{name: "nested takes first label", resolver: prod, host: "a.b.example.com", want: "a", ok: true},
		{name: "foreign host", resolver: prod, host: "promo.other.org", ok: false},
		{name: "bare localhost", resolver: prod, host: "localhost:8080", ok: false},
		{name: "local slug", resolver: local, host: "promo.localhost:3000", want: "promo", ok: true},
		{name: "local slug with root set", resolver: prod, host: "promo.localhost", want: "promo", ok: true},
		{name: "ipv4", resolver: local, host: "127.0.0.1:8080", ok: false},
		{name: "ipv6", resolver: local, host: "[::1]:8080", ok: false},
		{name: "single label", resolver: local, host: "intranet", ok: false},
		{name: "no root dotted host", resolver: local, host: "promo.example.net", want: "promo", ok: true},
		{name: "empty", resolver: local, host: "", ok: false},
		{name: "admin label", resolver: prod, host: "admin.example.com", ok: false},
		{name: "api label local", resolver: local, host: "api.localhost:3000", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.resolver.Subdomain(tt.host)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSubdomainCustomReserved(t *testing.T) {
	resolver := NewResolver("example.com", "").WithReserved(func(label string) bool { return label == "new" })

	_, ok := resolver.Subdomain("new.example.com")
	assert.False(t, ok)

	got, ok := resolver.Subdomain("admin.example.com")
	assert.True(t, ok)
	assert.Equal(t, "admin", got)
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://promo.example.com", NewResolver("example.com", "8080").PublicURL("promo"))
	assert.Equal(t, "http://promo.localhost:3000", NewResolver("", ":3000").PublicURL("promo"))
	assert.Equal(t, "http://promo.localhost:8080", NewResolver("", "").PublicURL("promo"))
}

func TestRewrite(t *testing.T) {
	var (
		seenPath   string
		seenOrigin Origin
		hasOrigin  bool
	)
	handler := Rewrite(NewResolver("example.com", ""), "/uploads")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenPath = r.URL.Path
		seenOrigin, hasOrigin = FromContext(r.Context())
	}))

	tests := []struct {
		host     string
		path     string
		want     string
		rewrites bool
	}{
		{host: "promo.example.com", path: "/", want: "/promo", rewrites: true},
		{host: "promo.example.com", path: "/thanks", want: "/promo/thanks", rewrites: true},
		{host: "promo.example.com", path: "/admin/editor/promo", want: "/admin/editor/promo"},
		{host: "promo.example.com", path: "/api/landing-pages", want: "/api/landing-pages"},
		{host: "promo.example.com", path: "/uploads/a.png", want: "/uploads/a.png"},
		{host: "promo.example.com", path: "/administrator", want: "/promo/administrator", rewrites: true},
		{host: "example.com", path: "/promo", want: "/promo"},
		{host: "www.example.com", path: "/", want: "/"},
		{host: "localhost:8080", path: "/promo", want: "/promo"},
	}

	for _, tt := range tests {
		t.Run(tt.host+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Host = tt.host
			handler.ServeHTTP(httptest.NewRecorder(), req)

			assert.Equal(t, tt.want, seenPath)
			require.Equal(t, tt.rewrites, hasOrigin)
			if tt.rewrites {
				assert.Equal(t, tt.path, seenOrigin.Path)
				assert.Equal(t, tt.host, seenOrigin.Host)
				assert.Equal(t, "promo", seenOrigin.Subdomain)
			}
		})
	}
}
