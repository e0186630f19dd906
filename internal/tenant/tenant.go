// Package tenant maps landing page subdomains onto slug paths.
package tenant

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// Resolver extracts landing page slugs from request hosts.
type Resolver struct {
	// RootDomain is the apex pages live under, e.g. "example.com". Empty means local development.
	RootDomain string
	// LocalPort is used for local public URLs when RootDomain is empty.
	LocalPort string
	// Reserved reports labels that are never slugs. Nil falls back to the exempt path names.
	Reserved func(label string) bool
}

// NewResolver normalises rootDomain and port.
func NewResolver(rootDomain, localPort string) Resolver {
	return Resolver{
		RootDomain: strings.Trim(strings.ToLower(strings.TrimSpace(rootDomain)), "."),
		LocalPort:  strings.TrimPrefix(strings.TrimSpace(localPort), ":"),
	}
}

// WithReserved returns a copy of r that refuses the labels reserved reports.
func (r Resolver) WithReserved(reserved func(label string) bool) Resolver {
	r.Reserved = reserved
	return r
}

func (r Resolver) isReserved(label string) bool {
	if r.Reserved != nil {
		return r.Reserved(label)
	}
	for _, path := range DefaultExemptPaths {
		if strings.Trim(path, "/") == label {
			return true
		}
	}
	return false
}

// Subdomain returns the slug addressed by host, if any. A bare localhost, the root domain,
// www, IP addresses and single-label hosts carry no slug. <slug>.localhost does.
func (r Resolver) Subdomain(host string) (string, bool) {
	hostname := normalizeHost(host)
	if hostname == "" || hostname == "localhost" || net.ParseIP(hostname) != nil {
		return "", false
	}

	var prefix string
	switch {
	case strings.HasSuffix(hostname, ".localhost"):
		prefix = strings.TrimSuffix(hostname, ".localhost")
	case r.RootDomain != "":
		if hostname == r.RootDomain || !strings.HasSuffix(hostname, "."+r.RootDomain) {
			return "", false
		}
		prefix = strings.TrimSuffix(hostname, "."+r.RootDomain)
	default:
		if !strings.Contains(hostname, ".") {
			return "", false
		}
		prefix = hostname
	}

	sub, _, _ := strings.Cut(prefix, ".")
	if sub == "" || sub == "www" || r.isReserved(sub) {
		return "", false
	}
	return sub, true
}

// PublicURL builds the address visitors use for a page.
func (r Resolver) PublicURL(slug string) string {
	if r.RootDomain != "" {
		return "https://" + slug + "." + r.RootDomain
	}
	port := r.LocalPort
	if port == "" {
		port = "8080"
	}
	return "http://" + slug + ".localhost:" + port
}

func normalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimPrefix(strings.TrimSuffix(host, "]"), "[")
	return strings.TrimSuffix(host, ".")
}

// Origin records the request as the browser sent it, before any rewrite.
type Origin struct {
	Host      string
	Path      string
	Subdomain string
}

type originKey struct{}

// FromContext returns the Origin stored by Rewrite.
func FromContext(ctx context.Context) (Origin, bool) {
	origin, ok := ctx.Value(originKey{}).(Origin)
	return origin, ok
}

// DefaultExemptPaths are never rewritten; they serve the admin app and shared assets on every host.
var DefaultExemptPaths = []string{
	"/admin",
	"/api",
	"/static",
	"/assets",
	"/metrics",
	"/healthz",
	"/favicon.ico",
}

// Rewrite turns <slug>.<domain>/x into /<slug>/x before routing. Extra exempt paths (such as
// the local uploads mount) are added to DefaultExemptPaths.
func Rewrite(resolver Resolver, extraExempt ...string) func(http.Handler) http.Handler {
	exempt := append(append([]string{}, DefaultExemptPaths...), extraExempt...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub, ok := resolver.Subdomain(r.Host)
			if !ok || isExempt(r.URL.Path, exempt) {
				next.ServeHTTP(w, r)
				return
			}

			origin := Origin{Host: r.Host, Path: r.URL.Path, Subdomain: sub}
			rewritten := r.WithContext(context.WithValue(r.Context(), originKey{}, origin))
			u := *r.URL
			u.Path = rewritePath(sub, r.URL.Path)
			u.RawPath = ""
			rewritten.URL = &u

			next.ServeHTTP(w, rewritten)
		})
	}
}

func rewritePath(sub, path string) string {
	if path == "" || path == "/" {
		return "/" + sub
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "/" + sub + path
}

func isExempt(path string, exempt []string) bool {
	for _, prefix := range exempt {
		prefix = "/" + strings.Trim(prefix, "/")
		if prefix == "/" {
			continue
		}
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
