package service

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength matches the DNS label limit, since slugs double as subdomains.
const MaxSlugLength = 63

var (
	ErrInvalidSlug  = errors.New("slug must be 1-63 lowercase letters, digits or dashes")
	ErrReservedSlug = errors.New("slug is reserved")

	slugPattern      = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashRuns     = regexp.MustCompile(`-+`)

	reservedSlugs = map[string]struct{}{
		"admin":   {},
		"api":     {},
		"www":     {},
		"static":  {},
		"assets":  {},
		"metrics": {},
		"healthz": {},
		"new":     {},
	}
)

// FormatSlug turns free text into a slug: lowercase, diacritics stripped, anything outside
// [a-z0-9-] replaced by a dash, dash runs collapsed and trimmed.
func FormatSlug(value string) string {
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		strings.ToLower(value),
	)
	if err != nil {
		stripped = strings.ToLower(value)
	}

	slug := slugInvalidChars.ReplaceAllString(stripped, "-")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// ValidateSlug checks an already formatted slug.
func ValidateSlug(slug string) error {
	if len(slug) == 0 || len(slug) > MaxSlugLength || !slugPattern.MatchString(slug) {
		return ErrInvalidSlug
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return ErrReservedSlug
	}
	return nil
}

// IsReservedSlug reports whether slug collides with a routed path segment.
func IsReservedSlug(slug string) bool {
	_, reserved := reservedSlugs[slug]
	return reserved
}
