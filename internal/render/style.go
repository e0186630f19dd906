package render

import (
	"html/template"
	"regexp"
	"strings"
)

var (
	colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]{3,20}|(rgb|rgba|hsl|hsla)\(\s*[0-9.,%\s/]+\))$`)
	widthPattern = regexp.MustCompile(`^(\d{2,4}(\.\d+)?(px|rem|em|vw)|\d{1,3}%)$`)
	imagePattern = regexp.MustCompile(`^(https?://|/)[^\s"'()\\<>]+$`)
)

// cssColor returns a background declaration for safe color values only.
func cssColor(value any) template.CSS {
	s := strings.TrimSpace(toString(value))
	if s == "" || !colorPattern.MatchString(s) {
		return ""
	}
	return template.CSS("background-color: " + s + ";")
}

// cssMaxWidth returns a max-width declaration for lengths like 960px or 100%.
func cssMaxWidth(value any) template.CSS {
	s := strings.TrimSpace(toString(value))
	if s == "" || !widthPattern.MatchString(s) {
		return ""
	}
	return template.CSS("max-width: " + s + ";")
}

// heroBackground mirrors the editor preview: a darkened image or the default gradient.
func heroBackground(value any) template.CSS {
	s := strings.TrimSpace(toString(value))
	if s != "" && imagePattern.MatchString(s) {
		return template.CSS(`background-image: linear-gradient(rgba(0, 0, 0, 0.5), rgba(0, 0, 0, 0.5)), url("` + s + `");`)
	}
	return template.CSS("background-image: linear-gradient(135deg, #667eea 0%, #764ba2 100%);")
}
