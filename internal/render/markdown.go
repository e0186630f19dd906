package render

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// markdown renders textarea props. Editors may paste inline HTML such as <strong>, so goldmark
// passes raw HTML through and bluemonday strips anything unsafe afterwards.
type markdown struct {
	engine goldmark.Markdown
	policy *bluemonday.Policy
}

func newMarkdown() *markdown {
	return &markdown{
		engine: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify),
			goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML(), html.WithUnsafe()),
		),
		policy: buildContentSanitizer(),
	}
}

func buildContentSanitizer() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("iframe")
	policy.AllowAttrs("class", "data-video-platform", "data-video-aspect").OnElements("div")
	policy.AllowAttrs("src").Matching(videoEmbedSrcPattern).OnElements("iframe")
	policy.AllowAttrs("title", "allow", "allowfullscreen", "frameborder", "loading", "referrerpolicy").OnElements("iframe")
	return policy
}

// Render converts markdown to sanitised HTML. Single paragraphs are unwrapped so short
// subtitles stay inline inside their component's own <p>.
func (m *markdown) Render(source string) (template.HTML, error) {
	if strings.TrimSpace(source) == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := m.engine.Convert([]byte(applyVideoEmbeds(source)), &buf); err != nil {
		return "", err
	}

	out := strings.TrimSpace(m.policy.Sanitize(buf.String()))
	if inner, ok := singleParagraph(out); ok {
		out = inner
	}
	return template.HTML(out), nil
}

func singleParagraph(out string) (string, bool) {
	if !strings.HasPrefix(out, "<p>") || !strings.HasSuffix(out, "</p>") {
		return "", false
	}
	inner := out[len("<p>") : len(out)-len("</p>")]
	if strings.Contains(inner, "<p>") || strings.Contains(inner, "</p>") {
		return "", false
	}
	return inner, true
}
