package render

import (
	"fmt"
	htmlstd "html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	videoAspectLandscape = "16:9"
	videoAspectPortrait  = "9:16"
)

var (
	videoEmbedLinePattern = regexp.MustCompile(`^\s*<?((?:https?://)?[^\s]+)>?\s*$`)
	videoEmbedSrcPattern  = regexp.MustCompile(
		`^https://(?:www\.youtube-nocookie\.com/embed/|www\.youtube\.com/embed/|player\.vimeo\.com/video/)`,
	)
	videoEmbedTimePattern = regexp.MustCompile(`(?i)(\d+)(h|m|s)`) // YouTube t=1h2m3s
	listIndexPattern      = regexp.MustCompile(`^\d+\.\s+`)
)

// VideoEmbed is a resolved player URL for a pasted video link.
type VideoEmbed struct {
	Platform string
	Source   string
	EmbedURL string
	Aspect   string
	Title    string
}

// ParseVideo recognises YouTube and Vimeo links, with or without a scheme.
func ParseVideo(raw string) (VideoEmbed, bool) {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "<")
	trimmed = strings.TrimSuffix(trimmed, ">")
	trimmed = normalizeVideoURL(trimmed)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed == nil {
		return VideoEmbed{}, false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return VideoEmbed{}, false
	}
	if parsed.Hostname() == "" {
		return VideoEmbed{}, false
	}

	if embed, ok := parseYouTube(parsed, trimmed); ok {
		return embed, true
	}
	if embed, ok := parseVimeo(parsed, trimmed); ok {
		return embed, true
	}
	return VideoEmbed{}, false
}

func normalizeVideoURL(raw string) string {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	for _, prefix := range []string{"youtube.com/", "www.youtube.com/", "m.youtube.com/", "youtu.be/", "vimeo.com/", "www.vimeo.com/"} {
		if strings.HasPrefix(lower, prefix) {
			return "https://" + raw
		}
	}
	return raw
}

func parseYouTube(u *url.URL, source string) (VideoEmbed, bool) {
	host := strings.ToLower(u.Hostname())
	var videoID string
	aspect := videoAspectLandscape

	switch {
	case host == "youtu.be":
		videoID = strings.Trim(u.Path, "/")
	case isHostOrSubdomain(host, "youtube.com"):
		path := strings.Trim(u.Path, "/")
		switch {
		case path == "watch":
			videoID = u.Query().Get("v")
		case strings.HasPrefix(path, "shorts/"):
			videoID = strings.TrimPrefix(path, "shorts/")
			aspect = videoAspectPortrait
		case strings.HasPrefix(path, "embed/"):
			videoID = strings.TrimPrefix(path, "embed/")
		case strings.HasPrefix(path, "live/"):
			videoID = strings.TrimPrefix(path, "live/")
		}
	default:
		return VideoEmbed{}, false
	}

	videoID, _, _ = strings.Cut(videoID, "/")
	if videoID == "" {
		return VideoEmbed{}, false
	}

	values := url.Values{}
	values.Set("rel", "0")
	values.Set("modestbranding", "1")
	values.Set("playsinline", "1")
	if start := parseYouTubeStart(u); start > 0 {
		values.Set("start", strconv.Itoa(start))
	}

	return VideoEmbed{
		Platform: "youtube",
		Source:   source,
		EmbedURL: "https://www.youtube-nocookie.com/embed/" + url.PathEscape(videoID) + "?" + values.Encode(),
		Aspect:   aspect,
		Title:    "YouTube video player",
	}, true
}

func parseYouTubeStart(u *url.URL) int {
	query := u.Query()
	if value := query.Get("start"); value != "" {
		return parseYouTubeTime(value)
	}
	if value := query.Get("t"); value != "" {
		return parseYouTubeTime(value)
	}
	return 0
}

func parseYouTubeTime(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(trimmed); err == nil {
		return max(seconds, 0)
	}

	total := 0
	for _, match := range videoEmbedTimePattern.FindAllStringSubmatch(trimmed, -1) {
		n, err := strconv.Atoi(match[1])
		if err != nil || n <= 0 {
			continue
		}
		switch strings.ToLower(match[2]) {
		case "h":
			total += n * 3600
		case "m":
			total += n * 60
		case "s":
			total += n
		}
	}
	return total
}

func parseVimeo(u *url.URL, source string) (VideoEmbed, bool) {
	host := strings.ToLower(u.Hostname())
	if !isHostOrSubdomain(host, "vimeo.com") {
		return VideoEmbed{}, false
	}

	// vimeo.com/<id>, vimeo.com/channels/x/<id>, player.vimeo.com/video/<id>
	var videoID string
	for _, segment := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if segment != "" && onlyDigits(segment) {
			videoID = segment
		}
	}
	if videoID == "" {
		return VideoEmbed{}, false
	}

	values := url.Values{}
	values.Set("dnt", "1")
	if h := u.Query().Get("h"); h != "" {
		values.Set("h", h)
	}

	return VideoEmbed{
		Platform: "vimeo",
		Source:   source,
		EmbedURL: "https://player.vimeo.com/video/" + videoID + "?" + values.Encode(),
		Aspect:   videoAspectLandscape,
		Title:    "Vimeo video player",
	}, true
}

// applyVideoEmbeds replaces markdown lines that hold nothing but a video link with a player.
// Code blocks, quotes and list items are left alone.
func applyVideoEmbeds(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return markdown
	}

	lines := strings.Split(markdown, "\n")
	fenceMarker := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if marker := detectFenceMarker(trimmed); marker != "" {
			switch {
			case fenceMarker == "":
				fenceMarker = marker
			case strings.HasPrefix(trimmed, fenceMarker):
				fenceMarker = ""
			}
			continue
		}
		if fenceMarker != "" || isIndentedCodeLine(line) || shouldSkipEmbedLine(trimmed) {
			continue
		}

		match := videoEmbedLinePattern.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		embed, ok := ParseVideo(match[1])
		if !ok {
			continue
		}
		lines[i] = buildVideoEmbedHTML(embed)
	}
	return strings.Join(lines, "\n")
}

func detectFenceMarker(line string) string {
	if strings.HasPrefix(line, "```") {
		return "```"
	}
	if strings.HasPrefix(line, "~~~") {
		return "~~~"
	}
	return ""
}

func isIndentedCodeLine(line string) bool {
	return strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")
}

func shouldSkipEmbedLine(line string) bool {
	if line == "" || strings.HasPrefix(line, ">") {
		return true
	}
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ ") {
		return true
	}
	return listIndexPattern.MatchString(line)
}

func buildVideoEmbedHTML(embed VideoEmbed) string {
	return fmt.Sprintf(
		`<div class="video-embed" data-video-platform="%s" data-video-aspect="%s">`+
			`<iframe src="%s" title="%s" loading="lazy" allow="%s" allowfullscreen frameborder="0" referrerpolicy="strict-origin-when-cross-origin"></iframe>`+
			`</div>`,
		htmlstd.EscapeString(embed.Platform),
		htmlstd.EscapeString(embed.Aspect),
		htmlstd.EscapeString(embed.EmbedURL),
		htmlstd.EscapeString(embed.Title),
		videoAllowAttribute,
	)
}

const videoAllowAttribute = "accelerometer; clipboard-write; encrypted-media; gyroscope; picture-in-picture; web-share"

func onlyDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return value != ""
}

func isHostOrSubdomain(host, domain string) bool {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" || domain == "" {
		return false
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}
