package render

import (
	"fmt"
	"html/template"
	"strings"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"str":      toString,
		"list":     toList,
		"truthy":   truthy,
		"hero":     heroBackground,
		"columns":  columnsClass,
		"video":    videoFor,
		"portrait": func(aspect any) bool { return toString(aspect) == videoAspectPortrait },
		"social":   socialLinks,
		"pick":     pick,
	}
}

func toString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case template.HTML:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func toList(value any) []any {
	items, _ := value.([]any)
	return items
}

func truthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(v, "true")
	default:
		return false
	}
}

func columnsClass(value any) string {
	switch toString(value) {
	case "2":
		return "cols-2"
	case "4":
		return "cols-4"
	default:
		return "cols-3"
	}
}

func videoFor(value any) *VideoEmbed {
	embed, ok := ParseVideo(toString(value))
	if !ok {
		return nil
	}
	return &embed
}

type socialLink struct {
	Name string
	URL  string
}

var socialOrder = []string{"facebook", "twitter", "instagram", "linkedin"}

func socialLinks(value any) []socialLink {
	obj, _ := value.(map[string]any)
	links := make([]socialLink, 0, len(socialOrder))
	for _, name := range socialOrder {
		if url := strings.TrimSpace(toString(obj[name])); url != "" {
			links = append(links, socialLink{Name: name, URL: url})
		}
	}
	return links
}

// pick reads key from an object item, or returns a scalar item as is.
func pick(item any, key string) any {
	if obj, ok := item.(map[string]any); ok {
		return obj[key]
	}
	return item
}
