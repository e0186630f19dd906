// Package render turns stored page documents into complete HTML pages on the server.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/landingkit/internal/registry"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// CheckoutAnchor is the placeholder link editors use for "go to checkout".
const CheckoutAnchor = "#checkout"

// PageView is everything needed to render one public page.
type PageView struct {
	Title       string
	Description string
	CheckoutURL string
	Document    registry.Document
}

type renderedBlock struct {
	Type       string
	Background template.CSS
	MaxWidth   template.CSS
	HTML       template.HTML
}

type pageData struct {
	Title       string
	Description string
	MaxWidth    template.CSS
	Blocks      []renderedBlock
}

// Renderer is safe for concurrent use.
type Renderer struct {
	registry *registry.Registry
	tmpl     *template.Template
	md       *markdown
	logger   *zap.Logger
}

// New parses the embedded templates.
func New(reg *registry.Registry, logger *zap.Logger) (*Renderer, error) {
	if reg == nil {
		return nil, fmt.Errorf("render: registry is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := template.New("render").Funcs(templateFuncs()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse render templates: %w", err)
	}

	return &Renderer{registry: reg, tmpl: tmpl, md: newMarkdown(), logger: logger}, nil
}

// Render produces the full HTML document for a page. Blocks whose type is not in the registry
// are skipped so one stale block cannot take the whole page down.
func (r *Renderer) Render(view PageView) ([]byte, error) {
	doc := r.registry.Normalize(view.Document)
	checkout := strings.TrimSpace(view.CheckoutURL)

	data := pageData{
		Title:       view.Title,
		Description: view.Description,
		MaxWidth:    cssMaxWidth(doc.Root.Props["maxWidth"]),
		Blocks:      make([]renderedBlock, 0, len(doc.Content)),
	}
	if data.Description == "" {
		data.Description = "Landing page: " + view.Title
	}

	for i, block := range doc.Content {
		comp, ok := r.registry.Lookup(block.Type)
		if !ok {
			r.logger.Warn("skipping unknown block", zap.String("type", block.Type), zap.Int("index", i))
			continue
		}

		props, err := r.prepareProps(comp.Fields, block.Props, checkout)
		if err != nil {
			return nil, fmt.Errorf("block %d (%s): %w", i, block.Type, err)
		}

		name := "block/" + comp.Name
		var dot any = props
		if r.tmpl.Lookup(name) == nil {
			name = "block/generic"
			dot = genericSection(comp, props)
		}

		var buf bytes.Buffer
		if err := r.tmpl.ExecuteTemplate(&buf, name, dot); err != nil {
			return nil, fmt.Errorf("block %d (%s): %w", i, block.Type, err)
		}

		data.Blocks = append(data.Blocks, renderedBlock{
			Type:       comp.Name,
			Background: cssColor(block.Props[registry.SharedBackgroundColor]),
			MaxWidth:   cssMaxWidth(block.Props[registry.SharedContainerMaxWidth]),
			HTML:       template.HTML(buf.String()),
		})
	}

	var out bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&out, "page.html", data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return out.Bytes(), nil
}

// RenderNotFound produces the 404 page.
func (r *Renderer) RenderNotFound() ([]byte, error) {
	var out bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&out, "notfound.html", map[string]string{"Title": "Not Found"}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// prepareProps walks props with their field schema: textarea values become sanitised HTML
// and checkout placeholders become the page's checkout link. Props without a field pass
// through untouched.
func (r *Renderer) prepareProps(fields []registry.Field, props map[string]any, checkout string) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}

	for _, field := range fields {
		value, ok := props[field.Name]
		if !ok || value == nil {
			if isCTAURLField(field.Name) && field.Type == registry.FieldText {
				out[field.Name] = resolveLink("", true, checkout)
			}
			continue
		}

		switch field.Type {
		case registry.FieldTextarea:
			rendered, err := r.md.Render(toString(value))
			if err != nil {
				return nil, err
			}
			out[field.Name] = rendered
		case registry.FieldText:
			if s, ok := value.(string); ok && (isCTAURLField(field.Name) || strings.TrimSpace(s) == CheckoutAnchor) {
				out[field.Name] = resolveLink(s, isCTAURLField(field.Name), checkout)
			}
		case registry.FieldArray:
			items, ok := value.([]any)
			if !ok {
				continue
			}
			prepared := make([]any, 0, len(items))
			for _, item := range items {
				obj, ok := item.(map[string]any)
				if !ok {
					prepared = append(prepared, item)
					continue
				}
				p, err := r.prepareProps(field.ArrayFields, obj, checkout)
				if err != nil {
					return nil, err
				}
				prepared = append(prepared, p)
			}
			out[field.Name] = prepared
		case registry.FieldObject:
			obj, ok := value.(map[string]any)
			if !ok {
				continue
			}
			p, err := r.prepareProps(field.ObjectFields, obj, checkout)
			if err != nil {
				return nil, err
			}
			out[field.Name] = p
		}
	}
	return out, nil
}

type genericEntry struct {
	Name  string
	Value any
}

type genericBlock struct {
	Label   string
	Entries []genericEntry
}

// genericSection shows the text props of a component that has no dedicated template.
func genericSection(comp registry.Component, props map[string]any) genericBlock {
	label := comp.Label
	if label == "" {
		label = comp.Name
	}
	block := genericBlock{Label: label}
	for _, field := range comp.Fields {
		if field.Type != registry.FieldText && field.Type != registry.FieldTextarea {
			continue
		}
		if field.Name == registry.SharedBackgroundColor || field.Name == registry.SharedContainerMaxWidth {
			continue
		}
		if value := props[field.Name]; toString(value) != "" {
			block.Entries = append(block.Entries, genericEntry{Name: field.Name, Value: value})
		}
	}
	return block
}

// resolveLink maps the checkout placeholder, and an empty CTA link, onto checkout.
func resolveLink(value string, cta bool, checkout string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == CheckoutAnchor || (trimmed == "" && cta) {
		if checkout != "" {
			return checkout
		}
		return CheckoutAnchor
	}
	return trimmed
}

func isCTAURLField(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, "url") && (strings.HasPrefix(lower, "cta") || strings.HasPrefix(lower, "button"))
}
