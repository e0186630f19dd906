package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidDocument marks page data the editor or renderer cannot use.
var ErrInvalidDocument = errors.New("invalid page document")

// Document is the editor's page data: ordered blocks plus root props.
type Document struct {
	Content []Block            `json:"content"`
	Root    Root               `json:"root"`
	Zones   map[string][]Block `json:"zones,omitempty"`
}

// Block is one placed component.
type Block struct {
	Type  string         `json:"type"`
	Props map[string]any `json:"props"`
}

// Root carries page-level props.
type Root struct {
	Props map[string]any `json:"props"`
}

// UnmarshalJSON accepts both {"props": {...}} and the older flat root shape.
func (r *Root) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		r.Props = map[string]any{}
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if props, ok := raw["props"].(map[string]any); ok {
		r.Props = props
		return nil
	}
	delete(raw, "props")
	r.Props = raw
	return nil
}

// ParseDocument decodes page data. A missing content list is treated as empty.
func ParseDocument(raw []byte) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Document{}, fmt.Errorf("%w: expected a JSON object", ErrInvalidDocument)
	}

	var doc Document
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Content == nil {
		doc.Content = []Block{}
	}
	if doc.Root.Props == nil {
		doc.Root.Props = map[string]any{}
	}
	for i := range doc.Content {
		if doc.Content[i].Props == nil {
			doc.Content[i].Props = map[string]any{}
		}
	}
	return doc, nil
}

// ValidationError lists every problem found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidDocument, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}

// Validate checks block types against the registry and prop values against field schemas.
// Props without a field definition (such as the editor's block id) are allowed.
func (r *Registry) Validate(doc Document) error {
	var problems []string
	check := func(where string, blocks []Block) {
		for i, block := range blocks {
			path := fmt.Sprintf("%s[%d]", where, i)
			if strings.TrimSpace(block.Type) == "" {
				problems = append(problems, path+": missing type")
				continue
			}
			comp, ok := r.Lookup(block.Type)
			if !ok {
				problems = append(problems, fmt.Sprintf("%s: unknown component %q", path, block.Type))
				continue
			}
			problems = append(problems, validateProps(path+"."+block.Type, comp.Fields, block.Props)...)
		}
	}

	check("content", doc.Content)
	for zone, blocks := range doc.Zones {
		check("zones."+zone, blocks)
	}
	problems = append(problems, validateProps("root", r.root.Fields, doc.Root.Props)...)

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func validateProps(path string, fields []Field, props map[string]any) []string {
	var problems []string
	for _, field := range fields {
		value, ok := props[field.Name]
		if !ok || value == nil {
			continue
		}
		problems = append(problems, validateValue(path+"."+field.Name, field, value)...)
	}
	return problems
}

func validateValue(path string, field Field, value any) []string {
	switch field.Type {
	case FieldText, FieldTextarea, FieldImage, FieldColor:
		if _, ok := value.(string); !ok {
			return []string{path + ": expected string"}
		}
	case FieldNumber:
		if !isNumber(value) {
			return []string{path + ": expected number"}
		}
	case FieldSelect, FieldRadio:
		if !hasOption(field.Options, value) {
			return []string{fmt.Sprintf("%s: %v is not an allowed option", path, value)}
		}
	case FieldArray:
		items, ok := value.([]any)
		if !ok {
			return []string{path + ": expected array"}
		}
		var problems []string
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			obj, ok := item.(map[string]any)
			if !ok {
				problems = append(problems, itemPath+": expected object")
				continue
			}
			problems = append(problems, validateProps(itemPath, field.ArrayFields, obj)...)
		}
		return problems
	case FieldObject:
		obj, ok := value.(map[string]any)
		if !ok {
			return []string{path + ": expected object"}
		}
		return validateProps(path, field.ObjectFields, obj)
	}
	return nil
}

func isNumber(value any) bool {
	switch typed := value.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		return err == nil
	default:
		return false
	}
}

func hasOption(options []Option, value any) bool {
	want := fmt.Sprint(value)
	for _, opt := range options {
		if fmt.Sprint(opt.Value) == want {
			return true
		}
	}
	return false
}
