// Package registry holds the component configuration table: the editable field schema and
// default props of every section a landing page can contain. The editor receives it as JSON
// and the renderer uses it to fill in defaults.
package registry

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

//go:embed components.yaml
var embeddedComponents []byte

// FieldType names the editor control used for a prop.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldSelect   FieldType = "select"
	FieldRadio    FieldType = "radio"
	FieldArray    FieldType = "array"
	FieldObject   FieldType = "object"
	FieldImage    FieldType = "image"
	FieldColor    FieldType = "color"
)

const (
	SharedBackgroundColor   = "backgroundColor"
	SharedContainerMaxWidth = "containerMaxWidth"
)

var (
	ErrUnknownComponent = errors.New("unknown component")
	ErrInvalidRegistry  = errors.New("invalid component registry")
)

// Option is one choice of a select or radio field.
type Option struct {
	Label string `yaml:"label" json:"label"`
	Value any    `yaml:"value" json:"value"`
}

// Field describes one editable prop.
type Field struct {
	Name         string    `yaml:"name" json:"name"`
	Type         FieldType `yaml:"type" json:"type"`
	Label        string    `yaml:"label,omitempty" json:"label,omitempty"`
	Options      []Option  `yaml:"options,omitempty" json:"options,omitempty"`
	ArrayFields  []Field   `yaml:"arrayFields,omitempty" json:"arrayFields,omitempty"`
	ObjectFields []Field   `yaml:"objectFields,omitempty" json:"objectFields,omitempty"`
}

// Component is a renderable section type.
type Component struct {
	Name         string         `yaml:"name" json:"name"`
	Label        string         `yaml:"label,omitempty" json:"label,omitempty"`
	Category     string         `yaml:"category,omitempty" json:"category,omitempty"`
	Fields       []Field        `yaml:"fields" json:"fields"`
	DefaultProps map[string]any `yaml:"defaultProps" json:"defaultProps"`
}

// Field returns the field definition with the given name.
func (c Component) Field(name string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Schema is the JSON shape served to the editor.
type Schema struct {
	Root       Component   `json:"root"`
	Components []Component `json:"components"`
}

// Registry is immutable after Parse and safe for concurrent use.
type Registry struct {
	root       Component
	components []Component
	index      map[string]int
}

type registryFile struct {
	Root       Component   `yaml:"root"`
	Components []Component `yaml:"components"`
}

// Load parses the embedded component table.
func Load() (*Registry, error) {
	return Parse(embeddedComponents)
}

// MustLoad is Load for package-level initialisation and tests.
func MustLoad() *Registry {
	reg, err := Load()
	if err != nil {
		panic(err)
	}
	return reg
}

// LoadFile parses a component table from disk; an empty path loads the embedded one.
func LoadFile(path string) (*Registry, error) {
	if strings.TrimSpace(path) == "" {
		return Load()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read component registry: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a YAML component table and injects the shared wrapper fields.
func Parse(raw []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegistry, err)
	}
	if len(file.Components) == 0 {
		return nil, fmt.Errorf("%w: no components defined", ErrInvalidRegistry)
	}

	reg := &Registry{
		root:       file.Root,
		components: make([]Component, 0, len(file.Components)),
		index:      make(map[string]int, len(file.Components)),
	}
	if reg.root.DefaultProps == nil {
		reg.root.DefaultProps = map[string]any{}
	}

	for _, comp := range file.Components {
		name := strings.TrimSpace(comp.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: component without name", ErrInvalidRegistry)
		}
		if _, dup := reg.index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate component %q", ErrInvalidRegistry, name)
		}
		if err := checkFields(name, comp.Fields); err != nil {
			return nil, err
		}
		comp.Name = name
		if comp.Label == "" {
			comp.Label = name
		}
		injectSharedFields(&comp)
		reg.index[name] = len(reg.components)
		reg.components = append(reg.components, comp)
	}
	return reg, nil
}

func checkFields(owner string, fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f.Name == "" {
			return fmt.Errorf("%w: %s has a field without name", ErrInvalidRegistry, owner)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("%w: %s.%s declared twice", ErrInvalidRegistry, owner, f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Type {
		case FieldText, FieldTextarea, FieldNumber, FieldImage, FieldColor:
		case FieldSelect, FieldRadio:
			if len(f.Options) == 0 {
				return fmt.Errorf("%w: %s.%s has no options", ErrInvalidRegistry, owner, f.Name)
			}
		case FieldArray:
			if err := checkFields(owner+"."+f.Name, f.ArrayFields); err != nil {
				return err
			}
		case FieldObject:
			if err := checkFields(owner+"."+f.Name, f.ObjectFields); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s.%s has unknown type %q", ErrInvalidRegistry, owner, f.Name, f.Type)
		}
	}
	return nil
}

// sharedFields are prepended to every component; a component's own field of the same name wins.
func sharedFields() []Field {
	return []Field{
		{Name: SharedBackgroundColor, Type: FieldColor, Label: "Background color"},
		{
			Name:  SharedContainerMaxWidth,
			Type:  FieldSelect,
			Label: "Container max width",
			Options: []Option{
				{Label: "Global default", Value: ""},
				{Label: "960px", Value: "960px"},
				{Label: "1280px", Value: "1280px"},
				{Label: "1440px", Value: "1440px"},
				{Label: "1600px", Value: "1600px"},
				{Label: "Full width", Value: "100%"},
			},
		},
	}
}

func injectSharedFields(comp *Component) {
	fields := make([]Field, 0, len(comp.Fields)+2)
	for _, shared := range sharedFields() {
		if _, overridden := comp.Field(shared.Name); !overridden {
			fields = append(fields, shared)
		}
	}
	comp.Fields = append(fields, comp.Fields...)

	if comp.DefaultProps == nil {
		comp.DefaultProps = map[string]any{}
	}
	for _, key := range []string{SharedBackgroundColor, SharedContainerMaxWidth} {
		if _, ok := comp.DefaultProps[key]; !ok {
			comp.DefaultProps[key] = ""
		}
	}
}

// Root returns the page-level component.
func (r *Registry) Root() Component {
	return r.root
}

// Lookup returns the component registered under name.
func (r *Registry) Lookup(name string) (Component, bool) {
	idx, ok := r.index[name]
	if !ok {
		return Component{}, false
	}
	return r.components[idx], true
}

// Components returns the components in declaration order.
func (r *Registry) Components() []Component {
	out := make([]Component, len(r.components))
	copy(out, r.components)
	return out
}

// Names returns the registered component names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.components))
	for _, c := range r.components {
		names = append(names, c.Name)
	}
	return names
}

// Schema returns the editor-facing description of the registry.
func (r *Registry) Schema() Schema {
	return Schema{Root: r.root, Components: r.Components()}
}

// DefaultProps returns a deep copy of the component's default props.
func (r *Registry) DefaultProps(name string) (map[string]any, error) {
	comp, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownComponent, name)
	}
	return copyMap(comp.DefaultProps), nil
}

// NewDocument returns an empty page carrying the root defaults.
func (r *Registry) NewDocument() Document {
	return Document{
		Content: []Block{},
		Root:    Root{Props: copyMap(r.root.DefaultProps)},
	}
}

// NewBlock returns a block of the given type populated with default props and a fresh id.
func (r *Registry) NewBlock(name string) (Block, error) {
	props, err := r.DefaultProps(name)
	if err != nil {
		return Block{}, err
	}
	props["id"] = fmt.Sprintf("%s-%s", name, uuid.NewString())
	return Block{Type: name, Props: props}, nil
}

// Normalize fills props missing from each block (and the root) with registry defaults.
// Unknown block types are kept untouched.
func (r *Registry) Normalize(doc Document) Document {
	out := Document{
		Content: make([]Block, 0, len(doc.Content)),
		Root:    Root{Props: mergeDefaults(doc.Root.Props, r.root.DefaultProps)},
	}
	for _, block := range doc.Content {
		out.Content = append(out.Content, r.normalizeBlock(block))
	}
	if len(doc.Zones) > 0 {
		out.Zones = make(map[string][]Block, len(doc.Zones))
		for zone, blocks := range doc.Zones {
			normalized := make([]Block, 0, len(blocks))
			for _, block := range blocks {
				normalized = append(normalized, r.normalizeBlock(block))
			}
			out.Zones[zone] = normalized
		}
	}
	return out
}

func (r *Registry) normalizeBlock(block Block) Block {
	comp, ok := r.Lookup(block.Type)
	if !ok {
		return Block{Type: block.Type, Props: copyMap(block.Props)}
	}
	return Block{Type: block.Type, Props: mergeDefaults(block.Props, comp.DefaultProps)}
}

func mergeDefaults(props, defaults map[string]any) map[string]any {
	out := copyMap(props)
	for key, value := range defaults {
		if _, ok := out[key]; !ok {
			out[key] = copyValue(value)
		}
	}
	return out
}

func copyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = copyValue(value)
	}
	return out
}

func copyValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return copyMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
