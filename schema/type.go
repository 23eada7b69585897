package schema

import (
	"fmt"
	"os"
	"slices"
	"sync"

	"github.com/expr-lang/expr/vm"
	"github.com/goccy/go-yaml"
)

const (
	BlockType = "block"
	SpanType  = "span"
)

var (
	DefaultStyles     = []string{"normal", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote"}
	DefaultDecorators = []string{"strong", "em", "code", "underline", "strike-through"}
	DefaultLists      = []string{"bullet", "number"}
)

// Type is the schema type descriptor of a portable text field.
type Type struct {
	Name        string   `yaml:"name" json:"name"`
	Title       string   `yaml:"title,omitempty" json:"title,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	ReadOnly    bool     `yaml:"readOnly,omitempty" json:"readOnly,omitempty"`
	MaxBlocks   int      `yaml:"maxBlocks,omitempty" json:"maxBlocks,omitempty"`
	Styles      []string `yaml:"styles,omitempty" json:"styles,omitempty"`
	Decorators  []string `yaml:"decorators,omitempty" json:"decorators,omitempty"`
	Annotations []string `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	Lists       []string `yaml:"lists,omitempty" json:"lists,omitempty"`
	Inline      []string `yaml:"inline,omitempty" json:"inline,omitempty"`
	Objects     []string `yaml:"objects,omitempty" json:"objects,omitempty"`
	Rules       []Rule   `yaml:"rules,omitempty" json:"rules,omitempty"`

	once     sync.Once
	programs []*vm.Program
	compErr  error
}

// Rule is a custom validation rule. Expr must evaluate to a boolean; false
// makes the value invalid with Message as the description.
type Rule struct {
	Name    string `yaml:"name" json:"name"`
	Expr    string `yaml:"expr" json:"expr"`
	Message string `yaml:"message,omitempty" json:"message,omitempty"`
}

// LoadType reads a Type from a YAML file.
func LoadType(path string) (*Type, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	t, err := ParseType(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ParseType decodes a Type from YAML and compiles its rules.
func ParseType(data []byte) (*Type, error) {
	t := &Type{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if t.Name == "" {
		return nil, fmt.Errorf("schema type must have a name")
	}
	if err := t.Compile(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Type) styles() []string {
	if len(t.Styles) == 0 {
		return DefaultStyles
	}
	return t.Styles
}

func (t *Type) decorators() []string {
	if t.Decorators == nil {
		return DefaultDecorators
	}
	return t.Decorators
}

func (t *Type) lists() []string {
	if t.Lists == nil {
		return DefaultLists
	}
	return t.Lists
}

func (t *Type) AllowsStyle(s string) bool {
	return slices.Contains(t.styles(), s)
}

func (t *Type) AllowsDecorator(d string) bool {
	return slices.Contains(t.decorators(), d)
}

func (t *Type) AllowsList(l string) bool {
	return slices.Contains(t.lists(), l)
}

func (t *Type) AllowsAnnotation(a string) bool {
	return slices.Contains(t.Annotations, a)
}

func (t *Type) AllowsInline(typ string) bool {
	return slices.Contains(t.Inline, typ)
}

func (t *Type) AllowsObject(typ string) bool {
	return slices.Contains(t.Objects, typ)
}
