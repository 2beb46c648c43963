package openapi

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// extensionKey holds per-property hints: kind, label and order.
const extensionKey = "x-formengine"

type converter struct {
	maxDepth int
	defaults map[string]any
}

func (c *converter) properties(obj *openapi3.Schema, prefix string, depth int) *schema.Nodes {
	nodes := schema.NewNodes()
	required := make(map[string]bool, len(obj.Required))
	for _, name := range obj.Required {
		required[name] = true
	}
	for _, name := range propertyOrder(obj) {
		ref := obj.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		id := name
		if prefix != "" {
			id = prefix + "." + name
		}
		if node := c.node(id, name, ref.Value, required[name], depth); node != nil {
			nodes.Set(id, node)
		}
	}
	return nodes
}

func (c *converter) node(id, name string, s *openapi3.Schema, required bool, depth int) *schema.Node {
	hints := extension(s)
	node := &schema.Node{
		ID:          id,
		Label:       firstNonEmpty(hintString(hints, "label"), s.Title, humanize(name)),
		Description: s.Description,
		ReadOnly:    s.ReadOnly,
	}

	if s.Type.Is(openapi3.TypeObject) {
		if len(s.Properties) == 0 || depth >= c.maxDepth {
			return nil
		}
		node.Kind = firstNonEmpty(hintString(hints, "kind"), "fieldset")
		node.Children = c.properties(s, id, depth+1)
		return node
	}

	node.Kind = firstNonEmpty(hintString(hints, "kind"), kindFor(s))
	node.Options = options(s)
	node.Validation = rules(s, required, node.Kind)
	if s.Default != nil {
		c.defaults[id] = s.Default
	}
	return node
}

func kindFor(s *openapi3.Schema) string {
	switch {
	case len(s.Enum) > 0:
		return "select"
	case s.Type.Is(openapi3.TypeBoolean):
		return "switch"
	case s.Type.Is(openapi3.TypeInteger), s.Type.Is(openapi3.TypeNumber):
		return "numeric-field"
	case s.Type.Is(openapi3.TypeArray):
		if s.Items != nil && s.Items.Value != nil && len(s.Items.Value.Enum) > 0 {
			return "multi-select"
		}
		return "chips"
	}
	switch s.Format {
	case "email":
		return "email-field"
	case "date", "date-time":
		return "date-field"
	case "binary", "byte":
		return "file-upload"
	}
	if s.MaxLength != nil && *s.MaxLength > 255 {
		return "textarea"
	}
	return "text-field"
}

func options(s *openapi3.Schema) []schema.Option {
	enum := s.Enum
	if len(enum) == 0 && s.Type.Is(openapi3.TypeArray) && s.Items != nil && s.Items.Value != nil {
		enum = s.Items.Value.Enum
	}
	if len(enum) == 0 {
		return nil
	}
	out := make([]schema.Option, 0, len(enum))
	for _, value := range enum {
		out = append(out, schema.Option{Label: humanize(fmt.Sprint(value)), Value: value})
	}
	return out
}

func rules(s *openapi3.Schema, required bool, kind string) []schema.Rule {
	var out []schema.Rule
	if required {
		out = append(out, schema.Rule{Kind: schema.RuleRequired, Value: true})
	}
	switch {
	case s.Type.Is(openapi3.TypeInteger), s.Type.Is(openapi3.TypeNumber):
		if s.Min != nil {
			out = append(out, schema.Rule{Kind: schema.RuleMin, Value: *s.Min})
		}
		if s.Max != nil {
			out = append(out, schema.Rule{Kind: schema.RuleMax, Value: *s.Max})
		}
	case s.Type.Is(openapi3.TypeArray):
		if s.MinItems > 0 {
			out = append(out, schema.Rule{Kind: schema.RuleMin, Value: int(s.MinItems)})
		}
		if s.MaxItems != nil {
			out = append(out, schema.Rule{Kind: schema.RuleMax, Value: int(*s.MaxItems)})
		}
	case s.Type.Is(openapi3.TypeString):
		if s.MinLength > 0 {
			out = append(out, schema.Rule{Kind: schema.RuleMin, Value: int(s.MinLength)})
		}
		if s.MaxLength != nil {
			out = append(out, schema.Rule{Kind: schema.RuleMax, Value: int(*s.MaxLength)})
		}
		if s.Pattern != "" {
			out = append(out, schema.Rule{Kind: schema.RulePattern, Value: s.Pattern})
		}
		if kind == "email-field" {
			out = append(out, schema.Rule{Kind: schema.RuleCustom, Value: "email"})
		}
	}
	return out
}

// propertyOrder honours x-formengine.order and appends the remaining
// properties alphabetically, since OpenAPI objects carry no order.
func propertyOrder(obj *openapi3.Schema) []string {
	seen := make(map[string]bool, len(obj.Properties))
	var out []string
	if list, ok := extension(obj)["order"].([]any); ok {
		for _, item := range list {
			name, ok := item.(string)
			if !ok || seen[name] {
				continue
			}
			if _, exists := obj.Properties[name]; exists {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	var rest []string
	for name := range obj.Properties {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func extension(s *openapi3.Schema) map[string]any {
	if s == nil || len(s.Extensions) == 0 {
		return nil
	}
	hints, _ := s.Extensions[extensionKey].(map[string]any)
	return hints
}

func hintString(hints map[string]any, key string) string {
	s, _ := hints[key].(string)
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// humanize turns "first_name" or "firstName" into "First name".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(' ')
		case unicode.IsUpper(r) && i > 0:
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return name
	}
	runes := []rune(out)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
