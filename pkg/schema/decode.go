package schema

import (
	"fmt"
	"strings"
)

// Parse decodes a raw JSON or YAML form document. Unknown rule keys and
// operators are kept so Check can report them; only structural problems
// (non-object nodes, malformed rule lists) fail decoding.
func Parse(raw RawDocument) (Document, error) {
	doc, err := ParseBytes(raw.Raw(), raw.Source())
	if err != nil {
		return Document{}, err
	}
	return doc, nil
}

// ParseBytes decodes data into a Document attributed to src.
func ParseBytes(data []byte, src Source) (Document, error) {
	if src == nil {
		src = SourceInline("")
	}
	tree, err := decodeTree(data)
	if err != nil {
		return Document{}, fmt.Errorf("%w (%s)", err, src.Location())
	}
	if tree.kind != kindObject {
		return Document{}, fmt.Errorf("schema: %s: document root must be an object", src.Location())
	}

	doc := Document{source: src}
	if id, ok := tree.get("id"); ok {
		doc.ID, _ = id.str()
	}

	if fields, ok := tree.get("fields"); ok {
		nodes, err := decodeChildren(fields, "fields")
		if err != nil {
			return Document{}, fmt.Errorf("schema: %s: %w", src.Location(), err)
		}
		doc.Sections = append(doc.Sections, Section{ID: "main", Fields: nodes})
	}

	if sections, ok := tree.get("sections"); ok {
		if sections.kind != kindObject {
			return Document{}, fmt.Errorf("schema: %s: sections must be an object", src.Location())
		}
		for _, key := range sections.keys {
			section, err := decodeSection(key, sections.fields[key])
			if err != nil {
				return Document{}, fmt.Errorf("schema: %s: %w", src.Location(), err)
			}
			doc.Sections = append(doc.Sections, section)
		}
	}

	if defaults, ok := tree.get("defaultValues"); ok {
		plain, ok := defaults.plain().(map[string]any)
		if !ok {
			return Document{}, fmt.Errorf("schema: %s: defaultValues must be an object", src.Location())
		}
		doc.DefaultValues = plain
	}

	return doc, nil
}

func decodeSection(id string, v *value) (Section, error) {
	if v.kind != kindObject {
		return Section{}, fmt.Errorf("section %q must be an object", id)
	}
	section := Section{ID: id}
	if title, ok := v.get("title"); ok {
		section.Title, _ = title.str()
	}
	children, ok := v.get("fields")
	if !ok {
		children, ok = v.get("children")
	}
	if !ok {
		section.Fields = NewNodes()
		return section, nil
	}
	nodes, err := decodeChildren(children, id)
	if err != nil {
		return Section{}, err
	}
	section.Fields = nodes
	return section, nil
}

func decodeChildren(v *value, parent string) (*Nodes, error) {
	if v.kind != kindObject {
		return nil, fmt.Errorf("children of %q must be an object", parent)
	}
	nodes := NewNodes()
	for _, key := range v.keys {
		node, err := decodeNode(key, v.fields[key])
		if err != nil {
			return nil, err
		}
		nodes.Set(key, node)
	}
	nodes.dups = append(nodes.dups, v.dups...)
	return nodes, nil
}

func decodeNode(id string, v *value) (*Node, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("node identifiers must not be empty")
	}
	if v.kind != kindObject {
		return nil, fmt.Errorf("node %q must be an object", id)
	}

	node := &Node{ID: id}
	for _, key := range v.keys {
		child := v.fields[key]
		switch key {
		case "kind", "uiType", "referenceKey":
			if node.Kind == "" {
				node.Kind, _ = child.str()
			}
		case "label":
			node.Label, _ = child.str()
		case "description":
			node.Description, _ = child.str()
		case "children":
			if err := decodeNodeChildren(node, child); err != nil {
				return nil, err
			}
		case "validation":
			rules, err := decodeRules(child, id)
			if err != nil {
				return nil, err
			}
			node.Validation = rules
		case "showIf":
			groups, err := decodeGroups(child, id)
			if err != nil {
				return nil, err
			}
			node.ShowIf = groups
		case "defaultValue", "default":
			node.Default = child.plain()
			node.HasDefault = true
		case "disabled":
			node.Disabled = truthyFlag(child.plain())
		case "readOnly":
			node.ReadOnly = truthyFlag(child.plain())
		case "options":
			opts, err := decodeOptions(child, id)
			if err != nil {
				return nil, err
			}
			node.Options = opts
		default:
			if node.Props == nil {
				node.Props = make(map[string]any)
			}
			node.Props[key] = child.plain()
		}
	}
	// "disabled: invalid-form" on submit controls is a dynamic flag, keep it.
	if raw, ok := v.get("disabled"); ok {
		if s, ok := raw.str(); ok && s != "" && s != "true" && s != "false" {
			if node.Props == nil {
				node.Props = make(map[string]any)
			}
			node.Props["disabled"] = s
		}
	}
	return node, nil
}

func decodeNodeChildren(node *Node, v *value) error {
	switch v.kind {
	case kindScalar:
		text, _ := v.scalar.(string)
		node.Text = text
		return nil
	case kindArray:
		var parts []string
		for _, item := range v.items {
			if s, ok := item.str(); ok {
				parts = append(parts, s)
			}
		}
		node.Text = strings.Join(parts, " ")
		return nil
	default:
		children, err := decodeChildren(v, node.ID)
		if err != nil {
			return err
		}
		node.Children = children
		return nil
	}
}

func decodeRules(v *value, owner string) ([]Rule, error) {
	if v.kind != kindArray {
		return nil, fmt.Errorf("validation of %q must be a list", owner)
	}
	var rules []Rule
	for idx, item := range v.items {
		if item.kind != kindObject {
			return nil, fmt.Errorf("validation[%d] of %q must be an object", idx, owner)
		}
		var (
			message string
			params  map[string]any
			when    []RuleGroup
			ops     []Rule
		)
		for _, key := range item.keys {
			child := item.fields[key]
			switch key {
			case "errorMessage":
				message, _ = child.str()
			case "params":
				params, _ = child.plain().(map[string]any)
			case "when":
				groups, err := decodeGroups(child, owner)
				if err != nil {
					return nil, err
				}
				when = groups
			default:
				ops = append(ops, Rule{Kind: RuleKind(key), Value: child.plain()})
			}
		}
		if len(ops) == 0 {
			ops = append(ops, Rule{})
		}
		for _, op := range ops {
			op.ErrorMessage = message
			op.Params = params
			op.When = when
			rules = append(rules, op)
		}
	}
	return rules, nil
}

func decodeGroups(v *value, owner string) ([]RuleGroup, error) {
	switch v.kind {
	case kindObject:
		group, err := decodeGroup(v, owner)
		if err != nil {
			return nil, err
		}
		return []RuleGroup{group}, nil
	case kindArray:
		groups := make([]RuleGroup, 0, len(v.items))
		for idx, item := range v.items {
			if item.kind != kindObject {
				return nil, fmt.Errorf("showIf[%d] of %q must be an object", idx, owner)
			}
			group, err := decodeGroup(item, owner)
			if err != nil {
				return nil, err
			}
			groups = append(groups, group)
		}
		return groups, nil
	default:
		return nil, fmt.Errorf("showIf of %q must be a list of rule groups", owner)
	}
}

func decodeGroup(v *value, owner string) (RuleGroup, error) {
	var group RuleGroup
	for _, dependee := range v.keys {
		cond := v.fields[dependee]
		switch cond.kind {
		case kindObject:
			group = append(group, decodeConditions(dependee, cond)...)
		case kindArray:
			for idx, item := range cond.items {
				if item.kind != kindObject {
					return nil, fmt.Errorf("condition %s[%d] of %q must be an object", dependee, idx, owner)
				}
				group = append(group, decodeConditions(dependee, item)...)
			}
		default:
			return nil, fmt.Errorf("condition %s of %q must be an object", dependee, owner)
		}
	}
	return group, nil
}

// decodeConditions accepts {operator, value} as well as the shorthand
// {equals: "yes"} where each key is an operator.
func decodeConditions(dependee string, v *value) []Condition {
	if opValue, ok := v.get("operator"); ok {
		op, _ := opValue.str()
		cond := Condition{Field: dependee, Operator: Operator(op)}
		if val, ok := v.get("value"); ok {
			cond.Value = val.plain()
		}
		return []Condition{cond}
	}
	if len(v.keys) == 0 {
		return []Condition{{Field: dependee}}
	}
	out := make([]Condition, 0, len(v.keys))
	for _, key := range v.keys {
		out = append(out, Condition{Field: dependee, Operator: Operator(key), Value: v.fields[key].plain()})
	}
	return out
}

func decodeOptions(v *value, owner string) ([]Option, error) {
	if v.kind != kindArray {
		return nil, fmt.Errorf("options of %q must be a list", owner)
	}
	opts := make([]Option, 0, len(v.items))
	for _, item := range v.items {
		if item.kind != kindObject {
			opts = append(opts, Option{Label: fmt.Sprint(item.plain()), Value: item.plain()})
			continue
		}
		var opt Option
		if label, ok := item.get("label"); ok {
			opt.Label, _ = label.str()
		}
		if val, ok := item.get("value"); ok {
			opt.Value = val.plain()
		}
		if disabled, ok := item.get("disabled"); ok {
			opt.Disabled = truthyFlag(disabled.plain())
		}
		if opt.Label == "" && opt.Value != nil {
			opt.Label = fmt.Sprint(opt.Value)
		}
		opts = append(opts, opt)
	}
	return opts, nil
}

func truthyFlag(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "true")
	default:
		return false
	}
}
