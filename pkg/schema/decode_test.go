package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func loadFixture(t *testing.T, name string) Document {
	t.Helper()

	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	raw, err := NewRawDocument(SourceFromFile(path), data)
	if err != nil {
		t.Fatalf("raw document: %v", err)
	}
	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse %s: %v", name, err)
	}
	return doc
}

func ids(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, node := range nodes {
		out = append(out, node.ID)
	}
	return out
}

func TestParsePreservesDeclarationOrder(t *testing.T) {
	t.Parallel()

	for _, fixture := range []string{"signup.json", "signup.yaml"} {
		fixture := fixture
		t.Run(fixture, func(t *testing.T) {
			t.Parallel()

			doc := loadFixture(t, fixture)
			if doc.ID != "signup" {
				t.Fatalf("unexpected id %q", doc.ID)
			}

			want := []string{"wrapper", "zeta", "alpha", "plan", "seats", "newsletter", "intro"}
			if diff := cmp.Diff(want, ids(Flatten(doc.Roots()))); diff != "" {
				t.Fatalf("traversal order mismatch (-want +got):\n%s", diff)
			}

			if diff := cmp.Diff([]string{"account", "preferences"}, []string{doc.Sections[0].ID, doc.Sections[1].ID}); diff != "" {
				t.Fatalf("section order mismatch (-want +got):\n%s", diff)
			}
			if doc.Sections[0].Title != "Account" {
				t.Fatalf("unexpected section title %q", doc.Sections[0].Title)
			}
		})
	}
}

func TestParseJSONAndYAMLAgree(t *testing.T) {
	t.Parallel()

	fromJSON := loadFixture(t, "signup.json")
	fromYAML := loadFixture(t, "signup.yaml")

	for _, id := range []string{"zeta", "alpha", "plan", "seats", "intro"} {
		a, _ := fromJSON.Lookup(id)
		b, _ := fromYAML.Lookup(id)
		if diff := cmp.Diff(a, b, cmp.AllowUnexported(Nodes{})); diff != "" {
			t.Fatalf("node %s differs between JSON and YAML (-json +yaml):\n%s", id, diff)
		}
	}
	if diff := cmp.Diff(fromJSON.DefaultValues, fromYAML.DefaultValues); diff != "" {
		t.Fatalf("default values differ (-json +yaml):\n%s", diff)
	}
}

func TestParseRulesAndConditions(t *testing.T) {
	t.Parallel()

	doc := loadFixture(t, "signup.json")

	seats, ok := doc.Lookup("seats")
	if !ok {
		t.Fatalf("seats not found")
	}
	wantRules := []Rule{
		{Kind: RuleRequired, Value: true},
		{Kind: RuleMin, Value: 1},
		{Kind: RuleMax, Value: 50},
	}
	if diff := cmp.Diff(wantRules, seats.Validation); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	wantGroups := []RuleGroup{{{Field: "plan", Operator: OpEquals, Value: "pro"}}}
	if diff := cmp.Diff(wantGroups, seats.ShowIf); diff != "" {
		t.Fatalf("showIf mismatch (-want +got):\n%s", diff)
	}

	zeta, _ := doc.Lookup("zeta")
	if zeta.Validation[0].ErrorMessage != "Zeta is required" {
		t.Fatalf("expected error message to be kept, got %q", zeta.Validation[0].ErrorMessage)
	}

	intro, _ := doc.Lookup("intro")
	if intro.Text != "Tell us more" || intro.HasChildren() {
		t.Fatalf("expected text-only wrapper, got %+v", intro)
	}
}

func TestParseConditionShorthandAndWhen(t *testing.T) {
	t.Parallel()

	data := []byte(`{
	  "fields": {
	    "a": { "kind": "text-field" },
	    "b": {
	      "kind": "text-field",
	      "showIf": { "a": [{ "filled": true }, { "notEquals": "skip" }] },
	      "validation": [{ "required": true, "when": [{ "a": { "equals": "strict" } }] }]
	    }
	  }
	}`)
	doc, err := ParseBytes(data, SourceInline("test"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, _ := doc.Lookup("b")

	wantShow := []RuleGroup{{
		{Field: "a", Operator: OpFilled, Value: true},
		{Field: "a", Operator: OpNotEquals, Value: "skip"},
	}}
	if diff := cmp.Diff(wantShow, b.ShowIf); diff != "" {
		t.Fatalf("showIf mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, b.Validation[0].Dependencies()); diff != "" {
		t.Fatalf("dependencies mismatch (-want +got):\n%s", diff)
	}
	if doc.Sections[0].ID != "main" {
		t.Fatalf("expected implicit main section, got %q", doc.Sections[0].ID)
	}
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":           "   ",
		"root not object": `[1, 2]`,
		"node not object": `{"fields": {"a": 3}}`,
		"rules not list":  `{"fields": {"a": {"kind": "text-field", "validation": {"required": true}}}}`,
		"bad showIf":      `{"fields": {"a": {"kind": "text-field", "showIf": "yes"}}}`,
	}
	for name, input := range cases {
		name, input := name, input
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if _, err := ParseBytes([]byte(input), SourceInline(name)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
