package engine

import (
	"testing"

	"github.com/goliatone/go-formengine/pkg/schema"
)

func parseDoc(t *testing.T, yaml string) schema.Document {
	t.Helper()
	doc, err := schema.ParseBytes([]byte(yaml), schema.SourceInline(t.Name()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func newForm(t *testing.T, yaml string, opts ...Option) *Form {
	t.Helper()
	form, err := New(parseDoc(t, yaml), opts...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return form
}

const toggleDoc = `
id: toggle
fields:
  a:
    kind: text-field
    validation:
      - required: true
  b:
    kind: text-field
    showIf:
      - a: { operator: equals, value: "yes" }
`
