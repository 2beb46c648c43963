package formengine

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
)

const quickstart = `
id: quickstart
fields:
  role:
    kind: select
    options: [ admin, member ]
  team:
    kind: text-field
    showIf:
      - role: { operator: equals, value: member }
`

func TestNewFormFromFileSystem(t *testing.T) {
	t.Parallel()

	files := fstest.MapFS{"forms/quickstart.yaml": {Data: []byte(quickstart)}}
	form, err := NewForm(context.Background(), schema.SourceFromFS("forms/quickstart.yaml"),
		[]schema.LoaderOption{schema.WithFileSystem(files)})
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	if diff := cmp.Diff([]string{"role"}, form.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if err := form.OnFieldChange("role", "member"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if diff := cmp.Diff([]string{"role", "team"}, form.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	if ParseSource("  ") != nil {
		t.Fatalf("expected nil source for blank input")
	}
	if got := ParseSource("https://example.com/form.json").Kind(); got != schema.SourceKindURL {
		t.Fatalf("expected url source, got %s", got)
	}
	if got := ParseSource("forms/a.yaml").Kind(); got != schema.SourceKindFile {
		t.Fatalf("expected file source, got %s", got)
	}
}

func TestImportOpenAPIFromFile(t *testing.T) {
	t.Parallel()

	doc, err := ImportOpenAPI(context.Background(), schema.SourceFromFile("pkg/openapi/testdata/signup.yaml"), "createAccount", nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, ok := doc.Lookup("email"); !ok {
		t.Fatalf("expected email field in imported document")
	}
}
