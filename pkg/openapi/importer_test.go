package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/testsupport"
)

func readFixture(t *testing.T) []byte {
	t.Helper()
	return testsupport.ReadFixture(t, "testdata/signup.yaml")
}

func TestImporterOperations(t *testing.T) {
	t.Parallel()

	ops, err := NewImporter().Operations(context.Background(), readFixture(t))
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	var ids []string
	for _, op := range ops {
		ids = append(ids, op.ID)
	}
	if diff := cmp.Diff([]string{"createAccount", "listAccounts"}, ids); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestImporterBuildsDocument(t *testing.T) {
	t.Parallel()

	doc, err := NewImporter().Import(context.Background(), readFixture(t), "createAccount")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if doc.ID != "createAccount" {
		t.Fatalf("unexpected id %q", doc.ID)
	}

	var order []string
	for _, node := range doc.Roots() {
		order = append(order, node.ID)
	}
	want := []string{"email", "plan", "address", "newsletter", "seats", "tags"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("root order mismatch (-want +got):\n%s", diff)
	}

	kinds := make(map[string]string)
	for _, node := range schema.Flatten(doc.Roots()) {
		kinds[node.ID] = node.Kind
	}
	wantKinds := map[string]string{
		"email":            "email-field",
		"plan":             "select",
		"address":          "fieldset",
		"address.street":   "text-field",
		"address.zip_code": "text-field",
		"newsletter":       "switch",
		"seats":            "numeric-field",
		"tags":             "chips",
	}
	if diff := cmp.Diff(wantKinds, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}

	email, _ := doc.Lookup("email")
	wantRules := []schema.Rule{
		{Kind: schema.RuleRequired, Value: true},
		{Kind: schema.RuleCustom, Value: "email"},
	}
	if diff := cmp.Diff(wantRules, email.Validation); diff != "" {
		t.Fatalf("email rules mismatch (-want +got):\n%s", diff)
	}

	seats, _ := doc.Lookup("seats")
	if diff := cmp.Diff([]schema.Rule{{Kind: schema.RuleMin, Value: 1.0}, {Kind: schema.RuleMax, Value: 50.0}}, seats.Validation); diff != "" {
		t.Fatalf("seats rules mismatch (-want +got):\n%s", diff)
	}

	zip, _ := doc.Lookup("address.zip_code")
	if zip.Label != "Zip code" {
		t.Fatalf("unexpected label %q", zip.Label)
	}

	if diff := cmp.Diff(map[string]any{"plan": "free", "newsletter": true}, doc.DefaultValues); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
	if diags := schema.Check(doc); len(diags) != 0 {
		t.Fatalf("imported document has diagnostics: %v", diags)
	}
}

func TestImporterOutlineGolden(t *testing.T) {
	t.Parallel()

	doc, err := NewImporter().Import(context.Background(), readFixture(t), "createAccount")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	got := testsupport.Outline(doc)
	golden := "testdata/createAccount.outline.golden"
	if testsupport.WriteMaybeGolden(t, golden, []byte(got)) {
		return
	}
	if diff := cmp.Diff(testsupport.MustReadGolden(t, golden), got); diff != "" {
		t.Fatalf("outline mismatch (-want +got):\n%s", diff)
	}
}

func TestImporterErrors(t *testing.T) {
	t.Parallel()

	imp := NewImporter()
	if _, err := imp.Import(context.Background(), readFixture(t), "deleteAccount"); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
	if _, err := imp.Import(context.Background(), readFixture(t), "listAccounts"); !errors.Is(err, ErrNoRequestBody) {
		t.Fatalf("expected ErrNoRequestBody, got %v", err)
	}
	if _, err := imp.Import(context.Background(), nil, "x"); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}
