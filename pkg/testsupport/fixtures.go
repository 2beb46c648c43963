// Package testsupport holds fixture and golden file helpers shared by the
// package tests.
package testsupport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// ReadFixture returns the raw bytes of a fixture file.
func ReadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// LoadDocument decodes a form document fixture using a file source.
func LoadDocument(t *testing.T, path string) schema.Document {
	t.Helper()

	doc, err := LoadDocumentFromPath(path)
	if err != nil {
		t.Fatalf("load document: %v", err)
	}
	return doc
}

// LoadDocumentFromPath returns a Document without requiring testing.T so
// fixtures can be wired in setup functions.
func LoadDocumentFromPath(path string) (schema.Document, error) {
	if path == "" {
		return schema.Document{}, errors.New("testsupport: document path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Document{}, fmt.Errorf("testsupport: read document: %w", err)
	}
	doc, err := schema.ParseBytes(data, schema.SourceFromFile(path))
	if err != nil {
		return schema.Document{}, fmt.Errorf("testsupport: parse document: %w", err)
	}
	return doc, nil
}

// Outline renders the node tree as "id:kind" lines indented two spaces per
// level. Golden files compare outlines instead of full structs so diffs stay
// readable.
func Outline(doc schema.Document) string {
	var b strings.Builder
	var write func(nodes []*schema.Node, depth int)
	write = func(nodes []*schema.Node, depth int) {
		for _, node := range nodes {
			if node == nil {
				continue
			}
			fmt.Fprintf(&b, "%s%s:%s\n", strings.Repeat("  ", depth), node.ID, node.Kind)
			if node.Children != nil {
				write(node.Children.List(), depth+1)
			}
		}
	}
	write(doc.Roots(), 0)
	return b.String()
}

// MustReadGolden reads a golden file and returns its string content.
func MustReadGolden(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}
