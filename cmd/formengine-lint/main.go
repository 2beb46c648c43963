package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
)

type violation struct {
	file     string
	location string
	message  string
}

func main() {
	flag.Usage = func() {
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [paths...]\n", filepath.Base(os.Args[0])); err != nil {
			panic(err)
		}
		if _, err := fmt.Fprintf(flag.CommandLine.Output(), "\nLint form documents for configuration errors.\n"); err != nil {
			panic(err)
		}
	}
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		paths = []string{"pkg/schema/testdata/signup.yaml"}
	}

	ctx := context.Background()
	var violations []violation
	for _, path := range paths {
		linted, err := lintFile(ctx, path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lint %s: %v\n", path, err)
			os.Exit(1)
		}
		violations = append(violations, linted...)
	}

	if len(violations) > 0 {
		sort.Slice(violations, func(i, j int) bool {
			if violations[i].file == violations[j].file {
				if violations[i].location == violations[j].location {
					return violations[i].message < violations[j].message
				}
				return violations[i].location < violations[j].location
			}
			return violations[i].file < violations[j].file
		})
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s -> %s\n", v.file, v.location, v.message)
		}
		os.Exit(1)
	}
}

// lintFile builds a form from path and reports every diagnostic the engine
// found, using the builtin kinds and predicates.
func lintFile(ctx context.Context, path string) ([]violation, error) {
	doc, err := formengine.LoadDocument(ctx, schema.SourceFromFile(path))
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	form, err := engine.New(doc)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	defer func() { _ = form.Close() }()

	var result []violation
	for _, diag := range form.Diagnostics() {
		result = append(result, violation{
			file:     path,
			location: diag.NodeID,
			message:  fmt.Sprintf("[%s] %s", diag.Code, diag.Message),
		})
	}
	return result, nil
}
