package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formengine"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/prompt"
	"github.com/goliatone/go-formengine/pkg/schema"
)

func main() {
	source := flag.String("schema", "", "form document (or OpenAPI document with -operation) path or URL")
	opID := flag.String("operation", "", "OpenAPI operation ID; treats -schema as an OpenAPI document")
	format := flag.String("format", "json", "output format: json, form or pretty")
	output := flag.String("output", "", "output file (stdout if empty)")
	policy := flag.String("policy", "clear", "hidden field policy: clear or preserve")
	attempts := flag.Int("attempts", 3, "submit attempts before giving up")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	logger := newLogger(*verbose)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, config{
		source:   *source,
		opID:     *opID,
		format:   prompt.OutputFormat(*format),
		output:   *output,
		policy:   *policy,
		attempts: *attempts,
	}); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		logger.Error("form failed", zap.Error(err))
		os.Exit(1)
	}
}

type config struct {
	source   string
	opID     string
	format   prompt.OutputFormat
	output   string
	policy   string
	attempts int
}

func run(ctx context.Context, logger *zap.Logger, cfg config) error {
	src := formengine.ParseSource(cfg.source)
	if src == nil {
		return fmt.Errorf("invalid source: %q", cfg.source)
	}
	loaderOpts := []schema.LoaderOption{schema.WithHTTPFallback(30 * time.Second)}

	var (
		doc schema.Document
		err error
	)
	if cfg.opID != "" {
		doc, err = formengine.ImportOpenAPI(ctx, src, cfg.opID, loaderOpts)
	} else {
		doc, err = formengine.LoadDocument(ctx, src, loaderOpts...)
	}
	if err != nil {
		return err
	}

	hidden := engine.ClearOnHide
	if cfg.policy == "preserve" {
		hidden = engine.Preserve
	}
	form, err := engine.New(doc,
		engine.WithLogger(logger),
		engine.WithHiddenPolicy(hidden),
	)
	if err != nil {
		return err
	}
	defer func() { _ = form.Close() }()

	runner := prompt.New(
		prompt.WithDriver(prompt.NewSurveyDriver(os.Stderr)),
		prompt.WithOutputFormat(cfg.format),
		prompt.WithMaxAttempts(cfg.attempts),
	)
	payload, err := runner.Run(ctx, form)
	if err != nil {
		return err
	}
	logger.Debug("form submitted", zap.String("content_type", runner.ContentType()), zap.Int("bytes", len(payload)))

	if cfg.output != "" {
		if err := os.WriteFile(cfg.output, payload, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Payload written to %s\n", cfg.output)
		return nil
	}
	fmt.Println(string(payload))
	return nil
}

func newLogger(verbose bool) *zap.Logger {
	var (
		logger *zap.Logger
		err    error
	)
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.OutputPaths = []string{"stderr"}
		logger, err = cfg.Build()
	}
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
