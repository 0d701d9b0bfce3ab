package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formstate/internal/fill"
	"github.com/goliatone/go-formstate/internal/prompt"
	"github.com/goliatone/go-formstate/pkg/attributes"
	"github.com/goliatone/go-formstate/pkg/model"
	"github.com/goliatone/go-formstate/pkg/render"
	"github.com/goliatone/go-formstate/pkg/statecodec"
)

func main() {
	definition := flag.String("definition", "", "YAML form definition")
	source := flag.String("openapi", "", "OpenAPI document whose request schema adds constraints")
	opID := flag.String("operation", "", "operation ID inside the OpenAPI document")
	key := flag.String("signing-key", os.Getenv("FORMSTATE_SIGNING_KEY"), "sign the state round trip with this key")
	attempts := flag.Int("attempts", 3, "rounds before giving up")
	emitState := flag.Bool("emit-state", false, "print the hidden state input after the value")
	verbose := flag.Bool("v", false, "log to stderr")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, options{
		definition:  *definition,
		openapi:     *source,
		operationID: *opID,
		signingKey:  *key,
		attempts:    *attempts,
		emitState:   *emitState,
	}); err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			os.Exit(130)
		}
		fmt.Fprintf(os.Stderr, "formstate: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	definition  string
	openapi     string
	operationID string
	signingKey  string
	attempts    int
	emitState   bool
}

func run(ctx context.Context, logger *slog.Logger, opts options) error {
	def, err := loadDefinition(ctx, opts)
	if err != nil {
		return err
	}
	logger.Debug("definition loaded", "form", def.ID, "constraints", len(def.Constraint))

	codec := statecodec.JSON()
	if opts.signingKey != "" {
		codec = statecodec.Signed([]byte(opts.signingKey))
	}

	session := fill.New(def,
		fill.WithLogger(logger),
		fill.WithMaxAttempts(opts.attempts),
		fill.WithStateCodec(codec),
	)
	defer session.Close()

	value, err := session.Run(ctx, prompt.Survey(os.Stderr))
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode value: %w", err)
	}
	fmt.Println(string(out))

	if opts.emitState {
		state := session.Snapshot().State
		hidden, err := render.StateField(model.ResultState{Validated: state.Validated, ListKeys: state.ListKeys}, codec)
		if err != nil {
			return err
		}
		markup, err := render.RenderHidden([]render.HiddenField{hidden})
		if err != nil {
			return err
		}
		fmt.Println(markup)
	}
	return nil
}

func loadDefinition(ctx context.Context, opts options) (attributes.Definition, error) {
	var def attributes.Definition
	if path := strings.TrimSpace(opts.definition); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return attributes.Definition{}, fmt.Errorf("read definition: %w", err)
		}
		if def, err = attributes.Load(raw); err != nil {
			return attributes.Definition{}, err
		}
	}

	if path := strings.TrimSpace(opts.openapi); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return attributes.Definition{}, fmt.Errorf("read openapi document: %w", err)
		}
		fromSchema, err := attributes.FromOpenAPI(ctx, raw, opts.operationID)
		if err != nil {
			return attributes.Definition{}, err
		}
		if def.ID == "" {
			return fromSchema, nil
		}
		def = def.Merge(fromSchema)
	}

	if def.ID == "" {
		return attributes.Definition{}, errors.New("a -definition or -openapi source is required")
	}
	return def, nil
}
