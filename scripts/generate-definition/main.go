package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/goliatone/go-formstate/pkg/attributes"
)

func main() {
	var (
		schemaPath  = flag.String("schema", "pkg/attributes/testdata/openapi.yaml", "OpenAPI schema path")
		operationID = flag.String("operation", "createSignup", "operation ID to snapshot")
		outputPath  = flag.String("output", "pkg/attributes/testdata/openapi_definition.golden.json", "output path for the serialized definition")
	)
	flag.Parse()

	raw, err := os.ReadFile(*schemaPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read schema: %v\n", err)
		os.Exit(1)
	}

	def, err := attributes.FromOpenAPI(context.Background(), raw, *operationID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to derive definition: %v\n", err)
		os.Exit(1)
	}
	if violations := def.Lint(); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintf(os.Stderr, "%s: %s\n", v.Name, v.Message)
		}
		os.Exit(1)
	}

	payload, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode definition: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*outputPath, append(payload, '\n'), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write definition: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Wrote definition snapshot to %s\n", *outputPath)
}
