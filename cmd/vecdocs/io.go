package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vecdocs/v1/collection"
	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// run loads the configuration and calls fn with a started manager.
func run(cmd *cobra.Command, fn func(context.Context, *collection.Manager) error) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	return withManager(cmd.Context(), cfg, fn)
}

// runOnCollection is run for commands that operate on one existing collection.
func runOnCollection(cmd *cobra.Command, name string, fn func(context.Context, *collection.Collection) error) error {
	return run(cmd, func(ctx context.Context, m *collection.Manager) error {
		coll, err := m.Collection(ctx, name)
		if err != nil {
			return err
		}
		return fn(ctx, coll)
	})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readDocuments decodes a JSON array of documents from path, or from stdin
// when path is "-". Numbers in metadata keep their literal form.
func readDocuments(stdin io.Reader, path string) ([]vectordb.Document, error) {
	var (
		content []byte
		err     error
	)
	if path == "-" {
		content, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", path, err)
		}
	}

	var docs []vectordb.Document
	if err := decodeJSON(content, &docs); err != nil {
		return nil, fmt.Errorf("invalid documents in %s: %w", path, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("no documents in %s", path)
	}
	return docs, nil
}

func parseVector(s string) ([]float32, error) {
	var v []float32
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("invalid --vector %q: %w", s, err)
	}
	return v, nil
}

// parseObject decodes a JSON object flag. An empty flag yields nil.
func parseObject(flag, s string) (map[string]any, error) {
	if s == "" {
		return nil, nil
	}
	var obj map[string]any
	if err := decodeJSON([]byte(s), &obj); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", flag, err)
	}
	return obj, nil
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value")
	}
	return nil
}
