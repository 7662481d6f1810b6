package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vecdocs/v1/collection"
	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

func newUpsertCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "upsert COLLECTION",
		Short: "Insert or overwrite documents from a JSON file",
		Long: `Insert or overwrite documents read from a JSON array.

Each document has an id and either text or a vector, plus optional metadata:

  [
    {"id": "a1", "text": "Postgres can do vector search", "metadata": {"lang": "en"}},
    {"id": "a2", "vector": [0.1, 0.2, 0.3]}
  ]

Examples:
  vecdocs upsert articles --file docs.json
  cat docs.json | vecdocs upsert articles -n tenant-a --file -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			return runOnCollection(cmd, args[0], func(ctx context.Context, coll *collection.Collection) error {
				resp, err := coll.Upsert(ctx, vectordb.UpsertRequest{Namespace: namespace, Documents: docs})
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON documents file, - for stdin")
	return cmd
}

func newSearchCmd() *cobra.Command {
	var (
		query           string
		vector          string
		topK            int
		filter          string
		includeMetadata bool
		includeVector   bool
		includeText     bool
	)

	cmd := &cobra.Command{
		Use:   "search COLLECTION",
		Short: "Find the most similar documents",
		Long: `Rank documents by similarity to a query text or vector.

Examples:
  vecdocs search articles --query "vector databases" --top-k 5
  vecdocs search shop --vector "[1,1,0]" --filter '{"price": {"$gte": 100, "$lte": 200}}' --metadata`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := vectordb.SearchRequest{
				Namespace:       namespace,
				Query:           query,
				IncludeMetadata: includeMetadata,
				IncludeVector:   includeVector,
				IncludeText:     includeText,
			}
			if cmd.Flags().Changed("top-k") {
				req.TopK = vectordb.TopK(topK)
			}

			var err error
			if vector != "" {
				if req.Vector, err = parseVector(vector); err != nil {
					return err
				}
			}
			if req.Filter, err = parseObject("filter", filter); err != nil {
				return err
			}

			return runOnCollection(cmd, args[0], func(ctx context.Context, coll *collection.Collection) error {
				resp, err := coll.Search(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "query text, embedded with the collection's model")
	cmd.Flags().StringVar(&vector, "vector", "", "query vector as a JSON array")
	cmd.Flags().IntVarP(&topK, "top-k", "k", vectordb.DefaultTopK, "maximum number of matches")
	cmd.Flags().StringVar(&filter, "filter", "", "metadata filter as a JSON object")
	cmd.Flags().BoolVar(&includeMetadata, "metadata", false, "include metadata in matches")
	cmd.Flags().BoolVar(&includeVector, "vectors", false, "include vectors in matches")
	cmd.Flags().BoolVar(&includeText, "text", false, "include text in matches")
	cmd.MarkFlagsMutuallyExclusive("query", "vector")
	cmd.MarkFlagsOneRequired("query", "vector")
	return cmd
}

func newFetchCmd() *cobra.Command {
	var ids []string

	cmd := &cobra.Command{
		Use:   "fetch COLLECTION",
		Short: "Look documents up by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnCollection(cmd, args[0], func(ctx context.Context, coll *collection.Collection) error {
				resp, err := coll.Fetch(ctx, vectordb.FetchRequest{Namespace: namespace, IDs: ids})
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			})
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "comma separated document ids")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var (
		text     string
		metadata string
	)

	cmd := &cobra.Command{
		Use:   "update COLLECTION ID",
		Short: "Replace a document's text or metadata",
		Long: `Replace the text (re-embedding it) and/or the metadata of one document.

Examples:
  vecdocs update articles a1 --text "updated body"
  vecdocs update shop p50 --metadata '{"price": 500}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := vectordb.UpdateRequest{Namespace: namespace, ID: args[1]}
			if cmd.Flags().Changed("text") {
				req.Text = &text
			}
			if cmd.Flags().Changed("metadata") {
				meta, err := parseObject("metadata", metadata)
				if err != nil {
					return err
				}
				if meta == nil {
					meta = map[string]any{}
				}
				req.Metadata = meta
			}

			return runOnCollection(cmd, args[0], func(ctx context.Context, coll *collection.Collection) error {
				if err := coll.Update(ctx, req); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %s\n", req.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "new document text")
	cmd.Flags().StringVar(&metadata, "metadata", "", "new metadata as a JSON object")
	cmd.MarkFlagsOneRequired("text", "metadata")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	var (
		ids    []string
		filter string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "delete COLLECTION",
		Short: "Delete documents by id, by filter or all of a namespace",
		Long: `Delete documents. Every selector that is given is applied and the
deleted counts are summed.

Examples:
  vecdocs delete articles --ids a1,a2
  vecdocs delete shop --filter '{"price": {"$gt": 300}}'
  vecdocs delete articles -n tenant-b --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseObject("filter", filter)
			if err != nil {
				return err
			}
			req := vectordb.DeleteRequest{Namespace: namespace, IDs: ids, Filter: f, DeleteAll: all}
			if len(req.IDs) == 0 && len(req.Filter) == 0 && !req.DeleteAll {
				return errors.New("one of --ids, --filter or --all is required")
			}

			return runOnCollection(cmd, args[0], func(ctx context.Context, coll *collection.Collection) error {
				resp, err := coll.Delete(ctx, req)
				if err != nil {
					return err
				}
				return printJSON(cmd, resp)
			})
		},
	}

	cmd.Flags().StringSliceVar(&ids, "ids", nil, "comma separated document ids")
	cmd.Flags().StringVar(&filter, "filter", "", "metadata filter as a JSON object")
	cmd.Flags().BoolVar(&all, "all", false, "delete every document in the namespace")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats COLLECTION",
		Short: "Show document counts per namespace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnCollection(cmd, args[0], func(ctx context.Context, coll *collection.Collection) error {
				stats, err := coll.Stats(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, stats)
			})
		},
	}
}
