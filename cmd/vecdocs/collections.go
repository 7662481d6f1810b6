package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/vecdocs/v1/collection"
	"github.com/Aleph-Alpha/vecdocs/v1/vectordb"
)

// newCollectionCmd groups the collection lifecycle commands.
func newCollectionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"collections"},
		Short:   "Create, describe, list and drop collections",
	}
	cmd.AddCommand(
		newCreateCollectionCmd(),
		newDescribeCollectionCmd(),
		newListCollectionsCmd(),
		newDropCollectionCmd(),
	)
	return cmd
}

func newCreateCollectionCmd() *cobra.Command {
	var (
		dimension int
		metric    string
		model     string
	)

	cmd := &cobra.Command{
		Use:   "create NAME",
		Short: "Create a collection",
		Long: `Create a collection table and its HNSW index.

Examples:
  vecdocs collection create articles --dimension 1536 --metric cosine
  vecdocs collection create faq --dimension 384 --model all-minilm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := vectordb.CollectionConfig{
				Dimension:      dimension,
				Metric:         vectordb.Metric(metric),
				EmbeddingModel: model,
			}
			return run(cmd, func(ctx context.Context, m *collection.Manager) error {
				coll, err := m.CreateCollection(ctx, args[0], cfg)
				if err != nil {
					return err
				}
				return printJSON(cmd, vectordb.Collection{Name: coll.Name(), Config: coll.Config()})
			})
		},
	}

	cmd.Flags().IntVar(&dimension, "dimension", 0, "vector dimension")
	cmd.Flags().StringVar(&metric, "metric", string(vectordb.MetricCosine), "distance metric: cosine, euclidean or dot_product")
	cmd.Flags().StringVar(&model, "model", "", "embedding model for text documents and queries")
	_ = cmd.MarkFlagRequired("dimension")
	return cmd
}

func newDescribeCollectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe NAME",
		Short: "Show a collection's configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, m *collection.Manager) error {
				desc, err := m.DescribeCollection(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, desc)
			})
		},
	}
}

func newListCollectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, func(ctx context.Context, m *collection.Manager) error {
				list, err := m.ListCollections(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, list)
			})
		},
	}
}

func newDropCollectionCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop NAME",
		Short: "Drop a collection and all its documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop %q without --yes", args[0])
			}
			return run(cmd, func(ctx context.Context, m *collection.Manager) error {
				if err := m.DropCollection(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dropped %s\n", args[0])
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the drop")
	return cmd
}
