package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalogsearch/internal/logging"
	"github.com/Aman-CERP/catalogsearch/internal/output"
)

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage the BM25 and vector indexes",
	}

	cmd.AddCommand(newIndexAddCmd())
	cmd.AddCommand(newIndexUpdateCmd())
	cmd.AddCommand(newIndexRebuildCmd())

	return cmd
}

func newIndexAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <doc-id>",
		Short: "Index a single document already present in the document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexOne(cmd, args[0], false)
		},
	}
}

func newIndexUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <doc-id>",
		Short: "Recompute a document's embedding and refresh both indexes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexOne(cmd, args[0], true)
		},
	}
}

func runIndexOne(cmd *cobra.Command, docID string, update bool) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if _, cleanup, err := logging.Setup(logCfg); err == nil {
		defer cleanup()
	}

	eng, _, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	out := output.New(cmd.OutOrStdout())

	if update {
		slog.Info("index_update_started", slog.String("doc_id", docID))
		if err := eng.UpdateOne(cmd.Context(), docID); err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		out.Successf("Updated %s", docID)
		return nil
	}

	slog.Info("index_add_started", slog.String("doc_id", docID))
	if err := eng.AddOne(cmd.Context(), docID); err != nil {
		return fmt.Errorf("add failed: %w", err)
	}
	out.Successf("Indexed %s", docID)
	return nil
}

func newIndexRebuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Reindex the entire document store from scratch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logCfg := logging.DefaultConfig()
			logCfg.WriteToStderr = false
			if _, cleanup, err := logging.Setup(logCfg); err == nil {
				defer cleanup()
			}

			eng, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			out := output.New(cmd.OutOrStdout())
			slog.Info("index_rebuild_started")
			if err := eng.Rebuild(cmd.Context()); err != nil {
				return fmt.Errorf("rebuild failed: %w", err)
			}

			health := eng.Health(cmd.Context())
			slog.Info("index_rebuild_complete", slog.Int("materials", health.MaterialsLoaded))
			out.Successf("Rebuilt indexes: %d materials loaded", health.MaterialsLoaded)
			return nil
		},
	}
}
