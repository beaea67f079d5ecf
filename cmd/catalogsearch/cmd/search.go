package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalogsearch/internal/logging"
	"github.com/Aman-CERP/catalogsearch/internal/output"
)

type searchOptions struct {
	limit    int
	minScore float64
	wSem     float64
	wKw      float64
	format   string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed materials catalog",
		Long: `Search the indexed materials catalog using hybrid search.

Combines BM25 keyword scoring and cosine similarity over document
embeddings, normalizing each to [0,1] before a weighted sum.

Examples:
  catalogsearch search "43 grade cement"
  catalogsearch search "tmt steel bars" --limit 5
  catalogsearch search "waterproofing" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results (1-50)")
	cmd.Flags().Float64Var(&opts.minScore, "min-score", 0.0, "Minimum combined score to include (0-1)")
	cmd.Flags().Float64Var(&opts.wSem, "w-sem", 0.5, "Weight applied to the semantic score (0-1)")
	cmd.Flags().Float64Var(&opts.wKw, "w-kw", 0.5, "Weight applied to the keyword score (0-1)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, opts searchOptions) error {
	logCfg := logging.DefaultConfig()
	logCfg.WriteToStderr = false
	if _, cleanup, err := logging.Setup(logCfg); err == nil {
		defer cleanup()
	}

	slog.Info("search_started", slog.String("query", query), slog.Int("limit", opts.limit))

	eng, _, err := openEngine(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	resp, err := eng.Search(cmd.Context(), query, opts.limit, opts.minScore, opts.wSem, opts.wKw)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	slog.Info("search_complete", slog.Int("results", resp.Total))

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp.Results)
	}

	out := output.New(cmd.OutOrStdout())
	if resp.Total == 0 {
		out.Status("", fmt.Sprintf("No results found for %q", query))
		return nil
	}

	out.Statusf("", "Found %d results for %q:", resp.Total, query)
	out.Newline()
	for i, r := range resp.Results {
		out.Statusf("", "%d. %s  %s  (combined: %.3f, kw: %.3f, sem: %.3f)",
			i+1, r.DocID, r.Metadata.Title, r.CombinedScore, r.KeywordScore, r.SemanticScore)
		if r.Metadata.Description != "" {
			out.Status("", "   "+r.Metadata.Description)
		}
	}
	return nil
}
