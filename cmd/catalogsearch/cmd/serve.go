package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalogsearch/internal/engine"
	"github.com/Aman-CERP/catalogsearch/internal/logging"
)

// serveRequest is one line of JSON read from stdin in serve mode.
type serveRequest struct {
	Op       string  `json:"op"`
	Query    string  `json:"query,omitempty"`
	DocID    string  `json:"doc_id,omitempty"`
	TopK     int     `json:"top_k,omitempty"`
	MinScore float64 `json:"min_score,omitempty"`
	WSem     float64 `json:"w_sem,omitempty"`
	WKw      float64 `json:"w_kw,omitempty"`
}

// serveResponse is one line of JSON written to stdout in response.
type serveResponse struct {
	OK     bool                   `json:"ok"`
	Error  string                 `json:"error,omitempty"`
	Search *engine.SearchResponse `json:"search,omitempty"`
	Health *engine.HealthStatus   `json:"health,omitempty"`
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a line-oriented request/response loop over stdin/stdout",
		Long: `serve reads one JSON request per line from stdin and writes one
JSON response per line to stdout. Stdout is reserved exclusively for
responses; all diagnostic output goes to the debug log instead.

Request shape: {"op": "search|add|update|rebuild|health", ...}.
One request per line, newline-terminated. The loop exits on EOF.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	// Stdout is reserved exclusively for the request/response protocol;
	// everything else goes to the debug log.
	cleanup, err := logging.SetupServeMode()
	if err == nil {
		defer cleanup()
	}

	eng, _, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	in := bufio.NewScanner(cmd.InOrStdin())
	in.Buffer(make([]byte, 64*1024), 1024*1024)
	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)

	slog.Info("serve_started")
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" {
			continue
		}
		resp := handleServeLine(ctx, eng, line)
		if err := enc.Encode(resp); err != nil {
			slog.Error("serve_write_failed", slog.String("error", err.Error()))
		}
	}
	if err := in.Err(); err != nil {
		return fmt.Errorf("serve read failed: %w", err)
	}
	slog.Info("serve_stopped")
	return nil
}

func handleServeLine(ctx context.Context, eng *engine.Engine, line string) serveResponse {
	var req serveRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return serveResponse{OK: false, Error: fmt.Sprintf("invalid request: %v", err)}
	}

	switch req.Op {
	case "search":
		resp, err := eng.Search(ctx, req.Query, req.TopK, req.MinScore, req.WSem, req.WKw)
		if err != nil {
			return serveResponse{OK: false, Error: err.Error()}
		}
		return serveResponse{OK: true, Search: &resp}
	case "add":
		if err := eng.AddOne(ctx, req.DocID); err != nil {
			return serveResponse{OK: false, Error: err.Error()}
		}
		return serveResponse{OK: true}
	case "update":
		if err := eng.UpdateOne(ctx, req.DocID); err != nil {
			return serveResponse{OK: false, Error: err.Error()}
		}
		return serveResponse{OK: true}
	case "rebuild":
		if err := eng.Rebuild(ctx); err != nil {
			return serveResponse{OK: false, Error: err.Error()}
		}
		return serveResponse{OK: true}
	case "health":
		health := eng.Health(ctx)
		return serveResponse{OK: true, Health: &health}
	default:
		return serveResponse{OK: false, Error: fmt.Sprintf("unknown op %q", req.Op)}
	}
}
