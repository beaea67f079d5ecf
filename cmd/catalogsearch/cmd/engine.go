package cmd

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/catalogsearch/internal/config"
	"github.com/Aman-CERP/catalogsearch/internal/engine"
)

// openEngine loads the effective configuration for configDir and builds
// an Engine from it. Every subcommand that touches the catalog goes
// through this so flag parsing, config loading, and engine construction
// stay in one place.
func openEngine(ctx context.Context) (*engine.Engine, *config.Config, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	eng, err := engine.New(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start engine: %w", err)
	}
	return eng, cfg, nil
}
