package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/catalogsearch/internal/output"
)

func newHealthCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report whether the indexes are populated and which model backs them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			eng, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = eng.Close() }()

			status := eng.Health(cmd.Context())

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(status)
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("", "status:           %s", status.Status)
			out.Statusf("", "materials_loaded: %d", status.MaterialsLoaded)
			out.Statusf("", "model:            %s", status.ModelName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
