package cli

import (
	"github.com/spf13/cobra"
)

// stageSummary describes one configured stage in validate output.
type stageSummary struct {
	ID    string   `json:"id"`
	Units []string `json:"units"`
}

// validateSummary is printed when a configuration loads cleanly.
type validateSummary struct {
	Name    string         `json:"name"`
	Version string         `json:"version"`
	Hash    string         `json:"hash"`
	Stages  []stageSummary `json:"stages"`
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check an engine configuration and print its stage layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := loadDefinition(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}

			summary := validateSummary{
				Name:    def.Config.Metadata.Name,
				Version: def.Config.Version,
				Hash:    def.Hash,
				Stages:  make([]stageSummary, 0, len(def.Config.Stages)),
			}
			for _, stage := range def.Config.Stages {
				summary.Stages = append(summary.Stages, stageSummary{ID: stage.ID, Units: stage.Units})
			}
			return writeJSON(cmd, summary)
		},
	}
}
