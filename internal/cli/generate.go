package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-tally/internal/application"
	"github.com/ahrav/go-tally/internal/testutils"
)

func newGenerateCmd() *cobra.Command {
	var (
		seed   int64
		output string
		format string
	)
	opts := testutils.DefaultSeasonOptions()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic season snapshot for testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var gen *testutils.SeasonGenerator
			if cmd.Flags().Changed("seed") {
				gen = testutils.NewSeasonGenerator(seed)
			} else {
				gen = testutils.NewSeasonGenerator()
			}

			league, participants := gen.Season(opts)

			f := application.Format(format)
			if format == "" {
				f = application.FormatJSON
				if output != "-" {
					f = application.FormatFromPath(output)
				}
			}
			data, err := application.EncodeSnapshot(application.Snapshot{League: league, Participants: participants}, f)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return fmt.Errorf("write snapshot: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (seed %d, %d contestants, %d participants)\n",
				output, gen.Seed(), len(league.ContestantNames), len(participants))
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 0, "generator seed (default: current time)")
	cmd.Flags().StringVarP(&output, "output", "o", "-", `output file ("-" for stdout)`)
	cmd.Flags().StringVar(&format, "format", "", "snapshot format: json or yaml (default: from file extension)")
	cmd.Flags().IntVar(&opts.Contestants, "contestants", opts.Contestants, "cast size")
	cmd.Flags().IntVar(&opts.Participants, "participants", opts.Participants, "number of league members")
	cmd.Flags().IntVar(&opts.Weeks, "weeks", opts.Weeks, "elimination weeks played")
	cmd.Flags().IntVar(&opts.TiePercent, "tie-percent", opts.TiePercent, "chance in percent that a week is a double elimination")
	cmd.Flags().BoolVar(&opts.Noise, "noise", false, "add misspelled names and unknown bonus categories")
	return cmd
}
