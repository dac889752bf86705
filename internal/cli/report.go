package cli

import (
	"github.com/spf13/cobra"
)

func newReportCmd(opts *options) *cobra.Command {
	var input inputFlags

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run the engine and print the full season report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := input.read(cmd)
			if err != nil {
				return err
			}
			sess, err := newSession(cmd, opts)
			if err != nil {
				return err
			}

			report, err := sess.engine.Report(cmd.Context(), snap.League, snap.Participants)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd, report); err != nil {
				return err
			}
			return sess.writeMetrics(cmd, opts)
		},
	}

	input.register(cmd)
	return cmd
}
