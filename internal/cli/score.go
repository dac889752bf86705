package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newScoreCmd(opts *options) *cobra.Command {
	var (
		input       inputFlags
		participant string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Print each participant's points breakdown",
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

			participants := snap.Participants
			if participant != "" {
				participants = nil
				for _, p := range snap.Participants {
					if p.ID == participant {
						participants = append(participants, p)
					}
				}
				if len(participants) == 0 {
					return fmt.Errorf("participant %q not found in snapshot", participant)
				}
			}

			reports, err := sess.engine.ScoreAll(cmd.Context(), snap.League, participants)
			if err != nil {
				return err
			}

			if err := writeJSON(cmd, reports); err != nil {
				return err
			}
			return sess.writeMetrics(cmd, opts)
		},
	}

	input.register(cmd)
	cmd.Flags().StringVarP(&participant, "participant", "p", "", "score only the participant with this ID")
	return cmd
}
