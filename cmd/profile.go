package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/phasegate/internal/signal"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show a learner's profile across completed lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		learner := learnerFlag(cmd)
		history, err := e.store.SummaryRepo().Profiles(cmd.Context(), learner)
		if err != nil {
			return fmt.Errorf("load profiles: %w", err)
		}

		p := signal.ComputeProfile(history, nil)
		fmt.Printf("Profile for %s (%d completed lessons)\n", learner, len(history))
		fmt.Println(strings.Repeat("─", 48))
		for _, d := range signal.AllDimensions() {
			v := p.Get(d)
			fmt.Printf("%-14s  %3d  %s\n", d.Label(), v, bar(v, 25))
		}
		if len(history) == 0 {
			fmt.Printf("\nNo history yet; every dimension starts at %d.\n", signal.Baseline)
		}
		return nil
	},
}

func bar(v, width int) string {
	filled := v * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
