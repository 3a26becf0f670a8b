package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List a learner's lesson summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		learner := learnerFlag(cmd)
		sums, err := e.store.SummaryRepo().List(cmd.Context(), learner, limit)
		if err != nil {
			return fmt.Errorf("list summaries: %w", err)
		}
		if len(sums) == 0 {
			fmt.Printf("No lessons recorded for %s.\n", learner)
			return nil
		}

		t := newTable([]string{"Finished", "Lesson", "Phase", "Tier", "Pre", "Post", "Delta", "Rewinds", "Flags"}, 4, 5, 6, 7, 8)
		for _, s := range sums {
			tier := "-"
			if s.Completed {
				tier = string(s.Tier)
			}
			t.Row(
				s.FinishedAt.Local().Format("2006-01-02 15:04"),
				truncate(s.LessonID, 24),
				s.FinalPhase.String(),
				tier,
				fmt.Sprintf("%.0f", s.Pre),
				fmt.Sprintf("%.0f", s.Post),
				fmt.Sprintf("%+.0f", s.Delta),
				strconv.Itoa(s.RewindAttempts),
				strconv.Itoa(s.ViolationCount),
			)
		}
		printTable(t)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of lessons to show")
}
