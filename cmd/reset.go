package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset learner data",
	Long:  "Delete the progress, summaries and event log of a learner. With --all every learner is wiped. LLM request events are kept.",
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		yes, _ := cmd.Flags().GetBool("yes")

		learner := learnerFlag(cmd)
		target := "learner " + learner
		if all {
			learner = ""
			target = "every learner"
		}

		if !yes {
			fmt.Printf("Delete all lesson data for %s? [y/N] ", target)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if a := strings.ToLower(strings.TrimSpace(line)); a != "y" && a != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}

		e, err := openEnv(cmd, false)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.Reset(cmd.Context(), learner); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
		fmt.Printf("Reset %s.\n", target)
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("all", false, "Reset every learner")
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}
