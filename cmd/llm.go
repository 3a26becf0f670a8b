package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/phasegate/internal/llm"
	"github.com/abhisek/phasegate/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

var llmCmd = &cobra.Command{
	Use:   "llm",
	Short: "Inspect recorded grading requests",
}

var llmListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent LLM requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		purpose, _ := cmd.Flags().GetString("purpose")
		failed, _ := cmd.Flags().GetBool("failed")

		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		records, err := e.store.EventRepo().QueryLLMEvents(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query LLM events: %w", err)
		}

		t := newTable([]string{"ID", "Time", "Purpose", "Provider", "Model", "In", "Out", "ms", ""}, 0, 5, 6, 7)
		shown := 0
		for _, r := range records {
			if purpose != "" && r.Purpose != purpose {
				continue
			}
			if failed && r.Success {
				continue
			}
			status := "ok"
			if !r.Success {
				status = r.ErrorKind
				if status == "" {
					status = "failed"
				}
			}
			t.Row(
				strconv.Itoa(r.ID),
				r.Timestamp.Local().Format(timeLayout),
				r.Purpose,
				r.Provider,
				truncate(r.Model, 28),
				strconv.Itoa(r.InputTokens),
				strconv.Itoa(r.OutputTokens),
				strconv.FormatInt(r.LatencyMs, 10),
				status,
			)
			shown++
		}
		if shown == 0 {
			fmt.Println("No LLM requests recorded.")
			return nil
		}
		printTable(t)
		return nil
	},
}

var llmViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the prompt and reply of one request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid id %q", args[0])
		}

		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		r, err := e.store.EventRepo().GetLLMEvent(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("get LLM event: %w", err)
		}
		if r == nil {
			return fmt.Errorf("no LLM event with id %d", id)
		}

		fields := newTable(nil)
		fields.Rows(
			[]string{"Time", r.Timestamp.Local().Format(timeLayout)},
			[]string{"Purpose", r.Purpose},
			[]string{"Provider", r.Provider + " / " + r.Model},
			[]string{"Tokens", fmt.Sprintf("%d in, %d out", r.InputTokens, r.OutputTokens)},
			[]string{"Latency", fmt.Sprintf("%dms", r.LatencyMs)},
		)
		if r.ErrorMessage != "" {
			fields.Row("Error", strings.TrimSpace(r.ErrorKind+" "+r.ErrorMessage))
		}
		fmt.Printf("Request %d\n", r.ID)
		printTable(fields)

		section("Prompt", r.RequestBody)
		section("Reply", r.ResponseBody)
		return nil
	},
}

func section(title, body string) {
	fmt.Printf("\n── %s %s\n", title, strings.Repeat("─", max(0, 56-len(title))))
	if body == "" {
		body = "(empty)"
	}
	fmt.Println(strings.TrimRight(body, "\n"))
}

var llmStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize token usage and estimated cost",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd, true)
		if err != nil {
			return err
		}
		defer e.Close()

		ctx := cmd.Context()
		events := e.store.EventRepo()
		byPurpose, err := events.LLMUsageByPurpose(ctx)
		if err != nil {
			return fmt.Errorf("usage by purpose: %w", err)
		}
		if len(byPurpose) == 0 {
			fmt.Println("No LLM requests recorded.")
			return nil
		}
		byModel, err := events.LLMUsageByModel(ctx)
		if err != nil {
			return fmt.Errorf("usage by model: %w", err)
		}

		var calls, failures, in, out int
		pt := newTable([]string{"Purpose", "Calls", "Failed", "Input", "Output", "Avg ms"}, 1, 2, 3, 4, 5)
		for _, u := range byPurpose {
			pt.Row(u.Purpose, strconv.Itoa(u.Calls), strconv.Itoa(u.Failures), strconv.Itoa(u.InputTokens),
				strconv.Itoa(u.OutputTokens), strconv.FormatInt(u.AvgLatencyMs, 10))
			calls += u.Calls
			failures += u.Failures
			in += u.InputTokens
			out += u.OutputTokens
		}
		pt.Row("total", strconv.Itoa(calls), strconv.Itoa(failures), strconv.Itoa(in), strconv.Itoa(out), "")
		printTable(pt)

		var cost float64
		var unpriced []string
		mt := newTable([]string{"Model", "Calls", "Input", "Output", "Cost"}, 1, 2, 3, 4)
		for _, u := range byModel {
			c := "?"
			if price, ok := llm.LookupPrice(u.Model); ok {
				v := price.Cost(u.InputTokens, u.OutputTokens)
				cost += v
				c = formatCost(v)
			} else {
				unpriced = append(unpriced, u.Model)
			}
			mt.Row(truncate(u.Model, 32), strconv.Itoa(u.Calls), strconv.Itoa(u.InputTokens),
				strconv.Itoa(u.OutputTokens), c)
		}
		label := "total"
		if len(unpriced) > 0 {
			label = "total (partial)"
		}
		mt.Row(label, "", "", "", formatCost(cost))
		fmt.Println()
		printTable(mt)

		if len(unpriced) > 0 {
			fmt.Printf("\nNo price known for: %s\n", strings.Join(unpriced, ", "))
		}
		return nil
	},
}

func init() {
	llmListCmd.Flags().IntP("limit", "n", 20, "Number of requests to show")
	llmListCmd.Flags().StringP("purpose", "p", "", "Only show this purpose (e.g. reflection-audit)")
	llmListCmd.Flags().Bool("failed", false, "Only show failed requests")

	llmCmd.AddCommand(llmListCmd, llmViewCmd, llmStatsCmd)
}
