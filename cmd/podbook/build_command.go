package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"podbook/internal/workflow"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var start int
	var end int

	cmd := &cobra.Command{
		Use:   "build <feed-url>",
		Short: "Fetch, transcribe, and assemble a podcast into an EPUB",
		Long: `Build downloads the podcast feed, sorts episodes oldest-first, and
processes the selected [start, end) range: each episode's audio is fetched,
transcribed, and recorded as one chapter. Interrupted or partially failed
runs can be re-run; completed episodes are not fetched or transcribed again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if start < 0 {
				return fmt.Errorf("--start must be zero or positive, got %d", start)
			}
			if end >= 0 && end < start {
				return fmt.Errorf("--end (%d) must not be smaller than --start (%d)", end, start)
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cfg)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			manager := workflow.NewManager(cfg, logger)
			summary, err := manager.Run(runCtx, args[0], start, end)
			if err != nil {
				return err
			}

			printRunSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().IntVar(&start, "start", 0, "Index of the first episode to include (chronological, 0-based)")
	cmd.Flags().IntVar(&end, "end", -1, "Index just past the last episode to include; -1 means all remaining")
	return cmd
}

func printRunSummary(cmd *cobra.Command, summary *workflow.Summary) {
	out := cmd.OutOrStdout()

	rows := [][]string{
		{"Selected", strconv.Itoa(summary.Selected)},
		{"Chapters", strconv.Itoa(summary.Chaptered)},
		{"Reused", strconv.Itoa(summary.Reused)},
		{"Skipped", strconv.Itoa(summary.Skipped)},
		{"Failed", strconv.Itoa(summary.Failed)},
	}
	fmt.Fprintf(out, "%s\n", summary.PodcastTitle)
	fmt.Fprintln(out, renderTable([]string{"Stage", "Count"}, rows, 2))
	fmt.Fprintf(out, "Wrote %s\n", summary.OutputPath)
}
