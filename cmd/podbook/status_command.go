package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"podbook/internal/fileutil"
	"podbook/internal/queue"
	"podbook/internal/textutil"
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status [podcast-title]",
		Short: "Show per-episode pipeline state",
		Long: `Status reads the persisted episode state under the library directory.
Without arguments it lists every podcast the library holds; with a title it
shows each episode's state, publication date, and any recorded error.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return printLibraryStatus(cmd, cfg.Paths.LibraryDir)
			}
			return printPodcastStatus(cmd, cfg.Paths.LibraryDir, args[0])
		},
	}
}

func printLibraryStatus(cmd *cobra.Command, libraryDir string) error {
	entries, err := os.ReadDir(libraryDir)
	if err != nil {
		return fmt.Errorf("read library %s: %w", libraryDir, err)
	}

	var rows [][]string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		dbPath := filepath.Join(libraryDir, entry.Name(), "podbook.db")
		if !fileutil.Exists(dbPath) {
			continue
		}
		store, err := queue.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open state for %s: %w", entry.Name(), err)
		}
		summary, err := store.Summarize(cmd.Context())
		store.Close()
		if err != nil {
			return fmt.Errorf("summarize %s: %w", entry.Name(), err)
		}
		rows = append(rows, []string{
			entry.Name(),
			strconv.Itoa(summary.Total),
			strconv.Itoa(summary.Chaptered),
			strconv.Itoa(summary.Skipped),
			strconv.Itoa(summary.Failed),
		})
	}

	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintf(out, "No podcasts in %s\n", libraryDir)
		return nil
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Podcast", "Episodes", "Chaptered", "Skipped", "Failed"},
		rows, 2, 3, 4, 5))
	return nil
}

func printPodcastStatus(cmd *cobra.Command, libraryDir, title string) error {
	dirName := textutil.SanitizeTitle(title)
	dbPath := filepath.Join(libraryDir, dirName, "podbook.db")
	if !fileutil.Exists(dbPath) {
		return fmt.Errorf("no pipeline state for %q (looked in %s)", title, filepath.Dir(dbPath))
	}

	store, err := queue.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer store.Close()

	items, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list episodes: %w", err)
	}

	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	rows := make([][]string, 0, len(items))
	for _, item := range items {
		published := ""
		if !item.Published.IsZero() {
			published = item.Published.Format("2006-01-02")
		}
		rows = append(rows, []string{
			published,
			item.Title,
			renderStatus(item.Status, colorize),
			item.ErrorMessage,
		})
	}

	fmt.Fprintln(out, renderTable([]string{"Published", "Episode", "State", "Error"}, rows))
	return nil
}

func renderStatus(status queue.Status, colorize bool) string {
	if !colorize {
		return string(status)
	}
	switch status {
	case queue.StatusChaptered:
		return ansiGreen + string(status) + ansiReset
	case queue.StatusFailed:
		return ansiRed + string(status) + ansiReset
	case queue.StatusSkipped:
		return ansiYellow + string(status) + ansiReset
	default:
		return string(status)
	}
}
