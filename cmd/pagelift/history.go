package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pagelift-ai/pagelift/internal/config"
	"github.com/pagelift-ai/pagelift/internal/journal"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs from the local journal",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum runs to list")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output in JSON format")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if !cfg.Journal.Enabled {
		return fmt.Errorf("journal is disabled; enable it in config or set PAGELIFT_JOURNAL=1")
	}

	store, err := journal.Open(cfg.Journal.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	if historyJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	headers := []string{"STARTED", "JOB", "STATUS", "ERROR", "ARTIFACTS", "DURATION"}
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, e := range entries {
		errCode := "-"
		if e.ErrorCode != nil {
			errCode = string(*e.ErrorCode)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%dms\n",
			e.StartedAt, e.JobID, e.Status, errCode, e.ArtifactCount, e.DurationMs)
	}
	return w.Flush()
}
