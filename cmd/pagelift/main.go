// Package main provides the pagelift CLI: a harness around one call into the
// external document-conversion engine, with deadline enforcement, lifecycle
// events, and a persisted result manifest.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pagelift-ai/pagelift/internal/config"
	"github.com/pagelift-ai/pagelift/internal/engine"
	"github.com/pagelift-ai/pagelift/internal/events"
	"github.com/pagelift-ai/pagelift/internal/harness"
	"github.com/pagelift-ai/pagelift/internal/job"
	"github.com/pagelift-ai/pagelift/internal/journal"
	"github.com/pagelift-ai/pagelift/internal/observability"
)

const version = "0.4.0"

var (
	// Global flags
	cfgFile string
	verbose bool

	// Job flags
	inputPath      string
	outputDir      string
	jobID          string
	backend        string
	method         string
	lang           string
	startPage      int
	endPage        int
	formulaEnabled bool
	tableEnabled   bool
	device         string
	virtualVRAM    int
	modelSource    string
	serverURL      string
	timeoutMs      int64
	jsonlEnabled   bool

	// exitCode carries the run outcome out of RunE; cobra only knows
	// success or error, the contract knows six exit codes.
	exitCode int
)

var rootCmd = &cobra.Command{
	Use:     "pagelift",
	Short:   "Convert documents with the pagelift engine under a supervised job harness",
	Version: version,
	Long: `pagelift wraps a single call into the document-conversion engine with
deadline enforcement, signal-based cancellation, a JSONL lifecycle event
stream on stdout, and a result.json manifest in the output directory.

Exit codes: 0 succeeded, 1 failed, 2 invalid input, 3 output unwritable,
4 cancelled, 5 timeout.`,
	SilenceUsage: true,
	RunE:         runJob,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: env vars only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Flags().StringVar(&inputPath, "input", "", "input file path or directory (required)")
	rootCmd.Flags().StringVar(&outputDir, "output", "", "output directory (required)")
	rootCmd.Flags().StringVar(&jobID, "job-id", "", "job identifier (default: generated)")
	rootCmd.Flags().StringVar(&backend, "backend", "pipeline", "parsing backend")
	rootCmd.Flags().StringVar(&method, "method", "auto", "parsing method (auto|txt|ocr)")
	rootCmd.Flags().StringVar(&lang, "lang", "ch", "document language")
	rootCmd.Flags().IntVar(&startPage, "start", 0, "start page index (inclusive)")
	rootCmd.Flags().IntVar(&endPage, "end", 0, "end page index (inclusive; default: last page)")
	rootCmd.Flags().BoolVar(&formulaEnabled, "formula", true, "enable formula extraction")
	rootCmd.Flags().BoolVar(&tableEnabled, "table", true, "enable table extraction")
	rootCmd.Flags().StringVar(&device, "device", "", "device override")
	rootCmd.Flags().IntVar(&virtualVRAM, "vram", 0, "virtual VRAM override (GB)")
	rootCmd.Flags().StringVar(&modelSource, "source", "huggingface", "model source")
	rootCmd.Flags().StringVar(&serverURL, "url", "", "server URL for *-client backends")
	rootCmd.Flags().Int64Var(&timeoutMs, "timeout-ms", 0, "engine timeout in milliseconds (default: none)")
	rootCmd.Flags().BoolVar(&jsonlEnabled, "jsonl", true, "emit JSONL lifecycle events on stdout")
	_ = rootCmd.MarkFlagRequired("input")
	_ = rootCmd.MarkFlagRequired("output")
}

func runJob(cmd *cobra.Command, args []string) error {
	if err := validateJobFlags(); err != nil {
		exitCode = job.ExitInvalidInput
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		exitCode = job.ExitFailed
		return err
	}

	logLevel := cfg.Observability.LogLevel
	if verbose {
		logLevel = "debug"
	}
	logger := observability.NewLogger(observability.LogConfig{
		Level:       logLevel,
		Format:      "json",
		ServiceName: "pagelift",
	})

	j := buildJob(cmd)

	var store *journal.Store
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Warn().Err(err).Msg("journal unavailable, continuing without it")
		} else {
			defer store.Close()
		}
	}

	runner := &harness.Runner{
		Engine:           engine.NewCommandEngine(cfg.Engine.Binary, logger),
		Emitter:          events.NewEmitter(j.EmitEvents, os.Stdout),
		Journal:          store,
		Logger:           logger,
		RuntimeDefaults:  cfg.RuntimeDefaults(),
		TerminationGrace: cfg.Engine.TerminationGrace,
	}

	exitCode = runner.Run(context.Background(), j)

	if !j.EmitEvents {
		printSummary(j, exitCode)
	}
	return nil
}

func buildJob(cmd *cobra.Command) job.Job {
	j := job.Job{
		ID:             jobID,
		InputPath:      inputPath,
		OutputDir:      outputDir,
		Backend:        backend,
		Method:         method,
		Language:       lang,
		StartPage:      startPage,
		FormulaEnabled: formulaEnabled,
		TableEnabled:   tableEnabled,
		Device:         device,
		ModelSource:    modelSource,
		ServerURL:      serverURL,
		EmitEvents:     jsonlEnabled,
	}
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	if cmd.Flags().Changed("end") {
		end := endPage
		j.EndPage = &end
	}
	if cmd.Flags().Changed("vram") {
		vram := virtualVRAM
		j.VirtualVRAM = &vram
	}
	if cmd.Flags().Changed("timeout-ms") {
		timeout := time.Duration(timeoutMs) * time.Millisecond
		j.Timeout = &timeout
	}
	return j
}

// validateJobFlags rejects unknown enum values before any work starts.
func validateJobFlags() error {
	if !engine.ValidBackend(backend) {
		return fmt.Errorf("unknown backend %q (one of: %v)", backend, engine.Backends)
	}
	if !engine.ValidMethod(method) {
		return fmt.Errorf("unknown method %q (one of: %v)", method, engine.Methods)
	}
	if !engine.ValidLanguage(lang) {
		return fmt.Errorf("unknown language %q", lang)
	}
	if !engine.ValidModelSource(modelSource) {
		return fmt.Errorf("unknown model source %q (one of: %v)", modelSource, engine.ModelSources)
	}
	if engine.ClientBackend(backend) && serverURL == "" {
		return fmt.Errorf("backend %q requires --url", backend)
	}
	return nil
}

// printSummary writes a one-line human outcome when the event stream is off.
func printSummary(j job.Job, code int) {
	switch code {
	case job.ExitSucceeded:
		color.Green("✓ job %s succeeded (results in %s)", j.ID, j.OutputDir)
	case job.ExitCancelled:
		color.Yellow("✗ job %s cancelled", j.ID)
	case job.ExitTimeout:
		color.Yellow("✗ job %s timed out", j.ID)
	default:
		color.Red("✗ job %s failed (exit code %d)", j.ID, code)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if exitCode == 0 {
			exitCode = job.ExitInvalidInput
		}
	}
	os.Exit(exitCode)
}
