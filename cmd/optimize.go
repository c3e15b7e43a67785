package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"optipix/internal/config"
	"optipix/internal/optimizer"
	"optipix/internal/tui"
)

var (
	optOutputDir  string
	optQuality    int
	optLossless   bool
	optRecursive  bool
	optMaxEdge    int
	optBackup     bool
	optWorkers    int
	optPNGEffort  string
	optConfigFile string
	optNoProgress bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [flags] <path>",
	Short: "Re-encode images under a path to smaller equivalents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig(cmd, args[0])
		if err != nil {
			return err
		}

		// Interrupt stops submission of new files; in-flight files finish
		// so no write is left half-done.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		updates := make(chan optimizer.ProgressUpdate, 64)

		uiDone := make(chan struct{})
		if optNoProgress {
			go func() {
				defer close(uiDone)
				for update := range updates {
					if update.File != "" {
						fmt.Fprintln(os.Stdout, tui.DescribeOutcome(update))
					}
				}
			}()
		} else {
			program := tea.NewProgram(tui.NewModel(updates, stop))
			go func() {
				defer close(uiDone)
				_, _ = program.Run()
				// If the program exits before the channel closes (no TTY,
				// killed display), keep draining so the collector never
				// blocks on a full buffer.
				for range updates {
				}
			}()
		}

		summary, err := optimizer.Run(ctx, cfg, updates)
		close(updates)
		<-uiDone
		if err != nil {
			return err
		}

		fmt.Fprintln(os.Stdout, tui.RenderSummary(summary))
		if out := tui.RenderWarnings(summary.Warnings); out != "" {
			fmt.Fprintln(os.Stdout, out)
		}
		if out := tui.RenderFailures(summary.Failures); out != "" {
			fmt.Fprintln(os.Stdout, out)
		}

		// Per-file failures are reported above but do not fail the
		// process; only pre-flight errors produce a non-zero exit.
		return nil
	},
}

// buildConfig merges defaults, the optional TOML file, and explicit
// flags (highest precedence) into one immutable config.Run.
func buildConfig(cmd *cobra.Command, inputRoot string) (config.Run, error) {
	cfg := config.Default()
	cfg.InputRoot = inputRoot
	cfg.OutputRoot = optOutputDir
	cfg.Quality = optQuality
	cfg.Lossless = optLossless
	cfg.Recursive = optRecursive
	cfg.MaxEdge = optMaxEdge
	cfg.Backup = optBackup
	cfg.Workers = optWorkers
	cfg.PNGEffort = optPNGEffort

	if optConfigFile != "" {
		file, err := config.LoadFile(optConfigFile)
		if err != nil {
			return cfg, err
		}
		flags := cmd.Flags()
		if !flags.Changed("quality") && file.Quality != 0 {
			cfg.Quality = file.Quality
		}
		if !flags.Changed("workers") && file.Workers != 0 {
			cfg.Workers = file.Workers
		}
		if !flags.Changed("png-effort") && file.PNGEffort != "" {
			cfg.PNGEffort = file.PNGEffort
		}
		if !flags.Changed("max-size") && file.MaxEdge != 0 {
			cfg.MaxEdge = file.MaxEdge
		}
		if !flags.Changed("output") && file.Output != "" {
			cfg.OutputRoot = file.Output
		}
		if !flags.Changed("lossless") {
			cfg.Lossless = file.Lossless
		}
		if !flags.Changed("recursive") {
			cfg.Recursive = file.Recursive
		}
		if !flags.Changed("backup") {
			cfg.Backup = file.Backup
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func init() {
	defaults := config.Default()

	optimizeCmd.Flags().StringVarP(&optOutputDir, "output", "o", "", "write optimized files under this directory instead of in place")
	optimizeCmd.Flags().IntVarP(&optQuality, "quality", "q", defaults.Quality, "encode quality for lossy formats (1-100)")
	optimizeCmd.Flags().BoolVar(&optLossless, "lossless", false, "lossless optimization only (quality is ignored)")
	optimizeCmd.Flags().BoolVarP(&optRecursive, "recursive", "r", false, "scan subdirectories")
	optimizeCmd.Flags().IntVar(&optMaxEdge, "max-size", 0, "downscale so the longer edge is at most this many pixels")
	optimizeCmd.Flags().BoolVar(&optBackup, "backup", false, "keep a .bak copy of each original before overwriting")
	optimizeCmd.Flags().IntVar(&optWorkers, "workers", defaults.Workers, "number of parallel workers")
	optimizeCmd.Flags().StringVar(&optPNGEffort, "png-effort", defaults.PNGEffort, "png recompression effort (fast|max)")
	optimizeCmd.Flags().StringVar(&optConfigFile, "config", "", "TOML file with default settings")
	optimizeCmd.Flags().BoolVar(&optNoProgress, "no-progress", false, "print plain per-file lines instead of the live display")

	rootCmd.AddCommand(optimizeCmd)
}
