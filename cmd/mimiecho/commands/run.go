package commands

import (
	"log/slog"
	"os"

	"mimiecho/lib/scrapers/navercafe"
	"mimiecho/services/digest"

	"github.com/spf13/cobra"
)

var (
	runConfig *string
	runDryRun *bool
)

func init() {
	runConfig = runCmd.Flags().String("config", "mimiecho.json5", "Path to the tunables config file.")
	runDryRun = runCmd.Flags().Bool("dry-run", false, "Run the pipeline without posting to discord or moving the watermark.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--config <path>] [--dry-run]",
	Short: "Scrapes new posts from the configured board, summarizes and delivers them.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := digest.LoadConfig(*runConfig)
		if err != nil {
			fatal("failed to load config", err)
		}

		board, err := navercafe.NewClient(navercafe.ClientOptions{})
		if err != nil {
			fatal("failed to initialize cafe client", err)
		}

		summarizer, err := digest.NewGeminiSummarizer(ctx, digest.GeminiSummarizerOptions{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.Model,
			MaxContentChars: cfg.MaxContentChars,
		})
		if err != nil {
			fatal("failed to initialize summarizer", err)
		}

		notifier := digest.NewDiscordNotifier(cfg.WebhookUrl)
		store := digest.FileWatermarkStore{Path: cfg.StateFile}

		service := digest.NewService(cfg, board, summarizer, notifier, store)
		service.DryRun = *runDryRun

		outcome := service.Run(ctx)
		slog.Info("run finished", "outcome", outcome.String())
		os.Exit(outcome.ExitCode())
	},
}

func fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
