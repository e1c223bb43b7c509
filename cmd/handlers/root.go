package handlers

import (
	"fmt"
	"os"

	"tamgu/internal/config"
	"tamgu/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tamgu",
		Short: "5W1H reading comprehension worksheets for young readers",
		Long: `Tamgu - 육하원칙 탐구 활동지

Read a short article, answer who, when, where, what, how and why, and let
the AI check your reading.

Core workflows:
  • Generate: topic → article written for the chosen grade level
  • Analyze: article text → 5W1H answers with supporting quotes
  • Save & print: keep finished worksheets and print them

Examples:
  # Start the web API
  tamgu serve

  # Work in the terminal
  tamgu tui

  # Write an easy article about dinosaurs
  tamgu generate 공룡 --difficulty easy

  # Analyze an article from a file
  tamgu analyze article.txt`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .tamgu.yaml)")

	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewTUICmd())
	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewAnalyzeCmd())
	rootCmd.AddCommand(NewKeywordsCmd())
	rootCmd.AddCommand(NewDocsCmd())
	rootCmd.AddCommand(NewPrintCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// initConfig loads configuration and applies the logging settings.
func initConfig() error {
	loaded, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg = loaded
	logger.Configure(cfg.Logging.Level, cfg.Logging.Format)
	return nil
}
