package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/markdave123-py/PaperSplit/internal/config"
	"github.com/markdave123-py/PaperSplit/internal/logging"
)

var (
	logLevel string
	dataDir  string
)

var rootCmd = &cobra.Command{
	Use:   "papersplit",
	Short: "Split exam PDFs into classified questions",
	Long: `PaperSplit renders exam papers page by page, fuses the text layer with OCR,
splits the text into questions, classifies each one and writes an xlsx table.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "override DATA_DIR")
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr), nil
}
