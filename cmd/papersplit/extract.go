package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/markdave123-py/PaperSplit/internal/app"
	objectclient "github.com/markdave123-py/PaperSplit/internal/core/object-client"
	"github.com/markdave123-py/PaperSplit/internal/logging"
	"github.com/markdave123-py/PaperSplit/internal/models"
)

var extractOutputPath string

var extractCmd = &cobra.Command{
	Use:   "extract <file.pdf>",
	Short: "Extract questions from one PDF into an xlsx table",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutputPath, "output", "o", "", "output xlsx path (default <name>_questions.xlsx next to the input)")
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	pdfPath := args[0]
	if !strings.EqualFold(filepath.Ext(pdfPath), ".pdf") {
		return fmt.Errorf("%s: only PDF files are supported", pdfPath)
	}
	abs, err := filepath.Abs(pdfPath)
	if err != nil {
		return err
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	objects, err := objectclient.NewLocalClient(cfg.DataDir, logging.Component(logger, "storage"))
	if err != nil {
		return err
	}
	pipeline, writer, err := app.BuildPipeline(cfg, objects, logger)
	if err != nil {
		return err
	}

	out := extractOutputPath
	if out == "" {
		stem := strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs))
		out = filepath.Join(filepath.Dir(abs), stem+"_questions.xlsx")
	}

	doc := models.Document{
		ID:         strings.ReplaceAll(uuid.NewString(), "-", ""),
		FileName:   filepath.Base(abs),
		StoredPath: abs,
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("pages"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
	segments, err := pipeline.Extract(ctx, doc, func(done, total int) {
		if bar.GetMax() != total {
			bar.ChangeMax(total)
		}
		_ = bar.Set(done)
	})
	if err != nil {
		return fmt.Errorf("extract %s: %w", doc.FileName, err)
	}
	_ = bar.Finish()

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := writer.Encode(f, segments); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d segments from %s written to %s\n", len(segments), doc.FileName, out)
	return nil
}
