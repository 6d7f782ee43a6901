package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"declbot/internal/aggregator"
	"declbot/internal/archive"
	"declbot/internal/config"
	"declbot/internal/csvexport"
	"declbot/internal/declaration"
	"declbot/internal/domain"
	"declbot/internal/extractor"
	"declbot/internal/ocr"
	"declbot/internal/port"
	"declbot/internal/repository/memstore"
	"declbot/internal/service"
	"declbot/internal/tabular"
	"declbot/internal/xlsxexport"
)

// cliUser owns batches run from the shell.
const cliUser int64 = 0

func newExtractCmd(a *app) *cobra.Command {
	var (
		outDir string
		format string
	)
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Recognize line items in an archive or document and write the declaration",
		Long: `extract runs the upload pipeline on a local zip archive or a single xlsx, pdf,
jpg or png file, prints the recognized items and writes the declaration table.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			cat, closeDB, err := a.loadCatalog(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			ocrEngine, closeOCR, err := ocr.NewEngine(ctx, &a.cfg.OCR, a.log)
			if err != nil {
				return fmt.Errorf("failed to initialize OCR: %w", err)
			}
			defer func() { _ = closeOCR() }()

			var writer port.TableWriter = xlsxexport.NewWriter()
			if format == config.ExportFormatCSV {
				writer = csvexport.NewWriter()
			}
			renderer := service.NewExportService(writer, nil, nil, service.ExportOptions{}, a.log)

			consts := domain.LineItemConstants{
				OriginCountry:   a.cfg.Catalog.OriginCountry,
				DispatchCountry: a.cfg.Catalog.DispatchCountry,
				Preference:      a.cfg.Catalog.Preference,
				VATRate:         a.cfg.Catalog.VATRate,
			}
			batches := service.NewBatchService(
				archive.NewReader(a.cfg.Batch.MaxFiles, a.cfg.Batch.MaxUncompressedMB<<20),
				tabular.NewReader(),
				ocrEngine,
				aggregator.New(extractor.New(cat, consts)),
				memstore.NewBatchStore(a.cfg.Batch.ResultTTL),
				renderer,
				service.BatchConfig{Concurrency: a.cfg.Batch.Concurrency, Timeout: a.cfg.Batch.Timeout},
				a.log,
			)

			outcome, err := batches.Process(ctx, cliUser, filepath.Base(args[0]), data)
			if outcome != nil {
				printOutcome(cmd.OutOrStdout(), outcome)
			}
			if err != nil {
				return err
			}

			artifact, err := batches.Finalize(ctx, cliUser)
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, artifact.Name)
			if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			a.log.Info("declaration written", zap.String("path", path), zap.Int("rows", artifact.Rows))
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory to write the declaration into")
	cmd.Flags().StringVar(&format, "format", config.ExportFormatXLSX, "declaration format: xlsx or csv")
	return cmd
}

func printOutcome(out io.Writer, o *service.BatchOutcome) {
	for i, it := range o.Result.Items {
		fmt.Fprintf(out, "%d. %s  %s kg  $%s  places %d\n", i+1, it.ProductName,
			declaration.FormatNumber(it.NetWeightKg), declaration.FormatNumber(it.TotalUSD), it.PackageCount)
	}
	for _, d := range o.Result.Documents {
		if d.Error != "" {
			fmt.Fprintf(out, "! %s: %s\n", d.Name, d.Error)
			continue
		}
		fmt.Fprintf(out, "  %s: %d item(s)\n", d.Name, d.Recognized)
	}
	for _, s := range o.Skipped {
		fmt.Fprintf(out, "- %s skipped: %s\n", s.Name, s.Reason)
	}
}
