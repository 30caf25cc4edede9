package cli

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/pipeline"
	"github.com/ppiankov/veridict/internal/report"
	"github.com/ppiankov/veridict/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outCSV       string
	outJSON      string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <samples.csv>",
	Short: "Evaluate a CSV of image/text samples in parallel",
	Long: `Batch evaluates every sample in a CSV file concurrently:
- Read samples (ID, Image_Path, Text_Content, optional Meta_* and GT_*)
- Evaluate samples in parallel with configurable worker count
- Emit the standard report CSV and optional JSON audit trail
- Report accuracy against GT_Final_Label when ground truth is present

Malformed rows are skipped with a warning and written to the report with
an Error verdict; they never abort the batch.

Example:
  veridict batch samples.csv
  veridict batch samples.csv --out report.csv --concurrency 8
  veridict batch samples.csv --tamper-url http://localhost:8801/score`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outCSV, "out", "report.csv", "output report CSV path")
	batchCmd.Flags().StringVar(&outJSON, "json", "", "output JSON audit trail path (optional)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")

	addEngineFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}
	cfg.Concurrency.Workers = concurrency

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Veridict Batch Evaluation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Report:       %s\n", outCSV)
	fmt.Fprintf(os.Stderr, "  Matching:     %s\n", cfg.Rules.Matching)
	if cfg.Captioner.Provider != "" {
		fmt.Fprintf(os.Stderr, "  Captioner:    %s/%s\n", cfg.Captioner.Provider, cfg.Captioner.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	p, err := pipeline.NewPipeline(cfg, limiter)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Reading samples...\n")
	results, malformed, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Evaluated %d samples (%d malformed rows skipped)\n", len(results), len(malformed))
	fmt.Fprintf(os.Stderr, "\n")

	for _, bad := range malformed {
		fmt.Fprintf(os.Stderr, "✗ line %d (%s): %v\n", bad.Line, bad.ID, bad.Err)
	}

	records := make([]model.ReportRecord, 0, len(results)+len(malformed))
	var evaluated []*pipeline.Result
	for _, res := range results {
		if res.Error != nil {
			records = append(records, report.ErrorRecord(report.MalformedRow{ID: res.Sample.ID, Err: res.Error}))
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", res.Sample.ID, res.Error)
			continue
		}
		records = append(records, report.RecordFrom(res.Eval))
		evaluated = append(evaluated, res.Eval)
	}
	for _, bad := range malformed {
		records = append(records, report.ErrorRecord(bad))
	}

	// Workers finish out of order; restore a stable report order.
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	sort.Slice(evaluated, func(i, j int) bool { return evaluated[i].Sample.ID < evaluated[j].Sample.ID })

	if err := report.WriteCSV(outCSV, records); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if outJSON != "" {
		if err := report.WriteJSON(outJSON, evaluated); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}

	stats := report.Summarize(records)

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d samples\n", stats.Total)
	fmt.Fprintf(os.Stderr, "  Evaluated: %d\n", stats.Evaluated)
	fmt.Fprintf(os.Stderr, "  Errors:    %d\n", stats.Errors)
	if stats.WithGT > 0 {
		fmt.Fprintf(os.Stderr, "  Accuracy:  %.1f%% (%d/%d labeled)\n", stats.Accuracy()*100, stats.Correct, stats.WithGT)
	}
	fmt.Fprintf(os.Stderr, "  Report:    %s\n", outCSV)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}
