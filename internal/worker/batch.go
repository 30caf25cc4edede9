package worker

import (
	"context"
	"fmt"

	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/pipeline"
	"github.com/ppiankov/veridict/internal/report"
)

// Evaluator defines the interface for evaluating a single sample
type Evaluator interface {
	Evaluate(ctx context.Context, sample model.Sample) (*pipeline.Result, error)
}

// EvalJob represents a single sample evaluation job
type EvalJob struct {
	Sample    model.Sample
	Evaluator Evaluator
}

// Execute executes the evaluation job
func (j *EvalJob) Execute(ctx context.Context) Result {
	result, err := j.Evaluator.Evaluate(ctx, j.Sample)
	if err != nil {
		return &EvalResult{
			Sample: j.Sample,
			Error:  err,
		}
	}
	return &EvalResult{
		Sample: j.Sample,
		Eval:   result,
	}
}

// EvalResult represents the result of an evaluation job
type EvalResult struct {
	Sample model.Sample
	Eval   *pipeline.Result
	Error  error
}

// GetError returns the error from the evaluation result
func (r *EvalResult) GetError() error {
	return r.Error
}

// BatchProcessor evaluates multiple samples concurrently
type BatchProcessor struct {
	evaluator   Evaluator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(evaluator Evaluator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		evaluator:   evaluator,
		concurrency: concurrency,
	}
}

// ProcessSamples evaluates samples concurrently. Results arrive in
// completion order; callers needing the input order sort by sample ID.
// Once ctx expires, no further samples are submitted and in-flight
// evaluations are cancelled.
func (b *BatchProcessor) ProcessSamples(ctx context.Context, samples []model.Sample) []*EvalResult {
	if len(samples) == 0 {
		return []*EvalResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// Drain results while submitting: sample batches are far larger than
	// the pool's channel buffers.
	collector := pool.Collect()

	for _, sample := range samples {
		if ctx.Err() != nil {
			break
		}
		pool.Submit(&EvalJob{
			Sample:    sample,
			Evaluator: b.evaluator,
		})
	}

	results := collector.Wait()

	evalResults := make([]*EvalResult, len(results))
	for i, result := range results {
		evalResults[i] = result.(*EvalResult)
	}

	return evalResults
}

// ProcessFile loads the sample CSV and evaluates every well-formed row.
// Malformed rows are returned alongside the results so the caller can emit
// Error report entries; they never abort the batch.
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*EvalResult, []report.MalformedRow, error) {
	loaded, err := report.LoadSamples(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("load samples: %w", err)
	}

	return b.ProcessSamples(ctx, loaded.Samples), loaded.Malformed, nil
}
