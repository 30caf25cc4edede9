package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/pipeline"
)

// MockEvaluator implements Evaluator
type MockEvaluator struct {
	ShouldError bool
}

func (m *MockEvaluator) Evaluate(ctx context.Context, sample model.Sample) (*pipeline.Result, error) {
	time.Sleep(10 * time.Millisecond) // Simulate work
	if m.ShouldError {
		return nil, errors.New("evaluate error")
	}
	return &pipeline.Result{
		Sample:     sample,
		Attributes: sample.Attributes(),
		Verdict:    model.FusionVerdict{InterceptedBy: model.InterceptedPass},
	}, nil
}

func testSamples(n int) []model.Sample {
	samples := make([]model.Sample, n)
	for i := range samples {
		samples[i] = model.Sample{
			ID:          fmt.Sprintf("s%03d", i),
			ImagePath:   "img.jpg",
			TextContent: "text",
		}
	}
	return samples
}

func TestBatchProcessor_ProcessSamples(t *testing.T) {
	processor := NewBatchProcessor(&MockEvaluator{}, 2)

	results := processor.ProcessSamples(context.Background(), testSamples(3))

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}

	successCount := 0
	for _, res := range results {
		if res.Error == nil {
			successCount++
			if res.Eval == nil {
				t.Error("expected evaluation for successful sample")
			}
		} else {
			t.Errorf("unexpected error for %s: %v", res.Sample.ID, res.Error)
		}
	}

	if successCount != 3 {
		t.Errorf("expected 3 successes, got %d", successCount)
	}
}

func TestBatchProcessor_ProcessSamples_Error(t *testing.T) {
	processor := NewBatchProcessor(&MockEvaluator{ShouldError: true}, 2)

	results := processor.ProcessSamples(context.Background(), testSamples(1))

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}

	if results[0].Error == nil {
		t.Error("expected error, got nil")
	}
	if results[0].Eval != nil {
		t.Error("expected nil evaluation on error")
	}
}

func TestBatchProcessor_LargeBatch(t *testing.T) {
	// Batches far larger than the pool's channel buffers must complete:
	// results are drained while samples are still being submitted.
	processor := NewBatchProcessor(&MockEvaluator{}, 2)

	count := 100
	done := make(chan []*EvalResult, 1)
	go func() {
		done <- processor.ProcessSamples(context.Background(), testSamples(count))
	}()

	select {
	case results := <-done:
		if len(results) != count {
			t.Errorf("expected %d results, got %d", count, len(results))
		}
	case <-time.After(10 * time.Second):
		t.Fatal("large batch did not complete")
	}
}

func TestBatchProcessor_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	processor := NewBatchProcessor(&MockEvaluator{}, 2)

	results := processor.ProcessSamples(ctx, testSamples(20))
	if len(results) != 0 {
		t.Errorf("expected no results under a cancelled context, got %d", len(results))
	}
}

func TestBatchProcessor_ProcessSamples_Empty(t *testing.T) {
	processor := NewBatchProcessor(&MockEvaluator{}, 2)

	results := processor.ProcessSamples(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected 0 results, got %d", len(results))
	}
}

func TestEvalResult_GetError(t *testing.T) {
	r1 := &EvalResult{Sample: model.Sample{ID: "s1"}}
	if r1.GetError() != nil {
		t.Errorf("expected nil error, got %v", r1.GetError())
	}

	expected := errors.New("evaluate failed")
	r2 := &EvalResult{Sample: model.Sample{ID: "s2"}, Error: expected}
	if r2.GetError() != expected {
		t.Errorf("expected %v, got %v", expected, r2.GetError())
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	content := `ID,Image_Path,Text_Content,GT_Final_Label
s1,images/a.jpg,Sunny day at the beach,0
s2,images/b.jpg,Night market in Tokyo,1
s3,,missing image path,
s4,images/d.jpg,Crowded square,
`

	tmpfile, err := os.CreateTemp("", "samples*.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	processor := NewBatchProcessor(&MockEvaluator{}, 2)

	results, malformed, err := processor.ProcessFile(context.Background(), tmpfile.Name())
	if err != nil {
		t.Fatalf("ProcessFile failed: %v", err)
	}

	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
	if len(malformed) != 1 {
		t.Fatalf("expected 1 malformed row, got %d", len(malformed))
	}
	if malformed[0].ID != "s3" {
		t.Errorf("expected malformed row s3, got %q", malformed[0].ID)
	}
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&MockEvaluator{}, 2)

	_, _, err := processor.ProcessFile(context.Background(), "no_such_file.csv")
	if err == nil {
		t.Error("expected error for non-existent file, got nil")
	}
}
