package report

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/pipeline"
)

func riskResult() *pipeline.Result {
	return &pipeline.Result{
		Sample: model.Sample{ID: "s1", ImagePath: "a.jpg", GTFinalLabel: 1},
		Finding: &model.ConflictFinding{
			Category: "Temporal",
			Reason:   "[CONFLICT] Temporal: image shows 'Day', but text mentions '深夜'",
		},
		Scores: []model.ChannelScore{
			{Channel: model.ChannelTamper, Score: 0.2},
			{Channel: model.ChannelSemantic, Score: 0.1},
		},
		Verdict: model.FusionVerdict{
			IsRisk:        true,
			RiskScore:     0.95,
			InterceptedBy: "Channel 3 (Logic)",
			Reasons:       []string{"Ch3:Logic Conflict: [CONFLICT] Temporal: image shows 'Day', but text mentions '深夜'"},
		},
	}
}

func TestRecordFrom(t *testing.T) {
	rec := RecordFrom(riskResult())

	if rec.ID != "s1" || rec.ImagePath != "a.jpg" {
		t.Errorf("unexpected identity columns: %+v", rec)
	}
	if rec.ScoreCh1 != 0.2 || rec.ScoreCh2 != 0.1 {
		t.Errorf("channel scores not mapped: %+v", rec)
	}
	if rec.ScoreCh3 != 1 {
		t.Errorf("conflict must render Score_Ch3 as 1, got %f", rec.ScoreCh3)
	}
	if rec.PredLabel != model.VerdictRisk {
		t.Errorf("expected pred label 1, got %q", rec.PredLabel)
	}
	if !strings.Contains(rec.Reason, "Ch3:Logic Conflict") {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}
	if rec.GTFinalLabel != 1 {
		t.Errorf("ground truth not carried: %d", rec.GTFinalLabel)
	}
}

func TestRecordFrom_Consistent(t *testing.T) {
	res := &pipeline.Result{
		Sample:  model.Sample{ID: "s2", GTFinalLabel: model.GTUnset},
		Verdict: model.FusionVerdict{InterceptedBy: model.InterceptedPass},
	}
	rec := RecordFrom(res)

	if rec.ScoreCh3 != 0 {
		t.Errorf("no finding must render Score_Ch3 as 0, got %f", rec.ScoreCh3)
	}
	if rec.PredLabel != model.VerdictSafe {
		t.Errorf("expected pred label 0, got %q", rec.PredLabel)
	}
	if rec.Reason != "Consistent" {
		t.Errorf("expected Consistent, got %q", rec.Reason)
	}
}

func TestRecordFrom_FailOpenNote(t *testing.T) {
	res := &pipeline.Result{
		Sample: model.Sample{ID: "s3", GTFinalLabel: model.GTUnset},
		Verdict: model.FusionVerdict{
			InterceptedBy: model.InterceptedPass,
			Notes:         []string{"[FAIL-OPEN] tamper channel unavailable, score defaulted to 0.0"},
		},
	}
	rec := RecordFrom(res)

	if !strings.Contains(rec.Reason, "[FAIL-OPEN] tamper") {
		t.Errorf("fail-open note missing from reason: %q", rec.Reason)
	}
}

func TestErrorRecord(t *testing.T) {
	rec := ErrorRecord(MalformedRow{Line: 4, ID: "s9", Err: errors.New("empty Image_Path")})

	if rec.ID != "s9" {
		t.Errorf("expected ID s9, got %q", rec.ID)
	}
	if rec.PredLabel != model.VerdictError {
		t.Errorf("expected Error label, got %q", rec.PredLabel)
	}
	if !strings.Contains(rec.Reason, "empty Image_Path") {
		t.Errorf("unexpected reason: %q", rec.Reason)
	}

	// No ID: fall back to the line number.
	rec = ErrorRecord(MalformedRow{Line: 7, Err: errors.New("wrong arity")})
	if rec.ID != "line 7" {
		t.Errorf("expected line fallback, got %q", rec.ID)
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")

	records := []model.ReportRecord{
		RecordFrom(riskResult()),
		{ID: "s2", PredLabel: model.VerdictSafe, InterceptedBy: model.InterceptedPass, Reason: "Consistent", RiskScore: 0.1234},
	}
	if err := WriteCSV(path, records); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}

	wantHeader := []string{"ID", "Image_Path", "Score_Ch1", "Score_Ch2", "Score_Ch3", "Pred_Label", "Risk_Score", "Intercepted_By", "Reason"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header column %d: expected %q, got %q", i, col, rows[0][i])
		}
	}

	if rows[1][0] != "s1" || rows[1][5] != "1" || rows[1][7] != "Channel 3 (Logic)" {
		t.Errorf("unexpected risk row: %v", rows[1])
	}
	// Scores are rounded to three decimals.
	if rows[2][6] != "0.123" {
		t.Errorf("expected rounded risk score 0.123, got %q", rows[2][6])
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	if err := WriteJSON(path, []*pipeline.Result{riskResult()}); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"intercepted_by": "Channel 3 (Logic)"`) {
		t.Errorf("audit trail missing verdict: %s", data)
	}
}

func TestSummarize(t *testing.T) {
	records := []model.ReportRecord{
		{ID: "a", PredLabel: "1", GTFinalLabel: 1},
		{ID: "b", PredLabel: "0", GTFinalLabel: 1},
		{ID: "c", PredLabel: "0", GTFinalLabel: 0},
		{ID: "d", PredLabel: "0", GTFinalLabel: model.GTUnset},
		{ID: "e", PredLabel: model.VerdictError, GTFinalLabel: model.GTUnset},
	}

	stats := Summarize(records)
	if stats.Total != 5 || stats.Evaluated != 4 || stats.Errors != 1 {
		t.Errorf("unexpected counts: %+v", stats)
	}
	if stats.WithGT != 3 || stats.Correct != 2 {
		t.Errorf("unexpected ground-truth counts: %+v", stats)
	}
	if acc := stats.Accuracy(); acc < 0.66 || acc > 0.67 {
		t.Errorf("expected accuracy 2/3, got %f", acc)
	}
}

func TestSummarize_NoGroundTruth(t *testing.T) {
	stats := Summarize([]model.ReportRecord{{ID: "a", PredLabel: "0", GTFinalLabel: model.GTUnset}})
	if stats.Accuracy() != 0 {
		t.Errorf("expected accuracy 0 without ground truth, got %f", stats.Accuracy())
	}
}
