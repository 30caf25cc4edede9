package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/pipeline"
)

// RecordFrom flattens one evaluation into a report row. Score_Ch3 is the
// rule engine's alarm rendered as 0/1; the Reason column joins the alarm
// reasons (and any fail-open notes) with " | ", or reads "Consistent".
func RecordFrom(res *pipeline.Result) model.ReportRecord {
	rec := model.ReportRecord{
		ID:            res.Sample.ID,
		ImagePath:     res.Sample.ImagePath,
		PredLabel:     res.Verdict.Label(),
		RiskScore:     res.Verdict.RiskScore,
		InterceptedBy: res.Verdict.InterceptedBy,
		Reason:        renderReason(res.Verdict),
		GTFinalLabel:  res.Sample.GTFinalLabel,
	}

	for _, cs := range res.Scores {
		switch cs.Channel {
		case model.ChannelTamper:
			rec.ScoreCh1 = cs.Score
		case model.ChannelSemantic:
			rec.ScoreCh2 = cs.Score
		}
	}
	if res.Finding != nil {
		rec.ScoreCh3 = 1
	}

	return rec
}

// ErrorRecord renders a malformed input row as a report entry with the
// Error verdict, distinct from Safe and Risk.
func ErrorRecord(bad MalformedRow) model.ReportRecord {
	id := bad.ID
	if id == "" {
		id = fmt.Sprintf("line %d", bad.Line)
	}
	return model.ReportRecord{
		ID:            id,
		PredLabel:     model.VerdictError,
		InterceptedBy: model.InterceptedPass,
		Reason:        fmt.Sprintf("malformed record: %v", bad.Err),
		GTFinalLabel:  model.GTUnset,
	}
}

func renderReason(v model.FusionVerdict) string {
	parts := append([]string{}, v.Reasons...)
	parts = append(parts, v.Notes...)
	if len(parts) == 0 {
		return "Consistent"
	}
	return strings.Join(parts, " | ")
}

// WriteCSV writes the batch report in the standard output schema.
func WriteCSV(path string, records []model.ReportRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	header := []string{
		"ID", "Image_Path", "Score_Ch1", "Score_Ch2", "Score_Ch3",
		"Pred_Label", "Risk_Score", "Intercepted_By", "Reason",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.ImagePath,
			formatScore(rec.ScoreCh1),
			formatScore(rec.ScoreCh2),
			formatScore(rec.ScoreCh3),
			rec.PredLabel,
			formatScore(rec.RiskScore),
			rec.InterceptedBy,
			rec.Reason,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", rec.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush report: %w", err)
	}
	return nil
}

// WriteJSON writes the full per-sample audit trail (attributes, finding,
// channel scores, verdict) for machine consumption.
func WriteJSON(path string, results []*pipeline.Result) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}

func formatScore(f float64) string {
	return strconv.FormatFloat(round3(f), 'f', -1, 64)
}

func round3(f float64) float64 {
	return float64(int(f*1000+0.5)) / 1000
}

// Stats summarizes a batch against the optional ground truth. Error rows
// are counted but excluded from accuracy.
type Stats struct {
	Total     int
	Evaluated int
	Errors    int
	WithGT    int
	Correct   int
}

// Accuracy returns Correct/WithGT, or 0 when no ground truth was present.
func (s Stats) Accuracy() float64 {
	if s.WithGT == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.WithGT)
}

// Summarize computes batch statistics from the report records.
func Summarize(records []model.ReportRecord) Stats {
	var stats Stats
	stats.Total = len(records)

	for _, rec := range records {
		if rec.PredLabel == model.VerdictError {
			stats.Errors++
			continue
		}
		stats.Evaluated++
		if rec.GTFinalLabel == model.GTUnset {
			continue
		}
		stats.WithGT++
		if rec.PredLabel == strconv.Itoa(rec.GTFinalLabel) {
			stats.Correct++
		}
	}

	return stats
}
