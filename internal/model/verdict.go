package model

// ConsistentReason is the constant message reported when no conflict rule
// matched a sample.
const ConsistentReason = "[CONSISTENT] Visual evidence aligns with text description"

// ConflictFinding is the result of the first matching conflict rule: which
// category fired, the visual condition that held, and the text keyword whose
// presence contradicted it. At most one finding is produced per sample.
type ConflictFinding struct {
	Category    string `json:"category"`
	RuleVersion string `json:"rule_version,omitempty"`
	// VisualMatch is the attribute token that satisfied the visual condition.
	VisualMatch string `json:"visual_match"`
	// TextMatch is the keyword found in the free text.
	TextMatch string `json:"text_match"`
	// Reason is the rendered human-readable explanation.
	Reason string `json:"reason"`
}

// Verdict labels for the report's Pred_Label column. Error marks rows that
// could not be parsed into the sample schema; they are excluded from accuracy
// statistics but still emitted.
const (
	VerdictSafe  = "0"
	VerdictRisk  = "1"
	VerdictError = "Error"
)

// InterceptedPass is reported when no channel alarmed.
const InterceptedPass = "Pass"

// FusionVerdict is the fused decision for one sample plus its audit trail.
type FusionVerdict struct {
	// IsRisk is the one-vote veto: true iff at least one channel alarmed.
	IsRisk bool `json:"is_risk"`
	// RiskScore is the maximum raw score among alarming channels, 0 if none.
	RiskScore float64 `json:"risk_score"`
	// InterceptedBy names the first alarming channel in priority order, or
	// "Pass". Reporting only; it never affects IsRisk.
	InterceptedBy string `json:"intercepted_by"`
	// Reasons holds one entry per alarming channel, in priority order,
	// including the rule engine's conflict reason when it alarms.
	Reasons []string `json:"reasons"`
	// Notes carries audit annotations that are not alarms, such as
	// fail-open substitutions for unavailable providers.
	Notes []string `json:"notes,omitempty"`
	// FusedProbability is the independent analytics score
	// 1 - prod(1 - P_i) over the risk-oriented channel probabilities.
	// Surfaced alongside the verdict, never used to gate it.
	FusedProbability float64 `json:"fused_probability"`
}

// Label renders the verdict for the report's Pred_Label column.
func (v FusionVerdict) Label() string {
	if v.IsRisk {
		return VerdictRisk
	}
	return VerdictSafe
}

// ReportRecord is one row of the batch output report, matching the standard
// report schema. ScoreCh3 is the rule engine's alarm rendered as 0/1.
type ReportRecord struct {
	ID            string  `json:"id"`
	ImagePath     string  `json:"image_path"`
	ScoreCh1      float64 `json:"score_ch1"`
	ScoreCh2      float64 `json:"score_ch2"`
	ScoreCh3      float64 `json:"score_ch3"`
	PredLabel     string  `json:"pred_label"`
	RiskScore     float64 `json:"risk_score"`
	InterceptedBy string  `json:"intercepted_by"`
	Reason        string  `json:"reason"`

	// GTFinalLabel is carried through for evaluation, GTUnset when absent.
	GTFinalLabel int `json:"gt_final_label,omitempty"`
}
