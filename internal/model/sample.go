package model

// Sample is one (image, text) pair from a batch run, matching the standard
// input record schema. The Meta_* columns carry the structured visual
// attributes used by the logic channel when no captioning model is wired in.
// The GT_* columns are optional ground truth used only for evaluation
// reporting; the engines never read them.
type Sample struct {
	ID          string `json:"id"`
	ImagePath   string `json:"image_path"`
	TextContent string `json:"text_content"`

	MetaTime     string `json:"meta_time,omitempty"`
	MetaWeather  string `json:"meta_weather,omitempty"`
	MetaLocation string `json:"meta_location,omitempty"`
	MetaFact     string `json:"meta_fact,omitempty"`
	MetaObject   string `json:"meta_object,omitempty"`
	MetaTopic    string `json:"meta_topic,omitempty"`

	// Ground truth, -1 when the column is absent.
	GTFinalLabel  int `json:"gt_final_label,omitempty"`
	GTCh1Tamper   int `json:"gt_ch1_tamper,omitempty"`
	GTCh2Mismatch int `json:"gt_ch2_mismatch,omitempty"`
	GTCh3Logic    int `json:"gt_ch3_logic,omitempty"`
}

// GTUnset marks an absent ground-truth column.
const GTUnset = -1

// Attributes assembles the sample's Meta_* columns into visual attributes,
// defaulting absent fields to Unknown.
func (s Sample) Attributes() VisualAttributes {
	return NewVisualAttributes(s.MetaTime, s.MetaWeather, s.MetaLocation, s.MetaFact, s.MetaObject, s.MetaTopic)
}

// HasGroundTruth reports whether the sample carries a final label usable for
// accuracy statistics.
func (s Sample) HasGroundTruth() bool {
	return s.GTFinalLabel != GTUnset
}
