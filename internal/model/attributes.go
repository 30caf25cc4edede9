package model

import "strings"

// Unknown is the literal placeholder for any attribute that is absent from a
// sample record. Engines never see an empty field: missing data is coerced to
// this value so rule evaluation cannot fault on incomplete metadata.
const Unknown = "Unknown"

// TimeOfDay values recognized by the temporal rules.
const (
	TimeDay   = "Day"
	TimeNight = "Night"
)

// VisualAttributes is the structured description of an image's content, one
// per sample. The source is implementation-agnostic: ground-truth metadata
// from the sample record, or a captioning model. Fields are immutable once
// constructed and are matched case-insensitively as opaque strings, so
// keyword sets may mix scripts (CJK and Latin) freely.
type VisualAttributes struct {
	Time     string `json:"time" yaml:"time"`         // Day / Night / Unknown
	Weather  string `json:"weather" yaml:"weather"`   // Sunny / Rain / Snow / Cloudy / Unknown
	Location string `json:"location" yaml:"location"` // free text, e.g. "Paris", "Street"
	Fact     string `json:"fact" yaml:"fact"`         // factual state, e.g. "Empty", "Crowded"
	Objects  string `json:"objects" yaml:"objects"`   // salient entities/landmarks
	Topic    string `json:"topic" yaml:"topic"`       // coarse subject category
}

// NewVisualAttributes builds attributes from raw field values, defaulting
// every absent field to Unknown.
func NewVisualAttributes(timeOfDay, weather, location, fact, objects, topic string) VisualAttributes {
	return VisualAttributes{
		Time:     orUnknown(timeOfDay),
		Weather:  orUnknown(weather),
		Location: orUnknown(location),
		Fact:     orUnknown(fact),
		Objects:  orUnknown(objects),
		Topic:    orUnknown(topic),
	}
}

// UnknownAttributes returns a fully defaulted attribute set.
func UnknownAttributes() VisualAttributes {
	return NewVisualAttributes("", "", "", "", "", "")
}

// Normalize coerces any empty field back to Unknown. Useful after decoding
// attributes from an external caption where fields may be blank.
func (a VisualAttributes) Normalize() VisualAttributes {
	return NewVisualAttributes(a.Time, a.Weather, a.Location, a.Fact, a.Objects, a.Topic)
}

func orUnknown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unknown
	}
	return s
}
