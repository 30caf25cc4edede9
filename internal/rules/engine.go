package rules

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/veridict/internal/model"
)

// MatchMode selects how text keywords are located in the free text.
type MatchMode string

const (
	// ModeSubstring is the faithful default: keywords match as normalized
	// substrings, not tokens. This is a deliberate choice with known
	// false-positive consequences (the keyword "day" matches inside
	// "today") and must not be silently "improved".
	ModeSubstring MatchMode = "substring"
	// ModeWord requires word boundaries around keywords made of Latin
	// letters and digits. CJK keywords have no word boundaries and always
	// match by substring, in either mode.
	ModeWord MatchMode = "word"
)

// ParseMatchMode maps a config string to a MatchMode.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeSubstring, "":
		return ModeSubstring, nil
	case ModeWord:
		return ModeWord, nil
	default:
		return "", fmt.Errorf("unknown matching mode %q (supported: substring, word)", s)
	}
}

// Engine is the Attribute-Conflict Rule Engine: a pure function over
// (attributes, text). It holds only immutable rule tables and is safe for
// concurrent use. Construct once and inject wherever needed — there is no
// package-level instance.
type Engine struct {
	set  *RuleSet
	mode MatchMode
}

// NewEngine builds an engine over the given rule set. A nil set selects the
// built-in taxonomy.
func NewEngine(set *RuleSet, mode MatchMode) (*Engine, error) {
	if set == nil {
		set = DefaultRuleSet()
	}
	if err := set.Lint(); err != nil {
		return nil, fmt.Errorf("rule set: %w", err)
	}
	if mode == "" {
		mode = ModeSubstring
	}
	return &Engine{set: set, mode: mode}, nil
}

// RuleSet exposes the engine's taxonomy for export and inspection.
func (e *Engine) RuleSet() *RuleSet { return e.set }

// Evaluate runs the taxonomy over one sample. Categories are checked in
// declaration order, rules within a category in declaration order; the first
// matching rule produces the only finding and evaluation stops. A nil return
// means no conflict — callers report model.ConsistentReason.
//
// Absent attribute fields never fault: they arrive as the literal "Unknown",
// which matches no visual condition.
func (e *Engine) Evaluate(attrs model.VisualAttributes, text string) *model.ConflictFinding {
	normText := fold(text)

	for _, cat := range e.set.Categories {
		for _, rule := range cat.Rules {
			if finding := e.applyRule(cat.Name, rule, attrs, text, normText); finding != nil {
				return finding
			}
		}
	}
	return nil
}

func (e *Engine) applyRule(category string, rule Rule, attrs model.VisualAttributes, text, normText string) *model.ConflictFinding {
	visualValue, ok := e.visualCondition(rule, attrs)
	if !ok {
		return nil
	}

	textKw := e.firstTextMatch(rule.TextAny, normText)
	if textKw == "" {
		return nil
	}

	// Exception clause: a disambiguating qualifier in the text suppresses
	// the conflict for this rule only.
	if e.firstTextMatch(rule.UnlessTextAny, normText) != "" {
		return nil
	}

	return &model.ConflictFinding{
		Category:    category,
		RuleVersion: e.set.Version,
		VisualMatch: visualValue,
		TextMatch:   textKw,
		Reason:      renderReason(category, rule, visualValue, textKw),
	}
}

// visualCondition checks the rule's predicate over the attribute fields and
// returns the field value that satisfied it. Rules without fields (manual
// triggers) are trivially satisfied.
func (e *Engine) visualCondition(rule Rule, attrs model.VisualAttributes) (string, bool) {
	if len(rule.Fields) == 0 {
		return "", true
	}
	for _, field := range rule.Fields {
		value := fieldValue(attrs, field)
		for _, token := range rule.VisualAny {
			switch rule.Match {
			case MatchEquals:
				if strings.EqualFold(strings.TrimSpace(value), token) {
					return value, true
				}
			default:
				if strings.Contains(fold(value), fold(token)) {
					return value, true
				}
			}
		}
	}
	return "", false
}

// firstTextMatch returns the first keyword present in the normalized text,
// preserving declaration order so the reported keyword is deterministic.
func (e *Engine) firstTextMatch(keywords []string, normText string) string {
	for _, kw := range keywords {
		if e.textContains(normText, kw) {
			return kw
		}
	}
	return ""
}

func (e *Engine) textContains(normText, keyword string) bool {
	normKw := fold(keyword)
	if normKw == "" {
		return false
	}
	if e.mode == ModeWord && isLatinToken(normKw) {
		return containsWord(normText, normKw)
	}
	return strings.Contains(normText, normKw)
}

func fieldValue(attrs model.VisualAttributes, field Field) string {
	switch field {
	case FieldTime:
		return attrs.Time
	case FieldWeather:
		return attrs.Weather
	case FieldLocation:
		return attrs.Location
	case FieldFact:
		return attrs.Fact
	case FieldObjects:
		return attrs.Objects
	case FieldTopic:
		return attrs.Topic
	default:
		return model.Unknown
	}
}

func renderReason(category string, rule Rule, visualValue, textKw string) string {
	var b strings.Builder
	if visualValue == "" {
		fmt.Fprintf(&b, "[CONFLICT] %s: trigger keyword '%s' detected", category, textKw)
	} else {
		fmt.Fprintf(&b, "[CONFLICT] %s: image shows '%s', but text mentions '%s'", category, visualValue, textKw)
	}
	if rule.Detail != "" {
		fmt.Fprintf(&b, " (%s)", rule.Detail)
	}
	return b.String()
}

// fold normalizes for matching: case-folded, surrounding space trimmed.
// Values are otherwise treated as opaque strings so CJK and Latin keywords
// behave identically.
func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// isLatinToken reports whether the keyword consists only of ASCII letters,
// digits, spaces, and hyphens — the shapes word-boundary matching applies to.
func isLatinToken(s string) bool {
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ', r == '-':
		default:
			return false
		}
	}
	return true
}

// containsWord locates kw in text requiring non-alphanumeric runes (or the
// string edges) on both sides of the match.
func containsWord(text, kw string) bool {
	for start := 0; start <= len(text)-len(kw); {
		idx := strings.Index(text[start:], kw)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(kw)

		before, _ := utf8.DecodeLastRuneInString(text[:idx])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (idx == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			return true
		}
		start = idx + 1
	}
	return false
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
