package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/veridict/internal/model"
)

func TestDefaultRuleSet_Lint(t *testing.T) {
	set := DefaultRuleSet()
	if err := set.Lint(); err != nil {
		t.Fatalf("built-in rule set failed lint: %v", err)
	}
	if set.Version == "" {
		t.Error("built-in rule set has no version")
	}
}

func TestDefaultRuleSet_CategoryOrder(t *testing.T) {
	set := DefaultRuleSet()

	want := []string{
		CategoryTemporal, CategoryWeather, CategoryGeo,
		CategoryQuantity, CategoryState, CategoryTopic, CategoryManual,
	}
	if len(set.Categories) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(set.Categories))
	}
	for i, cat := range set.Categories {
		if cat.Name != want[i] {
			t.Errorf("category %d: expected %q, got %q", i, want[i], cat.Name)
		}
	}
}

func TestDefaultRuleSet_MultiScriptKeywords(t *testing.T) {
	// Keyword sets mix CJK and Latin tokens in the same rule; the tables
	// must not be split by script.
	set := DefaultRuleSet()
	dayRule := set.Categories[0].Rules[0]

	var cjk, latin bool
	for _, kw := range dayRule.TextAny {
		if isLatinToken(fold(kw)) {
			latin = true
		} else {
			cjk = true
		}
	}
	if !cjk || !latin {
		t.Errorf("day-vs-night keywords should mix scripts (cjk=%v latin=%v)", cjk, latin)
	}
}

func TestRuleSet_ExportAndReload(t *testing.T) {
	set := DefaultRuleSet()
	data, err := set.Marshal()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadRuleSet(path)
	if err != nil {
		t.Fatalf("LoadRuleSet failed: %v", err)
	}
	if loaded.Version != set.Version {
		t.Errorf("version changed through export: %q vs %q", loaded.Version, set.Version)
	}
	if len(loaded.Categories) != len(set.Categories) {
		t.Fatalf("category count changed: %d vs %d", len(loaded.Categories), len(set.Categories))
	}

	// The reloaded set must behave identically.
	engine, err := NewEngine(loaded, ModeSubstring)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	attrs := model.NewVisualAttributes("Day", "", "", "", "", "")
	finding := engine.Evaluate(attrs, "深夜的街道")
	if finding == nil || finding.Category != CategoryTemporal {
		t.Errorf("reloaded rule set lost the temporal rule: %+v", finding)
	}
}

func TestLoadRuleSet_Missing(t *testing.T) {
	if _, err := LoadRuleSet("no_such_rules.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLint_Errors(t *testing.T) {
	tests := []struct {
		name string
		set  RuleSet
	}{
		{
			name: "missing version",
			set:  RuleSet{Categories: []Category{{Name: "X", Rules: []Rule{{Name: "r", TextAny: []string{"k"}}}}}},
		},
		{
			name: "no categories",
			set:  RuleSet{Version: "v1"},
		},
		{
			name: "duplicate category",
			set: RuleSet{Version: "v1", Categories: []Category{
				{Name: "X", Rules: []Rule{{Name: "r", TextAny: []string{"k"}}}},
				{Name: "X", Rules: []Rule{{Name: "r2", TextAny: []string{"k"}}}},
			}},
		},
		{
			name: "empty keyword set",
			set: RuleSet{Version: "v1", Categories: []Category{
				{Name: "X", Rules: []Rule{{Name: "r"}}},
			}},
		},
		{
			name: "fields without visual tokens",
			set: RuleSet{Version: "v1", Categories: []Category{
				{Name: "X", Rules: []Rule{{Name: "r", Fields: []Field{FieldTime}, TextAny: []string{"k"}}}},
			}},
		},
		{
			name: "unknown field",
			set: RuleSet{Version: "v1", Categories: []Category{
				{Name: "X", Rules: []Rule{{Name: "r", Fields: []Field{"mood"}, Match: MatchEquals, VisualAny: []string{"v"}, TextAny: []string{"k"}}}},
			}},
		},
		{
			name: "visual tokens without match kind",
			set: RuleSet{Version: "v1", Categories: []Category{
				{Name: "X", Rules: []Rule{{Name: "r", Fields: []Field{FieldTime}, VisualAny: []string{"v"}, TextAny: []string{"k"}}}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.set.Lint(); err == nil {
				t.Error("expected lint error, got nil")
			}
		})
	}
}
