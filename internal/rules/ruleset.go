package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Field names a VisualAttributes field a rule's visual condition inspects.
type Field string

const (
	FieldTime     Field = "time"
	FieldWeather  Field = "weather"
	FieldLocation Field = "location"
	FieldFact     Field = "fact"
	FieldObjects  Field = "objects"
	FieldTopic    Field = "topic"
)

// MatchKind selects how a rule's visual tokens are compared against the
// attribute fields.
type MatchKind string

const (
	// MatchEquals requires the field to equal a token exactly (case-folded).
	MatchEquals MatchKind = "equals"
	// MatchContains requires the field to contain a token as a substring.
	MatchContains MatchKind = "contains"
)

// Rule pairs a visual condition with a conflicting-keyword set. The rule
// fires when any visual token appears in any of the listed fields AND any
// text keyword appears in the free text, unless an exception keyword also
// appears in the text.
//
// A rule with no fields and no visual tokens has a trivially true visual
// condition; this shape is reserved for the manual-trigger category.
type Rule struct {
	Name   string    `yaml:"name"`
	Fields []Field   `yaml:"fields,omitempty"`
	Match  MatchKind `yaml:"match,omitempty"`
	// VisualAny: tokens satisfying the visual condition.
	VisualAny []string `yaml:"visual_any,omitempty"`
	// TextAny: keywords whose presence in the text signals contradiction.
	TextAny []string `yaml:"text_any"`
	// UnlessTextAny: exception clause. When one of these also appears in the
	// text, the co-occurrence is considered legitimate and the rule does not
	// fire (e.g. an Eiffel Tower image with "Las Vegas" in the text is fine
	// if the text mentions the replica).
	UnlessTextAny []string `yaml:"unless_text_any,omitempty"`
	// Detail is an optional fragment appended to the rendered reason.
	Detail string `yaml:"detail,omitempty"`
}

// Category groups rules under one conflict taxonomy name. Categories are
// evaluated in declaration order, rules within a category in declaration
// order; the first match wins and evaluation stops.
type Category struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// Canonical category names.
const (
	CategoryTemporal = "Temporal"
	CategoryWeather  = "Weather"
	CategoryGeo      = "Geospatial/Entity"
	CategoryQuantity = "Quantity/Fact"
	CategoryState    = "State/Provenance"
	CategoryTopic    = "Topic/Polysemy"
	CategoryManual   = "Manual-Trigger"
)

// RuleSet is the versioned, declarative conflict taxonomy. Keyword sets are
// intentionally multi-script: CJK and Latin tokens live in the same set and
// are matched uniformly.
type RuleSet struct {
	Version    string     `yaml:"version"`
	Categories []Category `yaml:"categories"`
}

// LoadRuleSet reads a YAML rule set from disk.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}
	if err := set.Lint(); err != nil {
		return nil, fmt.Errorf("invalid rule set %s: %w", path, err)
	}
	return &set, nil
}

// Marshal renders the rule set as YAML for export and review.
func (s *RuleSet) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Lint validates the rule set's structure: recognized fields and match kinds,
// non-empty keyword sets, unique category names.
func (s *RuleSet) Lint() error {
	if s.Version == "" {
		return fmt.Errorf("rule set version missing")
	}
	if len(s.Categories) == 0 {
		return fmt.Errorf("rule set has no categories")
	}
	seen := make(map[string]bool)
	for _, cat := range s.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category with empty name")
		}
		if seen[cat.Name] {
			return fmt.Errorf("duplicate category %q", cat.Name)
		}
		seen[cat.Name] = true
		if len(cat.Rules) == 0 {
			return fmt.Errorf("category %q has no rules", cat.Name)
		}
		for _, r := range cat.Rules {
			if err := lintRule(cat.Name, r); err != nil {
				return err
			}
		}
	}
	return nil
}

func lintRule(category string, r Rule) error {
	if r.Name == "" {
		return fmt.Errorf("category %q: rule with empty name", category)
	}
	if len(r.TextAny) == 0 {
		return fmt.Errorf("rule %q: empty conflicting-keyword set", r.Name)
	}
	if len(r.VisualAny) > 0 && len(r.Fields) == 0 {
		return fmt.Errorf("rule %q: visual tokens without fields", r.Name)
	}
	if len(r.Fields) > 0 && len(r.VisualAny) == 0 {
		return fmt.Errorf("rule %q: fields without visual tokens", r.Name)
	}
	for _, f := range r.Fields {
		switch f {
		case FieldTime, FieldWeather, FieldLocation, FieldFact, FieldObjects, FieldTopic:
		default:
			return fmt.Errorf("rule %q: unknown field %q", r.Name, f)
		}
	}
	switch r.Match {
	case MatchEquals, MatchContains:
	case "":
		if len(r.VisualAny) > 0 {
			return fmt.Errorf("rule %q: match kind not set", r.Name)
		}
	default:
		return fmt.Errorf("rule %q: unknown match kind %q", r.Name, r.Match)
	}
	return nil
}

// DefaultRuleSet returns the built-in conflict taxonomy. The keyword tables
// carry both CJK and Latin tokens in each set; keep them together — splitting
// by language would break the uniform matching contract.
func DefaultRuleSet() *RuleSet {
	return &RuleSet{
		Version: "v1",
		Categories: []Category{
			{
				Name: CategoryTemporal,
				Rules: []Rule{
					{
						Name:      "day-vs-night",
						Fields:    []Field{FieldTime},
						Match:     MatchEquals,
						VisualAny: []string{"Day"},
						TextAny: []string{
							"深夜", "凌晨", "漆黑", "晚间", "通宵", "月色", "月光", "夜幕", "夜晚", "星空",
							"midnight", "night", "evening", "dark", "moon", "moonlight",
						},
						Detail: "bright daylight scene vs night-time claim",
					},
					{
						Name:      "night-vs-day",
						Fields:    []Field{FieldTime},
						Match:     MatchEquals,
						VisualAny: []string{"Night"},
						TextAny: []string{
							"阳光", "正午", "白天", "烈日", "上午", "下午", "中午", "清晨", "朝阳",
							"noon", "daylight", "morning", "daytime", "sunny", "afternoon",
						},
						Detail: "dark night scene vs daytime claim",
					},
				},
			},
			{
				Name: CategoryWeather,
				Rules: []Rule{
					{
						Name:      "sunny-vs-storm",
						Fields:    []Field{FieldWeather},
						Match:     MatchContains,
						VisualAny: []string{"Sunny", "Clear", "晴"},
						TextAny: []string{
							"暴雨", "洪水", "台风", "积水", "雷电", "狂风", "暴风", "大雨", "倾盆大雨", "风暴",
							"storm", "rain", "flood", "typhoon", "hurricane", "heavy rain", "rainstorm",
						},
						Detail: "clear sky vs storm/rain claim",
					},
					{
						Name:      "sunny-vs-snow",
						Fields:    []Field{FieldWeather},
						Match:     MatchContains,
						VisualAny: []string{"Sunny", "Clear", "晴"},
						TextAny: []string{
							"大雪", "暴雪", "寒冬", "冰雪", "雪花", "白雪皑皑", "鹅毛大雪",
							"snow", "blizzard", "snowstorm", "winter", "freezing", "frost",
						},
						Detail: "sunny scene vs snow/blizzard claim",
					},
					{
						Name:      "snow-vs-summer",
						Fields:    []Field{FieldWeather},
						Match:     MatchContains,
						VisualAny: []string{"Snow", "雪", "Winter"},
						TextAny: []string{
							"炎热", "酷暑", "短袖",
							"summer", "hot", "scorching",
						},
						Detail: "snow scene vs hot-summer claim",
					},
					{
						Name:      "rain-vs-sunny",
						Fields:    []Field{FieldWeather},
						Match:     MatchContains,
						VisualAny: []string{"Rain", "雨", "Storm"},
						TextAny: []string{
							"晴朗", "阳光明媚", "蓝天", "万里无云", "艳阳高照", "晴空万里",
							"sunny", "clear sky", "sunshine", "bright", "clear",
						},
						Detail: "rain scene vs sunny/clear claim",
					},
				},
			},
			{
				Name: CategoryGeo,
				Rules: []Rule{
					{
						Name:      "paris-vs-other-city",
						Fields:    []Field{FieldObjects, FieldLocation},
						Match:     MatchContains,
						VisualAny: []string{"Eiffel Tower", "埃菲尔铁塔", "巴黎", "Paris"},
						TextAny: []string{
							"Tokyo", "东京", "London", "伦敦", "Beijing", "北京", "New York", "纽约",
						},
						Detail: "Paris landmark vs other city",
					},
					{
						// The half-scale replica on the Vegas strip makes this
						// co-occurrence legitimate when the text says so.
						Name:          "paris-vs-las-vegas",
						Fields:        []Field{FieldObjects, FieldLocation},
						Match:         MatchContains,
						VisualAny:     []string{"Eiffel Tower", "埃菲尔铁塔", "巴黎", "Paris"},
						TextAny:       []string{"Las Vegas", "拉斯维加斯"},
						UnlessTextAny: []string{"replica", "复制品", "仿建", "Paris Las Vegas"},
						Detail:        "Paris landmark vs Las Vegas without replica qualifier",
					},
					{
						Name:      "tokyo-vs-other-city",
						Fields:    []Field{FieldObjects, FieldLocation},
						Match:     MatchContains,
						VisualAny: []string{"Tokyo Tower", "东京塔", "Tokyo", "东京"},
						TextAny: []string{
							"Paris", "巴黎", "London", "伦敦", "Shanghai", "上海",
						},
						Detail: "Tokyo landmark vs other city",
					},
					{
						Name:      "shanghai-vs-other-city",
						Fields:    []Field{FieldObjects, FieldLocation},
						Match:     MatchContains,
						VisualAny: []string{"东方明珠", "陆家嘴", "Shanghai", "上海"},
						TextAny: []string{
							"Tokyo", "东京", "Beijing", "北京", "Hong Kong", "香港",
						},
						Detail: "Shanghai landmark vs other city",
					},
					{
						Name:      "sydney-vs-other-city",
						Fields:    []Field{FieldObjects, FieldLocation},
						Match:     MatchContains,
						VisualAny: []string{"Sydney Opera House", "悉尼歌剧院", "Sydney", "悉尼"},
						TextAny: []string{
							"Beijing", "北京", "Tokyo", "东京", "London", "伦敦",
						},
						Detail: "Sydney landmark vs other city",
					},
					{
						Name:      "london-bridge-vs-golden-gate",
						Fields:    []Field{FieldObjects, FieldLocation},
						Match:     MatchContains,
						VisualAny: []string{"London Bridge", "Tower Bridge", "伦敦塔桥", "伦敦桥"},
						TextAny: []string{
							"Golden Gate", "金门大桥", "San Francisco", "旧金山",
						},
						Detail: "London bridge vs Golden Gate Bridge",
					},
				},
			},
			{
				Name: CategoryQuantity,
				Rules: []Rule{
					{
						Name:      "empty-vs-crowded",
						Fields:    []Field{FieldFact},
						Match:     MatchContains,
						VisualAny: []string{"Empty", "空", "No people", "无人", "Deserted"},
						TextAny: []string{
							"人山人海", "座无虚席", "人满为患", "拥挤", "人潮涌动", "熙熙攘攘",
							"crowded", "packed", "full house",
						},
						Detail: "empty/deserted scene vs crowded claim",
					},
					{
						Name:      "crowded-vs-empty",
						Fields:    []Field{FieldFact},
						Match:     MatchContains,
						VisualAny: []string{"Crowded", "拥挤", "人多", "Many people"},
						TextAny: []string{
							"空无一人", "空荡荡", "无人", "冷清", "空旷",
							"empty", "deserted", "nobody",
						},
						Detail: "crowded scene vs empty claim",
					},
				},
			},
			{
				Name: CategoryState,
				Rules: []Rule{
					{
						Name:      "closed-vs-open",
						Fields:    []Field{FieldFact, FieldObjects},
						Match:     MatchContains,
						VisualAny: []string{"Closed", "关闭", "停业", "歇业"},
						TextAny: []string{
							"开业", "营业中", "正式开业", "open for business", "reopened", "open",
						},
						Detail: "closed premises vs open-for-business claim",
					},
					{
						Name:      "broken-vs-new",
						Fields:    []Field{FieldFact, FieldObjects},
						Match:     MatchContains,
						VisualAny: []string{"Broken", "Damaged", "破损", "损坏"},
						TextAny: []string{
							"全新", "崭新", "完好无损", "brand new", "intact", "mint condition",
						},
						Detail: "damaged goods vs brand-new claim",
					},
					{
						Name:      "soldout-vs-available",
						Fields:    []Field{FieldFact, FieldObjects},
						Match:     MatchContains,
						VisualAny: []string{"Sold Out", "售罄", "断货"},
						TextAny: []string{
							"现货", "有售", "正在发售", "available", "in stock", "on sale",
						},
						Detail: "sold-out shelf vs availability claim",
					},
					{
						Name:      "scoreline-vs-result",
						Fields:    []Field{FieldFact, FieldObjects},
						Match:     MatchContains,
						VisualAny: []string{"0-0", "Draw", "平局"},
						TextAny: []string{
							"获胜", "大胜", "夺冠", "victory", "won the match", "beat",
						},
						Detail: "drawn scoreline vs victory claim",
					},
				},
			},
			{
				Name: CategoryTopic,
				Rules: []Rule{
					{
						Name:      "bull-vs-bull-market",
						Fields:    []Field{FieldTopic, FieldFact, FieldObjects},
						Match:     MatchContains,
						VisualAny: []string{"Bull", "Cattle", "公牛", "牛群"},
						TextAny: []string{
							"牛市", "bull market", "bullish", "股市大涨", "rally",
						},
						Detail: "literal animal vs market jargon",
					},
					{
						Name:      "bear-vs-bear-market",
						Fields:    []Field{FieldTopic, FieldFact, FieldObjects},
						Match:     MatchContains,
						VisualAny: []string{"Bear", "棕熊", "黑熊", "熊猫"},
						TextAny: []string{
							"熊市", "bear market", "bearish", "股市暴跌",
						},
						Detail: "literal animal vs market jargon",
					},
					{
						Name:      "apple-vs-apple-inc",
						Fields:    []Field{FieldTopic, FieldFact, FieldObjects},
						Match:     MatchContains,
						VisualAny: []string{"Apple", "Fruit", "苹果园", "水果"},
						TextAny: []string{
							"iPhone", "发布会", "股价", "市值", "Apple Inc", "苹果公司",
						},
						Detail: "literal fruit vs company jargon",
					},
				},
			},
			{
				Name: CategoryManual,
				Rules: []Rule{
					{
						// Operator-injected override for demos and debugging,
						// fires regardless of attributes.
						Name: "manual-trigger",
						TextAny: []string{
							"逻辑错误", "明显矛盾", "LOGIC_TRAP", "CONFLICT_TEST",
						},
						Detail: "manual trigger keyword",
					},
				},
			},
		},
	}
}
