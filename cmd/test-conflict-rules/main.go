// Test program to demonstrate attribute-conflict detection
// This shows the rule categories and fusion verdicts working on canned samples
package main

import (
	"fmt"
	"strings"

	"github.com/ppiankov/veridict/internal/fusion"
	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/rules"
)

type demoSample struct {
	name  string
	attrs model.VisualAttributes
	text  string
}

func main() {
	fmt.Println("=== Attribute-Conflict Detection Test ===")
	fmt.Println()

	samples := []demoSample{
		{
			name:  "Temporal conflict (CJK)",
			attrs: model.VisualAttributes{Time: "Day"},
			text:  "深夜的街道格外宁静，月光洒满大地",
		},
		{
			name:  "Weather conflict",
			attrs: model.VisualAttributes{Weather: "Sunny", Location: "Beach"},
			text:  "狂风暴雨袭击了海岸线，游客纷纷避难",
		},
		{
			name:  "Geospatial conflict",
			attrs: model.VisualAttributes{Location: "Paris", Objects: "Eiffel Tower"},
			text:  "Tokyo Tower lit up beautifully last night",
		},
		{
			name:  "Geospatial exception (replica)",
			attrs: model.VisualAttributes{Objects: "Eiffel Tower"},
			text:  "The Eiffel Tower replica at Paris Las Vegas",
		},
		{
			name:  "Manual trigger",
			attrs: model.VisualAttributes{},
			text:  "normal caption CONFLICT_TEST appended",
		},
		{
			name:  "Consistent",
			attrs: model.VisualAttributes{Time: "Night", Weather: "Clear"},
			text:  "A quiet clear night in the old town",
		},
	}

	engine, err := rules.NewEngine(nil, rules.ModeSubstring)
	if err != nil {
		panic(err)
	}
	fuser, err := fusion.NewEngine(model.DefaultConfig().Channels)
	if err != nil {
		panic(err)
	}

	for _, s := range samples {
		fmt.Printf("Sample: %s\n", s.name)
		fmt.Println(strings.Repeat("-", 60))
		fmt.Printf("  Text: %s\n", s.text)

		finding := engine.Evaluate(s.attrs.Normalize(), s.text)
		if finding != nil {
			fmt.Printf("  ⚠️  CONFLICT [%s]\n", finding.Category)
			fmt.Printf("     %s\n", finding.Reason)
		} else {
			fmt.Println("  ✓ No conflict detected")
		}

		// Fuse with both score channels unavailable: the logic channel
		// alone decides the verdict.
		scores := []model.ChannelScore{
			fuser.Channel(model.ChannelTamper, 0, true),
			fuser.Channel(model.ChannelSemantic, 0, true),
		}
		verdict := fuser.Fuse(scores, finding)
		fmt.Printf("  Verdict: %s (risk score %.2f, intercepted by %s)\n",
			verdict.Label(), verdict.RiskScore, verdict.InterceptedBy)
		fmt.Println()
	}

	fmt.Println("=== Test Complete ===")
	fmt.Println()
	fmt.Println("Note: score channels are failed open in this demo.")
	fmt.Println("Wire --tamper-url and --semantic-url for full three-channel runs.")
}
