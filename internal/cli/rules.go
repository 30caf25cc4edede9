package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/veridict/internal/rules"
	"github.com/spf13/cobra"
)

// rulesCmd represents the rules command
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and manage the conflict rule set",
	Long: `Inspect the attribute-conflict rule set used by Channel 3 (Logic).

Rules are grouped into ordered categories (Temporal first, Manual-Trigger
last); within a sample the first matching rule wins. The built-in rule
set carries multi-script keyword tables and can be exported to YAML,
edited, and loaded back with --ruleset.`,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List rule categories and rules",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSet()
		if err != nil {
			return err
		}

		fmt.Printf("Rule set version: %s\n\n", set.Version)
		for _, cat := range set.Categories {
			fmt.Printf("%s (%d rules)\n", cat.Name, len(cat.Rules))
			for _, r := range cat.Rules {
				fmt.Printf("  - %s\n", r.Name)
			}
		}
		return nil
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the rule set as YAML",
	Long: `Export the active rule set as YAML, to stdout or to a file. The
exported file is a valid --ruleset input after editing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadSet()
		if err != nil {
			return err
		}

		data, err := set.Marshal()
		if err != nil {
			return fmt.Errorf("marshal rule set: %w", err)
		}

		if len(args) == 0 {
			fmt.Print(string(data))
			return nil
		}
		if err := os.WriteFile(args[0], data, 0644); err != nil {
			return fmt.Errorf("write rule set: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Exported rule set to %s\n", args[0])
		return nil
	},
}

var rulesLintCmd = &cobra.Command{
	Use:   "lint <file>",
	Short: "Validate a YAML rule set file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := rules.LoadRuleSet(args[0])
		if err != nil {
			return err
		}
		if err := set.Lint(); err != nil {
			return err
		}

		count := 0
		for _, cat := range set.Categories {
			count += len(cat.Rules)
		}
		fmt.Fprintf(os.Stderr, "✓ %s: version %s, %d categories, %d rules\n",
			args[0], set.Version, len(set.Categories), count)
		return nil
	},
}

// loadSet returns the rule set selected by --ruleset, or the built-in one.
func loadSet() (*rules.RuleSet, error) {
	if rulesetFile != "" {
		return rules.LoadRuleSet(rulesetFile)
	}
	return rules.DefaultRuleSet(), nil
}

var rulesetFile string

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesLintCmd)

	rulesCmd.PersistentFlags().StringVar(&rulesetFile, "ruleset", "", "YAML rule set file (default: built-in rules)")
}
