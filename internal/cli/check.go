package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/veridict/internal/model"
	"github.com/ppiankov/veridict/internal/pipeline"
	"github.com/ppiankov/veridict/internal/worker"
	"github.com/spf13/cobra"
)

var (
	checkText string
	metaTime  string
	metaWx    string
	metaLoc   string
	metaFact  string
	metaObj   string
	metaTopic string

	tamperURL         string
	semanticURL       string
	tamperThreshold   float64
	semanticThreshold float64
	matching          string
	rulesetPath       string
	captionProvider   string
	captionModel      string
	providerTimeout   time.Duration
	noCache           bool
	cacheDir          string
	httpProxy         string
	httpsProxy        string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <image>",
	Short: "Evaluate a single image/text pair",
	Long: `Check runs one image/text pair through all three channels and prints
the fused verdict:
- Derive visual attributes from flags or a captioning model
- Evaluate attribute-conflict rules against the text
- Query the configured score providers (fail-open when absent)
- Fuse channel votes into a risk verdict with an audit reason

Example:
  veridict check photo.jpg --text "深夜的街道格外宁静" --meta-time Day
  veridict check photo.jpg --text "Sunny beach day" --captioner openai
  veridict check photo.jpg --text "..." --tamper-url http://localhost:8801/score`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkText, "text", "", "text content paired with the image (required)")
	_ = checkCmd.MarkFlagRequired("text")

	// Attribute flags (used when no captioner is configured)
	checkCmd.Flags().StringVar(&metaTime, "meta-time", "", "visual time attribute (Day/Night)")
	checkCmd.Flags().StringVar(&metaWx, "meta-weather", "", "visual weather attribute")
	checkCmd.Flags().StringVar(&metaLoc, "meta-location", "", "visual location attribute")
	checkCmd.Flags().StringVar(&metaFact, "meta-fact", "", "visual fact attribute")
	checkCmd.Flags().StringVar(&metaObj, "meta-object", "", "visual object attribute")
	checkCmd.Flags().StringVar(&metaTopic, "meta-topic", "", "visual topic attribute")

	addEngineFlags(checkCmd)
}

// addEngineFlags registers the flags shared by check and batch.
func addEngineFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&tamperURL, "tamper-url", "", "tamper score provider endpoint (empty: channel fails open)")
	cmd.Flags().StringVar(&semanticURL, "semantic-url", "", "semantic score provider endpoint (empty: channel fails open)")
	cmd.Flags().Float64Var(&tamperThreshold, "tamper-threshold", 0.5, "tamper alarm threshold (score above alarms)")
	cmd.Flags().Float64Var(&semanticThreshold, "semantic-threshold", 0.22, "semantic alarm threshold (score below alarms)")
	cmd.Flags().StringVar(&matching, "matching", "substring", "keyword matching mode: substring or word")
	cmd.Flags().StringVar(&rulesetPath, "ruleset", "", "custom YAML rule set (default: built-in rules)")
	cmd.Flags().StringVar(&captionProvider, "captioner", "", "caption provider for visual attributes (openai, ollama)")
	cmd.Flags().StringVar(&captionModel, "captioner-model", "", "caption model name")
	cmd.Flags().DurationVar(&providerTimeout, "provider-timeout", 10*time.Second, "per-call timeout for score providers")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable score/caption caching")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persistent cache directory (default: in-memory only)")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// buildConfig assembles the runtime configuration from the shared flags.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Channels.Tamper.Threshold = tamperThreshold
	cfg.Channels.Semantic.Threshold = semanticThreshold
	cfg.Rules.Matching = matching
	cfg.Rules.RuleSetPath = rulesetPath
	cfg.Providers.TamperURL = tamperURL
	cfg.Providers.SemanticURL = semanticURL
	cfg.Providers.Timeout = providerTimeout
	cfg.Providers.HTTPProxy = httpProxy
	cfg.Providers.HTTPSProxy = httpsProxy
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = cacheDir
	cfg.Output.Verbose = verbose

	if captionProvider != "" {
		cfg.Captioner.Provider = captionProvider
		cfg.Captioner.Model = captionModel
		cfg.Captioner.HTTPProxy = httpProxy
		cfg.Captioner.HTTPSProxy = httpsProxy

		switch captionProvider {
		case "openai":
			cfg.Captioner.APIKey = os.Getenv("OPENAI_API_KEY")
			if cfg.Captioner.APIKey == "" {
				return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
			}
		case "ollama":
			// Ollama doesn't need an API key
			if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
				cfg.Captioner.BaseURL = baseURL
			}
		}
	}

	return cfg, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	imagePath := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	limiter := worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)
	p, err := pipeline.NewPipeline(cfg, limiter)
	if err != nil {
		return err
	}

	sample := model.Sample{
		ID:          "check",
		ImagePath:   imagePath,
		TextContent: checkText,

		MetaTime:     metaTime,
		MetaWeather:  metaWx,
		MetaLocation: metaLoc,
		MetaFact:     metaFact,
		MetaObject:   metaObj,
		MetaTopic:    metaTopic,

		GTFinalLabel:  model.GTUnset,
		GTCh1Tamper:   model.GTUnset,
		GTCh2Mismatch: model.GTUnset,
		GTCh3Logic:    model.GTUnset,
	}

	result, err := p.Evaluate(ctx, sample)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	printResult(result)
	return nil
}

func printResult(result *pipeline.Result) {
	fmt.Printf("Verdict:        %s\n", verdictWord(result.Verdict))
	fmt.Printf("Risk score:     %.3f\n", result.Verdict.RiskScore)
	fmt.Printf("Intercepted by: %s\n", result.Verdict.InterceptedBy)
	fmt.Printf("Attributes:     time=%s weather=%s location=%s fact=%s objects=%s topic=%s\n",
		result.Attributes.Time, result.Attributes.Weather, result.Attributes.Location,
		result.Attributes.Fact, result.Attributes.Objects, result.Attributes.Topic)

	for _, cs := range result.Scores {
		state := fmt.Sprintf("%.3f (threshold %.2f, %s)", cs.Score, cs.Threshold, cs.Direction)
		if cs.Unavailable {
			state = "unavailable (failed open)"
		}
		fmt.Printf("Channel %-9s %s\n", cs.Channel+":", state)
	}

	fmt.Printf("Logic:          %s\n", result.ConflictReason())
	for _, reason := range result.Verdict.Reasons {
		fmt.Printf("Alarm:          %s\n", reason)
	}
	for _, note := range result.Verdict.Notes {
		fmt.Printf("Note:           %s\n", note)
	}
}

func verdictWord(v model.FusionVerdict) string {
	if v.IsRisk {
		return "RISK"
	}
	return "SAFE"
}
