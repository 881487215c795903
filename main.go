package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

var (
	settingsPath string
	apiKey       string
	personaPath  string
	promptsDir   string
	debugMode    bool

	ideaNiche string
	ideaCount int

	planNiche     string
	planPlatforms []string
	planDuration  string

	postTopic    string
	postPlatform string
	postTone     string
)

var rootCmd = &cobra.Command{
	Use:   "social-writer",
	Short: "Social media content backend backed by an LLM and live web search",
	Long: `Generates post ideas, content calendars and researched posts for social media.
Runs the HTTP API by default; the subcommands call the same generator directly.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var ideasCmd = &cobra.Command{
	Use:   "ideas",
	Short: "Generate numbered post ideas for a niche",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd.Context(), func(ctx context.Context, agent *SocialMediaAgent) (string, error) {
			return agent.GenerateIdeas(ctx, ideaNiche, ideaCount)
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a strategy and day-by-day content plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd.Context(), func(ctx context.Context, agent *SocialMediaAgent) (string, error) {
			return agent.GeneratePlan(ctx, planNiche, planPlatforms, planDuration)
		})
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Research a topic and write a refined post",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAgent(cmd.Context(), func(ctx context.Context, agent *SocialMediaAgent) (string, error) {
			return agent.CreateFactBasedPost(ctx, postTopic, postPlatform, postTone)
		})
	},
}

var checkPromptsCmd = &cobra.Command{
	Use:   "check-prompts",
	Short: "Validate the persona and prompt templates and show where each comes from",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompts, err := LoadPrompts(configOverrides())
		if err != nil {
			return err
		}
		for _, src := range prompts.Sources() {
			fmt.Printf("%-10s %s\n", src[0], src[1])
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&settingsPath, "settings", "", "Path to custom settings.yaml")
	flags.StringVar(&apiKey, "api-key", "", "LLM API key (default $GEMINI_API_KEY)")
	flags.StringVar(&personaPath, "persona", "", "Path to custom persona file")
	flags.StringVar(&promptsDir, "prompts-dir", "", "Directory with custom prompt templates")
	flags.BoolVar(&debugMode, "debug", false, "Enable debug logging")

	ideasCmd.Flags().StringVar(&ideaNiche, "niche", "", "Subject area")
	ideasCmd.Flags().IntVar(&ideaCount, "count", defaultIdeaCount, "Number of ideas")
	_ = ideasCmd.MarkFlagRequired("niche")

	planCmd.Flags().StringVar(&planNiche, "niche", "", "Subject area")
	planCmd.Flags().StringArrayVar(&planPlatforms, "platform", nil, "Target platform (repeatable)")
	planCmd.Flags().StringVar(&planDuration, "duration", defaultDuration, "Plan span")
	_ = planCmd.MarkFlagRequired("niche")

	postCmd.Flags().StringVar(&postTopic, "topic", "", "Subject of the post")
	postCmd.Flags().StringVar(&postPlatform, "platform", "", "Target platform")
	postCmd.Flags().StringVar(&postTone, "tone", defaultTone, "Writing tone")
	_ = postCmd.MarkFlagRequired("topic")
	_ = postCmd.MarkFlagRequired("platform")

	rootCmd.AddCommand(serveCmd, ideasCmd, planCmd, postCmd, checkPromptsCmd, versionCmd)
}

// configOverrides collects the persistent flags that replace embedded defaults
func configOverrides() *ConfigOverrides {
	overrides := &ConfigOverrides{}
	if settingsPath != "" {
		overrides.SettingsPath = &settingsPath
	}
	if personaPath != "" {
		overrides.PersonaPath = &personaPath
	}
	if promptsDir != "" {
		overrides.PromptsDir = &promptsDir
	}
	if apiKey != "" {
		overrides.APIKey = &apiKey
	}
	return overrides
}

// application holds everything the commands share
type application struct {
	settings *Settings
	logger   *zap.Logger
	agent    *SocialMediaAgent
}

// newApplication loads configuration and wires the generator
func newApplication(ctx context.Context, overrides *ConfigOverrides) (*application, error) {
	settings, err := LoadSettings(overrides)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	logger, err := NewLogger(debugMode)
	if err != nil {
		return nil, err
	}

	if settings.LLM.APIKey == "" {
		logger.Warn("GEMINI_API_KEY not found in environment; model calls will fail",
			zap.String("provider", settings.LLM.Provider),
		)
	}

	prompts, err := LoadPrompts(overrides)
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	completer, err := NewCompleter(ctx, settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("creating completer: %w", err)
	}

	engine, err := NewSearchEngine(settings.Search)
	if err != nil {
		return nil, fmt.Errorf("creating search engine: %w", err)
	}

	researcher := NewResearchAgent(engine, settings.Search.MaxResults, logger.Named("research"))
	agent, err := NewSocialMediaAgent(completer, researcher, prompts, settings.Pipeline.OnPhaseFailure, logger.Named("agent"))
	if err != nil {
		return nil, err
	}

	logger.Debug("Application configured",
		zap.String("provider", settings.LLM.Provider),
		zap.String("model", settings.LLM.Model),
		zap.String("search_engine", settings.Search.Engine),
		zap.Int("max_results", settings.Search.MaxResults),
		zap.String("on_phase_failure", string(settings.Pipeline.OnPhaseFailure)),
	)

	return &application{
		settings: settings,
		logger:   logger,
		agent:    agent,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApplication(ctx, configOverrides())
	if err != nil {
		return err
	}
	defer func() { _ = app.logger.Sync() }()

	handler := NewContentHandler(app.agent, app.logger.Named("http"))
	router := NewRouter(handler, app.settings.Server.CORS, app.logger.Named("http"), debugMode)
	server := NewServer(app.settings.Server, router, app.logger)

	return server.Run(ctx)
}

// withAgent runs a one-shot generation and prints the result
func withAgent(ctx context.Context, generate func(context.Context, *SocialMediaAgent) (string, error)) error {
	app, err := newApplication(ctx, configOverrides())
	if err != nil {
		return err
	}
	defer func() { _ = app.logger.Sync() }()

	text, err := generate(ctx, app.agent)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
