// Command planweave runs the built-in LLM agent workflows from the
// terminal: list agents, run one with per-agent flags, resume an
// interrupted graph run, or replay a run's event history.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/planweave/planweave"
	"github.com/planweave/planweave/checkpoint"
	"github.com/planweave/planweave/config"
	"github.com/planweave/planweave/logging"
	"github.com/planweave/planweave/model"
	"github.com/planweave/planweave/model/anthropic"
	"github.com/planweave/planweave/model/openai"
	"github.com/planweave/planweave/observability"
	"github.com/planweave/planweave/session"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string
	verbose    bool

	// Shared run flags.
	runID string

	// Marketing.
	url            string
	name           string
	description    string
	maxPersonas    int
	competitorHint string
	feedback       string

	// College finder.
	major             string
	location          string
	maxTuition        int
	minAcceptanceRate float64
	satScore          int
	maxColleges       int

	// Vacation house.
	budget    int
	cityLimit int
	homeLimit int

	// Research.
	request string
}

func newRootCmd() *cobra.Command {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:           "planweave",
		Short:         "Run LLM agent workflows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a YAML/JSON config file")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newListCmd(flags))
	root.AddCommand(newRunCmd(flags))
	root.AddCommand(newResumeCmd(flags))
	root.AddCommand(newEventsCmd(flags))
	return root
}

func newListCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available agents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := buildFacade(flags)
			if err != nil {
				return err
			}
			for _, info := range pw.Agents() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-15s %s\n", info.ID, info.Description)
			}
			return nil
		},
	}
}

func newRunCmd(flags *cliFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [agent-id]",
		Short: "Run an agent workflow",
		Long: "Run an agent workflow. Without an agent-id the default agent " +
			"(marketing) runs. Flags irrelevant to the chosen agent are ignored.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentID := ""
			if len(args) > 0 {
				agentID = args[0]
			}
			pw, err := buildFacade(flags)
			if err != nil {
				return err
			}

			runID, result, _, err := pw.RunAgentSync(cmd.Context(), agentID, flags.inputs())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Run ID:", runID)
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.runID, "run-id", "", "explicit run ID (for later resume)")

	cmd.Flags().StringVar(&flags.url, "url", "", "product site URL (marketing)")
	cmd.Flags().StringVar(&flags.name, "name", "", "product name (marketing)")
	cmd.Flags().StringVar(&flags.description, "description", "", "product description (marketing)")
	cmd.Flags().IntVar(&flags.maxPersonas, "max-personas", 0, "persona cap (marketing)")
	cmd.Flags().StringVar(&flags.competitorHint, "competitor-hint", "", "known competitor to search around (marketing)")
	cmd.Flags().StringVar(&flags.feedback, "feedback", "", "extra guidance for the model (marketing)")

	cmd.Flags().StringVar(&flags.major, "major", "", "intended major (collegefinder)")
	cmd.Flags().StringVar(&flags.location, "location", "", "location preference (collegefinder) or home location (vacationhouse)")
	cmd.Flags().IntVar(&flags.maxTuition, "max-tuition", 0, "tuition ceiling in USD (collegefinder)")
	cmd.Flags().Float64Var(&flags.minAcceptanceRate, "min-acceptance-rate", 0, "minimum acceptance rate percent (collegefinder)")
	cmd.Flags().IntVar(&flags.satScore, "sat-score", 0, "student SAT score (collegefinder)")
	cmd.Flags().IntVar(&flags.maxColleges, "max-colleges", 0, "college cap (collegefinder)")

	cmd.Flags().IntVar(&flags.budget, "budget", 0, "purchase budget in USD (vacationhouse)")
	cmd.Flags().IntVar(&flags.cityLimit, "city-limit", 0, "candidate city cap (vacationhouse)")
	cmd.Flags().IntVar(&flags.homeLimit, "home-limit", 0, "listings per city cap (vacationhouse)")

	cmd.Flags().StringVar(&flags.request, "request", "", "content request (research)")
	return cmd
}

func newResumeCmd(flags *cliFlags) *cobra.Command {
	var agentID string
	cmd := &cobra.Command{
		Use:   "resume <run-id>",
		Short: "Resume a checkpointed run from its latest checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := buildFacade(flags)
			if err != nil {
				return err
			}
			result, err := pw.ResumeAgent(cmd.Context(), agentID, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().StringVar(&agentID, "agent", "", "agent the run belongs to (default: marketing)")
	return cmd
}

func newEventsCmd(flags *cliFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "events <run-id>",
		Short: "Print the recorded event history of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := buildFacade(flags)
			if err != nil {
				return err
			}
			events, err := pw.Sessions().Events(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, ev := range events {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-14s %-25s %s\n",
					ev.Timestamp.Format("15:04:05"), ev.Kind, ev.Author, ev.Message)
			}
			return nil
		},
	}
}

// inputs collects the flag values into the registry's generic input map.
// Zero values are omitted so agent defaults apply.
func (f *cliFlags) inputs() map[string]any {
	in := make(map[string]any)
	set := func(key string, v any) {
		switch val := v.(type) {
		case string:
			if val != "" {
				in[key] = val
			}
		case int:
			if val != 0 {
				in[key] = val
			}
		case float64:
			if val != 0 {
				in[key] = val
			}
		}
	}
	set("run_id", f.runID)
	set("url", f.url)
	set("name", f.name)
	set("description", f.description)
	set("max_personas", f.maxPersonas)
	set("competitor_hint", f.competitorHint)
	set("feedback", f.feedback)
	set("major", f.major)
	set("location", f.location)
	set("max_tuition", f.maxTuition)
	set("min_acceptance_rate", f.minAcceptanceRate)
	set("sat_score", f.satScore)
	set("max_colleges", f.maxColleges)
	set("budget", f.budget)
	set("city_limit", f.cityLimit)
	set("home_limit", f.homeLimit)
	set("request", f.request)
	return in
}

// buildFacade loads config and wires the model provider and stores.
func buildFacade(flags *cliFlags) (*planweave.PlanWeave, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if flags.verbose {
		cfg.LogLevel = "debug"
	}

	m, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}

	logger := logging.New(func(o *logging.Options) {
		o.Level = slogLevel(cfg.LogLevel)
		o.Format = "text"
	})

	return planweave.New(m, func(o *planweave.Options) {
		o.Logger = logger
		o.Tools = cfg.Tools
		if cfg.Telemetry {
			o.Metrics = observability.NewMetricsRecorder()
			o.Tracer = observability.NewTracer()
		}
		if cfg.CheckpointPath != "" {
			store, err := checkpoint.NewSQLiteStore(cfg.CheckpointPath)
			if err == nil {
				o.CheckpointStore = store
			} else {
				logger.Warn("cli.checkpoint_store.fallback", "error", err.Error())
			}
		}
		if cfg.SessionPath != "" {
			store, err := session.NewSQLiteStore(cfg.SessionPath)
			if err == nil {
				o.SessionStore = store
			} else {
				logger.Warn("cli.session_store.fallback", "error", err.Error())
			}
		}
	})
}

func buildModel(cfg config.Config) (model.Model, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey != "" {
			client := openaisdk.NewClient(option.WithAPIKey(cfg.APIKey))
			return openai.NewFromClient(&client, func(o *openai.Options) {
				applyOpenAI(o, cfg)
			}), nil
		}
		return openai.New(func(o *openai.Options) {
			applyOpenAI(o, cfg)
		}), nil
	case "anthropic":
		return anthropic.New(func(o *anthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = int64(cfg.MaxTokens)
			}
			o.APIKey = cfg.APIKey
		}), nil
	case "mock":
		return model.NewMockModel(), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func applyOpenAI(o *openai.Options, cfg config.Config) {
	if cfg.Model != "" {
		o.Model = cfg.Model
	}
	o.Temperature = cfg.Temperature
	if cfg.MaxTokens > 0 {
		o.MaxCompletionTokens = int64(cfg.MaxTokens)
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
