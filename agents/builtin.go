package agents

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/planweave/planweave/agents/collegefinder"
	"github.com/planweave/planweave/agents/marketing"
	"github.com/planweave/planweave/agents/research"
	"github.com/planweave/planweave/agents/vacationhouse"
	"github.com/planweave/planweave/config"
	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/graph"
	"github.com/planweave/planweave/memory"
	"github.com/planweave/planweave/tool/browser"
	"github.com/planweave/planweave/tool/homes"
	"github.com/planweave/planweave/tool/scrape"
	"github.com/planweave/planweave/tool/websearch"
)

func builtins() []Registration {
	return []Registration{
		{
			Info: Info{
				ID:          "marketing",
				Description: "Analyze a product site, invent personas, extract keywords, rank competitors and propose strategies",
			},
			Run:    runMarketing,
			Resume: resumeMarketing,
		},
		{
			Info: Info{
				ID:          "collegefinder",
				Description: "Search for colleges matching a student profile and recommend the best fits",
			},
			Run:    runCollegeFinder,
			Resume: resumeCollegeFinder,
		},
		{
			Info: Info{
				ID:          "vacationhouse",
				Description: "Research vacation home cities, verify listings and survey local businesses",
			},
			Run: runVacationHouse,
		},
		{
			Info: Info{
				ID:          "research",
				Description: "Find a trending topic not covered recently and produce a content brief",
			},
			Run: runResearch,
		},
	}
}

// runOptions assembles the common graph run options from the environment.
func (e Env) runOptions(ctx context.Context, inputs map[string]any) []graph.RunOption {
	runID := stringInput(inputs, "run_id")
	if runID == "" {
		runID = core.NewID()
	}
	opts := []graph.RunOption{graph.WithRunID(runID)}
	if e.Logger != nil {
		opts = append(opts, graph.WithLogger(e.Logger))
	}
	if e.Metrics != nil {
		opts = append(opts, graph.WithMetrics(e.Metrics))
	}
	if e.Tracer != nil {
		opts = append(opts, graph.WithTracer(e.Tracer))
	}
	if e.Checkpoints != nil {
		opts = append(opts, graph.WithCheckpoints(e.Checkpoints))
	}
	if emit := e.emit(ctx); emit != nil {
		opts = append(opts, graph.WithEmit(emit))
	}
	return opts
}

// resumeOptions assembles the graph options shared by resumed runs.
func (e Env) resumeOptions(workflow string) []graph.RunOption {
	opts := []graph.RunOption{graph.WithWorkflowName(workflow)}
	if e.Logger != nil {
		opts = append(opts, graph.WithLogger(e.Logger))
	}
	if e.Metrics != nil {
		opts = append(opts, graph.WithMetrics(e.Metrics))
	}
	if e.Tracer != nil {
		opts = append(opts, graph.WithTracer(e.Tracer))
	}
	return opts
}

// toolLimits normalizes the configured tool limits; the zero value means
// "use the defaults".
func toolLimits(tc config.ToolsConfig) config.ToolsConfig {
	if tc == (config.ToolsConfig{}) {
		return config.Default().Tools
	}
	return tc
}

// searchOptions, scrapeOptions and browserOptions translate the configured
// limits into tool constructor options.
func searchOptions(tc config.ToolsConfig) func(*websearch.Options) {
	tc = toolLimits(tc)
	return func(o *websearch.Options) {
		if tc.SearchMaxResults > 0 {
			o.MaxResults = tc.SearchMaxResults
		}
	}
}

func scrapeOptions(tc config.ToolsConfig) func(*scrape.Options) {
	tc = toolLimits(tc)
	return func(o *scrape.Options) {
		if tc.ScrapeMaxChars > 0 {
			o.MaxTextLen = tc.ScrapeMaxChars
		}
	}
}

func browserOptions(tc config.ToolsConfig) func(*browser.Options) {
	tc = toolLimits(tc)
	return func(o *browser.Options) {
		o.Headless = tc.BrowserHeadless
	}
}

type marketingReport struct {
	RunID       string                 `json:"run_id,omitempty"`
	AppName     string                 `json:"app_name"`
	Personas    []marketing.Persona    `json:"personas"`
	Keywords    []string               `json:"keywords"`
	Competitors []marketing.Competitor `json:"competitors"`
	Strategies  []marketing.Strategy   `json:"strategies"`
	Subreddits  []string               `json:"subreddits"`
}

func runMarketing(ctx context.Context, env Env, inputs map[string]any) (string, error) {
	w, err := marketing.New(env.Model, marketingOptions(env))
	if err != nil {
		return "", err
	}

	state := marketing.State{
		AppName:        stringInput(inputs, "name"),
		AppURL:         stringInput(inputs, "url"),
		AppDescription: stringInput(inputs, "description"),
		MaxPersonas:    intInput(inputs, "max_personas"),
		CompetitorHint: stringInput(inputs, "competitor_hint"),
		HumanFeedback:  stringInput(inputs, "feedback"),
	}
	final, err := w.Run(ctx, state, env.runOptions(ctx, inputs)...)
	if err != nil {
		return "", err
	}
	return asJSON(marketingReport{
		RunID:       stringInput(inputs, "run_id"),
		AppName:     final.AppName,
		Personas:    final.Personas,
		Keywords:    final.Keywords,
		Competitors: final.Competitors,
		Strategies:  final.Strategies,
		Subreddits:  final.Subreddits,
	})
}

// marketingOptions wires the environment's logger and configured tools
// into the marketing workflow.
func marketingOptions(env Env) func(o *marketing.Options) {
	return func(o *marketing.Options) {
		if env.Logger != nil {
			o.Logger = env.Logger
		}
		o.Search = websearch.New(searchOptions(env.Tools))
		o.Pages = scrape.New(scrapeOptions(env.Tools))
		o.Render = browser.New(browserOptions(env.Tools))
	}
}

func resumeMarketing(ctx context.Context, env Env, runID string) (string, error) {
	if env.Checkpoints == nil {
		return "", fmt.Errorf("agents: no checkpoint store configured")
	}
	w, err := marketing.New(env.Model, marketingOptions(env))
	if err != nil {
		return "", err
	}
	final, err := w.Graph().Resume(ctx, env.Checkpoints, runID, env.resumeOptions("marketing")...)
	if err != nil {
		return "", err
	}
	return asJSON(marketingReport{
		RunID:       runID,
		AppName:     final.AppName,
		Personas:    final.Personas,
		Keywords:    final.Keywords,
		Competitors: final.Competitors,
		Strategies:  final.Strategies,
		Subreddits:  final.Subreddits,
	})
}

func runCollegeFinder(ctx context.Context, env Env, inputs map[string]any) (string, error) {
	w, err := collegefinder.New(env.Model, collegefinderOptions(env))
	if err != nil {
		return "", err
	}

	state := collegefinder.State{
		Major:              stringInput(inputs, "major"),
		LocationPreference: stringInput(inputs, "location"),
		MaxTuition:         intInput(inputs, "max_tuition"),
		MinAcceptanceRate:  floatInput(inputs, "min_acceptance_rate"),
		SATScore:           intInput(inputs, "sat_score"),
		MaxColleges:        intInput(inputs, "max_colleges"),
	}
	final, err := w.Run(ctx, state, env.runOptions(ctx, inputs)...)
	if err != nil {
		return "", err
	}
	return strings.Join(final.Recommendations, "\n"), nil
}

func collegefinderOptions(env Env) func(o *collegefinder.Options) {
	return func(o *collegefinder.Options) {
		if env.Logger != nil {
			o.Logger = env.Logger
		}
		o.Search = websearch.New(searchOptions(env.Tools))
	}
}

func resumeCollegeFinder(ctx context.Context, env Env, runID string) (string, error) {
	if env.Checkpoints == nil {
		return "", fmt.Errorf("agents: no checkpoint store configured")
	}
	w, err := collegefinder.New(env.Model, collegefinderOptions(env))
	if err != nil {
		return "", err
	}
	final, err := w.Graph().Resume(ctx, env.Checkpoints, runID, env.resumeOptions("collegefinder")...)
	if err != nil {
		return "", err
	}
	return strings.Join(final.Recommendations, "\n"), nil
}

func runVacationHouse(ctx context.Context, env Env, inputs map[string]any) (string, error) {
	c, err := vacationhouse.New(env.Model, func(o *vacationhouse.Options) {
		if env.Logger != nil {
			o.Logger = env.Logger
		}
		o.Emit = env.emit(ctx)
		o.RunID = stringInput(inputs, "run_id")
		o.Metrics = env.Metrics
		o.Tracer = env.Tracer
		search := websearch.New(searchOptions(env.Tools))
		o.SearchTool = search.Tool()
		o.HomesTool = homes.New(search).Tool()
		o.ScrapeTool = scrape.New(scrapeOptions(env.Tools)).Tool()
	})
	if err != nil {
		return "", err
	}
	out, err := c.Run(ctx, vacationhouse.Inputs{
		Location:  stringInput(inputs, "location"),
		Budget:    intInput(inputs, "budget"),
		CityLimit: intInput(inputs, "city_limit"),
		HomeLimit: intInput(inputs, "home_limit"),
	})
	if err != nil {
		return "", err
	}
	return out.Raw, nil
}

func runResearch(ctx context.Context, env Env, inputs map[string]any) (string, error) {
	mem := env.Memory
	if mem == nil {
		mem = memory.NewInMemoryStore()
	}
	c, err := research.New(env.Model, func(o *research.Options) {
		if env.Logger != nil {
			o.Logger = env.Logger
		}
		o.Memory = mem
		o.Emit = env.emit(ctx)
		o.RunID = stringInput(inputs, "run_id")
		o.Metrics = env.Metrics
		o.Tracer = env.Tracer
		o.SearchTool = websearch.New(searchOptions(env.Tools)).Tool()
	})
	if err != nil {
		return "", err
	}
	brief, err := c.Run(ctx, stringInput(inputs, "request"))
	if err != nil {
		return "", err
	}
	return asJSON(brief)
}

// floatInput reads a float parameter, tolerating int and string encodings.
func floatInput(inputs map[string]any, key string) float64 {
	switch v := inputs[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return 0
}
