// Package research implements the trending-topic research crew: find
// candidate trending topics for a content request, filter out topics
// covered in recent runs (supplied by the memory store), pick the best one
// and produce a content brief. Chosen topics are written back to memory so
// the next run avoids them.
package research

import (
	"context"
	"fmt"
	"strings"

	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/crew"
	"github.com/planweave/planweave/logging"
	"github.com/planweave/planweave/memory"
	"github.com/planweave/planweave/model"
	"github.com/planweave/planweave/observability"
	"github.com/planweave/planweave/structured"
	"github.com/planweave/planweave/tool"
	"github.com/planweave/planweave/tool/websearch"
	"github.com/planweave/planweave/tool/wiki"
)

// Brief is the structured result of a research run.
type Brief struct {
	Topic     string   `json:"topic"`
	Summary   string   `json:"summary" description:"Why this topic is trending and why it fits the request"`
	KeyPoints []string `json:"key_points"`
	Angle     string   `json:"angle" description:"The specific angle the content should take"`
}

// Options configure the crew.
type Options struct {
	Logger logging.Logger

	// Memory supplies the recent-topic exclusion list and records chosen
	// topics. Defaults to a fresh in-memory store.
	Memory memory.Store

	// RecentTopicLimit caps how many past topics are excluded. Defaults
	// to 10.
	RecentTopicLimit int

	// Emit receives task output events.
	Emit func(core.Event)

	// RunID overrides the generated run identifier.
	RunID string

	// Metrics and Tracer instrument the run when non-nil.
	Metrics observability.MetricsRecorder
	Tracer  observability.Tracer

	// Tool overrides for tests.
	SearchTool tool.Tool
	WikiTool   tool.Tool
}

// Crew researches trending topics.
type Crew struct {
	model model.Model
	opts  Options
}

const defaultRecentTopicLimit = 10

// New assembles the research crew.
func New(m model.Model, optFns ...func(o *Options)) (*Crew, error) {
	if m == nil {
		return nil, fmt.Errorf("research: model is required")
	}
	opts := Options{
		Logger:           logging.NoOpLogger{},
		RecentTopicLimit: defaultRecentTopicLimit,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Memory == nil {
		opts.Memory = memory.NewInMemoryStore()
	}
	if opts.SearchTool == nil {
		opts.SearchTool = websearch.New().Tool()
	}
	if opts.WikiTool == nil {
		opts.WikiTool = wiki.New().Tool()
	}
	return &Crew{model: m, opts: opts}, nil
}

// Run researches one content request and returns the resulting brief. The
// crew is assembled per run because the exclusion list is baked into the
// task description.
func (c *Crew) Run(ctx context.Context, request string) (Brief, error) {
	if strings.TrimSpace(request) == "" {
		return Brief{}, fmt.Errorf("research: request is required")
	}

	exclusions, err := c.recentTopics(ctx)
	if err != nil {
		return Brief{}, err
	}

	researcher := &crew.Agent{
		Role:      "Trend Researcher",
		Goal:      "Find genuinely trending topics, not evergreen filler",
		Backstory: "You track what is moving across news, search and social platforms every day.",
		Model:     c.model,
		Tools:     []tool.Tool{c.opts.SearchTool, c.opts.WikiTool},
	}
	writer := &crew.Agent{
		Role:      "Content Strategist",
		Goal:      "Turn a trending topic into a sharp content brief",
		Backstory: "You have briefed writers for years and hate vague angles.",
		Model:     c.model,
	}

	findTopics := &crew.Task{
		Name: "find_trending_topics",
		Description: "Find 5 trending topics relevant to this request: {{.request}}. " +
			"Exclude topics already covered recently:\n{{.recent_topics}}",
		ExpectedOutput: "A list of 5 trending topics with one-line justifications",
		Agent:          researcher,
	}
	writeBrief := &crew.Task{
		Name: "write_brief",
		Description: "Pick the single best topic from the research and write a content " +
			"brief for it: summary, key points and the angle to take.",
		ExpectedOutput: "A JSON content brief",
		Agent:          writer,
		OutputSchema:   Brief{},
		Context:        []*crew.Task{findTopics},
	}

	cr, err := crew.New("research", []*crew.Task{findTopics, writeBrief},
		func(o *crew.Options) {
			o.Logger = c.opts.Logger
			o.Emit = c.opts.Emit
			o.RunID = c.opts.RunID
			if c.opts.Metrics != nil {
				o.Metrics = c.opts.Metrics
			}
			if c.opts.Tracer != nil {
				o.Tracer = c.opts.Tracer
			}
		})
	if err != nil {
		return Brief{}, fmt.Errorf("research: %w", err)
	}

	out, err := cr.Kickoff(ctx, map[string]any{
		"request":       request,
		"recent_topics": exclusions,
	})
	if err != nil {
		return Brief{}, err
	}

	brief, err := structured.Decode[Brief](out.Raw)
	if err != nil {
		return Brief{}, fmt.Errorf("research: decode brief: %w", err)
	}

	if _, err := c.opts.Memory.Save(ctx, "Researched topic: "+brief.Topic,
		map[string]any{"kind": "topic", "request": request}); err != nil {
		c.opts.Logger.Warn("research.memory.save_failed", "error", err.Error())
	}
	return brief, nil
}

// recentTopics renders the exclusion list from memory, newest first.
func (c *Crew) recentTopics(ctx context.Context) (string, error) {
	entries, err := c.opts.Memory.Recent(ctx, c.opts.RecentTopicLimit)
	if err != nil {
		return "", fmt.Errorf("research: load recent topics: %w", err)
	}
	if len(entries) == 0 {
		return "(none)", nil
	}
	var sb strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&sb, "- %s\n", e.Content)
	}
	return sb.String(), nil
}
