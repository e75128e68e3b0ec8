// Package collegefinder implements the college finder workflow: build a
// search query from a student profile, search the web, extract college
// records, loop gathering missing details for incomplete records, then
// recommend the best matches.
package collegefinder

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/graph"
	"github.com/planweave/planweave/logging"
	"github.com/planweave/planweave/model"
	"github.com/planweave/planweave/structured"
	"github.com/planweave/planweave/tool/websearch"
)

// College is one candidate school. Records are merged by name: a refined
// record from the detail-gathering loop replaces the earlier one.
type College struct {
	Name           string  `json:"name"`
	Location       string  `json:"location,omitempty"`
	TuitionPerYear int     `json:"tuition_per_year,omitempty" description:"Annual tuition in USD"`
	AcceptanceRate float64 `json:"acceptance_rate,omitempty" description:"Acceptance rate in percent"`
	AverageSAT     int     `json:"average_sat,omitempty"`
	URL            string  `json:"url,omitempty"`
	Notes          string  `json:"notes,omitempty"`
}

// complete reports whether every field a recommendation needs is filled.
func (c College) complete() bool {
	return c.Location != "" && c.TuitionPerYear > 0 && c.AcceptanceRate > 0 && c.AverageSAT > 0
}

// State is the workflow state.
type State struct {
	// Student profile inputs.
	Major              string  `json:"major,omitempty"`
	LocationPreference string  `json:"location_preference,omitempty"`
	MaxTuition         int     `json:"max_tuition,omitempty"`
	MinAcceptanceRate  float64 `json:"min_acceptance_rate,omitempty"`
	SATScore           int     `json:"sat_score,omitempty"`
	MaxColleges        int     `json:"max_colleges,omitempty"`

	// Accumulated results.
	SearchQuery           string             `json:"search_query,omitempty"`
	SearchResults         []websearch.Result `json:"search_results,omitempty"`
	Colleges              []College          `json:"colleges,omitempty"`
	Recommendations       []string           `json:"recommendations,omitempty"`
	StatusUpdates         []string           `json:"status_updates,omitempty"`
	DataGatheringAttempts int                `json:"data_gathering_attempts,omitempty"`
}

// Searcher is the web search dependency.
type Searcher interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
}

// Options configure the workflow.
type Options struct {
	Logger logging.Logger

	// Search overrides the web search client. Defaults to DuckDuckGo.
	Search Searcher

	// MaxDataGatheringAttempts bounds the detail loop. Defaults to 3.
	MaxDataGatheringAttempts int
}

// Workflow wires the college finder graph to a model and search client.
type Workflow struct {
	model model.Model
	opts  Options
	graph *graph.CompiledGraph[State]
}

const (
	defaultMaxColleges  = 8
	defaultMaxAttempts  = 3
	detailSearchPerLoop = 3
)

// New builds and compiles the college finder workflow.
func New(m model.Model, optFns ...func(o *Options)) (*Workflow, error) {
	if m == nil {
		return nil, fmt.Errorf("collegefinder: model is required")
	}
	opts := Options{
		Logger:                   logging.NoOpLogger{},
		MaxDataGatheringAttempts: defaultMaxAttempts,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Search == nil {
		opts.Search = websearch.New()
	}

	w := &Workflow{model: m, opts: opts}

	cg, err := graph.New[State]().
		AddNode("build_query", w.buildQuery).
		AddNode("search", w.search).
		AddNode("extract_colleges", w.extractColleges).
		AddNode("check_completeness", w.checkCompleteness).
		AddNode("gather_details", w.gatherDetails).
		AddNode("recommend", w.recommend).
		AddEdge("build_query", "search").
		AddEdge("search", "extract_colleges").
		AddEdge("extract_colleges", "check_completeness").
		AddConditionalEdge("check_completeness", w.route).
		AddEdge("gather_details", "check_completeness").
		AddEdge("recommend", graph.END).
		SetEntry("build_query").
		Compile()
	if err != nil {
		return nil, fmt.Errorf("collegefinder: compile graph: %w", err)
	}
	w.graph = cg
	return w, nil
}

// Graph exposes the compiled graph, e.g. for Resume.
func (w *Workflow) Graph() *graph.CompiledGraph[State] { return w.graph }

// Run executes the workflow to completion.
func (w *Workflow) Run(ctx context.Context, state State, opts ...graph.RunOption) (State, error) {
	if state.Major == "" {
		return state, fmt.Errorf("collegefinder: major is required")
	}
	if state.MaxColleges <= 0 {
		state.MaxColleges = defaultMaxColleges
	}
	opts = append([]graph.RunOption{
		graph.WithWorkflowName("collegefinder"),
		graph.WithLogger(w.opts.Logger),
	}, opts...)
	return w.graph.Run(ctx, state, opts...)
}

type searchQuery struct {
	Query string `json:"query" description:"A single web search query"`
}

func (w *Workflow) buildQuery(ctx context.Context, s State) (State, error) {
	prompt := fmt.Sprintf(
		"Write one web search query to find colleges matching this student profile.\n\n%s",
		w.profile(s))
	q, err := structured.Generate[searchQuery](ctx, w.model, prompt, func(o *structured.Options) {
		o.Name = "search_query"
		o.Instructions = "You are a college admissions counselor."
	})
	if err != nil {
		return s, err
	}
	s.SearchQuery = q.Query
	s.StatusUpdates = append(s.StatusUpdates, "built search query: "+q.Query)
	return s, nil
}

func (w *Workflow) search(ctx context.Context, s State) (State, error) {
	results, err := w.opts.Search.Search(ctx, s.SearchQuery)
	if err != nil {
		return s, fmt.Errorf("search: %w", err)
	}
	s.SearchResults = core.Append(s.SearchResults, results)
	s.StatusUpdates = append(s.StatusUpdates, fmt.Sprintf("found %d search results", len(results)))
	return s, nil
}

type collegeList struct {
	Colleges []College `json:"colleges"`
}

func (w *Workflow) extractColleges(ctx context.Context, s State) (State, error) {
	prompt := fmt.Sprintf(
		"Extract every college mentioned in these search results. Fill in tuition, acceptance rate and average SAT only when the text states them; leave unknown fields zero.\n\n%s",
		websearch.FormatResults(s.SearchQuery, s.SearchResults))
	list, err := structured.Generate[collegeList](ctx, w.model, prompt, func(o *structured.Options) {
		o.Name = "college_list"
	})
	if err != nil {
		return s, err
	}
	s.Colleges = core.Limit(mergeColleges(s.Colleges, list.Colleges), s.MaxColleges)
	s.StatusUpdates = append(s.StatusUpdates, fmt.Sprintf("tracking %d colleges", len(s.Colleges)))
	return s, nil
}

func (w *Workflow) checkCompleteness(ctx context.Context, s State) (State, error) {
	missing := 0
	for _, c := range s.Colleges {
		if !c.complete() {
			missing++
		}
	}
	s.StatusUpdates = append(s.StatusUpdates,
		fmt.Sprintf("%d of %d colleges missing data (attempt %d)", missing, len(s.Colleges), s.DataGatheringAttempts))
	return s, nil
}

// route decides whether another detail-gathering pass is worthwhile.
func (w *Workflow) route(_ context.Context, s State) string {
	if s.DataGatheringAttempts >= w.opts.MaxDataGatheringAttempts {
		return "recommend"
	}
	for _, c := range s.Colleges {
		if !c.complete() {
			return "gather_details"
		}
	}
	return "recommend"
}

// gatherDetails searches for the missing fields of incomplete colleges and
// merges refined records over the originals. Failed searches are logged and
// skipped so one dead query cannot stall the loop.
func (w *Workflow) gatherDetails(ctx context.Context, s State) (State, error) {
	s.DataGatheringAttempts++

	searched := 0
	for _, c := range s.Colleges {
		if c.complete() || searched >= detailSearchPerLoop {
			continue
		}
		searched++

		results, err := w.opts.Search.Search(ctx, c.Name+" tuition acceptance rate average SAT")
		if err != nil {
			w.opts.Logger.Warn("collegefinder.detail_search.skip", "college", c.Name, "error", err.Error())
			continue
		}

		known, _ := json.Marshal(c)
		prompt := fmt.Sprintf(
			"Update this college record from the search results. Keep existing values unless the results contradict them; fill zero fields when the results state them.\n\nCurrent record:\n%s\n\n%s",
			string(known), websearch.FormatResults(c.Name, results))
		refined, err := structured.Generate[College](ctx, w.model, prompt, func(o *structured.Options) {
			o.Name = "college"
		})
		if err != nil {
			w.opts.Logger.Warn("collegefinder.detail_extract.skip", "college", c.Name, "error", err.Error())
			continue
		}
		if refined.Name == "" {
			refined.Name = c.Name
		}
		s.Colleges = mergeColleges(s.Colleges, []College{refined})
	}

	s.StatusUpdates = append(s.StatusUpdates,
		fmt.Sprintf("gathered details for %d colleges", searched))
	return s, nil
}

type recommendationList struct {
	Recommendations []string `json:"recommendations" description:"One recommendation per college, best fit first, with reasoning"`
}

func (w *Workflow) recommend(ctx context.Context, s State) (State, error) {
	encoded, _ := json.Marshal(s.Colleges)
	prompt := fmt.Sprintf(
		"Recommend the best-fit colleges for this student, best first. Respect the tuition ceiling and note where the SAT score is below a college's average.\n\n%s\nColleges:\n%s",
		w.profile(s), string(encoded))
	list, err := structured.Generate[recommendationList](ctx, w.model, prompt, func(o *structured.Options) {
		o.Name = "recommendation_list"
		o.Instructions = "You are a college admissions counselor."
	})
	if err != nil {
		return s, err
	}
	s.Recommendations = core.Append(s.Recommendations, list.Recommendations)
	s.StatusUpdates = append(s.StatusUpdates, "recommendations ready")
	return s, nil
}

func (w *Workflow) profile(s State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Intended major: %s\n", s.Major)
	if s.LocationPreference != "" {
		fmt.Fprintf(&sb, "Preferred location: %s\n", s.LocationPreference)
	}
	if s.MaxTuition > 0 {
		fmt.Fprintf(&sb, "Maximum tuition: $%d per year\n", s.MaxTuition)
	}
	if s.MinAcceptanceRate > 0 {
		fmt.Fprintf(&sb, "Minimum acceptance rate: %.1f%%\n", s.MinAcceptanceRate)
	}
	if s.SATScore > 0 {
		fmt.Fprintf(&sb, "SAT score: %d\n", s.SATScore)
	}
	return sb.String()
}

// mergeColleges replaces records by case-insensitive name, appending new
// ones.
func mergeColleges(current, update []College) []College {
	return core.MergeByKey(current, update, func(c College) string {
		return strings.ToLower(strings.TrimSpace(c.Name))
	})
}
