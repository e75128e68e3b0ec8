// Package marketing implements the marketing analysis workflow: analyze a
// product website, invent buyer personas, extract search keywords, find and
// rank competitors, then produce marketing strategies and subreddit
// suggestions in parallel.
package marketing

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
	"github.com/planweave/planweave/tool/browser"
	"github.com/planweave/planweave/tool/scrape"
	"github.com/planweave/planweave/tool/websearch"
)

// Persona is an invented buyer profile.
type Persona struct {
	Name        string   `json:"name" description:"Short persona name, e.g. 'Indie Hacker Hannah'"`
	Description string   `json:"description" description:"Who they are and why they need the product"`
	PainPoints  []string `json:"pain_points" description:"Problems the product solves for them"`
}

// Competitor is a rival product or site.
type Competitor struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

// Strategy is one actionable marketing suggestion.
type Strategy struct {
	Title   string `json:"title"`
	Details string `json:"details" description:"Concrete steps, channels and expected outcome"`
}

// State is the workflow state threaded through the graph.
type State struct {
	// Inputs.
	AppName          string   `json:"app_name,omitempty"`
	AppURL           string   `json:"app_url,omitempty"`
	AppDescription   string   `json:"app_description,omitempty"`
	MaxPersonas      int      `json:"max_personas,omitempty"`
	CompetitorHint   string   `json:"competitor_hint,omitempty"`
	HumanFeedback    string   `json:"human_feedback,omitempty"`
	KeyFeatures      []string `json:"key_features,omitempty"`
	ValueProposition string   `json:"value_proposition,omitempty"`

	// Accumulated results.
	Personas      []Persona          `json:"personas,omitempty"`
	SearchResults []websearch.Result `json:"search_results,omitempty"`
	Keywords      []string           `json:"keywords,omitempty"`
	Competitors   []Competitor       `json:"competitors,omitempty"`
	Strategies    []Strategy         `json:"strategies,omitempty"`
	Subreddits    []string           `json:"subreddits,omitempty"`
}

// Clone implements graph.Merger.
func (s State) Clone(string) State {
	clone := s
	clone.KeyFeatures = append([]string(nil), s.KeyFeatures...)
	clone.Personas = append([]Persona(nil), s.Personas...)
	clone.SearchResults = append([]websearch.Result(nil), s.SearchResults...)
	clone.Keywords = append([]string(nil), s.Keywords...)
	clone.Competitors = append([]Competitor(nil), s.Competitors...)
	clone.Strategies = append([]Strategy(nil), s.Strategies...)
	clone.Subreddits = append([]string(nil), s.Subreddits...)
	return clone
}

// Merge implements graph.Merger. The parallel branches write disjoint list
// fields (strategies and subreddits); list reducers make the merge
// order-independent.
func (s State) Merge(branches map[string]State) State {
	for _, b := range branches {
		s.Strategies = core.MergeByKey(s.Strategies, b.Strategies,
			func(st Strategy) string { return st.Title })
		s.Subreddits = core.AppendUnique(s.Subreddits, b.Subreddits)
		s.Keywords = core.AppendUnique(s.Keywords, b.Keywords)
		s.Competitors = core.MergeByKey(s.Competitors, b.Competitors,
			func(c Competitor) string { return strings.ToLower(c.Name) })
	}
	return s
}

// Searcher is the web search dependency.
type Searcher interface {
	Search(ctx context.Context, query string) ([]websearch.Result, error)
}

// PageFetcher is the page scraping dependency.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (scrape.Page, error)
}

// PageRenderer renders JS-heavy pages with a real browser. The site
// analyzer falls back to it when plain scraping yields too little text.
type PageRenderer interface {
	Visit(ctx context.Context, pageURL string) (browser.Page, error)
}

// Options configure the workflow.
type Options struct {
	Logger logging.Logger

	// Search overrides the web search client. Defaults to DuckDuckGo.
	Search Searcher

	// Pages overrides the page fetcher. Defaults to the HTTP scraper.
	Pages PageFetcher

	// Render overrides the headless browser used for sites whose scraped
	// text is too thin to analyze.
	Render PageRenderer

	// MaxCompetitorPages caps how many search results are scraped while
	// finalizing competitors. Defaults to 5.
	MaxCompetitorPages int
}

// Workflow wires the marketing graph to a model and its tools.
type Workflow struct {
	model model.Model
	opts  Options
	graph *graph.CompiledGraph[State]
}

const (
	defaultMaxPersonas        = 5
	defaultMaxCompetitorPages = 5
	maxKeywords               = 10
	maxCompetitors            = 10
	minSiteTextLen            = 200
)

// New builds and compiles the marketing workflow.
func New(m model.Model, optFns ...func(o *Options)) (*Workflow, error) {
	if m == nil {
		return nil, fmt.Errorf("marketing: model is required")
	}
	opts := Options{
		Logger:             logging.NoOpLogger{},
		MaxCompetitorPages: defaultMaxCompetitorPages,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Search == nil {
		opts.Search = websearch.New()
	}
	if opts.Pages == nil {
		opts.Pages = scrape.New()
	}
	if opts.Render == nil {
		opts.Render = browser.New()
	}

	w := &Workflow{model: m, opts: opts}

	cg, err := graph.New[State]().
		AddNode("analyze_site", w.analyzeSite).
		AddNode("create_personas", w.createPersonas).
		AddNode("extract_keywords", w.extractKeywords).
		AddNode("search_competitors_by_hint", w.searchCompetitorsByHint).
		AddNode("finalize_competitors", w.finalizeCompetitors).
		AddNode("get_marketing_suggestions", w.getMarketingSuggestions).
		AddNode("get_subreddits", w.getSubreddits).
		AddEdge("analyze_site", "create_personas").
		AddEdge("create_personas", "extract_keywords").
		AddEdge("extract_keywords", "search_competitors_by_hint").
		AddEdge("search_competitors_by_hint", "finalize_competitors").
		AddEdge("finalize_competitors", "get_marketing_suggestions").
		AddEdge("finalize_competitors", "get_subreddits").
		AddEdge("get_marketing_suggestions", graph.END).
		AddEdge("get_subreddits", graph.END).
		SetEntry("analyze_site").
		Compile()
	if err != nil {
		return nil, fmt.Errorf("marketing: compile graph: %w", err)
	}
	w.graph = cg
	return w, nil
}

// Graph exposes the compiled graph, e.g. for Resume.
func (w *Workflow) Graph() *graph.CompiledGraph[State] { return w.graph }

// Run executes the workflow to completion.
func (w *Workflow) Run(ctx context.Context, state State, opts ...graph.RunOption) (State, error) {
	if state.AppURL == "" && state.AppName == "" {
		return state, fmt.Errorf("marketing: app_url or app_name is required")
	}
	if state.MaxPersonas <= 0 {
		state.MaxPersonas = defaultMaxPersonas
	}
	opts = append([]graph.RunOption{
		graph.WithWorkflowName("marketing"),
		graph.WithLogger(w.opts.Logger),
	}, opts...)
	return w.graph.Run(ctx, state, opts...)
}

type siteInfo struct {
	AppName          string   `json:"app_name" description:"Product or company name"`
	Description      string   `json:"description" description:"One paragraph describing what the product does"`
	KeyFeatures      []string `json:"key_features"`
	ValueProposition string   `json:"value_proposition"`
}

// analyzeSite scrapes the app URL and distills what the product is. When no
// URL is given the provided name/description are used as-is.
func (w *Workflow) analyzeSite(ctx context.Context, s State) (State, error) {
	if s.AppURL == "" {
		return s, nil
	}

	page, err := w.opts.Pages.Fetch(ctx, s.AppURL)
	if err != nil {
		return s, fmt.Errorf("fetch %s: %w", s.AppURL, err)
	}
	title, text := page.Title, page.Text

	// JS-heavy sites serve an empty shell over plain HTTP; render those
	// with the headless browser instead.
	if len([]rune(text)) < minSiteTextLen {
		rendered, rerr := w.opts.Render.Visit(ctx, s.AppURL)
		switch {
		case rerr != nil:
			w.opts.Logger.Warn("marketing.site_render.skip", "url", s.AppURL, "error", rerr.Error())
		case len([]rune(rendered.Text)) > len([]rune(text)):
			if rendered.Title != "" {
				title = rendered.Title
			}
			text = rendered.Text
		}
	}

	prompt := fmt.Sprintf(
		"Analyze this product website and describe the product.\n\nURL: %s\nTitle: %s\n\nPage content:\n%s",
		s.AppURL, title, text)
	info, err := structured.Generate[siteInfo](ctx, w.model, prompt, func(o *structured.Options) {
		o.Name = "site_info"
		o.Instructions = "You are a product analyst. Extract factual information only from the provided page."
	})
	if err != nil {
		return s, err
	}

	if info.AppName != "" {
		s.AppName = info.AppName
	}
	if info.Description != "" {
		s.AppDescription = info.Description
	}
	s.KeyFeatures = core.AppendUnique(s.KeyFeatures, info.KeyFeatures)
	if info.ValueProposition != "" {
		s.ValueProposition = info.ValueProposition
	}
	return s, nil
}

type personaList struct {
	Personas []Persona `json:"personas"`
}

func (w *Workflow) createPersonas(ctx context.Context, s State) (State, error) {
	prompt := fmt.Sprintf(
		"Invent %d distinct buyer personas for the product below. Make them specific, not generic demographics.\n\n%s%s",
		s.MaxPersonas, w.productBrief(s), feedback(s))
	list, err := structured.Generate[personaList](ctx, w.model, prompt, func(o *structured.Options) {
		o.Name = "persona_list"
		o.Instructions = "You are a product marketing expert."
	})
	if err != nil {
		return s, err
	}
	s.Personas = core.Limit(list.Personas, s.MaxPersonas)
	return s, nil
}

type keywordList struct {
	Keywords []string `json:"keywords" description:"Search keywords ordered by expected traffic"`
}

func (w *Workflow) extractKeywords(ctx context.Context, s State) (State, error) {
	var personas strings.Builder
	for _, p := range s.Personas {
		fmt.Fprintf(&personas, "- %s: %s\n", p.Name, p.Description)
	}
	prompt := fmt.Sprintf(
		"List at most %d search keywords these buyers would type when looking for the product. Order by expected traffic.\n\n%s\nBuyer personas:\n%s",
		maxKeywords, w.productBrief(s), personas.String())
	list, err := structured.Generate[keywordList](ctx, w.model, prompt, func(o *structured.Options) {
		o.Name = "keyword_list"
		o.Instructions = "You are a social media manager with deep SEO experience."
	})
	if err != nil {
		return s, err
	}
	s.Keywords = core.Limit(core.AppendUnique(nil, list.Keywords), maxKeywords)
	return s, nil
}

// searchCompetitorsByHint runs a web search for sites similar to the hint.
// Without a hint the node is a no-op and competitor ranking works from
// whatever is already in state.
func (w *Workflow) searchCompetitorsByHint(ctx context.Context, s State) (State, error) {
	if s.CompetitorHint == "" {
		return s, nil
	}
	results, err := w.opts.Search.Search(ctx, "sites similar to "+s.CompetitorHint)
	if err != nil {
		return s, fmt.Errorf("competitor search: %w", err)
	}
	s.SearchResults = core.Append(s.SearchResults, results)
	return s, nil
}

type competitorList struct {
	Competitors []Competitor `json:"competitors"`
}

// finalizeCompetitors scrapes each search result for competitor mentions
// and asks the model to rank a final list. Pages that fail to fetch or
// parse are logged and skipped.
func (w *Workflow) finalizeCompetitors(ctx context.Context, s State) (State, error) {
	candidates := append([]Competitor(nil), s.Competitors...)

	pages := s.SearchResults
	if len(pages) > w.opts.MaxCompetitorPages {
		pages = pages[:w.opts.MaxCompetitorPages]
	}
	for _, result := range pages {
		page, err := w.opts.Pages.Fetch(ctx, result.URL)
		if err != nil {
			w.opts.Logger.Warn("marketing.competitor_page.skip", "url", result.URL, "error", err.Error())
			continue
		}
		prompt := fmt.Sprintf(
			"Extract every product or company mentioned on this page that could compete with %s.\n\nPage title: %s\n\n%s",
			s.AppName, page.Title, page.Text)
		list, err := structured.Generate[competitorList](ctx, w.model, prompt, func(o *structured.Options) {
			o.Name = "competitor_list"
		})
		if err != nil {
			w.opts.Logger.Warn("marketing.competitor_page.skip", "url", result.URL, "error", err.Error())
			continue
		}
		candidates = core.MergeByKey(candidates, list.Competitors,
			func(c Competitor) string { return strings.ToLower(c.Name) })
	}

	if len(candidates) == 0 {
		return s, nil
	}

	encoded, _ := json.Marshal(candidates)
	prompt := fmt.Sprintf(
		"From the candidate competitors below, select the at most %d most relevant competitors of %s and order them by threat level.\n\n%s\n\nCandidates:\n%s",
		maxCompetitors, s.AppName, w.productBrief(s), string(encoded))
	ranked, err := structured.Generate[competitorList](ctx, w.model, prompt, func(o *structured.Options) {
		o.Name = "competitor_list"
		o.Instructions = "You are a competitive intelligence analyst."
	})
	if err != nil {
		return s, err
	}
	s.Competitors = core.Limit(ranked.Competitors, maxCompetitors)
	return s, nil
}

type strategyList struct {
	Strategies []Strategy `json:"strategies"`
}

func (w *Workflow) getMarketingSuggestions(ctx context.Context, s State) (State, error) {
	var competitors strings.Builder
	for _, c := range s.Competitors {
		fmt.Fprintf(&competitors, "- %s: %s\n", c.Name, c.Description)
	}
	prompt := fmt.Sprintf(
		"Propose exactly 5 specific marketing strategies for the product below. Each strategy names the channel, the persona it targets and the first concrete action.\n\n%s\nKeywords: %s\nCompetitors:\n%s%s",
		w.productBrief(s), strings.Join(s.Keywords, ", "), competitors.String(), feedback(s))
	list, err := structured.Generate[strategyList](ctx, w.model, prompt, func(o *structured.Options) {
		o.Name = "strategy_list"
		o.Instructions = "You are a growth marketing strategist."
	})
	if err != nil {
		return s, err
	}
	s.Strategies = list.Strategies
	return s, nil
}

type subredditList struct {
	Subreddits []string `json:"subreddits" description:"Subreddit names including the r/ prefix"`
}

func (w *Workflow) getSubreddits(ctx context.Context, s State) (State, error) {
	prompt := fmt.Sprintf(
		"Name exactly 5 subreddits where the buyers of this product hang out. Prefer niche communities over huge generic ones.\n\n%s",
		w.productBrief(s))
	list, err := structured.Generate[subredditList](ctx, w.model, prompt, func(o *structured.Options) {
		o.Name = "subreddit_list"
	})
	if err != nil {
		return s, err
	}
	s.Subreddits = core.AppendUnique(s.Subreddits, list.Subreddits)
	return s, nil
}

func (w *Workflow) productBrief(s State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Product: %s\n", s.AppName)
	if s.AppDescription != "" {
		fmt.Fprintf(&sb, "Description: %s\n", s.AppDescription)
	}
	if len(s.KeyFeatures) > 0 {
		fmt.Fprintf(&sb, "Key features: %s\n", strings.Join(s.KeyFeatures, "; "))
	}
	if s.ValueProposition != "" {
		fmt.Fprintf(&sb, "Value proposition: %s\n", s.ValueProposition)
	}
	return sb.String()
}

func feedback(s State) string {
	if s.HumanFeedback == "" {
		return ""
	}
	return "\nAdditional guidance from the user: " + s.HumanFeedback
}
