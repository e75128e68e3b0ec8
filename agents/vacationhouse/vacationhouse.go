// Package vacationhouse implements the vacation house research crew: a
// city researcher proposes candidate cities, a real estate agent finds and
// verifies listings, a local expert surveys nearby businesses, and the
// findings are summarized into a report.
package vacationhouse

import (
	"context"
	"fmt"

	"github.com/planweave/planweave/core"
	"github.com/planweave/planweave/crew"
	"github.com/planweave/planweave/logging"
	"github.com/planweave/planweave/model"
	"github.com/planweave/planweave/observability"
	"github.com/planweave/planweave/tool"
	"github.com/planweave/planweave/tool/distance"
	"github.com/planweave/planweave/tool/homes"
	"github.com/planweave/planweave/tool/scrape"
	"github.com/planweave/planweave/tool/websearch"
)

// Inputs parameterize a research run.
type Inputs struct {
	// Location anchors the search, e.g. "Richmond, VA".
	Location string

	// Budget is the maximum purchase price in USD.
	Budget int

	// CityLimit caps candidate cities. Defaults to 3.
	CityLimit int

	// HomeLimit caps listings per city. Defaults to 3.
	HomeLimit int
}

// City is one candidate vacation city.
type City struct {
	Name               string `json:"name"`
	State              string `json:"state"`
	Region             string `json:"region" description:"e.g. mountains, lake, coast"`
	RentalRestrictions string `json:"rental_restrictions" description:"Known short-term rental restrictions, or 'none found'"`
}

// CandidateCities is the structured output of the city research task.
type CandidateCities struct {
	Cities []City `json:"cities"`
}

// Home is one vacation home listing.
type Home struct {
	Address  string `json:"address"`
	City     string `json:"city"`
	Price    int    `json:"price" description:"Listing price in USD"`
	Bedrooms int    `json:"bedrooms"`
	URL      string `json:"url"`
}

// HomeMatches is the structured output of the listing tasks.
type HomeMatches struct {
	Homes []Home `json:"homes"`
}

// Business is a bar, restaurant or coffee shop near a listing.
type Business struct {
	Name          string  `json:"name"`
	Type          string  `json:"type" description:"bar, restaurant or coffee shop"`
	City          string  `json:"city"`
	DistanceMiles float64 `json:"distance_miles" description:"Approximate distance from the city center in miles"`
}

// Options configure the crew.
type Options struct {
	Logger logging.Logger

	// Emit receives task output events, e.g. a session recorder.
	Emit func(core.Event)

	// RunID overrides the generated run identifier.
	RunID string

	// Metrics and Tracer instrument the run when non-nil.
	Metrics observability.MetricsRecorder
	Tracer  observability.Tracer

	// Tool overrides for tests. Defaults use the real web-backed tools.
	SearchTool   tool.Tool
	HomesTool    tool.Tool
	ScrapeTool   tool.Tool
	DistanceTool tool.Tool
}

// Crew is the assembled vacation house research crew.
type Crew struct {
	crew *crew.Crew
}

const (
	defaultCityLimit = 3
	defaultHomeLimit = 3
)

// New assembles the agents and tasks.
func New(m model.Model, optFns ...func(o *Options)) (*Crew, error) {
	if m == nil {
		return nil, fmt.Errorf("vacationhouse: model is required")
	}
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	search := websearch.New()
	if opts.SearchTool == nil {
		opts.SearchTool = search.Tool()
	}
	if opts.HomesTool == nil {
		opts.HomesTool = homes.New(search).Tool()
	}
	if opts.ScrapeTool == nil {
		opts.ScrapeTool = scrape.New().Tool()
	}
	if opts.DistanceTool == nil {
		opts.DistanceTool = distance.Tool()
	}

	cityResearcher := &crew.Agent{
		Role:      "Senior City Researcher",
		Goal:      "Find vacation-worthy cities within reach of the buyer's home",
		Backstory: "You have spent a decade ranking travel destinations and know which towns quietly restrict short-term rentals.",
		Model:     m,
		Tools:     []tool.Tool{opts.SearchTool},
	}
	realEstateAgent := &crew.Agent{
		Role:      "Licensed Real Estate Agent",
		Goal:      "Find and verify vacation home listings that fit the budget",
		Backstory: "You close vacation property deals across the region and distrust any listing you have not checked yourself.",
		Model:     m,
		Tools:     []tool.Tool{opts.HomesTool, opts.ScrapeTool},
	}
	localExpert := &crew.Agent{
		Role:      "Local Area Expert",
		Goal:      "Surface the bars, restaurants and coffee shops buyers will actually visit",
		Backstory: "You write neighborhood guides and measure everything in walking distance.",
		Model:     m,
		Tools:     []tool.Tool{opts.SearchTool, opts.DistanceTool},
	}

	findCities := &crew.Task{
		Name: "find_candidate_cities",
		Description: "Find up to {{.city_limit}} cities that would suit a vacation home " +
			"for someone living in {{.location}}. Note each city's short-term rental " +
			"restrictions; skip cities that ban them outright.",
		ExpectedOutput: "A JSON list of candidate cities with rental restriction notes",
		Agent:          cityResearcher,
		OutputSchema:   CandidateCities{},
	}
	findHomes := &crew.Task{
		Name: "find_vacation_homes",
		Description: "For each candidate city, find up to {{.home_limit}} vacation homes " +
			"for sale under ${{.budget}} with at least 2 bedrooms. Avoid zillow.com links, " +
			"they cannot be verified. An empty list for a city is acceptable.",
		ExpectedOutput: "A JSON list of homes with address, price, bedrooms and URL",
		Agent:          realEstateAgent,
		OutputSchema:   HomeMatches{},
		Context:        []*crew.Task{findCities},
	}
	verifyListings := &crew.Task{
		Name: "verify_listings",
		Description: "Verify each found listing: the link must resolve and the price must " +
			"be at or under ${{.budget}}. Drop listings that fail either check.",
		ExpectedOutput: "A JSON list of verified homes only",
		Agent:          realEstateAgent,
		OutputSchema:   HomeMatches{},
		Context:        []*crew.Task{findHomes},
	}
	findBusinesses := &crew.Task{
		Name: "find_local_businesses",
		Description: "For each city with verified listings, find notable bars, restaurants " +
			"and coffee shops, with their approximate distance from the city center in miles.",
		ExpectedOutput: "A JSON list of businesses with name, type, city and distance in miles",
		Agent:          localExpert,
		OutputSchema: struct {
			Businesses []Business `json:"businesses"`
		}{},
		Context: []*crew.Task{findCities, verifyListings},
	}
	summarize := &crew.Task{
		Name: "summarize",
		Description: "Write a report for the buyer: for each candidate city, the verified " +
			"listings, nearby businesses and a short verdict on whether to pursue it.",
		ExpectedOutput: "A markdown report organized by city",
		Agent:          cityResearcher,
		Context:        []*crew.Task{findCities, verifyListings, findBusinesses},
	}

	c, err := crew.New("vacationhouse",
		[]*crew.Task{findCities, findHomes, verifyListings, findBusinesses, summarize},
		func(o *crew.Options) {
			o.Logger = opts.Logger
			o.Emit = opts.Emit
			o.RunID = opts.RunID
			if opts.Metrics != nil {
				o.Metrics = opts.Metrics
			}
			if opts.Tracer != nil {
				o.Tracer = opts.Tracer
			}
		})
	if err != nil {
		return nil, fmt.Errorf("vacationhouse: %w", err)
	}
	return &Crew{crew: c}, nil
}

// Run kicks off the crew with the given inputs and returns the final
// report output.
func (c *Crew) Run(ctx context.Context, in Inputs) (*crew.Output, error) {
	if in.Location == "" {
		return nil, fmt.Errorf("vacationhouse: location is required")
	}
	if in.Budget <= 0 {
		return nil, fmt.Errorf("vacationhouse: budget must be positive")
	}
	if in.CityLimit <= 0 {
		in.CityLimit = defaultCityLimit
	}
	if in.HomeLimit <= 0 {
		in.HomeLimit = defaultHomeLimit
	}
	return c.crew.Kickoff(ctx, map[string]any{
		"location":   in.Location,
		"budget":     in.Budget,
		"city_limit": in.CityLimit,
		"home_limit": in.HomeLimit,
	})
}
