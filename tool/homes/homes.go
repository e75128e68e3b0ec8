// Package homes searches vacation-home listings by composing web search
// queries with price and room hints. Zillow links are dropped because the
// site blocks automated verification of its listings.
package homes

import (
	"context"
	"fmt"
	"strings"

	"github.com/planweave/planweave/tool"
	"github.com/planweave/planweave/tool/websearch"
)

// Query describes a listing search.
type Query struct {
	City     string
	MaxPrice int
	MinBeds  int
}

// Listing is one candidate result.
type Listing struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher finds listings via web search.
type Searcher struct {
	search *websearch.Client
}

// New creates a listing searcher on top of a websearch client.
func New(search *websearch.Client) *Searcher {
	return &Searcher{search: search}
}

// Find searches for listings matching the query. An empty result is not an
// error; some towns simply have no inventory under the budget.
func (s *Searcher) Find(ctx context.Context, q Query) ([]Listing, error) {
	if strings.TrimSpace(q.City) == "" {
		return nil, fmt.Errorf("city is required")
	}

	terms := []string{"vacation homes for sale", q.City}
	if q.MaxPrice > 0 {
		terms = append(terms, fmt.Sprintf("under $%d", q.MaxPrice))
	}
	if q.MinBeds > 0 {
		terms = append(terms, fmt.Sprintf("%d+ bedrooms", q.MinBeds))
	}

	results, err := s.search.Search(ctx, strings.Join(terms, " "))
	if err != nil {
		return nil, fmt.Errorf("listing search for %s: %w", q.City, err)
	}

	var listings []Listing
	for _, r := range results {
		if strings.Contains(strings.ToLower(r.URL), "zillow.com") {
			continue
		}
		listings = append(listings, Listing{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return listings, nil
}

// Tool wraps the searcher as a callable tool.
func (s *Searcher) Tool() tool.Tool {
	type args struct {
		City     string `json:"city" description:"City or town to search in"`
		MaxPrice *int   `json:"max_price,omitempty" description:"Maximum price in dollars"`
		MinBeds  *int   `json:"min_beds,omitempty" description:"Minimum number of bedrooms"`
	}
	return tool.NewFunctionToolFromStruct(
		"find_vacation_homes",
		"Search for vacation home listings in a city, optionally bounded by price and bedrooms",
		args{},
		func(ctx context.Context, args map[string]any) (any, error) {
			q := Query{}
			q.City, _ = args["city"].(string)
			q.MaxPrice = intArg(args, "max_price")
			q.MinBeds = intArg(args, "min_beds")

			listings, err := s.Find(ctx, q)
			if err != nil {
				return nil, err
			}
			if len(listings) == 0 {
				return "No listings found in " + q.City, nil
			}
			var sb strings.Builder
			for _, l := range listings {
				fmt.Fprintf(&sb, "- %s\n  %s\n", l.Title, l.URL)
				if l.Snippet != "" {
					fmt.Fprintf(&sb, "  %s\n", l.Snippet)
				}
			}
			return sb.String(), nil
		},
	)
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
