// Package distance computes great-circle distances. A small gazetteer of
// common city coordinates lets agents estimate city-to-city driving scope
// without a geocoding dependency.
package distance

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/planweave/planweave/tool"
)

const earthRadiusKm = 6371.0

// Miles converts kilometers to miles.
func Miles(km float64) float64 { return km * 0.621371 }

// Haversine returns the great-circle distance in kilometers between two
// lat/long points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// coord is a gazetteer entry.
type coord struct{ lat, lon float64 }

// cities maps lowercase "city, st" to coordinates. Small on purpose; the
// lookup is a fallback for agents that only know city names.
var cities = map[string]coord{
	"new york, ny":       {40.7128, -74.0060},
	"boston, ma":         {42.3601, -71.0589},
	"philadelphia, pa":   {39.9526, -75.1652},
	"washington, dc":     {38.9072, -77.0369},
	"richmond, va":       {37.5407, -77.4360},
	"virginia beach, va": {36.8529, -75.9780},
	"charlottesville, va": {38.0293, -78.4767},
	"asheville, nc":      {35.5951, -82.5515},
	"charlotte, nc":      {35.2271, -80.8431},
	"atlanta, ga":        {33.7490, -84.3880},
	"miami, fl":          {25.7617, -80.1918},
	"orlando, fl":        {28.5384, -81.3789},
	"chicago, il":        {41.8781, -87.6298},
	"denver, co":         {39.7392, -104.9903},
	"austin, tx":         {30.2672, -97.7431},
	"seattle, wa":        {47.6062, -122.3321},
	"portland, or":       {45.5152, -122.6784},
	"san francisco, ca":  {37.7749, -122.4194},
	"los angeles, ca":    {34.0522, -118.2437},
	"san diego, ca":      {32.7157, -117.1611},
	"lake tahoe, ca":     {39.0968, -120.0324},
	"toronto, on":        {43.6532, -79.3832},
}

// BetweenCities estimates the distance in miles between two known cities.
func BetweenCities(from, to string) (float64, error) {
	a, ok := cities[normalize(from)]
	if !ok {
		return 0, fmt.Errorf("unknown city %q", from)
	}
	b, ok := cities[normalize(to)]
	if !ok {
		return 0, fmt.Errorf("unknown city %q", to)
	}
	return Miles(Haversine(a.lat, a.lon, b.lat, b.lon)), nil
}

func normalize(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// Tool exposes distance computation to agents. Either both coordinate
// pairs or both city names must be supplied.
func Tool() tool.Tool {
	type args struct {
		FromCity string   `json:"from_city,omitempty" description:"Origin as 'City, ST'"`
		ToCity   string   `json:"to_city,omitempty" description:"Destination as 'City, ST'"`
		FromLat  *float64 `json:"from_lat,omitempty" description:"Origin latitude"`
		FromLon  *float64 `json:"from_lon,omitempty" description:"Origin longitude"`
		ToLat    *float64 `json:"to_lat,omitempty" description:"Destination latitude"`
		ToLon    *float64 `json:"to_lon,omitempty" description:"Destination longitude"`
	}
	return tool.NewFunctionToolFromStruct(
		"distance",
		"Compute the distance in miles between two points, given either coordinates or city names",
		args{},
		func(_ context.Context, args map[string]any) (any, error) {
			fromLat, okFromLat := floatArg(args, "from_lat")
			fromLon, okFromLon := floatArg(args, "from_lon")
			toLat, okToLat := floatArg(args, "to_lat")
			toLon, okToLon := floatArg(args, "to_lon")
			if okFromLat && okFromLon && okToLat && okToLon {
				miles := Miles(Haversine(fromLat, fromLon, toLat, toLon))
				return fmt.Sprintf("%.1f miles", miles), nil
			}

			fromCity, _ := args["from_city"].(string)
			toCity, _ := args["to_city"].(string)
			if fromCity != "" && toCity != "" {
				miles, err := BetweenCities(fromCity, toCity)
				if err != nil {
					return nil, err
				}
				return fmt.Sprintf("%.1f miles", miles), nil
			}

			return nil, fmt.Errorf("provide either both coordinate pairs or both city names")
		},
	)
}

func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
