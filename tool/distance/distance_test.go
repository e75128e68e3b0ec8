package distance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	// New York to Boston is roughly 306 km.
	km := Haversine(40.7128, -74.0060, 42.3601, -71.0589)
	assert.InDelta(t, 306, km, 5)

	// Zero distance.
	assert.InDelta(t, 0, Haversine(40.0, -74.0, 40.0, -74.0), 0.001)
}

func TestBetweenCities(t *testing.T) {
	miles, err := BetweenCities("New York, NY", "Boston, MA")
	require.NoError(t, err)
	assert.InDelta(t, 190, miles, 5)

	// Case and whitespace insensitive.
	miles2, err := BetweenCities("  new york, ny ", "BOSTON, MA")
	require.NoError(t, err)
	assert.Equal(t, miles, miles2)

	_, err = BetweenCities("Atlantis, XX", "Boston, MA")
	assert.Error(t, err)
}

func TestTool_Coordinates(t *testing.T) {
	tl := Tool()
	assert.Equal(t, "distance", tl.Name())

	out, err := tl.Call(context.Background(), map[string]any{
		"from_lat": 40.7128, "from_lon": -74.0060,
		"to_lat": 42.3601, "to_lon": -71.0589,
	})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "miles")
}

func TestTool_Cities(t *testing.T) {
	out, err := Tool().Call(context.Background(), map[string]any{
		"from_city": "Richmond, VA", "to_city": "Virginia Beach, VA",
	})
	require.NoError(t, err)
	assert.Contains(t, out.(string), "miles")
}

func TestTool_MissingArguments(t *testing.T) {
	_, err := Tool().Call(context.Background(), map[string]any{
		"from_city": "Richmond, VA",
	})
	assert.Error(t, err)
}
