package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type persona struct {
	Name        string `json:"name" description:"Persona name"`
	Description string `json:"description"`
}

type personaList struct {
	Personas []persona `json:"personas"`
}

type searchArgs struct {
	Query      string `json:"query" description:"The search query"`
	MaxResults *int   `json:"max_results,omitempty"`
}

func TestOf_NestedList(t *testing.T) {
	s := Of(personaList{})

	assert.Equal(t, "object", s["type"])
	props := s["properties"].(map[string]any)
	personas := props["personas"].(map[string]any)
	assert.Equal(t, "array", personas["type"])

	items := personas["items"].(map[string]any)
	assert.Equal(t, "object", items["type"])
	itemProps := items["properties"].(map[string]any)
	name := itemProps["name"].(map[string]any)
	assert.Equal(t, "Persona name", name["description"])
	assert.ElementsMatch(t, []string{"name", "description"}, items["required"])
}

func TestOf_OptionalFields(t *testing.T) {
	s := Of(searchArgs{})

	require.Contains(t, s, "required")
	assert.Equal(t, []string{"query"}, s["required"])
}

func TestValidate_MissingRequired(t *testing.T) {
	s := Of(searchArgs{})

	err := Validate(map[string]any{}, s)

	require.Error(t, err)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "query", vErr.Field)
}

func TestValidate_WrongType(t *testing.T) {
	s := Of(searchArgs{})

	err := Validate(map[string]any{"query": 42}, s)
	require.Error(t, err)
}

func TestValidate_JSONNumbersAsIntegers(t *testing.T) {
	type args struct {
		Count int `json:"count"`
	}
	s := Of(args{})

	assert.NoError(t, Validate(map[string]any{"count": float64(3)}, s))
	assert.Error(t, Validate(map[string]any{"count": 3.5}, s))
}

func TestValidate_AllowsExtraFields(t *testing.T) {
	s := Of(searchArgs{})
	err := Validate(map[string]any{"query": "vacation homes", "unknown": true}, s)
	assert.NoError(t, err)
}
