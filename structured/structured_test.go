package structured

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planweave/planweave/internal/retry"
	"github.com/planweave/planweave/model"
)

type personaList struct {
	Personas []persona `json:"personas"`
}

type persona struct {
	Name       string `json:"name" description:"Short descriptive name"`
	Background string `json:"background"`
}

func TestGenerate(t *testing.T) {
	m := model.NewMockModel().AddResponse("personas",
		`{"personas":[{"name":"Home Mixologist","background":"Hosts weekend parties"}]}`)

	got, err := Generate[personaList](context.Background(), m, "Create 1 of the user personas for this app.")
	require.NoError(t, err)
	require.Len(t, got.Personas, 1)
	assert.Equal(t, "Home Mixologist", got.Personas[0].Name)

	// Schema travels with the request.
	reqs := m.Requests()
	require.Len(t, reqs, 1)
	require.NotNil(t, reqs[0].ResponseFormat)
	assert.Equal(t, "output", reqs[0].ResponseFormat.Name)
	assert.Equal(t, "object", reqs[0].ResponseFormat.Schema["type"])
}

func TestGenerate_Options(t *testing.T) {
	m := model.NewMockModel().SetFallback(`{"personas":[]}`)

	_, err := Generate[personaList](context.Background(), m, "go", func(o *Options) {
		o.Name = "persona_list"
		o.Instructions = "You are a marketing analyst."
	})
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "persona_list", reqs[0].ResponseFormat.Name)
	assert.Equal(t, "You are a marketing analyst.", reqs[0].Instructions)
}

func TestGenerate_RetriesMalformedOutput(t *testing.T) {
	// First response is prose without JSON, the mock keeps returning it, so
	// a single-attempt config must fail and a multi-attempt one exhausts.
	m := model.NewMockModel().SetFallback("Sorry, I cannot help with that.")

	_, err := Generate[personaList](context.Background(), m, "go", func(o *Options) {
		o.Retry = retry.Config{MaxAttempts: 2}
	})
	require.Error(t, err)
	assert.Equal(t, 2, m.CallCount())
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"raw", `{"personas":[{"name":"A","background":"b"}]}`, "A"},
		{"fenced", "```json\n{\"personas\":[{\"name\":\"B\",\"background\":\"b\"}]}\n```", "B"},
		{"fenced no lang", "```\n{\"personas\":[{\"name\":\"C\",\"background\":\"b\"}]}\n```", "C"},
		{"prose prefix", "Here you go:\n{\"personas\":[{\"name\":\"D\",\"background\":\"b\"}]}", "D"},
		{"prose suffix", "{\"personas\":[{\"name\":\"E\",\"background\":\"b\"}]}\nLet me know!", "E"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode[personaList](tt.input)
			require.NoError(t, err)
			require.Len(t, got.Personas, 1)
			assert.Equal(t, tt.want, got.Personas[0].Name)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode[personaList]("no json here")
	assert.Error(t, err)

	_, err = Decode[personaList](`{"personas": 7}`)
	assert.Error(t, err)
}

func TestDecode_List(t *testing.T) {
	got, err := Decode[[]string](`["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}
