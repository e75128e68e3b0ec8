package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender_NoMarkers(t *testing.T) {
	out, err := Render("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestRender_StateFields(t *testing.T) {
	data := struct {
		AppName  string
		Features []string
	}{AppName: "BarGPT", Features: []string{"recipes", "sharing"}}

	out, err := Render("Create personas for {{.AppName}}. Features: {{join \", \" .Features}}", data)

	require.NoError(t, err)
	assert.Equal(t, "Create personas for BarGPT. Features: recipes, sharing", out)
}

func TestRender_BadTemplate(t *testing.T) {
	_, err := Render("{{.Unclosed", nil)
	assert.Error(t, err)
}
