package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type college struct {
	Name    string
	Tuition string
}

func TestAppend(t *testing.T) {
	current := []string{"a", "b"}

	out := Append(current, []string{"c"})

	assert.Equal(t, []string{"a", "b", "c"}, out)
	assert.Equal(t, []string{"a", "b"}, current, "input must not be mutated")
}

func TestAppend_NilUpdate(t *testing.T) {
	current := []string{"a"}
	assert.Equal(t, current, Append(current, nil))
}

func TestAppendUnique(t *testing.T) {
	out := AppendUnique([]string{"seo", "ads"}, []string{"ads", "reddit", "seo"})
	assert.Equal(t, []string{"seo", "ads", "reddit"}, out)
}

func TestMergeByKey_ReplacesExisting(t *testing.T) {
	current := []college{
		{Name: "Reed", Tuition: "unknown"},
		{Name: "Olin", Tuition: "$60k"},
	}
	update := []college{
		{Name: "Reed", Tuition: "$64k"},
		{Name: "Mudd", Tuition: "$68k"},
	}

	out := MergeByKey(current, update, func(c college) string { return c.Name })

	assert.Len(t, out, 3)
	assert.Equal(t, "$64k", out[0].Tuition, "existing entry replaced in place")
	assert.Equal(t, "Olin", out[1].Name)
	assert.Equal(t, "Mudd", out[2].Name)
}

func TestMergeByKey_EmptyCurrent(t *testing.T) {
	update := []college{{Name: "Reed"}}
	out := MergeByKey(nil, update, func(c college) string { return c.Name })
	assert.Equal(t, update, out)
}

func TestLimit(t *testing.T) {
	list := []int{1, 2, 3, 4}

	assert.Equal(t, []int{1, 2}, Limit(list, 2))
	assert.Equal(t, list, Limit(list, 0))
	assert.Equal(t, list, Limit(list, 10))
}

func TestContentText(t *testing.T) {
	c := Content{Role: "assistant", Parts: []Part{
		TextPart{Text: "hello "},
		FunctionCallPart{FunctionCall: FunctionCall{Name: "search"}},
		TextPart{Text: "world"},
	}}

	assert.Equal(t, "hello world", c.Text())
	assert.Len(t, c.FunctionCalls(), 1)
}

func TestNewStatusEvent(t *testing.T) {
	e := NewStatusEvent("run-1", "analyze_site", "visiting site")

	assert.Equal(t, "run-1", e.RunID)
	assert.Equal(t, EventStatus, e.Kind)
	assert.Equal(t, "visiting site", e.Message)
	assert.NotEmpty(t, e.ID)
	assert.False(t, e.Timestamp.IsZero())
}
