package condition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modsort/modsort/pkg/metadata"
)

// countingEvaluator records how often each condition is evaluated.
type countingEvaluator struct {
	results map[string]bool
	calls   map[string]int
}

func newCountingEvaluator(results map[string]bool) *countingEvaluator {
	return &countingEvaluator{results: results, calls: make(map[string]int)}
}

func (e *countingEvaluator) Evaluate(condition string) (bool, error) {
	e.calls[condition]++
	return e.results[condition], nil
}

func TestCachedEvaluatorEmptyCondition(t *testing.T) {
	backend := newCountingEvaluator(nil)
	e := NewCachedEvaluator(backend)

	ok, err := e.Evaluate("")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, backend.calls)
}

func TestCachedEvaluatorCachesResults(t *testing.T) {
	backend := newCountingEvaluator(map[string]bool{`file("A.esp")`: true})
	e := NewCachedEvaluator(backend)

	for range 3 {
		ok, err := e.Evaluate(`file("A.esp")`)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	assert.Equal(t, 1, backend.calls[`file("A.esp")`])
}

func TestCachedEvaluatorClearCache(t *testing.T) {
	backend := newCountingEvaluator(map[string]bool{`file("A.esp")`: true})
	e := NewCachedEvaluator(backend)

	_, err := e.Evaluate(`file("A.esp")`)
	require.NoError(t, err)

	e.ClearCache()

	_, err = e.Evaluate(`file("A.esp")`)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.calls[`file("A.esp")`])
}

func TestCachedEvaluatorEvaluateAll(t *testing.T) {
	backend := newCountingEvaluator(map[string]bool{
		"keep": true,
		"drop": false,
	})
	e := NewCachedEvaluator(backend)

	meta := metadata.PluginMetadata{
		Name: "A.esp",
		LoadAfter: []metadata.File{
			{Name: "B.esp", Condition: "keep"},
			{Name: "C.esp", Condition: "drop"},
			{Name: "D.esp"},
		},
		Requirements: []metadata.File{{Name: "E.esp", Condition: "drop"}},
		Messages: []metadata.Message{
			{Type: metadata.MessageSay, Content: "kept", Condition: "keep"},
			{Type: metadata.MessageSay, Content: "dropped", Condition: "drop"},
		},
		Tags: []metadata.Tag{
			{Name: "Delev", Addition: true, Condition: "drop"},
		},
	}

	filtered, err := e.EvaluateAll(meta)
	require.NoError(t, err)

	assert.Equal(t, []metadata.File{{Name: "B.esp", Condition: "keep"}, {Name: "D.esp"}}, filtered.LoadAfter)
	assert.Empty(t, filtered.Requirements)
	require.Len(t, filtered.Messages, 1)
	assert.Equal(t, "kept", filtered.Messages[0].Content)
	assert.Empty(t, filtered.Tags)

	// The input is untouched.
	assert.Len(t, meta.LoadAfter, 3)
}
