// Package condition evaluates the textual predicates attached to
// metadata items. The sorting core only sees the Evaluator interface;
// the grammar lives entirely on this side of it.
package condition

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/modsort/modsort/pkg/metadata"
)

// Evaluator decides whether a single condition string holds.
type Evaluator interface {
	Evaluate(condition string) (bool, error)
}

// CachedEvaluator decorates an Evaluator with a result cache keyed by
// the condition string, and filters whole metadata entries. The cache is
// owned by one sort context and cleared at the start of each sort.
type CachedEvaluator struct {
	backend Evaluator

	mu    sync.Mutex
	cache map[string]bool

	logger zerolog.Logger
}

// NewCachedEvaluator wraps backend with a condition-result cache.
func NewCachedEvaluator(backend Evaluator) *CachedEvaluator {
	return &CachedEvaluator{
		backend: backend,
		cache:   make(map[string]bool),
		logger:  log.With().Str("component", "condition").Logger(),
	}
}

// Evaluate returns whether the condition holds. An empty condition holds
// trivially, and a nil backend accepts every condition. Results are
// cached per condition string.
func (e *CachedEvaluator) Evaluate(condition string) (bool, error) {
	if condition == "" || e.backend == nil {
		return true, nil
	}

	e.mu.Lock()
	cached, ok := e.cache[condition]
	e.mu.Unlock()
	if ok {
		return cached, nil
	}

	result, err := e.backend.Evaluate(condition)
	if err != nil {
		return false, err
	}

	e.mu.Lock()
	e.cache[condition] = result
	e.mu.Unlock()

	e.logger.Trace().
		Str("condition", condition).
		Bool("result", result).
		Msg("Evaluated condition")

	return result, nil
}

// ClearCache discards all cached condition results.
func (e *CachedEvaluator) ClearCache() {
	e.mu.Lock()
	e.cache = make(map[string]bool)
	e.mu.Unlock()
}

// EvaluateAll returns a copy of meta with every conditioned item whose
// condition does not hold removed.
func (e *CachedEvaluator) EvaluateAll(meta metadata.PluginMetadata) (metadata.PluginMetadata, error) {
	var err error

	meta.LoadAfter, err = e.filterFiles(meta.LoadAfter)
	if err != nil {
		return metadata.PluginMetadata{}, err
	}
	meta.Requirements, err = e.filterFiles(meta.Requirements)
	if err != nil {
		return metadata.PluginMetadata{}, err
	}
	meta.Incompatibilities, err = e.filterFiles(meta.Incompatibilities)
	if err != nil {
		return metadata.PluginMetadata{}, err
	}

	var messages []metadata.Message
	for _, m := range meta.Messages {
		ok, err := e.Evaluate(m.Condition)
		if err != nil {
			return metadata.PluginMetadata{}, err
		}
		if ok {
			messages = append(messages, m)
		}
	}
	meta.Messages = messages

	var tags []metadata.Tag
	for _, t := range meta.Tags {
		ok, err := e.Evaluate(t.Condition)
		if err != nil {
			return metadata.PluginMetadata{}, err
		}
		if ok {
			tags = append(tags, t)
		}
	}
	meta.Tags = tags

	return meta, nil
}

func (e *CachedEvaluator) filterFiles(files []metadata.File) ([]metadata.File, error) {
	var kept []metadata.File
	for _, f := range files {
		ok, err := e.Evaluate(f.Condition)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, f)
		}
	}
	return kept, nil
}
