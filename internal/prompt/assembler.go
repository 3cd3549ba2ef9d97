package prompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sparkle-backend/internal/adapters"
	"sparkle-backend/internal/llm"
	"sparkle-backend/internal/models"
	"sparkle-backend/internal/repo"
)

var (
	ErrNoDefaultCategory = errors.New("no_default_category")
	ErrEnginesNotFound   = errors.New("engines_not_found")
	ErrMixedCategories   = errors.New("mixed_categories")
	ErrNoValidData       = errors.New("no_valid_data")
)

const notRespondingMarker = "service not responding"

// AdapterLookup resolves an engine's external service tag to its adapter.
type AdapterLookup interface {
	Lookup(service models.ExternalService) (adapters.Adapter, bool)
}

// ExtraData is one entry of the serialized extra-data list. Static engines
// contribute a filter prompt; external engines contribute the tool-call
// payload paired with the adapter's results.
type ExtraData struct {
	Filter  string `json:"filter,omitempty"`
	Service string `json:"service,omitempty"`
	Keyword string `json:"keyword,omitempty"`
	Results string `json:"results,omitempty"`
}

type Assembler struct {
	engines   repo.EngineRepoInterface
	adapters  AdapterLookup
	extractor llm.KeywordExtractor // nil when the provider cannot force tool calls
}

func NewAssembler(engines repo.EngineRepoInterface, lookup AdapterLookup, extractor llm.KeywordExtractor) *Assembler {
	return &Assembler{engines: engines, adapters: lookup, extractor: extractor}
}

// Assemble builds the outbound message and system prompt for one turn.
//
// With no engines the default category's prompt applies. With engines, all
// of them must share one category; each contributes either its static
// prompt or the result of its external adapter flow.
func (a *Assembler) Assemble(ctx context.Context, text string, engineIDs []uint64, replyTo string) (string, string, error) {
	if len(engineIDs) == 0 {
		cat, err := a.engines.GetDefaultCategory(ctx)
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrNoDefaultCategory, err)
		}
		return concat(text, nil, replyTo), cat.SystemPrompt, nil
	}

	engines, err := a.engines.GetByIDs(ctx, engineIDs)
	if err != nil {
		return "", "", err
	}
	if len(engines) == 0 {
		return "", "", ErrEnginesNotFound
	}

	categoryID := engines[0].CategoryID
	for _, e := range engines[1:] {
		if e.CategoryID != categoryID {
			return "", "", ErrMixedCategories
		}
	}

	var extra []ExtraData
	for _, e := range engines {
		if e.ExternalService == models.ServiceNone {
			extra = append(extra, ExtraData{Filter: e.Prompt})
			continue
		}
		entry, ok := a.invokeAdapter(ctx, text, e)
		if ok {
			extra = append(extra, entry)
		}
	}
	if len(extra) == 0 {
		return "", "", ErrNoValidData
	}

	return concat(text, extra, replyTo), engines[0].Category.SystemPrompt, nil
}

// invokeAdapter runs the external flow for one engine: extract a keyword,
// call the matching adapter, pair the payload with the results. Extraction
// failures skip the engine; adapter failures degrade to an explicit
// placeholder so the final prompt still signals the gap.
func (a *Assembler) invokeAdapter(ctx context.Context, text string, engine models.Engine) (ExtraData, bool) {
	if a.extractor == nil {
		log.Printf("engine %d: provider cannot extract keywords, skipping external service %s", engine.ID, engine.ExternalService)
		return ExtraData{}, false
	}

	keyword, err := a.extractor.ExtractKeyword(ctx, text, string(engine.ExternalService))
	if err != nil || keyword == "" {
		log.Printf("engine %d: no usable keyword for %s: %v", engine.ID, engine.ExternalService, err)
		return ExtraData{}, false
	}

	entry := ExtraData{
		Service: string(engine.ExternalService),
		Keyword: keyword,
	}

	adapter, ok := a.adapters.Lookup(engine.ExternalService)
	if !ok {
		entry.Results = notRespondingMarker
		return entry, true
	}

	results, err := adapter.Search(ctx, keyword)
	if err != nil || results == "" {
		if err != nil {
			log.Printf("engine %d: adapter %s failed: %v", engine.ID, engine.ExternalService, err)
		}
		entry.Results = notRespondingMarker
		return entry, true
	}

	entry.Results = results
	return entry, true
}

// concat is the upstream contract: message, then extra data, then reply-to.
// Entries marshal in engine-list order with fixed struct fields, so the
// output is deterministic.
func concat(text string, extra []ExtraData, replyTo string) string {
	out := text
	if len(extra) > 0 {
		b, _ := json.Marshal(extra)
		out += "\n\nExtra data: " + string(b)
	}
	if replyTo != "" {
		out += "\n\nIn reply to: " + replyTo
	}
	return out
}
