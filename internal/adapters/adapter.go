package adapters

import (
	"context"
	"net/http"
	"sparkle-backend/internal/models"
	"time"
)

// Adapter wraps one external search provider. Search returns a formatted
// result block, or "" when the provider had nothing. The caller decides
// how to signal the gap.
type Adapter interface {
	Search(ctx context.Context, query string) (string, error)
}

// Registry is the closed set of adapters, keyed by the engine's external
// service tag. Services outside the enumeration never resolve.
type Registry struct {
	adapters map[models.ExternalService]Adapter
}

func NewRegistry() *Registry {
	client := &http.Client{Timeout: 8 * time.Second}
	return &Registry{
		adapters: map[models.ExternalService]Adapter{
			models.ServicePatents:      &PatentsAdapter{client: client},
			models.ServiceShopping:     &ShoppingAdapter{client: client},
			models.ServiceScholar:      &ScholarAdapter{client: client},
			models.ServiceAutocomplete: &AutocompleteAdapter{client: client},
		},
	}
}

func (r *Registry) Lookup(service models.ExternalService) (Adapter, bool) {
	a, ok := r.adapters[service]
	return a, ok
}
