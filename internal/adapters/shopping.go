package adapters

import (
	"context"
	"net/http"
)

// ShoppingAdapter searches product listings and prices.
type ShoppingAdapter struct {
	client *http.Client
}

func (a *ShoppingAdapter) Search(ctx context.Context, query string) (string, error) {
	return scrapeSearch(ctx, a.client, query+" buy price")
}
