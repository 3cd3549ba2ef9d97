package adapters

import (
	"context"
	"net/http"
)

// PatentsAdapter searches patent publications.
type PatentsAdapter struct {
	client *http.Client
}

func (a *PatentsAdapter) Search(ctx context.Context, query string) (string, error) {
	return scrapeSearch(ctx, a.client, query+" site:patents.google.com")
}
