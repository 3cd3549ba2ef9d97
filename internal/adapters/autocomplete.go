package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AutocompleteAdapter returns query completions from the public suggest
// endpoint. The response is a JSON array: [query, [suggestions...]].
type AutocompleteAdapter struct {
	client *http.Client
}

func (a *AutocompleteAdapter) Search(ctx context.Context, query string) (string, error) {
	endpoint := "https://suggestqueries.google.com/complete/search?client=firefox&q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("suggest status %d", resp.StatusCode)
	}

	var decoded []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", err
	}
	if len(decoded) < 2 {
		return "", nil
	}

	var suggestions []string
	if err := json.Unmarshal(decoded[1], &suggestions); err != nil {
		return "", err
	}
	if len(suggestions) == 0 {
		return "", nil
	}
	if len(suggestions) > 10 {
		suggestions = suggestions[:10]
	}
	return "- " + strings.Join(suggestions, "\n- "), nil
}
