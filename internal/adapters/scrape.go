package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const maxResultChars = 2000

// scrapeSearch pulls title+snippet pairs from the DuckDuckGo HTML endpoint.
// The markup can change, so the selectors stay conservative and an empty
// page returns "" rather than an error.
func scrapeSearch(ctx context.Context, client *http.Client, query string) (string, error) {
	searchURL := "https://duckduckgo.com/html/?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible)")

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	var results []string
	doc.Find(".result__body").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= 5 {
			return false
		}
		title := strings.TrimSpace(s.Find(".result__a").Text())
		snippet := strings.TrimSpace(s.Find(".result__snippet").Text())
		if title == "" && snippet == "" {
			return true
		}
		results = append(results, fmt.Sprintf("- %s: %s", title, snippet))
		return true
	})

	if len(results) == 0 {
		return "", nil
	}
	out := strings.Join(results, "\n")
	if len(out) > maxResultChars {
		out = out[:maxResultChars] + "..."
	}
	return out, nil
}
