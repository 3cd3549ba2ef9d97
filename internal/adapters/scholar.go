package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ScholarAdapter searches academic publications.
type ScholarAdapter struct {
	client *http.Client
}

func (a *ScholarAdapter) Search(ctx context.Context, query string) (string, error) {
	searchURL := "https://scholar.google.com/scholar?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible)")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("scholar status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	var results []string
	doc.Find(".gs_ri").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= 5 {
			return false
		}
		title := strings.TrimSpace(s.Find(".gs_rt").Text())
		snippet := strings.TrimSpace(s.Find(".gs_rs").Text())
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
