// Package articles defines the destination-article tool: the article type,
// the fetcher contract, and relevance ranking over fetched results.
package articles

import (
	"context"
	"strconv"

	"github.com/blevesearch/bleve"
)

// ToolName is the wire name of the article fetch tool.
const ToolName = "fetch_articles"

// Article is one piece of destination content.
type Article struct {
	Title    string `json:"title"`
	Excerpt  string `json:"excerpt,omitempty"`
	URL      string `json:"url"`
	Date     string `json:"date,omitempty"`
	Category string `json:"category,omitempty"`
}

// Fetcher retrieves articles about a destination. An empty result is not an
// error; transport and decoding failures are.
type Fetcher interface {
	Fetch(ctx context.Context, destination string, limit int) ([]Article, error)
}

// Rank orders articles by full-text relevance to the query and truncates to
// limit. Articles the query does not hit keep their original order after the
// hits. Ranking is best effort: if the index cannot be built the input order
// wins.
func Rank(list []Article, query string, limit int) []Article {
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	if len(list) < 2 || query == "" {
		return list[:limit]
	}

	index, err := bleve.NewMemOnly(bleve.NewIndexMapping())
	if err != nil {
		return list[:limit]
	}
	defer index.Close()

	for i, a := range list {
		doc := map[string]string{"title": a.Title, "excerpt": a.Excerpt, "category": a.Category}
		if err := index.Index(strconv.Itoa(i), doc); err != nil {
			return list[:limit]
		}
	}

	searchReq := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(query), len(list), 0, false)
	res, err := index.Search(searchReq)
	if err != nil {
		return list[:limit]
	}

	taken := make(map[int]bool, len(list))
	out := make([]Article, 0, limit)
	for _, hit := range res.Hits {
		i, err := strconv.Atoi(hit.ID)
		if err != nil || i < 0 || i >= len(list) {
			continue
		}
		taken[i] = true
		out = append(out, list[i])
	}
	for i, a := range list {
		if !taken[i] {
			out = append(out, a)
		}
	}
	return out[:limit]
}
