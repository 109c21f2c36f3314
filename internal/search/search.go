// Package search indexes and queries the designs collection. Meilisearch is
// used when configured and healthy; otherwise queries fall back to a
// Postgres ILIKE scan.
package search

type Query struct {
	Text     string
	Category string
	Limit    int
}

type Result struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
}

type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// DesignRecord is the document shape pushed to the search index.
type DesignRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
}
