package search

import (
	"context"
	"log"

	"folio/api/internal/store"
)

// Service is the facade that tries Meilisearch first and falls back to the
// Postgres ILIKE scan. meili may be nil when Meilisearch is not configured.
type Service struct {
	meili *Meili
	store *store.PostgresStore
}

func NewService(meili *Meili, dataStore *store.PostgresStore) *Service {
	return &Service{meili: meili, store: dataStore}
}

// Search tries Meilisearch if healthy, otherwise queries Postgres.
func (s *Service) Search(ctx context.Context, q Query) (Response, error) {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}, nil
		}
		log.Printf("search: meilisearch error, falling back to postgres: %v", err)
	}

	designs, err := s.store.SearchDesigns(ctx, q.Text, q.Category, q.Limit)
	if err != nil {
		return Response{}, err
	}
	results := make([]Result, 0, len(designs))
	for _, d := range designs {
		results = append(results, Result{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Category:    d.Category,
			ImageURL:    d.ImageURL,
		})
	}
	return Response{Results: results, Total: len(results), Query: q.Text}, nil
}

// IndexDesign pushes one design to Meilisearch (fire-and-forget).
func (s *Service) IndexDesign(d store.Design) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	record := designRecord(d)
	go func() {
		if err := s.meili.IndexDesign(record); err != nil {
			log.Printf("search: index design %s: %v", record.ID, err)
		}
	}()
}

// DeleteDesign removes a design from the index (fire-and-forget).
func (s *Service) DeleteDesign(id string) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.DeleteDesign(id); err != nil {
			log.Printf("search: delete design %s: %v", id, err)
		}
	}()
}

// ReindexAll reads every design from Postgres and pushes them to
// Meilisearch. Called during bootstrap when Meilisearch is healthy.
func (s *Service) ReindexAll(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	designs, err := s.store.ListDesigns(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	records := make([]DesignRecord, 0, len(designs))
	for _, d := range designs {
		records = append(records, designRecord(d))
	}
	if err := s.meili.IndexDesigns(records); err != nil {
		log.Printf("search: reindex designs: %v", err)
	}
}

func designRecord(d store.Design) DesignRecord {
	return DesignRecord{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Category:    d.Category,
		ImageURL:    d.ImageURL,
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
