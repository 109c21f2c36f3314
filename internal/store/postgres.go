package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"folio/api/internal/content"
	"folio/api/internal/util"
)

// ErrUnsupportedValue is returned when a merge payload contains the Absent
// sentinel at any depth. The store accepts null and ordinary falsy values;
// only the sentinel is rejected.
var ErrUnsupportedValue = errors.New("unsupported sentinel value in payload")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetAggregate returns the raw document for the given aggregate id, or
// sql.ErrNoRows when the document does not exist yet.
func (s *PostgresStore) GetAggregate(ctx context.Context, aggregateID string) (json.RawMessage, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM aggregates WHERE id=$1`, aggregateID).Scan(&data)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

// MergeAggregate upserts the document with shallow merge semantics: each
// top-level field present in partial replaces the stored field wholesale,
// fields not mentioned stay untouched. The jsonb || operator gives exactly
// this behavior.
func (s *PostgresStore) MergeAggregate(ctx context.Context, aggregateID string, partial map[string]any) error {
	if containsAbsent(partial) {
		return fmt.Errorf("merge aggregate %s: %w", aggregateID, ErrUnsupportedValue)
	}

	payload, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("marshal aggregate partial: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO aggregates (id, data)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (id) DO UPDATE SET data = aggregates.data || EXCLUDED.data, updated_at = NOW()
	`, aggregateID, payload)
	if err != nil {
		return fmt.Errorf("merge aggregate %s: %w", aggregateID, err)
	}
	return nil
}

func containsAbsent(v any) bool {
	switch value := v.(type) {
	case map[string]any:
		for _, elem := range value {
			if content.IsAbsent(elem) || containsAbsent(elem) {
				return true
			}
		}
	case []any:
		for _, elem := range value {
			if content.IsAbsent(elem) || containsAbsent(elem) {
				return true
			}
		}
	}
	return content.IsAbsent(v)
}

func (s *PostgresStore) ListDesigns(ctx context.Context) ([]Design, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, category, image_url, created_at, sort_order
		FROM designs
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list designs: %w", err)
	}
	defer rows.Close()

	items := make([]Design, 0)
	for rows.Next() {
		var item Design
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Category, &item.ImageURL, &item.CreatedAt, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate designs: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetDesign(ctx context.Context, designID string) (Design, error) {
	var item Design
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, category, image_url, created_at, sort_order
		FROM designs
		WHERE id=$1
	`, designID).Scan(&item.ID, &item.Title, &item.Description, &item.Category, &item.ImageURL, &item.CreatedAt, &item.SortOrder)
	if err != nil {
		return Design{}, err
	}
	return item, nil
}

// CreateDesign inserts a new design and returns the store-assigned id. The
// image URL may be empty: creation happens before the blob upload so the
// upload path can be keyed by the new id.
func (s *PostgresStore) CreateDesign(ctx context.Context, item Design) (string, error) {
	id := util.NewID("dsg")
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO designs (id, title, description, category, image_url, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, id, item.Title, item.Description, item.Category, item.ImageURL, item.SortOrder).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert design: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) UpdateDesign(ctx context.Context, designID string, patch DesignPatch) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	args = append(args, designID)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.Category != nil {
		add("category", *patch.Category)
	}
	if patch.ImageURL != nil {
		add("image_url", *patch.ImageURL)
	}
	if patch.SortOrder != nil {
		add("sort_order", *patch.SortOrder)
	}
	if len(sets) == 0 {
		return nil
	}

	query := fmt.Sprintf(`UPDATE designs SET %s WHERE id=$1`, strings.Join(sets, ", "))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update design %s: %w", designID, err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) DeleteDesign(ctx context.Context, designID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM designs WHERE id=$1`, designID)
	if err != nil {
		return fmt.Errorf("delete design %s: %w", designID, err)
	}
	return nil
}

// SearchDesigns is the ILIKE fallback used when Meilisearch is unavailable.
func (s *PostgresStore) SearchDesigns(ctx context.Context, query, category string, limit int) ([]Design, error) {
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, category, image_url, created_at, sort_order
		FROM designs
		WHERE (title ILIKE $1 OR description ILIKE $1 OR category ILIKE $1)
			AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, pattern, category, limit)
	if err != nil {
		return nil, fmt.Errorf("search designs: %w", err)
	}
	defer rows.Close()

	items := make([]Design, 0)
	for rows.Next() {
		var item Design
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Category, &item.ImageURL, &item.CreatedAt, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate designs: %w", err)
	}
	return items, nil
}
