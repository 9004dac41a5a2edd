package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tollhub/pipeline/internal/model"
)

// ManualReviewEntry is a NormalizedEvent the Matcher could not resolve to a
// vehicle with sufficient confidence, queued for human adjudication
// (spec.md §4.4).
type ManualReviewEntry struct {
	ID       string
	Event    model.NormalizedEvent
	Reason   string
	Priority int
}

// InsertManualReview enqueues an unresolved event for manual review.
func (s *Store) InsertManualReview(ctx context.Context, entry ManualReviewEntry) error {
	payload, err := json.Marshal(entry.Event)
	if err != nil {
		return fmt.Errorf("marshal manual review event: %w", err)
	}

	const q = `INSERT INTO manual_review_queue (id, normalized_event_json, reason, priority) VALUES ($1,$2,$3,$4)`
	if _, err := s.Pool.Exec(ctx, q, entry.ID, payload, entry.Reason, entry.Priority); err != nil {
		return fmt.Errorf("%w: insert manual review entry: %v", model.ErrTransient, err)
	}
	return nil
}

// ListManualReview returns queued manual-review entries, most recent first,
// for the admin API's review queue endpoint.
func (s *Store) ListManualReview(ctx context.Context, limit int) ([]ManualReviewEntry, error) {
	const q = `
		SELECT id, normalized_event_json, reason, priority FROM manual_review_queue
		ORDER BY created_at DESC LIMIT $1`

	rows, err := s.Pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list manual review entries: %v", model.ErrTransient, err)
	}
	defer rows.Close()

	var out []ManualReviewEntry
	for rows.Next() {
		var entry ManualReviewEntry
		var raw []byte
		if err := rows.Scan(&entry.ID, &raw, &entry.Reason, &entry.Priority); err != nil {
			return nil, fmt.Errorf("%w: scan manual review entry: %v", model.ErrTransient, err)
		}
		if err := json.Unmarshal(raw, &entry.Event); err != nil {
			return nil, fmt.Errorf("unmarshal manual review event: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// DeleteManualReview removes an entry once a human has resolved it.
func (s *Store) DeleteManualReview(ctx context.Context, id string) error {
	if _, err := s.Pool.Exec(ctx, `DELETE FROM manual_review_queue WHERE id = $1`, id); err != nil {
		return fmt.Errorf("%w: delete manual review entry: %v", model.ErrTransient, err)
	}
	return nil
}
