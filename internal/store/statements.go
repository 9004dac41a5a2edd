package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tollhub/pipeline/internal/model"
)

// ErrVersionConflict signals that AppendToDraft's compare-and-swap lost a
// race with a concurrent writer; callers retry with a freshly read draft.
var ErrVersionConflict = errors.New("statement draft version conflict")

// GetOrCreateDraft returns the StatementDraft for (userID, periodStart),
// whatever its status (including a closed one), creating an empty one if
// none exists yet.
func (s *Store) GetOrCreateDraft(ctx context.Context, userID string, periodStart, periodEnd time.Time, timezone string) (model.StatementDraft, error) {
	const insert = `
		INSERT INTO statement_drafts (user_id, period_start, period_end, timezone)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id, period_start) DO NOTHING`
	if _, err := s.Pool.Exec(ctx, insert, userID, periodStart, periodEnd, timezone); err != nil {
		return model.StatementDraft{}, fmt.Errorf("%w: create statement draft: %v", model.ErrTransient, err)
	}
	return s.getDraft(ctx, userID, periodStart)
}

func (s *Store) getDraft(ctx context.Context, userID string, periodStart time.Time) (model.StatementDraft, error) {
	const q = `
		SELECT user_id, period_start, period_end, timezone, subtotal, fees, credits, total, event_ids, status, version, updated_at
		FROM statement_drafts WHERE user_id = $1 AND period_start = $2`

	var d model.StatementDraft
	err := s.Pool.QueryRow(ctx, q, userID, periodStart).Scan(
		&d.UserID, &d.PeriodStart, &d.PeriodEnd, &d.Timezone, &d.Subtotal, &d.Fees, &d.Credits, &d.Total,
		&d.EventIDs, &d.Status, &d.Version, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.StatementDraft{}, fmt.Errorf("%w: statement draft %s/%s", model.ErrNotFound, userID, periodStart)
	}
	if err != nil {
		return model.StatementDraft{}, fmt.Errorf("%w: get statement draft: %v", model.ErrTransient, err)
	}
	return d, nil
}

// AppendToDraft adds one posted TollEvent's amount into the user's current
// draft using an optimistic-concurrency compare-and-swap on version,
// matching spec.md §4.6's requirement that concurrent appends never lose an
// update. Callers should retry on ErrVersionConflict.
func (s *Store) AppendToDraft(ctx context.Context, draft model.StatementDraft, event model.TollEvent) error {
	return appendToDraft(ctx, s.Pool, draft, event)
}

func appendToDraft(ctx context.Context, db queryExecer, draft model.StatementDraft, event model.TollEvent) error {
	newSubtotal := draft.Subtotal.Add(event.RatedAmount)
	newFees := draft.Fees.Add(event.Fees)
	newTotal := newSubtotal.Add(newFees).Sub(draft.Credits)

	const q = `
		UPDATE statement_drafts
		SET subtotal = $1, fees = $2, total = $3, event_ids = array_append(event_ids, $4),
		    version = version + 1, updated_at = now()
		WHERE user_id = $5 AND period_start = $6 AND version = $7`

	tag, err := db.Exec(ctx, q, newSubtotal, newFees, newTotal, event.ID, draft.UserID, draft.PeriodStart, draft.Version)
	if err != nil {
		return fmt.Errorf("%w: append to statement draft: %v", model.ErrTransient, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// PersistRatedEvent inserts event and appends its rated amount into draft in
// a single transaction, per spec.md §4.6's persist step ("in a single
// transaction: 1. insert TollEvent 2. upsert the draft 3. commit"). Tying
// the two writes together means a redelivery that hits the insert's
// unique-violation can never have skipped the draft append: either both
// committed together the first time, or neither did.
func (s *Store) PersistRatedEvent(ctx context.Context, draft model.StatementDraft, event model.TollEvent) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin persist tx: %v", model.ErrTransient, err)
	}
	defer tx.Rollback(ctx)

	if err := insertTollEvent(ctx, tx, event); err != nil {
		return err
	}
	if err := appendToDraft(ctx, tx, draft, event); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit persist tx: %v", model.ErrTransient, err)
	}
	return nil
}

// DueDraft identifies one user's draft that has crossed its period_end and
// is ready for the period-close controller to close.
type DueDraft struct {
	UserID      string
	PeriodStart time.Time
}

// ListDraftsDueForClose returns every open draft whose period has ended as
// of asOf, for the statement scheduler's cron tick to act on.
func (s *Store) ListDraftsDueForClose(ctx context.Context, asOf time.Time) ([]DueDraft, error) {
	const q = `SELECT user_id, period_start FROM statement_drafts WHERE status = 'draft' AND period_end <= $1`

	rows, err := s.Pool.Query(ctx, q, asOf)
	if err != nil {
		return nil, fmt.Errorf("%w: list drafts due for close: %v", model.ErrTransient, err)
	}
	defer rows.Close()

	var out []DueDraft
	for rows.Next() {
		var d DueDraft
		if err := rows.Scan(&d.UserID, &d.PeriodStart); err != nil {
			return nil, fmt.Errorf("%w: scan due draft: %v", model.ErrTransient, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CloseDraft assembles an immutable Statement from the current draft inside
// a single transaction, then marks the draft closed. decimal rounding has
// already happened at rating time (internal/rater), so totals here are a
// plain sum.
func (s *Store) CloseDraft(ctx context.Context, userID string, periodStart time.Time) (model.Statement, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return model.Statement{}, fmt.Errorf("%w: begin close-draft tx: %v", model.ErrTransient, err)
	}
	defer tx.Rollback(ctx)

	const lockQ = `
		SELECT period_end, subtotal, fees, credits, total, event_ids, status
		FROM statement_drafts WHERE user_id = $1 AND period_start = $2 FOR UPDATE`

	var periodEnd time.Time
	var subtotal, fees, credits, total decimal.Decimal
	var eventIDs []string
	var status string
	if err := tx.QueryRow(ctx, lockQ, userID, periodStart).Scan(&periodEnd, &subtotal, &fees, &credits, &total, &eventIDs, &status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Statement{}, fmt.Errorf("%w: statement draft %s/%s", model.ErrNotFound, userID, periodStart)
		}
		return model.Statement{}, fmt.Errorf("%w: lock statement draft: %v", model.ErrTransient, err)
	}
	if status == "closed" {
		return model.Statement{}, fmt.Errorf("%w: statement draft %s/%s already closed", model.ErrDuplicate, userID, periodStart)
	}

	stmt := model.Statement{
		ID:          uuid.NewString(),
		UserID:      userID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Subtotal:    subtotal,
		Fees:        fees,
		Credits:     credits,
		Total:       total,
		Status:      model.StatementClosed,
		CreatedAt:   time.Now().UTC(),
	}

	const insertStatement = `
		INSERT INTO statements (id, user_id, period_start, period_end, subtotal, fees, credits, total, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	if _, err := tx.Exec(ctx, insertStatement, stmt.ID, stmt.UserID, stmt.PeriodStart, stmt.PeriodEnd, stmt.Subtotal, stmt.Fees, stmt.Credits, stmt.Total, string(stmt.Status), stmt.CreatedAt); err != nil {
		return model.Statement{}, fmt.Errorf("%w: insert statement: %v", model.ErrTransient, err)
	}

	const insertLineItem = `INSERT INTO statement_items (statement_id, toll_event_id, amount)
		SELECT $1, id, rated_amount + fees FROM toll_events WHERE id = $2`
	for _, eventID := range eventIDs {
		if _, err := tx.Exec(ctx, insertLineItem, stmt.ID, eventID); err != nil {
			return model.Statement{}, fmt.Errorf("%w: insert statement line item: %v", model.ErrTransient, err)
		}
		stmt.LineItems = append(stmt.LineItems, model.StatementLineItem{TollEventID: eventID})
	}

	const closeDraftQ = `UPDATE statement_drafts SET status = 'closed', updated_at = now() WHERE user_id = $1 AND period_start = $2`
	if _, err := tx.Exec(ctx, closeDraftQ, userID, periodStart); err != nil {
		return model.Statement{}, fmt.Errorf("%w: close statement draft: %v", model.ErrTransient, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Statement{}, fmt.Errorf("%w: commit close-draft tx: %v", model.ErrTransient, err)
	}
	return stmt, nil
}
