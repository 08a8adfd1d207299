package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/timeshift/pkg/db"
)

const ledgerColumns = `
	user_id, fiscal_year, classification_id, hours_worked::float8, hours_declined::float8, updated_at`

func scanLedger(row interface{ Scan(...any) error }) (db.LedgerEntry, error) {
	var e db.LedgerEntry
	err := row.Scan(&e.UserID, &e.FiscalYear, &e.ClassificationID, &e.HoursWorked, &e.HoursDeclined, &e.UpdatedAt)
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, err
}

// GetLedgerEntries retrieves the ledger rows for the given users under one
// fiscal year and classification bucket. Users without a row are omitted.
func (r reader) GetLedgerEntries(ctx context.Context, fiscalYear int, classificationID *string, userIDs []string) ([]db.LedgerEntry, error) {
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if validID(id) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 || (classificationID != nil && !validID(*classificationID)) {
		return nil, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT`+ledgerColumns+`
		FROM ot_hours
		WHERE fiscal_year = $1
		  AND classification_id IS NOT DISTINCT FROM $2::uuid
		  AND user_id = ANY($3::uuid[])
	`, fiscalYear, classificationID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query overtime ledger: %w", err)
	}
	defer rows.Close()

	var entries []db.LedgerEntry
	for rows.Next() {
		e, err := scanLedger(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overtime ledger: %w", err)
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overtime ledger: %w", err)
	}

	return entries, nil
}

// IncrementLedger upserts the ledger row for key, adding the deltas in a single statement
func (t *tx) IncrementLedger(ctx context.Context, key db.LedgerKey, workedDelta, declinedDelta float64, at time.Time) (*db.LedgerEntry, error) {
	e, err := scanLedger(t.q.QueryRow(ctx, `
		INSERT INTO ot_hours (user_id, fiscal_year, classification_id, hours_worked, hours_declined, updated_at)
		VALUES ($1, $2, $3::uuid, $4::float8, $5::float8, $6)
		ON CONFLICT (user_id, fiscal_year, COALESCE(classification_id, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET
			hours_worked = ot_hours.hours_worked + EXCLUDED.hours_worked,
			hours_declined = ot_hours.hours_declined + EXCLUDED.hours_declined,
			updated_at = EXCLUDED.updated_at
		RETURNING`+ledgerColumns,
		key.UserID, key.FiscalYear, key.ClassificationID, workedDelta, declinedDelta, at.UTC()))
	if err != nil {
		return nil, mapError(err, "failed to increment overtime ledger")
	}
	return &e, nil
}
