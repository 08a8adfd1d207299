package callout

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/timeshift/pkg/db"
)

// OvertimeLedger is the accumulator of overtime hours per (user, fiscal year, classification).
// It only ever adds; fiscal years are supplied by the caller.
type OvertimeLedger struct{}

// Hours returns the entry for key, or a zero entry if the user has no activity under it
func (OvertimeLedger) Hours(ctx context.Context, r db.Reader, key db.LedgerKey) (db.LedgerEntry, error) {
	entries, err := r.GetLedgerEntries(ctx, key.FiscalYear, key.ClassificationID, []string{key.UserID})
	if err != nil {
		return db.LedgerEntry{}, fmt.Errorf("failed to read overtime ledger: %w", err)
	}
	if len(entries) == 0 {
		return db.LedgerEntry{LedgerKey: key}, nil
	}
	return entries[0], nil
}

// WorkedHours returns hours worked for each user that has an entry
func (OvertimeLedger) WorkedHours(ctx context.Context, r db.Reader, fiscalYear int, classificationID *string, users []string) (map[string]float64, error) {
	hours := make(map[string]float64, len(users))
	if len(users) == 0 {
		return hours, nil
	}
	entries, err := r.GetLedgerEntries(ctx, fiscalYear, classificationID, users)
	if err != nil {
		return nil, fmt.Errorf("failed to read overtime ledger: %w", err)
	}
	for _, e := range entries {
		hours[e.UserID] = e.HoursWorked
	}
	return hours, nil
}

// IncrementWorked adds hours to hours_worked, creating the entry if needed
func (OvertimeLedger) IncrementWorked(ctx context.Context, tx db.Tx, key db.LedgerKey, hours float64, at time.Time) (*db.LedgerEntry, error) {
	if hours < 0 {
		return nil, validation("overtime hours cannot be decremented")
	}
	entry, err := tx.IncrementLedger(ctx, key, hours, 0, at)
	if err != nil {
		return nil, fmt.Errorf("failed to increment hours worked: %w", err)
	}
	return entry, nil
}

// IncrementDeclined adds hours to hours_declined, creating the entry if needed
func (OvertimeLedger) IncrementDeclined(ctx context.Context, tx db.Tx, key db.LedgerKey, hours float64, at time.Time) (*db.LedgerEntry, error) {
	if hours < 0 {
		return nil, validation("declined hours cannot be decremented")
	}
	entry, err := tx.IncrementLedger(ctx, key, 0, hours, at)
	if err != nil {
		return nil, fmt.Errorf("failed to increment hours declined: %w", err)
	}
	return entry, nil
}
