package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/timeshift/pkg/db"
)

// reader serves reads from one state value. Committed states are never
// mutated, so a reader over one needs no locking.
type reader struct {
	state *state
}

var _ db.Reader = reader{}

// tx operates on the working copy owned by a single RunInTx call.
// The store's writer lock is held for its whole lifetime, so no locking is needed here.
type tx struct {
	reader
}

var _ db.Tx = (*tx)(nil)

func (r reader) GetScheduledShift(ctx context.Context, orgID, shiftID string) (*db.ScheduledShift, error) {
	return r.state.getScheduledShift(orgID, shiftID)
}

func (r reader) GetUser(ctx context.Context, orgID, userID string) (*db.User, error) {
	return r.state.getUser(orgID, userID)
}

func (r reader) ListActiveUsers(ctx context.Context, orgID string, classificationID *string) ([]db.User, error) {
	return r.state.listActiveUsers(orgID, classificationID), nil
}

func (r reader) ClassificationExists(ctx context.Context, orgID, classificationID string) (bool, error) {
	return r.state.classificationExists(orgID, classificationID), nil
}

func (r reader) OTReasonExists(ctx context.Context, orgID, reasonID string) (bool, error) {
	return r.state.otReasonExists(orgID, reasonID), nil
}

func (r reader) ListLeaveCovering(ctx context.Context, orgID string, date time.Time) ([]db.LeaveRequest, error) {
	return r.state.listLeaveCovering(orgID, date), nil
}

func (r reader) ListAssignmentsOverlapping(ctx context.Context, orgID string, from, to time.Time) ([]db.ShiftAssignment, error) {
	return r.state.listAssignmentsOverlapping(orgID, from, to), nil
}

func (r reader) GetLedgerEntries(ctx context.Context, fiscalYear int, classificationID *string, userIDs []string) ([]db.LedgerEntry, error) {
	return r.state.getLedgerEntries(fiscalYear, classificationID, userIDs), nil
}

func (r reader) GetEvent(ctx context.Context, orgID, eventID string) (*db.CalloutEvent, error) {
	return r.state.getEvent(orgID, eventID)
}

func (r reader) ListEvents(ctx context.Context, orgID string, page db.Page) ([]db.CalloutEvent, error) {
	return r.state.listEvents(orgID, page), nil
}

func (r reader) ListAttempts(ctx context.Context, orgID, eventID string) ([]db.CalloutAttempt, error) {
	return r.state.listAttempts(orgID, eventID)
}

func (r reader) GetAttempt(ctx context.Context, orgID, attemptID string) (*db.CalloutAttempt, error) {
	return r.state.getAttempt(orgID, attemptID)
}

func (t *tx) LockScheduledShift(ctx context.Context, orgID, shiftID string) (*db.ScheduledShift, error) {
	return t.state.getScheduledShift(orgID, shiftID)
}

func (t *tx) LockEvent(ctx context.Context, orgID, eventID string) (*db.CalloutEvent, error) {
	return t.state.getEvent(orgID, eventID)
}

func (t *tx) FindOpenEvent(ctx context.Context, shiftID string) (*db.CalloutEvent, error) {
	for _, e := range t.state.events {
		if e.ScheduledShiftID == shiftID && e.Status == db.StatusOpen {
			e = t.state.decorate(e)
			return &e, nil
		}
	}
	return nil, fmt.Errorf("open callout event for shift %s: %w", shiftID, db.ErrNotFound)
}

func (t *tx) InsertEvent(ctx context.Context, event *db.CalloutEvent) error {
	if _, exists := t.state.events[event.ID]; exists {
		return fmt.Errorf("callout event %s: %w", event.ID, db.ErrConflict)
	}
	if event.Status == db.StatusOpen {
		for _, e := range t.state.events {
			if e.ScheduledShiftID == event.ScheduledShiftID && e.Status == db.StatusOpen {
				return fmt.Errorf("open callout event for shift %s: %w", event.ScheduledShiftID, db.ErrConflict)
			}
		}
	}
	row := *event
	row.ShiftTemplateName = nil
	row.ShiftDate = nil
	row.TeamName = nil
	t.state.events[event.ID] = row
	return nil
}

func (t *tx) TransitionEvent(ctx context.Context, eventID string, from, to db.CalloutStatus, at time.Time) error {
	e, ok := t.state.events[eventID]
	if !ok {
		return fmt.Errorf("callout event %s: %w", eventID, db.ErrNotFound)
	}
	if e.Status != from {
		return fmt.Errorf("callout event %s is %s, not %s: %w", eventID, e.Status, from, db.ErrConflict)
	}
	e.Status = to
	e.UpdatedAt = at
	t.state.events[eventID] = e
	return nil
}

func (t *tx) InsertAttempt(ctx context.Context, attempt *db.CalloutAttempt) error {
	if _, ok := t.state.events[attempt.EventID]; !ok {
		return fmt.Errorf("callout event %s: %w", attempt.EventID, db.ErrNotFound)
	}
	for _, a := range t.state.attempts {
		if a.ID == attempt.ID {
			return fmt.Errorf("callout attempt %s: %w", attempt.ID, db.ErrConflict)
		}
		if isAccepted(attempt) && isAccepted(&a) && a.EventID == attempt.EventID {
			return fmt.Errorf("accepted attempt already recorded for event %s: %w", attempt.EventID, db.ErrConflict)
		}
	}
	t.state.attempts = append(t.state.attempts, *attempt)
	return nil
}

func isAccepted(a *db.CalloutAttempt) bool {
	return a.Response != nil && *a.Response == db.ResponseAccepted
}

func (t *tx) SetAttemptNotes(ctx context.Context, attemptID string, notes *string) error {
	for i := range t.state.attempts {
		if t.state.attempts[i].ID == attemptID {
			t.state.attempts[i].Notes = notes
			return nil
		}
	}
	return fmt.Errorf("callout attempt %s: %w", attemptID, db.ErrNotFound)
}

func (t *tx) InsertAssignment(ctx context.Context, assignment *db.Assignment) error {
	if _, ok := t.state.shifts[assignment.ScheduledShiftID]; !ok {
		return fmt.Errorf("scheduled shift %s: %w", assignment.ScheduledShiftID, db.ErrNotFound)
	}
	for _, a := range t.state.assignments {
		if a.ScheduledShiftID == assignment.ScheduledShiftID && a.UserID == assignment.UserID {
			return fmt.Errorf("user %s already assigned to shift %s: %w", assignment.UserID, assignment.ScheduledShiftID, db.ErrConflict)
		}
	}
	t.state.assignments = append(t.state.assignments, *assignment)
	return nil
}

func (t *tx) IncrementLedger(ctx context.Context, key db.LedgerKey, workedDelta, declinedDelta float64, at time.Time) (*db.LedgerEntry, error) {
	id := keyOf(key)
	entry, ok := t.state.ledger[id]
	if !ok {
		entry = db.LedgerEntry{LedgerKey: key}
	}
	entry.HoursWorked += workedDelta
	entry.HoursDeclined += declinedDelta
	entry.UpdatedAt = at
	t.state.ledger[id] = entry
	return &entry, nil
}
