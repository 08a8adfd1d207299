package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/timeshift/pkg/db"
)

// tx implements db.Tx on an open pgx transaction
type tx struct {
	reader
}

var _ db.Tx = (*tx)(nil)

// LockScheduledShift reads the shift and holds a row lock on it, serialising
// concurrent opens for the same shift
func (t *tx) LockScheduledShift(ctx context.Context, orgID, shiftID string) (*db.ScheduledShift, error) {
	return t.getShift(ctx, orgID, shiftID, "FOR UPDATE")
}

// LockEvent reads the event and holds a row lock on it. A waiting caller sees
// the row as committed by the holder once the lock is released.
func (t *tx) LockEvent(ctx context.Context, orgID, eventID string) (*db.CalloutEvent, error) {
	return t.getEvent(ctx, orgID, eventID, "FOR UPDATE OF ce")
}

// FindOpenEvent retrieves the open event for a shift
func (t *tx) FindOpenEvent(ctx context.Context, shiftID string) (*db.CalloutEvent, error) {
	if !validID(shiftID) {
		return nil, notFound("open callout event for shift", shiftID)
	}
	e, err := scanEvent(t.q.QueryRow(ctx, eventSelect+`
		WHERE ce.scheduled_shift_id = $1 AND ce.status = 'open'
	`, shiftID))
	if err != nil {
		return nil, mapError(err, "failed to find open callout event")
	}
	return &e, nil
}

// InsertEvent inserts a new callout event
func (t *tx) InsertEvent(ctx context.Context, event *db.CalloutEvent) error {
	_, err := t.q.Exec(ctx, `
		INSERT INTO callout_events
			(id, scheduled_shift_id, initiated_by, ot_reason_id, reason_text, classification_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, event.ID, event.ScheduledShiftID, event.InitiatedBy, event.OTReasonID, event.ReasonText,
		event.ClassificationID, string(event.Status), event.CreatedAt.UTC(), event.UpdatedAt.UTC())
	if err != nil {
		return mapError(err, "failed to insert callout event")
	}
	return nil
}

// TransitionEvent changes an event's status only if it is still in from
func (t *tx) TransitionEvent(ctx context.Context, eventID string, from, to db.CalloutStatus, at time.Time) error {
	tag, err := t.q.Exec(ctx, `
		UPDATE callout_events
		SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2
	`, eventID, string(from), string(to), at.UTC())
	if err != nil {
		return mapError(err, "failed to update callout event status")
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("callout event %s is not %s: %w", eventID, from, db.ErrConflict)
	}
	return nil
}

// InsertAttempt inserts a callout attempt
func (t *tx) InsertAttempt(ctx context.Context, attempt *db.CalloutAttempt) error {
	var response *string
	if attempt.Response != nil {
		r := string(*attempt.Response)
		response = &r
	}
	_, err := t.q.Exec(ctx, `
		INSERT INTO callout_attempts
			(id, event_id, user_id, list_position, contacted_at, response, ot_hours_at_contact, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7::float8, $8)
	`, attempt.ID, attempt.EventID, attempt.UserID, attempt.ListPosition, attempt.ContactedAt,
		response, attempt.OTHoursAtContact, attempt.Notes)
	if err != nil {
		return mapError(err, "failed to insert callout attempt")
	}
	return nil
}

// SetAttemptNotes replaces an attempt's notes; nil clears them
func (t *tx) SetAttemptNotes(ctx context.Context, attemptID string, notes *string) error {
	tag, err := t.q.Exec(ctx, `UPDATE callout_attempts SET notes = $2 WHERE id = $1`, attemptID, notes)
	if err != nil {
		return mapError(err, "failed to update attempt notes")
	}
	if tag.RowsAffected() == 0 {
		return notFound("callout attempt", attemptID)
	}
	return nil
}

// InsertAssignment inserts an assignment. A second assignment of the same user
// to the same shift violates a unique constraint and returns ErrConflict.
func (t *tx) InsertAssignment(ctx context.Context, assignment *db.Assignment) error {
	var createdBy *string
	if validID(assignment.CreatedBy) {
		createdBy = &assignment.CreatedBy
	}
	_, err := t.q.Exec(ctx, `
		INSERT INTO assignments (id, scheduled_shift_id, user_id, is_overtime, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, assignment.ID, assignment.ScheduledShiftID, assignment.UserID, assignment.IsOvertime,
		assignment.Notes, createdBy, assignment.CreatedAt.UTC())
	if err != nil {
		return mapError(err, "failed to insert assignment")
	}
	return nil
}
