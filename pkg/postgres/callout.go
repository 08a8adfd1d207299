package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/timeshift/pkg/db"
)

const eventSelect = `
	SELECT ce.id, ce.scheduled_shift_id, ce.initiated_by, ce.ot_reason_id, ce.reason_text,
	       ce.classification_id, ce.status, st.name, ss.date, t.name, ce.created_at, ce.updated_at
	FROM callout_events ce
	JOIN scheduled_shifts ss ON ss.id = ce.scheduled_shift_id
	JOIN shift_templates st ON st.id = ss.shift_template_id
	LEFT JOIN shift_slots sl ON sl.id = ss.slot_id
	LEFT JOIN teams t ON t.id = sl.team_id`

func scanEvent(row interface{ Scan(...any) error }) (db.CalloutEvent, error) {
	var e db.CalloutEvent
	var status, templateName string
	var shiftDate time.Time
	err := row.Scan(&e.ID, &e.ScheduledShiftID, &e.InitiatedBy, &e.OTReasonID, &e.ReasonText,
		&e.ClassificationID, &status, &templateName, &shiftDate, &e.TeamName, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	e.Status = db.CalloutStatus(status)
	e.ShiftTemplateName = &templateName
	e.ShiftDate = &shiftDate
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

func (r reader) getEvent(ctx context.Context, orgID, eventID, suffix string) (*db.CalloutEvent, error) {
	if !validID(eventID) || !validID(orgID) {
		return nil, notFound("callout event", eventID)
	}
	e, err := scanEvent(r.q.QueryRow(ctx, eventSelect+`
		WHERE ce.id = $1 AND ss.org_id = $2 `+suffix, eventID, orgID))
	if err != nil {
		return nil, mapError(err, "failed to get callout event")
	}
	return &e, nil
}

// GetEvent retrieves a callout event with its shift name and date
func (r reader) GetEvent(ctx context.Context, orgID, eventID string) (*db.CalloutEvent, error) {
	return r.getEvent(ctx, orgID, eventID, "")
}

// ListEvents retrieves a page of the organisation's callout events, newest first
func (r reader) ListEvents(ctx context.Context, orgID string, page db.Page) ([]db.CalloutEvent, error) {
	events := []db.CalloutEvent{}
	if !validID(orgID) {
		return events, nil
	}

	rows, err := r.q.Query(ctx, eventSelect+`
		WHERE ss.org_id = $1
		ORDER BY ce.created_at DESC, ce.id DESC
		LIMIT $2 OFFSET $3
	`, orgID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query callout events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan callout event: %w", err)
		}
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating callout events: %w", err)
	}

	return events, nil
}

const attemptColumns = `
	a.id, a.event_id, a.user_id, a.list_position, a.contacted_at, a.response,
	a.ot_hours_at_contact::float8, a.notes`

func scanAttempt(row interface{ Scan(...any) error }) (db.CalloutAttempt, error) {
	var a db.CalloutAttempt
	var response *string
	err := row.Scan(&a.ID, &a.EventID, &a.UserID, &a.ListPosition, &a.ContactedAt, &response,
		&a.OTHoursAtContact, &a.Notes)
	if err != nil {
		return a, err
	}
	if response != nil {
		r := db.AttemptResponse(*response)
		a.Response = &r
	}
	if a.ContactedAt != nil {
		t := a.ContactedAt.UTC()
		a.ContactedAt = &t
	}
	return a, nil
}

// ListAttempts retrieves an event's attempts in contact order
func (r reader) ListAttempts(ctx context.Context, orgID, eventID string) ([]db.CalloutAttempt, error) {
	if _, err := r.GetEvent(ctx, orgID, eventID); err != nil {
		return nil, err
	}

	rows, err := r.q.Query(ctx, `
		SELECT`+attemptColumns+`
		FROM callout_attempts a
		WHERE a.event_id = $1
		ORDER BY a.contacted_at ASC NULLS LAST, a.created_at ASC, a.list_position ASC
	`, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query callout attempts: %w", err)
	}
	defer rows.Close()

	attempts := []db.CalloutAttempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan callout attempt: %w", err)
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating callout attempts: %w", err)
	}

	return attempts, nil
}

// GetAttempt retrieves one attempt, scoped through its event's shift
func (r reader) GetAttempt(ctx context.Context, orgID, attemptID string) (*db.CalloutAttempt, error) {
	if !validID(attemptID) || !validID(orgID) {
		return nil, notFound("callout attempt", attemptID)
	}

	a, err := scanAttempt(r.q.QueryRow(ctx, `
		SELECT`+attemptColumns+`
		FROM callout_attempts a
		JOIN callout_events ce ON ce.id = a.event_id
		JOIN scheduled_shifts ss ON ss.id = ce.scheduled_shift_id
		WHERE a.id = $1 AND ss.org_id = $2
	`, attemptID, orgID))
	if err != nil {
		return nil, mapError(err, "failed to get callout attempt")
	}
	return &a, nil
}
