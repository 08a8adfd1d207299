package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/timeshift/pkg/db"
)

// reader implements db.Reader over a pool or an open transaction
type reader struct {
	q querier
}

const shiftColumns = `
	id, org_id, shift_template_id, template_name, date, starts_at, ends_at, required_headcount, slot_id`

func (r reader) getShift(ctx context.Context, orgID, shiftID, suffix string) (*db.ScheduledShift, error) {
	if !validID(shiftID) || !validID(orgID) {
		return nil, notFound("scheduled shift", shiftID)
	}

	query := `SELECT` + shiftColumns + ` FROM shift_windows WHERE id = $1 AND org_id = $2`
	if suffix != "" {
		// views over joins cannot be locked, so lock the underlying shift row
		query = `SELECT` + shiftColumns + ` FROM shift_windows
			WHERE id = (SELECT id FROM scheduled_shifts WHERE id = $1 AND org_id = $2 ` + suffix + `)`
	}

	var s db.ScheduledShift
	err := r.q.QueryRow(ctx, query, shiftID, orgID).Scan(
		&s.ID, &s.OrgID, &s.ShiftTemplateID, &s.TemplateName, &s.Date,
		&s.StartsAt, &s.EndsAt, &s.RequiredHeadcount, &s.SlotID)
	if err != nil {
		return nil, mapError(err, "failed to get scheduled shift")
	}
	s.StartsAt = s.StartsAt.UTC()
	s.EndsAt = s.EndsAt.UTC()
	return &s, nil
}

// GetScheduledShift retrieves a shift with its concrete time window
func (r reader) GetScheduledShift(ctx context.Context, orgID, shiftID string) (*db.ScheduledShift, error) {
	return r.getShift(ctx, orgID, shiftID, "")
}

const userColumns = `
	u.id, u.org_id, u.employee_id, u.first_name, u.last_name, u.role,
	u.classification_id, cl.abbreviation, u.seniority_date, u.is_active`

func scanUser(row interface{ Scan(...any) error }) (db.User, error) {
	var u db.User
	err := row.Scan(&u.ID, &u.OrgID, &u.EmployeeID, &u.FirstName, &u.LastName, &u.Role,
		&u.ClassificationID, &u.ClassificationAbbreviation, &u.SeniorityDate, &u.IsActive)
	return u, err
}

// GetUser retrieves a user of the organisation, active or not
func (r reader) GetUser(ctx context.Context, orgID, userID string) (*db.User, error) {
	if !validID(userID) || !validID(orgID) {
		return nil, notFound("user", userID)
	}

	row := r.q.QueryRow(ctx, `
		SELECT`+userColumns+`
		FROM users u
		LEFT JOIN classifications cl ON cl.id = u.classification_id
		WHERE u.id = $1 AND u.org_id = $2
	`, userID, orgID)
	u, err := scanUser(row)
	if err != nil {
		return nil, mapError(err, "failed to get user")
	}
	return &u, nil
}

// ListActiveUsers retrieves the active users of an organisation, optionally of one classification
func (r reader) ListActiveUsers(ctx context.Context, orgID string, classificationID *string) ([]db.User, error) {
	if !validID(orgID) || (classificationID != nil && !validID(*classificationID)) {
		return nil, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT`+userColumns+`
		FROM users u
		LEFT JOIN classifications cl ON cl.id = u.classification_id
		WHERE u.org_id = $1
		  AND u.is_active
		  AND ($2::uuid IS NULL OR u.classification_id = $2::uuid)
		ORDER BY u.id
	`, orgID, classificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []db.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (r reader) exists(ctx context.Context, query, orgID, id string) (bool, error) {
	if !validID(id) || !validID(orgID) {
		return false, nil
	}
	var ok bool
	if err := r.q.QueryRow(ctx, query, id, orgID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// ClassificationExists reports whether the classification belongs to the organisation
func (r reader) ClassificationExists(ctx context.Context, orgID, classificationID string) (bool, error) {
	ok, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM classifications WHERE id = $1 AND org_id = $2)`, orgID, classificationID)
	if err != nil {
		return false, fmt.Errorf("failed to check classification: %w", err)
	}
	return ok, nil
}

// OTReasonExists reports whether the overtime reason belongs to the organisation
func (r reader) OTReasonExists(ctx context.Context, orgID, reasonID string) (bool, error) {
	ok, err := r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM ot_reasons WHERE id = $1 AND org_id = $2)`, orgID, reasonID)
	if err != nil {
		return false, fmt.Errorf("failed to check overtime reason: %w", err)
	}
	return ok, nil
}

// ListLeaveCovering retrieves every leave request whose inclusive date range contains date
func (r reader) ListLeaveCovering(ctx context.Context, orgID string, date time.Time) ([]db.LeaveRequest, error) {
	if !validID(orgID) {
		return nil, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT lr.id, lr.user_id, lr.start_date, lr.end_date, lr.status
		FROM leave_requests lr
		JOIN users u ON u.id = lr.user_id
		WHERE u.org_id = $1
		  AND lr.start_date <= $2::date
		  AND lr.end_date >= $2::date
	`, orgID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave requests: %w", err)
	}
	defer rows.Close()

	var leave []db.LeaveRequest
	for rows.Next() {
		var l db.LeaveRequest
		var status string
		if err := rows.Scan(&l.ID, &l.UserID, &l.StartDate, &l.EndDate, &status); err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		l.Status = db.LeaveStatus(status)
		leave = append(leave, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leave requests: %w", err)
	}

	return leave, nil
}

// ListAssignmentsOverlapping retrieves assignments whose shift window intersects [from, to)
func (r reader) ListAssignmentsOverlapping(ctx context.Context, orgID string, from, to time.Time) ([]db.ShiftAssignment, error) {
	if !validID(orgID) {
		return nil, nil
	}

	rows, err := r.q.Query(ctx, `
		SELECT a.id, a.scheduled_shift_id, a.user_id, a.is_overtime, a.notes,
		       COALESCE(a.created_by::text, ''), a.created_at, w.starts_at, w.ends_at
		FROM assignments a
		JOIN shift_windows w ON w.id = a.scheduled_shift_id
		WHERE w.org_id = $1
		  AND w.starts_at < $3
		  AND w.ends_at > $2
	`, orgID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	var assignments []db.ShiftAssignment
	for rows.Next() {
		var a db.ShiftAssignment
		if err := rows.Scan(&a.ID, &a.ScheduledShiftID, &a.UserID, &a.IsOvertime, &a.Notes,
			&a.CreatedBy, &a.CreatedAt, &a.StartsAt, &a.EndsAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.StartsAt = a.StartsAt.UTC()
		a.EndsAt = a.EndsAt.UTC()
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}

	return assignments, nil
}
