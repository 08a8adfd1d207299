package callout

import (
	"context"
	"fmt"
	"time"

	"github.com/jakechorley/timeshift/pkg/db"
)

// Reasons a candidate is shown as unavailable, in order of precedence
const (
	ReasonAlreadyScheduled = "Already scheduled"
	ReasonApprovedLeave    = "On approved leave"
	ReasonPendingLeave     = "Pending leave request"
	ReasonConflictingShift = "Conflicting shift"
	ReasonInsufficientRest = "Insufficient rest"
)

// Candidate is an active employee annotated with whether they can be contacted for a shift
type Candidate struct {
	User              db.User
	IsAvailable       bool
	UnavailableReason *string
}

// EligibilityFilter annotates the roster for a shift.
// It never drops anyone from the base population; unavailable employees carry a reason instead.
type EligibilityFilter struct {
	// RestPeriod is the minimum gap between the callout shift and any other assignment.
	// Zero only flags overlapping shifts.
	RestPeriod time.Duration
}

// Candidates returns the active employees of the shift's organisation, restricted to
// classificationID when it is set, each annotated with availability
func (f EligibilityFilter) Candidates(ctx context.Context, r db.Reader, shift *db.ScheduledShift, classificationID *string) ([]Candidate, error) {
	users, err := r.ListActiveUsers(ctx, shift.OrgID, classificationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active users: %w", err)
	}

	leave, err := r.ListLeaveCovering(ctx, shift.OrgID, shift.Date)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave requests: %w", err)
	}

	assignments, err := r.ListAssignmentsOverlapping(ctx, shift.OrgID, shift.StartsAt.Add(-f.RestPeriod), shift.EndsAt.Add(f.RestPeriod))
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	leaveByUser := make(map[string][]db.LeaveStatus)
	for _, l := range leave {
		leaveByUser[l.UserID] = append(leaveByUser[l.UserID], l.Status)
	}
	assignmentsByUser := make(map[string][]db.ShiftAssignment)
	for _, a := range assignments {
		assignmentsByUser[a.UserID] = append(assignmentsByUser[a.UserID], a)
	}

	candidates := make([]Candidate, 0, len(users))
	for _, u := range users {
		reason := f.unavailableReason(shift, leaveByUser[u.ID], assignmentsByUser[u.ID])
		candidates = append(candidates, Candidate{
			User:              u,
			IsAvailable:       reason == "",
			UnavailableReason: optional(reason),
		})
	}
	return candidates, nil
}

func (f EligibilityFilter) unavailableReason(shift *db.ScheduledShift, leave []db.LeaveStatus, assignments []db.ShiftAssignment) string {
	var approved, pending, overlapping, tooClose bool

	for _, a := range assignments {
		if a.ScheduledShiftID == shift.ID {
			return ReasonAlreadyScheduled
		}
		if a.StartsAt.Before(shift.EndsAt) && a.EndsAt.After(shift.StartsAt) {
			overlapping = true
		} else if f.RestPeriod > 0 && restGap(shift, a) < f.RestPeriod {
			tooClose = true
		}
	}
	for _, status := range leave {
		switch status {
		case db.LeaveApproved:
			approved = true
		case db.LeavePending:
			pending = true
		}
	}

	switch {
	case approved:
		return ReasonApprovedLeave
	case pending:
		return ReasonPendingLeave
	case overlapping:
		return ReasonConflictingShift
	case tooClose:
		return ReasonInsufficientRest
	}
	return ""
}

// restGap is the time between a non-overlapping assignment and the shift
func restGap(shift *db.ScheduledShift, a db.ShiftAssignment) time.Duration {
	if !a.EndsAt.After(shift.StartsAt) {
		return shift.StartsAt.Sub(a.EndsAt)
	}
	return a.StartsAt.Sub(shift.EndsAt)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
