package callout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/timeshift/pkg/db"
	"github.com/jakechorley/timeshift/pkg/memstore"
)

func candidatesByID(t *testing.T, f EligibilityFilter, s *memstore.Store, classificationID *string) map[string]Candidate {
	t.Helper()
	ctx := context.Background()
	shift, err := s.GetScheduledShift(ctx, testOrg, shiftID)
	require.NoError(t, err)

	candidates, err := f.Candidates(ctx, s, shift, classificationID)
	require.NoError(t, err)

	byID := make(map[string]Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.User.ID] = c
	}
	return byID
}

func reasonOf(c Candidate) string {
	if c.UnavailableReason == nil {
		return ""
	}
	return *c.UnavailableReason
}

func addShiftAt(s *memstore.Store, id string, start time.Time, hours int) {
	s.AddShift(db.ScheduledShift{
		ID:       id,
		OrgID:    testOrg,
		Date:     time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		StartsAt: start,
		EndsAt:   start.Add(time.Duration(hours) * time.Hour),
	})
}

func TestCandidates_LeaveStatuses(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"approved", "pending", "denied", "cancelled", "free"} {
		addUser(s, id, nil)
	}
	s.AddLeave(db.LeaveRequest{ID: "l1", UserID: "approved", StartDate: shiftDate.AddDate(0, 0, -2), EndDate: shiftDate, Status: db.LeaveApproved})
	s.AddLeave(db.LeaveRequest{ID: "l2", UserID: "pending", StartDate: shiftDate, EndDate: shiftDate.AddDate(0, 0, 3), Status: db.LeavePending})
	s.AddLeave(db.LeaveRequest{ID: "l3", UserID: "denied", StartDate: shiftDate, EndDate: shiftDate, Status: db.LeaveDenied})
	s.AddLeave(db.LeaveRequest{ID: "l4", UserID: "cancelled", StartDate: shiftDate, EndDate: shiftDate, Status: db.LeaveCancelled})

	byID := candidatesByID(t, EligibilityFilter{}, s, nil)
	require.Len(t, byID, 5)

	assert.False(t, byID["approved"].IsAvailable)
	assert.Equal(t, ReasonApprovedLeave, reasonOf(byID["approved"]))
	assert.False(t, byID["pending"].IsAvailable)
	assert.Equal(t, ReasonPendingLeave, reasonOf(byID["pending"]))

	for _, id := range []string{"denied", "cancelled", "free"} {
		assert.True(t, byID[id].IsAvailable, id)
		assert.Nil(t, byID[id].UnavailableReason, id)
	}
}

func TestCandidates_LeaveOutsideShiftDate(t *testing.T) {
	s := newTestStore(t)
	addUser(s, "u1", nil)
	s.AddLeave(db.LeaveRequest{ID: "l1", UserID: "u1", StartDate: shiftDate.AddDate(0, 0, 1), EndDate: shiftDate.AddDate(0, 0, 5), Status: db.LeaveApproved})

	byID := candidatesByID(t, EligibilityFilter{}, s, nil)
	assert.True(t, byID["u1"].IsAvailable)
}

func TestCandidates_AssignmentConflicts(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"same", "overlap", "adjacent", "free"} {
		addUser(s, id, nil)
	}
	// night shift ending 2h into the day shift
	addShiftAt(s, "night-before", shiftDate.Add(-3*time.Hour), 12)
	// shift starting exactly when the day shift ends
	addShiftAt(s, "evening-after", shiftDate.Add(19*time.Hour), 8)

	s.AddAssignment(db.Assignment{ID: "a1", ScheduledShiftID: shiftID, UserID: "same"})
	s.AddAssignment(db.Assignment{ID: "a2", ScheduledShiftID: "night-before", UserID: "overlap"})
	s.AddAssignment(db.Assignment{ID: "a3", ScheduledShiftID: "evening-after", UserID: "adjacent"})

	byID := candidatesByID(t, EligibilityFilter{}, s, nil)

	assert.Equal(t, ReasonAlreadyScheduled, reasonOf(byID["same"]))
	assert.Equal(t, ReasonConflictingShift, reasonOf(byID["overlap"]))
	assert.True(t, byID["adjacent"].IsAvailable, "back to back shifts only conflict under a rest period")
	assert.True(t, byID["free"].IsAvailable)
}

func TestCandidates_RestPeriod(t *testing.T) {
	s := newTestStore(t)
	addUser(s, "short-gap", nil)
	addUser(s, "long-gap", nil)
	// ends 4h before the day shift starts
	addShiftAt(s, "early", shiftDate.Add(-5*time.Hour), 8)
	// starts 10h after the day shift ends
	addShiftAt(s, "late", shiftDate.Add(29*time.Hour), 8)
	s.AddAssignment(db.Assignment{ID: "a1", ScheduledShiftID: "early", UserID: "short-gap"})
	s.AddAssignment(db.Assignment{ID: "a2", ScheduledShiftID: "late", UserID: "long-gap"})

	byID := candidatesByID(t, EligibilityFilter{RestPeriod: 8 * time.Hour}, s, nil)
	assert.Equal(t, ReasonInsufficientRest, reasonOf(byID["short-gap"]))
	assert.True(t, byID["long-gap"].IsAvailable)

	byID = candidatesByID(t, EligibilityFilter{}, s, nil)
	assert.True(t, byID["short-gap"].IsAvailable)
}

func TestCandidates_ReasonPrecedence(t *testing.T) {
	s := newTestStore(t)
	addUser(s, "u1", nil)
	addUser(s, "u2", nil)
	addShiftAt(s, "night-before", shiftDate.Add(-3*time.Hour), 12)

	s.AddAssignment(db.Assignment{ID: "a1", ScheduledShiftID: shiftID, UserID: "u1"})
	s.AddLeave(db.LeaveRequest{ID: "l1", UserID: "u1", StartDate: shiftDate, EndDate: shiftDate, Status: db.LeaveApproved})

	s.AddAssignment(db.Assignment{ID: "a2", ScheduledShiftID: "night-before", UserID: "u2"})
	s.AddLeave(db.LeaveRequest{ID: "l2", UserID: "u2", StartDate: shiftDate, EndDate: shiftDate, Status: db.LeavePending})

	byID := candidatesByID(t, EligibilityFilter{}, s, nil)
	assert.Equal(t, ReasonAlreadyScheduled, reasonOf(byID["u1"]))
	assert.Equal(t, ReasonPendingLeave, reasonOf(byID["u2"]))
}

func TestCandidates_BasePopulation(t *testing.T) {
	s := newTestStore(t)
	addUser(s, "dispatcher", nil)
	s.AddUser(db.User{ID: "other-class", OrgID: testOrg, ClassificationID: ptr("class-other"), IsActive: true})
	s.AddUser(db.User{ID: "unclassified", OrgID: testOrg, IsActive: true})
	s.AddUser(db.User{ID: "inactive", OrgID: testOrg, ClassificationID: ptr(dispatcher), IsActive: false})
	s.AddUser(db.User{ID: "foreign", OrgID: otherOrg, ClassificationID: ptr(dispatcher), IsActive: true})

	all := candidatesByID(t, EligibilityFilter{}, s, nil)
	assert.Len(t, all, 3)
	assert.NotContains(t, all, "inactive")
	assert.NotContains(t, all, "foreign")

	filtered := candidatesByID(t, EligibilityFilter{}, s, ptr(dispatcher))
	assert.Len(t, filtered, 1)
	assert.Contains(t, filtered, "dispatcher")
	require.NotNil(t, filtered["dispatcher"].User.ClassificationAbbreviation)
	assert.Equal(t, "DSP", *filtered["dispatcher"].User.ClassificationAbbreviation)
}
