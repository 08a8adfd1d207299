package memstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/timeshift/pkg/db"
)

const org = "org-1"

func seeded(t *testing.T) *Store {
	t.Helper()
	s := New()
	s.AddShift(db.ScheduledShift{
		ID:           "shift-1",
		OrgID:        org,
		TemplateName: "Day",
		Date:         time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		StartsAt:     time.Date(2025, 3, 1, 7, 0, 0, 0, time.UTC),
		EndsAt:       time.Date(2025, 3, 1, 19, 0, 0, 0, time.UTC),
	})
	s.AddUser(db.User{ID: "user-1", OrgID: org, FirstName: "Ada", LastName: "Lee", IsActive: true})
	return s
}

func TestRunInTx_CommitsOnSuccess(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	err := s.RunInTx(ctx, func(tx db.Tx) error {
		return tx.InsertEvent(ctx, &db.CalloutEvent{ID: "event-1", ScheduledShiftID: "shift-1", Status: db.StatusOpen})
	})
	require.NoError(t, err)

	event, err := s.GetEvent(ctx, org, "event-1")
	require.NoError(t, err)
	assert.Equal(t, db.StatusOpen, event.Status)
	require.NotNil(t, event.ShiftTemplateName)
	assert.Equal(t, "Day", *event.ShiftTemplateName)
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := s.RunInTx(ctx, func(tx db.Tx) error {
		require.NoError(t, tx.InsertEvent(ctx, &db.CalloutEvent{ID: "event-1", ScheduledShiftID: "shift-1", Status: db.StatusOpen}))
		_, err := tx.IncrementLedger(ctx, db.LedgerKey{UserID: "user-1", FiscalYear: 2025}, 12, 0, time.Now())
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = s.GetEvent(ctx, org, "event-1")
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Empty(t, s.LedgerEntries())
}

func TestGetEvent_TeamNameFromSlot(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	slotID := "slot-1"
	s.AddTeam(Team{ID: "team-1", OrgID: org, Name: "B Platoon"})
	s.AddSlot(Slot{ID: slotID, TeamID: "team-1"})
	s.AddShift(db.ScheduledShift{
		ID:       "shift-2",
		OrgID:    org,
		Date:     time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		StartsAt: time.Date(2025, 3, 2, 7, 0, 0, 0, time.UTC),
		EndsAt:   time.Date(2025, 3, 2, 19, 0, 0, 0, time.UTC),
		SlotID:   &slotID,
	})

	err := s.RunInTx(ctx, func(tx db.Tx) error {
		require.NoError(t, tx.InsertEvent(ctx, &db.CalloutEvent{ID: "event-1", ScheduledShiftID: "shift-1", Status: db.StatusOpen}))
		return tx.InsertEvent(ctx, &db.CalloutEvent{ID: "event-2", ScheduledShiftID: "shift-2", Status: db.StatusOpen})
	})
	require.NoError(t, err)

	withTeam, err := s.GetEvent(ctx, org, "event-2")
	require.NoError(t, err)
	require.NotNil(t, withTeam.TeamName)
	assert.Equal(t, "B Platoon", *withTeam.TeamName)

	withoutSlot, err := s.GetEvent(ctx, org, "event-1")
	require.NoError(t, err)
	assert.Nil(t, withoutSlot.TeamName)
}

func TestView_ReadsOneSnapshot(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	err := s.View(ctx, func(r db.Reader) error {
		_, err := r.GetEvent(ctx, org, "event-1")
		require.ErrorIs(t, err, db.ErrNotFound)

		require.NoError(t, s.RunInTx(ctx, func(tx db.Tx) error {
			return tx.InsertEvent(ctx, &db.CalloutEvent{ID: "event-1", ScheduledShiftID: "shift-1", Status: db.StatusOpen})
		}))
		s.AddUser(db.User{ID: "user-2", OrgID: org, FirstName: "Bo", LastName: "Kim", IsActive: true})

		_, err = r.GetEvent(ctx, org, "event-1")
		assert.ErrorIs(t, err, db.ErrNotFound)
		users, err := r.ListActiveUsers(ctx, org, nil)
		require.NoError(t, err)
		assert.Len(t, users, 1)
		return nil
	})
	require.NoError(t, err)

	_, err = s.GetEvent(ctx, org, "event-1")
	assert.NoError(t, err)
}

func TestView_CancelledContext(t *testing.T) {
	s := seeded(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.View(ctx, func(db.Reader) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestInsertEvent_RejectsSecondOpenEvent(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	err := s.RunInTx(ctx, func(tx db.Tx) error {
		require.NoError(t, tx.InsertEvent(ctx, &db.CalloutEvent{ID: "event-1", ScheduledShiftID: "shift-1", Status: db.StatusOpen}))
		return tx.InsertEvent(ctx, &db.CalloutEvent{ID: "event-2", ScheduledShiftID: "shift-1", Status: db.StatusOpen})
	})
	assert.ErrorIs(t, err, db.ErrConflict)
}

func TestTransitionEvent_RequiresFromStatus(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.RunInTx(ctx, func(tx db.Tx) error {
		return tx.InsertEvent(ctx, &db.CalloutEvent{ID: "event-1", ScheduledShiftID: "shift-1", Status: db.StatusOpen})
	}))
	require.NoError(t, s.RunInTx(ctx, func(tx db.Tx) error {
		return tx.TransitionEvent(ctx, "event-1", db.StatusOpen, db.StatusCancelled, time.Now())
	}))

	err := s.RunInTx(ctx, func(tx db.Tx) error {
		return tx.TransitionEvent(ctx, "event-1", db.StatusOpen, db.StatusFilled, time.Now())
	})
	assert.ErrorIs(t, err, db.ErrConflict)
}

func TestInsertAttempt_OneAcceptedPerEvent(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	accepted := db.ResponseAccepted

	err := s.RunInTx(ctx, func(tx db.Tx) error {
		require.NoError(t, tx.InsertEvent(ctx, &db.CalloutEvent{ID: "event-1", ScheduledShiftID: "shift-1", Status: db.StatusOpen}))
		require.NoError(t, tx.InsertAttempt(ctx, &db.CalloutAttempt{ID: "a-1", EventID: "event-1", UserID: "user-1", Response: &accepted}))
		return tx.InsertAttempt(ctx, &db.CalloutAttempt{ID: "a-2", EventID: "event-1", UserID: "user-2", Response: &accepted})
	})
	assert.ErrorIs(t, err, db.ErrConflict)
}

func TestIncrementLedger_Upserts(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	class := "class-1"
	key := db.LedgerKey{UserID: "user-1", FiscalYear: 2025, ClassificationID: &class}

	require.NoError(t, s.RunInTx(ctx, func(tx db.Tx) error {
		_, err := tx.IncrementLedger(ctx, key, 12, 0, time.Now())
		return err
	}))
	require.NoError(t, s.RunInTx(ctx, func(tx db.Tx) error {
		_, err := tx.IncrementLedger(ctx, key, 8, 4, time.Now())
		return err
	}))

	entries, err := s.GetLedgerEntries(ctx, 2025, &class, []string{"user-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 20.0, entries[0].HoursWorked)
	assert.Equal(t, 4.0, entries[0].HoursDeclined)

	// the organisation-wide bucket is a distinct key
	entries, err = s.GetLedgerEntries(ctx, 2025, nil, []string{"user-1"})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOrgScoping(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	_, err := s.GetScheduledShift(ctx, "org-2", "shift-1")
	assert.ErrorIs(t, err, db.ErrNotFound)

	_, err = s.GetUser(ctx, "org-2", "user-1")
	assert.ErrorIs(t, err, db.ErrNotFound)

	users, err := s.ListActiveUsers(ctx, "org-2", nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestListLeaveCovering_InclusiveDateRange(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	s.AddLeave(db.LeaveRequest{
		ID:        "leave-1",
		UserID:    "user-1",
		StartDate: time.Date(2025, 2, 25, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:    db.LeaveApproved,
	})

	leave, err := s.ListLeaveCovering(ctx, org, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, leave, 1)

	leave, err = s.ListLeaveCovering(ctx, org, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Empty(t, leave)
}

func TestListEvents_NewestFirstWithPaging(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.RunInTx(ctx, func(tx db.Tx) error {
		for i, id := range []string{"e-1", "e-2", "e-3"} {
			err := tx.InsertEvent(ctx, &db.CalloutEvent{
				ID:               id,
				ScheduledShiftID: "shift-1",
				Status:           db.StatusCancelled,
				CreatedAt:        base.Add(time.Duration(i) * time.Hour),
			})
			if err != nil {
				return err
			}
		}
		return nil
	}))

	events, err := s.ListEvents(ctx, org, db.Page{Limit: 2})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "e-3", events[0].ID)
	assert.Equal(t, "e-2", events[1].ID)

	events, err = s.ListEvents(ctx, org, db.Page{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e-1", events[0].ID)

	events, err = s.ListEvents(ctx, org, db.Page{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestLoadFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
classifications:
  - id: class-1
    orgId: org-1
    name: Dispatcher
    abbreviation: DSP
users:
  - id: user-1
    orgId: org-1
    firstName: Ada
    lastName: Lee
    classificationId: class-1
    seniorityDate: "2010-01-01"
  - id: user-2
    orgId: org-1
    firstName: Bo
    lastName: Chen
    active: false
shifts:
  - id: shift-1
    orgId: org-1
    templateName: Night
    date: "2025-03-01"
    startsAt: "2025-03-01T19:00:00Z"
    endsAt: "2025-03-02T07:00:00Z"
leave:
  - id: leave-1
    userId: user-1
    startDate: "2025-03-01"
    endDate: "2025-03-03"
    status: pending
ledger:
  - userId: user-1
    fiscalYear: 2025
    classificationId: class-1
    hoursWorked: 12
`), 0644))

	s, err := LoadFixture(path)
	require.NoError(t, err)
	ctx := context.Background()

	users, err := s.ListActiveUsers(ctx, "org-1", nil)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "user-1", users[0].ID)
	require.NotNil(t, users[0].ClassificationAbbreviation)
	assert.Equal(t, "DSP", *users[0].ClassificationAbbreviation)
	assert.Equal(t, "employee", users[0].Role)

	shift, err := s.GetScheduledShift(ctx, "org-1", "shift-1")
	require.NoError(t, err)
	assert.Equal(t, 12.0, shift.DurationHours())
	assert.Equal(t, 1, shift.RequiredHeadcount)

	class := "class-1"
	entries, err := s.GetLedgerEntries(ctx, 2025, &class, []string{"user-1"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 12.0, entries[0].HoursWorked)
}

func TestLoadFixture_InvalidShiftWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
shifts:
  - id: shift-1
    orgId: org-1
    date: "2025-03-01"
    startsAt: "2025-03-01T19:00:00Z"
    endsAt: "2025-03-01T07:00:00Z"
`), 0644))

	_, err := LoadFixture(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "must end after it starts")
}
