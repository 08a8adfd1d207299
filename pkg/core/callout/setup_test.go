package callout

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/pkg/db"
	"github.com/jakechorley/timeshift/pkg/memstore"
)

const (
	testOrg    = "org-1"
	otherOrg   = "org-2"
	dispatcher = "class-dsp"
	shiftID    = "shift-day"
)

var (
	fixedNow  = time.Date(2025, 2, 20, 9, 0, 0, 0, time.UTC)
	shiftDate = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	manager   = Actor{UserID: "mgr-1", OrgID: testOrg, Role: RoleSupervisor}
)

func ptr[T any](v T) *T { return &v }

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// newTestStore seeds one 12 hour day shift and a small roster
func newTestStore(t *testing.T) *memstore.Store {
	t.Helper()
	s := memstore.New()
	s.AddClassification(memstore.Classification{ID: dispatcher, OrgID: testOrg, Name: "Dispatcher", Abbreviation: "DSP"})
	s.AddOTReason(memstore.OTReason{ID: "reason-sick", OrgID: testOrg, Name: "Sick call"})
	s.AddShift(db.ScheduledShift{
		ID:                shiftID,
		OrgID:             testOrg,
		TemplateName:      "Day",
		Date:              shiftDate,
		StartsAt:          shiftDate.Add(7 * time.Hour),
		EndsAt:            shiftDate.Add(19 * time.Hour),
		RequiredHeadcount: 2,
	})
	return s
}

func addUser(s *memstore.Store, id string, seniority *time.Time) {
	s.AddUser(db.User{
		ID:               id,
		OrgID:            testOrg,
		FirstName:        id,
		LastName:         "Test",
		Role:             "employee",
		ClassificationID: ptr(dispatcher),
		SeniorityDate:    seniority,
		IsActive:         true,
	})
}

func setWorked(s *memstore.Store, userID string, classificationID *string, hours float64) {
	s.SetLedger(db.LedgerEntry{
		LedgerKey:   db.LedgerKey{UserID: userID, FiscalYear: 2025, ClassificationID: classificationID},
		HoursWorked: hours,
	})
}

func newTestService(s db.Store) *Service {
	return NewService(s, zap.NewNop(), Options{Now: func() time.Time { return fixedNow }})
}

// recorderSpy counts instrumentation calls
type recorderSpy struct {
	opened    int
	closed    map[db.CalloutStatus]int
	attempts  map[db.AttemptResponse]int
	conflicts int
	rankings  int
}

func newRecorderSpy() *recorderSpy {
	return &recorderSpy{closed: map[db.CalloutStatus]int{}, attempts: map[db.AttemptResponse]int{}}
}

func (r *recorderSpy) EventOpened() { r.opened++ }
func (r *recorderSpy) EventClosed(s db.CalloutStatus) { r.closed[s]++ }
func (r *recorderSpy) AttemptRecorded(a db.AttemptResponse) { r.attempts[a]++ }
func (r *recorderSpy) AcceptConflict() { r.conflicts++ }
func (r *recorderSpy) RankingComputed(time.Duration) { r.rankings++ }
