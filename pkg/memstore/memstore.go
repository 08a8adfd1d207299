// Package memstore is an in-process db.Store used by tests and the memory driver.
//
// Committed state is never mutated in place. A transaction works on a private
// copy of the state and the copy replaces the committed state only when the
// transaction function succeeds, so a failed transaction leaves no trace.
// Transactions are serialised by a single writer lock.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jakechorley/timeshift/pkg/db"
)

// Classification is a job category row
type Classification struct {
	ID           string
	OrgID        string
	Name         string
	Abbreviation string
}

// OTReason is an overtime reason row
type OTReason struct {
	ID    string
	OrgID string
	Name  string
}

// Team names a group of employees that shift slots belong to
type Team struct {
	ID    string
	OrgID string
	Name  string
}

// Slot is a recurring shift slot owned by a team
type Slot struct {
	ID     string
	TeamID string
}

type ledgerID struct {
	userID         string
	fiscalYear     int
	classification string
	org            bool
}

func keyOf(k db.LedgerKey) ledgerID {
	if k.ClassificationID == nil {
		return ledgerID{userID: k.UserID, fiscalYear: k.FiscalYear, org: true}
	}
	return ledgerID{userID: k.UserID, fiscalYear: k.FiscalYear, classification: *k.ClassificationID}
}

type state struct {
	classifications map[string]Classification
	otReasons       map[string]OTReason
	teams           map[string]Team
	slots           map[string]Slot
	users           map[string]db.User
	shifts          map[string]db.ScheduledShift
	leave           []db.LeaveRequest
	assignments     []db.Assignment
	events          map[string]db.CalloutEvent
	attempts        []db.CalloutAttempt
	ledger          map[ledgerID]db.LedgerEntry
}

func newState() *state {
	return &state{
		classifications: make(map[string]Classification),
		otReasons:       make(map[string]OTReason),
		teams:           make(map[string]Team),
		slots:           make(map[string]Slot),
		users:           make(map[string]db.User),
		shifts:          make(map[string]db.ScheduledShift),
		events:          make(map[string]db.CalloutEvent),
		ledger:          make(map[ledgerID]db.LedgerEntry),
	}
}

func (st *state) clone() *state {
	c := &state{
		classifications: make(map[string]Classification, len(st.classifications)),
		otReasons:       make(map[string]OTReason, len(st.otReasons)),
		teams:           make(map[string]Team, len(st.teams)),
		slots:           make(map[string]Slot, len(st.slots)),
		users:           make(map[string]db.User, len(st.users)),
		shifts:          make(map[string]db.ScheduledShift, len(st.shifts)),
		leave:           slices.Clone(st.leave),
		assignments:     slices.Clone(st.assignments),
		events:          make(map[string]db.CalloutEvent, len(st.events)),
		attempts:        slices.Clone(st.attempts),
		ledger:          make(map[ledgerID]db.LedgerEntry, len(st.ledger)),
	}
	for k, v := range st.classifications {
		c.classifications[k] = v
	}
	for k, v := range st.otReasons {
		c.otReasons[k] = v
	}
	for k, v := range st.teams {
		c.teams[k] = v
	}
	for k, v := range st.slots {
		c.slots[k] = v
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.shifts {
		c.shifts[k] = v
	}
	for k, v := range st.events {
		c.events[k] = v
	}
	for k, v := range st.ledger {
		c.ledger[k] = v
	}
	return c
}

// Store is a db.Store held entirely in memory
type Store struct {
	mu    sync.RWMutex
	state *state
}

var _ db.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{state: newState()}
}

func (s *Store) current() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RunInTx runs fn against a private copy of the state and commits it if fn returns nil
func (s *Store) RunInTx(ctx context.Context, fn func(tx db.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.state.clone()
	if err := fn(&tx{reader{state: working}}); err != nil {
		return err
	}

	s.state = working
	return nil
}

// View runs fn against the state committed when View was called. Transactions
// committing while fn runs are not visible to it.
func (s *Store) View(ctx context.Context, fn func(r db.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(reader{state: s.current()})
}

func (s *Store) mutate(fn func(st *state)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	working := s.state.clone()
	fn(working)
	s.state = working
}

// AddClassification seeds a classification
func (s *Store) AddClassification(c Classification) {
	s.mutate(func(st *state) { st.classifications[c.ID] = c })
}

// AddOTReason seeds an overtime reason
func (s *Store) AddOTReason(r OTReason) {
	s.mutate(func(st *state) { st.otReasons[r.ID] = r })
}

// AddTeam seeds a team
func (s *Store) AddTeam(t Team) {
	s.mutate(func(st *state) { st.teams[t.ID] = t })
}

// AddSlot seeds a shift slot
func (s *Store) AddSlot(sl Slot) {
	s.mutate(func(st *state) { st.slots[sl.ID] = sl })
}

// AddUser seeds a user
func (s *Store) AddUser(u db.User) {
	s.mutate(func(st *state) { st.users[u.ID] = u })
}

// AddShift seeds a scheduled shift
func (s *Store) AddShift(sh db.ScheduledShift) {
	s.mutate(func(st *state) { st.shifts[sh.ID] = sh })
}

// AddLeave seeds a leave request
func (s *Store) AddLeave(l db.LeaveRequest) {
	s.mutate(func(st *state) { st.leave = append(st.leave, l) })
}

// AddAssignment seeds an assignment outside of the callout flow
func (s *Store) AddAssignment(a db.Assignment) {
	s.mutate(func(st *state) { st.assignments = append(st.assignments, a) })
}

// SetLedger seeds a ledger row, replacing any existing row for the key
func (s *Store) SetLedger(e db.LedgerEntry) {
	s.mutate(func(st *state) { st.ledger[keyOf(e.LedgerKey)] = e })
}

// Assignments returns every committed assignment for a shift
func (s *Store) Assignments(shiftID string) []db.Assignment {
	var out []db.Assignment
	for _, a := range s.current().assignments {
		if a.ScheduledShiftID == shiftID {
			out = append(out, a)
		}
	}
	return out
}

// LedgerEntries returns every committed ledger row
func (s *Store) LedgerEntries() []db.LedgerEntry {
	st := s.current()
	out := make([]db.LedgerEntry, 0, len(st.ledger))
	for _, e := range st.ledger {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		return out[i].FiscalYear < out[j].FiscalYear
	})
	return out
}

func (s *Store) GetScheduledShift(ctx context.Context, orgID, shiftID string) (*db.ScheduledShift, error) {
	return s.current().getScheduledShift(orgID, shiftID)
}

func (s *Store) GetUser(ctx context.Context, orgID, userID string) (*db.User, error) {
	return s.current().getUser(orgID, userID)
}

func (s *Store) ListActiveUsers(ctx context.Context, orgID string, classificationID *string) ([]db.User, error) {
	return s.current().listActiveUsers(orgID, classificationID), nil
}

func (s *Store) ClassificationExists(ctx context.Context, orgID, classificationID string) (bool, error) {
	return s.current().classificationExists(orgID, classificationID), nil
}

func (s *Store) OTReasonExists(ctx context.Context, orgID, reasonID string) (bool, error) {
	return s.current().otReasonExists(orgID, reasonID), nil
}

func (s *Store) ListLeaveCovering(ctx context.Context, orgID string, date time.Time) ([]db.LeaveRequest, error) {
	return s.current().listLeaveCovering(orgID, date), nil
}

func (s *Store) ListAssignmentsOverlapping(ctx context.Context, orgID string, from, to time.Time) ([]db.ShiftAssignment, error) {
	return s.current().listAssignmentsOverlapping(orgID, from, to), nil
}

func (s *Store) GetLedgerEntries(ctx context.Context, fiscalYear int, classificationID *string, userIDs []string) ([]db.LedgerEntry, error) {
	return s.current().getLedgerEntries(fiscalYear, classificationID, userIDs), nil
}

func (s *Store) GetEvent(ctx context.Context, orgID, eventID string) (*db.CalloutEvent, error) {
	return s.current().getEvent(orgID, eventID)
}

func (s *Store) ListEvents(ctx context.Context, orgID string, page db.Page) ([]db.CalloutEvent, error) {
	return s.current().listEvents(orgID, page), nil
}

func (s *Store) ListAttempts(ctx context.Context, orgID, eventID string) ([]db.CalloutAttempt, error) {
	return s.current().listAttempts(orgID, eventID)
}

func (s *Store) GetAttempt(ctx context.Context, orgID, attemptID string) (*db.CalloutAttempt, error) {
	return s.current().getAttempt(orgID, attemptID)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (st *state) getScheduledShift(orgID, shiftID string) (*db.ScheduledShift, error) {
	sh, ok := st.shifts[shiftID]
	if !ok || sh.OrgID != orgID {
		return nil, fmt.Errorf("scheduled shift %s: %w", shiftID, db.ErrNotFound)
	}
	return &sh, nil
}

func (st *state) withAbbreviation(u db.User) db.User {
	if u.ClassificationID != nil {
		if c, ok := st.classifications[*u.ClassificationID]; ok {
			abbr := c.Abbreviation
			u.ClassificationAbbreviation = &abbr
		}
	}
	return u
}

func (st *state) getUser(orgID, userID string) (*db.User, error) {
	u, ok := st.users[userID]
	if !ok || u.OrgID != orgID {
		return nil, fmt.Errorf("user %s: %w", userID, db.ErrNotFound)
	}
	u = st.withAbbreviation(u)
	return &u, nil
}

func (st *state) listActiveUsers(orgID string, classificationID *string) []db.User {
	var out []db.User
	for _, u := range st.users {
		if u.OrgID != orgID || !u.IsActive {
			continue
		}
		if classificationID != nil && (u.ClassificationID == nil || *u.ClassificationID != *classificationID) {
			continue
		}
		out = append(out, st.withAbbreviation(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (st *state) classificationExists(orgID, id string) bool {
	c, ok := st.classifications[id]
	return ok && c.OrgID == orgID
}

func (st *state) otReasonExists(orgID, id string) bool {
	r, ok := st.otReasons[id]
	return ok && r.OrgID == orgID
}

func (st *state) listLeaveCovering(orgID string, date time.Time) []db.LeaveRequest {
	day := dateOnly(date)
	var out []db.LeaveRequest
	for _, l := range st.leave {
		u, ok := st.users[l.UserID]
		if !ok || u.OrgID != orgID {
			continue
		}
		if dateOnly(l.StartDate).After(day) || dateOnly(l.EndDate).Before(day) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (st *state) listAssignmentsOverlapping(orgID string, from, to time.Time) []db.ShiftAssignment {
	var out []db.ShiftAssignment
	for _, a := range st.assignments {
		sh, ok := st.shifts[a.ScheduledShiftID]
		if !ok || sh.OrgID != orgID {
			continue
		}
		if sh.StartsAt.Before(to) && sh.EndsAt.After(from) {
			out = append(out, db.ShiftAssignment{Assignment: a, StartsAt: sh.StartsAt, EndsAt: sh.EndsAt})
		}
	}
	return out
}

func (st *state) getLedgerEntries(fiscalYear int, classificationID *string, userIDs []string) []db.LedgerEntry {
	var out []db.LedgerEntry
	for _, id := range userIDs {
		key := db.LedgerKey{UserID: id, FiscalYear: fiscalYear, ClassificationID: classificationID}
		if e, ok := st.ledger[keyOf(key)]; ok {
			out = append(out, e)
		}
	}
	return out
}

// decorate fills the shift columns that the SQL store reads through a join
func (st *state) decorate(e db.CalloutEvent) db.CalloutEvent {
	if sh, ok := st.shifts[e.ScheduledShiftID]; ok {
		name := sh.TemplateName
		date := sh.Date
		e.ShiftTemplateName = &name
		e.ShiftDate = &date
		if sh.SlotID != nil {
			if team, ok := st.teams[st.slots[*sh.SlotID].TeamID]; ok {
				teamName := team.Name
				e.TeamName = &teamName
			}
		}
	}
	return e
}

func (st *state) eventOrg(e db.CalloutEvent) string {
	return st.shifts[e.ScheduledShiftID].OrgID
}

func (st *state) getEvent(orgID, eventID string) (*db.CalloutEvent, error) {
	e, ok := st.events[eventID]
	if !ok || st.eventOrg(e) != orgID {
		return nil, fmt.Errorf("callout event %s: %w", eventID, db.ErrNotFound)
	}
	e = st.decorate(e)
	return &e, nil
}

func (st *state) listEvents(orgID string, page db.Page) []db.CalloutEvent {
	var all []db.CalloutEvent
	for _, e := range st.events {
		if st.eventOrg(e) == orgID {
			all = append(all, st.decorate(e))
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].ID > all[j].ID
	})
	if page.Offset >= len(all) {
		return []db.CalloutEvent{}
	}
	end := min(page.Offset+page.Limit, len(all))
	return all[page.Offset:end]
}

func (st *state) listAttempts(orgID, eventID string) ([]db.CalloutAttempt, error) {
	if _, err := st.getEvent(orgID, eventID); err != nil {
		return nil, err
	}
	out := []db.CalloutAttempt{}
	for _, a := range st.attempts {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := out[i].ContactedAt, out[j].ContactedAt
		switch {
		case ci == nil && cj == nil:
			return out[i].ListPosition < out[j].ListPosition
		case ci == nil:
			return false
		case cj == nil:
			return true
		default:
			return ci.Before(*cj)
		}
	})
	return out, nil
}

func (st *state) getAttempt(orgID, attemptID string) (*db.CalloutAttempt, error) {
	for _, a := range st.attempts {
		if a.ID != attemptID {
			continue
		}
		if e, ok := st.events[a.EventID]; ok && st.eventOrg(e) == orgID {
			return &a, nil
		}
		break
	}
	return nil, fmt.Errorf("callout attempt %s: %w", attemptID, db.ErrNotFound)
}
