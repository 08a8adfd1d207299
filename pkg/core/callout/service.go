// Package callout implements the overtime callout engine: eligibility, fairness
// ranking, the callout event lifecycle, attempt recording and the overtime ledger.
package callout

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/pkg/db"
)

// FiscalYearPolicy maps a date to its fiscal year. Bookings use the shift date;
// ranking uses the current date.
type FiscalYearPolicy interface {
	FiscalYear(date time.Time) int
}

// FiscalYearFunc adapts a function to FiscalYearPolicy
type FiscalYearFunc func(date time.Time) int

func (f FiscalYearFunc) FiscalYear(date time.Time) int { return f(date) }

// CalendarYear books overtime against the calendar year of the shift
var CalendarYear = FiscalYearFunc(func(date time.Time) int { return date.Year() })

// Recorder receives engine events for instrumentation
type Recorder interface {
	EventOpened()
	EventClosed(status db.CalloutStatus)
	AttemptRecorded(response db.AttemptResponse)
	AcceptConflict()
	RankingComputed(d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) EventOpened() {}
func (nopRecorder) EventClosed(db.CalloutStatus) {}
func (nopRecorder) AttemptRecorded(db.AttemptResponse) {}
func (nopRecorder) AcceptConflict() {}
func (nopRecorder) RankingComputed(time.Duration) {}

// Options configures a Service. Zero values select calendar-year booking,
// no rest period, the wall clock and no instrumentation.
type Options struct {
	FiscalYear FiscalYearPolicy
	RestPeriod time.Duration
	Now        func() time.Time
	Recorder   Recorder
}

// Service is the entry point for every callout operation
type Service struct {
	store    db.Store
	logger   *zap.Logger
	fiscal   FiscalYearPolicy
	filter   EligibilityFilter
	ledger   OvertimeLedger
	now      func() time.Time
	recorder Recorder
}

// NewService creates a callout service backed by store
func NewService(store db.Store, logger *zap.Logger, opts Options) *Service {
	s := &Service{
		store:    store,
		logger:   logger,
		fiscal:   opts.FiscalYear,
		filter:   EligibilityFilter{RestPeriod: opts.RestPeriod},
		now:      opts.Now,
		recorder: opts.Recorder,
	}
	if s.fiscal == nil {
		s.fiscal = CalendarYear
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	return s
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// ledgerKey is the ledger row an event's overtime is booked against
func (s *Service) ledgerKey(userID string, shift *db.ScheduledShift, event *db.CalloutEvent) db.LedgerKey {
	return db.LedgerKey{
		UserID:           userID,
		FiscalYear:       s.fiscal.FiscalYear(shift.Date),
		ClassificationID: event.ClassificationID,
	}
}

// rank computes the live callout list for an event from r. Candidates are
// ordered on hours worked in the fiscal year containing now, whatever the shift date.
func (s *Service) rank(ctx context.Context, r db.Reader, shift *db.ScheduledShift, event *db.CalloutEvent) ([]RankedCandidate, error) {
	started := time.Now()
	defer func() { s.recorder.RankingComputed(time.Since(started)) }()

	candidates, err := s.filter.Candidates(ctx, r, shift, event.ClassificationID)
	if err != nil {
		return nil, err
	}

	hours, err := s.ledger.WorkedHours(ctx, r, s.fiscal.FiscalYear(s.timestamp()), event.ClassificationID, userIDs(candidates))
	if err != nil {
		return nil, err
	}

	return Rank(candidates, hours), nil
}

// loadEvent reads an event and its shift, translating storage errors
func (s *Service) loadEvent(ctx context.Context, r db.Reader, orgID, eventID string) (*db.CalloutEvent, *db.ScheduledShift, error) {
	event, err := r.GetEvent(ctx, orgID, eventID)
	if err != nil {
		return nil, nil, storeError(err, "callout event not found", "failed to load callout event")
	}
	shift, err := r.GetScheduledShift(ctx, orgID, event.ScheduledShiftID)
	if err != nil {
		return nil, nil, storeError(err, "scheduled shift not found", "failed to load scheduled shift")
	}
	return event, shift, nil
}

// storeError maps db.ErrNotFound to a NotFound error and passes through
// errors already classified by this package
func storeError(err error, notFoundMsg, internalMsg string) error {
	var e *Error
	switch {
	case errors.As(err, &e):
		return err
	case errors.Is(err, db.ErrNotFound):
		return &Error{Kind: KindNotFound, Code: "not_found", Message: notFoundMsg}
	default:
		return internal(internalMsg, err)
	}
}
