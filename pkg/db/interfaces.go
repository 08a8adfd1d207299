package db

import (
	"context"
	"time"
)

// Reader defines the read operations shared by the store and open transactions.
// Every lookup is scoped to an organisation; rows belonging to another
// organisation are reported as ErrNotFound.
type Reader interface {
	GetScheduledShift(ctx context.Context, orgID, shiftID string) (*ScheduledShift, error)
	GetUser(ctx context.Context, orgID, userID string) (*User, error)
	ListActiveUsers(ctx context.Context, orgID string, classificationID *string) ([]User, error)
	ClassificationExists(ctx context.Context, orgID, classificationID string) (bool, error)
	OTReasonExists(ctx context.Context, orgID, reasonID string) (bool, error)

	// ListLeaveCovering returns leave requests of any status whose date range includes date
	ListLeaveCovering(ctx context.Context, orgID string, date time.Time) ([]LeaveRequest, error)

	// ListAssignmentsOverlapping returns assignments whose shift window intersects [from, to)
	ListAssignmentsOverlapping(ctx context.Context, orgID string, from, to time.Time) ([]ShiftAssignment, error)

	GetLedgerEntries(ctx context.Context, fiscalYear int, classificationID *string, userIDs []string) ([]LedgerEntry, error)

	GetEvent(ctx context.Context, orgID, eventID string) (*CalloutEvent, error)
	ListEvents(ctx context.Context, orgID string, page Page) ([]CalloutEvent, error)
	ListAttempts(ctx context.Context, orgID, eventID string) ([]CalloutAttempt, error)
	GetAttempt(ctx context.Context, orgID, attemptID string) (*CalloutAttempt, error)
}

// Tx is a unit of work. Writes made through a Tx become visible to other
// readers only if the function passed to Store.RunInTx returns nil.
type Tx interface {
	Reader

	// LockScheduledShift reads the shift and holds a write lock on it until the transaction ends
	LockScheduledShift(ctx context.Context, orgID, shiftID string) (*ScheduledShift, error)

	// LockEvent reads the latest committed event row and holds a write lock on it
	LockEvent(ctx context.Context, orgID, eventID string) (*CalloutEvent, error)

	FindOpenEvent(ctx context.Context, shiftID string) (*CalloutEvent, error)
	InsertEvent(ctx context.Context, event *CalloutEvent) error

	// TransitionEvent moves an event from one status to another.
	// Returns ErrConflict if the event is not currently in the from status.
	TransitionEvent(ctx context.Context, eventID string, from, to CalloutStatus, at time.Time) error

	InsertAttempt(ctx context.Context, attempt *CalloutAttempt) error
	SetAttemptNotes(ctx context.Context, attemptID string, notes *string) error
	InsertAssignment(ctx context.Context, assignment *Assignment) error

	// IncrementLedger adds the deltas to the key's row, creating it if absent
	IncrementLedger(ctx context.Context, key LedgerKey, workedDelta, declinedDelta float64, at time.Time) (*LedgerEntry, error)
}

// Store defines the interface for all callout database operations.
// Both postgres.DB and memstore.Store implement this interface.
type Store interface {
	Reader

	// RunInTx runs fn inside a single transaction, committing only if fn returns nil
	RunInTx(ctx context.Context, fn func(tx Tx) error) error

	// View runs fn against one consistent snapshot of committed data
	View(ctx context.Context, fn func(r Reader) error) error
}
