package callout

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/pkg/db"
)

// ParseResponse validates an attempt response value
func ParseResponse(s string) (db.AttemptResponse, error) {
	switch r := db.AttemptResponse(strings.TrimSpace(s)); r {
	case db.ResponseAccepted, db.ResponseDeclined, db.ResponseNoAnswer:
		return r, nil
	}
	return "", validation("response must be one of accepted, declined, no_answer; got %q", s)
}

// AttemptRequest records the outcome of contacting one candidate
type AttemptRequest struct {
	UserID   string
	Response string
	Notes    *string
}

// AttemptResult is a recorded attempt together with its side effects
type AttemptResult struct {
	Attempt db.CalloutAttempt `json:"attempt"`
	Event   db.CalloutEvent   `json:"event"`
	// Assignment is set when the attempt was an acceptance
	Assignment *db.Assignment `json:"assignment,omitempty"`
	// Warning is set when a candidate flagged unavailable was recorded anyway
	Warning *string `json:"warning,omitempty"`
}

// RankedList computes the live callout list for an event
func (s *Service) RankedList(ctx context.Context, actor Actor, eventID string) ([]RankedCandidate, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}
	var ranked []RankedCandidate
	err := s.store.View(ctx, func(r db.Reader) error {
		event, shift, err := s.loadEvent(ctx, r, actor.OrgID, eventID)
		if err != nil {
			return err
		}
		ranked, err = s.rank(ctx, r, shift, event)
		if err != nil {
			return internal("failed to compute callout list", err)
		}
		return nil
	})
	if err != nil {
		return nil, storeError(err, "callout event not found", "failed to read callout list")
	}
	return ranked, nil
}

// NextCandidate returns the highest ranked available candidate with no recorded
// attempt, or nil when the event is not open or the list is exhausted
func (s *Service) NextCandidate(ctx context.Context, actor Actor, eventID string) (*RankedCandidate, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}
	var next *RankedCandidate
	err := s.store.View(ctx, func(r db.Reader) error {
		event, shift, err := s.loadEvent(ctx, r, actor.OrgID, eventID)
		if err != nil {
			return err
		}
		if event.Status != db.StatusOpen {
			return nil
		}

		attempts, err := r.ListAttempts(ctx, actor.OrgID, eventID)
		if err != nil {
			return storeError(err, "callout event not found", "failed to list callout attempts")
		}
		ranked, err := s.rank(ctx, r, shift, event)
		if err != nil {
			return internal("failed to compute callout list", err)
		}
		next = nextAvailable(ranked, attemptedUsers(attempts))
		return nil
	})
	if err != nil {
		return nil, storeError(err, "callout event not found", "failed to read callout list")
	}
	return next, nil
}

// RecordAttempt records a contact outcome against an open event.
//
// An acceptance runs as one transaction that locks the event, re-checks it is
// open, inserts the attempt and the overtime assignment, books the shift hours
// to the ledger and marks the event filled. When several acceptances race for
// the same event exactly one commits; the others fail with ErrAlreadyFilled.
func (s *Service) RecordAttempt(ctx context.Context, actor Actor, eventID string, req AttemptRequest) (*AttemptResult, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}
	response, err := ParseResponse(req.Response)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.UserID) == "" {
		return nil, validation("user_id is required")
	}

	logger := s.logger.With(
		zap.String("event_id", eventID),
		zap.String("user_id", req.UserID),
		zap.String("response", string(response)),
		zap.String("actor", actor.UserID))
	logger.Debug("Recording callout attempt")

	var result *AttemptResult
	err = s.store.RunInTx(ctx, func(tx db.Tx) error {
		event, err := tx.LockEvent(ctx, actor.OrgID, eventID)
		if err != nil {
			return storeError(err, "callout event not found", "failed to load callout event")
		}
		if event.Status != db.StatusOpen {
			if response == db.ResponseAccepted && event.Status == db.StatusFilled {
				return ErrAlreadyFilled
			}
			return notOpen(event.Status)
		}

		shift, err := tx.GetScheduledShift(ctx, actor.OrgID, event.ScheduledShiftID)
		if err != nil {
			return storeError(err, "scheduled shift not found", "failed to load scheduled shift")
		}

		ranked, err := s.rank(ctx, tx, shift, event)
		if err != nil {
			return internal("failed to compute callout list", err)
		}
		candidate, ok := positionOf(ranked, req.UserID)
		if !ok {
			if _, err := tx.GetUser(ctx, actor.OrgID, req.UserID); err != nil {
				return storeError(err, "user not found", "failed to load user")
			}
			return validation("user is not on the callout list for this event")
		}
		if response == db.ResponseAccepted && !candidate.IsAvailable {
			return conflict("candidate_unavailable", "candidate is no longer available: %s", *candidate.UnavailableReason)
		}

		now := s.timestamp()
		attempt := db.CalloutAttempt{
			ID:               uuid.New().String(),
			EventID:          event.ID,
			UserID:           req.UserID,
			ListPosition:     candidate.Position,
			ContactedAt:      &now,
			Response:         &response,
			OTHoursAtContact: candidate.OTHours,
			Notes:            req.Notes,
		}
		if err := tx.InsertAttempt(ctx, &attempt); err != nil {
			if errors.Is(err, db.ErrConflict) && response == db.ResponseAccepted {
				return ErrAlreadyFilled
			}
			return internal("failed to insert callout attempt", err)
		}

		result = &AttemptResult{Attempt: attempt, Event: *event}
		if !candidate.IsAvailable {
			result.Warning = candidate.UnavailableReason
		}

		key := s.ledgerKey(req.UserID, shift, event)
		if response != db.ResponseAccepted {
			_, err := s.ledger.IncrementDeclined(ctx, tx, key, shift.DurationHours(), now)
			if err != nil {
				return internal("failed to update overtime ledger", err)
			}
			return nil
		}

		assignment := &db.Assignment{
			ID:               uuid.New().String(),
			ScheduledShiftID: shift.ID,
			UserID:           req.UserID,
			IsOvertime:       true,
			Notes:            req.Notes,
			CreatedBy:        actor.UserID,
			CreatedAt:        now,
		}
		if err := tx.InsertAssignment(ctx, assignment); err != nil {
			if errors.Is(err, db.ErrConflict) {
				return conflict("candidate_unavailable", "candidate is no longer available: %s", ReasonAlreadyScheduled)
			}
			return internal("failed to create assignment", err)
		}

		if _, err := s.ledger.IncrementWorked(ctx, tx, key, shift.DurationHours(), now); err != nil {
			return internal("failed to update overtime ledger", err)
		}

		if err := tx.TransitionEvent(ctx, event.ID, db.StatusOpen, db.StatusFilled, now); err != nil {
			if errors.Is(err, db.ErrConflict) {
				return ErrAlreadyFilled
			}
			return internal("failed to mark callout event filled", err)
		}

		result.Event.Status = db.StatusFilled
		result.Event.UpdatedAt = now
		result.Assignment = assignment
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyFilled):
			s.recorder.AcceptConflict()
			logger.Warn("Acceptance lost to an earlier acceptance")
		case IsConflict(err):
			logger.Warn("Attempt rejected", zap.Error(err))
		case KindOf(err) == KindInternal:
			logger.Error("Failed to record callout attempt", zap.Error(err))
		}
		return nil, err
	}

	s.recorder.AttemptRecorded(response)
	if response == db.ResponseAccepted {
		s.recorder.EventClosed(db.StatusFilled)
		logger.Info("Callout filled",
			zap.String("assignment_id", result.Assignment.ID),
			zap.Int("list_position", result.Attempt.ListPosition))
	} else {
		logger.Debug("Callout attempt recorded", zap.Int("list_position", result.Attempt.ListPosition))
	}
	return result, nil
}

// ListAttempts returns the attempts recorded against an event in contact order
func (s *Service) ListAttempts(ctx context.Context, actor Actor, eventID string) ([]db.CalloutAttempt, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}
	attempts, err := s.store.ListAttempts(ctx, actor.OrgID, eventID)
	if err != nil {
		return nil, storeError(err, "callout event not found", "failed to list callout attempts")
	}
	return attempts, nil
}

// UpdateAttemptNotes changes the notes on a recorded attempt. An unset field leaves
// the notes untouched and a null field clears them.
func (s *Service) UpdateAttemptNotes(ctx context.Context, actor Actor, attemptID string, notes db.Field[string]) (*db.CalloutAttempt, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}

	var attempt *db.CalloutAttempt
	err := s.store.RunInTx(ctx, func(tx db.Tx) error {
		var err error
		attempt, err = tx.GetAttempt(ctx, actor.OrgID, attemptID)
		if err != nil {
			return storeError(err, "callout attempt not found", "failed to load callout attempt")
		}
		if !notes.IsSet() {
			return nil
		}
		if err := tx.SetAttemptNotes(ctx, attempt.ID, notes.Ptr()); err != nil {
			return internal("failed to update attempt notes", err)
		}
		attempt.Notes = notes.Ptr()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return attempt, nil
}

// OvertimeHours returns a user's ledger entry. A nil fiscalYear selects the
// fiscal year containing today; a nil classification selects the organisation-wide bucket.
func (s *Service) OvertimeHours(ctx context.Context, actor Actor, userID string, fiscalYear *int, classificationID *string) (*db.LedgerEntry, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, actor.OrgID, userID); err != nil {
		return nil, storeError(err, "user not found", "failed to load user")
	}

	year := s.fiscal.FiscalYear(s.timestamp())
	if fiscalYear != nil {
		year = *fiscalYear
	}
	entry, err := s.ledger.Hours(ctx, s.store, db.LedgerKey{UserID: userID, FiscalYear: year, ClassificationID: classificationID})
	if err != nil {
		return nil, internal("failed to read overtime ledger", err)
	}
	return &entry, nil
}
