package callout

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/pkg/db"
)

// OpenRequest describes a new callout
type OpenRequest struct {
	ScheduledShiftID string
	ClassificationID *string
	OTReasonID       *string
	ReasonText       *string
}

// OpenCallout creates an open callout event for a shift.
// A shift may have only one open event at a time.
func (s *Service) OpenCallout(ctx context.Context, actor Actor, req OpenRequest) (*db.CalloutEvent, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ScheduledShiftID) == "" {
		return nil, validation("scheduled_shift_id is required")
	}
	if req.ReasonText != nil {
		trimmed := strings.TrimSpace(*req.ReasonText)
		req.ReasonText = optional(trimmed)
	}

	logger := s.logger.With(zap.String("shift_id", req.ScheduledShiftID), zap.String("actor", actor.UserID))
	logger.Debug("Opening callout")

	var event *db.CalloutEvent
	err := s.store.RunInTx(ctx, func(tx db.Tx) error {
		shift, err := tx.LockScheduledShift(ctx, actor.OrgID, req.ScheduledShiftID)
		if err != nil {
			return storeError(err, "scheduled shift not found", "failed to load scheduled shift")
		}

		if req.ClassificationID != nil {
			ok, err := tx.ClassificationExists(ctx, actor.OrgID, *req.ClassificationID)
			if err != nil {
				return internal("failed to check classification", err)
			}
			if !ok {
				return notFound("classification not found")
			}
		}
		if req.OTReasonID != nil {
			ok, err := tx.OTReasonExists(ctx, actor.OrgID, *req.OTReasonID)
			if err != nil {
				return internal("failed to check overtime reason", err)
			}
			if !ok {
				return notFound("overtime reason not found")
			}
		}

		existing, err := tx.FindOpenEvent(ctx, shift.ID)
		switch {
		case err == nil:
			logger.Warn("Shift already has an open callout", zap.String("event_id", existing.ID))
			return ErrDuplicateOpen
		case !errors.Is(err, db.ErrNotFound):
			return internal("failed to check for open callout", err)
		}

		now := s.timestamp()
		row := &db.CalloutEvent{
			ID:               uuid.New().String(),
			ScheduledShiftID: shift.ID,
			InitiatedBy:      actor.UserID,
			OTReasonID:       req.OTReasonID,
			ReasonText:       req.ReasonText,
			ClassificationID: req.ClassificationID,
			Status:           db.StatusOpen,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := tx.InsertEvent(ctx, row); err != nil {
			if errors.Is(err, db.ErrConflict) {
				logger.Warn("Lost race to open callout")
				return ErrDuplicateOpen
			}
			return internal("failed to insert callout event", err)
		}

		// Read back the event view with its shift and team columns
		event, err = tx.GetEvent(ctx, actor.OrgID, row.ID)
		if err != nil {
			return internal("failed to read new callout event", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.EventOpened()
	logger.Info("Callout opened", zap.String("event_id", event.ID))
	return event, nil
}

// ListEvents returns the organisation's callout events, newest first
func (s *Service) ListEvents(ctx context.Context, actor Actor, page db.Page) ([]db.CalloutEvent, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}
	events, err := s.store.ListEvents(ctx, actor.OrgID, page)
	if err != nil {
		return nil, internal("failed to list callout events", err)
	}
	return events, nil
}

// GetEvent returns a single callout event
func (s *Service) GetEvent(ctx context.Context, actor Actor, eventID string) (*db.CalloutEvent, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}
	event, err := s.store.GetEvent(ctx, actor.OrgID, eventID)
	if err != nil {
		return nil, storeError(err, "callout event not found", "failed to load callout event")
	}
	return event, nil
}

// CancelEvent moves an open event to cancelled. Recorded attempts are kept.
func (s *Service) CancelEvent(ctx context.Context, actor Actor, eventID string) (*db.CalloutEvent, error) {
	if err := actor.authorize(); err != nil {
		return nil, err
	}

	logger := s.logger.With(zap.String("event_id", eventID), zap.String("actor", actor.UserID))

	var event *db.CalloutEvent
	err := s.store.RunInTx(ctx, func(tx db.Tx) error {
		var err error
		event, err = tx.LockEvent(ctx, actor.OrgID, eventID)
		if err != nil {
			return storeError(err, "callout event not found", "failed to load callout event")
		}
		if event.Status != db.StatusOpen {
			return notOpen(event.Status)
		}

		now := s.timestamp()
		if err := tx.TransitionEvent(ctx, event.ID, db.StatusOpen, db.StatusCancelled, now); err != nil {
			if errors.Is(err, db.ErrConflict) {
				return conflict("event_not_open", "callout event is no longer open")
			}
			return internal("failed to cancel callout event", err)
		}
		event.Status = db.StatusCancelled
		event.UpdatedAt = now
		return nil
	})
	if err != nil {
		if IsConflict(err) {
			logger.Warn("Cancel rejected", zap.Error(err))
		}
		return nil, err
	}

	s.recorder.EventClosed(db.StatusCancelled)
	logger.Info("Callout cancelled")
	return event, nil
}

func notOpen(status db.CalloutStatus) error {
	return conflict("event_not_open", "callout event is %s", status)
}
