package db

import "time"

// CalloutStatus is the lifecycle state of a callout event
type CalloutStatus string

const (
	StatusOpen      CalloutStatus = "open"
	StatusFilled    CalloutStatus = "filled"
	StatusCancelled CalloutStatus = "cancelled"
)

// AttemptResponse is the outcome of contacting a candidate
type AttemptResponse string

const (
	ResponseAccepted AttemptResponse = "accepted"
	ResponseDeclined AttemptResponse = "declined"
	ResponseNoAnswer AttemptResponse = "no_answer"
)

// LeaveStatus mirrors the leave subsystem's request states
type LeaveStatus string

const (
	LeavePending   LeaveStatus = "pending"
	LeaveApproved  LeaveStatus = "approved"
	LeaveDenied    LeaveStatus = "denied"
	LeaveCancelled LeaveStatus = "cancelled"
)

// User is the user directory's view of an employee
type User struct {
	ID                         string     `json:"id"`
	OrgID                      string     `json:"org_id"`
	EmployeeID                 *string    `json:"employee_id,omitempty"`
	FirstName                  string     `json:"first_name"`
	LastName                   string     `json:"last_name"`
	Role                       string     `json:"role"`
	ClassificationID           *string    `json:"classification_id,omitempty"`
	ClassificationAbbreviation *string    `json:"classification_abbreviation,omitempty"`
	SeniorityDate              *time.Time `json:"seniority_date,omitempty"`
	IsActive                   bool       `json:"is_active"`
}

// ScheduledShift is a concrete shift occurrence that needs coverage
type ScheduledShift struct {
	ID                string    `json:"id"`
	OrgID             string    `json:"org_id"`
	ShiftTemplateID   string    `json:"shift_template_id"`
	TemplateName      string    `json:"template_name"`
	Date              time.Time `json:"date"`
	StartsAt          time.Time `json:"starts_at"`
	EndsAt            time.Time `json:"ends_at"`
	RequiredHeadcount int       `json:"required_headcount"`
	SlotID            *string   `json:"slot_id,omitempty"`
}

// DurationHours returns the length of the shift in hours
func (s *ScheduledShift) DurationHours() float64 {
	return s.EndsAt.Sub(s.StartsAt).Hours()
}

// LeaveRequest is a leave record consumed as an eligibility signal
type LeaveRequest struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	StartDate time.Time   `json:"start_date"`
	EndDate   time.Time   `json:"end_date"`
	Status    LeaveStatus `json:"status"`
}

// Assignment links a scheduled shift to a user
type Assignment struct {
	ID               string    `json:"id"`
	ScheduledShiftID string    `json:"scheduled_shift_id"`
	UserID           string    `json:"user_id"`
	IsOvertime       bool      `json:"is_overtime"`
	Notes            *string   `json:"notes,omitempty"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// ShiftAssignment is an assignment together with the time window of its shift
type ShiftAssignment struct {
	Assignment
	StartsAt time.Time
	EndsAt   time.Time
}

// CalloutEvent is one solicitation for volunteers on one scheduled shift
type CalloutEvent struct {
	ID                string        `json:"id"`
	ScheduledShiftID  string        `json:"scheduled_shift_id"`
	InitiatedBy       string        `json:"initiated_by"`
	OTReasonID        *string       `json:"ot_reason_id,omitempty"`
	ReasonText        *string       `json:"reason_text,omitempty"`
	ClassificationID  *string       `json:"classification_id,omitempty"`
	Status            CalloutStatus `json:"status"`
	ShiftTemplateName *string       `json:"shift_template_name,omitempty"`
	ShiftDate         *time.Time    `json:"shift_date,omitempty"`
	TeamName          *string       `json:"team_name,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// CalloutAttempt is one contact record against a callout event.
// ListPosition and OTHoursAtContact are snapshots taken when the attempt was recorded.
type CalloutAttempt struct {
	ID               string           `json:"id"`
	EventID          string           `json:"event_id"`
	UserID           string           `json:"user_id"`
	ListPosition     int              `json:"list_position"`
	ContactedAt      *time.Time       `json:"contacted_at,omitempty"`
	Response         *AttemptResponse `json:"response,omitempty"`
	OTHoursAtContact float64          `json:"ot_hours_at_contact"`
	Notes            *string          `json:"notes,omitempty"`
}

// LedgerKey identifies one overtime accumulator row.
// A nil ClassificationID is the organisation-wide bucket.
type LedgerKey struct {
	UserID           string  `json:"user_id"`
	FiscalYear       int     `json:"fiscal_year"`
	ClassificationID *string `json:"classification_id,omitempty"`
}

// LedgerEntry is the accumulated overtime for a ledger key
type LedgerEntry struct {
	LedgerKey
	HoursWorked   float64   `json:"hours_worked"`
	HoursDeclined float64   `json:"hours_declined"`
	UpdatedAt     time.Time `json:"updated_at"`
}
