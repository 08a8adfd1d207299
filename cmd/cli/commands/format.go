package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jakechorley/timeshift/pkg/core/callout"
	"github.com/jakechorley/timeshift/pkg/db"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func statusColor(status db.CalloutStatus) string {
	switch status {
	case db.StatusOpen:
		return colorYellow
	case db.StatusFilled:
		return colorGreen
	default:
		return colorDim
	}
}

func responseColor(r *db.AttemptResponse) string {
	if r == nil {
		return colorDim
	}
	switch *r {
	case db.ResponseAccepted:
		return colorGreen
	case db.ResponseDeclined:
		return colorRed
	default:
		return colorYellow
	}
}

// shiftLabel renders "Day 2025-03-01" from an event's shift decoration
func shiftLabel(e *db.CalloutEvent) string {
	var parts []string
	if e.ShiftTemplateName != nil {
		parts = append(parts, *e.ShiftTemplateName)
	}
	if e.ShiftDate != nil {
		parts = append(parts, e.ShiftDate.Format("2006-01-02"))
	}
	if len(parts) == 0 {
		return e.ScheduledShiftID
	}
	return strings.Join(parts, " ")
}

func candidateName(c *callout.RankedCandidate) string {
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if c.EmployeeID != nil {
		name += " (" + *c.EmployeeID + ")"
	}
	return name
}

func printEvent(w io.Writer, e *db.CalloutEvent) {
	fmt.Fprintf(w, "Event ID:       %s\n", e.ID)
	fmt.Fprintf(w, "Shift:          %s\n", shiftLabel(e))
	fmt.Fprintf(w, "Team:           %s\n", orDash(e.TeamName))
	fmt.Fprintf(w, "Status:         %s%s%s\n", statusColor(e.Status), e.Status, colorReset)
	fmt.Fprintf(w, "Classification: %s\n", orDash(e.ClassificationID))
	fmt.Fprintf(w, "OT Reason:      %s\n", orDash(e.OTReasonID))
	fmt.Fprintf(w, "Reason:         %s\n", orDash(e.ReasonText))
	fmt.Fprintf(w, "Initiated By:   %s\n", e.InitiatedBy)
	fmt.Fprintf(w, "Created:        %s\n", e.CreatedAt.Format("2006-01-02 15:04"))
}

func printEvents(w io.Writer, events []db.CalloutEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No callout events found.")
		return
	}
	fmt.Fprintf(w, "%-38s %-24s %-10s %s\n", "ID", "SHIFT", "STATUS", "CREATED")
	for i := range events {
		e := &events[i]
		fmt.Fprintf(w, "%-38s %-24s %s%-10s%s %s\n",
			e.ID, shiftLabel(e), statusColor(e.Status), e.Status, colorReset, e.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func printRankedList(w io.Writer, ranked []callout.RankedCandidate) {
	if len(ranked) == 0 {
		fmt.Fprintln(w, "No candidates in this classification.")
		return
	}
	fmt.Fprintf(w, "%-4s %-30s %-8s %-12s %s\n", "POS", "NAME", "OT HRS", "SENIORITY", "AVAILABILITY")
	for i := range ranked {
		c := &ranked[i]
		seniority := "-"
		if c.SeniorityDate != nil {
			seniority = c.SeniorityDate.Format("2006-01-02")
		}
		availability := colorGreen + "available" + colorReset
		if !c.IsAvailable {
			availability = colorRed + orDash(c.UnavailableReason) + colorReset
		}
		fmt.Fprintf(w, "%-4d %-30s %-8.1f %-12s %s\n", c.Position, candidateName(c), c.OTHours, seniority, availability)
	}
}

func printAttempts(w io.Writer, attempts []db.CalloutAttempt) {
	if len(attempts) == 0 {
		fmt.Fprintln(w, "No attempts recorded.")
		return
	}
	fmt.Fprintf(w, "%-4s %-38s %-10s %-8s %-17s %s\n", "POS", "USER", "RESPONSE", "OT HRS", "CONTACTED", "NOTES")
	for _, a := range attempts {
		response := "-"
		if a.Response != nil {
			response = string(*a.Response)
		}
		contacted := "-"
		if a.ContactedAt != nil {
			contacted = a.ContactedAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(w, "%-4d %-38s %s%-10s%s %-8.1f %-17s %s\n",
			a.ListPosition, a.UserID, responseColor(a.Response), response, colorReset, a.OTHoursAtContact, contacted, orDash(a.Notes))
	}
}
