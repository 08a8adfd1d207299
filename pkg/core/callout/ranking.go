package callout

import (
	"sort"
	"time"

	"github.com/jakechorley/timeshift/pkg/db"
)

// RankedCandidate is one row of a callout list
type RankedCandidate struct {
	Position                   int        `json:"position"`
	UserID                     string     `json:"user_id"`
	EmployeeID                 *string    `json:"employee_id,omitempty"`
	FirstName                  string     `json:"first_name"`
	LastName                   string     `json:"last_name"`
	ClassificationAbbreviation *string    `json:"classification_abbreviation,omitempty"`
	SeniorityDate              *time.Time `json:"seniority_date,omitempty"`
	OTHours                    float64    `json:"ot_hours"`
	IsAvailable                bool       `json:"is_available"`
	UnavailableReason          *string    `json:"unavailable_reason,omitempty"`
}

// Rank orders candidates by overtime hours worked, then seniority date
// (earliest first, unknown last), then user id. Candidates missing from
// hours have worked no overtime. Positions start at 1.
func Rank(candidates []Candidate, hours map[string]float64) []RankedCandidate {
	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, RankedCandidate{
			UserID:                     c.User.ID,
			EmployeeID:                 c.User.EmployeeID,
			FirstName:                  c.User.FirstName,
			LastName:                   c.User.LastName,
			ClassificationAbbreviation: c.User.ClassificationAbbreviation,
			SeniorityDate:              c.User.SeniorityDate,
			OTHours:                    hours[c.User.ID],
			IsAvailable:                c.IsAvailable,
			UnavailableReason:          c.UnavailableReason,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return rankedBefore(&ranked[i], &ranked[j])
	})

	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}

func rankedBefore(a, b *RankedCandidate) bool {
	if a.OTHours != b.OTHours {
		return a.OTHours < b.OTHours
	}
	switch {
	case a.SeniorityDate != nil && b.SeniorityDate != nil:
		if !a.SeniorityDate.Equal(*b.SeniorityDate) {
			return a.SeniorityDate.Before(*b.SeniorityDate)
		}
	case a.SeniorityDate != nil:
		return true
	case b.SeniorityDate != nil:
		return false
	}
	return a.UserID < b.UserID
}

// positionOf finds a user in a ranked list
func positionOf(ranked []RankedCandidate, userID string) (RankedCandidate, bool) {
	for _, r := range ranked {
		if r.UserID == userID {
			return r, true
		}
	}
	return RankedCandidate{}, false
}

// nextAvailable returns the first available candidate not in contacted
func nextAvailable(ranked []RankedCandidate, contacted map[string]bool) *RankedCandidate {
	for i := range ranked {
		if ranked[i].IsAvailable && !contacted[ranked[i].UserID] {
			c := ranked[i]
			return &c
		}
	}
	return nil
}

func userIDs(candidates []Candidate) []string {
	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.User.ID
	}
	return ids
}

// attemptedUsers returns the users that already have a recorded attempt
func attemptedUsers(attempts []db.CalloutAttempt) map[string]bool {
	seen := make(map[string]bool, len(attempts))
	for _, a := range attempts {
		seen[a.UserID] = true
	}
	return seen
}
