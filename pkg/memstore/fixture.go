package memstore

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jakechorley/timeshift/pkg/db"
)

const dateLayout = "2006-01-02"

// Fixture is the YAML seed format for the memory driver
type Fixture struct {
	Classifications []struct {
		ID           string `yaml:"id"`
		OrgID        string `yaml:"orgId"`
		Name         string `yaml:"name"`
		Abbreviation string `yaml:"abbreviation"`
	} `yaml:"classifications"`

	OTReasons []struct {
		ID    string `yaml:"id"`
		OrgID string `yaml:"orgId"`
		Name  string `yaml:"name"`
	} `yaml:"otReasons"`

	Teams []struct {
		ID    string `yaml:"id"`
		OrgID string `yaml:"orgId"`
		Name  string `yaml:"name"`
	} `yaml:"teams"`

	Slots []struct {
		ID     string `yaml:"id"`
		TeamID string `yaml:"teamId"`
	} `yaml:"slots"`

	Users []struct {
		ID               string  `yaml:"id"`
		OrgID            string  `yaml:"orgId"`
		EmployeeID       *string `yaml:"employeeId"`
		FirstName        string  `yaml:"firstName"`
		LastName         string  `yaml:"lastName"`
		Role             string  `yaml:"role"`
		ClassificationID *string `yaml:"classificationId"`
		SeniorityDate    string  `yaml:"seniorityDate"`
		Active           *bool   `yaml:"active"`
	} `yaml:"users"`

	Shifts []struct {
		ID                string  `yaml:"id"`
		OrgID             string  `yaml:"orgId"`
		TemplateID        string  `yaml:"templateId"`
		TemplateName      string  `yaml:"templateName"`
		Date              string  `yaml:"date"`
		StartsAt          string  `yaml:"startsAt"`
		EndsAt            string  `yaml:"endsAt"`
		RequiredHeadcount int     `yaml:"requiredHeadcount"`
		SlotID            *string `yaml:"slotId"`
	} `yaml:"shifts"`

	Leave []struct {
		ID        string `yaml:"id"`
		UserID    string `yaml:"userId"`
		StartDate string `yaml:"startDate"`
		EndDate   string `yaml:"endDate"`
		Status    string `yaml:"status"`
	} `yaml:"leave"`

	Assignments []struct {
		ID         string `yaml:"id"`
		ShiftID    string `yaml:"shiftId"`
		UserID     string `yaml:"userId"`
		IsOvertime bool   `yaml:"isOvertime"`
	} `yaml:"assignments"`

	Ledger []struct {
		UserID           string  `yaml:"userId"`
		FiscalYear       int     `yaml:"fiscalYear"`
		ClassificationID *string `yaml:"classificationId"`
		HoursWorked      float64 `yaml:"hoursWorked"`
		HoursDeclined    float64 `yaml:"hoursDeclined"`
	} `yaml:"ledger"`
}

// LoadFixture reads a fixture file and returns a store seeded with it
func LoadFixture(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture file: %w", err)
	}

	s := New()
	if err := s.Seed(&f); err != nil {
		return nil, err
	}
	return s, nil
}

// Seed adds every row in the fixture to the store
func (s *Store) Seed(f *Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()

	for _, c := range f.Classifications {
		st.classifications[c.ID] = Classification{ID: c.ID, OrgID: c.OrgID, Name: c.Name, Abbreviation: c.Abbreviation}
	}
	for _, r := range f.OTReasons {
		st.otReasons[r.ID] = OTReason{ID: r.ID, OrgID: r.OrgID, Name: r.Name}
	}

	for _, t := range f.Teams {
		st.teams[t.ID] = Team{ID: t.ID, OrgID: t.OrgID, Name: t.Name}
	}
	for _, sl := range f.Slots {
		if _, ok := st.teams[sl.TeamID]; !ok {
			return fmt.Errorf("slot %s references unknown team %s", sl.ID, sl.TeamID)
		}
		st.slots[sl.ID] = Slot{ID: sl.ID, TeamID: sl.TeamID}
	}

	for _, u := range f.Users {
		user := db.User{
			ID:               u.ID,
			OrgID:            u.OrgID,
			EmployeeID:       u.EmployeeID,
			FirstName:        u.FirstName,
			LastName:         u.LastName,
			Role:             u.Role,
			ClassificationID: u.ClassificationID,
			IsActive:         u.Active == nil || *u.Active,
		}
		if user.Role == "" {
			user.Role = "employee"
		}
		if u.SeniorityDate != "" {
			d, err := time.Parse(dateLayout, u.SeniorityDate)
			if err != nil {
				return fmt.Errorf("invalid seniorityDate for user %s: %w", u.ID, err)
			}
			user.SeniorityDate = &d
		}
		st.users[u.ID] = user
	}

	for _, sh := range f.Shifts {
		date, err := time.Parse(dateLayout, sh.Date)
		if err != nil {
			return fmt.Errorf("invalid date for shift %s: %w", sh.ID, err)
		}
		startsAt, err := time.Parse(time.RFC3339, sh.StartsAt)
		if err != nil {
			return fmt.Errorf("invalid startsAt for shift %s: %w", sh.ID, err)
		}
		endsAt, err := time.Parse(time.RFC3339, sh.EndsAt)
		if err != nil {
			return fmt.Errorf("invalid endsAt for shift %s: %w", sh.ID, err)
		}
		if !endsAt.After(startsAt) {
			return fmt.Errorf("shift %s must end after it starts", sh.ID)
		}
		headcount := sh.RequiredHeadcount
		if headcount == 0 {
			headcount = 1
		}
		st.shifts[sh.ID] = db.ScheduledShift{
			ID:                sh.ID,
			OrgID:             sh.OrgID,
			ShiftTemplateID:   sh.TemplateID,
			TemplateName:      sh.TemplateName,
			Date:              date,
			StartsAt:          startsAt.UTC(),
			EndsAt:            endsAt.UTC(),
			RequiredHeadcount: headcount,
			SlotID:            sh.SlotID,
		}
	}

	for _, l := range f.Leave {
		start, err := time.Parse(dateLayout, l.StartDate)
		if err != nil {
			return fmt.Errorf("invalid startDate for leave %s: %w", l.ID, err)
		}
		end, err := time.Parse(dateLayout, l.EndDate)
		if err != nil {
			return fmt.Errorf("invalid endDate for leave %s: %w", l.ID, err)
		}
		status := db.LeaveStatus(l.Status)
		switch status {
		case db.LeavePending, db.LeaveApproved, db.LeaveDenied, db.LeaveCancelled:
		default:
			return fmt.Errorf("invalid status %q for leave %s", l.Status, l.ID)
		}
		st.leave = append(st.leave, db.LeaveRequest{ID: l.ID, UserID: l.UserID, StartDate: start, EndDate: end, Status: status})
	}

	for _, a := range f.Assignments {
		if _, ok := st.shifts[a.ShiftID]; !ok {
			return fmt.Errorf("assignment %s references unknown shift %s", a.ID, a.ShiftID)
		}
		st.assignments = append(st.assignments, db.Assignment{
			ID:               a.ID,
			ScheduledShiftID: a.ShiftID,
			UserID:           a.UserID,
			IsOvertime:       a.IsOvertime,
			CreatedBy:        "fixture",
		})
	}

	for _, e := range f.Ledger {
		key := db.LedgerKey{UserID: e.UserID, FiscalYear: e.FiscalYear, ClassificationID: e.ClassificationID}
		st.ledger[keyOf(key)] = db.LedgerEntry{LedgerKey: key, HoursWorked: e.HoursWorked, HoursDeclined: e.HoursDeclined}
	}

	s.state = st
	return nil
}
