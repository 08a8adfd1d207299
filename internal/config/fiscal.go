package config

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

const (
	FiscalYearLabelStart = "start"
	FiscalYearLabelEnd   = "end"
)

// fiscalAnchor is the DTSTART for fiscal-year rules; dates before it fall back to the calendar year
var fiscalAnchor = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// FiscalYearPolicy maps a shift date to the fiscal year its overtime is bucketed under
type FiscalYearPolicy struct {
	rule     *rrule.RRule
	labelEnd bool
}

// NewFiscalYearPolicy parses an RRULE whose occurrences mark the first day of each fiscal year.
// label is "start" or "end" and picks which calendar year names the fiscal year.
func NewFiscalYearPolicy(rule, label string) (*FiscalYearPolicy, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, err
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = fiscalAnchor
	}

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	switch label {
	case FiscalYearLabelStart, "":
		return &FiscalYearPolicy{rule: r}, nil
	case FiscalYearLabelEnd:
		return &FiscalYearPolicy{rule: r, labelEnd: true}, nil
	default:
		return nil, fmt.Errorf("unknown fiscal year label %q", label)
	}
}

// FiscalYear returns the fiscal year containing date
func (p *FiscalYearPolicy) FiscalYear(date time.Time) int {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	start := p.rule.Before(day, true)
	if start.IsZero() {
		return day.Year()
	}

	if p.labelEnd {
		next := p.rule.After(start, false)
		if next.IsZero() {
			return start.Year() + 1
		}
		return next.AddDate(0, 0, -1).Year()
	}
	return start.Year()
}
