// Package timeblock is the single gate for persisting work blocks. Direct
// entry and bulk import both go through Validator.
package timeblock

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/workblock"
	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
)

// Validator checks candidate blocks. It has no side effects. When built with
// a clock it also refuses dates after today in loc.
type Validator struct {
	now func() time.Time
	loc *time.Location
}

func NewValidator(now func() time.Time, loc *time.Location) *Validator {
	if loc == nil {
		loc = time.UTC
	}
	return &Validator{now: now, loc: loc}
}

// Parse checks the candidate's own fields. Every failure is reported.
func (v *Validator) Parse(c workblock.Candidate) (workblock.Accepted, []workblock.Rejection) {
	var (
		accepted   = workblock.Accepted{EmployeeID: c.EmployeeID}
		rejections []workblock.Rejection
	)

	date, dateErr := parseDate(c.Date, c.Format)
	if dateErr != nil {
		rejections = append(rejections, workblock.Rejection{
			Code:    workblock.CodeInvalidFormat,
			Field:   "date",
			Message: fmt.Sprintf("date %q must be %s", c.Date, layoutName(c.Format)),
		})
	} else {
		accepted.Date = date
		if v.now != nil && date.After(clock.Today(v.now(), v.loc)) {
			rejections = append(rejections, workblock.Rejection{
				Code:    workblock.CodeFutureDate,
				Field:   "date",
				Message: fmt.Sprintf("date %s is in the future", clock.FormatDate(date)),
			})
		}
	}

	start, startErr := clock.ParseTimeOfDay(c.StartTime)
	if startErr != nil {
		rejections = append(rejections, workblock.Rejection{
			Code:    workblock.CodeInvalidFormat,
			Field:   "start_time",
			Message: fmt.Sprintf("start time %q must be HH:MM", c.StartTime),
		})
	}
	end, endErr := clock.ParseEndOfDay(c.EndTime)
	if endErr != nil {
		rejections = append(rejections, workblock.Rejection{
			Code:    workblock.CodeInvalidFormat,
			Field:   "end_time",
			Message: fmt.Sprintf("end time %q must be HH:MM or 24:00", c.EndTime),
		})
	}
	if startErr == nil && endErr == nil {
		accepted.StartTime = start
		accepted.EndTime = end
		if start >= end {
			rejections = append(rejections, workblock.Rejection{
				Code:    workblock.CodeInvalidRange,
				Field:   "end_time",
				Message: fmt.Sprintf("start %s must be before end %s", start, end),
			})
		}
	}

	return accepted, rejections
}

// Check tests a parsed block against the blocks already present for its
// employee and day, reporting one Overlap per conflicting block.
func (v *Validator) Check(a workblock.Accepted, existing []workblock.WorkBlock) []workblock.Rejection {
	var rejections []workblock.Rejection
	for _, b := range existing {
		if b.EmployeeID != a.EmployeeID || !b.Date.Equal(a.Date) {
			continue
		}
		if workblock.Overlaps(a.StartTime, a.EndTime, b.StartTime, b.EndTime) {
			rejections = append(rejections, workblock.Rejection{
				Code:    workblock.CodeOverlap,
				Message: fmt.Sprintf("%s-%s overlaps existing block %s-%s", a.StartTime, a.EndTime, b.StartTime, b.EndTime),
			})
		}
	}
	return rejections
}

// Validate runs Parse and, unless a field failed to parse, Check. The
// result is accepted only when no rejection is returned.
func (v *Validator) Validate(c workblock.Candidate, existing []workblock.WorkBlock) (workblock.Accepted, []workblock.Rejection) {
	accepted, rejections := v.Parse(c)
	if hasCode(rejections, workblock.CodeInvalidFormat) {
		return accepted, rejections
	}
	return accepted, append(rejections, v.Check(accepted, existing)...)
}

func hasCode(rejections []workblock.Rejection, code workblock.RejectionCode) bool {
	for _, r := range rejections {
		if r.Code == code {
			return true
		}
	}
	return false
}

func parseDate(s string, format workblock.DateFormat) (time.Time, error) {
	switch format {
	case workblock.DateISO:
		return clock.ParseDate(s)
	case workblock.DateDMY:
		return clock.ParseDMY(s)
	default:
		return time.Time{}, fmt.Errorf("unknown date format %d", format)
	}
}

func layoutName(format workblock.DateFormat) string {
	if format == workblock.DateDMY {
		return "D/M/YYYY"
	}
	return "YYYY-MM-DD"
}
