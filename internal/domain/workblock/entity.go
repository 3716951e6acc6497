package workblock

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

type Source string

const (
	SourceManual      Source = "manual"
	SourceImport      Source = "import"
	SourcePayrollEdit Source = "payroll_edit"
)

func (s Source) IsValid() bool {
	switch s {
	case SourceManual, SourceImport, SourcePayrollEdit:
		return true
	default:
		return false
	}
}

// WorkBlock is one continuous interval an employee worked on a calendar date.
// The interval is half-open, [StartTime, EndTime), and never crosses midnight.
type WorkBlock struct {
	ID         string
	EmployeeID string
	Date       time.Time
	StartTime  clock.TimeOfDay
	EndTime    clock.TimeOfDay
	Source     Source
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (b WorkBlock) Minutes() int64 {
	return int64(b.EndTime - b.StartTime)
}

func (b WorkBlock) Hours() decimal.Decimal {
	return MinutesToHours(b.Minutes())
}

// Overlaps uses the half-open test, so blocks that only touch do not overlap.
func (b WorkBlock) Overlaps(o WorkBlock) bool {
	return Overlaps(b.StartTime, b.EndTime, o.StartTime, o.EndTime)
}

// SameInterval reports an exact duplicate on the same employee and day.
func (b WorkBlock) SameInterval(o WorkBlock) bool {
	return b.EmployeeID == o.EmployeeID &&
		b.Date.Equal(o.Date) &&
		b.StartTime == o.StartTime &&
		b.EndTime == o.EndTime
}

func Overlaps(aStart, aEnd, bStart, bEnd clock.TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// MinutesToHours converts to decimal hours rounded to 2 dp for display.
func MinutesToHours(minutes int64) decimal.Decimal {
	return decimal.NewFromInt(minutes).Div(decimal.NewFromInt(60)).Round(2)
}

// DailyRecord groups one day's blocks for audit display.
type DailyRecord struct {
	Date    time.Time
	Blocks  []WorkBlock
	Minutes int64
}

func (d DailyRecord) Hours() decimal.Decimal {
	return MinutesToHours(d.Minutes)
}

// GroupByDay folds blocks into per-day records ordered by date, blocks
// ordered by start time within a day.
func GroupByDay(blocks []WorkBlock) []DailyRecord {
	sorted := make([]WorkBlock, len(blocks))
	copy(sorted, blocks)
	SortChronologically(sorted)

	var records []DailyRecord
	for _, b := range sorted {
		n := len(records)
		if n == 0 || !records[n-1].Date.Equal(b.Date) {
			records = append(records, DailyRecord{Date: b.Date})
			n++
		}
		records[n-1].Blocks = append(records[n-1].Blocks, b)
		records[n-1].Minutes += b.Minutes()
	}
	return records
}

func SortChronologically(blocks []WorkBlock) {
	sort.SliceStable(blocks, func(i, j int) bool {
		if !blocks[i].Date.Equal(blocks[j].Date) {
			return blocks[i].Date.Before(blocks[j].Date)
		}
		return blocks[i].StartTime < blocks[j].StartTime
	})
}

// DateFormat selects how a candidate's date string is parsed.
type DateFormat int

const (
	DateISO DateFormat = iota // YYYY-MM-DD
	DateDMY                   // D/M/YYYY, as written by the time clock export
)

// Candidate is an unparsed block submitted for validation.
type Candidate struct {
	EmployeeID string
	Date       string
	StartTime  string
	EndTime    string
	Format     DateFormat
}

// Accepted is a candidate that parsed and passed every check.
type Accepted struct {
	EmployeeID string
	Date       time.Time
	StartTime  clock.TimeOfDay
	EndTime    clock.TimeOfDay
}

func (a Accepted) Block(source Source) WorkBlock {
	return WorkBlock{
		EmployeeID: a.EmployeeID,
		Date:       a.Date,
		StartTime:  a.StartTime,
		EndTime:    a.EndTime,
		Source:     source,
	}
}
