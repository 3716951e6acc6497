package holiday

import "time"

type HolidayType string

const (
	TypeNational     HolidayType = "national"
	TypeLocal        HolidayType = "local"
	TypeSpecialEvent HolidayType = "special_event"
)

func (t HolidayType) IsValid() bool {
	switch t {
	case TypeNational, TypeLocal, TypeSpecialEvent:
		return true
	default:
		return false
	}
}

// Holiday is a calendar day paid at the holiday multiplier. Dates are unique.
type Holiday struct {
	ID        string
	Date      time.Time
	Name      string
	Type      HolidayType
	CreatedAt time.Time
}
