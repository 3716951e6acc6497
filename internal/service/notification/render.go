package notification

import (
	"fmt"
	"time"

	"github.com/cmlabs-hris/cafeteria-payroll/internal/domain/notification"
)

// render turns a domain event into the notification shown to its employee.
func render(event notification.Event) (notification.CreateNotificationRequest, error) {
	req := notification.CreateNotificationRequest{
		RecipientID: event.EmployeeID,
		Data:        event.Data,
	}
	d := event.Data

	switch event.Name {
	case notification.EventPayrollValidated:
		req.Type = notification.TypePayrollValidated
		req.Title = "Payroll validated"
		req.Message = fmt.Sprintf("Your payroll for %s has been validated. Gross salary: %v.", periodLabel(d["year"], d["month"]), d["gross_salary"])
	case notification.EventShiftCreatedOnPublishedSchedule:
		req.Type = notification.TypeShiftAssigned
		req.Title = "New shift assigned"
		req.Message = fmt.Sprintf("You have a new shift on %v from %v to %v (%v).", d["date"], d["start_time"], d["end_time"], d["schedule_name"])
	case notification.EventSchedulePublished:
		req.Type = notification.TypeSchedulePublished
		req.Title = "Schedule published"
		req.Message = fmt.Sprintf("Schedule %v (%v to %v) is published with %v shift(s) for you.", d["schedule_name"], d["start_date"], d["end_date"], d["shift_count"])
	case notification.EventAbsenceApproved:
		req.Type = notification.TypeAbsenceApproved
		req.Title = "Absence approved"
		req.Message = fmt.Sprintf("Your absence from %v to %v was approved.", d["start_date"], d["end_date"])
	case notification.EventAbsenceRejected:
		req.Type = notification.TypeAbsenceRejected
		req.Title = "Absence rejected"
		req.Message = fmt.Sprintf("Your absence from %v to %v was rejected.", d["start_date"], d["end_date"])
	default:
		return req, fmt.Errorf("%w: %s", notification.ErrUnknownEvent, event.Name)
	}

	if notes, ok := d["review_notes"].(string); ok && notes != "" {
		req.Message += " Notes: " + notes
	}
	return req, nil
}

func periodLabel(year, month interface{}) string {
	y, yok := year.(int)
	m, mok := month.(int)
	if !yok || !mok || m < 1 || m > 12 {
		return fmt.Sprintf("%v-%v", year, month)
	}
	return fmt.Sprintf("%s %d", time.Month(m), y)
}
