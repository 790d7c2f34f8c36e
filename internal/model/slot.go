package model

import (
	"fmt"
	"time"
)

// SlotStatus is the persisted status string of a time label
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
)

// Layouts for the persisted date and time-label formats
const (
	DateLayout      = "2006-01-02"
	TimeLabelLayout = "03:04 PM"
)

// DefaultTimeLabels are the bookable time labels offered by the
// wellness centre when none are configured.
var DefaultTimeLabels = []string{
	"09:00 AM", "10:00 AM", "11:00 AM", "12:00 PM",
	"02:00 PM", "03:00 PM", "04:00 PM", "05:00 PM",
}

// SlotState is the in-memory form of one time label on a date. Owner
// is the booking requester's email and is authoritative: a label is
// booked iff Owner is non-empty, regardless of the status string.
type SlotState struct {
	Status SlotStatus `json:"status"`
	Owner  string     `json:"owner,omitempty"`
}

// IsBooked reports whether the label has a booking owner
func (s SlotState) IsBooked() bool {
	return s.Owner != ""
}

// DaySchedule maps each offered time label of a date to its state
type DaySchedule map[string]SlotState

// CalendarStatus is the coarse per-date availability signal
type CalendarStatus string

const (
	CalendarOpen  CalendarStatus = "open"
	CalendarMixed CalendarStatus = "mixed"
	CalendarFull  CalendarStatus = "full"
)

// ParseDate validates a YYYY-MM-DD date string
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// SlotTime combines a date string and a time label into a concrete
// instant in the given location.
func SlotTime(date, label string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLabelLayout, date+" "+label, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid slot %q %q: %w", date, label, err)
	}
	return t, nil
}

type AddSlotsRequest struct {
	Times []string `json:"times" validate:"required,min=1,dive,required"`
}
