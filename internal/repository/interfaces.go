package repository

import (
	"context"
	"errors"

	"github.com/campuswell/wellness-api/internal/model"
)

var (
	// ErrSlotNotOffered means the time label was never created for the
	// date, or the whole date has no slot document.
	ErrSlotNotOffered = errors.New("slot not offered")

	// ErrSlotTaken means another requester already owns the slot
	ErrSlotTaken = errors.New("slot already booked")

	// ErrSlotBooked means a destructive slot operation targeted a
	// label that currently has a booking.
	ErrSlotBooked = errors.New("slot has an active booking")

	ErrBookingNotFound = errors.New("booking not found")
)

// SlotRepository persists day schedules and their booking detail
// records. Implementations own the document layout; callers only see
// the tagged SlotState form.
type SlotRepository interface {
	// GetSchedule returns the schedule for a date. A date with no slot
	// document yields an empty schedule, not an error.
	GetSchedule(ctx context.Context, date string) (model.DaySchedule, error)

	// ListSchedules returns every date that has a slot document
	ListSchedules(ctx context.Context) (map[string]model.DaySchedule, error)

	// AddSlots marks labels as available on a date, creating the slot
	// document if needed. Labels already present are left untouched.
	AddSlots(ctx context.Context, date string, labels []string) error

	// RemoveSlot deletes an unbooked label. The slot document itself is
	// removed once its last field is gone.
	RemoveSlot(ctx context.Context, date, label string) error

	// CreateBooking atomically claims the slot for b.Email and writes
	// the detail record. Fails with ErrSlotNotOffered or ErrSlotTaken
	// without leaving partial state.
	CreateBooking(ctx context.Context, b *model.Booking) error

	// CancelBooking atomically releases the slot back to available and
	// deletes the detail record.
	CancelBooking(ctx context.Context, date, label string) error

	GetBooking(ctx context.Context, date, label string) (*model.Booking, error)

	// UpdateBookingStatus updates the status tag (and optionally the
	// assigned doctor and notes) of an existing detail record.
	UpdateBookingStatus(ctx context.Context, date, label string, req *model.UpdateBookingStatusRequest) error

	// ListBookings returns every detail record across all dates
	ListBookings(ctx context.Context) ([]*model.Booking, error)

	// FindBookingsByOwner returns the bookings whose shadow field names
	// the given email, joined with their detail records.
	FindBookingsByOwner(ctx context.Context, email string) ([]*model.Booking, error)
}
