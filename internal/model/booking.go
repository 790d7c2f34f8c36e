package model

import (
	"time"
)

// BookingStatus is the status tag on a detail record. New bookings
// start as booked; an admin moves them to confirmed or declined and
// no transition out of those states exists.
type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusDeclined  BookingStatus = "declined"
)

// Booking is the detail record of one booked (date, time) slot,
// holding the requester's health-intake answers.
type Booking struct {
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Name        string        `json:"name"`
	Age         int           `json:"age"`
	Gender      string        `json:"gender"`
	HealthIssue string        `json:"health_issue"`
	Question1   string        `json:"question1"`
	Question2   string        `json:"question2"`
	Email       string        `json:"email"`
	CreatedAt   time.Time     `json:"created_at"`
	Status      BookingStatus `json:"status"`
	Doctor      string        `json:"doctor,omitempty"`
	Notes       string        `json:"notes,omitempty"`
}

type CreateBookingRequest struct {
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required"`
	Name        string `json:"name" validate:"required,max=200"`
	Age         int    `json:"age" validate:"required,gt=0,lt=130"`
	Gender      string `json:"gender" validate:"required,oneof=Male Female"`
	HealthIssue string `json:"health_issue" validate:"required,max=1000"`
	Question1   string `json:"question1" validate:"required,oneof=yes no"`
	Question2   string `json:"question2" validate:"required,oneof=yes no"`
}

type UpdateBookingStatusRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=confirmed declined"`
	Doctor string        `json:"doctor" validate:"max=200"`
	Notes  string        `json:"notes" validate:"max=1000"`
}
