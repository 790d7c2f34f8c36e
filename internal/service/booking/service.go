package booking

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/campuswell/wellness-api/internal/model"
	"github.com/campuswell/wellness-api/internal/repository"
	"github.com/campuswell/wellness-api/internal/service/event"
	apperrors "github.com/campuswell/wellness-api/pkg/errors"
	"github.com/campuswell/wellness-api/pkg/validator"
)

// Identity is the authenticated caller of a booking operation. It is
// passed explicitly into every call; the service holds no ambient
// notion of a current user.
type Identity struct {
	Email string
	Admin bool
}

type Service struct {
	repo       repository.SlotRepository
	events     *event.Service
	validate   *validator.Validator
	loc        *time.Location
	logger     zerolog.Logger
	onMutation func()

	now func() time.Time
}

// NewService creates the booking service. onMutation, if non-nil, is
// invoked after every successful write so read-side caches can drop
// stale aggregates.
func NewService(repo repository.SlotRepository, events *event.Service, loc *time.Location, logger zerolog.Logger, onMutation func()) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:       repo,
		events:     events,
		validate:   validator.New(),
		loc:        loc,
		logger:     logger,
		onMutation: onMutation,
		now:        time.Now,
	}
}

// Book reserves the requested slot for the caller and persists the
// intake answers. Validation happens before any write; the claim and
// the detail record are written in one store transaction, so a lost
// race surfaces as a conflict instead of a silent overwrite.
func (s *Service) Book(ctx context.Context, id Identity, req *model.CreateBookingRequest) (*model.Booking, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	at, err := model.SlotTime(req.Date, req.Time, s.loc)
	if err != nil {
		return nil, apperrors.BadRequest("invalid time slot", err)
	}
	if at.Before(s.now()) {
		return nil, apperrors.BadRequest("cannot book a past time slot", nil)
	}

	b := &model.Booking{
		Date:        req.Date,
		Time:        req.Time,
		Name:        req.Name,
		Age:         req.Age,
		Gender:      req.Gender,
		HealthIssue: req.HealthIssue,
		Question1:   req.Question1,
		Question2:   req.Question2,
		Email:       id.Email,
		Status:      model.BookingStatusBooked,
	}

	err = s.repo.CreateBooking(ctx, b)
	switch err {
	case nil:
	case repository.ErrSlotNotOffered:
		return nil, apperrors.NotFound("slot", err)
	case repository.ErrSlotTaken:
		return nil, apperrors.Conflict("slot is no longer available", err)
	default:
		return nil, apperrors.Internal(err)
	}

	s.mutated()
	s.events.Publish(ctx, event.TypeBookingCreated, b)
	s.logger.Info().Str("date", b.Date).Str("time", b.Time).Str("email", b.Email).Msg("slot booked")
	return b, nil
}

// Cancel releases a booked slot back to availability and discards the
// detail record. Only the booking owner or an admin may cancel; no
// history of the booking is kept.
func (s *Service) Cancel(ctx context.Context, id Identity, date, label string) error {
	schedule, err := s.repo.GetSchedule(ctx, date)
	if err != nil {
		return apperrors.Internal(err)
	}

	state, ok := schedule[label]
	if !ok || !state.IsBooked() {
		return apperrors.NotFound("booking", nil)
	}
	if state.Owner != id.Email && !id.Admin {
		return apperrors.Forbidden("not the owner of this booking", nil)
	}

	if err := s.repo.CancelBooking(ctx, date, label); err != nil {
		return apperrors.Internal(err)
	}

	s.mutated()
	s.events.Publish(ctx, event.TypeBookingCancelled, map[string]interface{}{
		"date":  date,
		"time":  label,
		"email": state.Owner,
	})
	s.logger.Info().Str("date", date).Str("time", label).Msg("booking cancelled")
	return nil
}

// UpdateStatus moves a detail record to confirmed or declined. The
// slot document is deliberately left untouched: declining does not
// release the time back to availability.
func (s *Service) UpdateStatus(ctx context.Context, date, label string, req *model.UpdateBookingStatusRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return apperrors.BadRequest(err.Error(), err)
	}

	err := s.repo.UpdateBookingStatus(ctx, date, label, req)
	switch err {
	case nil:
	case repository.ErrBookingNotFound:
		return apperrors.NotFound("booking", err)
	default:
		return apperrors.Internal(err)
	}

	s.events.Publish(ctx, event.TypeBookingStatus, map[string]interface{}{
		"date":   date,
		"time":   label,
		"status": req.Status,
	})
	return nil
}

// Get returns one booking's detail record. Requesters may only read
// their own bookings; admins may read any.
func (s *Service) Get(ctx context.Context, id Identity, date, label string) (*model.Booking, error) {
	b, err := s.repo.GetBooking(ctx, date, label)
	if err == repository.ErrBookingNotFound {
		return nil, apperrors.NotFound("booking", err)
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if b.Email != id.Email && !id.Admin {
		return nil, apperrors.Forbidden("not the owner of this booking", nil)
	}
	return b, nil
}

// History lists the caller's bookings, soonest first
func (s *Service) History(ctx context.Context, id Identity) ([]*model.Booking, error) {
	bookings, err := s.repo.FindBookingsByOwner(ctx, id.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Date != bookings[j].Date {
			return bookings[i].Date < bookings[j].Date
		}
		return s.labelBefore(bookings[i], bookings[j])
	})
	return bookings, nil
}

// ListAll returns every detail record for the admin dashboard, most
// recently created first.
func (s *Service) ListAll(ctx context.Context) ([]*model.Booking, error) {
	bookings, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
	return bookings, nil
}

func (s *Service) mutated() {
	if s.onMutation != nil {
		s.onMutation()
	}
}

func (s *Service) labelBefore(a, b *model.Booking) bool {
	at, errA := model.SlotTime(a.Date, a.Time, s.loc)
	bt, errB := model.SlotTime(b.Date, b.Time, s.loc)
	if errA != nil || errB != nil {
		return a.Time < b.Time
	}
	return at.Before(bt)
}
