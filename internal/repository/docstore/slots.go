// Package docstore implements SlotRepository on the document store
// layout used by the mobile app's backend: one document per date under
// "slots", whose fields are time labels ("09:00 AM": "available" or
// "booked") plus a shadow field per booked label ("09:00 AM_user")
// naming the owner, and one detail document per booking under the
// date's "details" subcollection with id "<time>_<date>".
package docstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/campuswell/wellness-api/internal/model"
	"github.com/campuswell/wellness-api/internal/repository"
	"github.com/campuswell/wellness-api/internal/store"
)

const (
	slotsCollection   = "slots"
	detailsCollection = "details"
	ownerSuffix       = "_user"

	fieldName        = "name"
	fieldAge         = "age"
	fieldGender      = "gender"
	fieldHealthIssue = "healthIssue"
	fieldQuestion1   = "question1"
	fieldQuestion2   = "question2"
	fieldEmail       = "email"
	fieldCreatedAt   = "createdAt"
	fieldStatus      = "status"
	fieldDoctor      = "doctor"
	fieldNotes       = "notes"
)

type slotRepository struct {
	store store.Store
}

func NewSlotRepository(s store.Store) repository.SlotRepository {
	return &slotRepository{store: s}
}

func slotPath(date string) string {
	return store.Join(slotsCollection, date)
}

func detailPath(date, label string) string {
	return store.Join(slotsCollection, date, detailsCollection, label+"_"+date)
}

func detailsPath(date string) string {
	return store.Join(slotsCollection, date, detailsCollection)
}

func (r *slotRepository) GetSchedule(ctx context.Context, date string) (model.DaySchedule, error) {
	fields, err := r.store.Get(ctx, slotPath(date))
	if store.IsNotFound(err) {
		return model.DaySchedule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule for %s: %w", date, err)
	}
	return scheduleFromFields(fields), nil
}

func (r *slotRepository) ListSchedules(ctx context.Context) (map[string]model.DaySchedule, error) {
	docs, err := r.store.List(ctx, slotsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}

	schedules := make(map[string]model.DaySchedule, len(docs))
	for _, doc := range docs {
		schedules[doc.ID] = scheduleFromFields(doc.Fields)
	}
	return schedules, nil
}

func (r *slotRepository) AddSlots(ctx context.Context, date string, labels []string) error {
	fields := make(store.Fields, len(labels))
	for _, label := range labels {
		fields[label] = string(model.SlotAvailable)
	}
	if err := r.store.Set(ctx, slotPath(date), fields, true); err != nil {
		return fmt.Errorf("failed to add slots for %s: %w", date, err)
	}
	return nil
}

func (r *slotRepository) RemoveSlot(ctx context.Context, date, label string) error {
	return r.store.WithTransaction(ctx, func(ctx context.Context) error {
		path := slotPath(date)

		fields, err := r.store.Get(ctx, path)
		if store.IsNotFound(err) {
			return repository.ErrSlotNotOffered
		}
		if err != nil {
			return fmt.Errorf("failed to get slot document %s: %w", date, err)
		}

		if ownerOf(fields, label) != "" {
			return repository.ErrSlotBooked
		}
		if _, ok := fields[label]; !ok {
			return repository.ErrSlotNotOffered
		}

		if err := r.store.DeleteField(ctx, path, label); err != nil {
			return fmt.Errorf("failed to delete slot field: %w", err)
		}
		if err := r.store.DeleteField(ctx, path, label+ownerSuffix); err != nil {
			return fmt.Errorf("failed to delete owner field: %w", err)
		}

		// Drop the document once its last field is gone.
		remaining, err := r.store.Get(ctx, path)
		if err != nil && !store.IsNotFound(err) {
			return fmt.Errorf("failed to re-read slot document %s: %w", date, err)
		}
		if len(remaining) == 0 {
			if err := r.store.Delete(ctx, path); err != nil {
				return fmt.Errorf("failed to delete empty slot document %s: %w", date, err)
			}
		}
		return nil
	})
}

func (r *slotRepository) CreateBooking(ctx context.Context, b *model.Booking) error {
	return r.store.WithTransaction(ctx, func(ctx context.Context) error {
		fields, err := r.store.Get(ctx, slotPath(b.Date))
		if store.IsNotFound(err) {
			return repository.ErrSlotNotOffered
		}
		if err != nil {
			return fmt.Errorf("failed to get slot document %s: %w", b.Date, err)
		}

		if ownerOf(fields, b.Time) != "" {
			return repository.ErrSlotTaken
		}
		status, ok := fields[b.Time].(string)
		if !ok {
			return repository.ErrSlotNotOffered
		}
		if status != string(model.SlotAvailable) {
			return repository.ErrSlotTaken
		}

		b.CreatedAt = time.Now().UTC()
		if err := r.store.Set(ctx, detailPath(b.Date, b.Time), detailFields(b), false); err != nil {
			return fmt.Errorf("failed to write detail record: %w", err)
		}

		claim := store.Fields{
			b.Time:               string(model.SlotBooked),
			b.Time + ownerSuffix: b.Email,
		}
		if err := r.store.Set(ctx, slotPath(b.Date), claim, true); err != nil {
			return fmt.Errorf("failed to claim slot: %w", err)
		}
		return nil
	})
}

func (r *slotRepository) CancelBooking(ctx context.Context, date, label string) error {
	return r.store.WithTransaction(ctx, func(ctx context.Context) error {
		// The owner field is cleared to the empty string rather than
		// removed, matching the layout the mobile clients wrote.
		release := store.Fields{
			label:               string(model.SlotAvailable),
			label + ownerSuffix: "",
		}
		if err := r.store.Set(ctx, slotPath(date), release, true); err != nil {
			return fmt.Errorf("failed to release slot: %w", err)
		}
		if err := r.store.Delete(ctx, detailPath(date, label)); err != nil {
			return fmt.Errorf("failed to delete detail record: %w", err)
		}
		return nil
	})
}

func (r *slotRepository) GetBooking(ctx context.Context, date, label string) (*model.Booking, error) {
	fields, err := r.store.Get(ctx, detailPath(date, label))
	if store.IsNotFound(err) {
		return nil, repository.ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking %s %s: %w", date, label, err)
	}
	return bookingFromFields(date, label, fields), nil
}

func (r *slotRepository) UpdateBookingStatus(ctx context.Context, date, label string, req *model.UpdateBookingStatusRequest) error {
	fields := store.Fields{fieldStatus: string(req.Status)}
	if req.Doctor != "" {
		fields[fieldDoctor] = req.Doctor
	}
	if req.Notes != "" {
		fields[fieldNotes] = req.Notes
	}

	err := r.store.Update(ctx, detailPath(date, label), fields)
	if store.IsNotFound(err) {
		return repository.ErrBookingNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	return nil
}

func (r *slotRepository) ListBookings(ctx context.Context) ([]*model.Booking, error) {
	dates, err := r.store.List(ctx, slotsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot documents: %w", err)
	}

	var bookings []*model.Booking
	for _, dateDoc := range dates {
		details, err := r.store.List(ctx, detailsPath(dateDoc.ID))
		if err != nil {
			return nil, fmt.Errorf("failed to list details for %s: %w", dateDoc.ID, err)
		}
		for _, detail := range details {
			label := strings.TrimSuffix(detail.ID, "_"+dateDoc.ID)
			bookings = append(bookings, bookingFromFields(dateDoc.ID, label, detail.Fields))
		}
	}
	return bookings, nil
}

func (r *slotRepository) FindBookingsByOwner(ctx context.Context, email string) ([]*model.Booking, error) {
	dates, err := r.store.List(ctx, slotsCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot documents: %w", err)
	}

	var bookings []*model.Booking
	for _, dateDoc := range dates {
		for key, value := range dateDoc.Fields {
			if !strings.HasSuffix(key, ownerSuffix) || value != email {
				continue
			}
			label := strings.TrimSuffix(key, ownerSuffix)

			b, err := r.GetBooking(ctx, dateDoc.ID, label)
			if err == repository.ErrBookingNotFound {
				// A claimed slot without its detail record: the weak spot
				// of the old sequential writes. Surface it as a bare
				// booked entry instead of hiding the claim.
				b = &model.Booking{
					Date:   dateDoc.ID,
					Time:   label,
					Email:  email,
					Status: model.BookingStatusBooked,
				}
			} else if err != nil {
				return nil, err
			}
			bookings = append(bookings, b)
		}
	}
	return bookings, nil
}

// ownerOf returns the non-empty owner of a label, if any
func ownerOf(fields store.Fields, label string) string {
	owner, _ := fields[label+ownerSuffix].(string)
	return owner
}

// scheduleFromFields converts the stored dual-field layout into the
// tagged SlotState form. Keys that are neither a status field nor an
// owner shadow field are dropped.
func scheduleFromFields(fields store.Fields) model.DaySchedule {
	schedule := model.DaySchedule{}
	for key, value := range fields {
		if strings.HasSuffix(key, ownerSuffix) {
			continue
		}
		status, ok := value.(string)
		if !ok {
			continue
		}
		if status != string(model.SlotAvailable) && status != string(model.SlotBooked) {
			continue
		}
		schedule[key] = model.SlotState{
			Status: model.SlotStatus(status),
			Owner:  ownerOf(fields, key),
		}
	}
	return schedule
}

func detailFields(b *model.Booking) store.Fields {
	return store.Fields{
		fieldName:        b.Name,
		fieldAge:         b.Age,
		fieldGender:      b.Gender,
		fieldHealthIssue: b.HealthIssue,
		fieldQuestion1:   b.Question1,
		fieldQuestion2:   b.Question2,
		fieldEmail:       b.Email,
		fieldCreatedAt:   b.CreatedAt,
		fieldStatus:      string(b.Status),
	}
}

func bookingFromFields(date, label string, fields store.Fields) *model.Booking {
	b := &model.Booking{
		Date:        date,
		Time:        label,
		Name:        stringField(fields, fieldName),
		Age:         intField(fields, fieldAge),
		Gender:      stringField(fields, fieldGender),
		HealthIssue: stringField(fields, fieldHealthIssue),
		Question1:   stringField(fields, fieldQuestion1),
		Question2:   stringField(fields, fieldQuestion2),
		Email:       stringField(fields, fieldEmail),
		Doctor:      stringField(fields, fieldDoctor),
		Notes:       stringField(fields, fieldNotes),
	}

	// Records written before explicit status tagging read as booked.
	status := stringField(fields, fieldStatus)
	if status == "" {
		status = string(model.BookingStatusBooked)
	}
	b.Status = model.BookingStatus(status)

	if t, ok := fields[fieldCreatedAt].(time.Time); ok {
		b.CreatedAt = t
	}
	return b
}

func stringField(fields store.Fields, key string) string {
	s, _ := fields[key].(string)
	return s
}

func intField(fields store.Fields, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
