package slot

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/campuswell/wellness-api/internal/model"
	"github.com/campuswell/wellness-api/internal/repository"
	"github.com/campuswell/wellness-api/internal/service/event"
	apperrors "github.com/campuswell/wellness-api/pkg/errors"
)

const (
	calendarCacheKey = "calendar"
	calendarCacheTTL = 30 * time.Second
)

// Service answers availability queries and carries the admin-side
// slot management operations.
type Service struct {
	repo   repository.SlotRepository
	events *event.Service
	labels []string
	loc    *time.Location
	cache  *gocache.Cache
	logger zerolog.Logger

	// now is swapped out by tests that pin the clock
	now func() time.Time
}

func NewService(repo repository.SlotRepository, events *event.Service, labels []string, loc *time.Location, logger zerolog.Logger) *Service {
	if len(labels) == 0 {
		labels = model.DefaultTimeLabels
	}
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:   repo,
		events: events,
		labels: labels,
		loc:    loc,
		cache:  gocache.New(calendarCacheTTL, time.Minute),
		logger: logger,
		now:    time.Now,
	}
}

// Schedule returns every offered label of a date with its
// classification: booked when the owner shadow field names someone,
// available when the status field says so and nobody owns it. Labels
// whose stored state matches neither are omitted, as are dates with
// no slot document.
func (s *Service) Schedule(ctx context.Context, date string) (map[string]model.SlotStatus, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, apperrors.BadRequest("invalid date", err)
	}

	schedule, err := s.repo.GetSchedule(ctx, date)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	statuses := make(map[string]model.SlotStatus, len(schedule))
	for label, state := range schedule {
		switch {
		case state.IsBooked():
			statuses[label] = model.SlotBooked
		case state.Status == model.SlotAvailable:
			statuses[label] = model.SlotAvailable
		}
	}
	return statuses, nil
}

// BookableSlots returns the labels a requester may still book on a
// date, in chronological order. Labels whose instant has already
// passed are filtered out at read time, never persisted.
func (s *Service) BookableSlots(ctx context.Context, date string) ([]string, error) {
	statuses, err := s.Schedule(ctx, date)
	if err != nil {
		return nil, err
	}

	bookable := make([]string, 0, len(statuses))
	for _, label := range s.labels {
		if statuses[label] != model.SlotAvailable {
			continue
		}
		if s.isPast(date, label) {
			continue
		}
		bookable = append(bookable, label)
	}
	return bookable, nil
}

// Calendar derives the coarse per-date signal: open when nothing is
// booked, full when everything is, mixed otherwise. Dates strictly
// before today are excluded. The result is cached briefly since every
// app launch requests it.
func (s *Service) Calendar(ctx context.Context) (map[string]model.CalendarStatus, error) {
	if cached, ok := s.cache.Get(calendarCacheKey); ok {
		return cached.(map[string]model.CalendarStatus), nil
	}

	schedules, err := s.repo.ListSchedules(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	today := s.today()
	calendar := make(map[string]model.CalendarStatus)
	for date, schedule := range schedules {
		day, err := model.ParseDate(date)
		if err != nil || day.Before(today) {
			continue
		}

		total, booked := 0, 0
		for _, state := range schedule {
			total++
			if state.Status == model.SlotBooked {
				booked++
			}
		}
		if total == 0 {
			continue
		}

		switch {
		case booked == 0:
			calendar[date] = model.CalendarOpen
		case booked == total:
			calendar[date] = model.CalendarFull
		default:
			calendar[date] = model.CalendarMixed
		}
	}

	s.cache.SetDefault(calendarCacheKey, calendar)
	return calendar, nil
}

// AddSlots offers new labels on a date. Unknown labels are rejected;
// labels already offered or already in the past are skipped, matching
// what the admin screen allowed.
func (s *Service) AddSlots(ctx context.Context, date string, labels []string) ([]string, error) {
	if _, err := model.ParseDate(date); err != nil {
		return nil, apperrors.BadRequest("invalid date", err)
	}
	for _, label := range labels {
		if !s.knownLabel(label) {
			return nil, apperrors.BadRequest(fmt.Sprintf("unknown time slot %q", label), nil)
		}
	}

	schedule, err := s.repo.GetSchedule(ctx, date)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var toAdd []string
	for _, label := range labels {
		if _, exists := schedule[label]; exists {
			continue
		}
		if s.isPast(date, label) {
			continue
		}
		toAdd = append(toAdd, label)
	}
	if len(toAdd) == 0 {
		return nil, apperrors.BadRequest("no new slots to add", nil)
	}

	if err := s.repo.AddSlots(ctx, date, toAdd); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.cache.Delete(calendarCacheKey)
	s.events.Publish(ctx, event.TypeSlotsAdded, map[string]interface{}{
		"date":  date,
		"times": toAdd,
	})
	return toAdd, nil
}

// RemoveSlot withdraws an unbooked label from a date
func (s *Service) RemoveSlot(ctx context.Context, date, label string) error {
	if _, err := model.ParseDate(date); err != nil {
		return apperrors.BadRequest("invalid date", err)
	}

	err := s.repo.RemoveSlot(ctx, date, label)
	switch err {
	case nil:
	case repository.ErrSlotNotOffered:
		return apperrors.NotFound("slot", err)
	case repository.ErrSlotBooked:
		return apperrors.Conflict("slot is booked and cannot be removed", err)
	default:
		return apperrors.Internal(err)
	}

	s.cache.Delete(calendarCacheKey)
	s.events.Publish(ctx, event.TypeSlotRemoved, map[string]interface{}{
		"date": date,
		"time": label,
	})
	return nil
}

// InvalidateCalendar drops the cached aggregation after a mutation
// made elsewhere (bookings, cancellations).
func (s *Service) InvalidateCalendar() {
	s.cache.Delete(calendarCacheKey)
}

func (s *Service) knownLabel(label string) bool {
	for _, l := range s.labels {
		if l == label {
			return true
		}
	}
	return false
}

func (s *Service) isPast(date, label string) bool {
	at, err := model.SlotTime(date, label, s.loc)
	if err != nil {
		s.logger.Warn().Str("date", date).Str("time", label).Msg("unparseable slot label")
		return true
	}
	return at.Before(s.now())
}

func (s *Service) today() time.Time {
	y, m, d := s.now().In(s.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
