package slot

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswell/wellness-api/internal/model"
	"github.com/campuswell/wellness-api/internal/repository/docstore"
	"github.com/campuswell/wellness-api/internal/service/event"
	"github.com/campuswell/wellness-api/internal/store"
	"github.com/campuswell/wellness-api/internal/store/memory"
	apperrors "github.com/campuswell/wellness-api/pkg/errors"
)

func newTestService(t *testing.T, at time.Time) (*Service, *memory.Store) {
	t.Helper()
	s := memory.New()
	repo := docstore.NewSlotRepository(s)
	events := event.NewService(nil, "", zerolog.Nop())
	svc := NewService(repo, events, nil, time.UTC, zerolog.Nop())
	svc.now = func() time.Time { return at }
	return svc, s
}

// noon on 2025-03-10 UTC
var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestScheduleUnknownDateIsEmpty(t *testing.T) {
	svc, _ := newTestService(t, testNow)

	schedule, err := svc.Schedule(context.Background(), "2025-03-20")
	require.NoError(t, err)
	assert.Empty(t, schedule)
}

func TestScheduleRejectsBadDate(t *testing.T) {
	svc, _ := newTestService(t, testNow)

	_, err := svc.Schedule(context.Background(), "10-03-2025")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestBookableSlotsFiltersPastLabels(t *testing.T) {
	svc, s := newTestService(t, testNow)
	ctx := context.Background()

	// 09:00 AM is already behind the noon clock, 02:00 PM is ahead.
	require.NoError(t, s.Set(ctx, "slots/2025-03-10", store.Fields{
		"09:00 AM":      "available",
		"02:00 PM":      "available",
		"03:00 PM":      "booked",
		"03:00 PM_user": "alice@gmail.com",
	}, true))

	bookable, err := svc.BookableSlots(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, []string{"02:00 PM"}, bookable)
}

func TestBookableSlotsFutureDateKeepsMorning(t *testing.T) {
	svc, s := newTestService(t, testNow)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "slots/2025-03-11", store.Fields{
		"09:00 AM": "available",
	}, true))

	bookable, err := svc.BookableSlots(ctx, "2025-03-11")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00 AM"}, bookable)
}

func TestCalendarClassification(t *testing.T) {
	svc, s := newTestService(t, testNow)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "slots/2025-03-11", store.Fields{
		"09:00 AM":      "available",
		"10:00 AM":      "booked",
		"10:00 AM_user": "alice@gmail.com",
	}, true))
	require.NoError(t, s.Set(ctx, "slots/2025-03-12", store.Fields{
		"09:00 AM":      "booked",
		"09:00 AM_user": "alice@gmail.com",
	}, true))
	require.NoError(t, s.Set(ctx, "slots/2025-03-13", store.Fields{
		"09:00 AM": "available",
		"10:00 AM": "available",
	}, true))
	// Yesterday must not appear at all.
	require.NoError(t, s.Set(ctx, "slots/2025-03-09", store.Fields{
		"09:00 AM": "available",
	}, true))

	calendar, err := svc.Calendar(ctx)
	require.NoError(t, err)

	assert.Equal(t, model.CalendarMixed, calendar["2025-03-11"])
	assert.Equal(t, model.CalendarFull, calendar["2025-03-12"])
	assert.Equal(t, model.CalendarOpen, calendar["2025-03-13"])
	assert.NotContains(t, calendar, "2025-03-09")
}

func TestCalendarIsCachedUntilInvalidated(t *testing.T) {
	svc, s := newTestService(t, testNow)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "slots/2025-03-11", store.Fields{"09:00 AM": "available"}, true))

	calendar, err := svc.Calendar(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CalendarOpen, calendar["2025-03-11"])

	require.NoError(t, s.Set(ctx, "slots/2025-03-11", store.Fields{
		"09:00 AM":      "booked",
		"09:00 AM_user": "alice@gmail.com",
	}, true))

	cached, err := svc.Calendar(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CalendarOpen, cached["2025-03-11"])

	svc.InvalidateCalendar()
	fresh, err := svc.Calendar(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.CalendarFull, fresh["2025-03-11"])
}

func TestAddSlotsSkipsExistingAndPast(t *testing.T) {
	svc, s := newTestService(t, testNow)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "slots/2025-03-10", store.Fields{"02:00 PM": "available"}, true))

	added, err := svc.AddSlots(ctx, "2025-03-10", []string{"09:00 AM", "02:00 PM", "03:00 PM"})
	require.NoError(t, err)
	assert.Equal(t, []string{"03:00 PM"}, added)
}

func TestAddSlotsRejectsUnknownLabel(t *testing.T) {
	svc, _ := newTestService(t, testNow)

	_, err := svc.AddSlots(context.Background(), "2025-03-11", []string{"01:30 PM"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestAddSlotsNothingToAdd(t *testing.T) {
	svc, s := newTestService(t, testNow)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "slots/2025-03-11", store.Fields{"09:00 AM": "available"}, true))

	_, err := svc.AddSlots(ctx, "2025-03-11", []string{"09:00 AM"})
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestRemoveSlotConflictWhenBooked(t *testing.T) {
	svc, s := newTestService(t, testNow)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "slots/2025-03-11", store.Fields{
		"09:00 AM":      "booked",
		"09:00 AM_user": "alice@gmail.com",
	}, true))

	err := svc.RemoveSlot(ctx, "2025-03-11", "09:00 AM")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestRemoveSlotNotFound(t *testing.T) {
	svc, _ := newTestService(t, testNow)

	err := svc.RemoveSlot(context.Background(), "2025-03-11", "09:00 AM")
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
