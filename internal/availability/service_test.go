package availability

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/partolaaa/maker-space-tools/internal/makerspace"
	"github.com/partolaaa/maker-space-tools/internal/pkg/apperror"
	"github.com/partolaaa/maker-space-tools/internal/schedule"
)

type fakeUpstream struct {
	resp      *makerspace.AvailabilityResponse
	err       error
	calls     int
	lastStart string
}

func (f *fakeUpstream) ResourceAvailability(ctx context.Context, days int, guid, startTime string, intervalMinutes int) (*makerspace.AvailabilityResponse, error) {
	f.calls++
	f.lastStart = startTime
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

// Monday 2026-03-02; weekday window is 08:00-16:00 under the default week.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func newTestService(up *fakeUpstream) *service {
	svc := NewService(up, "guid-1", "Embroidery Machine", schedule.DefaultWeek(), 360, 30).(*service)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestDayForRejectsPastDates(t *testing.T) {
	svc := newTestService(&fakeUpstream{})
	_, err := svc.DayFor(context.Background(), testNow.AddDate(0, 0, -1), false)
	require.ErrorIs(t, err, ErrPastDate)
}

func TestDayForClosedDay(t *testing.T) {
	up := &fakeUpstream{}
	svc := newTestService(up)

	sunday := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	day, err := svc.DayFor(context.Background(), sunday, false)
	require.NoError(t, err)
	require.Empty(t, day.Slots)
	require.True(t, day.Window.IsClosed())
	require.Zero(t, up.calls, "closed day must not hit the provider")
}

func TestDayForBeyondHorizon(t *testing.T) {
	up := &fakeUpstream{}
	svc := newTestService(up)
	// 360h ahead of testNow is 2026-03-17; the 18th is past the horizon.
	farDate := time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)

	_, err := svc.DayFor(context.Background(), farDate, false)
	require.ErrorIs(t, err, ErrBeyondHorizon)
	require.Zero(t, up.calls)

	day, err := svc.DayFor(context.Background(), farDate, true)
	require.NoError(t, err)
	require.True(t, day.Synthetic)
	require.Zero(t, up.calls, "synthetic ladder must not hit the provider")
	require.Equal(t, 30, day.IntervalMinutes)
	require.Equal(t, "08:00", day.Slots[0].Time)
	last := day.Slots[len(day.Slots)-1]
	require.True(t, last.Boundary)
	require.Equal(t, "16:00", last.Time)
	for _, s := range day.Slots {
		require.False(t, IsBlocked(s), "ladder slot %s should be free", s.Time)
	}
}

func TestDayForNormalizesUpstreamData(t *testing.T) {
	up := &fakeUpstream{
		resp: &makerspace.AvailabilityResponse{
			Resource: &makerspace.Resource{Name: "Big Embroidery"},
			AvailableSlots: []makerspace.AvailableSlot{
				{DateTime: "2026-03-02T07:30:00", Available: true},
				{DateTime: "2026-03-02T08:00:00", Available: true},
				{DateTime: "2026-03-02T08:30:00", Available: false, Booked: true},
				{DateTime: "2026-03-03T09:00:00", Available: true},
			},
		},
	}
	svc := newTestService(up)

	day, err := svc.DayFor(context.Background(), testNow, false)
	require.NoError(t, err)
	require.Equal(t, "Big Embroidery", day.ResourceName)
	require.Equal(t, "2026-03-02T00:00:00", up.lastStart)

	// 07:30 is before opening, the next-day entry is dropped, and the
	// boundary is appended.
	require.Len(t, day.Slots, 3)
	require.Equal(t, "08:00", day.Slots[0].Time)
	require.Equal(t, "08:30", day.Slots[1].Time)
	require.True(t, IsBlocked(day.Index["08:30"]))
	require.True(t, day.Slots[2].Boundary)
	require.Equal(t, 30, day.IntervalMinutes)
}

func TestDayForUpstreamFailure(t *testing.T) {
	up := &fakeUpstream{err: errors.New("connection refused")}
	svc := newTestService(up)

	_, err := svc.DayFor(context.Background(), testNow, false)
	require.Error(t, err)
	require.True(t, apperror.HasStatus(err, http.StatusBadGateway))
	require.Contains(t, err.Error(), "Unable to load availability.")
}

func TestDayForUnauthorizedPassesThrough(t *testing.T) {
	up := &fakeUpstream{err: makerspace.ErrUnauthorized}
	svc := newTestService(up)

	_, err := svc.DayFor(context.Background(), testNow, false)
	require.True(t, apperror.IsUnauthorized(err))
	require.NotContains(t, err.Error(), "Unable to load")
}
