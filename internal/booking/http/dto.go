package http

import (
	"github.com/partolaaa/maker-space-tools/internal/availability"
	"github.com/partolaaa/maker-space-tools/internal/booking"
)

// AvailabilityQuery defines query parameters for the availability lookup.
// Auto requests the synthetic free ladder for dates the provider has no data
// for yet.
type AvailabilityQuery struct {
	Date string `form:"date" binding:"required"`
	Auto bool   `form:"auto"`
}

type AvailabilityResponse struct {
	ResourceName string              `json:"resourceName"`
	Date         string              `json:"date"`
	Slots        []availability.Slot `json:"slots"`
}

func NewAvailabilityResponse(date string, day *availability.Day) AvailabilityResponse {
	slots := day.Slots
	if slots == nil {
		slots = []availability.Slot{}
	}
	return AvailabilityResponse{
		ResourceName: day.ResourceName,
		Date:         date,
		Slots:        slots,
	}
}

type PendingBookingsResponse struct {
	Bookings []booking.PendingBooking `json:"bookings"`
}
