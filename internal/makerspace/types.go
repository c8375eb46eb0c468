package makerspace

// Wire types for the maker-space provider API. Field names follow the
// provider's PascalCase JSON. Provider timestamps are zone-less
// "2006-01-02T15:04:05" strings and are kept as strings on the wire.

// LocalDateTimeLayout is the provider's zone-less timestamp format.
const LocalDateTimeLayout = "2006-01-02T15:04:05"

// Credentials are the provider login details.
type Credentials struct {
	Username string
	Password string
	TOTP     string
	ClientID string
}

// TokenResponse is the provider's token endpoint response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Resource is the resource metadata in an availability response.
type Resource struct {
	ID   int64  `json:"Id"`
	Name string `json:"Name"`
}

// AvailableSlot is a single bookable time point reported by the provider.
type AvailableSlot struct {
	DateTime  string `json:"DateTime"`
	Available bool   `json:"Available"`
	Booked    bool   `json:"Booked"`
}

// AvailabilityResponse is the availability query response.
type AvailabilityResponse struct {
	Resource       *Resource       `json:"Resource"`
	AvailableSlots []AvailableSlot `json:"AvailableSlots"`
}

// BasketBooking is the booking payload inside a basket item.
type BasketBooking struct {
	UniqueID   string `json:"UniqueId"`
	FromTime   string `json:"FromTime"`
	ToTime     string `json:"ToTime"`
	ResourceID int64  `json:"ResourceId"`
	CoworkerID int64  `json:"CoworkerId"`
}

// BasketItem wraps a booking for the basket endpoints.
type BasketItem struct {
	Type    string        `json:"Type"`
	Booking BasketBooking `json:"Booking"`
}

// BasketRequest is the invoice-creation payload.
type BasketRequest struct {
	Basket       []BasketItem `json:"basket"`
	DiscountCode *string      `json:"discountCode"`
}

// NewBasketRequest wraps a single booking into a basket request.
func NewBasketRequest(booking BasketBooking) BasketRequest {
	return BasketRequest{Basket: []BasketItem{{Type: "booking", Booking: booking}}}
}

// PreviewBooking is the booking payload of an invoice preview item.
type PreviewBooking struct {
	ResourceID int64  `json:"ResourceId"`
	FromTime   string `json:"FromTime"`
	ToTime     string `json:"ToTime"`
	CoworkerID int64  `json:"CoworkerId"`
	ChargeNow  bool   `json:"ChargeNow"`
	UniqueID   string `json:"UniqueId"`
}

// PreviewItem wraps a preview booking.
type PreviewItem struct {
	Type    string         `json:"Type"`
	Booking PreviewBooking `json:"Booking"`
}

// NewPreviewItem wraps a preview booking into a preview item.
func NewPreviewItem(booking PreviewBooking) PreviewItem {
	return PreviewItem{Type: "booking", Booking: booking}
}

// PreviewError is a single error entry of an invoice preview response.
type PreviewError struct {
	Message      string `json:"Message"`
	PropertyName string `json:"PropertyName"`
}

// PreviewResponse is the invoice preview response.
type PreviewResponse struct {
	Errors        []PreviewError `json:"Errors"`
	Message       string         `json:"Message"`
	WasSuccessful *bool          `json:"WasSuccessful"`
}

// ErrorMessages collects the non-empty error messages of a preview,
// falling back to the offending property name.
func (p *PreviewResponse) ErrorMessages() []string {
	var messages []string
	for _, e := range p.Errors {
		switch {
		case e.Message != "":
			messages = append(messages, e.Message)
		case e.PropertyName != "":
			messages = append(messages, e.PropertyName)
		}
	}
	return messages
}

// MyBooking is a single entry of the current user's bookings.
type MyBooking struct {
	ID            int64  `json:"Id"`
	BookingNumber int64  `json:"BookingNumber"`
	FromTime      string `json:"FromTime"`
	ToTime        string `json:"ToTime"`
	CreatedOn     string `json:"CreatedOn"`
	IsCancelled   bool   `json:"IsCancelled"`
}

// MyBookingsResponse is the bookings/my response wrapper.
type MyBookingsResponse struct {
	MyBookings []MyBooking `json:"MyBookings"`
}

// CancelRequest is the cancellation payload.
type CancelRequest struct {
	CancellationReason        string  `json:"cancellationReason"`
	CancellationReasonDetails *string `json:"cancellationReasonDetails"`
}
