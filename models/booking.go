package models

import (
	"time"

	"github.com/skyvoyage/travelpay/models/enum"
)

// BookingRecord ties a completed payment to an upstream supplier reservation,
// e.g. an airline PNR. SupplierOrderID is nil for bookings that never reached
// the supplier.
type BookingRecord struct {
	ID               string             `json:"id"`
	PaymentID        string             `json:"payment_id"`
	BookingReference string             `json:"booking_reference"`
	SupplierOrderID  *string            `json:"supplier_order_id,omitempty"`
	Status           enum.BookingStatus `json:"status"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}
