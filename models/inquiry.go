package models

import (
	"time"

	"github.com/skyvoyage/travelpay/models/enum"
)

// Inquiry is the parent aggregate for quotes. Its stored Status is advisory:
// staff can edit it out of band, so every customer-facing read derives the
// effective status from payment facts instead of trusting this field.
type Inquiry struct {
	ID            string             `json:"id"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	ServiceType   enum.ServiceType   `json:"service_type"`
	Subject       string             `json:"subject"`
	Status        enum.InquiryStatus `json:"status"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type PartialInquiry struct {
	ID            string              `json:"id"`
	CustomerName  *string             `json:"customer_name,omitempty"`
	CustomerEmail *string             `json:"customer_email,omitempty"`
	ServiceType   *enum.ServiceType   `json:"service_type,omitempty"`
	Subject       *string             `json:"subject,omitempty"`
	Status        *enum.InquiryStatus `json:"status,omitempty"`
}
