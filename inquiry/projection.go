package inquiry

import (
	"github.com/skyvoyage/travelpay/models"
	"github.com/skyvoyage/travelpay/models/enum"
)

// EffectiveStatus derives the status a reader should trust. If any quote on
// the inquiry has been paid, the inquiry is booked, regardless of the stored
// status field: staff can mis-set the stored value out of band, but a paid
// quote must never visually regress to unpaid. Pure, recomputed on every
// read, never cached alongside the stored status.
func EffectiveStatus(inq *models.Inquiry, quotes []*models.Quote) enum.InquiryStatus {
	for _, q := range quotes {
		if q.PaymentStatus == enum.QuotePaymentStatusPaid {
			return enum.InquiryStatusBooked
		}
	}
	return inq.Status
}
