package enum

type QuoteStatus string

const (
	QuoteStatusDraft     QuoteStatus = "draft"
	QuoteStatusSent      QuoteStatus = "sent"
	QuoteStatusAccepted  QuoteStatus = "accepted"
	QuoteStatusExpired   QuoteStatus = "expired"
	QuoteStatusCancelled QuoteStatus = "cancelled"
)

type QuotePaymentStatus string

const (
	QuotePaymentStatusUnpaid        QuotePaymentStatus = "unpaid"
	QuotePaymentStatusPaid          QuotePaymentStatus = "paid"
	QuotePaymentStatusFailed        QuotePaymentStatus = "failed"
	QuotePaymentStatusRefunded      QuotePaymentStatus = "refunded"
	QuotePaymentStatusRefundPending QuotePaymentStatus = "refund_pending"
	QuotePaymentStatusVoided        QuotePaymentStatus = "voided"
)
