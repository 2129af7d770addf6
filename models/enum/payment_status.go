package enum

type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "pending"
	PaymentStatusCompleted     PaymentStatus = "completed"
	PaymentStatusFailed        PaymentStatus = "failed"
	PaymentStatusRefunded      PaymentStatus = "refunded"
	PaymentStatusRefundPending PaymentStatus = "refund_pending"
	PaymentStatusVoided        PaymentStatus = "voided"
)

// Terminal reports whether the status permits no further transition on the
// same attempt row. refund_pending is not terminal: a later successful refund
// or void still resolves it.
func (s PaymentStatus) Terminal() bool {
	switch s {
	case PaymentStatusRefunded, PaymentStatusVoided, PaymentStatusFailed:
		return true
	}
	return false
}
