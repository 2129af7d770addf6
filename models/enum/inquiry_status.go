package enum

type InquiryStatus string

const (
	InquiryStatusNew        InquiryStatus = "new"
	InquiryStatusProcessing InquiryStatus = "processing"
	InquiryStatusQuoted     InquiryStatus = "quoted"
	InquiryStatusBooked     InquiryStatus = "booked"
	InquiryStatusClosed     InquiryStatus = "closed"
)
