package dto

// SendEmailPayload is the payload for send_email jobs (booking
// confirmations, password resets and the like).
type SendEmailPayload struct {
	To      string `json:"to" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}
