package dto

// ScanImagePayload is the payload for scan_image jobs, run against
// user-uploaded images before they are published.
type ScanImagePayload struct {
	UploadID string   `json:"upload_id" validate:"required"`
	ImageURL string   `json:"image_url" validate:"required,url"`
	Checks   []string `json:"checks,omitempty" validate:"omitempty,dive,oneof=nsfw malware dimensions"`
}
