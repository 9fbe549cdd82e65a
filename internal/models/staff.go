package models

import "time"

type Staff struct {
	ID                 int64          `json:"id"`
	Name               string         `json:"name" validate:"required"`
	Phone              string         `json:"phone" validate:"required"`
	Role               string         `json:"role"`
	AvailabilityStatus string         `json:"availability_status" validate:"oneof=free busy"`
	Salary             float64        `json:"salary" validate:"gte=0"`
	JoiningDate        time.Time      `json:"joining_date"`
	Documents          StaffDocuments `json:"documents"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// StaffDocuments holds references (file ids or urls) to scanned documents.
type StaffDocuments struct {
	EmiratesID string `json:"emirates_id,omitempty"`
	Passport   string `json:"passport,omitempty"`
	Visa       string `json:"visa,omitempty"`
	LabourCard string `json:"labour_card,omitempty"`
}
