package domain

import "time"

// UserInput carries the fields a caller supplies when creating a user.
// ID and PlantIDs projection maintenance are handled by the store.
type UserInput struct {
	Name         string   `json:"name" validate:"required"`
	Username     string   `json:"username" validate:"required"`
	Email        string   `json:"email,omitempty" validate:"omitempty,email"`
	Phone        string   `json:"phone,omitempty"`
	Role         Role     `json:"role" validate:"required,oneof=ADMIN OPERATOR COORDINATOR SUPERVISOR TECHNICIAN ASSISTANT"`
	CanLogin     bool     `json:"can_login"`
	Password     string   `json:"password,omitempty"`
	PlantIDs     []string `json:"plantIds,omitempty"`
	SupervisorID string   `json:"supervisor_id,omitempty"`
}

// SubPlantInput carries one sub-plant at plant creation time.
type SubPlantInput struct {
	InverterCount int `json:"inverterCount" validate:"gte=0"`
}

// PlantInput carries the fields a caller supplies when creating a plant.
// Sub-plant ids are assigned sequentially starting at 1; the list is not
// resizable afterwards.
type PlantInput struct {
	Client       string          `json:"client" validate:"required"`
	Name         string          `json:"name" validate:"required"`
	SubPlants    []SubPlantInput `json:"subPlants" validate:"dive"`
	StringCount  int             `json:"stringCount" validate:"gte=0"`
	TrackerCount int             `json:"trackerCount" validate:"gte=0"`
	Assets       []string        `json:"assets"`
}

// WorkOrderInput carries the caller-settable fields of a new work order.
// ID, title, supervisor, timestamps, logs and attachments are derived.
type WorkOrderInput struct {
	Description        string     `json:"description"`
	Status             Status     `json:"status,omitempty"`
	Priority           Priority   `json:"priority" validate:"required"`
	PlantID            string     `json:"plantId" validate:"required"`
	TechnicianID       string     `json:"technicianId" validate:"required"`
	StartDate          time.Time  `json:"startDate"`
	EndDate            *time.Time `json:"endDate,omitempty"`
	Activity           string     `json:"activity" validate:"required"`
	Assets             []string   `json:"assets"`
	AttachmentsEnabled bool       `json:"attachmentsEnabled"`
}

// LogInput carries a new history entry for a work order.
type LogInput struct {
	AuthorID     string        `json:"authorId" validate:"required"`
	Comment      string        `json:"comment" validate:"required"`
	StatusChange *StatusChange `json:"statusChange,omitempty"`
}

// AttachmentUpload is one image payload queued for a work order.
type AttachmentUpload struct {
	Filename    string
	ContentType string
	Data        []byte
	Caption     string
	UploadedBy  string
}
