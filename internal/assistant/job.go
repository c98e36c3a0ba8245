package assistant

import "time"

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is one queued chat turn, processed asynchronously by the worker.
type Job struct {
	ID string `gorm:"primaryKey;size:26"` // ULID length

	ConversationID string `gorm:"size:36;index;not null"`

	Prompt string `gorm:"type:text;not null"`
	KW     string `gorm:"size:128"`

	IdempotencyKey *string `gorm:"type:varchar(128);uniqueIndex"`

	Status JobStatus `gorm:"type:varchar(16);index;not null"`

	// Filled when succeeded
	Response *string `gorm:"type:text"`

	// Filled when failed
	Error *string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
