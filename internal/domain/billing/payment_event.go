package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ProviderStripe = "stripe"

const (
	EventStatusReceived  = "received"
	EventStatusProcessed = "processed"
	EventStatusIgnored   = "ignored"
	EventStatusRejected  = "rejected"
	EventStatusFailed    = "failed"
)

// PaymentEvent records every payment-confirmation delivery. Failed rows are
// the remediation queue for paid learners without an enrollment.
type PaymentEvent struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Provider        string         `gorm:"column:provider;not null;uniqueIndex:idx_payment_events_provider_event,priority:1" json:"provider"`
	ProviderEventID string         `gorm:"column:provider_event_id;not null;uniqueIndex:idx_payment_events_provider_event,priority:2" json:"provider_event_id"`
	EventType       string         `gorm:"column:event_type;not null" json:"event_type"`
	LearnerRef      string         `gorm:"column:learner_ref" json:"learner_ref,omitempty"`
	CourseRef       string         `gorm:"column:course_ref" json:"course_ref,omitempty"`
	Status          string         `gorm:"column:status;not null;index" json:"status"`
	FailureReason   string         `gorm:"column:failure_reason;type:text" json:"failure_reason,omitempty"`
	Attempts        int            `gorm:"column:attempts;not null;default:0" json:"attempts"`
	Payload         datatypes.JSON `gorm:"column:payload" json:"payload"`
	EnrollmentID    *uuid.UUID     `gorm:"type:uuid;column:enrollment_id" json:"enrollment_id,omitempty"`
	ProcessedAt     *time.Time     `gorm:"column:processed_at" json:"processed_at,omitempty"`
	CreatedAt       time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"not null" json:"updated_at"`
}

func (PaymentEvent) TableName() string { return "payment_events" }

func (e *PaymentEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
