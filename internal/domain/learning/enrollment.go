package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/domain/catalog"
)

// Enrollment grants a learner access to a course. ProgressPercentage is a
// cached snapshot of the progress derived from LessonProgress rows.
type Enrollment struct {
	ID       uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_user_course,priority:1" json:"user_id"`
	CourseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_user_course,priority:2;index" json:"course_id"`
	Course   *catalog.Course `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`

	EnrolledAt         time.Time  `gorm:"column:enrolled_at;not null" json:"enrolled_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at;index" json:"completed_at,omitempty"`
	ProgressPercentage int        `gorm:"column:progress_percentage;not null;default:0" json:"progress_percentage"`
	PaymentEventID     *uuid.UUID `gorm:"type:uuid;column:payment_event_id" json:"payment_event_id,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollments" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EnrolledAt.IsZero() {
		e.EnrolledAt = time.Now().UTC()
	}
	return nil
}

func (e *Enrollment) IsCompleted() bool {
	return e != nil && e.CompletedAt != nil
}
