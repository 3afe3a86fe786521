package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fpda/academy-backend/internal/domain/catalog"
)

// CertificateValidityYears is the fixed validity window of a certification.
const CertificateValidityYears = 3

type Certification struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_certifications_user_course,priority:1" json:"user_id"`
	CourseID          uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_certifications_user_course,priority:2;index" json:"course_id"`
	Course            *catalog.Course `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
	CertificateNumber string          `gorm:"column:certificate_number;not null;uniqueIndex:idx_certifications_number" json:"certificate_number"`
	RecipientName     string          `gorm:"column:recipient_name" json:"recipient_name,omitempty"`
	IssuedAt          time.Time       `gorm:"column:issued_at;not null" json:"issued_at"`
	ExpiresAt         *time.Time      `gorm:"column:expires_at;index" json:"expires_at,omitempty"`
	IsValid           bool            `gorm:"column:is_valid;not null" json:"is_valid"`
	CreatedAt         time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null" json:"updated_at"`
}

func (Certification) TableName() string { return "certifications" }

func (c *Certification) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ActiveAt reports whether the certification is valid and unexpired at now.
func (c *Certification) ActiveAt(now time.Time) bool {
	if c == nil || !c.IsValid {
		return false
	}
	return c.ExpiresAt == nil || now.Before(*c.ExpiresAt)
}
