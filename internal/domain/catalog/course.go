package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// IsValidLevel reports whether level is one of the catalog levels.
func IsValidLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

type Course struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title string    `gorm:"column:title;not null" json:"title"`
	Slug  string    `gorm:"column:slug;not null;uniqueIndex:idx_courses_slug" json:"slug"`

	Description     string `gorm:"column:description;type:text" json:"description"`
	LongDescription string `gorm:"column:long_description;type:text" json:"long_description,omitempty"`
	ThumbnailURL    string `gorm:"column:thumbnail_url" json:"thumbnail_url,omitempty"`

	Price                 float64 `gorm:"column:price;type:numeric(10,2);not null;default:0" json:"price"`
	DurationHours         int     `gorm:"column:duration_hours;not null;default:0" json:"duration_hours"`
	Level                 string  `gorm:"column:level;not null;default:'beginner';index" json:"level"`
	IsPublished           bool    `gorm:"column:is_published;not null;default:false;index" json:"is_published"`
	CertificationIncluded bool    `gorm:"column:certification_included;not null;default:false" json:"certification_included"`

	// Optional per-course hosted payment link; empty falls back to the
	// configured default link.
	PaymentLinkURL string `gorm:"column:payment_link_url" json:"-"`

	InstructorID *uuid.UUID  `gorm:"type:uuid;index" json:"instructor_id,omitempty"`
	Instructor   *Instructor `gorm:"foreignKey:InstructorID;references:ID" json:"instructor,omitempty"`

	Modules []*CourseModule `gorm:"foreignKey:CourseID;references:ID" json:"modules,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Course) TableName() string { return "courses" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// LessonCount counts lessons across the loaded module tree.
func (c *Course) LessonCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, m := range c.Modules {
		if m != nil {
			n += len(m.Lessons)
		}
	}
	return n
}
