package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseModule struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index:idx_course_modules_course_order,priority:1" json:"course_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	Description string    `gorm:"column:description;type:text" json:"description,omitempty"`
	OrderIndex  int       `gorm:"column:order_index;not null;default:0;index:idx_course_modules_course_order,priority:2" json:"order_index"`

	Lessons []*CourseLesson `gorm:"foreignKey:ModuleID;references:ID" json:"lessons,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CourseModule) TableName() string { return "course_modules" }

func (m *CourseModule) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type CourseLesson struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ModuleID        uuid.UUID `gorm:"type:uuid;not null;index:idx_course_lessons_module_order,priority:1" json:"module_id"`
	Title           string    `gorm:"column:title;not null" json:"title"`
	Content         string    `gorm:"column:content;type:text" json:"content,omitempty"`
	VideoURL        string    `gorm:"column:video_url" json:"video_url,omitempty"`
	DurationMinutes int       `gorm:"column:duration_minutes;not null;default:0" json:"duration_minutes"`
	OrderIndex      int       `gorm:"column:order_index;not null;default:0;index:idx_course_lessons_module_order,priority:2" json:"order_index"`
	IsFreePreview   bool      `gorm:"column:is_free_preview;not null;default:false" json:"is_free_preview"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (CourseLesson) TableName() string { return "course_lessons" }

func (l *CourseLesson) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
