package models

import (
	"time"

	"gorm.io/gorm"
)

// MaxCourseWeight is the exclusive upper bound on the sum of assignment
// weights within a course.
const MaxCourseWeight = 100.0

type Assignment struct {
	gorm.Model

	CourseID    uint      `gorm:"not null;index"`
	Name        string    `gorm:"not null"`
	DueAt       time.Time `gorm:"not null"`
	Weight      float64   `gorm:"not null"` // percentage of the course grade
	CreatedByID uint      `gorm:"not null"`

	// Relationships
	Course      Course       `gorm:"foreignKey:CourseID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	CreatedBy   User         `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Submissions []Submission `gorm:"foreignKey:AssignmentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
