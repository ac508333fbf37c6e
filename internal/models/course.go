package models

import (
	"time"

	"gorm.io/gorm"
)

type Course struct {
	gorm.Model

	CourseCode  string `gorm:"uniqueIndex;not null"`
	CourseName  string `gorm:"uniqueIndex;not null"`
	Description string
	EndDate     *time.Time
	IsPrivate   bool
	// Non-empty iff IsPrivate is true, maintained by the course handlers.
	PasswordHash string
	CreatedByID  uint `gorm:"not null;index"` // immutable after creation

	// Relationships
	CreatedBy   User         `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Enrollments []Enrollment `gorm:"foreignKey:CourseID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignments []Assignment `gorm:"foreignKey:CourseID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
