package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	CourseRoleStudent = "STUDENT"
	CourseRoleTutor   = "TUTOR"
)

type Enrollment struct {
	gorm.Model

	UserID     uint      `gorm:"not null;uniqueIndex:idx_user_course"`
	CourseID   uint      `gorm:"not null;uniqueIndex:idx_user_course"`
	Role       string    `gorm:"not null"` // STUDENT or TUTOR
	EnrolledAt time.Time `gorm:"not null"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Course Course `gorm:"foreignKey:CourseID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
