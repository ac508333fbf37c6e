package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	SubmissionStatusSubmitted = "SUBMITTED"
	SubmissionStatusLate      = "LATE"
)

type Submission struct {
	gorm.Model

	UserID       uint      `gorm:"not null;uniqueIndex:idx_user_assignment"`
	AssignmentID uint      `gorm:"not null;uniqueIndex:idx_user_assignment"`
	SubmittedAt  time.Time `gorm:"not null"`
	Status       string    `gorm:"not null"` // fixed at creation, never recomputed
	Grade        *float64
	Content      string

	// Relationships
	User       User       `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Assignment Assignment `gorm:"foreignKey:AssignmentID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

// SubmissionStatusAt derives the status for a submission made at the given
// time against the assignment due time.
func SubmissionStatusAt(submittedAt, dueAt time.Time) string {
	if submittedAt.After(dueAt) {
		return SubmissionStatusLate
	}

	return SubmissionStatusSubmitted
}
