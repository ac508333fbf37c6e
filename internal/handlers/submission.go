package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/coursedeck-dev/coursedeck/db"
	"github.com/coursedeck-dev/coursedeck/internal/metrics"
	"github.com/coursedeck-dev/coursedeck/internal/models"
	"github.com/coursedeck-dev/coursedeck/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateSubmissionRequest struct {
	Content string `json:"content" binding:"required"`
}

type UpdateSubmissionRequest struct {
	Content string `json:"content" binding:"required"`
}

type GradeSubmissionRequest struct {
	Grade *float64 `json:"grade" binding:"required,gte=0,lte=100"`
}

type SubmissionResponse struct {
	ID           uint      `json:"id"`
	UserID       uint      `json:"user_id"`
	AssignmentID uint      `json:"assignment_id"`
	SubmittedAt  time.Time `json:"submitted_at"`
	Status       string    `json:"status"`
	Grade        *float64  `json:"grade"`
	Content      string    `json:"content"`
}

func submissionResponse(submission *models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:           submission.ID,
		UserID:       submission.UserID,
		AssignmentID: submission.AssignmentID,
		SubmittedAt:  submission.SubmittedAt,
		Status:       submission.Status,
		Grade:        submission.Grade,
		Content:      submission.Content,
	}
}

func findSubmission(ctx *gin.Context) (*models.Submission, bool) {
	submissionID, err := utils.GetSubmissionID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	var submission models.Submission

	if err := db.DB.First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Submission not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve submission"})
		}
		return nil, false
	}

	return &submission, true
}

// submissionCourse resolves the course a submission belongs to through its
// assignment.
func submissionCourse(submission *models.Submission) (*models.Assignment, error) {
	var assignment models.Assignment

	if err := db.DB.First(&assignment, submission.AssignmentID).Error; err != nil {
		return nil, err
	}

	return &assignment, nil
}

func ListCourseSubmissions(ctx *gin.Context) {
	courseCode, err := utils.GetCourseCode(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := findCourseByCode(courseCode)

	if err != nil {
		if errors.Is(err, errCourseNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Course not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve course"})
		}
		return
	}

	var submissions []models.Submission

	err = db.DB.
		Joins("JOIN assignments ON assignments.id = submissions.assignment_id").
		Where("assignments.course_id = ?", course.ID).
		Find(&submissions).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve submissions"})
		return
	}

	response := make([]SubmissionResponse, 0, len(submissions))

	for i := range submissions {
		response = append(response, submissionResponse(&submissions[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func ListAssignmentSubmissions(ctx *gin.Context) {
	assignmentID, err := utils.GetAssignmentID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var submissions []models.Submission

	if err := db.DB.Where("assignment_id = ?", assignmentID).Find(&submissions).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve submissions"})
		return
	}

	response := make([]SubmissionResponse, 0, len(submissions))

	for i := range submissions {
		response = append(response, submissionResponse(&submissions[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateSubmission(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	courseCode, err := utils.GetCourseCode(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignmentID, err := utils.GetAssignmentID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req CreateSubmissionRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	course, err := findCourseByCode(courseCode)

	if err != nil {
		if errors.Is(err, errCourseNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Course not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve course"})
		}
		return
	}

	if _, err := findEnrollment(currentUser.ID, course.ID); err != nil {
		if errors.Is(err, errEnrollmentNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "You are not enrolled in this course"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var assignment models.Assignment

	if err := db.DB.First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignment not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assignment"})
		}
		return
	}

	if assignment.CourseID != course.ID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignment does not belong to this course"})
		return
	}

	var count int64

	err = db.DB.Model(&models.Submission{}).
		Where("user_id = ? AND assignment_id = ?", currentUser.ID, assignment.ID).
		Count(&count).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if count > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "You have already submitted; edit your submission instead"})
		return
	}

	now := time.Now()

	submission := models.Submission{
		UserID:       currentUser.ID,
		AssignmentID: assignment.ID,
		SubmittedAt:  now,
		Status:       models.SubmissionStatusAt(now, assignment.DueAt),
		Content:      req.Content,
	}

	if err := db.DB.Create(&submission).Error; err != nil {
		log.Printf("Failed to create submission: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create submission"})
		return
	}

	metrics.SubmissionsTotal.WithLabelValues(course.CourseCode, submission.Status).Inc()

	ctx.JSON(http.StatusCreated, submissionResponse(&submission))
}

func GradeSubmission(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req GradeSubmissionRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, ok := findSubmission(ctx)

	if !ok {
		return
	}

	assignment, err := submissionCourse(submission)

	if err != nil {
		log.Printf("Failed to resolve submission assignment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !isCourseTutor(currentUser.ID, assignment.CourseID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only a course tutor can grade submissions"})
		return
	}

	submission.Grade = req.Grade

	if err := db.DB.Save(submission).Error; err != nil {
		log.Printf("Failed to grade submission: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to grade submission"})
		return
	}

	ctx.JSON(http.StatusOK, submissionResponse(submission))
}

func UpdateSubmission(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req UpdateSubmissionRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submission, ok := findSubmission(ctx)

	if !ok {
		return
	}

	if submission.UserID != currentUser.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own submission"})
		return
	}

	// Content edits refresh the timestamp; the status stays as set at
	// creation.
	submission.Content = req.Content
	submission.SubmittedAt = time.Now()

	if err := db.DB.Save(submission).Error; err != nil {
		log.Printf("Failed to update submission: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update submission"})
		return
	}

	ctx.JSON(http.StatusOK, submissionResponse(submission))
}

// DeleteSubmission allows either the submitting student or a tutor of the
// course to remove a submission.
func DeleteSubmission(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	submission, ok := findSubmission(ctx)

	if !ok {
		return
	}

	isOwner := submission.UserID == currentUser.ID

	if !isOwner {
		assignment, err := submissionCourse(submission)

		if err != nil {
			log.Printf("Failed to resolve submission assignment: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !isCourseTutor(currentUser.ID, assignment.CourseID) {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "You cannot delete this submission"})
			return
		}
	}

	if err := db.DB.Delete(submission).Error; err != nil {
		log.Printf("Failed to delete submission: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete submission"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Submission deleted successfully"})
}
