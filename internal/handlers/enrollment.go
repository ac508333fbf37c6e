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
	"golang.org/x/crypto/bcrypt"
)

type EnrollRequest struct {
	Password string `json:"password"`
}

type RoleChangeRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type EnrollmentResponse struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	Username   string    `json:"username"`
	CourseID   uint      `json:"course_id"`
	Role       string    `json:"role"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

func enrollmentResponse(enrollment *models.Enrollment, username string) EnrollmentResponse {
	return EnrollmentResponse{
		ID:         enrollment.ID,
		UserID:     enrollment.UserID,
		Username:   username,
		CourseID:   enrollment.CourseID,
		Role:       enrollment.Role,
		EnrolledAt: enrollment.EnrolledAt,
	}
}

// EnrollCourse admits the current user into a course as a STUDENT. Private
// courses require the course password.
func EnrollCourse(ctx *gin.Context) {
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

	// The password body is optional for public courses.
	var req EnrollRequest

	if ctx.Request.ContentLength > 0 {
		if err := ctx.BindJSON(&req); err != nil {
			log.Printf("Failed to bind JSON: %v", err)
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
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

	if _, err := findEnrollment(currentUser.ID, course.ID); err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already enrolled in this course"})
		return
	} else if !errors.Is(err, errEnrollmentNotFound) {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if course.IsPrivate {
		if req.Password == "" {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "This course requires a password"})
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(course.PasswordHash), []byte(req.Password)) != nil {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "Incorrect course password"})
			return
		}
	}

	enrollment := models.Enrollment{
		UserID:     currentUser.ID,
		CourseID:   course.ID,
		Role:       models.CourseRoleStudent,
		EnrolledAt: time.Now(),
	}

	if err := db.DB.Create(&enrollment).Error; err != nil {
		log.Printf("Failed to create enrollment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enroll in course"})
		return
	}

	metrics.EnrollmentsTotal.WithLabelValues(course.CourseCode).Inc()

	ctx.JSON(http.StatusCreated, enrollmentResponse(&enrollment, currentUser.Username))
}

func WithdrawCourse(ctx *gin.Context) {
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

	course, err := findCourseByCode(courseCode)

	if err != nil {
		if errors.Is(err, errCourseNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Course not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve course"})
		}
		return
	}

	enrollment, err := findEnrollment(currentUser.ID, course.ID)

	if err != nil {
		if errors.Is(err, errEnrollmentNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Enrollment not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := db.DB.Delete(enrollment).Error; err != nil {
		log.Printf("Failed to delete enrollment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to withdraw from course"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Withdrawn from course successfully"})
}

// changeRole promotes or demotes a target enrollment. Only the course creator
// may change roles; setting the role a row already holds is a no-op success.
func changeRole(ctx *gin.Context, targetRole string) {
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

	var req RoleChangeRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
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

	if course.CreatedByID != currentUser.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the course creator can change roles"})
		return
	}

	enrollment, err := findEnrollment(req.UserID, course.ID)

	if err != nil {
		if errors.Is(err, errEnrollmentNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Enrollment not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if enrollment.Role == targetRole {
		ctx.JSON(http.StatusOK, enrollmentResponse(enrollment, ""))
		return
	}

	enrollment.Role = targetRole

	if err := db.DB.Save(enrollment).Error; err != nil {
		log.Printf("Failed to update enrollment role: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	ctx.JSON(http.StatusOK, enrollmentResponse(enrollment, ""))
}

func PromoteTutor(ctx *gin.Context) {
	changeRole(ctx, models.CourseRoleTutor)
}

func DemoteTutor(ctx *gin.Context) {
	changeRole(ctx, models.CourseRoleStudent)
}

// ListCourseUsers returns the course roster.
func ListCourseUsers(ctx *gin.Context) {
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

	var enrollments []models.Enrollment

	if err := db.DB.Preload("User").Where("course_id = ?", course.ID).Find(&enrollments).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve course users"})
		return
	}

	response := make([]EnrollmentResponse, 0, len(enrollments))

	for i := range enrollments {
		response = append(response, enrollmentResponse(&enrollments[i], enrollments[i].User.Username))
	}

	ctx.JSON(http.StatusOK, response)
}

// ClearEnrollments removes every enrollment row of a course, the creator's
// own included.
func ClearEnrollments(ctx *gin.Context) {
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

	course, err := findCourseByCode(courseCode)

	if err != nil {
		if errors.Is(err, errCourseNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Course not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve course"})
		}
		return
	}

	if course.CreatedByID != currentUser.ID {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the course creator can clear enrollments"})
		return
	}

	if err := db.DB.Where("course_id = ?", course.ID).Delete(&models.Enrollment{}).Error; err != nil {
		log.Printf("Failed to clear enrollments: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear enrollments"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "All enrollments removed"})
}

// WithdrawAllCourses removes every enrollment the user holds. Self-service
// only.
func WithdrawAllCourses(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	username := ctx.Param("username")

	if username != currentUser.Username {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You can only withdraw your own enrollments"})
		return
	}

	if err := db.DB.Where("user_id = ?", currentUser.ID).Delete(&models.Enrollment{}).Error; err != nil {
		log.Printf("Failed to withdraw enrollments: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to withdraw enrollments"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "All enrollments withdrawn"})
}
