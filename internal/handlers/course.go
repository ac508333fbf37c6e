package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/coursedeck-dev/coursedeck/db"
	"github.com/coursedeck-dev/coursedeck/internal/models"
	"github.com/coursedeck-dev/coursedeck/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateCourseRequest struct {
	CourseCode  string     `json:"course_code" binding:"required,coursecode"`
	CourseName  string     `json:"course_name" binding:"required"`
	Description string     `json:"description"`
	EndDate     *time.Time `json:"end_date"`
	IsPrivate   bool       `json:"is_private"`
	Password    string     `json:"password"`
}

type UpdateCourseRequest struct {
	CourseName  string     `json:"course_name"`
	Description *string    `json:"description"`
	EndDate     *time.Time `json:"end_date"`
	IsPrivate   *bool      `json:"is_private"`
	OldPassword string     `json:"old_password"`
	Password1   string     `json:"password1"`
	Password2   string     `json:"password2"`
}

type CourseResponse struct {
	ID          uint       `json:"id"`
	CourseCode  string     `json:"course_code"`
	CourseName  string     `json:"course_name"`
	Description string     `json:"description"`
	EndDate     *time.Time `json:"end_date"`
	IsPrivate   bool       `json:"is_private"`
	CreatedBy   uint       `json:"created_by"`
}

func courseResponse(course *models.Course) CourseResponse {
	return CourseResponse{
		ID:          course.ID,
		CourseCode:  course.CourseCode,
		CourseName:  course.CourseName,
		Description: course.Description,
		EndDate:     course.EndDate,
		IsPrivate:   course.IsPrivate,
		CreatedBy:   course.CreatedByID,
	}
}

func CreateCourse(ctx *gin.Context) {
	var req CreateCourseRequest

	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var existing models.Course

	err = db.DB.Where("course_code = ? OR course_name = ?", req.CourseCode, req.CourseName).First(&existing).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Course code or name already exists"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing course: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var passwordHash string

	if req.IsPrivate {
		if strings.TrimSpace(req.Password) == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Private courses require a password"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

		if err != nil {
			log.Printf("Failed to hash course password: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		passwordHash = string(hash)
	}

	course := models.Course{
		CourseCode:   req.CourseCode,
		CourseName:   req.CourseName,
		Description:  req.Description,
		EndDate:      req.EndDate,
		IsPrivate:    req.IsPrivate,
		PasswordHash: passwordHash,
		CreatedByID:  userID,
	}

	// The course row and the creator's TUTOR enrollment commit together.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&course).Error; err != nil {
			return err
		}

		enrollment := models.Enrollment{
			UserID:     userID,
			CourseID:   course.ID,
			Role:       models.CourseRoleTutor,
			EnrolledAt: time.Now(),
		}

		return tx.Create(&enrollment).Error
	})

	if err != nil {
		log.Printf("Failed to create course: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create course"})
		return
	}

	ctx.JSON(http.StatusCreated, courseResponse(&course))
}

func ListCourses(ctx *gin.Context) {
	var courses []models.Course

	if err := db.DB.Find(&courses).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve courses"})
		return
	}

	response := make([]CourseResponse, 0, len(courses))

	for i := range courses {
		response = append(response, courseResponse(&courses[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func GetCourse(ctx *gin.Context) {
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

	ctx.JSON(http.StatusOK, courseResponse(course))
}

func SearchCourses(ctx *gin.Context) {
	keyword := ctx.Query("q")

	query := db.DB.Model(&models.Course{})

	if keyword != "" {
		pattern := "%" + keyword + "%"
		query = query.Where("course_code LIKE ? OR course_name LIKE ? OR description LIKE ?", pattern, pattern, pattern)
	}

	if isPrivate := ctx.Query("is-private"); isPrivate != "" {
		switch isPrivate {
		case "true":
			query = query.Where("is_private = ?", true)
		case "false":
			query = query.Where("is_private = ?", false)
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid is-private value"})
			return
		}
	}

	var courses []models.Course

	if err := query.Find(&courses).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search courses"})
		return
	}

	response := make([]CourseResponse, 0, len(courses))

	for i := range courses {
		response = append(response, courseResponse(&courses[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

// hasPasswordFields reports whether the update request carries any of the
// password fields.
func (r *UpdateCourseRequest) hasPasswordFields() bool {
	return r.OldPassword != "" || r.Password1 != "" || r.Password2 != ""
}

// passwordTransition resolves the privacy/password state machine for a course
// update. It returns the password hash the course must carry afterwards
// without mutating the course; callers reject on error before applying any
// field change.
func passwordTransition(course *models.Course, req *UpdateCourseRequest, willBePrivate bool) (string, error) {
	wasPrivate := course.IsPrivate

	switch {
	case !wasPrivate && !willBePrivate:
		// Public courses never touch passwords.
		if req.hasPasswordFields() {
			return "", errors.New("Public courses do not accept password fields")
		}

		return "", nil

	case !wasPrivate && willBePrivate:
		// PUBLIC -> PRIVATE: a fresh password pair, old password not required.
		if strings.TrimSpace(req.Password1) == "" || strings.TrimSpace(req.Password2) == "" {
			return "", errors.New("A non-blank password is required to make a course private")
		}

		if req.Password1 != req.Password2 {
			return "", errors.New("Passwords do not match")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)

		if err != nil {
			return "", err
		}

		return string(hash), nil

	case wasPrivate && willBePrivate:
		if !req.hasPasswordFields() {
			// Password left untouched.
			return course.PasswordHash, nil
		}

		// Change password: the old one must verify first.
		if bcrypt.CompareHashAndPassword([]byte(course.PasswordHash), []byte(req.OldPassword)) != nil {
			return "", errors.New("Old password is incorrect")
		}

		if strings.TrimSpace(req.Password1) == "" || strings.TrimSpace(req.Password2) == "" {
			return "", errors.New("A non-blank password is required")
		}

		if req.Password1 != req.Password2 {
			return "", errors.New("Passwords do not match")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password1), bcrypt.DefaultCost)

		if err != nil {
			return "", err
		}

		return string(hash), nil

	default: // wasPrivate && !willBePrivate
		// PRIVATE -> PUBLIC clears the password whatever the request carried.
		return "", nil
	}
}

func UpdateCourse(ctx *gin.Context) {
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

	var req UpdateCourseRequest

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
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the course creator can update the course"})
		return
	}

	willBePrivate := course.IsPrivate

	if req.IsPrivate != nil {
		willBePrivate = *req.IsPrivate
	}

	// Fail-fast: resolve the password transition before touching any field.
	passwordHash, err := passwordTransition(course, &req, willBePrivate)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.CourseName != "" && req.CourseName != course.CourseName {
		var existing models.Course

		err := db.DB.Where("course_name = ? AND id != ?", req.CourseName, course.ID).First(&existing).Error

		if err == nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Course name already exists"})
			return
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Database error when checking course name: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		course.CourseName = req.CourseName
	}

	if req.Description != nil {
		course.Description = *req.Description
	}

	if req.EndDate != nil {
		course.EndDate = req.EndDate
	}

	course.IsPrivate = willBePrivate
	course.PasswordHash = passwordHash

	if err := db.DB.Save(course).Error; err != nil {
		log.Printf("Failed to update course: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update course"})
		return
	}

	ctx.JSON(http.StatusOK, courseResponse(course))
}

func DeleteCourse(ctx *gin.Context) {
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
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the course creator can delete the course"})
		return
	}

	if err := db.DB.Select("Enrollments", "Assignments").Delete(course).Error; err != nil {
		log.Printf("Failed to delete course: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete course"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
