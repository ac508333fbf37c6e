package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/coursedeck-dev/coursedeck/db"
	"github.com/coursedeck-dev/coursedeck/internal/models"
	"github.com/coursedeck-dev/coursedeck/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateAssignmentRequest struct {
	Name   string    `json:"name" binding:"required"`
	DueAt  time.Time `json:"due_at" binding:"required"`
	Weight float64   `json:"weight" binding:"required,gt=0,lt=100"`
}

type UpdateAssignmentRequest struct {
	Name   string     `json:"name"`
	DueAt  *time.Time `json:"due_at"`
	Weight *float64   `json:"weight" binding:"omitempty,gt=0,lt=100"`
}

type AssignmentResponse struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	Name      string    `json:"name"`
	DueAt     time.Time `json:"due_at"`
	Weight    float64   `json:"weight"`
	CreatedBy uint      `json:"created_by"`
}

var errWeightLimit = errors.New("Total assignment weight must stay below 100")

func assignmentResponse(assignment *models.Assignment) AssignmentResponse {
	return AssignmentResponse{
		ID:        assignment.ID,
		CourseID:  assignment.CourseID,
		Name:      assignment.Name,
		DueAt:     assignment.DueAt,
		Weight:    assignment.Weight,
		CreatedBy: assignment.CreatedByID,
	}
}

// sumOfOtherWeights totals the weights of a course's assignments, excluding
// the given assignment ID when non-zero.
func sumOfOtherWeights(tx *gorm.DB, courseID, excludeID uint) (float64, error) {
	var total float64

	query := tx.Model(&models.Assignment{}).Where("course_id = ?", courseID)

	if excludeID != 0 {
		query = query.Where("id != ?", excludeID)
	}

	err := query.Select("COALESCE(SUM(weight), 0)").Scan(&total).Error

	return total, err
}

func ListAssignments(ctx *gin.Context) {
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

	var assignments []models.Assignment

	if err := db.DB.Where("course_id = ?", course.ID).Find(&assignments).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assignments"})
		return
	}

	response := make([]AssignmentResponse, 0, len(assignments))

	for i := range assignments {
		response = append(response, assignmentResponse(&assignments[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateAssignment(ctx *gin.Context) {
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

	var req CreateAssignmentRequest

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

	if !isCourseTutor(currentUser.ID, course.ID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only a course tutor can create assignments"})
		return
	}

	assignment := models.Assignment{
		CourseID:    course.ID,
		Name:        req.Name,
		DueAt:       req.DueAt,
		Weight:      req.Weight,
		CreatedByID: currentUser.ID,
	}

	// The weight check and the insert commit together so a rejected add
	// leaves nothing behind.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		total, err := sumOfOtherWeights(tx, course.ID, 0)

		if err != nil {
			return err
		}

		if total+req.Weight >= models.MaxCourseWeight {
			return errWeightLimit
		}

		return tx.Create(&assignment).Error
	})

	if err != nil {
		if errors.Is(err, errWeightLimit) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errWeightLimit.Error()})
			return
		}

		log.Printf("Failed to create assignment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create assignment"})
		return
	}

	ctx.JSON(http.StatusCreated, assignmentResponse(&assignment))
}

func UpdateAssignment(ctx *gin.Context) {
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

	var req UpdateAssignmentRequest

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

	if !isCourseTutor(currentUser.ID, course.ID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only a course tutor can edit assignments"})
		return
	}

	var assignment models.Assignment

	if err := db.DB.Where("id = ? AND course_id = ?", assignmentID, course.ID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignment not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assignment"})
		}
		return
	}

	if req.Name != "" {
		assignment.Name = req.Name
	}

	if req.DueAt != nil {
		assignment.DueAt = *req.DueAt
	}

	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if req.Weight != nil {
			total, err := sumOfOtherWeights(tx, course.ID, assignment.ID)

			if err != nil {
				return err
			}

			if total+*req.Weight >= models.MaxCourseWeight {
				return errWeightLimit
			}

			assignment.Weight = *req.Weight
		}

		return tx.Save(&assignment).Error
	})

	if err != nil {
		if errors.Is(err, errWeightLimit) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": errWeightLimit.Error()})
			return
		}

		log.Printf("Failed to update assignment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update assignment"})
		return
	}

	ctx.JSON(http.StatusOK, assignmentResponse(&assignment))
}

func DeleteAssignment(ctx *gin.Context) {
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

	course, err := findCourseByCode(courseCode)

	if err != nil {
		if errors.Is(err, errCourseNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Course not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve course"})
		}
		return
	}

	if !isCourseTutor(currentUser.ID, course.ID) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only a course tutor can delete assignments"})
		return
	}

	var assignment models.Assignment

	if err := db.DB.Where("id = ? AND course_id = ?", assignmentID, course.ID).First(&assignment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Assignment not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve assignment"})
		}
		return
	}

	if err := db.DB.Select("Submissions").Delete(&assignment).Error; err != nil {
		log.Printf("Failed to delete assignment: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete assignment"})
		return
	}

	ctx.Status(http.StatusNoContent)
}
