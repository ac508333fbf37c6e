package handlers

import (
	"errors"

	"github.com/coursedeck-dev/coursedeck/db"
	"github.com/coursedeck-dev/coursedeck/internal/models"
	"gorm.io/gorm"
)

var (
	errCourseNotFound     = errors.New("Course not found")
	errEnrollmentNotFound = errors.New("Enrollment not found")
)

func findCourseByCode(courseCode string) (*models.Course, error) {
	var course models.Course

	if err := db.DB.Where("course_code = ?", courseCode).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errCourseNotFound
		}

		return nil, err
	}

	return &course, nil
}

func findEnrollment(userID, courseID uint) (*models.Enrollment, error) {
	var enrollment models.Enrollment

	err := db.DB.Where("user_id = ? AND course_id = ?", userID, courseID).First(&enrollment).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errEnrollmentNotFound
		}

		return nil, err
	}

	return &enrollment, nil
}

// isCourseTutor reports whether the user holds a TUTOR enrollment in the course.
func isCourseTutor(userID, courseID uint) bool {
	enrollment, err := findEnrollment(userID, courseID)

	if err != nil {
		return false
	}

	return enrollment.Role == models.CourseRoleTutor
}
