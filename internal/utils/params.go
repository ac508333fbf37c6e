package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetCourseCode(ctx *gin.Context) (string, error) {
	courseCode := ctx.Param("course_code")

	if courseCode == "" {
		return "", errors.New("Course code not found")
	}

	return courseCode, nil
}

func GetAssignmentID(ctx *gin.Context) (uint, error) {
	assignmentIDStr := ctx.Param("assignment_id")

	if assignmentIDStr == "" {
		return 0, errors.New("Assignment ID not found")
	}

	assignmentID, err := strconv.ParseUint(assignmentIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Assignment ID")
	}

	return uint(assignmentID), nil
}

func GetSubmissionID(ctx *gin.Context) (uint, error) {
	submissionIDStr := ctx.Param("submission_id")

	if submissionIDStr == "" {
		return 0, errors.New("Submission ID not found")
	}

	submissionID, err := strconv.ParseUint(submissionIDStr, 10, 32)

	if err != nil {
		return 0, errors.New("Invalid Submission ID")
	}

	return uint(submissionID), nil
}
