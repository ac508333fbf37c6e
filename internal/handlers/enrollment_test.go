package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursedeck-dev/coursedeck/db"
	"github.com/coursedeck-dev/coursedeck/internal/models"
)

func TestEnrollCourse(t *testing.T) {
	r := setupTest(t)
	creator := createTestUser(t, "alice")
	student := createTestUser(t, "bob")
	course := createTestCourse(t, creator, "CS101", "Intro", false, "")
	token := tokenFor(t, student)

	w := doRequest(t, r, http.MethodPost, "/api/courses/CS101/enroll", token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Enrolling twice always conflicts; no duplicate row appears.
	w = doRequest(t, r, http.MethodPost, "/api/courses/CS101/enroll", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", student.ID, course.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestEnrollPrivateCourse(t *testing.T) {
	r := setupTest(t)
	creator := createTestUser(t, "alice")
	student := createTestUser(t, "bob")
	createTestCourse(t, creator, "SEC101", "Secrets", true, "abc123")
	token := tokenFor(t, student)

	w := doRequest(t, r, http.MethodPost, "/api/courses/SEC101/enroll", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "missing password")

	w = doRequest(t, r, http.MethodPost, "/api/courses/SEC101/enroll", token, map[string]interface{}{
		"password": "wrong",
	})
	assert.Equal(t, http.StatusForbidden, w.Code, "wrong password")

	w = doRequest(t, r, http.MethodPost, "/api/courses/SEC101/enroll", token, map[string]interface{}{
		"password": "abc123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(t, w)
	assert.Equal(t, models.CourseRoleStudent, body["role"])
}

func TestEnrollUnknownCourse(t *testing.T) {
	r := setupTest(t)
	student := createTestUser(t, "bob")

	w := doRequest(t, r, http.MethodPost, "/api/courses/NOPE101/enroll", tokenFor(t, student), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWithdrawCourse(t *testing.T) {
	r := setupTest(t)
	creator := createTestUser(t, "alice")
	student := createTestUser(t, "bob")
	course := createTestCourse(t, creator, "CS101", "Intro", false, "")
	enrollStudent(t, student, course)

	w := doRequest(t, r, http.MethodDelete, "/api/courses/CS101/withdraw", tokenFor(t, student), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.Enrollment{}).
		Where("user_id = ?", student.ID).Count(&count).Error)
	assert.Zero(t, count)

	// Withdrawing again has nothing to remove.
	w = doRequest(t, r, http.MethodDelete, "/api/courses/CS101/withdraw", tokenFor(t, student), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPromoteDemoteRoundTrip(t *testing.T) {
	r := setupTest(t)
	creator := createTestUser(t, "alice")
	student := createTestUser(t, "bob")
	course := createTestCourse(t, creator, "CS101", "Intro", false, "")
	enrollment := enrollStudent(t, student, course)
	token := tokenFor(t, creator)

	w := doRequest(t, r, http.MethodPut, "/api/courses/CS101/promote", token, map[string]interface{}{
		"user_id": student.ID,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var got models.Enrollment
	require.NoError(t, db.DB.First(&got, enrollment.ID).Error)
	assert.Equal(t, models.CourseRoleTutor, got.Role)

	// Promoting a tutor again is an idempotent success.
	w = doRequest(t, r, http.MethodPut, "/api/courses/CS101/promote", token, map[string]interface{}{
		"user_id": student.ID,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, r, http.MethodPut, "/api/courses/CS101/demote", token, map[string]interface{}{
		"user_id": student.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, db.DB.First(&got, enrollment.ID).Error)
	assert.Equal(t, models.CourseRoleStudent, got.Role)
}

func TestPromoteAuthorization(t *testing.T) {
	r := setupTest(t)
	creator := createTestUser(t, "alice")
	student := createTestUser(t, "bob")
	outsider := createTestUser(t, "carol")
	course := createTestCourse(t, creator, "CS101", "Intro", false, "")
	enrollStudent(t, student, course)

	// Only the course creator may promote.
	w := doRequest(t, r, http.MethodPut, "/api/courses/CS101/promote", tokenFor(t, outsider), map[string]interface{}{
		"user_id": student.ID,
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Missing target enrollment is rejected.
	w = doRequest(t, r, http.MethodPut, "/api/courses/CS101/promote", tokenFor(t, creator), map[string]interface{}{
		"user_id": outsider.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClearEnrollments(t *testing.T) {
	r := setupTest(t)
	creator := createTestUser(t, "alice")
	student := createTestUser(t, "bob")
	course := createTestCourse(t, creator, "CS101", "Intro", false, "")
	enrollStudent(t, student, course)

	w := doRequest(t, r, http.MethodDelete, "/api/courses/CS101/enrollments", tokenFor(t, student), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, http.MethodDelete, "/api/courses/CS101/enrollments", tokenFor(t, creator), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.Enrollment{}).
		Where("course_id = ?", course.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithdrawAllCourses(t *testing.T) {
	r := setupTest(t)
	creator := createTestUser(t, "alice")
	student := createTestUser(t, "bob")
	courseA := createTestCourse(t, creator, "CS101", "Intro", false, "")
	courseB := createTestCourse(t, creator, "CS102", "Data Structures", false, "")
	enrollStudent(t, student, courseA)
	enrollStudent(t, student, courseB)

	// Self-service only.
	w := doRequest(t, r, http.MethodDelete, "/api/users/bob/enrollments", tokenFor(t, creator), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(t, r, http.MethodDelete, "/api/users/bob/enrollments", tokenFor(t, student), nil)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, db.DB.Model(&models.Enrollment{}).
		Where("user_id = ?", student.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestListCourseUsers(t *testing.T) {
	r := setupTest(t)
	creator := createTestUser(t, "alice")
	student := createTestUser(t, "bob")
	course := createTestCourse(t, creator, "CS101", "Intro", false, "")
	enrollStudent(t, student, course)

	w := doRequest(t, r, http.MethodGet, "/api/courses/CS101/users", tokenFor(t, student), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice")
	assert.Contains(t, w.Body.String(), "bob")
}
