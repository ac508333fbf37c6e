package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coursedeck-dev/coursedeck/db"
	"github.com/coursedeck-dev/coursedeck/internal/auth"
	"github.com/coursedeck-dev/coursedeck/internal/models"
	"github.com/coursedeck-dev/coursedeck/internal/router"
)

// setupTest points the global DB at a fresh in-memory sqlite database and
// returns a router wired against it.
func setupTest(t *testing.T) *gin.Engine {
	t.Helper()

	t.Setenv("JWT_SECRET", "test-secret")
	require.NoError(t, auth.InitJWTSecret())

	gin.SetMode(gin.TestMode)

	// A named shared-cache DB keeps every pooled connection on the same
	// in-memory database.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Failed to open test database")

	db.DB = gdb
	require.NoError(t, db.MigrateDatabase(), "Failed to migrate test database")

	t.Cleanup(func() {
		sqlDB, err := gdb.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return router.NewRouter()
}

func createTestUser(t *testing.T, username string, roles ...string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		PasswordHash: string(hash),
	}
	require.NoError(t, user.SetRoles(roles))
	require.NoError(t, db.DB.Create(&user).Error)

	return user
}

func tokenFor(t *testing.T, user models.User) string {
	t.Helper()

	token, err := auth.GenerateJWT(user.ID, user.Username)
	require.NoError(t, err)

	return token
}

func doRequest(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	return body
}

// createTestCourse persists a course and the creator's TUTOR enrollment the
// way the create handler does.
func createTestCourse(t *testing.T, creator models.User, code, name string, private bool, password string) models.Course {
	t.Helper()

	course := models.Course{
		CourseCode:  code,
		CourseName:  name,
		IsPrivate:   private,
		CreatedByID: creator.ID,
	}

	if private {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		require.NoError(t, err)
		course.PasswordHash = string(hash)
	}

	require.NoError(t, db.DB.Create(&course).Error)
	require.NoError(t, db.DB.Create(&models.Enrollment{
		UserID:     creator.ID,
		CourseID:   course.ID,
		Role:       models.CourseRoleTutor,
		EnrolledAt: time.Now(),
	}).Error)

	return course
}

func enrollStudent(t *testing.T, user models.User, course models.Course) models.Enrollment {
	t.Helper()

	enrollment := models.Enrollment{
		UserID:     user.ID,
		CourseID:   course.ID,
		Role:       models.CourseRoleStudent,
		EnrolledAt: time.Now(),
	}
	require.NoError(t, db.DB.Create(&enrollment).Error)

	return enrollment
}

func createTestAssignment(t *testing.T, course models.Course, creator models.User, name string, due time.Time, weight float64) models.Assignment {
	t.Helper()

	assignment := models.Assignment{
		CourseID:    course.ID,
		Name:        name,
		DueAt:       due,
		Weight:      weight,
		CreatedByID: creator.ID,
	}
	require.NoError(t, db.DB.Create(&assignment).Error)

	return assignment
}
