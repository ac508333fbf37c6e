package router

import (
	"time"

	"github.com/coursedeck-dev/coursedeck/internal/handlers"
	"github.com/coursedeck-dev/coursedeck/internal/metrics"
	"github.com/coursedeck-dev/coursedeck/internal/middleware"
	"github.com/coursedeck-dev/coursedeck/internal/types"
	"github.com/coursedeck-dev/coursedeck/internal/validation"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter() *gin.Engine {
	validation.Register()

	r := gin.Default()

	r.Use(metrics.Middleware())

	// Add CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)
		}

		users := api.Group("/users", middleware.AuthMiddleware())
		{
			users.GET("", handlers.ListUsers)
			users.GET("/search", handlers.SearchUsers)
			users.GET("/:username", handlers.GetUser)
			users.PATCH("/:username", handlers.UpdateUser)
			users.DELETE("/:username", handlers.DeleteUser)
			users.DELETE("/:username/enrollments", handlers.WithdrawAllCourses)
		}

		courses := api.Group("/courses", middleware.AuthMiddleware())
		{
			courses.POST("", handlers.CreateCourse)
			courses.GET("", handlers.ListCourses)
			courses.GET("/search", handlers.SearchCourses)
			courses.GET("/:course_code", handlers.GetCourse)
			courses.PATCH("/:course_code", handlers.UpdateCourse)
			courses.DELETE("/:course_code", handlers.DeleteCourse)
			courses.GET("/:course_code/users", handlers.ListCourseUsers)

			// Enrollment endpoints
			courses.POST("/:course_code/enroll", handlers.EnrollCourse)
			courses.DELETE("/:course_code/withdraw", handlers.WithdrawCourse)
			courses.PUT("/:course_code/promote", handlers.PromoteTutor)
			courses.PUT("/:course_code/demote", handlers.DemoteTutor)
			courses.DELETE("/:course_code/enrollments", handlers.ClearEnrollments)

			// Assignment endpoints
			courses.GET("/:course_code/assignments", handlers.ListAssignments)
			courses.POST("/:course_code/assignments", handlers.CreateAssignment)
			courses.PATCH("/:course_code/assignments/:assignment_id", handlers.UpdateAssignment)
			courses.DELETE("/:course_code/assignments/:assignment_id", handlers.DeleteAssignment)

			// Submission endpoints
			courses.GET("/:course_code/submissions", handlers.ListCourseSubmissions)
			courses.GET("/:course_code/assignments/:assignment_id/submissions", handlers.ListAssignmentSubmissions)
			courses.POST("/:course_code/assignments/:assignment_id/submissions", handlers.CreateSubmission)
		}

		submissions := api.Group("/submissions", middleware.AuthMiddleware())
		{
			submissions.PUT("/:submission_id/grade", handlers.GradeSubmission)
			submissions.PATCH("/:submission_id", handlers.UpdateSubmission)
			submissions.DELETE("/:submission_id", handlers.DeleteSubmission)
		}
	}

	return r
}
