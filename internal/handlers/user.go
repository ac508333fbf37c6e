package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/coursedeck-dev/coursedeck/db"
	"github.com/coursedeck-dev/coursedeck/internal/models"
	"github.com/coursedeck-dev/coursedeck/internal/types"
	"github.com/coursedeck-dev/coursedeck/internal/utils"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UpdateUserRequest struct {
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	PhoneNum        string     `json:"phone_num"`
	Address         string     `json:"address"`
	DOB             *time.Time `json:"dob"`
	CurrentPassword string     `json:"current_password"`
	NewPassword     string     `json:"new_password" binding:"omitempty,min=8"`
}

func ListUsers(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !currentUser.IsAdmin() {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
		return
	}

	var users []models.User

	if err := db.DB.Find(&users).Error; err != nil {
		log.Printf("Failed to list users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for i := range users {
		response = append(response, userResponse(&users[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"users": response})
}

func GetUser(ctx *gin.Context) {
	username := ctx.Param("username")

	var user models.User

	if err := db.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "User not found"})
		} else {
			log.Printf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": userResponse(&user)})
}

// SearchUsers filters by profile fields. The age parameter converts to a
// date-of-birth range the same way the rest of the profile filters match
// exact columns.
func SearchUsers(ctx *gin.Context) {
	query := db.DB.Model(&models.User{})

	if firstName := ctx.Query("firstname"); firstName != "" {
		query = query.Where("first_name = ?", firstName)
	}

	if lastName := ctx.Query("lastname"); lastName != "" {
		query = query.Where("last_name = ?", lastName)
	}

	if phoneNum := ctx.Query("phone_num"); phoneNum != "" {
		query = query.Where("phone_num = ?", phoneNum)
	}

	if address := ctx.Query("address"); address != "" {
		query = query.Where("address LIKE ?", "%"+address+"%")
	}

	if ageStr := ctx.Query("age"); ageStr != "" {
		age, err := strconv.Atoi(ageStr)

		if err != nil || age < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid age"})
			return
		}

		now := time.Now()
		begin := now.AddDate(-(age + 1), 0, 1)
		end := now.AddDate(-age, 0, 0)
		query = query.Where("dob BETWEEN ? AND ?", begin, end)
	}

	var users []models.User

	if err := query.Find(&users).Error; err != nil {
		log.Printf("Failed to search users: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]types.UserResponse, 0, len(users))

	for i := range users {
		response = append(response, userResponse(&users[i]))
	}

	ctx.JSON(http.StatusOK, gin.H{"users": response})
}

func UpdateUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	username := ctx.Param("username")

	if username != currentUser.Username && !currentUser.IsAdmin() {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You can only edit your own profile"})
		return
	}

	var dbUser models.User

	if err := db.DB.Where("username = ?", username).First(&dbUser).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "User not found"})
		} else {
			log.Printf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var req UpdateUserRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updates := make(map[string]interface{})

	if req.FirstName != "" {
		updates["first_name"] = strings.TrimSpace(req.FirstName)
	}

	if req.LastName != "" {
		updates["last_name"] = strings.TrimSpace(req.LastName)
	}

	if req.PhoneNum != "" {
		updates["phone_num"] = strings.TrimSpace(req.PhoneNum)
	}

	if req.Address != "" {
		updates["address"] = strings.TrimSpace(req.Address)
	}

	if req.DOB != nil {
		updates["dob"] = req.DOB
	}

	if req.NewPassword != "" {
		if req.CurrentPassword == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is required to change password"})
			return
		}

		err = bcrypt.CompareHashAndPassword([]byte(dbUser.PasswordHash), []byte(req.CurrentPassword))
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
			return
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash new password: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		updates["password_hash"] = string(passwordHash)
	}

	if len(updates) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return
	}

	if err := db.DB.Model(&dbUser).Updates(updates).Error; err != nil {
		log.Printf("Failed to update user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.First(&dbUser, dbUser.ID).Error; err != nil {
		log.Printf("Failed to refresh user data: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    userResponse(&dbUser),
	})
}

func DeleteUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !currentUser.IsAdmin() {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
		return
	}

	username := ctx.Param("username")

	var user models.User

	if err := db.DB.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "User not found"})
		} else {
			log.Printf("Failed to fetch user: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if user.IsAdmin() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Admin accounts cannot be deleted"})
		return
	}

	if err := db.DB.Select("Enrollments", "Submissions").Delete(&user).Error; err != nil {
		log.Printf("Failed to delete user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
