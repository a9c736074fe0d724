package handlers

import (
	"net/http"
	"strings"

	"taskhub/internal/database"
	"taskhub/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type registerForm struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
}

func Register(c *gin.Context) {
	var form registerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, "invalid registration data")
		return
	}

	form.Email = strings.ToLower(strings.TrimSpace(form.Email))

	var existing models.User
	if err := database.DB.Where("email = ?", form.Email).First(&existing).Error; err == nil {
		errorResponse(c, http.StatusUnprocessableEntity, "user already exists")
		return
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	user := models.User{
		FirstName:    strings.TrimSpace(form.FirstName),
		LastName:     strings.TrimSpace(form.LastName),
		Email:        form.Email,
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := database.DB.Create(&user).Error; err != nil {
		errorResponse(c, http.StatusInternalServerError, "failed to create user")
		return
	}

	successResponse(c, http.StatusCreated, user, "Registered successfully.")
}

type loginForm struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBindJSON(&form); err != nil {
		errorResponse(c, http.StatusUnprocessableEntity, "invalid credentials payload")
		return
	}

	var user models.User
	if err := database.DB.Where("email = ?", strings.ToLower(form.Email)).First(&user).Error; err != nil {
		errorResponse(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(form.Password)); err != nil {
		errorResponse(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	_ = sess.Save()

	successResponse(c, http.StatusOK, user, "Logged in successfully.")
}

func Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()

	successResponse(c, http.StatusOK, nil, "Logged out successfully.")
}
