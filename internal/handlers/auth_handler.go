package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/services"
)

type signupRequest struct {
	Title     string `json:"title"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Phone     string `json:"phone" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	Address   string `json:"address"`
}

func Signup(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		user := &models.User{
			Title:     req.Title,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Username:  req.Username,
			Email:     req.Email,
			Phone:     req.Phone,
			Address:   req.Address,
		}
		created, err := us.Register(c.Request.Context(), user, req.Password)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "Account created successfully"))
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns the access token both in the body
// and as an httpOnly cookie for browser clients.
func Login(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse(err.Error()))
			return
		}

		token, user, err := us.Authenticate(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			// Credential failures come back as invalid-argument; report 401.
			c.JSON(http.StatusUnauthorized, models.ErrorResponse("invalid username or password"))
			return
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie("access_token", token, 60*60*24, "/", "", false, true)
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"token": token,
			"user":  user,
		}, "Login successful"))
	}
}

func Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.SetCookie("access_token", "", -1, "/", "", false, true)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out"))
	}
}

// Me returns the profile of the authenticated caller.
func Me(us *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := currentClaims(c)
		if !ok {
			return
		}
		id, err := primitive.ObjectIDFromHex(claims.UserID())
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid user ID in token"))
			return
		}

		user, err := us.GetUser(c.Request.Context(), id)
		if err != nil {
			c.JSON(statusFor(err), models.ErrorResponse(err.Error()))
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(user, ""))
	}
}
