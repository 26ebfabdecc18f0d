package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carebridge/call-signaling/internal/auth"
)

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// Login handles user login and JWT generation.
// For demo purposes, accepts any username/password combination.
// In production the platform API issues these tokens instead.
func Login(authn *auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request body",
			})
			return
		}

		role := req.Role
		if role == "" {
			role = auth.RolePatient
		}
		if role != auth.RolePatient && role != auth.RoleDoctor {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "role must be patient or doctor",
			})
			return
		}

		displayName := req.DisplayName
		if displayName == "" {
			displayName = req.Username
		}

		// For demo: the username doubles as the user id.
		userID := req.Username

		token, err := authn.Sign(userID, role, displayName)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to generate token",
			})
			return
		}

		c.JSON(http.StatusOK, LoginResponse{
			Token:  token,
			UserID: userID,
			Role:   role,
		})
	}
}
