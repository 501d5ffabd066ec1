package handlers

import (
	"errors"
	"net/http"

	"go-pos-terminal/internal/database"

	"github.com/gin-gonic/gin"
)

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=admin cashier"`
}

// --- POST: /login ---
func (h *Handler) Login(c *gin.Context) {
	var input LoginRequest
	// 1. Validate Input JSON
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	// 2. Find the operator and check the bcrypt hash
	op, err := h.Operators.Verify(c.Request.Context(), input.Username, input.Password)
	if errors.Is(err, database.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	// 3. Generate JWT Token
	token, err := h.Signer.GenerateToken(op.ID, op.Username, op.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"role":     op.Role,
		"username": op.Username,
	})
}

// --- POST: /register ---
// The first operator ever registered becomes admin.
func (h *Handler) Register(c *gin.Context) {
	var input RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	role := input.Role
	if n, err := h.Operators.Count(c.Request.Context()); err == nil && n == 0 {
		role = database.RoleAdmin
	}

	op, err := h.Operators.Create(c.Request.Context(), input.Username, input.Password, role)
	if errors.Is(err, database.ErrOperatorExists) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User already exists"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully!", "role": op.Role})
}
