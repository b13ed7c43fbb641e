package httpHandler

import (
	"net/http"

	"siar-server/usecases"

	"github.com/gin-gonic/gin"
)

type LoginHandler struct {
	useCase *usecases.AuthUseCase
}

func NewLoginHandler(useCase *usecases.AuthUseCase) *LoginHandler {
	return &LoginHandler{useCase: useCase}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Success  bool   `json:"success"`
}

// Register handles POST /api/v1/auth/register
func (h *LoginHandler) Register(c *gin.Context) {
	var req usecases.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.useCase.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"data":    user,
	})
}

// Login authenticates a user and returns a bearer token
func (h *LoginHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	token, user, err := h.useCase.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		UserID:   user.ID,
		Username: user.Username,
		Success:  true,
	})
}

// Me handles GET /api/v1/me
func (h *LoginHandler) Me(c *gin.Context) {
	user, err := h.useCase.Me(c.Request.Context(), UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": user})
}
