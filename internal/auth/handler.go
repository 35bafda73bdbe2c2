package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	Secrets SecretVerifier
	Tokens  TokenService
}

func NewHandler(secrets SecretVerifier, tokens TokenService) *Handler {
	return &Handler{Secrets: secrets, Tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/token", h.token)
}

type tokenReq struct {
	Secret string `json:"secret"`
}

// token exchanges the admin secret for a bearer token.
func (h *Handler) token(c *gin.Context) {
	var req tokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !h.Secrets.Verify(req.Secret) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	token, exp, err := h.Tokens.Sign("admin-" + uuid.NewString())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}
