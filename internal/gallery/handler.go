package gallery

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"inspirewall/internal/showcase"
	"inspirewall/pkg/models"
)

// StateSource is the part of the showcase engine the gallery reads.
type StateSource interface {
	State() showcase.State
	Config() showcase.Config
}

// Handler serves the loaded manifest and the live showcase state.
type Handler struct {
	Manifest []models.Wallpaper
	Showcase StateSource
}

func NewHandler(manifest []models.Wallpaper, sc StateSource) *Handler {
	return &Handler{Manifest: manifest, Showcase: sc}
}

// RegisterRoutes mounts GET /wallpapers.json on root and the API views on api.
func (h *Handler) RegisterRoutes(root gin.IRoutes, api *gin.RouterGroup) {
	root.GET("/wallpapers.json", h.manifest)
	api.GET("/wallpapers", h.list)
	api.GET("/showcase", h.showcase)
}

// manifest answers with the plain array, the shape the page fetches.
func (h *Handler) manifest(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.JSON(http.StatusOK, h.entries())
}

func (h *Handler) list(c *gin.Context) {
	items := h.entries()
	c.JSON(http.StatusOK, gin.H{
		"total": len(items),
		"items": items,
	})
}

func (h *Handler) showcase(c *gin.Context) {
	if h.Showcase == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "showcase not running"})
		return
	}
	cfg := h.Showcase.Config()
	c.JSON(http.StatusOK, gin.H{
		"state": h.Showcase.State(),
		"config": gin.H{
			"slots":          cfg.Slots,
			"rotateInterval": cfg.RotateInterval.Milliseconds(),
			"fadeDuration":   cfg.FadeDuration.Milliseconds(),
			"resumeDelay":    cfg.ResumeDelay.Milliseconds(),
		},
	})
}

func (h *Handler) entries() []models.Wallpaper {
	if h.Manifest == nil {
		return []models.Wallpaper{}
	}
	return h.Manifest
}
