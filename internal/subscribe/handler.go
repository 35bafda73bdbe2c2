package subscribe

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Sources reported in the subscribe response.
const (
	SourceMailchimp     = "mailchimp"
	SourceLocal         = "local"
	SourceLocalFallback = "local-fallback"
	SourceError         = "error"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail is the same shape check the signup form applies.
func ValidEmail(email string) bool {
	return email != "" && emailPattern.MatchString(email)
}

type Handler struct {
	Log *EmailLog
	// Audit and Upstream are optional.
	Audit    *Repo
	Upstream Upstream
	Logger   *slog.Logger
}

func NewHandler(log *EmailLog, audit *Repo, upstream Upstream, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Log: log, Audit: audit, Upstream: upstream, Logger: logger}
}

// RegisterRoutes mounts the public subscribe route and, behind admin, the
// read routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, admin gin.HandlerFunc) {
	rg.POST("/subscribe", h.subscribe)
	rg.GET("/emails", admin, h.emails)
	rg.GET("/admin/subscriptions", admin, h.attempts)
}

type subscribeReq struct {
	Email any `json:"email"`
}

// emailFrom coerces the posted value the way a form field would be read.
func emailFrom(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(e)
	case json.Number:
		return e.String()
	default:
		return strings.TrimSpace(fmt.Sprint(e))
	}
}

func (h *Handler) subscribe(c *gin.Context) {
	var req subscribeReq
	_ = c.ShouldBindJSON(&req)

	email := emailFrom(req.Email)
	if !ValidEmail(email) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid email"})
		return
	}

	ctx := c.Request.Context()

	if h.Upstream != nil {
		res, err := h.Upstream.Upsert(ctx, email)
		if err != nil {
			h.fail(c, email, err)
			return
		}
		if _, err := h.Log.Append(email); err != nil {
			h.fail(c, email, err)
			return
		}
		if res.OK {
			h.audit(c, email, SourceMailchimp, res.Status)
			c.JSON(http.StatusOK, gin.H{"success": true, "source": SourceMailchimp, "data": res.Body})
			return
		}
		h.Logger.Error("subscribe: upstream rejected member",
			"upstream", h.Upstream.Name(), "status", res.Status, "body", string(res.Body))
		h.audit(c, email, SourceLocalFallback, res.Status)
		c.JSON(http.StatusOK, gin.H{"success": true, "source": SourceLocalFallback, "error": res.Body})
		return
	}

	if _, err := h.Log.Append(email); err != nil {
		h.fail(c, email, err)
		return
	}
	h.audit(c, email, SourceLocal, 0)
	c.JSON(http.StatusOK, gin.H{"success": true, "source": SourceLocal})
}

// fail answers 500 after one more best-effort attempt at the local log.
func (h *Handler) fail(c *gin.Context, email string, cause error) {
	h.Logger.Error("subscribe: failed", "error", cause)
	if _, err := h.Log.Append(email); err != nil {
		h.Logger.Warn("subscribe: local backup failed", "error", err)
	}
	h.audit(c, email, SourceError, 0)
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal Server Error"})
}

func (h *Handler) audit(c *gin.Context, email, source string, status int) {
	if h.Audit == nil {
		return
	}
	if _, err := h.Audit.Record(c.Request.Context(), email, source, status); err != nil {
		h.Logger.Warn("subscribe: audit write failed", "error", err)
	}
}

func (h *Handler) emails(c *gin.Context) {
	all, err := h.Log.All()
	if err != nil {
		h.Logger.Error("subscribe: read email log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(all), "emails": all})
}

func (h *Handler) attempts(c *gin.Context) {
	if h.Audit == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit log disabled"})
		return
	}
	q := ListQuery{
		Email:  strings.TrimSpace(c.Query("email")),
		Limit:  parseInt(c.Query("limit"), 100),
		Offset: parseInt(c.Query("offset"), 0),
	}

	total, err := h.Audit.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}
	items, err := h.Audit.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"total":   total,
		"items":   items,
	})
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
