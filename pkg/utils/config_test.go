package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "SITE_DIR", "DATA_FILE", "CORS_ORIGIN", "INSPIREWALL_SYNC_ADDR", "INSPIREWALL_CONFIG"} {
		t.Setenv(k, "")
	}
	cfg := LoadServerConfig()
	if cfg.Addr != ":3001" || cfg.SiteDir != "." || cfg.CORSOrigin != "*" || cfg.SyncAddr != ":7070" {
		t.Fatalf("defaults: %+v", cfg)
	}

	t.Setenv("PORT", "8080")
	if got := LoadServerConfig().Addr; got != ":8080" {
		t.Fatalf("addr: %s", got)
	}
}

func TestLoadAuthConfig(t *testing.T) {
	t.Setenv("ADMIN_SECRET", "")
	t.Setenv("INSPIREWALL_JWT_TTL_HOURS", "")
	cfg := LoadAuthConfig()
	if cfg.AdminSecret != "dev-secret" || cfg.JWTDuration != 12*time.Hour {
		t.Fatalf("defaults: %+v", cfg)
	}

	t.Setenv("ADMIN_SECRET", "s3cret")
	t.Setenv("INSPIREWALL_JWT_TTL_HOURS", "2")
	cfg = LoadAuthConfig()
	if cfg.AdminSecret != "s3cret" || cfg.JWTDuration != 2*time.Hour {
		t.Fatalf("env: %+v", cfg)
	}

	t.Setenv("INSPIREWALL_JWT_TTL_HOURS", "-1")
	if got := LoadAuthConfig().JWTDuration; got != 12*time.Hour {
		t.Fatalf("negative ttl: %s", got)
	}
}

func TestMailchimpConfigEnabled(t *testing.T) {
	t.Setenv("MAILCHIMP_API_KEY", "key-us1")
	t.Setenv("MAILCHIMP_LIST_ID", "")
	if LoadMailchimpConfig().Enabled() {
		t.Fatal("enabled without a list id")
	}
	t.Setenv("MAILCHIMP_LIST_ID", " list ")
	cfg := LoadMailchimpConfig()
	if !cfg.Enabled() || cfg.ListID != "list" {
		t.Fatalf("config: %+v", cfg)
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS("https://inspirewall.example"))
	r.POST("/api/subscribe", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/subscribe", nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight: %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://inspirewall.example" {
		t.Fatalf("origin header: %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/subscribe", nil))
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("post: %d %v", w.Code, w.Header())
	}
}
