package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type ServerConfig struct {
	Addr       string
	SyncAddr   string
	SiteDir    string
	DataFile   string
	CORSOrigin string
	// ShowcaseConfigPath points at an optional YAML file with showcase timings.
	ShowcaseConfigPath string
}

func LoadServerConfig() ServerConfig {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	siteDir := os.Getenv("SITE_DIR")
	if siteDir == "" {
		siteDir = "."
	}

	dataFile := os.Getenv("DATA_FILE")
	if dataFile == "" {
		dataFile = filepath.Join("data", "emails.json")
	}

	origin := os.Getenv("CORS_ORIGIN")
	if origin == "" {
		origin = "*"
	}

	syncAddr := os.Getenv("INSPIREWALL_SYNC_ADDR")
	if syncAddr == "" {
		syncAddr = ":7070"
	}

	return ServerConfig{
		Addr:               ":" + strings.TrimPrefix(port, ":"),
		SyncAddr:           syncAddr,
		SiteDir:            siteDir,
		DataFile:           dataFile,
		CORSOrigin:         origin,
		ShowcaseConfigPath: os.Getenv("INSPIREWALL_CONFIG"),
	}
}

type AuthConfig struct {
	AdminSecret string
	// AdminSecretHash is a bcrypt hash; when set it wins over AdminSecret.
	AdminSecretHash string
	JWTSecret       string
	JWTIssuer       string
	JWTDuration     time.Duration
}

func LoadAuthConfig() AuthConfig {
	adminSecret := os.Getenv("ADMIN_SECRET")
	if adminSecret == "" {
		// dev default (change for demo / production)
		adminSecret = "dev-secret"
	}

	secret := os.Getenv("INSPIREWALL_JWT_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
	}

	issuer := os.Getenv("INSPIREWALL_JWT_ISSUER")
	if issuer == "" {
		issuer = "inspirewall"
	}

	return AuthConfig{
		AdminSecret:     adminSecret,
		AdminSecretHash: os.Getenv("ADMIN_SECRET_HASH"),
		JWTSecret:       secret,
		JWTIssuer:       issuer,
		JWTDuration:     parseHours(os.Getenv("INSPIREWALL_JWT_TTL_HOURS"), 12*time.Hour),
	}
}

type MailchimpConfig struct {
	APIKey string
	ListID string
}

// Enabled reports whether both the key and the list are configured.
func (c MailchimpConfig) Enabled() bool {
	return c.APIKey != "" && c.ListID != ""
}

func LoadMailchimpConfig() MailchimpConfig {
	return MailchimpConfig{
		APIKey: strings.TrimSpace(os.Getenv("MAILCHIMP_API_KEY")),
		ListID: strings.TrimSpace(os.Getenv("MAILCHIMP_LIST_ID")),
	}
}

// parseHours reads a positive whole number of hours, falling back to def.
func parseHours(s string, def time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return time.Duration(n) * time.Hour
}
