package manifest

import (
	"context"
	"html"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"inspirewall/pkg/models"
)

// Fallback returns the built-in list used when no usable manifest is found.
func Fallback() []models.Wallpaper {
	return []models.Wallpaper{
		{Src: "assets/wallpaper-1.jpg", Alt: "InspireWall motivational wallpaper 1", Desc: "Find focus in quiet moments — daily motivation."},
		{Src: "assets/wallpaper-2.jpg", Alt: "InspireWall motivational wallpaper 2", Desc: "Small wins add up — celebrate progress."},
		{Src: "assets/wallpaper-3.jpg", Alt: "InspireWall motivational wallpaper 3", Desc: "Create the life you want, one step at a time."},
		{Src: "assets/wallpaper-4.jpg", Alt: "InspireWall motivational wallpaper 4", Desc: "Start strong, stay steady — consistency multiplies results."},
		{Src: "assets/wallpaper-5.jpg", Alt: "InspireWall motivational wallpaper 5", Desc: "Dream, plan, execute — repeat."},
	}
}

// Loader tries its sources in order and returns the first non-empty manifest.
type Loader struct {
	Sources []Source
	Logger  *slog.Logger

	policy *bluemonday.Policy
}

func NewLoader(logger *slog.Logger, sources ...Source) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		Sources: sources,
		Logger:  logger,
		policy:  bluemonday.StrictPolicy(),
	}
}

// SiteSources are the two manifest locations a site directory can carry,
// root copy first.
func SiteSources(siteDir string) []Source {
	return []Source{
		NewFileSource(filepath.Join(siteDir, "wallpapers.json")),
		NewFileSource(filepath.Join(siteDir, "assets", "wallpapers.json")),
	}
}

// Load never fails: a missing, broken, or empty manifest yields Fallback.
func (l *Loader) Load(ctx context.Context) []models.Wallpaper {
	for _, src := range l.Sources {
		entries, err := src.Fetch(ctx)
		if err != nil {
			l.Logger.Debug("manifest: source unavailable", "source", src.Name(), "error", err)
			continue
		}
		if len(entries) == 0 {
			continue
		}
		cleaned := l.Clean(entries)
		if len(cleaned) == 0 {
			l.Logger.Warn("manifest: no valid entries, using fallback", "source", src.Name())
			return Fallback()
		}
		l.Logger.Info("manifest: loaded", "source", src.Name(), "entries", len(cleaned))
		return cleaned
	}

	l.Logger.Warn("manifest: not found, using fallback")
	return Fallback()
}

// Clean drops entries without a usable src and strips markup from alt and desc.
func (l *Loader) Clean(entries []models.Wallpaper) []models.Wallpaper {
	out := make([]models.Wallpaper, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.Src) == "" {
			continue
		}
		e.Alt = l.sanitize(e.Alt)
		e.Desc = l.sanitize(e.Desc)
		out = append(out, e)
	}
	return out
}

func (l *Loader) sanitize(s string) string {
	if s == "" {
		return s
	}
	if l.policy == nil {
		l.policy = bluemonday.StrictPolicy()
	}
	// the policy escapes entities; the page sets text, not HTML
	return html.UnescapeString(l.policy.Sanitize(s))
}
