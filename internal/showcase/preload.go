package showcase

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Preloader fetches an image before it becomes visible.
type Preloader interface {
	Preload(ctx context.Context, src string) error
}

// SitePreloader resolves relative sources under Root and probes absolute
// http(s) sources with a HEAD request.
type SitePreloader struct {
	Root   string
	Client *http.Client
}

func NewSitePreloader(root string) *SitePreloader {
	return &SitePreloader{
		Root:   root,
		Client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *SitePreloader) Preload(ctx context.Context, src string) error {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, src, nil)
		if err != nil {
			return fmt.Errorf("preload: build request: %w", err)
		}
		resp, err := p.Client.Do(req)
		if err != nil {
			return fmt.Errorf("preload: request: %w", err)
		}
		resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return fmt.Errorf("preload: %s: status %d", src, resp.StatusCode)
		}
		return nil
	}

	rel := filepath.FromSlash(strings.TrimPrefix(src, "/"))
	if strings.HasPrefix(filepath.Clean(rel), "..") {
		return fmt.Errorf("preload: %s escapes site root", src)
	}
	fi, err := os.Stat(filepath.Join(p.Root, rel))
	if err != nil {
		return fmt.Errorf("preload: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("preload: %s is not a file", src)
	}
	return nil
}
