package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"inspirewall/pkg/models"
)

// Source is one place a manifest can come from.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Wallpaper, error)
}

// FileSource reads a manifest from disk.
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return "file:" + s.Path }

func (s *FileSource) Fetch(ctx context.Context) ([]models.Wallpaper, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Decode(data)
}

// HTTPSource fetches a manifest published elsewhere, e.g. a CDN copy.
type HTTPSource struct {
	URL    string
	Client *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		URL: url,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *HTTPSource) Name() string { return "http:" + s.URL }

func (s *HTTPSource) Fetch(ctx context.Context) ([]models.Wallpaper, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("manifest: build request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("manifest: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("manifest: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("manifest: read body: %w", err)
	}
	return Decode(data)
}

// rawEntry accepts any JSON shape per field so one bad entry does not
// reject the whole document.
type rawEntry struct {
	Src  any `json:"src"`
	Alt  any `json:"alt"`
	Desc any `json:"desc"`
}

// Decode parses a manifest document. Entries that are not objects, or whose
// fields are not strings, decode with those fields empty; Clean drops them later.
func Decode(data []byte) ([]models.Wallpaper, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	out := make([]models.Wallpaper, 0, len(items))
	for _, item := range items {
		var raw rawEntry
		if err := json.Unmarshal(item, &raw); err != nil {
			out = append(out, models.Wallpaper{})
			continue
		}
		out = append(out, models.Wallpaper{
			Src:  asString(raw.Src),
			Alt:  asString(raw.Alt),
			Desc: asString(raw.Desc),
		})
	}
	return out, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
