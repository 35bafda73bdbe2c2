package manifest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math/rand/v2"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	_ "golang.org/x/image/webp"

	"inspirewall/pkg/models"
)

// DefaultDescriptions are handed out, shuffled, to images that have no
// description yet.
var DefaultDescriptions = []string{
	"Find focus in quiet moments — daily motivation to keep you going.",
	"Small wins add up — celebrate progress, not perfection.",
	"Create the life you want, one step at a time.",
	"Start strong, stay steady — consistency multiplies results.",
	"Dream, plan, execute — repeat.",
	"Keep going — your future self will thank you.",
	"Consistency beats intensity — build the habit.",
	"Focus on progress, not perfection.",
}

var (
	imageExt   = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|webp|gif)$`)
	separators = regexp.MustCompile(`[-_]+`)
	extension  = regexp.MustCompile(`\.[^/.]+$`)
)

// IsImage reports whether name carries one of the showcase image extensions.
func IsImage(name string) bool {
	return imageExt.MatchString(name)
}

// Titleize turns a file name into display words: "my-photo_01.jpg" -> "My Photo 01".
func Titleize(name string) string {
	s := separators.ReplaceAllString(name, " ")
	s = extension.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	b := []byte(s)
	for i := range b {
		if isWordByte(b[i]) && (i == 0 || !isWordByte(b[i-1])) && b[i] >= 'a' && b[i] <= 'z' {
			b[i] -= 'a' - 'A'
		}
	}
	return string(b)
}

func isWordByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

// Generator rebuilds the manifest from the images shipped with the site.
type Generator struct {
	Root   string
	Rand   *rand.Rand
	Logger *slog.Logger
}

func NewGenerator(root string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{Root: root, Logger: logger}
}

// Result describes one generator run. Entries is empty when no images were found.
type Result struct {
	ImagesDir string
	Output    string
	Entries   []models.Wallpaper
}

// ImagesDir prefers images/ and falls back to assets/Images/.
func (g *Generator) ImagesDir() (dir string, underAssets bool) {
	top := filepath.Join(g.Root, "images")
	if _, err := os.Stat(top); err == nil {
		return top, false
	}
	return filepath.Join(g.Root, "assets", "Images"), true
}

// Generate scans the images directory and writes wallpapers.json at the site
// root and, best effort, under assets/. Existing alt and desc values are kept
// for files already listed, matched by base name.
func (g *Generator) Generate(ctx context.Context) (Result, error) {
	dir, underAssets := g.ImagesDir()
	res := Result{ImagesDir: dir, Output: filepath.Join(g.Root, "wallpapers.json")}

	existing := g.existing(ctx)

	files, err := g.scan(dir)
	if err != nil {
		g.logger().Error("manifest: scan images", "dir", dir, "error", err)
		return res, nil
	}
	if len(files) == 0 {
		return res, nil
	}

	descs := append([]string(nil), DefaultDescriptions...)
	shuffle := rand.Shuffle
	if g.Rand != nil {
		shuffle = g.Rand.Shuffle
	}
	shuffle(len(descs), func(i, j int) { descs[i], descs[j] = descs[j], descs[i] })

	prefix := "images/"
	if underAssets {
		prefix = "assets/Images/"
	}

	entries := make([]models.Wallpaper, 0, len(files))
	for idx, file := range files {
		g.probe(filepath.Join(dir, file))

		prior := existing[file]
		alt := prior.Alt
		if alt == "" {
			alt = "InspireWall " + Titleize(file)
		}
		desc := prior.Desc
		if desc == "" {
			desc = descs[idx%len(descs)]
		}
		entries = append(entries, models.Wallpaper{Src: prefix + file, Alt: alt, Desc: desc})
	}

	data, err := Encode(entries)
	if err != nil {
		return res, err
	}
	if err := WriteFileAtomic(res.Output, data); err != nil {
		return res, fmt.Errorf("write manifest: %w", err)
	}
	assetsCopy := filepath.Join(g.Root, "assets", "wallpapers.json")
	if err := WriteFileAtomic(assetsCopy, data); err != nil {
		g.logger().Warn("manifest: assets copy not written", "path", assetsCopy, "error", err)
	}

	res.Entries = entries
	return res, nil
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

// existing indexes the current manifest, root copy first, by image base name.
func (g *Generator) existing(ctx context.Context) map[string]models.Wallpaper {
	byName := make(map[string]models.Wallpaper)
	for _, src := range SiteSources(g.Root) {
		entries, err := src.Fetch(ctx)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.Src == "" {
				continue
			}
			byName[path.Base(filepath.ToSlash(e.Src))] = e
		}
		break
	}
	return byName
}

func (g *Generator) scan(dir string) ([]string, error) {
	items, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, it := range items {
		if it.IsDir() || !IsImage(it.Name()) {
			continue
		}
		files = append(files, it.Name())
	}
	return files, nil
}

// probe logs images whose header cannot be decoded. They stay in the manifest.
func (g *Generator) probe(file string) {
	f, err := os.Open(file)
	if err != nil {
		g.logger().Warn("manifest: open image", "file", file, "error", err)
		return
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		g.logger().Warn("manifest: unreadable image header", "file", file, "error", err)
		return
	}
	g.logger().Debug("manifest: image", "file", file, "format", format, "width", cfg.Width, "height", cfg.Height)
}

// Encode renders entries with two-space indentation and a trailing newline.
func Encode(entries []models.Wallpaper) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if entries == nil {
		entries = []models.Wallpaper{}
	}
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFileAtomic writes data next to path and renames it into place.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}
