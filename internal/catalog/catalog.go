// Package catalog loads yoga classes from TOML and seeds them into storage.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/hperssn/yofit/internal/domain"
	"github.com/hperssn/yofit/internal/player"
	"github.com/hperssn/yofit/internal/storage"
)

//go:embed classes.toml
var defaultCatalog []byte

type catalogFile struct {
	Classes []classRecord `toml:"class"`
}

type classRecord struct {
	ID           string       `toml:"id"`
	Title        string       `toml:"title"`
	Description  string       `toml:"description"`
	Instructor   string       `toml:"instructor"`
	Duration     int          `toml:"duration"`
	Level        string       `toml:"level"`
	Category     string       `toml:"category"`
	Goals        []string     `toml:"goals"`
	Premium      *bool        `toml:"premium"`
	VideoURL     string       `toml:"video_url"`
	ThumbnailURL string       `toml:"thumbnail_url"`
	Steps        []stepRecord `toml:"step"`
}

type stepRecord struct {
	Kind        string `toml:"kind"`
	Label       string `toml:"label"`
	Instruction string `toml:"instruction"`
	MediaRef    string `toml:"media"`
	Duration    int    `toml:"duration"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func slug(title string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

func (c classRecord) toDomain() domain.YogaClass {
	id := c.ID
	if id == "" {
		id = slug(c.Title)
	}
	premium := true
	if c.Premium != nil {
		premium = *c.Premium
	}

	class := domain.YogaClass{
		ID:              id,
		Title:           c.Title,
		Description:     c.Description,
		InstructorName:  c.Instructor,
		DurationMinutes: c.Duration,
		Level:           domain.Level(c.Level),
		Category:        c.Category,
		Goals:           c.Goals,
		VideoURL:        c.VideoURL,
		ThumbnailURL:    c.ThumbnailURL,
		Premium:         premium,
	}
	if class.Goals == nil {
		class.Goals = []string{}
	}
	for i, s := range c.Steps {
		class.Sequence = append(class.Sequence, domain.Step{
			Index:       i,
			Kind:        player.Kind(s.Kind),
			Duration:    s.Duration,
			Label:       s.Label,
			Instruction: s.Instruction,
			MediaRef:    s.MediaRef,
		})
	}
	return class
}

// Load decodes and validates a catalog. Unknown keys are rejected.
func Load(r io.Reader) ([]domain.YogaClass, error) {
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]bool, len(file.Classes))
	classes := make([]domain.YogaClass, 0, len(file.Classes))
	for i, rec := range file.Classes {
		class := rec.toDomain()
		if err := class.Validate(); err != nil {
			return nil, fmt.Errorf("class %d: %w", i, err)
		}
		if seen[class.ID] {
			return nil, fmt.Errorf("class %d: %w: duplicate id %q", i, domain.ErrInvalidClass, class.ID)
		}
		seen[class.ID] = true
		classes = append(classes, class)
	}
	return classes, nil
}

func LoadFile(path string) ([]domain.YogaClass, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(f)
}

// Default returns the built-in catalog.
func Default() ([]domain.YogaClass, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// Seed upserts classes. Creation times are staggered so listing order
// follows catalog order.
func Seed(ctx context.Context, store storage.ClassStore, classes []domain.YogaClass, now time.Time) error {
	for i := range classes {
		class := classes[i]
		if class.CreatedAt.IsZero() {
			class.CreatedAt = now.Add(-time.Duration(i) * time.Second)
		}
		if err := store.SaveClass(ctx, &class); err != nil {
			return fmt.Errorf("seed %s: %w", class.ID, err)
		}
	}
	return nil
}
