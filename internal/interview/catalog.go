package interview

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalogYAML []byte

type CatalogCategory struct {
	Name   string   `yaml:"name" json:"name"`
	Topics []string `yaml:"topics" json:"topics"`
}

type CatalogTrack struct {
	Key        string            `yaml:"key" json:"key"`
	Role       string            `yaml:"role" json:"role"`
	Categories []CatalogCategory `yaml:"categories" json:"categories"`
}

// Catalog is the canonical topic list, grouped by track and category.
type Catalog struct {
	Tracks []CatalogTrack `yaml:"tracks" json:"tracks"`

	canonical map[string]string
	tracks    map[string]*CatalogTrack
}

// DefaultCatalog parses the embedded catalog. It panics on a malformed
// embedded file, which is a build defect.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalogYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded topic catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog file, falling back to the embedded one when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultCatalog(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topic catalog: %w", err)
	}
	return ParseCatalog(b)
}

func ParseCatalog(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse topic catalog: %w", err)
	}
	if len(c.Tracks) == 0 {
		return nil, fmt.Errorf("topic catalog has no tracks")
	}
	c.index()
	return &c, nil
}

func (c *Catalog) index() {
	c.canonical = map[string]string{}
	c.tracks = map[string]*CatalogTrack{}
	for i := range c.Tracks {
		t := &c.Tracks[i]
		c.tracks[t.Key] = t
		for _, cat := range t.Categories {
			for _, topic := range cat.Topics {
				key := TopicKey(topic)
				if _, seen := c.canonical[key]; !seen {
					c.canonical[key] = topic
				}
			}
		}
	}
}

// Normalize maps a topic name to its canonical spelling. Unknown names are
// returned trimmed but otherwise unchanged.
func (c *Catalog) Normalize(topic string) string {
	trimmed := strings.TrimSpace(topic)
	if c == nil {
		return trimmed
	}
	if canon, ok := c.canonical[TopicKey(trimmed)]; ok {
		return canon
	}
	return trimmed
}

func (c *Catalog) Track(key string) (CatalogTrack, bool) {
	if c == nil {
		return CatalogTrack{}, false
	}
	t, ok := c.tracks[key]
	if !ok {
		return CatalogTrack{}, false
	}
	return *t, true
}

// CategoryOf finds the category that lists topic within track.
func (c *Catalog) CategoryOf(track, topic string) (string, bool) {
	t, ok := c.Track(track)
	if !ok {
		return "", false
	}
	key := TopicKey(topic)
	for _, cat := range t.Categories {
		for _, name := range cat.Topics {
			if TopicKey(name) == key {
				return cat.Name, true
			}
		}
	}
	return "", false
}

// PromptList renders the categories of a track as "- Category: a, b" lines.
// An unknown track renders nothing.
func (c *Catalog) PromptList(track string) string {
	t, ok := c.Track(track)
	if !ok {
		return ""
	}
	var b strings.Builder
	for _, cat := range t.Categories {
		b.WriteString("- ")
		b.WriteString(cat.Name)
		b.WriteString(": ")
		b.WriteString(strings.Join(cat.Topics, ", "))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
