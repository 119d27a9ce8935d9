// Package content is the post store: the fixed list of post locators, the
// display metadata shown around them, and the embedded bundle they live in.
package content

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/matthewriabinin/blog/internal/fetch"
)

// ErrInvalidManifest is returned when a manifest decodes but fails validation
var ErrInvalidManifest = errors.New("invalid site manifest")

// Link is a titled URL
type Link struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Social is a sidebar social entry. Icon is a symbolic icon reference.
type Social struct {
	Name string `yaml:"name"`
	Icon string `yaml:"icon"`
}

// PostSummary is the card metadata of a featured post
type PostSummary struct {
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	ImageText   string `yaml:"imageText"`

	// Link is a slug; the card points at "/"+Link
	Link string `yaml:"link"`
}

// Href returns the path the card links to
func (p PostSummary) Href() string {
	return "/" + strings.TrimPrefix(p.Link, "/")
}

// MainFeatured is the hero block at the top of the index
type MainFeatured struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Image       string `yaml:"image"`
	ImageText   string `yaml:"imageText"`
	LinkText    string `yaml:"linkText"`
}

// SidebarConfig is rendered in the order given, without filtering
type SidebarConfig struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Archives    []Link   `yaml:"archives"`
	Social      []Social `yaml:"social"`
}

// Chrome is the header and footer around every page
type Chrome struct {
	Title             string `yaml:"title"`
	Sections          []Link `yaml:"sections"`
	FooterTitle       string `yaml:"footerTitle"`
	FooterDescription string `yaml:"footerDescription"`
}

// SinglePage routes a path to one post
type SinglePage struct {
	Path string `yaml:"path"`
	Post string `yaml:"post"`
}

// FeedConfig describes the Atom feed. Title defaults to the site title.
type FeedConfig struct {
	Title     string `yaml:"title"`
	Author    string `yaml:"author"`
	AuthorURI string `yaml:"authorURI"`
}

type manifest struct {
	Chrome       Chrome        `yaml:"chrome"`
	Feed         FeedConfig    `yaml:"feed"`
	MainFeatured MainFeatured  `yaml:"mainFeatured"`
	Featured     []PostSummary `yaml:"featured"`
	Posts        []string      `yaml:"posts"`
	Pages        []SinglePage  `yaml:"pages"`
	Sidebar      SidebarConfig `yaml:"sidebar"`
}

// Site is the static configuration of the blog. It is built once at startup
// and never changes; accessors hand out copies.
type Site struct {
	m manifest
}

// Load decodes and validates a manifest
func Load(r io.Reader) (*Site, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m manifest
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode site manifest: %w", err)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	m.normalize()

	return &Site{m: m}, nil
}

// Default loads the manifest embedded with the binary
func Default() (*Site, error) {
	f, err := Assets().Open("site.yaml")
	if err != nil {
		return nil, fmt.Errorf("open embedded manifest: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// LoadFile loads a manifest from fsys
func LoadFile(fsys fs.FS, name string) (*Site, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open site manifest: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func (m *manifest) validate() error {
	if len(m.Posts) == 0 {
		return fmt.Errorf("%w: no posts", ErrInvalidManifest)
	}
	for i, loc := range m.Posts {
		if strings.TrimSpace(loc) == "" {
			return fmt.Errorf("%w: post %d has an empty locator", ErrInvalidManifest, i)
		}
	}

	seen := make(map[string]bool, len(m.Pages))
	for _, p := range m.Pages {
		if !strings.HasPrefix(p.Path, "/") || p.Path == "/" {
			return fmt.Errorf("%w: page path %q", ErrInvalidManifest, p.Path)
		}
		if p.Post == "" {
			return fmt.Errorf("%w: page %s has no post", ErrInvalidManifest, p.Path)
		}
		if seen[p.Path] {
			return fmt.Errorf("%w: duplicate page %s", ErrInvalidManifest, p.Path)
		}
		seen[p.Path] = true
	}

	for _, f := range m.Featured {
		if f.Link == "" {
			return fmt.Errorf("%w: featured post %q has no link", ErrInvalidManifest, f.Title)
		}
	}
	return nil
}

func (m *manifest) normalize() {
	if m.Feed.Title == "" {
		m.Feed.Title = m.Chrome.Title
	}

	caser := cases.Title(language.English)
	for i := range m.Featured {
		if m.Featured[i].Title == "" {
			m.Featured[i].Title = TitleFromSlug(caser, m.Featured[i].Link)
		}
	}
}

// TitleFromSlug turns "grad-optimization" into "Grad Optimization"
func TitleFromSlug(caser cases.Caser, slug string) string {
	slug = path.Base(strings.Trim(slug, "/"))
	slug = strings.NewReplacer("-", " ", "_", " ").Replace(slug)
	return caser.String(slug)
}

// Chrome returns the header and footer configuration
func (s *Site) Chrome() Chrome {
	c := s.m.Chrome
	c.Sections = append([]Link(nil), c.Sections...)
	return c
}

// Feed returns the Atom feed configuration
func (s *Site) Feed() FeedConfig {
	return s.m.Feed
}

// MainFeatured returns the hero post
func (s *Site) MainFeatured() MainFeatured {
	return s.m.MainFeatured
}

// Featured returns the featured cards in configuration order
func (s *Site) Featured() []PostSummary {
	return append([]PostSummary(nil), s.m.Featured...)
}

// Posts returns the locators of the index feed in configuration order
func (s *Site) Posts() []string {
	return append([]string(nil), s.m.Posts...)
}

// Pages returns the single-post routes in configuration order
func (s *Site) Pages() []SinglePage {
	return append([]SinglePage(nil), s.m.Pages...)
}

// Sidebar returns the sidebar configuration
func (s *Site) Sidebar() SidebarConfig {
	sb := s.m.Sidebar
	sb.Archives = append([]Link(nil), sb.Archives...)
	sb.Social = append([]Social(nil), sb.Social...)
	return sb
}

// Check verifies that every locator the site references exists in fsys,
// resolving names the way fetch.FSFetcher does
func (s *Site) Check(fsys fs.FS) error {
	var missing []string
	check := func(loc string) {
		if _, err := fs.Stat(fsys, fetch.FSName(loc)); err != nil {
			missing = append(missing, loc)
		}
	}
	for _, loc := range s.m.Posts {
		check(loc)
	}
	for _, p := range s.m.Pages {
		check(p.Post)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidManifest, strings.Join(missing, ", "))
	}
	return nil
}
