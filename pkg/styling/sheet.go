// Package styling collects the stylesheets of the site's components into
// one <style> element.
package styling

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/matthewriabinin/blog/pkg/vdom"
)

// Style is one component's CSS
type Style struct {
	Name string
	// Hash identifies the CSS content
	Hash string
	CSS  string
}

// NewStyle compacts css and hashes it
func NewStyle(name, css string) Style {
	css = compact(css)
	h := sha256.Sum256([]byte(css))
	return Style{
		Name: name,
		Hash: "_" + hex.EncodeToString(h[:])[:6],
		CSS:  css,
	}
}

// Sheet is an ordered set of styles. Adding the same CSS twice keeps the
// first copy.
type Sheet struct {
	mu     sync.RWMutex
	styles []Style
	seen   map[string]bool
}

// NewSheet creates an empty sheet
func NewSheet() *Sheet {
	return &Sheet{seen: make(map[string]bool)}
}

// Add appends css under name
func (s *Sheet) Add(name, css string) Style {
	style := NewStyle(name, css)
	if style.CSS == "" {
		return style
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen[style.Hash] {
		return style
	}
	s.seen[style.Hash] = true
	s.styles = append(s.styles, style)
	return style
}

// Styles returns the styles in insertion order
func (s *Sheet) Styles() []Style {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Style(nil), s.styles...)
}

// CSS returns every style joined in insertion order
func (s *Sheet) CSS() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var b strings.Builder
	for _, style := range s.styles {
		b.WriteString(style.CSS)
		b.WriteString("\n")
	}
	return b.String()
}

// Hash identifies the whole sheet, suitable as a cache-busting version
func (s *Sheet) Hash() string {
	h := sha256.Sum256([]byte(s.CSS()))
	return hex.EncodeToString(h[:])[:8]
}

// Node returns the sheet as a <style> element
func (s *Sheet) Node() *vdom.VNode {
	return vdom.NewElement("style", vdom.Props{"data-sheet": s.Hash()}, vdom.NewText(s.CSS()))
}

// compact drops comments and collapses whitespace
func compact(css string) string {
	return strings.Join(strings.Fields(removeComments(css)), " ")
}

func removeComments(css string) string {
	var result strings.Builder
	i := 0
	for i < len(css) {
		if i < len(css)-1 && css[i] == '/' && css[i+1] == '*' {
			i += 2
			for i < len(css)-1 {
				if css[i] == '*' && css[i+1] == '/' {
					break
				}
				i++
			}
			i += 2
			continue
		}
		result.WriteByte(css[i])
		i++
	}
	return result.String()
}
