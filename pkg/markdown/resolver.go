package markdown

import (
	"io/fs"
	"path"
	"strings"
)

// Resolver turns an image reference from a post into a servable src.
// base is the directory of the post the reference appears in.
type Resolver interface {
	Resolve(base, ref string) (src string, ok bool)
}

// ResolverFunc adapts a function to Resolver
type ResolverFunc func(base, ref string) (string, bool)

// Resolve calls f
func (f ResolverFunc) Resolve(base, ref string) (string, bool) {
	return f(base, ref)
}

// Chain tries each resolver in order and returns the first hit
func Chain(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(base, ref string) (string, bool) {
		for _, r := range resolvers {
			if src, ok := r.Resolve(base, ref); ok {
				return src, true
			}
		}
		return "", false
	})
}

// Catalog resolves references to files present in fsys, first relative to
// the post's directory and then to the root of fsys. Hits are served under
// urlPrefix.
func Catalog(fsys fs.FS, urlPrefix string) Resolver {
	prefix := "/" + strings.Trim(urlPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	return ResolverFunc(func(base, ref string) (string, bool) {
		if ref == "" || isURL(ref) {
			return "", false
		}

		candidates := []string{path.Join(base, ref), path.Clean(ref)}
		for _, name := range candidates {
			name = strings.TrimPrefix(name, "/")
			if !fs.ValidPath(name) {
				continue
			}
			if info, err := fs.Stat(fsys, name); err == nil && !info.IsDir() {
				return prefix + "/" + name, true
			}
		}
		return "", false
	})
}

// Direct passes any non-empty reference through unchanged as a URL. Relative
// references resolve against the page serving the post.
func Direct() Resolver {
	return ResolverFunc(func(_, ref string) (string, bool) {
		if strings.TrimSpace(ref) == "" {
			return "", false
		}
		return ref, true
	})
}

func isURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "//")
}
