package content

import (
	"embed"
	"io/fs"
)

//go:embed assets
var assets embed.FS

// Assets returns the embedded bundle rooted at the assets directory.
// Locators in the manifest are paths inside it.
func Assets() fs.FS {
	sub, err := fs.Sub(assets, "assets")
	if err != nil {
		// The directory is embedded above; Sub only fails on invalid names.
		panic(err)
	}
	return sub
}
