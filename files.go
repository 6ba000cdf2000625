package inventory

import (
	"embed"
	"io/fs"
)

//go:embed views/*.html
var viewsFS embed.FS

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

// GetViewsFS returns the page templates rooted at the views directory.
func GetViewsFS() fs.FS {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	return sub
}

// GetFixturesFS returns the bundled seed fixtures.
func GetFixturesFS() embed.FS {
	return fixturesFS
}

// DefaultFixturesPath is the bundled demo fixture file.
const DefaultFixturesPath = "data/fixtures/demo.yml"
