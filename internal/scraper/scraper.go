package scraper

import (
	"io/fs"

	"courtscrape/internal/site"
)

// Definition is a court site as registered by its package.
type Definition struct {
	Config site.Config
	// Examples holds the saved pages the site is validated against.
	Examples fs.FS
}

// Name is the registry key, the site's court id.
func (d Definition) Name() string { return d.Config.CourtID }

// Content is anything the CLI can render in each output format.
type Content interface {
	ToHTML() (string, error)
	ToText() (string, error)
	ToMarkdown() (string, error)
	ToJSON() ([]byte, error)
	ToCSV() (string, error)
}
