package formatter

import (
	"fmt"
	"path/filepath"
	"strings"

	"courtscrape/internal/scraper"
)

// Formats lists the accepted output format names.
var Formats = []string{"html", "text", "markdown", "json", "csv"}

func Format(content scraper.Content, format string) (string, error) {
	switch format {
	case "html":
		return content.ToHTML()
	case "text":
		return content.ToText()
	case "markdown":
		return content.ToMarkdown()
	case "csv":
		return content.ToCSV()
	case "json":
		b, err := content.ToJSON()
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// FromExtension infers a format from an output file name, or "" when the
// extension is not recognized.
func FromExtension(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md", ".markdown":
		return "markdown"
	case ".json":
		return "json"
	case ".html", ".htm":
		return "html"
	case ".txt":
		return "text"
	case ".csv":
		return "csv"
	default:
		return ""
	}
}
