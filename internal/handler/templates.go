package handler

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/factshield/factshield/internal/domain"
	"github.com/factshield/factshield/internal/markdown"
)

const (
	baseTemplate     = "base.html"
	partialsTemplate = "partials.html"
)

// LoadTemplates parses every page in fsys together with the base layout and
// the shared partials, keyed by page file name.
func LoadTemplates(fsys fs.FS, textProcessor *markdown.TextProcessor) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"markdown":   textProcessor.Render,
		"excerpt":    textProcessor.Excerpt,
		"formatSize": formatSize,
		"formatTime": formatTime,
		"uploadURL":  uploadURL,
		"fileURL":    fileURL,
	}

	pages, err := fs.Glob(fsys, "*.html")
	if err != nil {
		return nil, err
	}

	templates := make(map[string]*template.Template)
	for _, page := range pages {
		name := path.Base(page)
		if name == baseTemplate || name == partialsTemplate {
			continue
		}
		tmpl, err := template.New(baseTemplate).Funcs(funcs).ParseFS(fsys, baseTemplate, partialsTemplate, page)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

// uploadURL is the public download link of an attachment.
func uploadURL(f domain.File) string {
	return "/uploads/" + url.PathEscape(f.Filename)
}

// fileURL addresses one attachment by id, unaffected by later uploads
// sharing its display name.
func fileURL(f domain.File) string {
	return "/files/" + strconv.FormatInt(f.Id, 10) + "/" + url.PathEscape(f.Filename)
}
