// Package content serves the portfolio's project records: markdown files
// with YAML front matter, laid out as <dir>/<category>/<slug>.md.
//
// Records are re-read from disk on every call; the content set is small
// and edited out of band, so no cache is kept.
package content

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Meta is the front-matter metadata of one project.
type Meta struct {
	Slug        string `json:"slug" yaml:"-"`
	Title       string `json:"title" yaml:"title"`
	Year        string `json:"year" yaml:"year"`
	Tech        string `json:"tech" yaml:"tech"`
	Status      string `json:"status" yaml:"status"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Project is a full record: metadata plus the markdown body.
type Project struct {
	Meta    `yaml:",inline"`
	Content string `json:"content" yaml:"-"`
}

// Library reads project records under a root directory.
type Library struct {
	dir string
}

// NewLibrary returns a Library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

const frontMatterDelim = "---"

// Slugs lists the slugs available in category, in directory order.
// A missing category directory yields an empty list.
func (l *Library) Slugs(category string) []string {
	entries, err := os.ReadDir(filepath.Join(l.dir, category))
	if err != nil {
		return []string{}
	}

	slugs := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		slugs = append(slugs, strings.TrimSuffix(e.Name(), ".md"))
	}
	return slugs
}

// Get returns the full record for slug in category, or nil when absent.
func (l *Library) Get(category, slug string) *Project {
	raw, err := os.ReadFile(filepath.Join(l.dir, category, slug+".md"))
	if err != nil {
		return nil
	}

	meta, body := splitFrontMatter(string(raw))

	p := &Project{Content: body}
	if meta != "" {
		// tolerate broken front matter: the record still renders with
		// its slug as the title
		_ = yaml.Unmarshal([]byte(meta), &p.Meta)
	}
	p.Slug = slug
	if p.Title == "" {
		p.Title = slug
	}
	return p
}

// All returns the metadata of every project in category, newest year first.
func (l *Library) All(category string) []Meta {
	metas := []Meta{}
	for _, slug := range l.Slugs(category) {
		if p := l.Get(category, slug); p != nil {
			metas = append(metas, p.Meta)
		}
	}
	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].Year > metas[j].Year
	})
	return metas
}

// splitFrontMatter separates a "---"-delimited YAML header from the body.
// Documents without a header return an empty meta block unchanged.
func splitFrontMatter(doc string) (meta, body string) {
	rest, ok := strings.CutPrefix(doc, frontMatterDelim+"\n")
	if !ok {
		return "", doc
	}
	meta, body, ok = strings.Cut(rest, "\n"+frontMatterDelim+"\n")
	if !ok {
		// unterminated header; treat the whole document as body
		return "", doc
	}
	return meta, strings.TrimPrefix(body, "\n")
}
