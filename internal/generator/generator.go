// SPDX-License-Identifier: AGPL-3.0-or-later
package generator

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"

	"github.com/bartekus/refsync/internal/learning"
	"github.com/bartekus/refsync/internal/projection"
)

// Relative paths of the generated documents.
const (
	ReadmePath         = "README.md"
	PromptTemplatePath = "prompt-templates/basic-reproduction.md"
	LearningLogPath    = "learning-log/learning-log-template.md"
)

// Subdirs is the fixed directory layout created under the output directory.
// Most of these stay empty; they mirror the reference repository layout.
var Subdirs = []string{
	"prompt-templates",
	"technical-patterns",
	"api-reference",
	"learning-log",
	"code-templates",
}

//go:embed templates/*.tmpl
var templateFS embed.FS

var documents = map[string]string{
	ReadmePath:         "readme.md.tmpl",
	PromptTemplatePath: "basic-reproduction.md.tmpl",
	LearningLogPath:    "learning-log.md.tmpl",
}

var templates = template.Must(
	template.New("refsync").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.tmpl"),
)

// Generator projects a learning context onto the update directory.
type Generator struct {
	Context learning.Context
	OutDir  string

	// Now returns the render date. Defaults to time.Now.
	Now func() time.Time
}

type templateData struct {
	learning.Context
	Date    string
	ISODate string
}

// Render builds every document in memory, keyed by path relative to OutDir.
// It has no side effects and depends only on the context and the render date.
func (g *Generator) Render() (map[string]string, error) {
	now := g.now()
	data := templateData{
		Context: g.Context.Resolve(now),
		Date:    now.Format(learning.DateLayout),
		ISODate: now.Format("2006-01-02"),
	}

	out := make(map[string]string, len(documents))
	for path, name := range documents {
		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
			return nil, fmt.Errorf("rendering %s: %w", path, err)
		}
		out[path] = buf.String()
	}
	return out, nil
}

// Generate renders and writes every document. See Write.
func (g *Generator) Generate() ([]string, error) {
	files, err := g.Render()
	if err != nil {
		return nil, err
	}
	return g.Write(files)
}

// Write creates the directory layout and writes files in path order,
// returning the relative paths written. A failed write stops the loop;
// documents written before it are left in place.
func (g *Generator) Write(files map[string]string) ([]string, error) {
	if err := projection.EnsureDirs(g.OutDir, Subdirs); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, rel := range projection.SortedKeys(files) {
		full := filepath.Join(g.OutDir, filepath.FromSlash(rel))
		if err := projection.AtomicWrite(full, []byte(files[rel])); err != nil {
			return written, fmt.Errorf("writing %s: %w", rel, err)
		}
		written = append(written, rel)
	}
	return written, nil
}

func (g *Generator) now() time.Time {
	if g.Now == nil {
		return time.Now()
	}
	return g.Now()
}
