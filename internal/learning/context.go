// SPDX-License-Identifier: AGPL-3.0-or-later

// Package learning defines the learning context that drives document generation.
//
// A Context is read once per run (from YAML or the built-in placeholders) and
// is never mutated afterwards; every field is interpolated verbatim into the
// generated documents.
package learning

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the short date format used in headings and "Last Updated" lines.
const DateLayout = "1/2/2006"

// Context describes a discovered technical issue/solution pair.
type Context struct {
	PatternName      string   `yaml:"pattern_name"`
	APIsFocus        string   `yaml:"apis_focus"`
	IssuePattern     string   `yaml:"issue_pattern"`
	SolutionPattern  string   `yaml:"solution_pattern"`
	FilesUpdated     []string `yaml:"files_updated"`
	LearningLogEntry string   `yaml:"learning_log_entry"`

	// Optional details only used when LearningLogEntry is composed.
	CodePattern    string `yaml:"code_pattern,omitempty"`
	Reusability    string `yaml:"reusability,omitempty"`
	ReferenceAdded string `yaml:"reference_added,omitempty"`
}

// ErrNoPatternName is returned by Load when the file omits pattern_name.
var ErrNoPatternName = errors.New("learning context: pattern_name is required")

// Placeholder returns the template context with bracketed markers that
// operators replace by hand.
func Placeholder() Context {
	return Context{
		PatternName:     "[PATTERN_NAME]",
		APIsFocus:       "[PRIMARY_APIS]",
		IssuePattern:    "[TECHNICAL_DESCRIPTION]",
		SolutionPattern: "[HOW_RESOLVED]",
		FilesUpdated:    []string{"[LIST_OF_FILES_BEING_UPDATED]"},
		CodePattern:     "[KEY_CODE_STRUCTURE]",
		Reusability:     "[APPLICATION_TO_SIMILAR_ISSUES]",
		ReferenceAdded:  "[WHICH_REFERENCE_FILE_UPDATED]",
	}
}

// Load reads a Context from a YAML file.
func Load(path string) (Context, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Context{}, fmt.Errorf("reading learning context: %w", err)
	}

	var c Context
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Context{}, fmt.Errorf("parsing learning context %s: %w", path, err)
	}
	if strings.TrimSpace(c.PatternName) == "" {
		return Context{}, ErrNoPatternName
	}
	return c, nil
}

// Resolve returns a copy of c whose LearningLogEntry is populated, composing
// the default entry for the given date when the context does not carry one.
func (c Context) Resolve(date time.Time) Context {
	out := c
	out.FilesUpdated = append([]string(nil), c.FilesUpdated...)
	if out.LearningLogEntry == "" {
		out.LearningLogEntry = c.composeEntry(date)
	}
	return out
}

// FilesList joins FilesUpdated the way it is displayed to the operator.
func (c Context) FilesList() string {
	return strings.Join(c.FilesUpdated, ", ")
}

func (c Context) composeEntry(date time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "### %s - %s\n", date.Format(DateLayout), c.PatternName)
	fmt.Fprintf(&b, "**API Focus:** %s\n", c.APIsFocus)
	fmt.Fprintf(&b, "**Issue Pattern:** %s\n", c.IssuePattern)
	fmt.Fprintf(&b, "**Solution Pattern:** %s\n", c.SolutionPattern)
	fmt.Fprintf(&b, "**Code Pattern:** %s\n", c.CodePattern)
	fmt.Fprintf(&b, "**Reusability:** %s\n", c.Reusability)
	fmt.Fprintf(&b, "**Reference Added:** %s", c.ReferenceAdded)
	return b.String()
}
