package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// TagsKey is the project field holding its tag list.
const TagsKey = "tags"

// Project is one entry of the projects file. Its schema is owned by whoever
// edits the file, so the raw JSON is kept and re-emitted unchanged.
type Project struct {
	raw    json.RawMessage
	fields map[string]any
}

// NewProject parses a single JSON object into a Project.
func NewProject(raw []byte) (Project, error) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Project{}, err
	}
	if fields == nil {
		return Project{}, errors.New("project is not a JSON object")
	}
	return Project{raw: append(json.RawMessage(nil), raw...), fields: fields}, nil
}

// Field returns the value stored under key formatted as a string, or "".
func (p Project) Field(key string) string {
	v, ok := p.fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether key is present and non-empty.
func (p Project) Has(key string) bool {
	return p.Field(key) != ""
}

// Tags returns the string elements of an array field such as "tags" or "stack".
func (p Project) Tags(key string) []string {
	items, ok := p.fields[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// NormalizeTag lower-cases and trims a tag for comparison.
func NormalizeTag(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// HasTag reports whether the project's tag list contains tag, ignoring case.
func (p Project) HasTag(tag string) bool {
	tag = NormalizeTag(tag)
	for _, t := range p.Tags(TagsKey) {
		if NormalizeTag(t) == tag {
			return true
		}
	}
	return false
}

// FilterProjects returns the projects tagged with tag, in file order.
// An empty tag keeps every project.
func FilterProjects(projects []Project, tag string) []Project {
	if NormalizeTag(tag) == "" {
		return projects
	}
	var out []Project
	for _, p := range projects {
		if p.HasTag(tag) {
			out = append(out, p)
		}
	}
	return out
}

// ProjectTags returns a sorted, deduplicated, lower-cased slice of every
// project tag.
func ProjectTags(projects []Project) []string {
	set := make(map[string]struct{})
	for _, p := range projects {
		for _, t := range p.Tags(TagsKey) {
			if t = NormalizeTag(t); t != "" {
				set[t] = struct{}{}
			}
		}
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result
}

// MarshalJSON writes the project exactly as it appeared in the file.
func (p Project) MarshalJSON() ([]byte, error) {
	if len(p.raw) == 0 {
		return []byte("{}"), nil
	}
	return p.raw, nil
}

// Projects reads the projects file. A missing file is an empty list; a file
// that is not a JSON array of objects is a Malformed error.
func (s *Store) Projects() ([]Project, error) {
	data, err := os.ReadFile(s.cfg.ProjectsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &Error{Op: "read projects", Path: s.cfg.ProjectsPath, Kind: IO, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &Error{Op: "parse projects", Path: s.cfg.ProjectsPath, Kind: Malformed, Err: errors.New("empty file")}
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &Error{Op: "parse projects", Path: s.cfg.ProjectsPath, Kind: Malformed, Err: err}
	}
	projects := make([]Project, 0, len(raws))
	for i, raw := range raws {
		p, err := NewProject(raw)
		if err != nil {
			return nil, &Error{Op: "parse projects", Path: s.cfg.ProjectsPath, Kind: Malformed, Err: fmt.Errorf("entry %d: %w", i, err)}
		}
		projects = append(projects, p)
	}
	return projects, nil
}
