package schema

import (
	"path/filepath"
	"strings"
)

// InputSpec is one input file and the repository tag its records belong to.
type InputSpec struct {
	Repository string `json:"repository"`
	Path       string `json:"path"`
}

// ParseInputSpec parses "repo=path" or a bare path. For a bare path the
// repository is the file name without ".json" and without a trailing "-prs".
func ParseInputSpec(s string) InputSpec {
	s = strings.TrimSpace(s)
	if repo, path, ok := strings.Cut(s, "="); ok && repo != "" && path != "" {
		return InputSpec{Repository: repo, Path: path}
	}
	name := strings.TrimSuffix(filepath.Base(s), ".json")
	name = strings.TrimSuffix(name, "-prs")
	return InputSpec{Repository: name, Path: s}
}

// String returns the "repo=path" form.
func (s InputSpec) String() string {
	return s.Repository + "=" + s.Path
}
