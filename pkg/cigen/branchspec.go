package cigen

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultHLS4MLURL is the canonical upstream repository, used whenever an
// experiment does not name a fork of its own.
const DefaultHLS4MLURL = "https://github.com/fastmachinelearning/hls4ml.git"

// DefaultBranch is used whenever an experiment does not name a branch.
const DefaultBranch = "main"

// Errors returned by ParseBranchesFlag. Each malformed shape gets its own
// value so callers can tell user mistakes apart in diagnostics and tests.
var (
	ErrNoDelimiters = errors.New("expected exp:url@branch entries separated by commas")
	ErrMissingColon = errors.New("entry must separate experiment and value with a colon")
	ErrMissingAt    = errors.New("entry must separate url and branch with an @")
	ErrEmptySegment = errors.New("entry has an empty experiment, url, or branch")
)

// BranchSpec maps experiment names to the hls4ml branch and repository URL
// their jobs build. Names keeps declaration order, which is the order jobs
// appear in the generated pipeline.
type BranchSpec struct {
	Names    []string
	Branches map[string]string
	URLs     map[string]string
}

func NewBranchSpec() *BranchSpec {
	return &BranchSpec{
		Branches: make(map[string]string),
		URLs:     make(map[string]string),
	}
}

// Set records an experiment's branch and URL. Redeclaring an experiment
// replaces its values but keeps its original position.
func (s *BranchSpec) Set(name, branch, url string) {
	if _, seen := s.Branches[name]; !seen {
		s.Names = append(s.Names, name)
	}
	s.Branches[name] = branch
	s.URLs[name] = url
}

// Branch returns the branch for an experiment, falling back to
// DefaultBranch when the experiment is not in the specification.
func (s *BranchSpec) Branch(name string) string {
	if s == nil {
		return DefaultBranch
	}
	if branch := s.Branches[name]; branch != "" {
		return branch
	}
	return DefaultBranch
}

// URL returns the repository URL for an experiment, falling back to the
// canonical upstream when the experiment is not in the specification.
func (s *BranchSpec) URL(name string) string {
	if s == nil {
		return DefaultHLS4MLURL
	}
	if url := s.URLs[name]; url != "" {
		return url
	}
	return DefaultHLS4MLURL
}

// Len returns the number of declared experiments.
func (s *BranchSpec) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Names)
}

// OverrideURL points every declared experiment at the given repository URL.
// Experiments that enter the run later through on-disk discovery keep the
// canonical default.
func (s *BranchSpec) OverrideURL(url string) {
	for _, name := range s.Names {
		s.URLs[name] = url
	}
}

// ParseBranchesFlag parses the compact command-line form
// "exp:url@branch[,exp:url@branch...]". The experiment is split off at the
// first colon and the branch at the last @, so URLs may themselves contain
// colons and @ signs (ssh remotes). Entries and segments are
// whitespace-trimmed.
func ParseBranchesFlag(value string) (*BranchSpec, error) {
	if !strings.Contains(value, ":") && !strings.Contains(value, ",") {
		return nil, fmt.Errorf("%q: %w", value, ErrNoDelimiters)
	}

	spec := NewBranchSpec()
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		name, rest, found := strings.Cut(entry, ":")
		if !found {
			return nil, fmt.Errorf("%q: %w", entry, ErrMissingColon)
		}
		at := strings.LastIndex(rest, "@")
		if at < 0 {
			return nil, fmt.Errorf("%q: %w", entry, ErrMissingAt)
		}
		name = strings.TrimSpace(name)
		url := strings.TrimSpace(rest[:at])
		branch := strings.TrimSpace(rest[at+1:])
		if name == "" || url == "" || branch == "" {
			return nil, fmt.Errorf("%q: %w", entry, ErrEmptySegment)
		}
		spec.Set(name, branch, url)
	}
	return spec, nil
}

// ParseBranchAndURL parses a parameters-file entry of shape "branch" or
// "branch, url", splitting on the first comma and trimming whitespace
// around both components. A missing URL yields the canonical upstream.
func ParseBranchAndURL(value string) (branch, url string) {
	branch, url, _ = strings.Cut(value, ",")
	branch = strings.TrimSpace(branch)
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultHLS4MLURL
	}
	return branch, url
}

// UnmarshalYAML decodes the parameters-file form of the specification: a
// mapping from experiment name to "branch" or "branch, url". The mapping
// node is walked directly so the file's declaration order is preserved.
func (s *BranchSpec) UnmarshalYAML(value *yaml.Node) error {
	s.Names = nil
	s.Branches = make(map[string]string)
	s.URLs = make(map[string]string)

	if value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("branches: expected a mapping of experiment to branch, got %s", value.Tag)
	}
	for i := 0; i < len(value.Content)-1; i += 2 {
		var name, entry string
		if err := value.Content[i].Decode(&name); err != nil {
			return fmt.Errorf("branches: decoding experiment name: %w", err)
		}
		if err := value.Content[i+1].Decode(&entry); err != nil {
			return fmt.Errorf("branches: decoding entry for %q: %w", name, err)
		}
		branch, url := ParseBranchAndURL(entry)
		s.Set(name, branch, url)
	}
	return nil
}
