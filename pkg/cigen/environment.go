package cigen

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Environment manifest file names inside an experiment directory.
const (
	EnvironmentFile         = "environment.yml"
	RenderedEnvironmentFile = "environment.rendered.yml"
)

// RenderEnvironment renders an experiment's environment manifest,
// substituting the {TARGET_EXPERIMENT}, {BRANCH} and {HLS4ML_URL}
// placeholders, and writes the result to environment.rendered.yml in the
// experiment's directory, overwriting any previous render. The source
// manifest comes from the experiment directory, falling back to the
// template directory. Returns the rendered file's path relative to root,
// or "" when neither location has a manifest. An empty url renders the
// canonical upstream.
func RenderEnvironment(root, name, branch, url string) (string, error) {
	if url == "" {
		url = DefaultHLS4MLURL
	}

	source := filepath.Join(root, ExperimentsDirName, name, EnvironmentFile)
	if _, err := os.Stat(source); err != nil {
		source = filepath.Join(root, ExperimentsDirName, TemplateDirName, EnvironmentFile)
		if _, err := os.Stat(source); err != nil {
			return "", nil
		}
	}

	content, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("reading environment manifest: %w", err)
	}

	rendered := strings.NewReplacer(
		"{TARGET_EXPERIMENT}", name,
		"{BRANCH}", branch,
		"{HLS4ML_URL}", url,
	).Replace(string(content))

	target := filepath.Join(root, ExperimentsDirName, name, RenderedEnvironmentFile)
	if err := os.WriteFile(target, []byte(rendered), 0644); err != nil {
		return "", fmt.Errorf("writing rendered manifest: %w", err)
	}

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", fmt.Errorf("resolving rendered manifest path: %w", err)
	}
	return filepath.ToSlash(rel), nil
}
