package cigen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// ExperimentsDirName is the directory under the repository root holding one
// subdirectory per experiment.
const ExperimentsDirName = "experiments"

// TemplateDirName is the reserved directory under experiments/ that seeds
// new experiment directories. It never becomes an experiment itself.
const TemplateDirName = "template"

// FindExperiments lists experiment directories under <root>/experiments in
// name order. A directory counts as an experiment when it directly contains
// at least one regular file; unreadable directories count as empty. A
// missing experiments directory yields no experiments.
func FindExperiments(root string) []string {
	experimentsRoot := filepath.Join(root, ExperimentsDirName)
	entries, err := os.ReadDir(experimentsRoot)
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if containsRegularFile(filepath.Join(experimentsRoot, entry.Name())) {
			names = append(names, entry.Name())
		}
	}
	return names
}

func containsRegularFile(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			return true
		}
	}
	return false
}

// PrepareExperiments ensures every experiment named by spec has a directory
// under <root>/experiments, deep-copying the template directory for those
// that do not exist yet. Existing directories are left untouched, so
// re-running with the same specification changes nothing. The reserved
// template name is skipped, and an experiment whose directory cannot be
// created because the template itself is missing is skipped with a warning.
// Returns the names that exist on disk afterwards, in specification order.
// An empty specification returns the experiments discovered on disk instead.
func PrepareExperiments(root string, spec *BranchSpec, log *logrus.Logger) ([]string, error) {
	if spec.Len() == 0 {
		var names []string
		for _, name := range FindExperiments(root) {
			if name != TemplateDirName {
				names = append(names, name)
			}
		}
		return names, nil
	}

	templateDir := filepath.Join(root, ExperimentsDirName, TemplateDirName)
	var names []string
	for _, name := range spec.Names {
		if name == TemplateDirName {
			continue
		}

		dir := filepath.Join(root, ExperimentsDirName, name)
		if _, err := os.Stat(dir); err == nil {
			names = append(names, name)
			continue
		}

		if _, err := os.Stat(templateDir); err != nil {
			log.WithField("experiment", name).Warn("experiments/template missing; cannot clone experiment")
			continue
		}
		if err := os.CopyFS(dir, os.DirFS(templateDir)); err != nil {
			return nil, fmt.Errorf("cloning experiment %s from template: %w", name, err)
		}
		log.WithField("experiment", name).Debug("created experiment directory from template")
		names = append(names, name)
	}
	return names, nil
}
