package cigen

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

const templateEnvironment = `name: {TARGET_EXPERIMENT}
channels:
  - miniforge
dependencies:
  - python=3.10
  - pip:
    - git+{HLS4ML_URL}@{BRANCH}
`

// newTestRepo creates a repository root holding an experiments/template
// directory with a runner script and an environment manifest.
func newTestRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	templateDir := filepath.Join(root, ExperimentsDirName, TemplateDirName)
	if err := os.MkdirAll(templateDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(templateDir, "run.py"), []byte("# template runner\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(templateDir, EnvironmentFile), []byte(templateEnvironment), 0644); err != nil {
		t.Fatal(err)
	}
	return root
}

func TestFindExperiments(t *testing.T) {
	root := t.TempDir()
	experimentsRoot := filepath.Join(root, ExperimentsDirName)

	// beta and alpha hold files, the rest should not qualify
	for _, exp := range []string{"beta", "alpha"} {
		dir := filepath.Join(experimentsRoot, exp)
		os.MkdirAll(dir, 0755)
		os.WriteFile(filepath.Join(dir, "run.py"), []byte("# "+exp), 0644)
	}
	os.MkdirAll(filepath.Join(experimentsRoot, "empty"), 0755)
	os.MkdirAll(filepath.Join(experimentsRoot, "nested-only", "sub"), 0755)
	os.WriteFile(filepath.Join(experimentsRoot, "nested-only", "sub", "data.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(experimentsRoot, "stray.txt"), []byte("x"), 0644)

	got := FindExperiments(root)
	want := []string{"alpha", "beta"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FindExperiments() = %v, want %v", got, want)
	}
}

func TestFindExperimentsMissingRoot(t *testing.T) {
	if got := FindExperiments(t.TempDir()); len(got) != 0 {
		t.Errorf("FindExperiments() = %v, want none", got)
	}
}

func TestPrepareExperimentsCreatesFromTemplate(t *testing.T) {
	root := newTestRepo(t)
	spec := NewBranchSpec()
	spec.Set("newexp", "main", "")
	spec.Set("anotherexp", "feature", "")

	got, err := PrepareExperiments(root, spec, testLogger())
	if err != nil {
		t.Fatalf("PrepareExperiments() error = %v", err)
	}
	want := []string{"newexp", "anotherexp"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PrepareExperiments() = %v, want %v", got, want)
	}

	for _, exp := range want {
		for _, file := range []string{"run.py", EnvironmentFile} {
			if _, err := os.Stat(filepath.Join(root, ExperimentsDirName, exp, file)); err != nil {
				t.Errorf("experiment %s missing %s: %v", exp, file, err)
			}
		}
	}
}

func TestPrepareExperimentsIdempotent(t *testing.T) {
	root := newTestRepo(t)
	existing := filepath.Join(root, ExperimentsDirName, "existing")
	os.MkdirAll(existing, 0755)
	os.WriteFile(filepath.Join(existing, "run.py"), []byte("# existing"), 0644)

	spec := NewBranchSpec()
	spec.Set("existing", "main", "")
	spec.Set("fresh", "dev", "")

	for run := 1; run <= 2; run++ {
		got, err := PrepareExperiments(root, spec, testLogger())
		if err != nil {
			t.Fatalf("PrepareExperiments() run %d error = %v", run, err)
		}
		want := []string{"existing", "fresh"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("PrepareExperiments() run %d = %v, want %v", run, got, want)
		}
	}

	content, err := os.ReadFile(filepath.Join(existing, "run.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "# existing" {
		t.Errorf("existing experiment content = %q, want untouched %q", content, "# existing")
	}
}

func TestPrepareExperimentsSkipsTemplate(t *testing.T) {
	root := newTestRepo(t)
	spec := NewBranchSpec()
	spec.Set("template", "main", "")
	spec.Set("baseline", "main", "")

	got, err := PrepareExperiments(root, spec, testLogger())
	if err != nil {
		t.Fatalf("PrepareExperiments() error = %v", err)
	}
	want := []string{"baseline"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PrepareExperiments() = %v, want %v", got, want)
	}
}

func TestPrepareExperimentsTemplateMissing(t *testing.T) {
	root := t.TempDir()
	kept := filepath.Join(root, ExperimentsDirName, "kept")
	os.MkdirAll(kept, 0755)
	os.WriteFile(filepath.Join(kept, "run.py"), []byte("# kept"), 0644)

	spec := NewBranchSpec()
	spec.Set("kept", "main", "")
	spec.Set("ghost", "dev", "")

	got, err := PrepareExperiments(root, spec, testLogger())
	if err != nil {
		t.Fatalf("PrepareExperiments() error = %v", err)
	}
	want := []string{"kept"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PrepareExperiments() = %v, want %v", got, want)
	}
	if _, err := os.Stat(filepath.Join(root, ExperimentsDirName, "ghost")); !os.IsNotExist(err) {
		t.Error("ghost directory should not have been created")
	}
}

func TestPrepareExperimentsDiscovery(t *testing.T) {
	root := newTestRepo(t)
	baseline := filepath.Join(root, ExperimentsDirName, "baseline")
	os.MkdirAll(baseline, 0755)
	os.WriteFile(filepath.Join(baseline, "run.py"), []byte("# baseline"), 0644)

	got, err := PrepareExperiments(root, NewBranchSpec(), testLogger())
	if err != nil {
		t.Fatalf("PrepareExperiments() error = %v", err)
	}
	want := []string{"baseline"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PrepareExperiments() = %v, want %v (template excluded)", got, want)
	}
}
