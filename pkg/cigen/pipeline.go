package cigen

import (
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
)

// Pipeline stage names. The spellings are part of the wire contract with
// the CI job templates and must not be corrected.
const (
	StageGenerate   = "generate"
	StageSynthetise = "synthetise"
	StageAnalyse    = "analyse"
)

// PipelineFile is the generated pipeline's file name in the repository root.
const PipelineFile = ".gitlab-ci.yml"

// TemplatesFile holds the shared job template definitions the generated
// jobs extend, referenced from the pipeline's include list.
const TemplatesFile = ".gitlab-ci-templates.yml"

// Stages returns the pipeline stages in execution order.
func Stages() []string {
	return []string{StageGenerate, StageSynthetise, StageAnalyse}
}

// IncludeRef is a local file reference in the pipeline's include list.
type IncludeRef struct {
	Local string `yaml:"local"`
}

// JobVariables are the variables attached to a generate or synthetise job.
// Field order is emission order.
type JobVariables struct {
	ProjectDir       string `yaml:"PROJECT_DIR"`
	TargetExperiment string `yaml:"TARGET_EXPERIMENT"`
	Branch           string `yaml:"BRANCH"`
	EnvFile          string `yaml:"ENV_FILE,omitempty"`
	Image            string `yaml:"IMAGE,omitempty"`
	Tag              string `yaml:"TAG,omitempty"`
}

// Job is a per-experiment generate or synthetise pipeline job.
type Job struct {
	Extends   string       `yaml:"extends"`
	Stage     string       `yaml:"stage"`
	Variables JobVariables `yaml:"variables"`
}

// NeedRef names an upstream job whose artifacts a job downloads.
type NeedRef struct {
	Job       string `yaml:"job"`
	Artifacts bool   `yaml:"artifacts"`
}

// AnalyseVariables are the variables attached to the analyse job.
type AnalyseVariables struct {
	Experiments string `yaml:"EXPERIMENTS"`
	Image       string `yaml:"IMAGE,omitempty"`
	Tag         string `yaml:"TAG,omitempty"`
}

// AnalyseJob is the single aggregate job consuming every synthetise job's
// artifacts. Needs and Dependencies are omitted entirely when empty.
type AnalyseJob struct {
	Extends      string           `yaml:"extends"`
	Stage        string           `yaml:"stage"`
	Needs        []NeedRef        `yaml:"needs,omitempty"`
	Dependencies []string         `yaml:"dependencies,omitempty"`
	Variables    AnalyseVariables `yaml:"variables"`
}

func newExperimentJob(stage, name, branch, envFile, image, tag string) Job {
	return Job{
		Extends: "." + stage + "-template",
		Stage:   stage,
		Variables: JobVariables{
			ProjectDir:       path.Join(ExperimentsDirName, name),
			TargetExperiment: name,
			Branch:           branch,
			EnvFile:          envFile,
			Image:            image,
			Tag:              tag,
		},
	}
}

func newAnalyseJob(synthetiseJobs, experiments []string, image, tag string) AnalyseJob {
	job := AnalyseJob{
		Extends: ".analyse-template",
		Stage:   StageAnalyse,
		Variables: AnalyseVariables{
			Experiments: strings.Join(experiments, " "),
			Image:       image,
			Tag:         tag,
		},
	}
	for _, name := range synthetiseJobs {
		job.Needs = append(job.Needs, NeedRef{Job: name, Artifacts: true})
		job.Dependencies = append(job.Dependencies, name)
	}
	return job
}

// GeneratePipeline assembles the pipeline document for the given
// experiments and renders each experiment's environment manifest along the
// way. Every experiment contributes a generate and a synthetise job, and
// one analyse job waits on all synthetise jobs. An empty experiment list
// yields an empty document and a notice.
func GeneratePipeline(root string, experiments []string, spec *BranchSpec, image, tag string, log *logrus.Logger) *Document {
	doc := NewDocument()
	if len(experiments) == 0 {
		fmt.Println("No experiments found under 'experiments/'. Nothing to generate.")
		return doc
	}

	doc.Set("include", []IncludeRef{{Local: TemplatesFile}})
	doc.Set("stages", Stages())

	var synthetiseJobs []string
	for _, name := range experiments {
		branch := spec.Branch(name)
		envFile, err := RenderEnvironment(root, name, branch, spec.URL(name))
		if err != nil {
			log.WithError(err).WithField("experiment", name).Warn("failed to render environment manifest; omitting ENV_FILE")
			envFile = ""
		}

		doc.Set("generate:"+name, newExperimentJob(StageGenerate, name, branch, envFile, image, tag))
		doc.Set("synthetise:"+name, newExperimentJob(StageSynthetise, name, branch, envFile, image, tag))
		synthetiseJobs = append(synthetiseJobs, "synthetise:"+name)
	}

	doc.Set("analyse", newAnalyseJob(synthetiseJobs, experiments, image, tag))
	return doc
}

// MinimalDocument returns a pipeline containing only the stage list, the
// fallback artifact when there is nothing to generate. The emitted file is
// then still structurally valid for the CI runner.
func MinimalDocument() *Document {
	doc := NewDocument()
	doc.Set("stages", Stages())
	return doc
}
