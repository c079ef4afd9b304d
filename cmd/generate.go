package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/fastmlab/expci/pkg/cigen"
)

// generateOptions carries the flag values of the generate command.
type generateOptions struct {
	branches   string
	image      string
	tag        string
	hls4mlURL  string
	parameters string
}

func NewGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate [root]",
		Short: "Generate .gitlab-ci.yml from the experiments directory",
		Long: `Generate a GitLab CI pipeline for every experiment under <root>/experiments.

Experiments named in the branch specification but missing on disk are
created by copying experiments/template. Branches and repository URLs come
from parameters.yml or --branches, with command-line flags taking
precedence over the file.

Examples:
  # Pipeline for the experiments already on disk, building hls4ml main
  expci generate

  # Two experiments on specific branches, one from a fork
  expci generate --branches 'baseline:https://github.com/fastmachinelearning/hls4ml.git@main,hgq:https://github.com/fork/hls4ml.git@hgq-dev'

  # Branches from a parameters file, image pinned from the command line
  expci generate --parameters parameters.yml --image registry.example.com/hls4ml --tag gpu-runner`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			return runGenerate(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.branches, "branches", "", "Branch specification: exp:url@branch[,exp:url@branch...]")
	cmd.Flags().StringVar(&opts.image, "image", "", "Container image name or path (without tag) to pass to CI variables")
	cmd.Flags().StringVar(&opts.tag, "tag", "", "Container image tag, combined with the image by the CI templates")
	cmd.Flags().StringVar(&opts.hls4mlURL, "hls4ml-url", "", "Repository URL overriding the URL of every experiment in the branch specification")
	cmd.Flags().StringVar(&opts.parameters, "parameters", "", "Path to a YAML parameters file (defaults to <root>/parameters.yml if present)")

	return cmd
}

func runGenerate(cmd *cobra.Command, root string, opts generateOptions) error {
	log := newLogger()

	paramsPath := opts.parameters
	warnIfMissing := true
	if paramsPath == "" {
		paramsPath = filepath.Join(root, cigen.DefaultParametersFile)
		warnIfMissing = false
	}
	params := cigen.LoadParameters(paramsPath, warnIfMissing, log)

	// CLI --branches replaces a file-supplied mapping wholesale; image and
	// tag are overridden independently of it, so an explicit --image ""
	// clears a file-supplied value.
	spec := params.Branches
	if opts.branches != "" {
		parsed, err := cigen.ParseBranchesFlag(opts.branches)
		if err != nil {
			return fmt.Errorf("parsing --branches: %w", err)
		}
		spec = parsed
	}
	if spec == nil {
		spec = cigen.NewBranchSpec()
	}

	image := params.Image
	if cmd.Flags().Changed("image") {
		image = opts.image
	}
	tag := params.Tag
	if cmd.Flags().Changed("tag") {
		tag = opts.tag
	}
	if opts.hls4mlURL != "" {
		spec.OverrideURL(opts.hls4mlURL)
	}

	experiments, err := cigen.PrepareExperiments(root, spec, log)
	if err != nil {
		return err
	}

	doc := cigen.GeneratePipeline(root, experiments, spec, image, tag, log)
	if doc.Empty() {
		doc = cigen.MinimalDocument()
	}

	outputPath := filepath.Join(root, cigen.PipelineFile)
	if err := doc.WriteFile(outputPath); err != nil {
		return err
	}

	if stdoutIsTTY() {
		fmt.Printf("%s Generated %s\n", color.GreenString("✓"), outputPath)
	} else {
		fmt.Printf("Generated %s\n", outputPath)
	}
	return nil
}
