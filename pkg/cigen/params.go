package cigen

import (
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:generate sh -c "cd ../.. && go run ./tools/schema-generator/"

// DefaultParametersFile is the conventional parameters file name, looked up
// in the repository root when --parameters is not given.
const DefaultParametersFile = "parameters.yml"

// Parameters is the decoded parameters.yml. All keys are optional and
// unknown keys are ignored.
type Parameters struct {
	Branches *BranchSpec `yaml:"branches,omitempty"`
	Image    string      `yaml:"image,omitempty"`
	Tag      string      `yaml:"tag,omitempty"`
}

// LoadParameters reads a parameters file. A missing file yields empty
// Parameters, reported only when warnIfMissing is set (the caller passes
// true for an explicitly requested path). A file that cannot be read or
// parsed, or whose top level is not a mapping, also degrades to empty
// Parameters with a warning so a bad file never aborts generation.
func LoadParameters(path string, warnIfMissing bool, log *logrus.Logger) *Parameters {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if warnIfMissing {
			log.WithField("path", path).Warn("parameters file not found; ignoring")
		}
		return &Parameters{}
	}
	if err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to read parameters file; ignoring")
		return &Parameters{}
	}

	var params Parameters
	if err := yaml.Unmarshal(data, &params); err != nil {
		log.WithError(err).WithField("path", path).Warn("failed to load parameters file; ignoring")
		return &Parameters{}
	}
	return &params
}
