package system

import (
	"fmt"
	"sort"

	"spawnchild/pkg/runner"

	"github.com/spf13/afero"
)

// ReadFixture reads an expected-output file from AppFs.
func ReadFixture(path string) (string, error) {
	content, err := afero.ReadFile(AppFs, path)
	if err != nil {
		return "", fmt.Errorf("error reading fixture %s: %w", path, err)
	}
	return string(content), nil
}

// EnvVar is one entry of a merged environment.
type EnvVar struct {
	Name       string `json:"name" yaml:"name"`
	Value      string `json:"value" yaml:"value"`
	Overridden bool   `json:"overridden,omitempty" yaml:"overridden,omitempty"`
}

// InferEnvironment returns the environment a program launched with overlay
// would receive, sorted by name. Entries set by the overlay are flagged.
func InferEnvironment(overlay map[string]string) []EnvVar {
	merged := runner.EnvMap(runner.MergeEnv(Environ(), overlay))

	vars := make([]EnvVar, 0, len(merged))
	for name, value := range merged {
		_, overridden := overlay[name]
		vars = append(vars, EnvVar{Name: name, Value: value, Overridden: overridden})
	}

	sort.Slice(vars, func(i, j int) bool {
		return vars[i].Name < vars[j].Name
	})
	return vars
}
