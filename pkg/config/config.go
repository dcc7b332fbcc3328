package config

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"spawnchild/pkg/log"
	"spawnchild/pkg/model"
	"spawnchild/pkg/system"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// LoadSuite reads a suite file, resolves its includes and validates the
// merged result. Files ending in .toml are decoded as TOML, everything else
// as YAML.
func LoadSuite(filename string, logger log.Logger) (*model.Suite, error) {
	cfg, err := loadSuiteFile(filename)
	if err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	if len(cfg.Includes) > 0 {
		cfg, err = processIncludes(cfg, filename, logger)
		if err != nil {
			return nil, err
		}
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}

	cfg.Sort()

	return &cfg, nil
}

// processIncludes loads and merges included suite files recursively.
func processIncludes(cfg model.Suite, baseFile string, logger log.Logger) (model.Suite, error) {
	visited := make(map[string]bool) // Files currently being expanded
	return processIncludesRecursive(cfg, baseFile, visited, logger)
}

func processIncludesRecursive(cfg model.Suite, baseFile string, visited map[string]bool, logger log.Logger) (model.Suite, error) {
	result := &model.Suite{}

	absBase, err := filepath.Abs(baseFile)
	if err != nil {
		return model.Suite{}, fmt.Errorf("failed to resolve absolute path for %s: %w", baseFile, err)
	}
	if visited[absBase] {
		return model.Suite{}, fmt.Errorf("circular include detected: %s", baseFile)
	}
	visited[absBase] = true
	defer delete(visited, absBase)

	for _, includePath := range cfg.Includes {
		resolvedPath := resolvePath(baseFile, includePath)

		includedCfg, err := loadSuiteFile(resolvedPath)
		if err != nil {
			return model.Suite{}, fmt.Errorf("failed to load include '%s': %w", includePath, err)
		}
		if errs := includedCfg.Validate(); len(errs) > 0 {
			return model.Suite{}, fmt.Errorf("invalid include '%s': %w", includePath, errs)
		}

		if len(includedCfg.Includes) > 0 {
			includedCfg, err = processIncludesRecursive(includedCfg, resolvedPath, visited, logger)
			if err != nil {
				return model.Suite{}, err
			}
		}

		result = mergeSuites(result, &includedCfg, logger)
	}

	// The including file has the highest priority
	result = mergeSuites(result, &cfg, logger)

	return *result, nil
}

func loadSuiteFile(filename string) (model.Suite, error) {
	f, err := afero.ReadFile(system.AppFs, filename)
	if err != nil {
		return model.Suite{}, err
	}

	var cfg model.Suite
	if isTOML(filename) {
		err = toml.Unmarshal(f, &cfg)
	} else {
		err = yaml.Unmarshal(f, &cfg)
	}
	if err != nil {
		return model.Suite{}, fmt.Errorf("error parsing %s: %w", filename, err)
	}

	for i := range cfg.Checks {
		cfg.Checks[i].Source = filename
		if cfg.Checks[i].Expect.StdoutFile != "" {
			cfg.Checks[i].Expect.StdoutFile = resolvePath(filename, cfg.Checks[i].Expect.StdoutFile)
		}
	}

	return cfg, nil
}

func isTOML(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".toml")
}

// resolvePath resolves path relative to the directory containing baseFile.
func resolvePath(baseFile, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(baseFile), path)
}

// mergeSuites merges two suites. Env entries and checks from override win
// over those of base, keyed by variable name and check name respectively.
func mergeSuites(base, override *model.Suite, logger log.Logger) *model.Suite {
	return &model.Suite{
		Env:    mergeEnv(base.Env, override.Env, logger),
		Checks: mergeChecks(base.Checks, override.Checks, logger),
	}
}

func mergeEnv(base, override map[string]string, logger log.Logger) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}

	result := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		result[k] = v
	}

	keys := make([]string, 0, len(override))
	for k := range override {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if existing, exists := result[k]; exists && existing != override[k] {
			logger.Warn("Suite env overridden", "name", k, "was", existing, "now", override[k])
		}
		result[k] = override[k]
	}

	return result
}

func mergeChecks(base, override []model.Check, logger log.Logger) []model.Check {
	checkMap := make(map[string]model.Check)

	for _, c := range base {
		checkMap[c.Name] = c
	}

	for _, c := range override {
		if existing, exists := checkMap[c.Name]; exists {
			logger.Warn("Check overridden", "check", c.Name, "was", existing.Source, "now", c.Source)
		}
		checkMap[c.Name] = c
	}

	result := []model.Check{}
	for _, c := range checkMap {
		result = append(result, c)
	}

	// Sort by name for deterministic ordering
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}
