package model

import (
	"fmt"
	"sort"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
	Line    int
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Field, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type ValidationErrors []ValidationError

func (es ValidationErrors) Error() string {
	if len(es) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("suite validation failed:\n")
	for _, e := range es {
		sb.WriteString(fmt.Sprintf("  - %s\n", e.Error()))
	}
	return sb.String()
}

type Validator interface {
	Validate() ValidationErrors
}

// Suite is a set of checks, each running one external program and asserting
// on how it ended and what it printed.
type Suite struct {
	Includes []string          `yaml:"includes,omitempty" toml:"includes,omitempty"` // Suite files to include and merge
	Env      map[string]string `yaml:"env,omitempty" toml:"env,omitempty"`           // Overlay applied to every check
	Checks   []Check           `yaml:"checks" toml:"checks"`
}

type Check struct {
	Name    string            `yaml:"name" toml:"name"`
	Program string            `yaml:"program" toml:"program"`
	Args    []string          `yaml:"args,omitempty" toml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" toml:"env,omitempty"`
	Log     LogOptions        `yaml:"log,omitempty" toml:"log,omitempty"`
	Expect  Expect            `yaml:"expect,omitempty" toml:"expect,omitempty"`
	Source  string            `yaml:"-" toml:"-"` // File the check was declared in
}

type LogOptions struct {
	Stdout bool `yaml:"stdout,omitempty" toml:"stdout,omitempty"`
	Stderr bool `yaml:"stderr,omitempty" toml:"stderr,omitempty"`
}

type Expect struct {
	ExitCode       int      `yaml:"exit_code,omitempty" toml:"exit_code,omitempty"`
	Stdout         *string  `yaml:"stdout,omitempty" toml:"stdout,omitempty"`
	StdoutFile     string   `yaml:"stdout_file,omitempty" toml:"stdout_file,omitempty"`
	StdoutContains []string `yaml:"stdout_contains,omitempty" toml:"stdout_contains,omitempty"`
	StderrContains []string `yaml:"stderr_contains,omitempty" toml:"stderr_contains,omitempty"`
	Deterministic  bool     `yaml:"deterministic,omitempty" toml:"deterministic,omitempty"`
}

// EffectiveEnv returns the suite overlay with the check's own overlay on top.
func (s *Suite) EffectiveEnv(c Check) map[string]string {
	env := make(map[string]string, len(s.Env)+len(c.Env))
	for k, v := range s.Env {
		env[k] = v
	}
	for k, v := range c.Env {
		env[k] = v
	}
	return env
}

func (s *Suite) Sort() {
	sort.SliceStable(s.Checks, func(i, j int) bool {
		return s.Checks[i].Name < s.Checks[j].Name
	})
}

func (s *Suite) Validate() ValidationErrors {
	var errs ValidationErrors

	for i, include := range s.Includes {
		if strings.TrimSpace(include) == "" {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("includes[%d]", i), Message: "include path cannot be empty"})
		}
	}

	errs = append(errs, validateEnv("env", s.Env)...)

	seen := make(map[string]bool)
	for i, c := range s.Checks {
		field := fmt.Sprintf("checks[%d]", i)
		if strings.TrimSpace(c.Name) == "" {
			errs = append(errs, ValidationError{Field: field + ".name", Message: "check name cannot be empty"})
		} else if !isValidName(c.Name) {
			errs = append(errs, ValidationError{Field: field + ".name", Message: "check name contains control characters"})
		} else if seen[c.Name] {
			errs = append(errs, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate check name '%s'", c.Name)})
		}
		seen[c.Name] = true

		if strings.TrimSpace(c.Program) == "" {
			errs = append(errs, ValidationError{Field: field + ".program", Message: "program cannot be empty"})
		}

		errs = append(errs, validateEnv(field+".env", c.Env)...)

		if c.Expect.ExitCode < 0 || c.Expect.ExitCode > 255 {
			errs = append(errs, ValidationError{Field: field + ".expect.exit_code", Message: "exit code must be between 0 and 255"})
		}
		if c.Expect.Stdout != nil && c.Expect.StdoutFile != "" {
			errs = append(errs, ValidationError{Field: field + ".expect", Message: "stdout and stdout_file are mutually exclusive"})
		}
		if c.Expect.ExitCode != 0 && (c.Expect.Stdout != nil || c.Expect.StdoutFile != "" || len(c.Expect.StdoutContains) > 0) {
			errs = append(errs, ValidationError{Field: field + ".expect", Message: "stdout is only captured for checks expecting exit code 0"})
		}
		if c.Expect.ExitCode == 0 && len(c.Expect.StderrContains) > 0 {
			errs = append(errs, ValidationError{Field: field + ".expect.stderr_contains", Message: "stderr is only captured for checks expecting a non-zero exit code"})
		}
	}

	return errs
}

func validateEnv(field string, env map[string]string) ValidationErrors {
	var errs ValidationErrors
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "" || strings.Contains(k, "=") || !isValidName(k) {
			errs = append(errs, ValidationError{Field: fmt.Sprintf("%s.%s", field, k), Message: "environment variable name must be non-empty and cannot contain '=' or control characters"})
		}
	}
	return errs
}

func isValidName(name string) bool {
	for _, r := range name {
		if r < 32 || r == 127 { // control chars
			return false
		}
	}
	return true
}
