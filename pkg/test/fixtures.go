package test

import (
	"spawnchild/pkg/model"
)

// SampleSuite returns a basic Suite for testing.
func SampleSuite() *model.Suite {
	expected := "sRGB IEC61966-2.1\n"
	return &model.Suite{
		Env: map[string]string{"LC_ALL": "C"},
		Checks: []model.Check{
			{
				Name:    "icc-description",
				Program: "identify",
				Args:    []string{"-format", "%[icc:description]\n", "sticker-OUT.jpg"},
				Expect:  model.Expect{Stdout: &expected},
			},
			{
				Name:    "missing-input",
				Program: "identify",
				Args:    []string{"missing.jpg"},
				Expect: model.Expect{
					ExitCode:       1,
					StderrContains: []string{"unable to open image"},
				},
			},
		},
	}
}

// SampleSuiteYAML returns a sample YAML suite string.
func SampleSuiteYAML() string {
	return `env:
  LC_ALL: C
checks:
  - name: icc-description
    program: identify
    args: ["-format", "%[icc:description]\n", "sticker-OUT.jpg"]
    expect:
      stdout: "sRGB IEC61966-2.1\n"
  - name: missing-input
    program: identify
    args: ["missing.jpg"]
    expect:
      exit_code: 1
      stderr_contains:
        - unable to open image
`
}

// SampleSuiteTOML returns the same suite as SampleSuiteYAML, in TOML.
func SampleSuiteTOML() string {
	return `[env]
LC_ALL = "C"

[[checks]]
name = "icc-description"
program = "identify"
args = ["-format", "%[icc:description]\n", "sticker-OUT.jpg"]

[checks.expect]
stdout = "sRGB IEC61966-2.1\n"

[[checks]]
name = "missing-input"
program = "identify"
args = ["missing.jpg"]

[checks.expect]
exit_code = 1
stderr_contains = ["unable to open image"]
`
}
