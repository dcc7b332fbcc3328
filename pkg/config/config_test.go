package config

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"spawnchild/pkg/model"
	"spawnchild/pkg/system"
	"spawnchild/pkg/test"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupFs(t *testing.T) {
	t.Helper()
	system.AppFs = test.SetupMockFilesystem(t)
}

func TestLoadSuite(t *testing.T) {
	logger := test.NewMockLogger(slog.LevelInfo)

	t.Run("successfully loads a valid YAML suite", func(t *testing.T) {
		setupFs(t)
		test.CreateTestFile(t, system.AppFs, "/suites/icc.yaml", test.SampleSuiteYAML())

		suite, err := LoadSuite("/suites/icc.yaml", logger)
		require.NoError(t, err)

		expected := test.SampleSuite()
		for i := range expected.Checks {
			expected.Checks[i].Source = "/suites/icc.yaml"
		}
		assert.Equal(t, expected, suite)
	})

	t.Run("TOML and YAML suites decode identically", func(t *testing.T) {
		setupFs(t)
		test.CreateTestFile(t, system.AppFs, "/suites/icc.yaml", test.SampleSuiteYAML())
		test.CreateTestFile(t, system.AppFs, "/suites/icc.toml", test.SampleSuiteTOML())

		fromYAML, err := LoadSuite("/suites/icc.yaml", logger)
		require.NoError(t, err)
		fromTOML, err := LoadSuite("/suites/icc.toml", logger)
		require.NoError(t, err)

		for i := range fromTOML.Checks {
			fromTOML.Checks[i].Source = fromYAML.Checks[i].Source
		}
		assert.Equal(t, fromYAML, fromTOML)
	})

	t.Run("returns an error if the file does not exist", func(t *testing.T) {
		setupFs(t)
		_, err := LoadSuite("/suites/non-existent.yaml", logger)
		assert.Error(t, err)
		assert.True(t, os.IsNotExist(err), "expected a file not found error")
	})

	t.Run("returns an error for malformed YAML", func(t *testing.T) {
		setupFs(t)
		test.CreateTestFile(t, system.AppFs, "/suites/bad.yaml", "checks: - name: x\n  invalid-indent")

		_, err := LoadSuite("/suites/bad.yaml", logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing /suites/bad.yaml")
	})

	t.Run("returns an error for malformed TOML", func(t *testing.T) {
		setupFs(t)
		test.CreateTestFile(t, system.AppFs, "/suites/bad.toml", "[[checks]\nname = ")

		_, err := LoadSuite("/suites/bad.toml", logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "error parsing /suites/bad.toml")
	})

	t.Run("returns validation errors", func(t *testing.T) {
		setupFs(t)
		test.CreateTestFile(t, system.AppFs, "/suites/invalid.yaml", `checks:
  - name: no-program
  - name: no-program
    program: "true"
`)

		_, err := LoadSuite("/suites/invalid.yaml", logger)
		require.Error(t, err)

		var errs model.ValidationErrors
		require.True(t, errors.As(err, &errs))
		require.Len(t, errs, 2)
		assert.Equal(t, "checks[0].program", errs[0].Field)
		assert.Equal(t, "checks[1].name", errs[1].Field)
	})

	t.Run("sorts checks by name", func(t *testing.T) {
		setupFs(t)
		test.CreateTestFile(t, system.AppFs, "/suites/order.yaml", `checks:
  - name: zz
    program: "true"
  - name: aa
    program: "true"
`)

		suite, err := LoadSuite("/suites/order.yaml", logger)
		require.NoError(t, err)
		require.Len(t, suite.Checks, 2)
		assert.Equal(t, "aa", suite.Checks[0].Name)
		assert.Equal(t, "zz", suite.Checks[1].Name)
	})

	t.Run("resolves stdout_file relative to the suite", func(t *testing.T) {
		setupFs(t)
		test.CreateTestFile(t, system.AppFs, "/suites/files.yaml", `checks:
  - name: relative
    program: cat
    expect:
      stdout_file: expected/out.txt
  - name: absolute
    program: cat
    expect:
      stdout_file: /golden/out.txt
`)

		suite, err := LoadSuite("/suites/files.yaml", logger)
		require.NoError(t, err)
		assert.Equal(t, "/golden/out.txt", suite.Checks[0].Expect.StdoutFile)
		assert.Equal(t, "/suites/expected/out.txt", suite.Checks[1].Expect.StdoutFile)
	})
}

func TestLoadSuite_Includes(t *testing.T) {
	t.Run("merges includes with the including file winning", func(t *testing.T) {
		setupFs(t)
		logger := test.NewMockLogger(slog.LevelInfo)

		test.CreateTestFile(t, system.AppFs, "/suites/common/env.yaml", `env:
  LC_ALL: C
  PROFILE: srgb
`)
		test.CreateTestFile(t, system.AppFs, "/suites/common/checks.toml", `[[checks]]
name = "version"
program = "convert"
args = ["-version"]

[[checks]]
name = "metadata"
program = "identify"

[checks.expect]
stdout_file = "golden/metadata.txt"
`)
		test.CreateTestFile(t, system.AppFs, "/suites/main.yaml", `includes:
  - common/env.yaml
  - common/checks.toml
env:
  PROFILE: cmyk
checks:
  - name: version
    program: magick
    args: ["-version"]
`)

		suite, err := LoadSuite("/suites/main.yaml", logger)
		require.NoError(t, err)

		assert.Empty(t, suite.Includes)
		assert.Equal(t, map[string]string{"LC_ALL": "C", "PROFILE": "cmyk"}, suite.Env)

		require.Len(t, suite.Checks, 2)
		assert.Equal(t, "metadata", suite.Checks[0].Name)
		assert.Equal(t, "/suites/common/golden/metadata.txt", suite.Checks[0].Expect.StdoutFile)
		assert.Equal(t, "/suites/common/checks.toml", suite.Checks[0].Source)
		assert.Equal(t, "version", suite.Checks[1].Name)
		assert.Equal(t, "magick", suite.Checks[1].Program)
		assert.Equal(t, "/suites/main.yaml", suite.Checks[1].Source)

		test.AssertLogContains(t, logger, "Suite env overridden name=PROFILE was=srgb now=cmyk")
		test.AssertLogContains(t, logger, "Check overridden check=version")
	})

	t.Run("nested includes", func(t *testing.T) {
		setupFs(t)
		logger := test.NewMockLogger(slog.LevelInfo)

		test.CreateTestFile(t, system.AppFs, "/suites/a.yaml", "includes: [nested/b.yaml]\n")
		test.CreateTestFile(t, system.AppFs, "/suites/nested/b.yaml", "includes: [c.yaml]\n")
		test.CreateTestFile(t, system.AppFs, "/suites/nested/c.yaml", "checks:\n  - name: deep\n    program: \"true\"\n")

		suite, err := LoadSuite("/suites/a.yaml", logger)
		require.NoError(t, err)
		require.Len(t, suite.Checks, 1)
		assert.Equal(t, "deep", suite.Checks[0].Name)
	})

	t.Run("same file reached through two includes", func(t *testing.T) {
		setupFs(t)
		logger := test.NewMockLogger(slog.LevelInfo)

		test.CreateTestFile(t, system.AppFs, "/suites/main.yaml", "includes: [b.yaml, c.yaml]\n")
		test.CreateTestFile(t, system.AppFs, "/suites/b.yaml", "includes: [shared.yaml]\nchecks:\n  - name: from-b\n    program: \"true\"\n")
		test.CreateTestFile(t, system.AppFs, "/suites/c.yaml", "includes: [shared.yaml]\nchecks:\n  - name: from-c\n    program: \"true\"\n")
		test.CreateTestFile(t, system.AppFs, "/suites/shared.yaml", "includes: [leaf.yaml]\nenv:\n  LC_ALL: C\n")
		test.CreateTestFile(t, system.AppFs, "/suites/leaf.yaml", "checks:\n  - name: leaf\n    program: \"true\"\n")

		suite, err := LoadSuite("/suites/main.yaml", logger)
		require.NoError(t, err)

		assert.Equal(t, map[string]string{"LC_ALL": "C"}, suite.Env)
		require.Len(t, suite.Checks, 3)
		assert.Equal(t, "from-b", suite.Checks[0].Name)
		assert.Equal(t, "from-c", suite.Checks[1].Name)
		assert.Equal(t, "leaf", suite.Checks[2].Name)
	})

	t.Run("detects circular includes", func(t *testing.T) {
		setupFs(t)
		logger := test.NewMockLogger(slog.LevelInfo)

		test.CreateTestFile(t, system.AppFs, "/suites/a.yaml", "includes: [b.yaml]\n")
		test.CreateTestFile(t, system.AppFs, "/suites/b.yaml", "includes: [a.yaml]\n")

		_, err := LoadSuite("/suites/a.yaml", logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circular include detected")
	})

	t.Run("missing include", func(t *testing.T) {
		setupFs(t)
		logger := test.NewMockLogger(slog.LevelInfo)

		test.CreateTestFile(t, system.AppFs, "/suites/main.yaml", "includes: [gone.yaml]\n")

		_, err := LoadSuite("/suites/main.yaml", logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load include 'gone.yaml'")
	})

	t.Run("invalid include", func(t *testing.T) {
		setupFs(t)
		logger := test.NewMockLogger(slog.LevelInfo)

		test.CreateTestFile(t, system.AppFs, "/suites/main.yaml", "includes: [broken.yaml]\n")
		test.CreateTestFile(t, system.AppFs, "/suites/broken.yaml", "checks:\n  - name: nothing\n")

		_, err := LoadSuite("/suites/main.yaml", logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid include 'broken.yaml'")
		assert.Contains(t, err.Error(), "program cannot be empty")
	})

	t.Run("empty include path", func(t *testing.T) {
		setupFs(t)
		logger := test.NewMockLogger(slog.LevelInfo)

		test.CreateTestFile(t, system.AppFs, "/suites/main.yaml", "includes: [\"\"]\n")

		_, err := LoadSuite("/suites/main.yaml", logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "include path cannot be empty")
	})
}

func TestMergeEnv_NoWarningForIdenticalValues(t *testing.T) {
	logger := test.NewMockLogger(slog.LevelInfo)

	merged := mergeEnv(map[string]string{"A": "1"}, map[string]string{"A": "1", "B": "2"}, logger)

	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, merged)
	assert.Empty(t, logger.Messages())
	assert.Nil(t, mergeEnv(nil, nil, logger))
}
