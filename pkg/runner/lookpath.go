package runner

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// findExecutable resolves a bare program name against the PATH found in env,
// the environment the child receives. Names containing a path separator, an
// env without PATH, and Windows (where PATHEXT rules apply) are left to
// os/exec, which searches the parent's PATH.
//
// Relative PATH entries are skipped, matching exec.LookPath's refusal to
// run programs found through them.
func findExecutable(program string, env []string) (string, error) {
	if runtime.GOOS == "windows" || strings.ContainsRune(program, '/') || strings.ContainsRune(program, filepath.Separator) {
		return program, nil
	}

	pathEnv, ok := lookupEnv(env, "PATH")
	if !ok {
		return program, nil
	}

	for _, dir := range filepath.SplitList(pathEnv) {
		if !filepath.IsAbs(dir) {
			continue
		}
		candidate := filepath.Join(dir, program)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", &exec.Error{Name: program, Err: exec.ErrNotFound}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0111 != 0
}

// lookupEnv returns the value of the last entry for key in env.
func lookupEnv(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		if envKey(env[i]) == key {
			return strings.TrimPrefix(env[i][len(key):], "="), true
		}
	}
	return "", false
}
