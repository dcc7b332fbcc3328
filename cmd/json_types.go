package cmd

import "spawnchild/pkg/verify"

// resultForJSON is the machine-readable form of a single run.
type resultForJSON struct {
	Program  string   `json:"program"`
	Args     []string `json:"args"`
	ExitCode int      `json:"exit_code"`
	Signal   string   `json:"signal,omitempty"`
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// outcomeForJSON is the machine-readable form of a verify outcome.
type outcomeForJSON struct {
	Name     string   `json:"name"`
	RunID    string   `json:"run_id"`
	Passed   bool     `json:"passed"`
	Failures []string `json:"failures,omitempty"`
	Duration string   `json:"duration"`
}

type reportForJSON struct {
	Summary  verify.Summary   `json:"summary"`
	Outcomes []outcomeForJSON `json:"outcomes"`
}
