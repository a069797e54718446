package preflight

import (
	"hopper/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every preflight check for the given config.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckWritableLocation("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckRegistryFile(cfg.Paths.DBPath))
	results = append(results, CheckAppCommands(cfg.Paths.DBPath))
	results = append(results, CheckWritableLocation("Socket directory", socketDir(cfg)))
	for _, dir := range cfg.Apps.Dirs {
		results = append(results, CheckAppDirectory(dir))
	}
	results = append(results, CheckTerminal(cfg.TerminalCommand()))
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
