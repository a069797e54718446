package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"hopper/internal/apps"
)

// Requirement names a program a launch depends on.
type Requirement struct {
	Name    string
	Command string
}

// Status reports whether a requirement resolves to an executable.
type Status struct {
	Name      string `json:"name"`
	Command   string `json:"command"`
	Path      string `json:"path,omitempty"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

// CheckBinaries resolves each requirement through PATH. Commands containing a
// slash are checked directly.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{Name: req.Name, Command: cmd}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Path = path
		status.Available = true
		results = append(results, status)
	}
	return results
}

// FromApps returns one requirement per application: the program its Exec
// line starts. Applications without a command are skipped.
func FromApps(list []apps.App) []Requirement {
	reqs := make([]Requirement, 0, len(list))
	for _, app := range list {
		if len(app.Exec) == 0 {
			continue
		}
		reqs = append(reqs, Requirement{Name: app.Name, Command: app.Exec[0]})
	}
	return reqs
}

// Missing filters statuses down to the unavailable ones.
func Missing(statuses []Status) []Status {
	var out []Status
	for _, s := range statuses {
		if !s.Available {
			out = append(out, s)
		}
	}
	return out
}
