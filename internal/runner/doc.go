// Package runner launches applications as detached processes.
//
// Each launch runs in its own process group with standard streams connected
// to /dev/null, so closing the launcher never takes the application with it.
// Terminal applications are wrapped in the configured terminal command, or in
// "$TERM -e" when none is configured.
package runner
