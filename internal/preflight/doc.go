// Package preflight provides readiness checks for the filesystem locations
// and external programs hopper depends on.
//
// The CLI "hopper doctor" command runs RunAll and renders the results. The
// daemon runs the same checks at startup and logs failures without refusing
// to start: a missing application directory or terminal only limits what can
// be launched.
package preflight
