// Package desktopentry parses freedesktop.org desktop entry files into
// application records.
//
// Only the [Desktop Entry] group is read. Entries with NoDisplay or Hidden set
// are reported as not listable rather than as errors. Exec lines are unescaped,
// split on unquoted spaces, and have the %i, %c, %k, and %% field codes
// expanded; every other field code is dropped because the launcher never
// passes files or URLs.
package desktopentry
