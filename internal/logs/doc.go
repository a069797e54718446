// Package logs reads the daemon log file for `hopper logs`.
//
// Last returns the final lines of the file and Follow streams lines appended
// afterwards, waking on fsnotify write events with a slow poll as fallback.
// Both apply a Filter matching the console and JSON log formats.
package logs
