// Package hotreload raises debounced change notifications for the
// configuration file and the application directories.
//
// Each configured group owns one fsnotify watcher and a relay goroutine that
// collapses bursts of write, remove, rename and create events into a single
// pulse once the debounce interval passes without further events. A single
// dispatch goroutine waits on every group's pulses and runs the matching
// Callback synchronously, so callbacks of different groups never overlap.
//
// Handle.Close stops the watchers and joins every goroutine. It must not be
// called from inside a callback.
package hotreload
