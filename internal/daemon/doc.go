// Package daemon coordinates the long-running hopper process.
//
// It owns the application registry behind a mutex, the launch history, the
// runner, and the change watcher, with flock-based locking to prevent
// multiple instances. Configuration edits are picked up without a restart:
// the file is reloaded, the registry is rescanned or rebuilt, and the watched
// application directories are switched over.
//
// Keep orchestration here. Ranking lives in appsdb, scanning in scan, and
// the wire protocol in ipc.
package daemon
