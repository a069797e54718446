// Package appsdb owns the frecency-ranked application registry.
//
// A Registry holds the application records, the reference time their stored
// scores are relative to, and the half-life used to decay them. It is built
// from a scan.Source, reconciled against the persisted state on every rescan
// without losing usage history, and saved through a dbfile.Store after each
// mutation. A Registry is not safe for concurrent use; callers that share one
// across goroutines wrap it in their own mutex.
package appsdb
