// Package dbfile persists the application registry as a single msgpack blob.
//
// Writers hold an exclusive advisory lock on a sidecar "<path>.lock" file for
// the whole write and replace the blob atomically; readers hold the shared
// lock while decoding. Failures are reported as *Error values that match
// ErrNotFound or ErrCorrupt with errors.Is.
package dbfile
