// Package history keeps a SQLite journal of application launches.
//
// The journal is informational: it backs `hopper history` and the daemon
// status counters. Ranking never reads it; frecency lives in the registry
// file. Schema changes land as new files under migrations/ and are applied
// in lexical order on Open.
package history
