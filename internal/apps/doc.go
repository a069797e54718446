// Package apps defines the application record stored in the registry.
//
// A record's ID is assigned once by New and never recomputed. Equality for
// reconciliation is structural over name, exec arguments, and icon, so a
// freshly parsed descriptor matches the stored record it describes even though
// the two carry different IDs and scores.
package apps
