// Package frecency implements the exponential-decay ranking model used by the
// application registry.
//
// Scores are stored relative to a fixed reference timestamp. Frecency converts
// a stored score into its effective value after some elapsed time, and
// ApplyLaunch adds launch weight in effective space before converting back, so
// every launch counts the same regardless of when it happened.
package frecency
