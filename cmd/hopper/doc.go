// Command hopper lists, ranks and launches desktop applications.
//
// Commands talk to a running hopper daemon over its Unix socket when one
// answers and otherwise open the registry file directly, so `hopper list`
// and `hopper launch` work with or without `hopper start`.
package main
