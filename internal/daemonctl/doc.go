// Package daemonctl starts, stops and inspects a hopper daemon from the CLI.
//
// The daemon is a detached `hopper daemon` process reachable over the IPC
// socket. Stop asks politely over IPC first and falls back to SIGKILL using
// the pid file written next to the socket.
package daemonctl
