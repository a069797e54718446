// Package daemonrun wires the daemon process: logging, pid file, launch
// history, the daemon itself and its IPC server, and signal handling.
package daemonrun
