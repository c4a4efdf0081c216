// Package transport owns kernel socket lifecycle.
//
// Ownership boundary:
// - five-channel socket topology (shell, control, stdin, iopub, heartbeat)
// - bind/close lifecycle
// - heartbeat echo loop
package transport
