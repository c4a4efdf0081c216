// Package kernel owns request dispatch and execution bracketing.
//
// Ownership boundary:
// - message-type dispatch table and reply construction
// - iopub status/stream/result broadcasting
// - session state (execution counter, result history)
// - server composition and run loop
package kernel
