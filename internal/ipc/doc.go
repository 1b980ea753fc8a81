// Package ipc exposes the daemon over a Unix domain socket and ships the
// matching client used by the CLI.
//
// Frames are newline-delimited JSON envelopes. The server assigns every
// connection an opaque client identifier and dispatches each request on its
// own goroutine; the client correlates replies by request identifier and
// enforces a call deadline, since failed commands never produce a reply.
package ipc
