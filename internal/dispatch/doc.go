// Package dispatch routes decoded wire requests to directory operations.
//
// The dispatcher holds an explicit set of typed collaborators rather than a
// lookup registry, so a missing dependency is a construction error instead of
// a runtime surprise. Successful invocations produce exactly one reply frame;
// failures are logged and the client receives nothing.
package dispatch
