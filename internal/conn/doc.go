// Package conn owns the registry of live client connections.
//
// The transport registers each accepted connection under an opaque identifier
// and unregisters it on disconnect; the dispatcher resolves identifiers here
// when writing replies. Unknown identifiers are an expected race, not an
// error.
package conn
