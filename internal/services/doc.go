// Package services defines shared error utilities consumed by the storage
// engine, dispatcher, and external integrations.
//
// The sentinel markers plus the Wrap helper translate failures into errors
// that carry component context and classify cleanly with errors.Is. Use them
// when wiring new service logic so error handling stays uniform across the
// daemon.
package services
