// Package wire defines the request/reply envelopes exchanged between clients
// and the daemon, plus the JSON codec for them.
//
// Each encode/decode call handles one complete, already-delimited message;
// framing belongs to the transport. Decoding enforces the required envelope
// fields and tags failures with ErrMalformed so transports can discard bad
// messages without dropping the connection.
package wire
