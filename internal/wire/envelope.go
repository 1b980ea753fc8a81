package wire

// Request is the client-to-daemon message envelope. The correlation ID is
// supplied by the client and echoed verbatim on the matching reply. Args is
// an ordered sequence of positional values and may be empty.
type Request struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Args    []any  `json:"args"`
}

// Reply is the daemon-to-client message envelope. Results always holds at
// least one element; a request that produced no value yields a single null
// placeholder rather than an empty sequence.
type Reply struct {
	ID      string `json:"id"`
	Results []any  `json:"results"`
}

// NewReply builds a reply for the given correlation ID. A call with no
// results produces the single null placeholder.
func NewReply(id string, results ...any) Reply {
	if len(results) == 0 {
		results = []any{nil}
	}
	return Reply{ID: id, Results: results}
}
