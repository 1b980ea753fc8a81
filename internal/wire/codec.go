package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrMalformed tags messages that could not be decoded: invalid UTF-8,
// invalid JSON, or missing required fields. Callers discard the offending
// message; the connection that sent it is left alone.
var ErrMalformed = errors.New("malformed message")

// EncodeRequest serializes a request envelope. Framing is the transport's
// concern; the returned bytes carry no delimiter.
func EncodeRequest(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return data, nil
}

// EncodeReply serializes a reply envelope.
func EncodeReply(reply Reply) ([]byte, error) {
	data, err := json.Marshal(reply)
	if err != nil {
		return nil, fmt.Errorf("encode reply: %w", err)
	}
	return data, nil
}

// DecodeRequest parses one complete request message. The correlation ID,
// command name, and arguments sequence are all required; a null args field
// counts as missing.
func DecodeRequest(data []byte) (Request, error) {
	raw := struct {
		ID      *string `json:"id"`
		Command *string `json:"command"`
		Args    []any   `json:"args"`
	}{}

	probe := map[string]json.RawMessage{}
	if err := checkText(data); err != nil {
		return Request{}, err
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if raw.ID == nil {
		return Request{}, fmt.Errorf("%w: missing id", ErrMalformed)
	}
	if raw.Command == nil || strings.TrimSpace(*raw.Command) == "" {
		return Request{}, fmt.Errorf("%w: missing command", ErrMalformed)
	}
	argsField, ok := probe["args"]
	if !ok || string(argsField) == "null" {
		return Request{}, fmt.Errorf("%w: missing args", ErrMalformed)
	}

	args := raw.Args
	if args == nil {
		args = []any{}
	}
	return Request{ID: *raw.ID, Command: *raw.Command, Args: args}, nil
}

// DecodeReply parses one complete reply message. The correlation ID and the
// results sequence are required.
func DecodeReply(data []byte) (Reply, error) {
	raw := struct {
		ID      *string `json:"id"`
		Results []any   `json:"results"`
	}{}

	probe := map[string]json.RawMessage{}
	if err := checkText(data); err != nil {
		return Reply{}, err
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if raw.ID == nil {
		return Reply{}, fmt.Errorf("%w: missing id", ErrMalformed)
	}
	resultsField, ok := probe["results"]
	if !ok || string(resultsField) == "null" {
		return Reply{}, fmt.Errorf("%w: missing results", ErrMalformed)
	}
	if len(raw.Results) == 0 {
		return Reply{}, fmt.Errorf("%w: empty results", ErrMalformed)
	}
	return Reply{ID: *raw.ID, Results: raw.Results}, nil
}

func checkText(data []byte) error {
	if !utf8.Valid(data) {
		return fmt.Errorf("%w: invalid UTF-8", ErrMalformed)
	}
	return nil
}
