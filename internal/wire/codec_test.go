package wire_test

import (
	"errors"
	"reflect"
	"testing"

	"dirserve/internal/wire"
)

func TestRequestRoundTrip(t *testing.T) {
	req := wire.Request{ID: "a1", Command: "get", Args: []any{"/x/y"}}
	data, err := wire.EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	decoded, err := wire.DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if !reflect.DeepEqual(req, decoded) {
		t.Fatalf("round trip mismatch: sent %+v, got %+v", req, decoded)
	}
}

func TestRequestRoundTripEmptyArgs(t *testing.T) {
	req := wire.Request{ID: "a2", Command: "noop", Args: []any{}}
	data, err := wire.EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest: %v", err)
	}
	decoded, err := wire.DecodeRequest(data)
	if err != nil {
		t.Fatalf("DecodeRequest: %v", err)
	}
	if decoded.Args == nil || len(decoded.Args) != 0 {
		t.Fatalf("expected empty args sequence, got %#v", decoded.Args)
	}
}

func TestReplyRoundTrip(t *testing.T) {
	reply := wire.NewReply("a1", "v")
	data, err := wire.EncodeReply(reply)
	if err != nil {
		t.Fatalf("EncodeReply: %v", err)
	}
	decoded, err := wire.DecodeReply(data)
	if err != nil {
		t.Fatalf("DecodeReply: %v", err)
	}
	if !reflect.DeepEqual(reply, decoded) {
		t.Fatalf("round trip mismatch: sent %+v, got %+v", reply, decoded)
	}
}

func TestNewReplyNeverEmpty(t *testing.T) {
	reply := wire.NewReply("a1")
	if len(reply.Results) != 1 {
		t.Fatalf("expected one placeholder result, got %d", len(reply.Results))
	}
	if reply.Results[0] != nil {
		t.Fatalf("expected null placeholder, got %#v", reply.Results[0])
	}
}

func TestDecodeRequestMalformed(t *testing.T) {
	cases := map[string]string{
		"invalid json":    `{"id":`,
		"not an object":   `[1,2,3]`,
		"missing id":      `{"command":"get","args":["/x"]}`,
		"missing command": `{"id":"a1","args":["/x"]}`,
		"empty command":   `{"id":"a1","command":"  ","args":["/x"]}`,
		"missing args":    `{"id":"a1","command":"get"}`,
		"null args":       `{"id":"a1","command":"get","args":null}`,
	}
	for name, payload := range cases {
		if _, err := wire.DecodeRequest([]byte(payload)); !errors.Is(err, wire.ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestDecodeRequestInvalidUTF8(t *testing.T) {
	if _, err := wire.DecodeRequest([]byte{0xff, 0xfe, '{', '}'}); !errors.Is(err, wire.ErrMalformed) {
		t.Fatalf("expected ErrMalformed for invalid UTF-8, got %v", err)
	}
}

func TestDecodeReplyMalformed(t *testing.T) {
	cases := map[string]string{
		"missing id":      `{"results":["v"]}`,
		"missing results": `{"id":"a1"}`,
		"null results":    `{"id":"a1","results":null}`,
		"empty results":   `{"id":"a1","results":[]}`,
	}
	for name, payload := range cases {
		if _, err := wire.DecodeReply([]byte(payload)); !errors.Is(err, wire.ErrMalformed) {
			t.Errorf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}
