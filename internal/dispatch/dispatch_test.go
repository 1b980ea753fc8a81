package dispatch_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"dirserve/internal/conn"
	"dirserve/internal/directory"
	"dirserve/internal/dispatch"
	"dirserve/internal/wire"
)

type fakeEntries struct {
	mu      sync.Mutex
	values  map[string]string
	failGet error
	calls   int
}

func newFakeEntries(values map[string]string) *fakeEntries {
	if values == nil {
		values = make(map[string]string)
	}
	return &fakeEntries{values: values}
}

func (f *fakeEntries) Get(_ context.Context, path string) (*directory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failGet != nil {
		return nil, f.failGet
	}
	value, ok := f.values[path]
	if !ok {
		return nil, errors.New("not found")
	}
	return &directory.Entry{Path: path, Value: value}, nil
}

func (f *fakeEntries) Set(_ context.Context, path, value string) (*directory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.values[path] = value
	return &directory.Entry{Path: path, Value: value}, nil
}

func (f *fakeEntries) Delete(_ context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	_, ok := f.values[path]
	delete(f.values, path)
	return ok, nil
}

func (f *fakeEntries) List(_ context.Context, _ string) ([]*directory.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	var entries []*directory.Entry
	for path, value := range f.values {
		entries = append(entries, &directory.Entry{Path: path, Value: value})
	}
	return entries, nil
}

func (f *fakeEntries) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeStatus struct {
	snapshot map[string]any
	err      error
}

func (f *fakeStatus) Status(_ context.Context, scope string) (map[string]any, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]any{"scope": scope}
	for k, v := range f.snapshot {
		out[k] = v
	}
	return out, nil
}

func newDispatcher(t *testing.T, entries dispatch.EntryService, status dispatch.StatusReporter) (*dispatch.Dispatcher, *conn.Manager) {
	t.Helper()
	conns := conn.NewManager()
	d, err := dispatch.New(dispatch.Services{
		Conns:   conns,
		Entries: entries,
		Status:  status,
	}, nil)
	if err != nil {
		t.Fatalf("dispatch.New: %v", err)
	}
	return d, conns
}

func decodeReply(t *testing.T, buf *bytes.Buffer) wire.Reply {
	t.Helper()
	reply, err := wire.DecodeReply(buf.Bytes())
	if err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	return reply
}

func TestHandleGetRepliesWithValue(t *testing.T) {
	entries := newFakeEntries(map[string]string{"/x/y": "v"})
	d, conns := newDispatcher(t, entries, &fakeStatus{})

	var buf bytes.Buffer
	conns.Register("client-1", &buf)

	d.Handle(context.Background(), "client-1", wire.Request{
		ID:      "req-7",
		Command: "get",
		Args:    []any{"/x/y"},
	})

	reply := decodeReply(t, &buf)
	if reply.ID != "req-7" {
		t.Fatalf("reply correlation mismatch: %s", reply.ID)
	}
	if len(reply.Results) != 1 || reply.Results[0] != "v" {
		t.Fatalf("unexpected results %v", reply.Results)
	}
}

func TestHandleEmptyArgsRepliesPlaceholder(t *testing.T) {
	entries := newFakeEntries(nil)
	d, conns := newDispatcher(t, entries, &fakeStatus{})

	var buf bytes.Buffer
	conns.Register("client-1", &buf)

	d.Handle(context.Background(), "client-1", wire.Request{
		ID:      "req-1",
		Command: "get",
		Args:    []any{},
	})

	reply := decodeReply(t, &buf)
	if len(reply.Results) != 1 || reply.Results[0] != nil {
		t.Fatalf("expected single null result, got %v", reply.Results)
	}
	if entries.callCount() != 0 {
		t.Fatal("argument-free request must not reach the entry service")
	}
}

func TestHandleUnknownClientDroppedBeforeService(t *testing.T) {
	entries := newFakeEntries(map[string]string{"/x": "v"})
	d, _ := newDispatcher(t, entries, &fakeStatus{})

	// No registration for this client. The request must produce no observable
	// effect: a set from a stale identifier cannot reach the store.
	d.Handle(context.Background(), "ghost", wire.Request{
		ID:      "req-1",
		Command: "set",
		Args:    []any{"/x", "mutated"},
	})

	if entries.callCount() != 0 {
		t.Fatal("unknown-client request must not reach the entry service")
	}
	if got := entries.values["/x"]; got != "v" {
		t.Fatalf("store mutated by unknown-client request: /x=%q", got)
	}
}

func TestHandleServiceErrorSuppressesReply(t *testing.T) {
	entries := newFakeEntries(nil)
	entries.failGet = errors.New("engine offline")
	d, conns := newDispatcher(t, entries, &fakeStatus{})

	var buf bytes.Buffer
	conns.Register("client-1", &buf)

	d.Handle(context.Background(), "client-1", wire.Request{
		ID:      "req-1",
		Command: "get",
		Args:    []any{"/x"},
	})

	if buf.Len() != 0 {
		t.Fatalf("expected no reply on service error, got %q", buf.String())
	}
}

func TestHandleUnknownCommandSuppressesReply(t *testing.T) {
	entries := newFakeEntries(nil)
	d, conns := newDispatcher(t, entries, &fakeStatus{})

	var buf bytes.Buffer
	conns.Register("client-1", &buf)

	d.Handle(context.Background(), "client-1", wire.Request{
		ID:      "req-1",
		Command: "frobnicate",
		Args:    []any{"/x"},
	})

	if buf.Len() != 0 {
		t.Fatalf("expected no reply for unknown command, got %q", buf.String())
	}
	if entries.callCount() != 0 {
		t.Fatal("unknown command must not reach the entry service")
	}
}

func TestHandleNonStringArgumentSuppressesReply(t *testing.T) {
	entries := newFakeEntries(nil)
	d, conns := newDispatcher(t, entries, &fakeStatus{})

	var buf bytes.Buffer
	conns.Register("client-1", &buf)

	d.Handle(context.Background(), "client-1", wire.Request{
		ID:      "req-1",
		Command: "get",
		Args:    []any{42},
	})

	if buf.Len() != 0 {
		t.Fatalf("expected no reply for bad argument, got %q", buf.String())
	}
}

func TestHandleSetAndDelete(t *testing.T) {
	entries := newFakeEntries(nil)
	d, conns := newDispatcher(t, entries, &fakeStatus{})

	var buf bytes.Buffer
	conns.Register("client-1", &buf)

	d.Handle(context.Background(), "client-1", wire.Request{
		ID:      "set-1",
		Command: "set",
		Args:    []any{"/a", "1"},
	})
	reply := decodeReply(t, &buf)
	if reply.ID != "set-1" || reply.Results[0] != "1" {
		t.Fatalf("unexpected set reply %+v", reply)
	}

	buf.Reset()
	d.Handle(context.Background(), "client-1", wire.Request{
		ID:      "del-1",
		Command: "del",
		Args:    []any{"/a"},
	})
	reply = decodeReply(t, &buf)
	if reply.Results[0] != true {
		t.Fatalf("expected removal true, got %v", reply.Results)
	}
}

func TestHandleStatus(t *testing.T) {
	entries := newFakeEntries(nil)
	d, conns := newDispatcher(t, entries, &fakeStatus{snapshot: map[string]any{"running": true}})

	var buf bytes.Buffer
	conns.Register("client-1", &buf)

	d.Handle(context.Background(), "client-1", wire.Request{
		ID:      "st-1",
		Command: "status",
		Args:    []any{"daemon"},
	})

	reply := decodeReply(t, &buf)
	snapshot, ok := reply.Results[0].(map[string]any)
	if !ok {
		t.Fatalf("expected status object, got %T", reply.Results[0])
	}
	if snapshot["scope"] != "daemon" || snapshot["running"] != true {
		t.Fatalf("unexpected snapshot %v", snapshot)
	}
}

func TestHandleWritesExactlyOneReply(t *testing.T) {
	entries := newFakeEntries(map[string]string{"/x": "v"})
	d, conns := newDispatcher(t, entries, &fakeStatus{})

	var buf bytes.Buffer
	conns.Register("client-1", &buf)

	d.Handle(context.Background(), "client-1", wire.Request{
		ID:      "req-1",
		Command: "get",
		Args:    []any{"/x"},
	})

	// Exactly one frame: decoding the whole buffer as one reply succeeds.
	if _, err := wire.DecodeReply(buf.Bytes()); err != nil {
		t.Fatalf("buffer does not hold a single reply frame: %v", err)
	}
}
