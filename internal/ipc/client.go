package ipc

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"dirserve/internal/wire"
)

// DefaultCallTimeout bounds a Call when the caller's context carries no
// deadline. The server suppresses replies for failed commands, so a bounded
// wait is the only way a client learns of failure.
const DefaultCallTimeout = 5 * time.Second

// Client speaks the directory control protocol over a Unix domain socket.
// Calls are synchronous; replies are matched by correlation identifier.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn)}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Call sends one request and waits for its matching reply. A missing reply
// surfaces as a deadline error; the server stays silent about failed
// commands.
func (c *Client) Call(ctx context.Context, command string, args ...string) ([]any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultCallTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	defer c.conn.SetDeadline(time.Time{})

	requestID := uuid.NewString()
	wireArgs := make([]any, len(args))
	for i, arg := range args {
		wireArgs[i] = arg
	}
	frame, err := wire.EncodeRequest(wire.Request{
		ID:      requestID,
		Command: command,
		Args:    wireArgs,
	})
	if err != nil {
		return nil, err
	}
	if _, err := c.conn.Write(append(frame, '\n')); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	for {
		line, err := c.reader.ReadBytes('\n')
		if err != nil {
			return nil, fmt.Errorf("await reply: %w", err)
		}
		reply, err := wire.DecodeReply(line[:len(line)-1])
		if err != nil {
			return nil, fmt.Errorf("decode reply: %w", err)
		}
		// A stale reply from an abandoned earlier call is skipped.
		if reply.ID != requestID {
			continue
		}
		return reply.Results, nil
	}
}

// Get retrieves the value stored at a path.
func (c *Client) Get(ctx context.Context, path string) (string, error) {
	results, err := c.Call(ctx, "get", path)
	if err != nil {
		return "", err
	}
	value, ok := results[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected get result %T", results[0])
	}
	return value, nil
}

// Set stores a value at a path and returns the stored value.
func (c *Client) Set(ctx context.Context, path, value string) (string, error) {
	results, err := c.Call(ctx, "set", path, value)
	if err != nil {
		return "", err
	}
	stored, ok := results[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected set result %T", results[0])
	}
	return stored, nil
}

// Del removes the entry at a path and reports whether one existed.
func (c *Client) Del(ctx context.Context, path string) (bool, error) {
	results, err := c.Call(ctx, "del", path)
	if err != nil {
		return false, err
	}
	removed, ok := results[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected del result %T", results[0])
	}
	return removed, nil
}

// ListEntry is one row of a list reply.
type ListEntry struct {
	Path  string
	Value string
}

// List returns entries under a prefix.
func (c *Client) List(ctx context.Context, prefix string) ([]ListEntry, error) {
	results, err := c.Call(ctx, "list", prefix)
	if err != nil {
		return nil, err
	}
	entries := make([]ListEntry, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue
		}
		row, ok := result.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("unexpected list result %T", result)
		}
		path, _ := row["path"].(string)
		value, _ := row["value"].(string)
		entries = append(entries, ListEntry{Path: path, Value: value})
	}
	return entries, nil
}

// Status retrieves a status snapshot for the given scope.
func (c *Client) Status(ctx context.Context, scope string) (map[string]any, error) {
	results, err := c.Call(ctx, "status", scope)
	if err != nil {
		return nil, err
	}
	snapshot, ok := results[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected status result %T", results[0])
	}
	return snapshot, nil
}
