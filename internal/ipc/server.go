package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"

	"log/slog"

	"github.com/google/uuid"

	"dirserve/internal/conn"
	"dirserve/internal/dispatch"
	"dirserve/internal/logging"
	"dirserve/internal/wire"
)

// maxFrameBytes bounds a single request line so one client cannot exhaust
// server memory.
const maxFrameBytes = 1 << 20

// Server exposes the directory control protocol over a Unix domain socket.
// Each connection gets an opaque client identifier; requests are decoded from
// newline-delimited frames and handed to the dispatcher asynchronously.
type Server struct {
	path       string
	dispatcher *dispatch.Dispatcher
	conns      *conn.Manager
	logger     *slog.Logger
	listener   net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *dispatch.Dispatcher, conns *conn.Manager, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires dispatcher")
	}
	if conns == nil {
		return nil, errors.New("ipc server requires connection manager")
	}
	logger = logging.WithComponent(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:       path,
		dispatcher: d,
		conns:      conns,
		logger:     logger,
		listener:   listener,
		ctx:        serverCtx,
		cancel:     cancel,
	}, nil
}

// Serve starts accepting connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			netConn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed",
					logging.Error(err),
					logging.String(logging.FieldEventType, "ipc_accept_failed"),
					logging.String("impact", "clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.serveConn(c)
			}(netConn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldEventType, "ipc_socket_cleanup_failed"),
			logging.String("impact", "stale IPC socket may block future starts"))
	}
}

// serveConn owns one client connection: it registers the client, reads frames
// until the peer hangs up, and guarantees deregistration on the way out.
func (s *Server) serveConn(netConn net.Conn) {
	defer netConn.Close()

	clientID := uuid.NewString()
	logger := s.logger.With(logging.String(logging.FieldClientID, clientID))

	s.conns.Register(clientID, &frameWriter{w: netConn})
	defer s.conns.Unregister(clientID)

	logger.Debug("client connected")
	defer logger.Debug("client disconnected")

	scanner := bufio.NewScanner(netConn)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameBytes)
	for scanner.Scan() {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		frame := make([]byte, len(line))
		copy(frame, line)

		req, err := wire.DecodeRequest(frame)
		if err != nil {
			logger.Warn("malformed request discarded", logging.Error(err))
			continue
		}

		s.wg.Add(1)
		go func(req wire.Request) {
			defer s.wg.Done()
			s.dispatcher.Handle(s.ctx, clientID, req)
		}(req)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, net.ErrClosed) {
		logger.Debug("connection read ended", logging.Error(err))
	}
}

// frameWriter serializes reply frames onto a shared connection and appends
// the newline delimiter. Concurrent dispatcher goroutines may reply on the
// same client at once.
type frameWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (fw *frameWriter) Write(frame []byte) (int, error) {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	n, err := fw.w.Write(frame)
	if err != nil {
		return n, err
	}
	if _, err := fw.w.Write([]byte{'\n'}); err != nil {
		return n, err
	}
	return n + 1, nil
}
