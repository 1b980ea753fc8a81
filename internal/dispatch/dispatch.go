package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"dirserve/internal/conn"
	"dirserve/internal/directory"
	"dirserve/internal/logging"
	"dirserve/internal/services"
	"dirserve/internal/wire"
)

// EntryService is the directory surface the dispatcher invokes.
type EntryService interface {
	Get(ctx context.Context, path string) (*directory.Entry, error)
	Set(ctx context.Context, path, value string) (*directory.Entry, error)
	Delete(ctx context.Context, path string) (bool, error)
	List(ctx context.Context, prefix string) ([]*directory.Entry, error)
}

// StatusReporter answers status requests for a given scope.
type StatusReporter interface {
	Status(ctx context.Context, scope string) (map[string]any, error)
}

// Services carries every collaborator the dispatcher needs. Each field is
// required; New rejects a partially wired set.
type Services struct {
	Conns   *conn.Manager
	Entries EntryService
	Status  StatusReporter
}

type handlerFunc func(ctx context.Context, args []string) ([]any, error)

// Dispatcher routes decoded requests to directory operations and writes
// exactly one reply per successful invocation. Failed invocations are logged
// and produce no reply; the requester times out rather than receiving a
// partial answer.
type Dispatcher struct {
	svc      Services
	logger   *slog.Logger
	handlers map[string]handlerFunc
}

// New builds a dispatcher over the given service set.
func New(svc Services, logger *slog.Logger) (*Dispatcher, error) {
	if svc.Conns == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "new", "connection manager is required", nil)
	}
	if svc.Entries == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "new", "entry service is required", nil)
	}
	if svc.Status == nil {
		return nil, services.Wrap(services.ErrConfiguration, "dispatch", "new", "status reporter is required", nil)
	}

	d := &Dispatcher{
		svc:    svc,
		logger: logging.WithComponent(logger, "dispatch"),
	}
	d.handlers = map[string]handlerFunc{
		"get":    d.handleGet,
		"set":    d.handleSet,
		"del":    d.handleDel,
		"list":   d.handleList,
		"status": d.handleStatus,
	}
	return d, nil
}

// Handle processes a single request for the named client. It never returns an
// error; every failure mode resolves to a log line so a bad request cannot
// take the serving loop down.
func (d *Dispatcher) Handle(ctx context.Context, clientID string, req wire.Request) {
	logger := d.logger.With(
		logging.String(logging.FieldClientID, clientID),
		logging.String(logging.FieldCommand, req.Command),
		logging.String(logging.FieldRequestID, req.ID),
	)

	// Requests from unregistered clients are dropped before any handler runs,
	// so a stale or forged identifier cannot mutate state.
	if !d.svc.Conns.Has(clientID) {
		logger.Debug("unknown client, request dropped")
		return
	}

	// Argument-free requests short-circuit to a placeholder reply without
	// touching any service.
	if len(req.Args) == 0 {
		d.writeReply(logger, clientID, wire.NewReply(req.ID))
		return
	}

	handler, ok := d.handlers[req.Command]
	if !ok {
		logger.Warn("unknown command")
		return
	}

	args, err := stringArgs(req.Args)
	if err != nil {
		logger.Error("invalid arguments", logging.Error(err))
		return
	}

	results, err := handler(ctx, args)
	if err != nil {
		logger.Error("command failed", logging.Error(err))
		return
	}
	d.writeReply(logger, clientID, wire.NewReply(req.ID, results...))
}

// writeReply encodes and sends one reply frame. A client that disconnected
// between request and reply is dropped silently.
func (d *Dispatcher) writeReply(logger *slog.Logger, clientID string, reply wire.Reply) {
	frame, err := wire.EncodeReply(reply)
	if err != nil {
		logger.Error("encode reply failed", logging.Error(err))
		return
	}
	delivered, err := d.svc.Conns.Write(clientID, frame)
	if err != nil {
		logger.Error("write reply failed", logging.Error(err))
		return
	}
	if !delivered {
		logger.Debug("client gone, reply dropped")
	}
}

func (d *Dispatcher) handleGet(ctx context.Context, args []string) ([]any, error) {
	if err := requireArgs("get", args, 1); err != nil {
		return nil, err
	}
	entry, err := d.svc.Entries.Get(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return []any{entry.Value}, nil
}

func (d *Dispatcher) handleSet(ctx context.Context, args []string) ([]any, error) {
	if err := requireArgs("set", args, 2); err != nil {
		return nil, err
	}
	entry, err := d.svc.Entries.Set(ctx, args[0], args[1])
	if err != nil {
		return nil, err
	}
	return []any{entry.Value}, nil
}

func (d *Dispatcher) handleDel(ctx context.Context, args []string) ([]any, error) {
	if err := requireArgs("del", args, 1); err != nil {
		return nil, err
	}
	removed, err := d.svc.Entries.Delete(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return []any{removed}, nil
}

func (d *Dispatcher) handleList(ctx context.Context, args []string) ([]any, error) {
	if err := requireArgs("list", args, 1); err != nil {
		return nil, err
	}
	entries, err := d.svc.Entries.List(ctx, args[0])
	if err != nil {
		return nil, err
	}
	results := make([]any, 0, len(entries))
	for _, entry := range entries {
		results = append(results, map[string]any{
			"path":  entry.Path,
			"value": entry.Value,
		})
	}
	return results, nil
}

func (d *Dispatcher) handleStatus(ctx context.Context, args []string) ([]any, error) {
	if err := requireArgs("status", args, 1); err != nil {
		return nil, err
	}
	snapshot, err := d.svc.Status.Status(ctx, args[0])
	if err != nil {
		return nil, err
	}
	return []any{snapshot}, nil
}

func stringArgs(raw []any) ([]string, error) {
	args := make([]string, len(raw))
	for i, value := range raw {
		s, ok := value.(string)
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "dispatch", "args",
				fmt.Sprintf("argument %d must be a string, got %T", i, value), nil)
		}
		args[i] = s
	}
	return args, nil
}

func requireArgs(command string, args []string, want int) error {
	if len(args) != want {
		return services.Wrap(services.ErrValidation, "dispatch", command,
			fmt.Sprintf("expected %d argument(s), got %d", want, len(args)), nil)
	}
	return nil
}
