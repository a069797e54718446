package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"hopper/internal/daemon"
	"hopper/internal/logging"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create socket directory: %w", err)
	}
	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logging.NewComponentLogger(logger, "ipc"), ctx: serverCtx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file. Connected clients are
// served until they disconnect.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "Remove the socket file manually or rerun hopper stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) requestContext(meta RequestMeta) (context.Context, *slog.Logger) {
	ctx := s.ctx
	if id := strings.TrimSpace(meta.RequestID); id != "" {
		ctx = logging.WithRequestID(ctx, id)
	}
	return ctx, logging.WithContext(ctx, s.logger)
}

func (s *service) Query(req QueryRequest, resp *QueryResponse) error {
	ctx, log := s.requestContext(req.RequestMeta)
	log.Debug("query requested", logging.String("search", req.Search), logging.Int("limit", req.Limit))
	found, err := s.daemon.Query(ctx, req.Search, req.Limit)
	if err != nil {
		return err
	}
	resp.Apps = found
	return nil
}

func (s *service) Launch(req LaunchRequest, resp *LaunchResponse) error {
	ctx, log := s.requestContext(req.RequestMeta)
	if strings.TrimSpace(req.ID) == "" {
		return errors.New("launch requires an application id")
	}
	log.Debug("launch requested", logging.String(logging.FieldAppID, req.ID))
	app, pid, err := s.daemon.Launch(ctx, req.ID)
	if err != nil {
		return err
	}
	resp.App = app
	resp.PID = pid
	log.Info("application launched via IPC",
		logging.String(logging.FieldEventType, "launch"),
		logging.String(logging.FieldAppID, app.ID),
		logging.String("name", app.Name),
		logging.Int("pid", pid))
	return nil
}

func (s *service) Rescan(req RescanRequest, resp *RescanResponse) error {
	ctx, log := s.requestContext(req.RequestMeta)
	log.Debug("rescan requested")
	count, scanErrs, err := s.daemon.Rescan(ctx)
	if err != nil {
		return err
	}
	resp.Apps = count
	for _, scanErr := range scanErrs {
		resp.Errors = append(resp.Errors, scanErr.Error())
	}
	log.Info("registry rescanned via IPC",
		logging.String(logging.FieldEventType, "rescan"),
		logging.Int("app_count", count),
		logging.Int("scan_errors", len(scanErrs)))
	return nil
}

func (s *service) Status(req StatusRequest, resp *StatusResponse) error {
	ctx, _ := s.requestContext(req.RequestMeta)
	status := s.daemon.Status(ctx)
	*resp = StatusResponse{
		Running:       status.Running,
		PID:           status.PID,
		StartedAt:     status.StartedAt,
		ConfigPath:    status.ConfigPath,
		DBPath:        status.DBPath,
		HistoryPath:   status.HistoryPath,
		LockPath:      status.LockPath,
		AppDirs:       status.AppDirs,
		Watched:       status.Watched,
		AppCount:      status.AppCount,
		HalfLife:      status.HalfLife,
		ReferenceTime: status.ReferenceTime,
		LastRescan:    status.LastRescan,
		ScanErrors:    status.ScanErrors,
		LastError:     status.LastError,
	}
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	ctx, _ := s.requestContext(req.RequestMeta)
	entries, counts, err := s.daemon.History(ctx, req.Limit)
	if err != nil {
		return err
	}
	resp.Entries = entries
	resp.Counts = counts
	return nil
}

func (s *service) Stop(req StopRequest, resp *StopResponse) error {
	_, log := s.requestContext(req.RequestMeta)
	log.Info("daemon stop requested via IPC",
		logging.String(logging.FieldEventType, "daemon_stop_requested"))
	// Stop waits for watcher callbacks; answer first.
	go s.daemon.Stop()
	resp.Stopped = true
	return nil
}
