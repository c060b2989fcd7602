// SPDX-License-Identifier: MPL-2.0

package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/avorty/spito-lsp/internal/completion"
	"github.com/avorty/spito-lsp/internal/config"
	"github.com/avorty/spito-lsp/internal/workspace"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/jsonrpc2"
	"go.lsp.dev/protocol"
)

// ServerName is reported to clients in the initialize result.
const ServerName = "spito-lsp"

type (
	// Server is a single-use language server bound to one connection.
	Server struct {
		in      io.Reader
		out     io.Writer
		conn    atomic.Pointer[jsonrpc2.Conn]
		cfg     *config.Config
		logger  *log.Logger
		root    string
		version string

		state  atomic.Int32
		docs   *documents
		exited chan int

		// Set once during initialize, read-only afterwards.
		workspaceRoot string
		store         *workspace.Store
		provider      *completion.Provider

		mu        sync.Mutex
		stopped   bool
		stopWatch context.CancelFunc
		bg        sync.WaitGroup
	}

	// Option configures a Server.
	Option func(*Server)

	handlerFunc func(ctx context.Context, params json.RawMessage) (any, error)
)

// WithConfig sets the server configuration. Defaults apply when unset.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) {
		s.cfg = cfg
	}
}

// WithLogger sets the server logger. It must not write to the protocol stream.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithRoot sets the workspace root used when the client does not send one.
func WithRoot(root string) Option {
	return func(s *Server) {
		s.root = root
	}
}

// WithVersion sets the version reported in serverInfo.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// NewServer creates a Server reading requests from in and writing to out.
// in and out are closed when Run returns if they implement io.Closer.
func NewServer(in io.Reader, out io.Writer, opts ...Option) *Server {
	s := &Server{
		in:     in,
		out:    out,
		docs:   newDocuments(),
		exited: make(chan int, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg == nil {
		s.cfg = config.DefaultConfig()
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "lsp"})
	}
	s.state.Store(int32(StateCreated))
	return s
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	return State(s.state.Load())
}

// Store returns the workspace store, or nil before initialize.
func (s *Server) Store() *workspace.Store {
	return s.store
}

// Run serves messages until exit, end of input or ctx cancellation and
// returns the process exit code: 0 only when shutdown preceded exit. The
// connection is closed before Run returns.
func (s *Server) Run(ctx context.Context) int {
	opts := []jsonrpc2.ConnOpt{
		jsonrpc2.SetLogger(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.WarnLevel})),
	}
	if s.logger.GetLevel() <= log.DebugLevel {
		opts = append(opts, jsonrpc2.LogMessages(s.logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel})))
	}

	conn := jsonrpc2.NewConn(ctx, newStream(s.in, s.out), jsonrpc2.HandlerWithError(s.handle), opts...)
	s.conn.Store(conn)

	defer s.stop()
	defer func() {
		if err := conn.Close(); err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
			s.logger.Debug("close connection", "error", err)
		}
	}()

	select {
	case code := <-s.exited:
		return code
	case <-conn.DisconnectNotify():
		// An exit handled just before end of input wins.
		select {
		case code := <-s.exited:
			return code
		default:
		}
		s.state.Store(int32(StateExited))
		s.logger.Info("input closed")
		return 1
	case <-ctx.Done():
		s.state.Store(int32(StateExited))
		return 1
	}
}

// handle dispatches one message. Errors returned for requests are sent as
// *jsonrpc2.Error responses; errors for notifications are only logged.
func (s *Server) handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	s.conn.Store(conn)
	s.logger.Debug("received", "method", req.Method, "request", !req.Notif)

	if req.Method == protocol.MethodExit {
		code := 1
		if s.State() == StateShuttingDown {
			code = 0
		}
		s.state.Store(int32(StateExited))
		select {
		case s.exited <- code:
		default:
		}
		return nil, nil
	}

	switch s.State() {
	case StateCreated:
		if req.Method != protocol.MethodInitialize {
			if req.Notif {
				return nil, nil
			}
			return nil, rpcError(CodeServerNotInitialized, "server not initialized")
		}
	case StateShuttingDown, StateExited:
		if req.Notif {
			return nil, nil
		}
		return nil, rpcError(jsonrpc2.CodeInvalidRequest, "server is shutting down")
	}

	h, ok := s.route(req.Method)
	if !ok {
		if req.Notif {
			return nil, nil
		}
		return nil, rpcError(jsonrpc2.CodeMethodNotFound, "method not found: %s", req.Method)
	}

	var params json.RawMessage
	if req.Params != nil {
		params = *req.Params
	}
	result, err := h(ctx, params)
	if err == nil {
		return result, nil
	}
	if req.Notif {
		s.logger.Warn("notification failed", "method", req.Method, "error", err)
		return nil, nil
	}

	var rerr *jsonrpc2.Error
	if !errors.As(err, &rerr) {
		rerr = rpcError(jsonrpc2.CodeInternalError, "%v", err)
	}
	return nil, rerr
}

func (s *Server) route(method string) (handlerFunc, bool) {
	switch method {
	case protocol.MethodInitialize:
		return s.onInitialize, true
	case protocol.MethodInitialized:
		return s.onInitialized, true
	case protocol.MethodShutdown:
		return s.onShutdown, true
	case protocol.MethodTextDocumentDidOpen:
		return s.onDidOpen, true
	case protocol.MethodTextDocumentDidChange:
		return s.onDidChange, true
	case protocol.MethodTextDocumentDidClose:
		return s.onDidClose, true
	case protocol.MethodTextDocumentCompletion:
		return s.onCompletion, true
	case protocol.MethodCompletionItemResolve:
		return s.onCompletionResolve, true
	case protocol.MethodWorkspaceDidChangeWatchedFiles:
		return s.onDidChangeWatchedFiles, true
	case protocol.MethodCancelRequest, protocol.MethodSetTrace:
		return ignore, true
	default:
		return nil, false
	}
}

func ignore(context.Context, json.RawMessage) (any, error) {
	return nil, nil
}

func (s *Server) notify(method string, params any) {
	conn := s.conn.Load()
	if conn == nil {
		return
	}
	if err := conn.Notify(context.Background(), method, params); err != nil {
		s.logger.Debug("notification not sent", "method", method, "error", err)
	}
}

// logMessage shows a message in the client's log.
func (s *Server) logMessage(typ protocol.MessageType, message string) {
	s.notify(protocol.MethodWindowLogMessage, &protocol.LogMessageParams{Type: typ, Message: message})
}

// goBackground runs fn on a tracked goroutine unless the server is stopping.
func (s *Server) goBackground(fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.bg.Go(fn)
	return true
}

// stop cancels the watcher and waits for background refreshes. Later
// goBackground calls are refused.
func (s *Server) stop() {
	s.mu.Lock()
	s.stopped = true
	cancel := s.stopWatch
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.bg.Wait()
}
