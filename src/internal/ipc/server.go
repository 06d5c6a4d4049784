package ipc

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/CE-Thesis-2023/camctl/src/internal/configs"
	custerror "github.com/CE-Thesis-2023/camctl/src/internal/error"
	"github.com/CE-Thesis-2023/camctl/src/internal/logger"
	"github.com/CE-Thesis-2023/camctl/src/models/events"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

const maxLineSize = 64 * 1024

// Responder turns one command line into the value written back to the
// client.
type Responder interface {
	Respond(ctx context.Context, line string) interface{}
}

type Options struct {
	globalConfigs *configs.IpcConfigs
	responder     Responder
}

type Optioner func(opts *Options)

func WithGlobalConfigs(c *configs.IpcConfigs) Optioner {
	return func(opts *Options) {
		opts.globalConfigs = c
	}
}

func WithResponder(r Responder) Optioner {
	return func(opts *Options) {
		opts.responder = r
	}
}

// Server accepts newline delimited commands on a Unix domain socket. Every
// connection gets its own reader; lines on one connection are handled one at
// a time and answered in order.
type Server struct {
	options *Options

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closed   bool
	wg       sync.WaitGroup
}

func New(options ...Optioner) *Server {
	opts := &Options{}
	for _, opt := range options {
		opt(opts)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		options: opts,
		ctx:     ctx,
		cancel:  cancel,
		conns:   make(map[net.Conn]struct{}),
	}
}

func (s *Server) Name() string {
	return "ipc"
}

func (s *Server) SocketPath() string {
	return s.options.globalConfigs.SocketPath
}

func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Listen binds the socket, replacing a stale socket file left behind by a
// previous run.
func (s *Server) Listen() error {
	path := s.SocketPath()
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.SError("Listen: remove stale socket failed",
			zap.String("path", path),
			zap.Error(err))
		return custerror.FormatInternalError("remove stale socket: %s", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		logger.SError("Listen: bind failed",
			zap.String("path", path),
			zap.Error(err))
		return custerror.FormatInternalError("listen %s: %s", path, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		listener.Close()
		return net.ErrClosed
	}
	s.listener = listener
	logger.SInfo("Listen: command socket ready", zap.String("path", path))
	return nil
}

// Serve accepts connections until Stop is called.
func (s *Server) Serve() error {
	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener == nil {
		return custerror.FormatInternalError("ipc server is not listening")
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.SDebug("Serve: listener closed")
				return nil
			}
			logger.SError("Serve: accept failed", zap.Error(err))
			return err
		}

		if !s.track(conn) {
			conn.Close()
			return nil
		}
		go s.serveConn(conn)
	}
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.conns[conn]; found {
		delete(s.conns, conn)
		s.wg.Done()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer func() {
		s.untrack(conn)
		conn.Close()
	}()
	logger.SDebug("serveConn: client connected")

	reader := bufio.NewReaderSize(conn, 4096)
	for {
		line, tooLong, err := readLine(reader)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				logger.SDebug("serveConn: read failed", zap.Error(err))
			}
			break
		}

		var response interface{}
		switch {
		case tooLong:
			logger.SWarn("serveConn: line too long, skipping",
				zap.Int("limit", maxLineSize))
			response = events.NewCommandResponse(nil,
				custerror.FormatInvalidArgument("line too long"))
		case len(strings.TrimSpace(line)) == 0:
			continue
		default:
			response = s.options.responder.Respond(s.ctx, line)
		}

		out, err := sonic.Marshal(response)
		if err != nil {
			logger.SError("serveConn: encode response failed", zap.Error(err))
			return
		}
		if _, err := conn.Write(append(out, '\n')); err != nil {
			logger.SDebug("serveConn: write failed", zap.Error(err))
			return
		}
	}
	logger.SDebug("serveConn: client disconnected")
}

// readLine returns the next line without its line ending. A line longer
// than maxLineSize is consumed up to its newline and reported as too long.
func readLine(r *bufio.Reader) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return "", false, err
		}
		if !tooLong {
			if len(buf)+len(chunk) > maxLineSize {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			return string(buf), tooLong, nil
		}
	}
}

// Stop closes the listener and waits for open connections to finish. Once
// ctx is done the remaining connections are closed and their in flight
// commands canceled.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener != nil {
		listener.Close()
		if err := os.Remove(s.SocketPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.SWarn("Stop: remove socket failed", zap.Error(err))
		}
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		logger.SInfo("Stop: command socket closed")
		return nil
	case <-ctx.Done():
	}

	s.mu.Lock()
	remaining := len(s.conns)
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()
	s.cancel()
	logger.SWarn("Stop: closing connections still open",
		zap.Int("count", remaining))
	<-done
	return nil
}
