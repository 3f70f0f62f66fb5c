// Package server hosts a native.Window on a Unix domain socket. Clients send
// newline-delimited JSON requests; every edge the window fires is pushed to
// all clients as an event carrying the full window state.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/yourusername/winsync/internal/logging"
	"github.com/yourusername/winsync/internal/models"
	"github.com/yourusername/winsync/internal/native"
	"github.com/yourusername/winsync/internal/types"
)

// Version is reported by ping
const Version = "1"

// DefaultPollInterval is how often the window is checked for changes that
// fire no edge (minimum size, position, resizable)
const DefaultPollInterval = 100 * time.Millisecond

// Server serves one window
type Server struct {
	win          native.Window
	socketPath   string
	pollInterval time.Duration

	mu        sync.Mutex
	ln        net.Listener
	conns     map[*conn]struct{}
	seq       uint64
	last      native.Info
	listeners []native.ListenerID

	wg        sync.WaitGroup
	closeOnce sync.Once
}

type conn struct {
	net.Conn
	writeMu sync.Mutex
}

func (c *conn) send(env *models.MessageEnvelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.Write(data)
	return err
}

// New creates a server for win. pollInterval <= 0 uses DefaultPollInterval.
func New(win native.Window, socketPath string, pollInterval time.Duration) *Server {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &Server{
		win:          win,
		socketPath:   socketPath,
		pollInterval: pollInterval,
		conns:        make(map[*conn]struct{}),
	}
}

// Listen binds the socket, replacing a stale one, and starts forwarding edges
func (s *Server) Listen() error {
	if err := os.Remove(s.socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.socketPath, err)
	}

	s.mu.Lock()
	s.ln = ln
	s.last = native.Describe(s.win)
	for _, edge := range types.Edges {
		edge := edge
		s.listeners = append(s.listeners, s.win.On(edge, func() { s.broadcast(string(edge)) }))
	}
	s.mu.Unlock()

	logging.Info().Str("socket", s.socketPath).Msg("window server listening")
	return nil
}

// Addr returns the socket path
func (s *Server) Addr() string {
	return s.socketPath
}

// Serve accepts clients until ctx is done or Close is called
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("server is not listening")
	}

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	s.wg.Add(1)
	go s.poll(ctx)

	for {
		nc, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept failed: %w", err)
		}

		c := &conn{Conn: nc}
		s.mu.Lock()
		s.conns[c] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handleConn(c)
	}
}

// Close stops accepting, disconnects every client and removes the socket
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		ln := s.ln
		for _, id := range s.listeners {
			s.win.Off(id)
		}
		s.listeners = nil
		conns := make([]*conn, 0, len(s.conns))
		for c := range s.conns {
			conns = append(conns, c)
		}
		s.mu.Unlock()

		if ln != nil {
			err = ln.Close()
		}
		for _, c := range conns {
			c.Close()
		}
		s.wg.Wait()
		os.Remove(s.socketPath)
		logging.Info().Msg("window server stopped")
	})
	return err
}

func (s *Server) handleConn(c *conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		c.Close()
	}()

	logging.Debug().Msg("client connected")
	reader := bufio.NewReader(c)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			logging.Debug().Err(err).Msg("client disconnected")
			return
		}

		var env models.MessageEnvelope
		if err := json.Unmarshal(line, &env); err != nil || env.Type != "request" || env.Request == nil {
			logging.Warn().Msg("dropping malformed request")
			continue
		}

		if err := c.send(s.handle(env.Request)); err != nil {
			logging.Warn().Err(err).Msg("failed to write response")
			return
		}
	}
}

// handle runs one request against the window. Edges fired by the call are
// broadcast before the response is written.
func (s *Server) handle(req *models.Request) *models.MessageEnvelope {
	var params struct {
		Size       types.Vec2 `json:"size"`
		Resizable  bool       `json:"resizable"`
		FullScreen bool       `json:"fullScreen"`
	}
	if req.Params != nil {
		if err := models.Decode(req.Params, &params); err != nil {
			return models.NewErrorResponse(req.ID, models.ErrCodeInvalidParams, err.Error())
		}
	}

	var err error
	switch req.Method {
	case models.MethodPing:
		return models.NewResponse(req.ID, map[string]interface{}{
			"pong":    true,
			"version": Version,
		})
	case models.MethodDescribe:
	case models.MethodSetSize:
		err = s.win.SetSize(params.Size)
	case models.MethodSetMinimumSize:
		err = s.win.SetMinimumSize(params.Size)
	case models.MethodSetResizable:
		err = s.win.SetResizable(params.Resizable)
	case models.MethodMaximize:
		err = s.win.Maximize()
	case models.MethodUnmaximize:
		err = s.win.Unmaximize()
	case models.MethodMinimize:
		err = s.win.Minimize()
	case models.MethodRestore:
		err = s.win.Restore()
	case models.MethodSetFullScreen:
		err = s.win.SetFullScreen(params.FullScreen)
	default:
		return models.NewErrorResponse(req.ID, models.ErrCodeMethodNotFound, "unknown method: "+req.Method)
	}

	if err != nil {
		logging.Warn().Err(err).Str("method", req.Method).Msg("window call failed")
		return models.NewErrorResponse(req.ID, models.ErrCodeWindow, err.Error())
	}

	result, err := models.Encode(s.snapshot())
	if err != nil {
		return models.NewErrorResponse(req.ID, models.ErrCodeWindow, err.Error())
	}
	return models.NewResponse(req.ID, result)
}

// snapshot numbers the window's current state
func (s *Server) snapshot() models.WindowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.last = native.Describe(s.win)
	return models.WindowState{Seq: s.seq, Info: s.last}
}

func (s *Server) broadcast(eventType string) {
	data, err := models.Encode(s.snapshot())
	if err != nil {
		logging.Error().Err(err).Msg("failed to encode window state")
		return
	}
	env := models.NewEvent(eventType, data)

	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		if err := c.send(env); err != nil {
			logging.Debug().Err(err).Msg("failed to push event")
		}
	}
}

// poll pushes a sync event when the window changed without an edge
func (s *Server) poll(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			closed := s.listeners == nil
			changed := native.Describe(s.win) != s.last
			s.mu.Unlock()
			if closed {
				return
			}
			if changed {
				s.broadcast(models.EventSync)
			}
		}
	}
}
