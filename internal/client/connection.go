package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/yourusername/winsync/internal/logging"
	"github.com/yourusername/winsync/internal/models"
)

// ErrConnectionClosed is returned for requests on a closed connection
var ErrConnectionClosed = errors.New("connection closed")

// Connection manages the Unix domain socket connection to a window server.
// One reader goroutine routes responses to their waiting requests and hands
// events to the event handler in arrival order.
type Connection struct {
	socketPath string
	timeout    time.Duration

	mu      sync.Mutex
	conn    net.Conn
	pending map[string]chan *models.Response
	onEvent func(*models.Event)
	done    chan struct{}
	err     error

	writeMu sync.Mutex
}

// NewConnection creates a new connection instance
func NewConnection(socketPath string, timeout time.Duration) *Connection {
	return &Connection{
		socketPath: socketPath,
		timeout:    timeout,
		pending:    make(map[string]chan *models.Response),
	}
}

// SetEventHandler sets the function called for every pushed event. It runs on
// the reader goroutine and must not wait on a request.
func (c *Connection) SetEventHandler(fn func(*models.Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = fn
}

// Connect establishes the Unix domain socket connection
func (c *Connection) Connect() error {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return fmt.Errorf("failed to connect to socket %s: %w", c.socketPath, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.done = make(chan struct{})
	c.err = nil
	c.mu.Unlock()

	go c.readLoop(conn, c.done)
	return nil
}

func (c *Connection) readLoop(conn net.Conn, done chan struct{}) {
	reader := bufio.NewReader(conn)
	var err error
	for {
		var line []byte
		line, err = reader.ReadBytes('\n')
		if err != nil {
			break
		}

		var envelope models.MessageEnvelope
		if uerr := json.Unmarshal(line, &envelope); uerr != nil {
			logging.Warn().Err(uerr).Msg("dropping malformed message")
			continue
		}

		switch envelope.Type {
		case "response":
			if envelope.Response != nil {
				c.deliver(envelope.Response)
			}
		case "event":
			c.mu.Lock()
			handler := c.onEvent
			c.mu.Unlock()
			if handler != nil && envelope.Event != nil {
				handler(envelope.Event)
			}
		default:
			logging.Debug().Str("type", envelope.Type).Msg("ignoring message")
		}
	}

	c.mu.Lock()
	if c.conn == conn {
		c.err = err
		c.conn = nil
	}
	c.mu.Unlock()
	close(done)
}

func (c *Connection) deliver(resp *models.Response) {
	c.mu.Lock()
	ch, ok := c.pending[resp.ID]
	delete(c.pending, resp.ID)
	c.mu.Unlock()

	if ok {
		ch <- resp
	}
}

// Close closes the connection
func (c *Connection) Close() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	err := conn.Close()
	<-done
	return err
}

// SendRequest sends a request and waits for the response
func (c *Connection) SendRequest(ctx context.Context, req *models.MessageEnvelope) (*models.Response, error) {
	// Apply timeout if not already set
	if _, ok := ctx.Deadline(); !ok && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	c.mu.Lock()
	conn, done := c.conn, c.done
	if conn == nil {
		c.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	respChan := make(chan *models.Response, 1)
	c.pending[req.Request.ID] = respChan
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, req.Request.ID)
		c.mu.Unlock()
	}()

	// Marshal and send request
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	// Send with newline delimiter
	data = append(data, '\n')
	c.writeMu.Lock()
	if err := conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		c.writeMu.Unlock()
		return nil, fmt.Errorf("failed to set write deadline: %w", err)
	}
	_, err = conn.Write(data)
	c.writeMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("request cancelled or timed out: %w", ctx.Err())
	case <-done:
		return nil, fmt.Errorf("failed to read response: %w", ErrConnectionClosed)
	case resp := <-respChan:
		return resp, nil
	}
}

// IsConnected returns true if the connection is established
func (c *Connection) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// Err returns why the last connection ended, if it did
func (c *Connection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
