package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/winsync/internal/models"
)

const (
	DefaultSocketPath = "/tmp/winsync.sock"
	DefaultTimeout    = 30 * time.Second
)

// Client talks to a window server
type Client struct {
	conn *Connection
}

// NewClient creates a new window server client
func NewClient(socketPath string, timeout time.Duration) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		conn: NewConnection(socketPath, timeout),
	}
}

// Connect establishes connection to the server
func (c *Client) Connect() error {
	return c.conn.Connect()
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}

// OnEvent sets the handler for pushed events
func (c *Client) OnEvent(fn func(*models.Event)) {
	c.conn.SetEventHandler(fn)
}

// request is a helper to send a request and get the response
func (c *Client) request(ctx context.Context, method string, params map[string]interface{}) (*models.Response, error) {
	if !c.conn.IsConnected() {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	req := models.NewRequest(uuid.New().String(), method, params)
	return c.conn.SendRequest(ctx, req)
}

// Ping sends a ping request to test connectivity
func (c *Client) Ping(ctx context.Context) (map[string]interface{}, error) {
	return c.CallMethod(ctx, models.MethodPing, nil)
}

// Describe fetches the window's current state
func (c *Client) Describe(ctx context.Context) (models.WindowState, error) {
	result, err := c.CallMethod(ctx, models.MethodDescribe, nil)
	if err != nil {
		return models.WindowState{}, err
	}

	var st models.WindowState
	if err := models.Decode(result, &st); err != nil {
		return models.WindowState{}, err
	}
	return st, nil
}

// CallMethod sends a generic RPC request with the given method and parameters
func (c *Client) CallMethod(ctx context.Context, method string, params map[string]interface{}) (map[string]interface{}, error) {
	resp, err := c.request(ctx, method, params)
	if err != nil {
		return nil, err
	}

	if resp.IsError() {
		return nil, fmt.Errorf("server error: %s", resp.GetError())
	}

	return resp.Result, nil
}
