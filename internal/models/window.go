package models

import (
	"encoding/json"
	"fmt"

	"github.com/yourusername/winsync/internal/native"
)

// Methods understood by the window server
const (
	MethodPing           = "ping"
	MethodDescribe       = "describe"
	MethodSetSize        = "setSize"
	MethodSetMinimumSize = "setMinimumSize"
	MethodSetResizable   = "setResizable"
	MethodMaximize       = "maximize"
	MethodUnmaximize     = "unmaximize"
	MethodMinimize       = "minimize"
	MethodRestore        = "restore"
	MethodSetFullScreen  = "setFullScreen"
)

// EventSync carries a window state that changed without an edge.
// Every other event type is an edge name.
const EventSync = "sync"

// Error codes
const (
	ErrCodeInvalidParams  = -32602
	ErrCodeMethodNotFound = -32601
	ErrCodeWindow         = -32000
)

// WindowState is a numbered copy of every window getter. Seq grows with every
// state the server hands out, so a receiver can drop stale copies.
type WindowState struct {
	Seq  uint64      `json:"seq"`
	Info native.Info `json:"info"`
}

// Encode converts v into the generic map form used by params, results and event data
func Encode(v interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	return m, nil
}

// Decode fills v from a generic map
func Decode(m map[string]interface{}, v interface{}) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to decode %T: %w", v, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return nil
}
