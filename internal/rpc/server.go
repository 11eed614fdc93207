// Package rpc serves the command surface over a line-delimited JSON-RPC
// stdio transport and pushes watcher notifications on the same stream.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/minjae/udbridge/internal/commands"
	"github.com/minjae/udbridge/internal/config"
)

// Server reads requests from stdin and writes responses and notifications
// to stdout. Notifications can originate from the watcher goroutine, so
// all writes go through a mutex.
type Server struct {
	config   *config.Config
	logger   *logrus.Logger
	registry *commands.Registry

	mu      sync.Mutex
	encoder *json.Encoder
}

// NewServer creates a new RPC server wired to the command registry
func NewServer(cfg *config.Config, registry *commands.Registry, logger *logrus.Logger) *Server {
	return &Server{
		config:   cfg,
		logger:   logger,
		registry: registry,
		encoder:  json.NewEncoder(os.Stdout),
	}
}

// Run serves requests until stdin closes or the context is cancelled
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("Starting RPC server with stdio transport")

	decoder := json.NewDecoder(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			var req map[string]interface{}
			if err := decoder.Decode(&req); err != nil {
				if err == io.EOF {
					return nil
				}
				s.logger.WithError(err).Error("Failed to decode request")
				continue
			}

			resp := s.handleRequest(req)
			if err := s.write(resp); err != nil {
				s.logger.WithError(err).Error("Failed to encode response")
			}
		}
	}
}

func (s *Server) write(msg map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.encoder.Encode(msg)
}

// notify pushes a server-initiated notification (no id, no response
// expected)
func (s *Server) notify(method string) {
	err := s.write(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
	})
	if err != nil {
		s.logger.WithError(err).WithField("method", method).Error("Failed to send notification")
	}
}

// UDBChanged implements watcher.Notifier
func (s *Server) UDBChanged() {
	s.notify("event/udb_changed")
}

// ShowRequested implements watcher.Notifier
func (s *Server) ShowRequested() {
	s.notify("event/show_main")
}

func (s *Server) handleRequest(req map[string]interface{}) map[string]interface{} {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      id,
			"result": map[string]interface{}{
				"protocolVersion": "2024-11-05",
				"capabilities": map[string]interface{}{
					"commands": map[string]interface{}{},
				},
				"serverInfo": map[string]interface{}{
					"name":    "udbridge",
					"version": "1.0.0",
				},
			},
		}

	case "commands/list":
		return map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      id,
			"result": map[string]interface{}{
				"commands": s.registry.GetCommandDefinitions(),
			},
		}

	case "commands/call":
		params, _ := req["params"].(map[string]interface{})
		name, _ := params["name"].(string)
		arguments, _ := params["arguments"].(map[string]interface{})

		cmd, exists := s.registry.GetCommand(name)
		if !exists {
			return errorResponse(id, -32601, fmt.Sprintf("Command not found: %s", name))
		}

		result, err := cmd.Execute(arguments)
		if err != nil {
			s.logger.WithError(err).WithField("command", name).Warn("Command failed")
			return errorResponse(id, -32603, err.Error())
		}

		return map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      id,
			"result":  result,
		}
	}

	return errorResponse(id, -32601, fmt.Sprintf("Method not found: %s", method))
}

func errorResponse(id interface{}, code int, message string) map[string]interface{} {
	return map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	}
}
