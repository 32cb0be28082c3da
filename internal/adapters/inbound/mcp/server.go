// Package mcp exposes the hardening engine as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/netharden/netharden/internal/application"
)

// Deps are the services the MCP tools call into.
type Deps struct {
	Audit *application.AuditService
	Apply *application.ApplyService
}

// NewServer creates an MCP server with the netharden tools registered.
func NewServer(version string, deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"netharden",
		version,
		server.WithToolCapabilities(true),
	)

	registerTools(s, deps)

	return s
}
