package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/tobilabs/salesbot/internal/search"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the product catalog to agent
// clients over stdio.
type Server struct {
	searcher *search.Engine
	mcp      *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(searcher *search.Engine) *Server {
	s := &Server{searcher: searcher}

	s.mcp = server.NewMCPServer(
		"salesbot",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(searchProductsTool, s.handleSearchProducts)
	s.mcp.AddTool(getProductTool, s.handleGetProduct)
	s.mcp.AddTool(listBrandsTool, s.handleListBrands)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
