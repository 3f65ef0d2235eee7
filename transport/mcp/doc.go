// Package mcp exposes gridpath to AI agents over the Model Context Protocol.
//
// The client is a thin proxy: every tool call becomes a request against the
// REST API, and the response is formatted as text with the grid rendered one
// row per line.
//
// MCP Tools:
//   - create_session, list_sessions, get_session: Session management
//   - grid_state: Rendered grid with search progress
//   - toggle_wall: Edit the grid while the search is idle
//   - start_search, step, bulk_step, reset_search: Drive the search
//   - get_path, expansion_trace: Results
//   - list_configs: Available grid configurations
//   - search_instructions: Rules and legend
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
