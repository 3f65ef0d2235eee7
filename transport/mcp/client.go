package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/gridpath/pathfind/search"
	"github.com/wricardo/gridpath/pathfind/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"gridpath",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`gridpath - MCP Interface

Step through A* searches on grid mazes. This is a thin client that proxies all
requests to the REST API server.

AVAILABLE TOOLS:
- create_session: Create a session from a grid configuration
- list_sessions / get_session: Inspect sessions
- grid_state: Render the grid with search progress
- toggle_wall: Add or remove a wall (only before the search starts)
- start_search: Begin the search
- step: Expand one cell
- bulk_step: Expand many cells, or run to the end
- reset_search: Back to idle, walls kept
- get_path: The path once the search has finished
- expansion_trace: The order in which cells were expanded
- list_configs: List grid configurations
- search_instructions: How the search works and how to read the grid`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func sessionOnlySchema() mcp.ToolInputSchema {
	return mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]interface{}{
			"session_id": sessionIDProperty(),
		},
		Required: []string{"session_id"},
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new search session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Config ID from list_configs (optional, default grid otherwise)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active search sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetSession)

	// Grid
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "grid_state",
		Description: "Render the grid and search progress as text",
		InputSchema: sessionOnlySchema(),
	}, c.handleGridState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_wall",
		Description: "Toggle a wall at (row, col). Only allowed while the search is idle.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"row": map[string]interface{}{
					"type":        "integer",
					"description": "Row (0-based, y)",
				},
				"col": map[string]interface{}{
					"type":        "integer",
					"description": "Column (0-based, x)",
				},
			},
			Required: []string{"session_id", "row", "col"},
		},
	}, c.handleToggleWall)

	// Search
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_search",
		Description: "Start the search from the start cell",
		InputSchema: sessionOnlySchema(),
	}, c.handleStartSearch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Expand the next cell of the search",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"auto_start": map[string]interface{}{
					"type":        "boolean",
					"description": "Start the search first if it is idle",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_step",
		Description: fmt.Sprintf("Expand up to count cells; count 0 runs until the search ends (at most %d per call)", search.MaxBulkSteps),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of expansions, 0 for until done",
				},
				"auto_start": map[string]interface{}{
					"type":        "boolean",
					"description": "Start the search first if it is idle",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleBulkStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_search",
		Description: "Reset the search to idle; walls are kept",
		InputSchema: sessionOnlySchema(),
	}, c.handleResetSearch)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_path",
		Description: "Get the path from start to goal once the search has finished",
		InputSchema: sessionOnlySchema(),
	}, c.handleGetPath)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "expansion_trace",
		Description: "Get the order in which cells were expanded",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "asc for first expansion first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleExpansionTrace)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available grid configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "search_instructions",
		Description: "Explain the search rules and the grid legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleSearchInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// Argument helpers. JSON numbers arrive as float64.

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

func boolArg(args map[string]interface{}, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	id := stringArg(args, "session_id")
	if id == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return id, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]string{}
	if configID := stringArg(args, "config_id"); configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		state := "unknown"
		if s.Snapshot != nil {
			state = s.Snapshot.State
		}
		fmt.Fprintf(&b, "- %s (Config: %s, State: %s, Created: %s)\n",
			s.ID, s.ConfigName, state, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGridState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var snap search.Snapshot
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

func (c *Client) handleToggleWall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	row, okRow := intArg(args, "row")
	col, okCol := intArg(args, "col")
	if !okRow || !okCol {
		return mcp.NewToolResultError("row and col are required integers"), nil
	}

	var snap search.Snapshot
	body := map[string]int{"row": row, "col": col}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/walls"), body, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Toggled wall at row %d, col %d\n\n%s", row, col, formatSnapshot(&snap))), nil
}

func (c *Client) handleStartSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var result service.StartResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/start"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Search started (run %s)\n\n%s", result.RunID, formatSnapshot(result.Snapshot))), nil
}

func (c *Client) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	var result service.StepResult
	body := map[string]bool{"auto_start": boolArg(args, "auto_start")}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/step"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleBulkStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	count, _ := intArg(args, "count")

	var result service.BulkStepResult
	body := map[string]interface{}{
		"count":      count,
		"auto_start": boolArg(args, "auto_start"),
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-step"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkStepResult(&result)), nil
}

func (c *Client) handleResetSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Message  string           `json:"message"`
		Snapshot *search.Snapshot `json:"snapshot"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/reset"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(response.Message + "\n\n" + formatSnapshot(response.Snapshot)), nil
}

func (c *Client) handleGetPath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var result service.PathResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/path"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatPathResult(&result)), nil
}

func (c *Client) handleExpansionTrace(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	query := url.Values{}
	if page, ok := intArg(args, "page"); ok && page > 0 {
		query.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArg(args, "limit"); ok && limit > 0 {
		query.Set("limit", fmt.Sprint(limit))
	}
	if order := stringArg(args, "order"); order != "" {
		query.Set("order", order)
	}

	path := sessionPath(sessionID, "/trace")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var trace service.TraceResponse
	if err := c.apiCall(ctx, "GET", path, nil, &trace); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTrace(&trace)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, cfg := range configs {
		fmt.Fprintf(&b, "- %s: %s (%dx%d)", cfg.ConfigID, cfg.Name, cfg.Rows, cfg.Cols)
		if cfg.Description != "" {
			fmt.Fprintf(&b, " - %s", cfg.Description)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nUse the config_id with create_session.")

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleSearchInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`gridpath - Search Instructions

WHAT HAPPENS:
A* searches a grid from the start cell S to the goal cell G, moving one cell
at a time north, south, east or west. Every move costs 1 and the heuristic is
the Manhattan distance to the goal, so any path found is a shortest path.

LIFECYCLE:
1. idle: edit walls freely with toggle_wall
2. start_search: the start cell enters the open set; the grid is now locked
3. step / bulk_step: each step removes the open cell with the lowest f = g + h
   (ties broken by lower h, then by insertion order) and expands it
4. found: the goal was reached; get_path returns the route
   exhausted: the open set emptied; no path exists
5. reset_search: back to idle, walls kept

GRID LEGEND:
  %c  free cell
  %c  wall
  %c  start
  %c  goal
  %c  open (discovered, waiting to be expanded)
  %c  closed (expanded)
  %c  path

COORDINATES:
Rows run top to bottom, columns left to right, both 0-based. Positions are
printed as (x,y) = (col,row). toggle_wall takes row and col explicitly.

LIMITS:
- Grids are between %d and %d cells on each side
- bulk_step runs at most %d expansions per call
- Walls cannot be toggled while a search is running or finished`,
		search.RuneFree, search.RuneWall, search.RuneStart, search.RuneGoal,
		search.RuneOpen, search.RuneClosed, search.RunePath,
		search.MinGridSize, search.MaxGridSize, search.MaxBulkSteps)

	return mcp.NewToolResultText(instructions), nil
}

// Formatting

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	if session.RunID != "" {
		fmt.Fprintf(&b, "Run: %s\n", session.RunID)
	}
	if session.Snapshot != nil {
		b.WriteString("\n")
		b.WriteString(formatSnapshot(session.Snapshot))
	}
	return b.String()
}

func formatSnapshot(snap *search.Snapshot) string {
	if snap == nil {
		return "(no snapshot)"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "State: %s | Steps: %d | Open: %d | Closed: %d\n",
		snap.State, snap.Steps, len(snap.Open), len(snap.Closed))
	fmt.Fprintf(&b, "Start: (%d,%d) Goal: (%d,%d) Grid: %dx%d\n",
		snap.Start.X, snap.Start.Y, snap.Goal.X, snap.Goal.Y, snap.Rows, snap.Cols)
	if snap.Current != nil {
		fmt.Fprintf(&b, "Last expanded: (%d,%d)\n", snap.Current.X, snap.Current.Y)
	}
	switch {
	case snap.Found:
		fmt.Fprintf(&b, "Goal reached, path length %d\n", pathLength(snap.Path))
	case snap.Done:
		b.WriteString("No path exists\n")
	}

	b.WriteString("\n")
	for _, line := range search.Render(snap) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func formatStepResult(result *service.StepResult) string {
	var b strings.Builder
	if result.Started {
		fmt.Fprintf(&b, "Search started (run %s)\n", result.RunID)
	}
	fmt.Fprintf(&b, "%s [%s]\n\n", result.Message, result.Status)
	b.WriteString(formatSnapshot(result.Snapshot))
	return b.String()
}

func formatBulkStepResult(result *service.BulkStepResult) string {
	var b strings.Builder
	if result.Started {
		fmt.Fprintf(&b, "Search started (run %s)\n", result.RunID)
	}
	requested := "until done"
	if result.RequestedSteps > 0 {
		requested = fmt.Sprint(result.RequestedSteps)
	}
	fmt.Fprintf(&b, "Executed %d steps (requested %s): %s [%s]\n",
		result.StepsExecuted, requested, result.Message, result.Status)
	if result.Truncated {
		fmt.Fprintf(&b, "Stopped at the %d step limit; call bulk_step again to continue\n", result.Limit)
	}
	if n := len(result.Expanded); n > 0 {
		b.WriteString("Expanded: ")
		b.WriteString(formatPositions(result.Expanded, 20))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(formatSnapshot(result.Snapshot))
	return b.String()
}

func formatPathResult(result *service.PathResult) string {
	if !result.Found {
		return fmt.Sprintf("No path exists (state %s, %d cells expanded)", result.State, result.Expanded)
	}
	return fmt.Sprintf("Path found: %d moves, %d cells expanded\n%s",
		result.Length, result.Expanded, formatPositions(result.Path, 0))
}

func formatTrace(trace *service.TraceResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Expansion Trace (Page %d/%d) - Total steps: %d\n\n",
		trace.Page, trace.TotalPages, trace.TotalSteps)
	for _, entry := range trace.Entries {
		fmt.Fprintf(&b, "%d. (%d,%d)\n", entry.Step, entry.Position.X, entry.Position.Y)
	}
	if trace.HasNext {
		b.WriteString("\nMore entries on the next page.")
	}
	return b.String()
}

// formatPositions joins positions as (x,y) -> ...; limit 0 means all
func formatPositions(ps []search.Position, limit int) string {
	parts := make([]string, 0, len(ps))
	for i, p := range ps {
		if limit > 0 && i == limit {
			parts = append(parts, fmt.Sprintf("... (%d more)", len(ps)-limit))
			break
		}
		parts = append(parts, fmt.Sprintf("(%d,%d)", p.X, p.Y))
	}
	return strings.Join(parts, " -> ")
}

func pathLength(path []search.Position) int {
	if len(path) == 0 {
		return 0
	}
	return len(path) - 1
}
