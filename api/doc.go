// Package api provides the HTTP REST API for gridpath.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session ({"config_id": "maze"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session
//   - DELETE /api/sessions/{id} - Delete a session
//
// Grid Editing (idle searches only):
//   - POST /api/sessions/{id}/walls - Toggle a wall ({"row": 1, "col": 2})
//   - POST /api/sessions/{id}/export - Save the grid as a config ({"config_name": "mine"})
//
// Search:
//   - POST /api/sessions/{id}/start - Start a search
//   - POST /api/sessions/{id}/step - Expand one cell ({"auto_start": true})
//   - POST /api/sessions/{id}/bulk-step - Expand up to count cells, 0 for until done
//   - POST /api/sessions/{id}/reset - Back to idle, walls kept
//   - POST /api/sessions/{id}/play - Step on a timer until the search ends
//   - POST /api/sessions/{id}/pause - Stop the timer
//   - GET /api/sessions/{id}/state - Snapshot (?render=true adds text rows)
//   - GET /api/sessions/{id}/path - Path once the search is finished
//   - GET /api/sessions/{id}/trace - Expansion order (?page=&limit=&order=)
//
// Configuration:
//   - GET /api/configs - List configurations
//   - POST /api/configs - Save a configuration
//   - GET /api/configs/{name} - Get a configuration
//
// Other:
//   - GET /ws?session={id} - WebSocket snapshot stream
//   - GET /metrics - Prometheus metrics
//   - GET /health - Liveness
//
// Error Handling:
//
// Errors are returned as {"error": "message"}. Unknown sessions and configs
// are 404, bad coordinates 400, and operations invalid for the search state
// (editing a running grid, stepping an idle search, walled endpoints) 409.
package api
